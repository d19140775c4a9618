package middleware

import "net/http"

// CORSConfig holds configuration for the CORS middleware
type CORSConfig struct {
	AllowedOrigin string
}

// DefaultCORSConfig allows any origin, matching the browser-facing nature
// of the API (the front-end may be served from a different host).
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{AllowedOrigin: "*"}
}

// CORS returns a middleware that answers preflight requests and stamps
// cross-origin headers on every response.
func CORS(config CORSConfig) func(http.Handler) http.Handler {
	origin := config.AllowedOrigin
	if origin == "" {
		origin = "*"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
