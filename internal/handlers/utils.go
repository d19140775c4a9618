package handlers

import (
	"encoding/json"
	"net/http"

	"media-grabber/internal/logging"
)

// writeJSON encodes v as JSON and writes it to the response writer.
// Any encoding or write errors are logged since we typically cannot
// recover from them in an HTTP handler context.
func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to encode JSON response: %v", err)
	}
}

// writeFailure writes the uniform domain-error shape. Domain errors are
// always HTTP 200; the success flag carries the outcome.
func writeFailure(w http.ResponseWriter, message string) {
	writeJSON(w, map[string]interface{}{
		"success": false,
		"error":   message,
	})
}
