package handlers

import (
	"net/http"
	"runtime"
	"time"

	"media-grabber/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusDegraded = "degraded"
)

var startTime = time.Now()

// HealthResponse contains the health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`

	// Job state
	ActiveDownloads int `json:"activeDownloads"`
	TrackedJobs     int `json:"trackedJobs"`

	// Backing store
	DatabaseOK    bool   `json:"databaseOk"`
	DatabaseError string `json:"databaseError,omitempty"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`
}

// HealthCheck returns the health status of the service
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:          statusHealthy,
		Version:         startup.Version,
		Uptime:          time.Since(startTime).Round(time.Second).String(),
		ActiveDownloads: h.store.Active(),
		TrackedJobs:     h.store.Tracked(),
		DatabaseOK:      true,
		GoVersion:       runtime.Version(),
		NumCPU:          runtime.NumCPU(),
		NumGoroutine:    runtime.NumGoroutine(),
	}

	if h.db != nil {
		if err := h.db.Ping(r.Context()); err != nil {
			response.Status = statusDegraded
			response.DatabaseOK = false
			response.DatabaseError = err.Error()
		}
	}

	writeJSON(w, response)
}

// LivenessCheck is a simple liveness probe (always returns 200 if server is running)
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	// For HEAD requests, only send headers (no body)
	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{
			"status": "alive",
		})
	}
}

// ReadinessCheck returns 200 only when the history database is reachable
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		if err := h.db.Ping(r.Context()); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			writeJSON(w, map[string]string{
				"status": "not_ready",
			})
			return
		}
	}

	writeJSON(w, map[string]string{
		"status": "ready",
	})
}
