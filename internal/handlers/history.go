package handlers

import (
	"net/http"
	"strconv"

	"media-grabber/internal/logging"
)

const defaultHistoryLimit = 100

// GetHistory returns the most recent completed downloads, newest first.
func (h *Handlers) GetHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	records, err := h.history.History(r.Context(), limit)
	if err != nil {
		logging.Error("failed to load download history: %v", err)
		writeFailure(w, "Failed to load history")
		return
	}

	writeJSON(w, map[string]interface{}{
		"history": records,
	})
}
