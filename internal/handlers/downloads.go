package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"media-grabber/internal/engine"
	"media-grabber/internal/logging"
)

const (
	errNoURL            = "No URL provided"
	errDownloadNotFound = "Download not found"

	defaultFormat  = "mp4"
	defaultQuality = "720"
)

// downloadRequest is the body of both metadata and download requests.
type downloadRequest struct {
	URL     string `json:"url"`
	Format  string `json:"format"`
	Quality string `json:"quality"`
}

// decodeRequest parses the JSON body. A missing or malformed body yields
// an empty request; the URL check downstream turns that into the uniform
// validation error.
func decodeRequest(r *http.Request) downloadRequest {
	var req downloadRequest
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logging.Debug("failed to decode request body: %v", err)
		}
	}
	return req
}

// VideoInfo fetches metadata for a URL without downloading anything.
func (h *Handlers) VideoInfo(w http.ResponseWriter, r *http.Request) {
	req := decodeRequest(r)
	if req.URL == "" {
		writeFailure(w, errNoURL)
		return
	}

	meta, err := h.engine.FetchMetadata(r.Context(), req.URL)
	if err != nil {
		logging.Error("metadata fetch failed for %s: %v", req.URL, err)
		writeFailure(w, err.Error())
		return
	}

	writeJSON(w, map[string]interface{}{
		"success":    true,
		"title":      meta.Title,
		"duration":   meta.Duration,
		"uploader":   meta.Uploader,
		"view_count": meta.ViewCount,
		"thumbnail":  meta.Thumbnail,
		"formats":    meta.Formats,
	})
}

// StartDownload registers a new download job and returns its id
// immediately. The actual transfer runs on a background worker; clients
// poll GetProgress for completion.
func (h *Handlers) StartDownload(w http.ResponseWriter, r *http.Request) {
	req := decodeRequest(r)
	if req.URL == "" {
		writeFailure(w, errNoURL)
		return
	}

	if req.Format == "" {
		req.Format = defaultFormat
	}
	if req.Quality == "" {
		req.Quality = defaultQuality
	}

	id := h.coordinator.Start(req.URL, engine.KindFromString(req.Format), req.Quality)

	writeJSON(w, map[string]interface{}{
		"success":     true,
		"download_id": id,
		"message":     "Download started",
	})
}

// GetProgress reports the current state of a job: its transient progress
// while downloading, or the terminal result once finished.
func (h *Handlers) GetProgress(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["download_id"]

	view, ok := h.store.Get(id)
	if !ok {
		writeFailure(w, errDownloadNotFound)
		return
	}

	if view.Result == nil {
		writeJSON(w, map[string]interface{}{
			"success":  true,
			"complete": false,
			"progress": view.Progress,
			"speed":    view.Speed,
			"eta":      view.Eta,
		})
		return
	}

	writeJSON(w, map[string]interface{}{
		"success":  true,
		"complete": true,
		"result":   view.Result,
	})
}

// CancelDownload removes a job's tracking entry. Cancellation is
// best-effort: an in-flight engine download keeps running, but its result
// is dropped and the id stops resolving.
func (h *Handlers) CancelDownload(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["download_id"]

	if !h.coordinator.Cancel(id) {
		writeFailure(w, errDownloadNotFound)
		return
	}

	writeJSON(w, map[string]interface{}{
		"success": true,
		"message": "Download cancelled",
	})
}
