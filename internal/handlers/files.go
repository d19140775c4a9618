package handlers

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gorilla/mux"

	"media-grabber/internal/logging"
)

const errFileNotFound = "File not found"

// DownloadFile streams a completed download out of the download
// directory as an attachment.
func (h *Handlers) DownloadFile(w http.ResponseWriter, r *http.Request) {
	filename := mux.Vars(r)["filename"]

	// Engine output filenames are always basenames; anything with path
	// separators or traversal segments is hostile.
	if filename == "" || filename != filepath.Base(filename) {
		writeFailure(w, errFileNotFound)
		return
	}

	fullPath := filepath.Join(h.downloadDir, filename)

	// Security check
	absPath, err := filepath.Abs(fullPath)
	if err != nil || !isSubPath(h.downloadDir, absPath) {
		writeFailure(w, errFileNotFound)
		return
	}

	info, err := os.Stat(fullPath)
	if err != nil || info.IsDir() {
		logging.Debug("file request for %s: not found", filename)
		writeFailure(w, errFileNotFound)
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	http.ServeFile(w, r, fullPath)
}

func isSubPath(parent, child string) bool {
	parent, _ = filepath.Abs(parent)
	child, _ = filepath.Abs(child)
	return len(child) >= len(parent) && child[:len(parent)] == parent
}
