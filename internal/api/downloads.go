package api

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
)

var filenamePattern = regexp.MustCompile(`^[\w\-.]+\.csv$`)

// DownloadsHandler serves GET /api/downloads/{filename} for CSV exports
// produced by the save_search_to_csv tool. The filename pattern rules out
// path traversal.
type DownloadsHandler struct {
	DataDir string
}

func (h *DownloadsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	filename := r.PathValue("filename")
	if !filenamePattern.MatchString(filename) {
		http.Error(w, "invalid filename", http.StatusBadRequest)
		return
	}

	path := filepath.Join(h.DataDir, filename)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		http.Error(w, "file not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Type", "text/csv")
	http.ServeFile(w, r, path)
}
