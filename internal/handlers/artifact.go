package handlers

import (
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path"

	"go.uber.org/zap"
)

// ArtifactHandler serves stored artifact files
type ArtifactHandler struct {
	artifacts ArtifactSource
	log       *zap.Logger
}

// NewArtifactHandler creates a new artifact handler
func NewArtifactHandler(artifacts ArtifactSource, log *zap.Logger) *ArtifactHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &ArtifactHandler{artifacts: artifacts, log: log}
}

// ServeHTTP handles GET /runs/{id}/artifacts/{path...}. Only paths listed in
// the run's manifest are served.
func (h *ArtifactHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id, rel := r.PathValue("id"), r.PathValue("path")
	entry, file, err := h.artifacts.ArtifactPath(id, rel)
	if errors.Is(err, fs.ErrNotExist) || isNotFound(err) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		h.log.Error("failed to resolve artifact", zap.String("run_id", id), zap.String("path", rel), zap.Error(err))
		http.Error(w, "Failed to load artifact", http.StatusInternalServerError)
		return
	}

	f, err := os.Open(file)
	if errors.Is(err, fs.ErrNotExist) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		h.log.Error("failed to open artifact", zap.String("file", file), zap.Error(err))
		http.Error(w, "Failed to load artifact", http.StatusInternalServerError)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		h.log.Error("failed to stat artifact", zap.String("file", file), zap.Error(err))
		http.Error(w, "Failed to load artifact", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", entry.Kind.ContentType())
	http.ServeContent(w, r, path.Base(rel), info.ModTime(), f)
}
