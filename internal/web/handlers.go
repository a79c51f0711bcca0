package web

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/JonMunkholm/cleaner/internal/storage"
	"github.com/JonMunkholm/cleaner/internal/web/views"
	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// handleIndex renders the upload form.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	maxSize := ""
	if limit := s.service.MaxFileSize(); limit > 0 {
		maxSize = humanize.IBytes(uint64(limit))
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := views.Index(maxSize).Render(r.Context(), w); err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
	}
}

// handleDownload redirects to the stored file of one artifact.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "artifactID")
	name := chi.URLParam(r, "filename")

	if _, err := s.service.Store().Path(id, name); err != nil {
		http.NotFound(w, r)
		return
	}

	http.Redirect(w, r, "/files/"+id+"/"+url.PathEscape(name), http.StatusFound)
}

// handleFile serves a stored artifact file as an attachment.
func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "artifactID")
	name := chi.URLParam(r, "filename")

	f, err := s.service.Store().Open(id, name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidName) {
			http.NotFound(w, r)
			return
		}
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	http.ServeContent(w, r, name, info.ModTime(), f)
}

// handleHealth reports liveness and upload slot usage.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]any{
		"status":  "ok",
		"uploads": s.service.LimiterStatus(),
	})
}
