package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// PreviewFiles resolves a stored preview to a file on disk.
type PreviewFiles interface {
	Path(sessionID string, slot int) (string, error)
}

// PreviewHandler serves the uploaded images back while a result is shown.
type PreviewHandler struct {
	sessions SessionStore
	files    PreviewFiles
}

func NewPreviewHandler(sessions SessionStore, files PreviewFiles) (*PreviewHandler, error) {
	if sessions == nil || files == nil {
		return nil, errors.New("PreviewHandler: session store and preview files must not be nil")
	}
	return &PreviewHandler{sessions: sessions, files: files}, nil
}

func (h *PreviewHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	c, err := h.sessions.Get(id)
	if err != nil {
		respondSessionError(w, err)
		return
	}
	slot, err := strconv.Atoi(chi.URLParam(r, "slot"))
	if err != nil || slot < 1 || slot > 2 {
		respondError(w, http.StatusBadRequest, "slot must be 1 or 2")
		return
	}
	if !c.HasPreview(slot) {
		respondError(w, http.StatusNotFound, "no preview for this slot")
		return
	}

	path, err := h.files.Path(id, slot)
	if err != nil {
		log.Warn().Err(err).Str("session", id).Int("slot", slot).Msg("[PreviewHandler] preview file missing")
		respondError(w, http.StatusNotFound, "no preview for this slot")
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	// ServeFile sets Content-Type from the extension and handles range requests.
	http.ServeFile(w, r, path)
}
