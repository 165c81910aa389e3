package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"battle-arena/internal/models"
)

// BattleHandler starts analyses and resets sessions. The analysis itself runs
// in the background; clients follow it through the session snapshot.
type BattleHandler struct {
	sessions       SessionStore
	maxUploadBytes int64
}

func NewBattleHandler(sessions SessionStore, maxUploadBytes int64) (*BattleHandler, error) {
	if sessions == nil {
		return nil, errors.New("BattleHandler: session store must not be nil")
	}
	if maxUploadBytes <= 0 {
		return nil, fmt.Errorf("BattleHandler: max upload size must be positive, got %d", maxUploadBytes)
	}
	return &BattleHandler{sessions: sessions, maxUploadBytes: maxUploadBytes}, nil
}

// Start reads the multipart fields image1 and image2 and moves the session to
// ANALYZING.
func (h *BattleHandler) Start(w http.ResponseWriter, r *http.Request) {
	c, err := h.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		respondSessionError(w, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "upload too large")
			return
		}
		respondError(w, http.StatusBadRequest, "expected multipart form with image1 and image2")
		return
	}
	defer r.MultipartForm.RemoveAll()

	image1, err := readImage(r, "image1")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	image2, err := readImage(r, "image2")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := c.Start(image1, image2); err != nil {
		log.Warn().Err(err).Str("session", c.ID()).Msg("[BattleHandler] start refused")
		respondSessionError(w, err)
		return
	}
	respondJSON(w, http.StatusAccepted, c.Snapshot())
}

// Reset goes back to the upload screen from RESULTS or ERROR.
func (h *BattleHandler) Reset(w http.ResponseWriter, r *http.Request) {
	c, err := h.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		respondSessionError(w, err)
		return
	}
	if err := c.Reset(); err != nil {
		respondSessionError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, c.Snapshot())
}

// readImage returns nil when the field is absent so the session decides how
// a missing image is reported.
func readImage(r *http.Request, field string) (*models.Image, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", field, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", field, err)
	}
	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(data)
	}
	return &models.Image{FileName: header.Filename, MIMEType: mimeType, Data: data}, nil
}
