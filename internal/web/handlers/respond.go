package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"battle-arena/internal/session"
)

// SessionStore is what the handlers need from the session registry.
type SessionStore interface {
	Create() *session.Controller
	Get(id string) (*session.Controller, error)
	Delete(id string) error
}

type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("[Web] encode response failed")
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Error: message})
}

// respondSessionError maps session errors onto status codes.
func respondSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, session.ErrMissingImage):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, session.ErrInvalidTransition):
		respondError(w, http.StatusConflict, err.Error())
	default:
		log.Error().Err(err).Msg("[Web] unexpected session error")
		respondError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
	}
}
