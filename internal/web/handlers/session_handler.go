package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// SessionHandler creates, shows and deletes sessions.
type SessionHandler struct {
	sessions SessionStore
}

func NewSessionHandler(sessions SessionStore) (*SessionHandler, error) {
	if sessions == nil {
		return nil, errors.New("SessionHandler: session store must not be nil")
	}
	return &SessionHandler{sessions: sessions}, nil
}

// Health answers liveness probes.
func (h *SessionHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// Create opens a session on the upload screen.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	c := h.sessions.Create()
	log.Info().Str("session", c.ID()).Str("remote", r.RemoteAddr).Msg("[SessionHandler] session created")
	respondJSON(w, http.StatusCreated, c.Snapshot())
}

// Get returns the current snapshot. Clients poll it while the state is
// ANALYZING.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		respondSessionError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, c.Snapshot())
}

func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.sessions.Delete(id); err != nil {
		respondSessionError(w, err)
		return
	}
	log.Info().Str("session", id).Msg("[SessionHandler] session deleted")
	w.WriteHeader(http.StatusNoContent)
}
