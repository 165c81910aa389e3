package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"battle-arena/internal/services"
	"battle-arena/internal/session"
)

// ShareHandler renders the share text and mailto link of a finished battle.
type ShareHandler struct {
	sessions SessionStore
}

func NewShareHandler(sessions SessionStore) (*ShareHandler, error) {
	if sessions == nil {
		return nil, errors.New("ShareHandler: session store must not be nil")
	}
	return &ShareHandler{sessions: sessions}, nil
}

func (h *ShareHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c, err := h.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		respondSessionError(w, err)
		return
	}
	snap := c.Snapshot()
	if snap.State != session.PhaseResults || snap.Result == nil {
		respondError(w, http.StatusConflict, "no battle result to share")
		return
	}
	respondJSON(w, http.StatusOK, services.NewShare(snap.Result))
}
