package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var ErrSessionNotFound = errors.New("session not found")

// Registry holds the live sessions of the server.
type Registry struct {
	analyzer        Analyzer
	previews        PreviewStore
	fallbackMessage string
	now             func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Controller
}

// NewRegistry returns an empty registry. previews may be nil.
func NewRegistry(analyzer Analyzer, previews PreviewStore, fallbackMessage string) (*Registry, error) {
	if analyzer == nil {
		return nil, errors.New("Registry: analyzer must not be nil")
	}
	return &Registry{
		analyzer:        analyzer,
		previews:        previews,
		fallbackMessage: fallbackMessage,
		now:             time.Now,
		sessions:        make(map[string]*Controller),
	}, nil
}

// Create starts a new session in Idle.
func (r *Registry) Create() *Controller {
	c := NewController(uuid.NewString(), r.analyzer, r.previews, r.fallbackMessage)
	c.now = r.now
	c.updatedAt = r.now()

	r.mu.Lock()
	r.sessions[c.id] = c
	r.mu.Unlock()

	log.Debug().Str("session", c.id).Msg("[Registry] session created")
	return c
}

func (r *Registry) Get(id string) (*Controller, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return c, nil
}

// Delete closes and forgets a session.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	c, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	c.Close()
	log.Debug().Str("session", id).Msg("[Registry] session deleted")
	return nil
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// SweepIdle deletes sessions untouched for longer than ttl. Sessions with a
// running analysis are kept; the pipeline timeout bounds them.
func (r *Registry) SweepIdle(ttl time.Duration) int {
	cutoff := r.now().Add(-ttl)

	r.mu.Lock()
	var expired []*Controller
	for id, c := range r.sessions {
		updatedAt, settled := c.idleSince()
		if settled && updatedAt.Before(cutoff) {
			expired = append(expired, c)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, c := range expired {
		c.Close()
	}
	return len(expired)
}

// CloseAll closes every session, used on shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Controller)
	r.mu.Unlock()

	for _, c := range sessions {
		c.Close()
	}
}
