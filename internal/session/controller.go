package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"battle-arena/internal/models"
)

// Analyzer is the battle analysis pipeline as seen by a session.
type Analyzer interface {
	Analyze(ctx context.Context, image1, image2 models.Image) (*models.BattleResult, error)
}

// PreviewStore keeps transient copies of uploaded images for display.
type PreviewStore interface {
	Save(sessionID string, slot int, img models.Image) error
	Release(sessionID string) error
}

// Snapshot is a read-only view of a session for the presentation layer.
type Snapshot struct {
	ID        string               `json:"id"`
	State     Phase                `json:"state"`
	Result    *models.BattleResult `json:"result,omitempty"`
	Error     string               `json:"error,omitempty"`
	Previews  []string             `json:"previews,omitempty"`
	UpdatedAt time.Time            `json:"updatedAt"`
}

// Controller owns the state of one session. Only it mutates State, always
// through Transition.
type Controller struct {
	id              string
	analyzer        Analyzer
	previews        PreviewStore
	fallbackMessage string
	now             func() time.Time

	mu          sync.Mutex
	state       State
	previewURLs []string
	updatedAt   time.Time
	closed      bool
}

// NewController returns a controller in Idle. previews may be nil.
func NewController(id string, analyzer Analyzer, previews PreviewStore, fallbackMessage string) *Controller {
	return &Controller{
		id:              id,
		analyzer:        analyzer,
		previews:        previews,
		fallbackMessage: fallbackMessage,
		now:             time.Now,
		state:           State{Phase: PhaseIdle},
		updatedAt:       time.Now(),
	}
}

func (c *Controller) ID() string { return c.id }

// Start moves Idle to Analyzing and runs the pipeline in the background. The
// returned channel is closed once that attempt has settled.
func (c *Controller) Start(image1, image2 *models.Image) (<-chan struct{}, error) {
	c.mu.Lock()
	if err := c.applyLocked(StartEvent{Image1: image1, Image2: image2}); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	attempt := c.state.Attempt
	c.mu.Unlock()

	log.Info().Str("session", c.id).Uint64("attempt", attempt).Msg("[Session] battle analysis started")

	done := make(chan struct{})
	go func() {
		defer close(done)
		result, err := c.analyzer.Analyze(context.Background(), *image1, *image2)
		if err != nil {
			c.settle(FailEvent{Attempt: attempt, Message: err.Error()})
			return
		}
		c.settle(SucceedEvent{Attempt: attempt, Result: result})
	}()
	return done, nil
}

// Reset returns from Results or Error to Idle and drops images, result and
// error. It is refused while an analysis is running.
func (c *Controller) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.applyLocked(ResetEvent{})
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		ID:        c.id,
		State:     c.state.Phase,
		Result:    c.state.Result,
		Error:     c.state.Error,
		UpdatedAt: c.updatedAt,
	}
	if len(c.previewURLs) > 0 {
		snap.Previews = append([]string(nil), c.previewURLs...)
	}
	return snap
}

// State returns a copy of the raw state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// HasPreview reports whether slot currently has an allocated preview.
func (c *Controller) HasPreview(slot int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slot >= 1 && slot <= len(c.previewURLs)
}

// Close releases previews. Settlements arriving afterwards are ignored.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.releasePreviewsLocked()
}

func (c *Controller) idleSince() (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.updatedAt, c.state.Phase != PhaseAnalyzing
}

func (c *Controller) settle(ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if err := c.applyLocked(ev); err != nil {
		log.Warn().Err(err).Str("session", c.id).Msg("[Session] settlement discarded")
		return
	}
	switch c.state.Phase {
	case PhaseResults:
		log.Info().Str("session", c.id).Uint64("attempt", c.state.Attempt).Msg("[Session] battle analysis finished")
	case PhaseError:
		log.Warn().Str("session", c.id).Str("error", c.state.Error).Msg("[Session] battle analysis failed")
	}
}

func (c *Controller) applyLocked(ev Event) error {
	prev := c.state.Phase
	next, err := Transition(c.state, ev, c.fallbackMessage)
	if err != nil {
		return err
	}
	c.state = next
	c.updatedAt = c.now()

	if prev == PhaseResults && next.Phase != PhaseResults {
		c.releasePreviewsLocked()
	}
	if prev != PhaseResults && next.Phase == PhaseResults {
		c.allocatePreviewsLocked()
	}
	return nil
}

func (c *Controller) allocatePreviewsLocked() {
	if c.previews == nil {
		return
	}
	urls := make([]string, 0, 2)
	for slot, img := range []*models.Image{c.state.Image1, c.state.Image2} {
		if img == nil {
			return
		}
		if err := c.previews.Save(c.id, slot+1, *img); err != nil {
			log.Warn().Err(err).Str("session", c.id).Int("slot", slot+1).Msg("[Session] preview allocation failed")
			c.releasePreviewsLocked()
			return
		}
		urls = append(urls, PreviewURL(c.id, slot+1))
	}
	c.previewURLs = urls
}

func (c *Controller) releasePreviewsLocked() {
	c.previewURLs = nil
	if c.previews == nil {
		return
	}
	if err := c.previews.Release(c.id); err != nil {
		log.Warn().Err(err).Str("session", c.id).Msg("[Session] preview release failed")
	}
}

// PreviewURL is the path under which the web layer serves a preview.
func PreviewURL(sessionID string, slot int) string {
	return fmt.Sprintf("/sessions/%s/previews/%d", sessionID, slot)
}
