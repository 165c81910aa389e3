package session

import (
	"errors"
	"fmt"

	"battle-arena/internal/models"
)

// Phase is the screen the user is on.
type Phase string

const (
	PhaseIdle      Phase = "IDLE"
	PhaseAnalyzing Phase = "ANALYZING"
	PhaseResults   Phase = "RESULTS"
	PhaseError     Phase = "ERROR"
)

var (
	ErrMissingImage      = errors.New("both images are required")
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrStaleAttempt      = errors.New("settlement for a stale analysis attempt")
)

// State is the whole UI state of one session. Images are set from Start until
// Reset; Result only in Results; Error only in Error.
type State struct {
	Phase   Phase
	Image1  *models.Image
	Image2  *models.Image
	Result  *models.BattleResult
	Error   string
	Attempt uint64
}

// Event is something that moves a State.
type Event interface {
	event()
}

// StartEvent asks to analyze two selected images.
type StartEvent struct {
	Image1, Image2 *models.Image
}

// SucceedEvent carries the pipeline result of an attempt.
type SucceedEvent struct {
	Attempt uint64
	Result  *models.BattleResult
}

// FailEvent carries the display message of a failed attempt.
type FailEvent struct {
	Attempt uint64
	Message string
}

// ResetEvent returns to the upload screen.
type ResetEvent struct{}

func (StartEvent) event()   {}
func (SucceedEvent) event() {}
func (FailEvent) event()    {}
func (ResetEvent) event()   {}

// Transition computes the state that follows s on ev. It never mutates s.
// fallbackMessage replaces an empty FailEvent message.
func Transition(s State, ev Event, fallbackMessage string) (State, error) {
	switch e := ev.(type) {
	case StartEvent:
		if s.Phase != PhaseIdle {
			return s, fmt.Errorf("%w: start while %s", ErrInvalidTransition, s.Phase)
		}
		if e.Image1 == nil || e.Image2 == nil || e.Image1.Empty() || e.Image2.Empty() {
			return s, ErrMissingImage
		}
		return State{
			Phase:   PhaseAnalyzing,
			Image1:  e.Image1,
			Image2:  e.Image2,
			Attempt: s.Attempt + 1,
		}, nil

	case SucceedEvent:
		if err := checkSettlement(s, e.Attempt); err != nil {
			return s, err
		}
		if e.Result == nil {
			return s, fmt.Errorf("%w: success without result", ErrInvalidTransition)
		}
		next := s
		next.Phase = PhaseResults
		next.Result = e.Result
		return next, nil

	case FailEvent:
		if err := checkSettlement(s, e.Attempt); err != nil {
			return s, err
		}
		msg := e.Message
		if msg == "" {
			msg = fallbackMessage
		}
		next := s
		next.Phase = PhaseError
		next.Error = msg
		return next, nil

	case ResetEvent:
		switch s.Phase {
		case PhaseIdle, PhaseResults, PhaseError:
			return State{Phase: PhaseIdle, Attempt: s.Attempt}, nil
		default:
			return s, fmt.Errorf("%w: reset while %s", ErrInvalidTransition, s.Phase)
		}

	default:
		return s, fmt.Errorf("%w: unknown event %T", ErrInvalidTransition, ev)
	}
}

func checkSettlement(s State, attempt uint64) error {
	if attempt != s.Attempt {
		return ErrStaleAttempt
	}
	if s.Phase != PhaseAnalyzing {
		return fmt.Errorf("%w: settlement while %s", ErrInvalidTransition, s.Phase)
	}
	return nil
}
