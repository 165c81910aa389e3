package session

import (
	"errors"
	"testing"

	"battle-arena/internal/models"
)

const fallback = "Die Battle-Analyse ist fehlgeschlagen."

func img(name string) *models.Image {
	return &models.Image{FileName: name, MIMEType: "image/png", Data: []byte(name)}
}

func TestTransition_HappyPath(t *testing.T) {
	s := State{Phase: PhaseIdle, Error: "old error"}

	s, err := Transition(s, StartEvent{Image1: img("a"), Image2: img("b")}, fallback)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if s.Phase != PhaseAnalyzing || s.Attempt != 1 || s.Error != "" {
		t.Fatalf("Unexpected state after start: %+v", s)
	}
	if s.Image1.FileName != "a" || s.Image2.FileName != "b" {
		t.Errorf("Expected images to be recorded, got %+v / %+v", s.Image1, s.Image2)
	}

	result := &models.BattleResult{Winner: models.SideFirst}
	s, err = Transition(s, SucceedEvent{Attempt: 1, Result: result}, fallback)
	if err != nil {
		t.Fatalf("succeed: %v", err)
	}
	if s.Phase != PhaseResults || s.Result != result {
		t.Fatalf("Unexpected state after success: %+v", s)
	}

	s, err = Transition(s, ResetEvent{}, fallback)
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if s.Phase != PhaseIdle || s.Image1 != nil || s.Image2 != nil || s.Result != nil || s.Error != "" {
		t.Errorf("Expected a clean Idle state after reset, got %+v", s)
	}
	if s.Attempt != 1 {
		t.Errorf("Expected attempt counter to survive reset, got %d", s.Attempt)
	}
}

func TestTransition_Failure(t *testing.T) {
	s := State{Phase: PhaseAnalyzing, Attempt: 3, Image1: img("a"), Image2: img("b")}

	next, err := Transition(s, FailEvent{Attempt: 3, Message: "inference request failed: 500 - server error"}, fallback)
	if err != nil {
		t.Fatalf("fail: %v", err)
	}
	if next.Phase != PhaseError || next.Error != "inference request failed: 500 - server error" {
		t.Errorf("Unexpected state after failure: %+v", next)
	}

	next, err = Transition(s, FailEvent{Attempt: 3}, fallback)
	if err != nil {
		t.Fatalf("fail: %v", err)
	}
	if next.Error != fallback {
		t.Errorf("Expected fallback message, got %q", next.Error)
	}

	next, err = Transition(next, ResetEvent{}, fallback)
	if err != nil || next.Phase != PhaseIdle || next.Error != "" || next.Image1 != nil {
		t.Errorf("Expected reset from Error to Idle, got %+v (%v)", next, err)
	}
}

func TestTransition_DoesNotMutateInput(t *testing.T) {
	s := State{Phase: PhaseAnalyzing, Attempt: 1}
	_, _ = Transition(s, SucceedEvent{Attempt: 1, Result: &models.BattleResult{}}, fallback)
	if s.Phase != PhaseAnalyzing || s.Result != nil {
		t.Errorf("Transition mutated its input: %+v", s)
	}
}

func TestTransition_Rejections(t *testing.T) {
	analyzing := State{Phase: PhaseAnalyzing, Attempt: 2}
	results := State{Phase: PhaseResults, Attempt: 2, Result: &models.BattleResult{}}

	tests := []struct {
		name  string
		state State
		event Event
		want  error
	}{
		{"start missing image", State{Phase: PhaseIdle}, StartEvent{Image1: img("a")}, ErrMissingImage},
		{"start empty image", State{Phase: PhaseIdle}, StartEvent{Image1: img("a"), Image2: &models.Image{MIMEType: "image/png"}}, ErrMissingImage},
		{"start while analyzing", analyzing, StartEvent{Image1: img("a"), Image2: img("b")}, ErrInvalidTransition},
		{"start from results", results, StartEvent{Image1: img("a"), Image2: img("b")}, ErrInvalidTransition},
		{"stale success", analyzing, SucceedEvent{Attempt: 1, Result: &models.BattleResult{}}, ErrStaleAttempt},
		{"stale failure", analyzing, FailEvent{Attempt: 1}, ErrStaleAttempt},
		{"success without result", analyzing, SucceedEvent{Attempt: 2}, ErrInvalidTransition},
		{"success after results", results, SucceedEvent{Attempt: 2, Result: &models.BattleResult{}}, ErrInvalidTransition},
		{"failure after results", results, FailEvent{Attempt: 2, Message: "late"}, ErrInvalidTransition},
		{"reset while analyzing", analyzing, ResetEvent{}, ErrInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, err := Transition(tt.state, tt.event, fallback)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Expected %v, got %v", tt.want, err)
			}
			if next.Phase != tt.state.Phase || next.Attempt != tt.state.Attempt {
				t.Errorf("Expected state unchanged on rejection, got %+v", next)
			}
		})
	}
}

func TestTransition_ResetFromIdle(t *testing.T) {
	next, err := Transition(State{Phase: PhaseIdle}, ResetEvent{}, fallback)
	if err != nil || next.Phase != PhaseIdle {
		t.Errorf("Expected reset in Idle to be a no-op, got %+v (%v)", next, err)
	}
}
