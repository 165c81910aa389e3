package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"battle-arena/internal/models"
)

type fakeAnalyzer struct {
	result *models.BattleResult
	err    error
	// release, when set, blocks Analyze until closed.
	release chan struct{}
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, image1, image2 models.Image) (*models.BattleResult, error) {
	if f.release != nil {
		<-f.release
	}
	return f.result, f.err
}

type fakePreviews struct {
	mu       sync.Mutex
	saved    map[string][]int
	released []string
	saveErr  error
}

func newFakePreviews() *fakePreviews {
	return &fakePreviews{saved: make(map[string][]int)}
}

func (p *fakePreviews) Save(sessionID string, slot int, img models.Image) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.saveErr != nil {
		return p.saveErr
	}
	p.saved[sessionID] = append(p.saved[sessionID], slot)
	return nil
}

func (p *fakePreviews) Release(sessionID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.saved, sessionID)
	p.released = append(p.released, sessionID)
	return nil
}

func (p *fakePreviews) slots(sessionID string) []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]int(nil), p.saved[sessionID]...)
}

func waitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("analysis did not settle in time")
	}
}

func TestController_Success(t *testing.T) {
	result := &models.BattleResult{Combatant1: models.Combatant{Name: "Hai"}, Winner: models.SideFirst}
	previews := newFakePreviews()
	c := NewController("s1", &fakeAnalyzer{result: result}, previews, fallback)

	if c.Snapshot().State != PhaseIdle {
		t.Fatalf("Expected initial state Idle, got %s", c.Snapshot().State)
	}

	done, err := c.Start(img("a"), img("b"))
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	waitDone(t, done)

	snap := c.Snapshot()
	if snap.State != PhaseResults || snap.Result != result {
		t.Fatalf("Expected Results with the pipeline result, got %+v", snap)
	}
	if len(snap.Previews) != 2 || snap.Previews[0] != "/sessions/s1/previews/1" || snap.Previews[1] != "/sessions/s1/previews/2" {
		t.Errorf("Unexpected preview urls: %v", snap.Previews)
	}
	if got := previews.slots("s1"); len(got) != 2 {
		t.Errorf("Expected 2 saved previews, got %v", got)
	}
	if !c.HasPreview(1) || !c.HasPreview(2) || c.HasPreview(3) {
		t.Error("Unexpected HasPreview answers in Results")
	}

	if err := c.Reset(); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	snap = c.Snapshot()
	if snap.State != PhaseIdle || snap.Result != nil || snap.Error != "" || len(snap.Previews) != 0 {
		t.Errorf("Expected clean Idle after reset, got %+v", snap)
	}
	st := c.State()
	if st.Image1 != nil || st.Image2 != nil {
		t.Error("Expected images to be cleared on reset")
	}
	if got := previews.slots("s1"); len(got) != 0 {
		t.Errorf("Expected previews released on reset, still have %v", got)
	}
	if c.HasPreview(1) {
		t.Error("Expected no preview after reset")
	}
}

func TestController_Failure(t *testing.T) {
	previews := newFakePreviews()
	c := NewController("s2", &fakeAnalyzer{err: errors.New("inference request failed: 500 - server error")}, previews, fallback)

	done, err := c.Start(img("a"), img("b"))
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	waitDone(t, done)

	snap := c.Snapshot()
	if snap.State != PhaseError || snap.Error != "inference request failed: 500 - server error" {
		t.Fatalf("Expected Error state with message, got %+v", snap)
	}
	if len(snap.Previews) != 0 || len(previews.slots("s2")) != 0 {
		t.Error("Expected no previews in Error")
	}

	if err := c.Reset(); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if c.Snapshot().State != PhaseIdle {
		t.Errorf("Expected Idle after reset, got %s", c.Snapshot().State)
	}
}

func TestController_FailureWithoutMessage(t *testing.T) {
	c := NewController("s3", &fakeAnalyzer{err: errors.New("")}, nil, fallback)

	done, _ := c.Start(img("a"), img("b"))
	waitDone(t, done)

	if got := c.Snapshot().Error; got != fallback {
		t.Errorf("Expected fallback message, got %q", got)
	}
}

func TestController_OneAnalysisAtATime(t *testing.T) {
	an := &fakeAnalyzer{result: &models.BattleResult{Winner: models.SideSecond}, release: make(chan struct{})}
	c := NewController("s4", an, nil, fallback)

	done, err := c.Start(img("a"), img("b"))
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if _, err := c.Start(img("c"), img("d")); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Expected second start to be rejected, got %v", err)
	}
	if err := c.Reset(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Expected reset during analysis to be rejected, got %v", err)
	}
	if c.Snapshot().State != PhaseAnalyzing {
		t.Errorf("Expected Analyzing, got %s", c.Snapshot().State)
	}

	close(an.release)
	waitDone(t, done)
	if c.Snapshot().State != PhaseResults {
		t.Errorf("Expected Results, got %s", c.Snapshot().State)
	}
}

func TestController_MissingImage(t *testing.T) {
	c := NewController("s5", &fakeAnalyzer{}, nil, fallback)
	if _, err := c.Start(img("a"), nil); !errors.Is(err, ErrMissingImage) {
		t.Errorf("Expected ErrMissingImage, got %v", err)
	}
	if c.Snapshot().State != PhaseIdle {
		t.Errorf("Expected to stay Idle, got %s", c.Snapshot().State)
	}
}

func TestController_SettlementAfterCloseIgnored(t *testing.T) {
	an := &fakeAnalyzer{result: &models.BattleResult{Winner: models.SideFirst}, release: make(chan struct{})}
	previews := newFakePreviews()
	c := NewController("s6", an, previews, fallback)

	done, err := c.Start(img("a"), img("b"))
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	c.Close()
	close(an.release)
	waitDone(t, done)

	if c.Snapshot().State != PhaseAnalyzing {
		t.Errorf("Expected closed session to ignore settlement, got %s", c.Snapshot().State)
	}
	if len(previews.slots("s6")) != 0 {
		t.Error("Expected no previews allocated after close")
	}
}

func TestController_PreviewFailureKeepsResult(t *testing.T) {
	previews := newFakePreviews()
	previews.saveErr = errors.New("disk full")
	result := &models.BattleResult{Winner: models.SideFirst}
	c := NewController("s7", &fakeAnalyzer{result: result}, previews, fallback)

	done, _ := c.Start(img("a"), img("b"))
	waitDone(t, done)

	snap := c.Snapshot()
	if snap.State != PhaseResults || snap.Result != result {
		t.Fatalf("Expected Results despite preview failure, got %+v", snap)
	}
	if len(snap.Previews) != 0 {
		t.Errorf("Expected no preview urls, got %v", snap.Previews)
	}
}

func TestController_RetryAfterReset(t *testing.T) {
	an := &fakeAnalyzer{err: errors.New("boom")}
	c := NewController("s8", an, nil, fallback)

	done, _ := c.Start(img("a"), img("b"))
	waitDone(t, done)
	if err := c.Reset(); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}

	an.err = nil
	an.result = &models.BattleResult{Winner: models.SideSecond}
	done, err := c.Start(img("a"), img("b"))
	if err != nil {
		t.Fatalf("second Start failed: %v", err)
	}
	waitDone(t, done)

	st := c.State()
	if st.Phase != PhaseResults || st.Attempt != 2 {
		t.Errorf("Expected Results on attempt 2, got %+v", st)
	}
}
