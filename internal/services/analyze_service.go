package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"battle-arena/internal/config"
	"battle-arena/internal/models"
)

// BattleService turns two images into a BattleResult with one inference call.
type BattleService struct {
	generator     Generator
	timeout       time.Duration
	temperature   float32
	strict        bool
	promptVersion string
	prompt        config.BattlePrompt
}

// NewBattleService builds the pipeline from the analysis and prompt settings.
func NewBattleService(cfg *config.Config, generator Generator) (*BattleService, error) {
	if cfg == nil {
		return nil, errors.New("BattleService: config must not be nil")
	}
	if generator == nil {
		return nil, errors.New("BattleService: generator must not be nil")
	}
	if cfg.Analysis.Timeout <= 0 {
		return nil, fmt.Errorf("BattleService: timeout must be positive, got %s", cfg.Analysis.Timeout)
	}

	version, prompt := ResolvePrompt(cfg.Prompts.Battle)
	log.Info().
		Str("engine", generator.Name()).
		Str("promptVersion", version).
		Dur("timeout", cfg.Analysis.Timeout).
		Bool("strict", cfg.Analysis.StrictValidation).
		Msg("[BattleService] initialized")

	return &BattleService{
		generator:     generator,
		timeout:       cfg.Analysis.Timeout,
		temperature:   cfg.Analysis.Temperature,
		strict:        cfg.Analysis.StrictValidation,
		promptVersion: version,
		prompt:        prompt,
	}, nil
}

// Analyze runs one analysis of image1 against image2. Callers guarantee both
// images are present.
//
// The inference call races a timer. When the timer wins the call is abandoned,
// not cancelled: it may still complete, but its answer lands in a buffered
// channel nobody reads and is never parsed or logged.
func (s *BattleService) Analyze(ctx context.Context, image1, image2 models.Image) (*models.BattleResult, error) {
	req := models.GenerateRequest{
		SystemInstruction: s.prompt.SystemInstruction,
		Prompt:            s.prompt.Prompt,
		Images:            []models.Image{image1, image2},
		Temperature:       s.temperature,
	}

	type settlement struct {
		text string
		err  error
	}
	settled := make(chan settlement, 1)
	started := time.Now()
	go func() {
		text, err := s.generator.Generate(ctx, req)
		settled <- settlement{text: text, err: err}
	}()

	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	var text string
	select {
	case st := <-settled:
		if st.err != nil {
			return nil, s.fail(classifyGenerateError(st.err))
		}
		text = st.text
	case <-timer.C:
		return nil, s.fail(timeoutError(s.timeout))
	case <-ctx.Done():
		return nil, s.fail(fmt.Errorf("battle analysis aborted: %w", ctx.Err()))
	}

	log.Info().
		Str("engine", s.generator.Name()).
		Dur("elapsed", time.Since(started)).
		Str("text", text).
		Msg("[BattleService] AI response")

	result, err := parseBattleResult(text, s.strict)
	if err != nil {
		return nil, s.fail(err)
	}
	return result, nil
}

func (s *BattleService) fail(err error) error {
	ev := log.Error().Err(err).Str("engine", s.generator.Name())
	var aerr *AnalysisError
	if errors.As(err, &aerr) {
		ev = ev.Str("kind", string(aerr.Kind))
	}
	ev.Msg("[BattleService] battle analysis failed")
	return err
}

func classifyGenerateError(err error) error {
	var statusErr *models.UpstreamStatusError
	if errors.As(err, &statusErr) {
		return &AnalysisError{Kind: KindTransport, StatusCode: statusErr.StatusCode, Body: statusErr.Body, Err: err}
	}
	var envErr *models.EnvelopeError
	if errors.As(err, &envErr) {
		return &AnalysisError{Kind: KindMalformedResponse, Detail: "unreadable response envelope", Err: err}
	}
	return &AnalysisError{Kind: KindTransport, Err: err}
}
