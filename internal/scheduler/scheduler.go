package scheduler

import (
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

const stopTimeout = 10 * time.Second

type Scheduler struct {
	cron     *cron.Cron
	sweepJob *SweepJob
}

// NewScheduler registers the idle-session sweep under cronSpec, a six-field
// expression with seconds.
func NewScheduler(sweeper Sweeper, cronSpec string, ttl time.Duration) (*Scheduler, error) {
	if sweeper == nil {
		return nil, errors.New("Scheduler: sweeper must not be nil")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("Scheduler: session idle ttl must be positive, got %s", ttl)
	}
	c := cron.New(cron.WithSeconds())
	job := NewSweepJob(sweeper, ttl)

	if cronSpec == "" {
		log.Warn().Msg("[Scheduler] no sweep cron spec given, idle sessions will not be swept")
	} else {
		if _, err := c.AddJob(cronSpec, job); err != nil {
			return nil, fmt.Errorf("register sweep job (spec: %s): %w", cronSpec, err)
		}
		log.Info().Str("spec", cronSpec).Dur("ttl", ttl).Msg("[Scheduler] sweep job registered")
	}

	return &Scheduler{cron: c, sweepJob: job}, nil
}

// Start runs the cron loop in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	log.Info().Msg("[Scheduler] started")
}

// Stop waits up to stopTimeout for a running sweep to finish.
func (s *Scheduler) Stop() {
	log.Info().Msg("[Scheduler] stopping")
	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
		log.Info().Msg("[Scheduler] stopped")
	case <-time.After(stopTimeout):
		log.Warn().Msg("[Scheduler] stop timed out, a sweep may still be running")
	}
}
