package scheduler

import (
	"time"

	"github.com/rs/zerolog/log"
)

// Sweeper is the part of the session registry the sweep job needs.
type Sweeper interface {
	SweepIdle(ttl time.Duration) int
}

// SweepJob drops sessions that have been idle for longer than ttl.
type SweepJob struct {
	sweeper Sweeper
	ttl     time.Duration
}

func NewSweepJob(sweeper Sweeper, ttl time.Duration) *SweepJob {
	return &SweepJob{sweeper: sweeper, ttl: ttl}
}

// Run implements cron.Job (github.com/robfig/cron/v3).
func (j *SweepJob) Run() {
	removed := j.sweeper.SweepIdle(j.ttl)
	if removed > 0 {
		log.Info().Int("removed", removed).Dur("ttl", j.ttl).Msg("[Scheduler] idle sessions swept")
		return
	}
	log.Debug().Msg("[Scheduler] sweep found no idle sessions")
}
