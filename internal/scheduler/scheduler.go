// Package scheduler wires up the cron jobs that sweep expired share links
// and fold pending popularity deltas into template records.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/gravyprompts/gravyd/internal/logger"
	"github.com/gravyprompts/gravyd/internal/usecase/maintenance"
)

// Scheduler wraps robfig/cron and manages the background jobs.
type Scheduler struct {
	cron        *cron.Cron
	maintenance *maintenance.Service
	shareSpec   string
	flushSpec   string
	log         *zap.Logger
}

// New creates a Scheduler. Specs use robfig/cron syntax, e.g. "@every 1h".
func New(svc *maintenance.Service, shareSpec, flushSpec string, log *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:        cron.New(),
		maintenance: svc,
		shareSpec:   shareSpec,
		flushSpec:   flushSpec,
		log:         log,
	}
}

// Start registers the jobs and starts the scheduler. The context carries
// the logger and bounds each run; cancelling it makes in-flight store calls
// return so Stop does not hang on a dead connection.
func (s *Scheduler) Start(ctx context.Context) error {
	ctx = logger.ContextWithLogger(ctx, s.log)

	if _, err := s.cron.AddFunc(s.shareSpec, func() {
		if err := s.maintenance.SweepShares(ctx, time.Now()); err != nil {
			s.log.Error("share link sweep failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("register share sweep %q: %w", s.shareSpec, err)
	}

	if _, err := s.cron.AddFunc(s.flushSpec, func() {
		if err := s.maintenance.FlushPopularity(ctx); err != nil {
			s.log.Error("popularity flush failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("register popularity flush %q: %w", s.flushSpec, err)
	}

	s.cron.Start()
	s.log.Info("scheduler started",
		zap.String("share_sweep", s.shareSpec),
		zap.String("popularity_flush", s.flushSpec))
	return nil
}

// Stop stops the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("scheduler stopped")
}
