package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/amishk599/jobmatch/internal/pipeline"
)

// Runner is the unit of work the scheduler drives each tick.
type Runner interface {
	RunOnce(ctx context.Context) error
}

// Scheduler owns the main loop: runs one aggregation cycle immediately, then
// ticks on the configured interval.
type Scheduler struct {
	runner   Runner
	interval time.Duration
	logger   *slog.Logger
}

// NewScheduler creates a scheduler that runs the pipeline at the given interval.
func NewScheduler(runner Runner, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		runner:   runner,
		interval: interval,
		logger:   logger,
	}
}

// Run starts the loop. It runs one immediate cycle, then ticks on the
// configured interval. It returns nil when ctx is cancelled (graceful shutdown).
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("starting scheduler", "interval", s.interval.String())

	s.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("shutting down scheduler")
			return nil
		case <-time.After(s.interval):
			s.runOnce(ctx)
		}
	}
}

// runOnce runs one cycle. Failures are logged, never fatal to the loop; a
// run already in progress (e.g. triggered via the API) is skipped quietly.
func (s *Scheduler) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	if err := s.runner.RunOnce(ctx); err != nil {
		if errors.Is(err, pipeline.ErrRunInProgress) {
			s.logger.Info("skipping tick, run already in progress")
			return
		}
		s.logger.Error("run failed", "error", err)
	}
}
