package trigger

import (
	"context"
	"errors"
	"time"

	"github.com/klauern/pagesync/internal/logging"
	"github.com/klauern/pagesync/internal/sync"
)

// Scheduler runs periodic sync passes. A tick that lands while another
// trigger holds the pass lease is skipped with a log entry rather than
// queued; the next tick will catch up.
type Scheduler struct {
	runner   Runner
	interval time.Duration
	cfg      sync.PassConfig
}

// NewScheduler creates a scheduler firing every interval with the given
// pass config.
func NewScheduler(runner Runner, interval time.Duration, cfg sync.PassConfig) *Scheduler {
	return &Scheduler{runner: runner, interval: interval, cfg: cfg}
}

// Start runs the ticker loop until the context is canceled. Blocks.
func (s *Scheduler) Start(ctx context.Context) {
	if s.interval <= 0 {
		logging.Debug("scheduler disabled: no interval configured")
		<-ctx.Done()
		return
	}

	logging.Info("scheduler started", "interval", s.interval.String())

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Info("scheduler stopped")
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce fires a single scheduled pass.
func (s *Scheduler) RunOnce(ctx context.Context) {
	res, err := s.runner.Run(ctx, s.cfg)
	switch {
	case errors.Is(err, sync.ErrPassActive):
		logging.Info("scheduled pass skipped: another pass is active")
	case err != nil:
		logging.Error("scheduled pass failed", logging.Err(err))
	default:
		logging.Info("scheduled pass finished",
			"imported", res.Imported,
			"updated", res.Updated,
			"skipped", res.Skipped,
			"deleted", res.Deleted,
			"failed", res.Failed)
	}
}
