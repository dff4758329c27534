package sync

import (
	"log/slog"
	"time"

	"github.com/klauern/pagesync/internal/logging"
	"github.com/klauern/pagesync/internal/progress"
)

// Pass progress statuses reported to the sink.
const (
	StatusRunning   = progress.StatusRunning
	StatusCompleted = progress.StatusCompleted
	StatusStopped   = progress.StatusStopped
	StatusFailed    = progress.StatusFailed
)

// PassContext carries the per-pass state every component call receives:
// the pass config, the stats accumulator, the progress sink, and a
// logger scoped to the pass id. There is no process-wide pass state.
type PassContext struct {
	// PassID uniquely identifies the pass; it doubles as the progress
	// task id and the lease holder token.
	PassID string

	// Config is the pass shape requested by the trigger.
	Config PassConfig

	// Opts is the tuning in effect for this pass.
	Opts Options

	// Stats is the accumulator for this pass's result.
	Stats *Result

	// Sink receives best-effort progress updates.
	Sink progress.Sink

	// Logger is scoped to the pass id.
	Logger *slog.Logger

	start time.Time
	limit time.Duration
}

// newPassContext builds the context for one pass.
func newPassContext(passID string, cfg PassConfig, opts Options, sink progress.Sink, start time.Time, limit time.Duration) *PassContext {
	if sink == nil {
		sink = progress.Nop{}
	}
	return &PassContext{
		PassID: passID,
		Config: cfg,
		Opts:   opts,
		Stats:  &Result{PassID: passID, DryRun: opts.DryRun},
		Sink:   sink,
		Logger: logging.Default().With(logging.Pass(passID)),
		start:  start,
		limit:  limit,
	}
}

// Progress sends a best-effort snapshot to the sink. A rejected update
// is logged at debug level and never affects the pass.
func (p *PassContext) Progress(status, message string) {
	total := p.Stats.Total
	processed := p.Stats.Processed()

	var percent float64
	if total > 0 {
		percent = float64(processed) / float64(total) * 100
	}

	ok := p.Sink.Update(p.PassID, progress.Snapshot{
		Status:    status,
		Total:     total,
		Processed: processed,
		Percent:   percent,
		Message:   message,
	})
	if !ok {
		p.Logger.Debug("progress update rejected", "status", status)
	}
}
