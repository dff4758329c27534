package sync

import (
	"os"
	"time"

	"golang.org/x/term"
)

// Mode distinguishes the two pass shapes for time budgeting.
type Mode string

const (
	// ModeIncremental is a watermark-filtered pass.
	ModeIncremental Mode = "incremental"

	// ModeFull is an unfiltered pass over the whole collection.
	ModeFull Mode = "full"
)

// Time budget bounds. Whatever the scaling factors produce, a pass gets
// at least five minutes and at most thirty.
const (
	baseIncrementalBudget = 300 * time.Second
	baseFullBudget        = 600 * time.Second
	minBudget             = 300 * time.Second
	maxBudget             = 1800 * time.Second
)

// Budget consumption thresholds, in percent.
const (
	warnThreshold = 60.0
	stopThreshold = 80.0
)

// OptimalTimeout computes the time budget for a pass. The base budget
// depends on the mode, scales with the memory budget tier, doubles when
// running unattended (nothing is waiting on the result), and clamps to
// [5m, 30m].
func OptimalTimeout(mode Mode, memoryBudgetMB int, background bool) time.Duration {
	base := baseIncrementalBudget
	if mode == ModeFull {
		base = baseFullBudget
	}

	var factor float64
	switch {
	case memoryBudgetMB < 256:
		factor = 0.8
	case memoryBudgetMB < 512:
		factor = 1.0
	case memoryBudgetMB < 1024:
		factor = 1.2
	default:
		factor = 1.5
	}

	budget := time.Duration(float64(base) * factor)
	if background {
		budget *= 2
	}

	if budget < minBudget {
		budget = minBudget
	}
	if budget > maxBudget {
		budget = maxBudget
	}
	return budget
}

// BudgetStatus reports consumption of a pass's time budget.
type BudgetStatus struct {
	// Elapsed is the time consumed so far.
	Elapsed time.Duration

	// UsedPercent is Elapsed as a percentage of the budget.
	UsedPercent float64

	// ShouldWarn is true in the 60-80% consumption band.
	ShouldWarn bool

	// ShouldStop is true at 80% consumption and beyond. The pass
	// finishes the in-flight page and defers the rest.
	ShouldStop bool
}

// Governor tracks time budget consumption for a pass. The orchestrator
// polls it at loop-iteration boundaries only, never mid-page.
type Governor struct {
	clock func() time.Time
}

// NewGovernor creates a governor on the given time source. A nil clock
// uses time.Now.
func NewGovernor(clock func() time.Time) *Governor {
	if clock == nil {
		clock = time.Now
	}
	return &Governor{clock: clock}
}

// Status reports how much of the budget a pass started at start has
// consumed.
func (g *Governor) Status(start time.Time, limit time.Duration) BudgetStatus {
	elapsed := g.clock().Sub(start)

	var percent float64
	if limit > 0 {
		percent = float64(elapsed) / float64(limit) * 100
	}

	return BudgetStatus{
		Elapsed:     elapsed,
		UsedPercent: percent,
		ShouldWarn:  percent >= warnThreshold && percent < stopThreshold,
		ShouldStop:  percent >= stopThreshold,
	}
}

// DetectBackground reports whether the process appears to be running
// unattended. A non-terminal stdout means no one is watching, so the
// pass can afford a larger time budget.
func DetectBackground() bool {
	return !term.IsTerminal(int(os.Stdout.Fd()))
}
