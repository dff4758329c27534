package sync

import (
	"testing"
	"time"
)

func TestOptimalTimeout(t *testing.T) {
	tests := map[string]struct {
		mode       Mode
		memoryMB   int
		background bool
		want       time.Duration
	}{
		"incremental default tier": {ModeIncremental, 512, false, 360 * time.Second},
		"full default tier":        {ModeFull, 512, false, 720 * time.Second},
		"low memory clamps to min": {ModeIncremental, 128, false, 300 * time.Second},
		"mid memory tier":          {ModeIncremental, 256, false, 300 * time.Second},
		"high memory tier":         {ModeFull, 2048, false, 900 * time.Second},
		"background doubles":       {ModeIncremental, 512, true, 720 * time.Second},
		"clamped to max":           {ModeFull, 2048, true, 1800 * time.Second},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got := OptimalTimeout(tt.mode, tt.memoryMB, tt.background)
			if got != tt.want {
				t.Errorf("OptimalTimeout(%v, %d, %v) = %v, want %v",
					tt.mode, tt.memoryMB, tt.background, got, tt.want)
			}
		})
	}
}

func TestOptimalTimeoutBounds(t *testing.T) {
	// Whatever the inputs, the budget stays inside [5m, 30m].
	modes := []Mode{ModeIncremental, ModeFull}
	memories := []int{0, 100, 256, 511, 512, 1023, 1024, 1 << 20}

	for _, mode := range modes {
		for _, mem := range memories {
			for _, bg := range []bool{false, true} {
				got := OptimalTimeout(mode, mem, bg)
				if got < minBudget || got > maxBudget {
					t.Errorf("OptimalTimeout(%v, %d, %v) = %v outside [%v, %v]",
						mode, mem, bg, got, minBudget, maxBudget)
				}
			}
		}
	}
}

func TestGovernorStatus(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	limit := 100 * time.Second

	tests := map[string]struct {
		elapsed    time.Duration
		wantWarn   bool
		wantStop   bool
		wantPercnt float64
	}{
		"fresh":            {0, false, false, 0},
		"half spent":       {50 * time.Second, false, false, 50},
		"warn band low":    {60 * time.Second, true, false, 60},
		"warn band high":   {79 * time.Second, true, false, 79},
		"stop threshold":   {80 * time.Second, false, true, 80},
		"beyond the limit": {150 * time.Second, false, true, 150},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			clock := newManualClock(start)
			clock.Advance(tt.elapsed)
			gov := NewGovernor(clock.Now)

			status := gov.Status(start, limit)
			if status.Elapsed != tt.elapsed {
				t.Errorf("Elapsed = %v, want %v", status.Elapsed, tt.elapsed)
			}
			if status.UsedPercent != tt.wantPercnt {
				t.Errorf("UsedPercent = %v, want %v", status.UsedPercent, tt.wantPercnt)
			}
			if status.ShouldWarn != tt.wantWarn {
				t.Errorf("ShouldWarn = %v, want %v", status.ShouldWarn, tt.wantWarn)
			}
			if status.ShouldStop != tt.wantStop {
				t.Errorf("ShouldStop = %v, want %v", status.ShouldStop, tt.wantStop)
			}
		})
	}
}

func TestGovernorZeroLimit(t *testing.T) {
	clock := newManualClock(time.Now())
	gov := NewGovernor(clock.Now)

	status := gov.Status(clock.Now(), 0)
	if status.ShouldStop {
		t.Error("zero limit must never trip the stop threshold")
	}
}
