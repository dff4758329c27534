package progress

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/klauern/pagesync/internal/logging"
	"github.com/klauern/pagesync/internal/ui"
)

// BarSink renders progress as a terminal bar. The bar only shows when
// colors are enabled, output is a terminal, and the logger is not at
// debug level; otherwise updates fall through to debug logs.
type BarSink struct {
	mu      sync.Mutex
	writer  io.Writer
	enabled bool
	bar     *progressbar.ProgressBar
	total   int
}

// NewBarSink creates a bar sink writing to w. A nil writer uses stderr.
func NewBarSink(w io.Writer) *BarSink {
	if w == nil {
		w = os.Stderr
	}
	return &BarSink{
		writer:  w,
		enabled: shouldShowProgress(w),
	}
}

// Update implements Sink.
func (b *BarSink) Update(taskID string, s Snapshot) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.enabled {
		logging.Debug("sync progress",
			logging.Pass(taskID),
			"status", s.Status,
			"processed", s.Processed,
			"total", s.Total)
		return true
	}

	if b.bar == nil || b.total != s.Total {
		b.total = s.Total
		b.bar = newBar(b.writer, int64(s.Total), "Syncing")
	}

	if err := b.bar.Set(s.Processed); err != nil {
		return false
	}
	if s.Status != StatusRunning {
		if err := b.bar.Finish(); err != nil {
			return false
		}
		b.bar = nil
	}
	return true
}

// newBar builds the underlying progress bar.
func newBar(w io.Writer, max int64, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions64(
		max,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(w),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetWidth(15),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(w, "\n")
		}),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionEnableColorCodes(ui.IsColorEnabled()),
	)
}

// shouldShowProgress determines if progress bars should be displayed.
// Progress is disabled if:
//   - Not outputting to a terminal
//   - Colors are disabled (NO_COLOR, --no-color)
//   - Logger is at debug level (to avoid interfering with debug output)
func shouldShowProgress(w io.Writer) bool {
	if !ui.IsColorEnabled() {
		return false
	}

	if f, ok := w.(*os.File); ok {
		stat, err := f.Stat()
		if err != nil {
			return false
		}
		if (stat.Mode() & os.ModeCharDevice) == 0 {
			return false
		}
	}

	if logging.Default().Enabled(context.Background(), logging.LevelDebug) {
		return false
	}

	return true
}
