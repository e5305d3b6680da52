package input

import (
	"context"
	"log/slog"
	"time"
)

// CornerMargin is the size in pixels of the top-left abort zone.
const CornerMargin = 10

// Failsafe watches the pointer for the emergency abort gesture: slamming
// the mouse into the top-left screen corner. It needs no window focus, so
// it keeps working while the target application owns the keyboard.
type Failsafe struct {
	driver Driver
	every  time.Duration
	margin int
	logger *slog.Logger
}

// NewFailsafe polls driver every interval. The interval should be no
// longer than the sequencer's keystroke delay so an abort lands within one
// delay of the gesture.
func NewFailsafe(driver Driver, every time.Duration, logger *slog.Logger) *Failsafe {
	if logger == nil {
		logger = slog.Default()
	}
	if every <= 0 {
		every = 50 * time.Millisecond
	}
	return &Failsafe{driver: driver, every: every, margin: CornerMargin, logger: logger}
}

// Watch blocks until ctx ends or the gesture fires, calling abort in the
// latter case. Run it in its own goroutine alongside an injection run.
func (f *Failsafe) Watch(ctx context.Context, abort context.CancelFunc) {
	ticker := time.NewTicker(f.every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			x, y := f.driver.PointerPosition()
			if x <= f.margin && y <= f.margin {
				f.logger.Warn("abort gesture detected", "x", x, "y", y)
				abort()
				return
			}
		}
	}
}
