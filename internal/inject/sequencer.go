package inject

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/draketools/w2fill/internal/input"
)

// ErrAborted reports that the run stopped before completion: the operator
// hit the corner gesture or the surrounding context was cancelled. The
// target screen is left partially filled; nothing is rolled back.
var ErrAborted = errors.New("injection aborted")

// Config carries the replay timing.
type Config struct {
	// KeystrokeDelay is the pause after every simulated input event. This
	// is what keeps a slow target from dropping or reordering input.
	KeystrokeDelay time.Duration

	// FillDelay is the settle pause after a field's value is complete,
	// before focus advances.
	FillDelay time.Duration

	// FocusGrace is the countdown between Run starting and the first
	// input, giving the operator time to focus the target's first field.
	FocusGrace time.Duration
}

// Sequencer replays plans through an input driver.
type Sequencer struct {
	driver input.Driver
	cfg    Config
	logger *slog.Logger
}

func NewSequencer(driver input.Driver, cfg Config, logger *slog.Logger) *Sequencer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sequencer{driver: driver, cfg: cfg, logger: logger}
}

// Run replays the plan into whichever window holds focus. cal, when
// non-nil, is clicked first to place focus on the target's first field;
// otherwise the operator must click it during the grace countdown.
//
// A corner gesture or context cancellation halts the run before the next
// input event, within one keystroke delay of the gesture. Run never
// verifies what the target did with the input.
func (s *Sequencer) Run(ctx context.Context, plan *Plan, cal *input.Calibration) error {
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	failsafe := input.NewFailsafe(s.driver, s.pollInterval(), s.logger)
	go failsafe.Watch(ctx, func() { cancel(ErrAborted) })

	start := time.Now()
	if s.cfg.FocusGrace > 0 {
		s.logger.Info("waiting for operator to focus the target's first field",
			"grace", s.cfg.FocusGrace)
		if err := s.pause(ctx, s.cfg.FocusGrace); err != nil {
			return err
		}
	}

	if cal != nil {
		s.logger.Info("clicking calibrated first field", "x", cal.AbsX, "y", cal.AbsY)
		if err := s.emit(ctx, func() error { return s.driver.Click(cal.AbsX, cal.AbsY) }); err != nil {
			return err
		}
	}

	for _, step := range plan.Steps {
		if err := s.runStep(ctx, step); err != nil {
			if errors.Is(err, ErrAborted) {
				s.logger.Warn("injection aborted",
					"slot", step.Slot, "field", step.Field, "elapsed", time.Since(start))
			}
			return err
		}
	}

	s.logger.Info("injection complete",
		"slots", len(plan.Steps), "values", len(plan.ValueSteps()), "elapsed", time.Since(start))
	return nil
}

func (s *Sequencer) runStep(ctx context.Context, step Step) error {
	s.logger.Debug("step", "slot", step.Slot, "field", step.Field, "action", step.Action.String())

	switch step.Action {
	case Type:
		if err := s.writeValue(ctx, step, false); err != nil {
			return err
		}
	case Paste:
		if err := s.writeValue(ctx, step, true); err != nil {
			return err
		}
	case Toggle:
		if err := s.emit(ctx, func() error { return s.driver.TapKey(input.KeySpace) }); err != nil {
			return err
		}
		if err := s.pause(ctx, s.cfg.FillDelay); err != nil {
			return err
		}
	}

	// Every step ends by moving focus to the next slot.
	return s.emit(ctx, func() error { return s.driver.TapKey(input.KeyTab) })
}

// writeValue replaces the slot's content: select-all so stale text goes
// away, then paste or keystroke the value, then settle.
func (s *Sequencer) writeValue(ctx context.Context, step Step, paste bool) error {
	if err := s.emit(ctx, func() error { return s.driver.SelectAll() }); err != nil {
		return err
	}
	if paste {
		if err := s.emit(ctx, func() error { return s.driver.Paste(step.Value) }); err != nil {
			return err
		}
	} else {
		for _, r := range step.Value {
			ch := string(r)
			if err := s.emit(ctx, func() error { return s.driver.TypeText(ch) }); err != nil {
				return err
			}
		}
	}
	return s.pause(ctx, s.cfg.FillDelay)
}

// emit dispatches one input event and applies the keystroke delay. The
// context is checked first so an abort always lands between events.
func (s *Sequencer) emit(ctx context.Context, send func() error) error {
	if err := s.cause(ctx); err != nil {
		return err
	}
	if err := send(); err != nil {
		return fmt.Errorf("input driver: %w", err)
	}
	return s.pause(ctx, s.cfg.KeystrokeDelay)
}

// pause sleeps d but wakes immediately on cancellation.
func (s *Sequencer) pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return s.cause(ctx)
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return s.cause(ctx)
	case <-t.C:
		return nil
	}
}

// cause maps context termination to the abort sentinel when the failsafe
// fired, and passes other causes through.
func (s *Sequencer) cause(ctx context.Context) error {
	if ctx.Err() == nil {
		return nil
	}
	if cause := context.Cause(ctx); cause != nil && !errors.Is(cause, context.Canceled) {
		if errors.Is(cause, ErrAborted) {
			return ErrAborted
		}
		return cause
	}
	return fmt.Errorf("%w: %v", ErrAborted, ctx.Err())
}

func (s *Sequencer) pollInterval() time.Duration {
	d := s.cfg.KeystrokeDelay
	if d <= 0 || d > 50*time.Millisecond {
		d = 50 * time.Millisecond
	}
	return d
}
