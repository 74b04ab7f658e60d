package actuator

import (
	"log/slog"
	"time"

	"auramesh/internal/pins"
)

// Controller ties the safety input, relay and motor together. The input reads
// high for an obstacle; with a pull-up an open wire therefore reads unsafe.
// The relay is active-low and is energised while an obstacle is present.
type Controller struct {
	input     pins.Input
	relay     pins.Output
	debouncer *Debouncer
	seq       *Sequencer
	logger    *slog.Logger
}

type Config struct {
	Input    pins.Input
	Relay    pins.Output
	Stepper  Stepper
	Debounce time.Duration
	Steps    int
	Pause    time.Duration
	// StartClear trusts the line as clear at boot. Otherwise the motor waits
	// one full debounce window of a clear line before moving.
	StartClear bool
	Logger     *slog.Logger
}

func NewController(cfg Config, now time.Time) *Controller {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.Pause <= 0 {
		cfg.Pause = DefaultPause
	}
	c := &Controller{
		input:     cfg.Input,
		relay:     cfg.Relay,
		debouncer: NewDebouncer(cfg.Debounce, !cfg.StartClear, now),
		seq:       NewSequencer(cfg.Stepper, cfg.Steps, cfg.Pause),
		logger:    cfg.Logger,
	}
	c.seq.OnPhase(func(p Phase) {
		c.logger.Info("motor phase", "phase", p.String())
	})
	c.relay.Set(!c.debouncer.Stable())
	return c
}

// Tick samples the input once and advances the motor by at most one step.
func (c *Controller) Tick(now time.Time) {
	obstacle, changed := c.debouncer.Sample(c.input.Get(), now)
	if changed {
		c.relay.Set(!obstacle)
		if obstacle {
			c.logger.Warn("obstacle detected, motor halted", "phase", c.seq.Phase().String(), "step", c.seq.Count())
		} else {
			c.logger.Info("path clear, motor resumes", "phase", c.seq.Phase().String(), "step", c.seq.Count())
		}
	}
	if obstacle {
		return
	}
	c.seq.Tick(now)
}

func (c *Controller) Obstacle() bool { return c.debouncer.Stable() }

func (c *Controller) Sequencer() *Sequencer { return c.seq }
