package actuator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"periph.io/x/conn/v3/gpio"

	"auramesh/internal/config"
	"auramesh/internal/hw"
	"auramesh/internal/loop"
	"auramesh/internal/pins"
	"auramesh/internal/sim"
)

type board struct {
	input pins.Input
	relay pins.Output
	coils [4]pins.Output
}

func openBoard(cfg config.Actuator, logger *slog.Logger) (*board, error) {
	if cfg.Backend != config.BackendPeriph {
		b := &board{input: sim.NewPin(false), relay: sim.NewPin(true)}
		for i := range b.coils {
			b.coils[i] = sim.NewPin(false)
		}
		return b, nil
	}

	if err := hw.Init(); err != nil {
		return nil, err
	}
	// Pull-up: a broken safety wire reads as an obstacle.
	input, err := hw.OpenInput(cfg.SafetyPin, gpio.PullUp, logger)
	if err != nil {
		return nil, fmt.Errorf("safety input: %w", err)
	}
	relay, err := hw.OpenOutput(cfg.RelayPin, true, logger)
	if err != nil {
		return nil, fmt.Errorf("relay: %w", err)
	}
	b := &board{input: input, relay: relay}
	for i, name := range cfg.CoilPins {
		coil, err := hw.OpenOutput(name, false, logger)
		if err != nil {
			return nil, fmt.Errorf("coil %d: %w", i+1, err)
		}
		b.coils[i] = coil
	}
	return b, nil
}

// Run starts the actuator and blocks until ctx is done. The coils are
// de-energised on the way out.
func Run(ctx context.Context, cfg config.Actuator, logger *slog.Logger) error {
	logger.Info("config loaded",
		"backend", string(cfg.Backend),
		"safetyPin", cfg.SafetyPin,
		"relayPin", cfg.RelayPin,
		"stepsPerRev", cfg.StepsPerRev,
		"debounce", cfg.Debounce,
		"motorPause", cfg.MotorPause,
		"startClear", cfg.StartClear,
	)

	b, err := openBoard(cfg, logger)
	if err != nil {
		return err
	}
	stepper := NewCoilStepper(b.coils)
	defer stepper.Release()

	ctrl := NewController(Config{
		Input:      b.input,
		Relay:      b.relay,
		Stepper:    stepper,
		Debounce:   cfg.Debounce,
		Steps:      cfg.StepsPerRev,
		Pause:      cfg.MotorPause,
		StartClear: cfg.StartClear,
		Logger:     logger,
	}, time.Now())

	return loop.Run(ctx, cfg.LoopInterval, ctrl.Tick)
}
