package leaf

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"auramesh/internal/config"
	"auramesh/internal/hw"
	"auramesh/internal/pins"
	"auramesh/internal/sensors"
	"auramesh/internal/sim"
)

type board struct {
	climate sensors.Climate
	buzzer  pins.Output
	safety  pins.Output
	closers []io.Closer
}

func (b *board) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func openBoard(cfg config.Leaf, logger *slog.Logger) (*board, error) {
	if cfg.Backend != config.BackendPeriph {
		return &board{
			climate: sim.NewClimate(22.5, 40),
			buzzer:  sim.NewPin(false),
			safety:  sim.NewPin(false),
		}, nil
	}

	if err := hw.Init(); err != nil {
		return nil, err
	}
	buzzer, err := hw.OpenOutput(cfg.BuzzerPin, false, logger)
	if err != nil {
		return nil, fmt.Errorf("buzzer: %w", err)
	}
	safety, err := hw.OpenOutput(cfg.SafetyPin, false, logger)
	if err != nil {
		return nil, fmt.Errorf("safety line: %w", err)
	}
	b := &board{buzzer: buzzer, safety: safety}

	// Without the climate sensor the leaf still runs the latch and the
	// safety line; its reports carry no readings.
	bus, err := hw.OpenI2C(cfg.I2CBus)
	if err != nil {
		logger.Warn("i2c bus unavailable, reporting without climate", "bus", cfg.I2CBus, "error", err)
		return b, nil
	}
	b.closers = append(b.closers, bus)
	bme, err := hw.NewBME280(bus.Bus(), cfg.BME280Address)
	if err != nil {
		logger.Warn("climate sensor not found", "addr", fmt.Sprintf("%#x", cfg.BME280Address), "error", err)
		return b, nil
	}
	b.climate = bme
	b.closers = append(b.closers, bme)
	return b, nil
}
