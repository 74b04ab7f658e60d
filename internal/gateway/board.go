package gateway

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"auramesh/internal/config"
	"auramesh/internal/display"
	"auramesh/internal/hw"
	"auramesh/internal/pins"
	"auramesh/internal/sensors"
	"auramesh/internal/sim"
)

// board is the gateway's peripheral set. Optional parts are nil when absent.
type board struct {
	ranger  sensors.EchoRanger
	gas     sensors.GasSensor
	accel   sensors.Accelerometer
	alarm   pins.Output
	display display.Display
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

func openBoard(cfg config.Gateway, logger *slog.Logger) (*board, error) {
	switch cfg.Backend {
	case config.BackendPeriph:
		return openPeriphBoard(cfg, logger)
	default:
		return openSimBoard(logger), nil
	}
}

// openSimBoard returns a quiet environment: clear path, clean air, at rest.
func openSimBoard(logger *slog.Logger) *board {
	return &board{
		ranger:  sim.NewRanger(120),
		gas:     sim.NewGas(300, 1500),
		accel:   sim.NewAccel(),
		alarm:   pins.Fanout{sim.NewPin(false), sim.NewPin(false)},
		display: display.NewConsole(logger),
	}
}

// openPeriphBoard treats the ranger, gas comparator and alarm lines as
// required. The inertial sensor and the LCD degrade to absent and console.
func openPeriphBoard(cfg config.Gateway, logger *slog.Logger) (*board, error) {
	if err := hw.Init(); err != nil {
		return nil, err
	}
	b := &board{}

	ranger, err := hw.OpenUltrasonic(cfg.TrigPin, cfg.EchoPin)
	if err != nil {
		return nil, fmt.Errorf("ultrasonic: %w", err)
	}
	b.ranger = ranger

	gas, err := hw.OpenGasSensor(cfg.GasDOPin, cfg.GasSPI, cfg.GasChannel)
	if err != nil {
		return nil, fmt.Errorf("gas sensor: %w", err)
	}
	b.gas = gas
	b.closers = append(b.closers, gas)

	buzzer, err := hw.OpenOutput(cfg.BuzzerPin, false, logger)
	if err != nil {
		_ = b.Close()
		return nil, fmt.Errorf("buzzer: %w", err)
	}
	led, err := hw.OpenOutput(cfg.LEDPin, false, logger)
	if err != nil {
		_ = b.Close()
		return nil, fmt.Errorf("alarm led: %w", err)
	}
	b.alarm = pins.Fanout{buzzer, led}

	b.display = display.NewConsole(logger)
	bus, err := hw.OpenI2C(cfg.I2CBus)
	if err != nil {
		logger.Warn("i2c bus unavailable, running without lcd and accelerometer", "bus", cfg.I2CBus, "error", err)
		return b, nil
	}
	b.closers = append(b.closers, bus)

	if mpu, err := hw.NewMPU6050(bus, cfg.MPUAddress); err != nil {
		logger.Warn("accelerometer not found, seismic detection off", "addr", fmt.Sprintf("%#x", cfg.MPUAddress), "error", err)
	} else {
		b.accel = mpu
	}
	if lcd, err := hw.NewLCD(bus, cfg.LCDAddress); err != nil {
		logger.Warn("lcd not found, pages go to the log", "addr", fmt.Sprintf("%#x", cfg.LCDAddress), "error", err)
	} else {
		b.display = lcd
	}
	return b, nil
}
