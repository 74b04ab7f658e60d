// Package hw binds node logic to real boards through periph.io. Devices
// without a periph driver are written against the tinygo drivers.I2C shape
// so they run over any bus that can do a write-then-read transaction.
package hw

import (
	"errors"
	"fmt"
	"log/slog"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// ErrUnknownPin is returned when a pin name is not registered on the host.
var ErrUnknownPin = errors.New("hw: unknown pin")

// Init loads the host drivers. It must run before any Open call.
func Init() error {
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("periph host init: %w", err)
	}
	return nil
}

// Pin is a GPIO line usable as pins.Input or pins.Output.
type Pin struct {
	name   string
	p      gpio.PinIO
	logger *slog.Logger
}

func lookup(name string) (gpio.PinIO, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPin, name)
	}
	return p, nil
}

// OpenOutput claims name as an output driven to initial.
func OpenOutput(name string, initial bool, logger *slog.Logger) (*Pin, error) {
	p, err := lookup(name)
	if err != nil {
		return nil, err
	}
	if err := p.Out(gpio.Level(initial)); err != nil {
		return nil, fmt.Errorf("gpio %s out: %w", name, err)
	}
	return &Pin{name: name, p: p, logger: logger}, nil
}

// OpenInput claims name as an input with the given pull.
func OpenInput(name string, pull gpio.Pull, logger *slog.Logger) (*Pin, error) {
	p, err := lookup(name)
	if err != nil {
		return nil, err
	}
	if err := p.In(pull, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("gpio %s in: %w", name, err)
	}
	return &Pin{name: name, p: p, logger: logger}, nil
}

// Set drives the line. Write errors are logged; the loop must not stop for them.
func (p *Pin) Set(high bool) {
	if err := p.p.Out(gpio.Level(high)); err != nil {
		p.logger.Warn("gpio write failed", "pin", p.name, "error", err)
	}
}

func (p *Pin) Get() bool { return p.p.Read() == gpio.High }

func (p *Pin) String() string { return p.name }
