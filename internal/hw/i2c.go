package hw

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"tinygo.org/x/drivers"
)

var _ drivers.I2C = (*I2C)(nil)

// I2C adapts a periph bus to the tinygo driver Tx shape.
type I2C struct {
	bus i2c.BusCloser
}

// OpenI2C opens a bus by name; "" picks the first one registered.
func OpenI2C(name string) (*I2C, error) {
	bus, err := i2creg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("i2c open %q: %w", name, err)
	}
	return &I2C{bus: bus}, nil
}

func (b *I2C) Tx(addr uint16, w, r []byte) error {
	return b.bus.Tx(addr, w, r)
}

// Bus exposes the periph bus for periph device drivers.
func (b *I2C) Bus() i2c.Bus { return b.bus }

func (b *I2C) Close() error { return b.bus.Close() }

func readRegister(bus drivers.I2C, addr uint16, reg byte, buf []byte) error {
	return bus.Tx(addr, []byte{reg}, buf)
}

func writeRegister(bus drivers.I2C, addr uint16, reg, val byte) error {
	return bus.Tx(addr, []byte{reg, val}, nil)
}
