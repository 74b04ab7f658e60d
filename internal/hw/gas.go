package hw

import (
	"errors"
	"fmt"
	"math"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
)

// ErrNoADC is returned by GasSensor.Level when no converter is wired.
var ErrNoADC = errors.New("hw: no analog converter")

// GasSensor reads an MQ-series module: the comparator output on a GPIO and,
// when an MCP3008 is present, the analog level.
type GasSensor struct {
	do      gpio.PinIO
	port    spi.PortCloser
	conn    spi.Conn
	channel int
}

// OpenGasSensor opens the comparator pin and, if spiPort is not empty, the ADC.
func OpenGasSensor(doPin, spiPort string, channel int) (*GasSensor, error) {
	do, err := lookup(doPin)
	if err != nil {
		return nil, err
	}
	if err := do.In(gpio.PullDown, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("gpio %s in: %w", doPin, err)
	}
	g := &GasSensor{do: do, channel: channel}
	if spiPort == "" {
		return g, nil
	}
	if channel < 0 || channel > 7 {
		return nil, fmt.Errorf("mcp3008 channel %d out of range", channel)
	}
	port, err := spireg.Open(spiPort)
	if err != nil {
		return nil, fmt.Errorf("spi open %q: %w", spiPort, err)
	}
	conn, err := port.Connect(physic.MegaHertz, spi.Mode0, 8)
	if err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("spi connect %q: %w", spiPort, err)
	}
	g.port, g.conn = port, conn
	return g, nil
}

func (g *GasSensor) Tripped() (bool, error) { return g.do.Read() == gpio.High, nil }

// Level returns the reading on a 12-bit scale (0..4095).
func (g *GasSensor) Level() (float64, error) {
	if g.conn == nil {
		return math.NaN(), ErrNoADC
	}
	w := []byte{0x01, byte(0x80 | g.channel<<4), 0x00}
	r := make([]byte, 3)
	if err := g.conn.Tx(w, r); err != nil {
		return math.NaN(), fmt.Errorf("mcp3008 read: %w", err)
	}
	raw := int(r[1]&0x03)<<8 | int(r[2])
	return float64(raw * 4), nil
}

func (g *GasSensor) Close() error {
	if g.port == nil {
		return nil
	}
	return g.port.Close()
}
