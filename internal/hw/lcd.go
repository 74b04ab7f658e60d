package hw

import (
	"fmt"
	"time"

	"tinygo.org/x/drivers"

	"auramesh/internal/display"
)

// PCF8574 backpack wiring: P0 RS, P1 RW, P2 EN, P3 backlight, P4..P7 D4..D7.
const (
	lcdRS        = 0x01
	lcdEnable    = 0x04
	lcdBacklight = 0x08

	lcdClear       = 0x01
	lcdEntryMode   = 0x06
	lcdDisplayOn   = 0x0C
	lcdFunction4b2 = 0x28
	lcdSetDDRAM    = 0x80
)

var lcdRowOffsets = [display.Rows]byte{0x00, 0x40}

// LCD is an HD44780 2x16 panel behind a PCF8574 I2C expander.
type LCD struct {
	bus   drivers.I2C
	addr  uint16
	sleep func(time.Duration)
	last  display.Page
	drawn bool
}

func NewLCD(bus drivers.I2C, addr uint16) (*LCD, error) {
	l := &LCD{bus: bus, addr: addr, sleep: time.Sleep}
	if err := l.init(); err != nil {
		return nil, fmt.Errorf("lcd at %#x: %w", addr, err)
	}
	return l, nil
}

func (l *LCD) init() error {
	l.sleep(50 * time.Millisecond)
	for _, n := range []byte{0x03, 0x03, 0x03, 0x02} {
		if err := l.pulse(n << 4); err != nil {
			return err
		}
		l.sleep(5 * time.Millisecond)
	}
	for _, cmd := range []byte{lcdFunction4b2, lcdDisplayOn, lcdClear, lcdEntryMode} {
		if err := l.command(cmd); err != nil {
			return err
		}
	}
	l.sleep(2 * time.Millisecond)
	return nil
}

// Show rewrites both rows. An identical page is not redrawn.
func (l *LCD) Show(p display.Page) error {
	if l.drawn && p == l.last {
		return nil
	}
	for row, text := range p {
		if err := l.command(lcdSetDDRAM | lcdRowOffsets[row]); err != nil {
			return err
		}
		for i := 0; i < len(text) && i < display.Cols; i++ {
			if err := l.write(text[i], lcdRS); err != nil {
				return err
			}
		}
	}
	l.last, l.drawn = p, true
	return nil
}

func (l *LCD) command(b byte) error { return l.write(b, 0) }

func (l *LCD) write(b, mode byte) error {
	if err := l.pulse(b&0xF0 | mode); err != nil {
		return err
	}
	return l.pulse(b<<4&0xF0 | mode)
}

func (l *LCD) pulse(data byte) error {
	data |= lcdBacklight
	if err := l.bus.Tx(l.addr, []byte{data | lcdEnable}, nil); err != nil {
		return err
	}
	return l.bus.Tx(l.addr, []byte{data &^ lcdEnable}, nil)
}
