// Package display renders status pages for the gateway's 2x16 character LCD.
package display

import (
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
)

const (
	Cols = 16
	Rows = 2
)

// Page is one screenful. Each row is exactly Cols runes wide.
type Page [Rows]string

// NewPage pads or truncates both rows to the panel width.
func NewPage(top, bottom string) Page {
	return Page{fit(top), fit(bottom)}
}

func fit(s string) string {
	r := []rune(s)
	if len(r) > Cols {
		r = r[:Cols]
	}
	return string(r) + strings.Repeat(" ", Cols-len(r))
}

func (p Page) String() string {
	return strings.TrimRight(p[0], " ") + " | " + strings.TrimRight(p[1], " ")
}

// Display shows a page. Implementations should skip redundant redraws.
type Display interface {
	Show(Page) error
}

// Normal is the idle page: leaf climate on top, local distance and gas below.
func Normal(temperature, humidity, distance, gas float64) Page {
	top := "T:--C H:--%"
	if !math.IsNaN(temperature) && !math.IsNaN(humidity) {
		top = fmt.Sprintf("T:%.1fC H:%.0f%%", temperature, humidity)
	}
	return NewPage(top, fmt.Sprintf("D:%s G:%s", orDash(distance, "%.0f"), orDash(gas, "%.0f")))
}

func Obstacle(distance float64) Page {
	return NewPage("Obstacle Alert!", fmt.Sprintf("Dist: %.1fcm", distance))
}

func GasLeak(level float64) Page {
	return NewPage("Gas Leak Alert!", "Val: "+orDash(level, "%.0f"))
}

func Overheat(temperature float64) Page {
	return NewPage("High Temp Alert!", fmt.Sprintf("%.1fC", temperature))
}

func Seismic(magnitude float64) Page {
	return NewPage("Earthquake!", fmt.Sprintf("Mag: %.1f", magnitude))
}

func orDash(v float64, format string) string {
	if math.IsNaN(v) {
		return "--"
	}
	return fmt.Sprintf(format, v)
}

// Console logs each distinct page instead of driving a panel.
type Console struct {
	logger *slog.Logger

	mu   sync.Mutex
	last Page
	set  bool
}

func NewConsole(logger *slog.Logger) *Console {
	return &Console{logger: logger}
}

func (c *Console) Show(p Page) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.set && c.last == p {
		return nil
	}
	c.last, c.set = p, true
	c.logger.Info("lcd", "row0", strings.TrimRight(p[0], " "), "row1", strings.TrimRight(p[1], " "))
	return nil
}

// Last returns the most recent page shown.
func (c *Console) Last() Page {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}
