// Package actuator gates a stepper motor cycle behind a debounced safety
// input and mirrors the debounced state on an active-low relay.
package actuator

import "time"

// DefaultDebounce is the quiet period the safety input must hold.
const DefaultDebounce = 500 * time.Millisecond

// Debouncer accepts a raw level only after it has held for the whole window.
type Debouncer struct {
	window     time.Duration
	raw        bool
	stable     bool
	lastChange time.Time
}

// NewDebouncer starts with both raw and stable at initial, as of now.
func NewDebouncer(window time.Duration, initial bool, now time.Time) *Debouncer {
	return &Debouncer{window: window, raw: initial, stable: initial, lastChange: now}
}

// Sample feeds one raw reading and reports the stable level and whether it
// just changed.
func (d *Debouncer) Sample(raw bool, now time.Time) (stable, changed bool) {
	if raw != d.raw {
		d.raw = raw
		d.lastChange = now
	}
	if d.raw != d.stable && now.Sub(d.lastChange) >= d.window {
		d.stable = d.raw
		return d.stable, true
	}
	return d.stable, false
}

func (d *Debouncer) Stable() bool { return d.stable }
