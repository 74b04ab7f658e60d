// Package leaf implements the climate leaf: it reports temperature and
// humidity on the mesh and reacts to gateway broadcasts with a latched gas
// buzzer and a digital safety line.
package leaf

import (
	"log/slog"
	"math"
	"time"

	"auramesh/internal/pins"
)

const (
	DefaultGasLimit      = 800.0
	DefaultBuzzerHold    = 3 * time.Second
	DefaultDistanceLimit = 10.0
)

// LatchState is the buzzer state.
type LatchState int

const (
	Idle LatchState = iota
	Latched
)

func (s LatchState) String() string {
	if s == Latched {
		return "latched"
	}
	return "idle"
}

// BuzzerLatch raises the buzzer when the gateway reports gas above the limit.
// It clears as soon as a reading at or below the limit arrives, or on its own
// once the hold time has elapsed.
type BuzzerLatch struct {
	buzzer pins.Output
	limit  float64
	hold   time.Duration
	logger *slog.Logger

	state     LatchState
	latchedAt time.Time
}

func NewBuzzerLatch(buzzer pins.Output, limit float64, hold time.Duration, logger *slog.Logger) *BuzzerLatch {
	buzzer.Set(false)
	return &BuzzerLatch{buzzer: buzzer, limit: limit, hold: hold, logger: logger}
}

// OnGas applies one gateway gas reading. Unknown readings are ignored.
func (b *BuzzerLatch) OnGas(level float64, now time.Time) {
	if math.IsNaN(level) {
		return
	}
	switch {
	case level > b.limit && b.state == Idle:
		b.state = Latched
		b.latchedAt = now
		b.buzzer.Set(true)
		b.logger.Info("buzzer latched", "gas", level, "limit", b.limit)
	case level <= b.limit && b.state == Latched:
		b.release("gas cleared")
	}
}

// Tick applies the auto-release.
func (b *BuzzerLatch) Tick(now time.Time) {
	if b.state == Latched && now.Sub(b.latchedAt) >= b.hold {
		b.release("hold elapsed")
	}
}

func (b *BuzzerLatch) release(reason string) {
	b.state = Idle
	b.buzzer.Set(false)
	b.logger.Info("buzzer released", "reason", reason)
}

func (b *BuzzerLatch) State() LatchState { return b.state }

// SafetyLine derives the actuator's obstacle signal from gateway distance.
// High means an obstacle is closer than the limit.
type SafetyLine struct {
	out    pins.Output
	limit  float64
	logger *slog.Logger
	level  bool
}

func NewSafetyLine(out pins.Output, limit float64, logger *slog.Logger) *SafetyLine {
	out.Set(false)
	return &SafetyLine{out: out, limit: limit, logger: logger}
}

// OnDistance leaves the line untouched for unknown or non-positive distances.
func (s *SafetyLine) OnDistance(cm float64) {
	if math.IsNaN(cm) || math.IsInf(cm, 0) || cm <= 0 {
		return
	}
	level := cm < s.limit
	if level != s.level {
		s.logger.Info("safety line changed", "obstacle", level, "distance", cm)
	}
	s.level = level
	s.out.Set(level)
}

func (s *SafetyLine) Level() bool { return s.level }
