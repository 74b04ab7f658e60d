// Package hazard fuses the gateway's local sensors with the cached leaf
// climate into a hazard decision and applies its side effects.
package hazard

import (
	"math"

	"auramesh/internal/display"
)

// Thresholds are the fusion limits. The bounds are strict.
type Thresholds struct {
	ObstacleCm float64
	OverheatC  float64
	Vibration  float64
}

var DefaultThresholds = Thresholds{
	ObstacleCm: 10,
	OverheatC:  45,
	Vibration:  2.0,
}

// Inputs is one cycle's snapshot. NaN marks an unknown reading.
type Inputs struct {
	Distance    float64
	GasLevel    float64
	GasTripped  bool
	Temperature float64
	Humidity    float64
	Vibration   float64
}

// State is recomputed from scratch every cycle.
type State struct {
	ObstacleNear bool
	GasLeak      bool
	Overheat     bool
	SeismicEvent bool
}

func (s State) Any() bool {
	return s.ObstacleNear || s.GasLeak || s.Overheat || s.SeismicEvent
}

// Flags returns the set flags in display priority order.
func (s State) Flags() []string {
	var out []string
	if s.ObstacleNear {
		out = append(out, "obstacle")
	}
	if s.GasLeak {
		out = append(out, "gas")
	}
	if s.Overheat {
		out = append(out, "overheat")
	}
	if s.SeismicEvent {
		out = append(out, "seismic")
	}
	return out
}

// Evaluate applies the fusion rule. NaN comparisons are false, so an unknown
// reading simply never raises its flag.
func Evaluate(in Inputs, th Thresholds) State {
	return State{
		ObstacleNear: in.Distance > 0 && in.Distance < th.ObstacleCm,
		GasLeak:      in.GasTripped,
		Overheat:     in.Temperature > th.OverheatC,
		SeismicEvent: in.Vibration > th.Vibration,
	}
}

// PageFor picks the single page to show: the highest-priority flag, or the
// normal readings when nothing is set.
func PageFor(in Inputs, s State) display.Page {
	switch {
	case s.ObstacleNear:
		return display.Obstacle(in.Distance)
	case s.GasLeak:
		return display.GasLeak(in.GasLevel)
	case s.Overheat:
		return display.Overheat(in.Temperature)
	case s.SeismicEvent:
		return display.Seismic(in.Vibration)
	default:
		return display.Normal(in.Temperature, in.Humidity, in.Distance, in.GasLevel)
	}
}

func unknown() float64 { return math.NaN() }
