package hazard

import (
	"errors"
	"log/slog"
	"time"

	"auramesh/internal/display"
	"auramesh/internal/pins"
	"auramesh/internal/protocol"
	"auramesh/internal/sensors"
	"auramesh/internal/uplink"
)

// DefaultCycle is the fusion cadence.
const DefaultCycle = 10 * time.Second

// DefaultLeafStaleAfter is how long the cached leaf climate may go unrefreshed
// before the engine reports it stale.
const DefaultLeafStaleAfter = 30 * time.Second

// DistanceSource returns an averaged distance in cm or NaN.
type DistanceSource interface {
	Read() float64
}

// Broadcaster sends one frame to the mesh.
type Broadcaster interface {
	Broadcast(payload []byte) error
}

// Uplink accepts one reading per metric.
type Uplink interface {
	Enqueue(m uplink.Metric, value float64) error
}

// Observer is told about every finished cycle.
type Observer interface {
	CycleDone(State)
}

// Deps wires an Engine. Accel may be nil when no inertial sensor was found.
type Deps struct {
	Distance DistanceSource
	Gas      sensors.GasSensor
	Accel    sensors.Accelerometer

	Alarm   pins.Output
	Display display.Display

	Codec    protocol.Codec
	Mesh     Broadcaster
	Uplink   Uplink
	Observer Observer

	Thresholds     Thresholds
	LeafStaleAfter time.Duration
	Logger         *slog.Logger
}

// LeafClimate is the last leaf reading heard on the mesh.
type LeafClimate struct {
	Temperature float64
	Humidity    float64
	UpdatedAt   time.Time
}

// Engine runs one fusion cycle at a time. It is not safe for concurrent use.
type Engine struct {
	d         Deps
	leaf      LeafClimate
	leafStale bool
	last      State
}

func NewEngine(d Deps) *Engine {
	if d.Thresholds == (Thresholds{}) {
		d.Thresholds = DefaultThresholds
	}
	if d.Alarm == nil {
		d.Alarm = pins.Nop{}
	}
	if d.LeafStaleAfter <= 0 {
		d.LeafStaleAfter = DefaultLeafStaleAfter
	}
	return &Engine{
		d:    d,
		leaf: LeafClimate{Temperature: unknown(), Humidity: unknown()},
	}
}

// ApplyLeaf overwrites the cached leaf climate.
func (e *Engine) ApplyLeaf(m protocol.Message, now time.Time) {
	if e.leafStale {
		e.leafStale = false
		e.d.Logger.Info("leaf climate fresh again", "silent_for", now.Sub(e.leaf.UpdatedAt).String())
	}
	e.leaf = LeafClimate{Temperature: m.Temperature, Humidity: m.Humidity, UpdatedAt: now}
}

// CheckLeafAge reports whether the cached leaf climate is older than the stale
// limit, logging once when it turns stale. The stale value stays in use. A
// leaf that was never heard is not stale.
func (e *Engine) CheckLeafAge(now time.Time) bool {
	if e.leaf.UpdatedAt.IsZero() {
		return false
	}
	age := now.Sub(e.leaf.UpdatedAt)
	if age < e.d.LeafStaleAfter {
		return false
	}
	if !e.leafStale {
		e.leafStale = true
		e.d.Logger.Warn("leaf climate stale", "age", age.String(),
			"temperature", e.leaf.Temperature, "humidity", e.leaf.Humidity)
	}
	return true
}

func (e *Engine) Leaf() LeafClimate { return e.leaf }

func (e *Engine) LastState() State { return e.last }

// Cycle reads, fuses, drives outputs, broadcasts, then enqueues, in that order.
func (e *Engine) Cycle() State {
	in := e.read()
	st := Evaluate(in, e.d.Thresholds)

	e.d.Alarm.Set(st.Any())
	page := PageFor(in, st)
	if e.d.Display != nil {
		if err := e.d.Display.Show(page); err != nil {
			e.d.Logger.Warn("display update failed", "error", err)
		}
	}
	if st != e.last {
		e.d.Logger.Info("hazard state changed", "flags", st.Flags(), "alarm", st.Any())
	}
	e.last = st

	e.broadcast(in)
	e.enqueue(in)

	if e.d.Observer != nil {
		e.d.Observer.CycleDone(st)
	}
	return st
}

func (e *Engine) read() Inputs {
	in := Inputs{
		Distance:    unknown(),
		GasLevel:    unknown(),
		Temperature: e.leaf.Temperature,
		Humidity:    e.leaf.Humidity,
		Vibration:   unknown(),
	}

	if e.d.Distance != nil {
		in.Distance = e.d.Distance.Read()
	}

	if e.d.Gas != nil {
		if level, err := e.d.Gas.Level(); err != nil {
			e.d.Logger.Debug("gas level read failed", "error", err)
		} else {
			in.GasLevel = level
		}
		if tripped, err := e.d.Gas.Tripped(); err != nil {
			e.d.Logger.Debug("gas comparator read failed", "error", err)
		} else {
			in.GasTripped = tripped
		}
	}

	if e.d.Accel != nil {
		x, y, z, err := e.d.Accel.Acceleration()
		if err != nil {
			e.d.Logger.Debug("accelerometer read failed", "error", err)
		} else {
			in.Vibration = sensors.VibrationDeviation(x, y, z)
		}
	}
	return in
}

func (e *Engine) broadcast(in Inputs) {
	if e.d.Mesh == nil {
		return
	}
	frame, err := e.d.Codec.Encode(protocol.GatewayStatus(in.Distance, in.GasLevel))
	if err != nil {
		e.d.Logger.Warn("encode gateway status", "error", err)
		return
	}
	if err := e.d.Mesh.Broadcast(frame); err != nil {
		e.d.Logger.Debug("mesh broadcast failed", "error", err)
	}
}

func (e *Engine) enqueue(in Inputs) {
	if e.d.Uplink == nil {
		return
	}
	readings := []struct {
		metric   uplink.Metric
		value    float64
		optional bool
	}{
		{uplink.Temperature, in.Temperature, true},
		{uplink.Humidity, in.Humidity, true},
		{uplink.GasLeakage, in.GasLevel, false},
		{uplink.Ultrasonic, in.Distance, false},
		{uplink.Earthquake, in.Vibration, false},
	}
	for _, r := range readings {
		if r.optional && !protocol.Known(r.value) {
			continue
		}
		err := e.d.Uplink.Enqueue(r.metric, r.value)
		if errors.Is(err, uplink.ErrNonFinite) {
			e.d.Logger.Debug("reading unavailable, not uploaded", "metric", string(r.metric))
			continue
		}
		if err != nil {
			e.d.Logger.Warn("uplink enqueue failed", "metric", string(r.metric), "error", err)
		}
	}
}
