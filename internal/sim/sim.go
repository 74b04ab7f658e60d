// Package sim provides in-memory stand-ins for the node hardware. Every value
// is safe to read and write from different goroutines, so one simulated wire
// can join two nodes running side by side.
package sim

import (
	"math"
	"sync"
	"sync/atomic"
	"time"

	"auramesh/internal/sensors"
)

// Pin is a digital wire that can be driven and sampled.
type Pin struct {
	level  atomic.Bool
	writes atomic.Int64
}

func NewPin(initial bool) *Pin {
	p := &Pin{}
	p.level.Store(initial)
	return p
}

func (p *Pin) Set(high bool) {
	p.level.Store(high)
	p.writes.Add(1)
}

func (p *Pin) Get() bool { return p.level.Load() }

// Writes returns how many times Set was called.
func (p *Pin) Writes() int64 { return p.writes.Load() }

// Ranger is an EchoRanger returning a settable distance. A non-positive or NaN
// distance reports no echo.
type Ranger struct {
	mu sync.Mutex
	cm float64
}

func NewRanger(cm float64) *Ranger { return &Ranger{cm: cm} }

func (r *Ranger) SetDistance(cm float64) {
	r.mu.Lock()
	r.cm = cm
	r.mu.Unlock()
}

func (r *Ranger) Ping(time.Duration) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if math.IsNaN(r.cm) || r.cm <= 0 {
		return 0, sensors.ErrNoEcho
	}
	return r.cm, nil
}

// Gas is a GasSensor whose comparator trips above a fixed level.
type Gas struct {
	mu      sync.Mutex
	level   float64
	tripAt  float64
	failing error
}

func NewGas(level, tripAt float64) *Gas { return &Gas{level: level, tripAt: tripAt} }

func (g *Gas) SetLevel(v float64) {
	g.mu.Lock()
	g.level = v
	g.mu.Unlock()
}

// Fail makes every read return err until called again with nil.
func (g *Gas) Fail(err error) {
	g.mu.Lock()
	g.failing = err
	g.mu.Unlock()
}

func (g *Gas) Level() (float64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failing != nil {
		return 0, g.failing
	}
	return g.level, nil
}

func (g *Gas) Tripped() (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failing != nil {
		return false, g.failing
	}
	return g.level > g.tripAt, nil
}

// Accel is an Accelerometer at rest unless shaken.
type Accel struct {
	mu      sync.Mutex
	x, y, z float64
}

func NewAccel() *Accel { return &Accel{z: sensors.StandardGravity} }

func (a *Accel) Set(x, y, z float64) {
	a.mu.Lock()
	a.x, a.y, a.z = x, y, z
	a.mu.Unlock()
}

func (a *Accel) Acceleration() (float64, float64, float64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.x, a.y, a.z, nil
}

// Climate is a Climate sensor with settable readings.
type Climate struct {
	mu          sync.Mutex
	temperature float64
	humidity    float64
	failing     error
}

func NewClimate(temperature, humidity float64) *Climate {
	return &Climate{temperature: temperature, humidity: humidity}
}

func (c *Climate) Set(temperature, humidity float64) {
	c.mu.Lock()
	c.temperature, c.humidity = temperature, humidity
	c.mu.Unlock()
}

func (c *Climate) Fail(err error) {
	c.mu.Lock()
	c.failing = err
	c.mu.Unlock()
}

func (c *Climate) ReadClimate() (float64, float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failing != nil {
		return 0, 0, c.failing
	}
	return c.temperature, c.humidity, nil
}
