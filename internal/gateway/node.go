// Package gateway assembles the gateway node: mesh servicing, the periodic
// fusion cycle and the one-job-per-tick uplink drain.
package gateway

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"auramesh/internal/display"
	"auramesh/internal/hazard"
	"auramesh/internal/mesh"
	"auramesh/internal/metrics"
	"auramesh/internal/pins"
	"auramesh/internal/protocol"
	"auramesh/internal/sensors"
	"auramesh/internal/uplink"
)

// FrameCounter counts inbound frames by outcome.
type FrameCounter interface {
	Frame(result string)
}

type nopFrames struct{}

func (nopFrames) Frame(string) {}

type Config struct {
	Codec protocol.Codec

	Ranger sensors.EchoRanger
	Gas    sensors.GasSensor
	Accel  sensors.Accelerometer

	Alarm   pins.Output
	Display display.Display

	Drainer    *uplink.Drainer
	Thresholds hazard.Thresholds
	Interval   time.Duration

	Observer hazard.Observer
	Frames   FrameCounter
	Logger   *slog.Logger
}

// Node is driven by Tick from a single goroutine.
type Node struct {
	codec    protocol.Codec
	mesh     *mesh.Node
	engine   *hazard.Engine
	drainer  *uplink.Drainer
	frames   FrameCounter
	logger   *slog.Logger
	interval time.Duration

	lastCycle time.Time
	started   bool
	now       time.Time
}

func New(cfg Config, transport mesh.Transport, inbox *mesh.Inbox) *Node {
	if cfg.Interval <= 0 {
		cfg.Interval = hazard.DefaultCycle
	}
	if cfg.Frames == nil {
		cfg.Frames = nopFrames{}
	}
	n := &Node{
		codec:    cfg.Codec,
		drainer:  cfg.Drainer,
		frames:   cfg.Frames,
		logger:   cfg.Logger,
		interval: cfg.Interval,
	}
	n.mesh = mesh.NewNode(transport, inbox, n.HandleFrame)

	var distance hazard.DistanceSource
	if cfg.Ranger != nil {
		distance = sensors.NewDistanceReader(cfg.Ranger, func() { n.mesh.Update() })
	}

	deps := hazard.Deps{
		Distance:   distance,
		Gas:        cfg.Gas,
		Accel:      cfg.Accel,
		Alarm:      cfg.Alarm,
		Display:    cfg.Display,
		Codec:      cfg.Codec,
		Mesh:       n.mesh,
		Observer:   cfg.Observer,
		Thresholds: cfg.Thresholds,
		Logger:     cfg.Logger,
	}
	// A nil *Drainer must stay a nil interface.
	if cfg.Drainer != nil {
		deps.Uplink = cfg.Drainer
	}
	n.engine = hazard.NewEngine(deps)
	return n
}

// HandleFrame caches leaf climate. Frames from any other origin are ignored.
func (n *Node) HandleFrame(f mesh.Frame) {
	m, err := n.codec.DecodeFrom(f.Payload, protocol.RoleLeaf)
	switch {
	case errors.Is(err, protocol.ErrUnexpectedOrigin), errors.Is(err, protocol.ErrUnknownOrigin):
		n.frames.Frame(metrics.FrameIgnored)
		return
	case err != nil:
		n.frames.Frame(metrics.FrameMalformed)
		n.logger.Warn("dropping malformed mesh frame", "from", f.From, "error", err)
		return
	}
	n.frames.Frame(metrics.FrameApplied)
	n.engine.ApplyLeaf(m, n.now)
	n.logger.Debug("leaf climate cached", "temperature", m.Temperature, "humidity", m.Humidity)
}

// Tick services the mesh, runs the fusion cycle when due and drains one job.
func (n *Node) Tick(ctx context.Context, now time.Time) {
	n.now = now
	n.mesh.Update()

	if !n.started {
		n.started = true
		n.lastCycle = now
	}
	if now.Sub(n.lastCycle) >= n.interval {
		n.lastCycle = now
		n.engine.CheckLeafAge(now)
		n.engine.Cycle()
	}

	if n.drainer != nil && n.drainer.DrainOne(ctx) != uplink.Idle {
		n.mesh.Update()
	}
}

func (n *Node) Engine() *hazard.Engine { return n.engine }

func (n *Node) Close() error { return n.mesh.Close() }
