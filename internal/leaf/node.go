package leaf

import (
	"errors"
	"log/slog"
	"math"
	"time"

	"auramesh/internal/mesh"
	"auramesh/internal/protocol"
	"auramesh/internal/sensors"
)

// DefaultReportInterval is how often the leaf broadcasts its climate.
const DefaultReportInterval = 2 * time.Second

// Node is the leaf's per-tick logic. All methods are called from the loop goroutine.
type Node struct {
	codec   protocol.Codec
	mesh    *mesh.Node
	climate sensors.Climate
	latch   *BuzzerLatch
	line    *SafetyLine
	logger  *slog.Logger

	reportEvery time.Duration
	lastReport  time.Time
	reported    bool
	now         time.Time
}

type Config struct {
	Codec          protocol.Codec
	Climate        sensors.Climate
	Latch          *BuzzerLatch
	Line           *SafetyLine
	ReportInterval time.Duration
	Logger         *slog.Logger
}

// NewNode builds the leaf. Pass the transport and its inbox; the node installs
// its own frame handler.
func NewNode(cfg Config, transport mesh.Transport, inbox *mesh.Inbox) *Node {
	if cfg.ReportInterval <= 0 {
		cfg.ReportInterval = DefaultReportInterval
	}
	n := &Node{
		codec:       cfg.Codec,
		climate:     cfg.Climate,
		latch:       cfg.Latch,
		line:        cfg.Line,
		logger:      cfg.Logger,
		reportEvery: cfg.ReportInterval,
	}
	n.mesh = mesh.NewNode(transport, inbox, n.HandleFrame)
	return n
}

// HandleFrame applies a gateway broadcast. Anything else is dropped.
func (n *Node) HandleFrame(f mesh.Frame) {
	m, err := n.codec.DecodeFrom(f.Payload, protocol.RoleGateway)
	switch {
	case errors.Is(err, protocol.ErrUnexpectedOrigin), errors.Is(err, protocol.ErrUnknownOrigin):
		return
	case err != nil:
		n.logger.Warn("dropping malformed mesh frame", "from", f.From, "error", err)
		return
	}

	n.latch.OnGas(m.Gas, n.now)
	if n.line != nil {
		n.line.OnDistance(m.Distance)
	}
}

// Tick services the mesh, the latch timer and the report schedule.
func (n *Node) Tick(now time.Time) {
	n.now = now
	n.mesh.Update()
	n.latch.Tick(now)

	if !n.reported || now.Sub(n.lastReport) >= n.reportEvery {
		n.reported = true
		n.lastReport = now
		n.report()
	}
}

func (n *Node) report() {
	temp, hum := math.NaN(), math.NaN()
	if n.climate != nil {
		t, h, err := n.climate.ReadClimate()
		if err != nil {
			n.logger.Warn("climate read failed", "error", err)
		} else {
			temp, hum = t, h
		}
	}

	frame, err := n.codec.Encode(protocol.LeafStatus(temp, hum))
	if err != nil {
		n.logger.Warn("encode leaf status", "error", err)
		return
	}
	if err := n.mesh.Broadcast(frame); err != nil {
		n.logger.Debug("mesh broadcast failed", "error", err)
		return
	}
	n.logger.Debug("leaf status sent", "temperature", temp, "humidity", hum)
}

func (n *Node) Latch() *BuzzerLatch { return n.latch }

func (n *Node) Close() error { return n.mesh.Close() }
