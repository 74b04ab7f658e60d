// Package meshsim runs a gateway, a leaf and an actuator in one process over
// an in-memory mesh, with a scripted sequence of hazards played against the
// simulated sensors. All three nodes are stepped from one loop, so the whole
// control path is deterministic for a given clock.
package meshsim

import (
	"context"
	"log/slog"
	"time"

	"auramesh/internal/actuator"
	"auramesh/internal/config"
	"auramesh/internal/display"
	"auramesh/internal/gateway"
	"auramesh/internal/hazard"
	"auramesh/internal/leaf"
	"auramesh/internal/loop"
	"auramesh/internal/mesh"
	"auramesh/internal/pins"
	"auramesh/internal/protocol"
	"auramesh/internal/sensors"
	"auramesh/internal/sim"
	"auramesh/internal/uplink"
)

// Devices are the simulated peripherals a scenario drives.
type Devices struct {
	Ranger  *sim.Ranger
	Gas     *sim.Gas
	Accel   *sim.Accel
	Climate *sim.Climate

	Alarm  *sim.Pin
	Buzzer *sim.Pin
	// Safety is the wire from the leaf's safety output to the actuator input.
	Safety *sim.Pin
	Relay  *sim.Pin
	Coils  [4]*sim.Pin
}

// Calm puts every sensor in its quiet state.
func (d *Devices) Calm() {
	d.Ranger.SetDistance(120)
	d.Gas.SetLevel(300)
	d.Accel.Set(0, 0, sensors.StandardGravity)
	d.Climate.Set(24, 45)
}

// Stage is one step of a scenario.
type Stage struct {
	Name  string
	Apply func(d *Devices)
}

// DefaultScenario cycles through every hazard the gateway fuses.
var DefaultScenario = []Stage{
	{Name: "calm", Apply: (*Devices).Calm},
	{Name: "obstacle", Apply: func(d *Devices) { d.Ranger.SetDistance(6) }},
	{Name: "path clear", Apply: func(d *Devices) { d.Ranger.SetDistance(120) }},
	{Name: "gas leak", Apply: func(d *Devices) { d.Gas.SetLevel(1600) }},
	{Name: "gas cleared", Apply: func(d *Devices) { d.Gas.SetLevel(300) }},
	{Name: "overheat", Apply: func(d *Devices) { d.Climate.Set(48, 30) }},
	{Name: "tremor", Apply: func(d *Devices) {
		d.Climate.Set(24, 45)
		d.Accel.Set(2.5, 1.5, sensors.StandardGravity+2)
	}},
}

// Options tune a Sim.
type Options struct {
	Labels        protocol.Labels
	CycleInterval time.Duration
	LoopInterval  time.Duration
	StageDuration time.Duration
	// Uplink, when set, carries gateway readings to an ingest service.
	Uplink   uplink.Poster
	Timeout  time.Duration
	Scenario []Stage
}

// OptionsFrom maps the environment settings to Options.
func OptionsFrom(cfg config.MeshSim) Options {
	o := Options{
		Labels:        protocol.Labels{Leaf: cfg.Labels.Leaf, Gateway: cfg.Labels.Gateway},
		CycleInterval: cfg.CycleInterval,
		LoopInterval:  cfg.LoopInterval,
		StageDuration: cfg.StageDuration,
		Timeout:       cfg.UplinkTimeout,
		Scenario:      DefaultScenario,
	}
	if cfg.UplinkBaseURL != "" {
		o.Uplink = uplink.NewHTTPPoster(cfg.UplinkBaseURL, cfg.UplinkTimeout)
	}
	return o
}

// Sim owns the three nodes and their shared devices.
type Sim struct {
	Devices  *Devices
	Gateway  *gateway.Node
	Leaf     *leaf.Node
	Actuator *actuator.Controller
	Display  *display.Console

	opts       Options
	logger     *slog.Logger
	stage      int
	stageStart time.Time
	started    bool
}

func New(opts Options, logger *slog.Logger, now time.Time) *Sim {
	if opts.Labels == (protocol.Labels{}) {
		opts.Labels = protocol.DefaultLabels
	}
	if opts.LoopInterval <= 0 {
		opts.LoopInterval = 5 * time.Millisecond
	}
	codec := protocol.NewCodec(opts.Labels)

	d := &Devices{
		Ranger:  sim.NewRanger(120),
		Gas:     sim.NewGas(300, 1000),
		Accel:   sim.NewAccel(),
		Climate: sim.NewClimate(24, 45),
		Alarm:   sim.NewPin(false),
		Buzzer:  sim.NewPin(false),
		Safety:  sim.NewPin(false),
		Relay:   sim.NewPin(true),
	}
	var coils [4]pins.Output
	for i := range d.Coils {
		d.Coils[i] = sim.NewPin(false)
		coils[i] = d.Coils[i]
	}

	s := &Sim{Devices: d, opts: opts, logger: logger, Display: display.NewConsole(logger.With("node", "gateway"))}
	hub := mesh.NewHub()

	var drainer *uplink.Drainer
	if opts.Uplink != nil {
		drainer = uplink.NewDrainer(opts.Uplink, logger.With("node", "gateway"), uplink.WithTimeout(opts.Timeout))
	}
	gwInbox := mesh.NewInbox(mesh.DefaultInboxSize)
	s.Gateway = gateway.New(gateway.Config{
		Codec:      codec,
		Ranger:     d.Ranger,
		Gas:        d.Gas,
		Accel:      d.Accel,
		Alarm:      d.Alarm,
		Display:    s.Display,
		Drainer:    drainer,
		Thresholds: hazard.DefaultThresholds,
		Interval:   opts.CycleInterval,
		Logger:     logger.With("node", "gateway"),
	}, hub.Join("gateway", gwInbox), gwInbox)

	leafLogger := logger.With("node", "leaf")
	leafInbox := mesh.NewInbox(mesh.DefaultInboxSize)
	s.Leaf = leaf.NewNode(leaf.Config{
		Codec:   codec,
		Climate: d.Climate,
		Latch:   leaf.NewBuzzerLatch(d.Buzzer, leaf.DefaultGasLimit, leaf.DefaultBuzzerHold, leafLogger),
		Line:    leaf.NewSafetyLine(d.Safety, leaf.DefaultDistanceLimit, leafLogger),
		Logger:  leafLogger,
	}, hub.Join("leaf", leafInbox), leafInbox)

	s.Actuator = actuator.NewController(actuator.Config{
		Input:   d.Safety,
		Relay:   d.Relay,
		Stepper: actuator.NewCoilStepper(coils),
		Logger:  logger.With("node", "actuator"),
	}, now)
	return s
}

// Step advances the scenario if a stage is due, then ticks every node once.
func (s *Sim) Step(ctx context.Context, now time.Time) {
	s.advance(now)
	s.Gateway.Tick(ctx, now)
	s.Leaf.Tick(now)
	s.Actuator.Tick(now)
}

func (s *Sim) advance(now time.Time) {
	if len(s.opts.Scenario) == 0 || s.opts.StageDuration <= 0 {
		return
	}
	if !s.started {
		s.started = true
		s.stageStart = now
		s.apply(0)
		return
	}
	if now.Sub(s.stageStart) < s.opts.StageDuration {
		return
	}
	s.stageStart = now
	s.apply((s.stage + 1) % len(s.opts.Scenario))
}

func (s *Sim) apply(i int) {
	s.stage = i
	st := s.opts.Scenario[i]
	s.logger.Info("scenario stage", "stage", st.Name, "index", i)
	st.Apply(s.Devices)
}

// Stage returns the name of the running scenario stage.
func (s *Sim) Stage() string {
	if len(s.opts.Scenario) == 0 {
		return ""
	}
	return s.opts.Scenario[s.stage].Name
}

// Run steps the simulation until ctx is done.
func (s *Sim) Run(ctx context.Context) error {
	defer func() {
		_ = s.Gateway.Close()
		_ = s.Leaf.Close()
	}()
	return loop.Run(ctx, s.opts.LoopInterval, func(now time.Time) { s.Step(ctx, now) })
}
