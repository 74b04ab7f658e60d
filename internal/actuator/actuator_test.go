package actuator

import (
	"io"
	"log/slog"
	"math/rand"
	"testing"
	"time"

	"auramesh/internal/pins"
	"auramesh/internal/sim"
)

var t0 = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDebouncer_RequiresFullQuietWindow(t *testing.T) {
	d := NewDebouncer(DefaultDebounce, false, t0)

	if _, changed := d.Sample(true, t0.Add(10*time.Millisecond)); changed {
		t.Fatal("changed on first differing sample")
	}
	// bounce back resets the window
	d.Sample(false, t0.Add(200*time.Millisecond))
	d.Sample(true, t0.Add(300*time.Millisecond))
	if _, changed := d.Sample(true, t0.Add(700*time.Millisecond)); changed {
		t.Fatal("changed 400ms after last edge")
	}
	stable, changed := d.Sample(true, t0.Add(800*time.Millisecond))
	if !changed || !stable {
		t.Fatalf("Sample() = %v, %v; want true, true after 500ms quiet", stable, changed)
	}
	if _, changed := d.Sample(true, t0.Add(900*time.Millisecond)); changed {
		t.Fatal("reported change twice for one edge")
	}
}

func TestDebouncer_RandomSequences(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	const tick = 20 * time.Millisecond

	for run := 0; run < 50; run++ {
		d := NewDebouncer(DefaultDebounce, false, t0)
		now := t0
		raw := false
		var history []struct {
			at  time.Time
			raw bool
		}
		lastStableChange := time.Time{}

		for i := 0; i < 500; i++ {
			now = now.Add(tick)
			if rng.Intn(10) == 0 {
				raw = !raw
			}
			history = append(history, struct {
				at  time.Time
				raw bool
			}{now, raw})

			stable, changed := d.Sample(raw, now)
			if !changed {
				continue
			}
			if stable != raw {
				t.Fatalf("run %d: stable %v differs from raw %v at change", run, stable, raw)
			}
			for _, h := range history {
				if !h.at.Before(now.Add(-DefaultDebounce)) && h.raw != raw {
					t.Fatalf("run %d: raw was %v at %v inside window ending %v", run, h.raw, h.at, now)
				}
			}
			if !lastStableChange.IsZero() && now.Sub(lastStableChange) < DefaultDebounce {
				t.Fatalf("run %d: stable changed twice within %v", run, now.Sub(lastStableChange))
			}
			lastStableChange = now
		}
	}
}

type countingStepper struct {
	forward, reverse int
}

func (c *countingStepper) Step(dir int) {
	if dir > 0 {
		c.forward++
	} else {
		c.reverse++
	}
}

func TestSequencer_FullCycle(t *testing.T) {
	st := &countingStepper{}
	s := NewSequencer(st, 8, DefaultPause)
	now := t0
	tick := func() { now = now.Add(3 * time.Millisecond); s.Tick(now) }

	for i := 0; i < 8; i++ {
		tick()
	}
	if st.forward != 8 || s.Phase() != PauseAfterForward {
		t.Fatalf("after one revolution: forward=%d phase=%v", st.forward, s.Phase())
	}

	pausedAt := now
	for now.Sub(pausedAt) < DefaultPause-3*time.Millisecond {
		tick()
	}
	if st.forward != 8 || st.reverse != 0 || s.Phase() != PauseAfterForward {
		t.Fatalf("moved during pause: forward=%d reverse=%d phase=%v", st.forward, st.reverse, s.Phase())
	}
	tick()
	if s.Phase() != Reverse {
		t.Fatalf("phase = %v after pause; want reverse", s.Phase())
	}

	for i := 0; i < 8; i++ {
		tick()
	}
	if st.reverse != 8 || s.Phase() != PauseAfterReverse {
		t.Fatalf("after reverse: reverse=%d phase=%v", st.reverse, s.Phase())
	}

	s.Tick(now.Add(DefaultPause))
	if s.Phase() != Forward {
		t.Fatalf("phase = %v; want forward after second pause", s.Phase())
	}
}

type rig struct {
	input   *sim.Pin
	relay   *sim.Pin
	stepper *countingStepper
	ctrl    *Controller
	now     time.Time
}

func newRig(startClear bool) *rig {
	r := &rig{input: sim.NewPin(false), relay: sim.NewPin(false), stepper: &countingStepper{}, now: t0}
	r.ctrl = NewController(Config{
		Input:      r.input,
		Relay:      r.relay,
		Stepper:    r.stepper,
		Steps:      DefaultStepsPerRev,
		StartClear: startClear,
		Logger:     discardLogger(),
	}, t0)
	return r
}

func (r *rig) run(d time.Duration) {
	end := r.now.Add(d)
	for r.now.Before(end) {
		r.now = r.now.Add(3 * time.Millisecond)
		r.ctrl.Tick(r.now)
	}
}

func TestController_FailSafeStart(t *testing.T) {
	r := newRig(false)
	if !r.ctrl.Obstacle() || r.relay.Get() {
		t.Fatalf("boot: obstacle=%v relay=%v; want obstacle with relay low", r.ctrl.Obstacle(), r.relay.Get())
	}

	r.run(400 * time.Millisecond)
	if r.stepper.forward != 0 {
		t.Fatalf("moved %d steps before the line was confirmed clear", r.stepper.forward)
	}

	r.run(200 * time.Millisecond)
	if r.ctrl.Obstacle() || !r.relay.Get() {
		t.Fatalf("after clear window: obstacle=%v relay=%v; want clear with relay high", r.ctrl.Obstacle(), r.relay.Get())
	}
	if r.stepper.forward == 0 {
		t.Fatal("motor did not start after clear window")
	}
}

func TestController_ObstacleFreezesMotor(t *testing.T) {
	r := newRig(true)
	if !r.relay.Get() {
		t.Fatal("relay low at clear boot; active-low relay should idle high")
	}

	r.run(300 * time.Millisecond)
	moved := r.stepper.forward
	if moved == 0 {
		t.Fatal("motor idle while clear")
	}

	r.input.Set(true)
	r.run(DefaultDebounce + 10*time.Millisecond)
	if !r.ctrl.Obstacle() || r.relay.Get() {
		t.Fatalf("obstacle=%v relay=%v; want obstacle with relay low", r.ctrl.Obstacle(), r.relay.Get())
	}
	frozenPhase, frozenCount := r.ctrl.Sequencer().Phase(), r.ctrl.Sequencer().Count()
	frozenSteps := r.stepper.forward

	r.run(5 * time.Second)
	if r.stepper.forward != frozenSteps {
		t.Fatalf("motor stepped %d times while obstacle present", r.stepper.forward-frozenSteps)
	}
	if r.ctrl.Sequencer().Phase() != frozenPhase || r.ctrl.Sequencer().Count() != frozenCount {
		t.Fatal("sequencer state changed while frozen")
	}

	r.input.Set(false)
	r.run(DefaultDebounce + 10*time.Millisecond)
	if r.ctrl.Obstacle() {
		t.Fatal("obstacle still latched after clear window")
	}
	if r.ctrl.Sequencer().Count() <= frozenCount {
		t.Fatalf("count = %d; want resume past %d", r.ctrl.Sequencer().Count(), frozenCount)
	}
}

func TestController_GlitchIgnored(t *testing.T) {
	r := newRig(true)
	r.run(30 * time.Millisecond)

	r.input.Set(true)
	r.run(100 * time.Millisecond)
	r.input.Set(false)
	r.run(DefaultDebounce)

	if r.ctrl.Obstacle() {
		t.Fatal("100ms glitch latched an obstacle")
	}
	if r.relay.Writes() != 1 {
		t.Fatalf("relay writes = %d; want only the boot write", r.relay.Writes())
	}
}

func TestCoilStepper_Sequence(t *testing.T) {
	var coils [4]*sim.Pin
	var outs [4]pins.Output
	for i := range coils {
		coils[i] = sim.NewPin(false)
		outs[i] = coils[i]
	}
	s := NewCoilStepper(outs)

	levels := func() [4]bool {
		return [4]bool{coils[0].Get(), coils[1].Get(), coils[2].Get(), coils[3].Get()}
	}

	s.Step(1)
	if levels() != fullStep[1] {
		t.Fatalf("after forward step coils = %v; want %v", levels(), fullStep[1])
	}
	s.Step(-1)
	s.Step(-1)
	if levels() != fullStep[3] {
		t.Fatalf("after two reverse steps coils = %v; want %v", levels(), fullStep[3])
	}
	s.Release()
	if levels() != [4]bool{} {
		t.Fatalf("after release coils = %v", levels())
	}
}
