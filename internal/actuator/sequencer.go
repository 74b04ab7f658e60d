package actuator

import "time"

const (
	DefaultStepsPerRev = 2048
	DefaultPause       = 2 * time.Second
)

// Phase is one leg of the motor cycle.
type Phase int

const (
	Forward Phase = iota
	PauseAfterForward
	Reverse
	PauseAfterReverse
)

func (p Phase) String() string {
	switch p {
	case Forward:
		return "forward"
	case PauseAfterForward:
		return "pause_after_forward"
	case Reverse:
		return "reverse"
	case PauseAfterReverse:
		return "pause_after_reverse"
	default:
		return "unknown"
	}
}

// Stepper moves the motor one increment. dir is +1 or -1.
type Stepper interface {
	Step(dir int)
}

// Sequencer runs forward N, pause, reverse N, pause, forever. The caller only
// ticks it while the path is clear, which freezes phase and count in place.
type Sequencer struct {
	stepper    Stepper
	steps      int
	pause      time.Duration
	onPhase    func(Phase)
	phase      Phase
	count      int
	pauseStart time.Time
}

func NewSequencer(s Stepper, stepsPerRev int, pause time.Duration) *Sequencer {
	if stepsPerRev <= 0 {
		stepsPerRev = DefaultStepsPerRev
	}
	return &Sequencer{stepper: s, steps: stepsPerRev, pause: pause}
}

// OnPhase registers a callback for phase transitions.
func (s *Sequencer) OnPhase(fn func(Phase)) { s.onPhase = fn }

// Tick issues at most one increment.
func (s *Sequencer) Tick(now time.Time) {
	switch s.phase {
	case Forward, Reverse:
		dir := 1
		if s.phase == Reverse {
			dir = -1
		}
		s.stepper.Step(dir)
		s.count++
		if s.count >= s.steps {
			s.enter(s.phase+1, now)
		}
	case PauseAfterForward, PauseAfterReverse:
		if now.Sub(s.pauseStart) >= s.pause {
			s.enter((s.phase+1)%4, now)
		}
	}
}

func (s *Sequencer) enter(p Phase, now time.Time) {
	s.phase = p
	s.count = 0
	if p == PauseAfterForward || p == PauseAfterReverse {
		s.pauseStart = now
	}
	if s.onPhase != nil {
		s.onPhase(p)
	}
}

func (s *Sequencer) Phase() Phase { return s.phase }

// Count is the number of increments issued in the current moving phase.
func (s *Sequencer) Count() int { return s.count }
