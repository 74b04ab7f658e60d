package config

import (
	"fmt"
	"strings"
	"time"
)

type Actuator struct {
	Common

	Backend     Backend
	SafetyPin   string
	RelayPin    string
	CoilPins    [4]string
	StepsPerRev int
	Debounce    time.Duration
	MotorPause  time.Duration
	// LoopInterval paces one motor increment; 3ms is about 10 RPM at 2048 steps.
	LoopInterval time.Duration
	StartClear   bool
}

func LoadActuator() (Actuator, error) {
	common, err := loadCommon()
	if err != nil {
		return Actuator{}, err
	}
	backend, err := loadBackend()
	if err != nil {
		return Actuator{}, err
	}

	coilsStr := env("COIL_PINS", "GPIO8,GPIO10,GPIO9,GPIO11")
	parts := strings.Split(coilsStr, ",")
	if len(parts) != 4 {
		return Actuator{}, fmt.Errorf("invalid COIL_PINS %q: want 4 comma-separated pins", coilsStr)
	}
	var coils [4]string
	for i, p := range parts {
		coils[i] = strings.TrimSpace(p)
		if coils[i] == "" {
			return Actuator{}, fmt.Errorf("invalid COIL_PINS %q: empty pin at position %d", coilsStr, i+1)
		}
	}

	steps, err := envInt("STEPS_PER_REV", 2048)
	if err != nil {
		return Actuator{}, err
	}
	if steps <= 0 {
		return Actuator{}, fmt.Errorf("STEPS_PER_REV must be positive, got %d", steps)
	}
	debounce, err := envDuration("DEBOUNCE", 500*time.Millisecond)
	if err != nil {
		return Actuator{}, err
	}
	pause, err := envDuration("MOTOR_PAUSE", 2*time.Second)
	if err != nil {
		return Actuator{}, err
	}
	loopInterval, err := envDuration("LOOP_INTERVAL", 3*time.Millisecond)
	if err != nil {
		return Actuator{}, err
	}
	startClear, err := envBool("START_CLEAR", false)
	if err != nil {
		return Actuator{}, err
	}

	return Actuator{
		Common:       common,
		Backend:      backend,
		SafetyPin:    env("SAFETY_PIN", "GPIO2"),
		RelayPin:     env("RELAY_PIN", "GPIO7"),
		CoilPins:     coils,
		StepsPerRev:  steps,
		Debounce:     debounce,
		MotorPause:   pause,
		LoopInterval: loopInterval,
		StartClear:   startClear,
	}, nil
}
