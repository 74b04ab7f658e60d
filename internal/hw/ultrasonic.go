package hw

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"

	"auramesh/internal/sensors"
)

// Ultrasonic is an HC-SR04 style ranger on a trigger and an echo line.
type Ultrasonic struct {
	trig gpio.PinIO
	echo gpio.PinIO
}

func OpenUltrasonic(trigName, echoName string) (*Ultrasonic, error) {
	trig, err := lookup(trigName)
	if err != nil {
		return nil, err
	}
	echo, err := lookup(echoName)
	if err != nil {
		return nil, err
	}
	if err := trig.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("gpio %s out: %w", trigName, err)
	}
	if err := echo.In(gpio.PullDown, gpio.BothEdges); err != nil {
		return nil, fmt.Errorf("gpio %s in: %w", echoName, err)
	}
	return &Ultrasonic{trig: trig, echo: echo}, nil
}

// Ping returns sensors.ErrNoEcho if the whole pulse does not fit in timeout.
func (u *Ultrasonic) Ping(timeout time.Duration) (float64, error) {
	deadline := time.Now().Add(timeout)

	if err := u.trig.Out(gpio.High); err != nil {
		return 0, fmt.Errorf("trigger: %w", err)
	}
	time.Sleep(10 * time.Microsecond)
	if err := u.trig.Out(gpio.Low); err != nil {
		return 0, fmt.Errorf("trigger: %w", err)
	}

	for u.echo.Read() == gpio.Low {
		if !u.waitEdge(deadline) {
			return 0, sensors.ErrNoEcho
		}
	}
	start := time.Now()
	for u.echo.Read() == gpio.High {
		if !u.waitEdge(deadline) {
			return 0, sensors.ErrNoEcho
		}
	}
	return sensors.EchoToCm(time.Since(start)), nil
}

// waitEdge never passes a non-positive timeout, which periph treats as forever.
func (u *Ultrasonic) waitEdge(deadline time.Time) bool {
	left := time.Until(deadline)
	if left <= 0 {
		return false
	}
	return u.echo.WaitForEdge(left)
}
