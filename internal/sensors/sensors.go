// Package sensors defines the gateway and leaf sensor contracts and the
// reading pipelines built on top of them.
package sensors

import (
	"errors"
	"math"
	"time"
)

// ErrNoEcho is returned by an EchoRanger when no echo arrived in time.
var ErrNoEcho = errors.New("sensors: no echo")

// EchoRanger fires one ultrasonic ping and returns the measured distance in cm.
type EchoRanger interface {
	Ping(timeout time.Duration) (float64, error)
}

// GasSensor exposes the analog level and the comparator output of a gas module.
type GasSensor interface {
	Level() (float64, error)
	Tripped() (bool, error)
}

// Accelerometer returns acceleration in m/s² on three axes.
type Accelerometer interface {
	Acceleration() (x, y, z float64, err error)
}

// Climate returns temperature in °C and relative humidity in %.
type Climate interface {
	ReadClimate() (temperature, humidity float64, err error)
}

// StandardGravity is the reference magnitude subtracted from the acceleration vector.
const StandardGravity = 9.81

// VibrationDeviation returns how far the acceleration magnitude is from rest.
func VibrationDeviation(x, y, z float64) float64 {
	return math.Abs(math.Sqrt(x*x+y*y+z*z) - StandardGravity)
}
