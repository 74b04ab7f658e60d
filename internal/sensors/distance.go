package sensors

import (
	"math"
	"time"
)

const (
	DefaultSamples     = 5
	DefaultEchoTimeout = 30 * time.Millisecond
	DefaultSampleGap   = 10 * time.Millisecond
	// MaxRangeCm is the upper bound of a plausible reading.
	MaxRangeCm = 400.0
)

// DistanceReader averages several echo samples into one distance.
type DistanceReader struct {
	Ranger  EchoRanger
	Samples int
	Timeout time.Duration
	Gap     time.Duration

	// Service runs before every sample so the mesh keeps up during a read.
	Service func()
	// Sleep defaults to time.Sleep.
	Sleep func(time.Duration)
}

func NewDistanceReader(r EchoRanger, service func()) *DistanceReader {
	return &DistanceReader{
		Ranger:  r,
		Samples: DefaultSamples,
		Timeout: DefaultEchoTimeout,
		Gap:     DefaultSampleGap,
		Service: service,
	}
}

// Read returns the mean of the valid samples in cm, or NaN when none were valid.
// A sample is valid when 0 < d <= MaxRangeCm.
func (d *DistanceReader) Read() float64 {
	samples := d.Samples
	if samples <= 0 {
		samples = DefaultSamples
	}
	sleep := d.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	var sum float64
	var valid int
	for i := 0; i < samples; i++ {
		if d.Service != nil {
			d.Service()
		}
		cm, err := d.Ranger.Ping(d.Timeout)
		if err == nil && cm > 0 && cm <= MaxRangeCm {
			sum += cm
			valid++
		}
		if i < samples-1 && d.Gap > 0 {
			sleep(d.Gap)
		}
	}

	if valid == 0 {
		return math.NaN()
	}
	return sum / float64(valid)
}

// EchoToCm converts a round-trip echo duration into centimetres.
func EchoToCm(echo time.Duration) float64 {
	us := float64(echo) / float64(time.Microsecond)
	return us * 0.0343 / 2
}
