package uplink

import "errors"

// ErrBreakerOpen is returned by Allow when a dispatch must be skipped.
var ErrBreakerOpen = errors.New("uplink: circuit breaker open")

// DefaultFailureThreshold is the consecutive-failure count that trips the breaker.
const DefaultFailureThreshold = 3

// Breaker counts consecutive delivery failures. Once the count reaches the
// threshold the next Allow is refused and the counter resets, so exactly one
// dispatch is skipped per trip.
type Breaker struct {
	threshold int
	failures  int
}

func NewBreaker(threshold int) *Breaker {
	if threshold <= 0 {
		threshold = DefaultFailureThreshold
	}
	return &Breaker{threshold: threshold}
}

// Allow returns ErrBreakerOpen and resets the counter when the breaker is tripped.
func (b *Breaker) Allow() error {
	if b.failures >= b.threshold {
		b.failures = 0
		return ErrBreakerOpen
	}
	return nil
}

func (b *Breaker) Success() { b.failures = 0 }

func (b *Breaker) Failure() { b.failures++ }

func (b *Breaker) Failures() int { return b.failures }

// Open reports whether the next Allow will be refused.
func (b *Breaker) Open() bool { return b.failures >= b.threshold }
