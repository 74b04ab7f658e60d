package uplink

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Result is the outcome of one DrainOne call.
type Result int

const (
	Idle Result = iota
	Delivered
	Failed
	Skipped
)

func (r Result) String() string {
	switch r {
	case Idle:
		return "idle"
	case Delivered:
		return "delivered"
	case Failed:
		return "failed"
	case Skipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Observer receives queue and dispatch events.
type Observer interface {
	JobEvicted()
	Dispatched(r Result, took time.Duration)
	QueueLen(n int)
}

type nopObserver struct{}

func (nopObserver) JobEvicted()                      {}
func (nopObserver) Dispatched(Result, time.Duration) {}
func (nopObserver) QueueLen(int)                     {}

// Drainer owns the queue and breaker of one gateway.
type Drainer struct {
	queue    *Queue
	breaker  *Breaker
	poster   Poster
	timeout  time.Duration
	logger   *slog.Logger
	observer Observer
	now      func() time.Time
}

type Option func(*Drainer)

func WithObserver(o Observer) Option {
	return func(d *Drainer) {
		if o != nil {
			d.observer = o
		}
	}
}

func WithTimeout(t time.Duration) Option {
	return func(d *Drainer) {
		if t > 0 {
			d.timeout = t
		}
	}
}

func WithBreaker(b *Breaker) Option {
	return func(d *Drainer) {
		if b != nil {
			d.breaker = b
		}
	}
}

func NewDrainer(poster Poster, logger *slog.Logger, opts ...Option) *Drainer {
	d := &Drainer{
		queue:    &Queue{},
		breaker:  NewBreaker(DefaultFailureThreshold),
		poster:   poster,
		timeout:  DefaultTimeout,
		logger:   logger,
		observer: nopObserver{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Enqueue adds a reading. Non-finite values are rejected with ErrNonFinite.
func (d *Drainer) Enqueue(m Metric, value float64) error {
	j, err := NewJob(m, value)
	if err != nil {
		return err
	}
	if d.queue.Enqueue(j) {
		d.observer.JobEvicted()
		d.logger.Debug("uplink queue full, evicted oldest job", "metric", string(m))
	}
	d.observer.QueueLen(d.queue.Len())
	return nil
}

func (d *Drainer) Pending() int { return d.queue.Len() }

func (d *Drainer) Queue() *Queue { return d.queue }

func (d *Drainer) Breaker() *Breaker { return d.breaker }

// DrainOne takes the oldest job and tries to deliver it. When the breaker is
// tripped the job is dropped without a network attempt. The call never blocks
// longer than the configured timeout.
func (d *Drainer) DrainOne(ctx context.Context) Result {
	j, ok := d.queue.Dequeue()
	if !ok {
		return Idle
	}
	defer func() { d.observer.QueueLen(d.queue.Len()) }()

	if err := d.breaker.Allow(); errors.Is(err, ErrBreakerOpen) {
		d.logger.Warn("uplink breaker open, job skipped", "endpoint", j.Endpoint)
		d.observer.Dispatched(Skipped, 0)
		return Skipped
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	start := d.now()
	err := d.poster.Post(ctx, j)
	took := d.now().Sub(start)
	if err != nil {
		d.breaker.Failure()
		d.logger.Warn("uplink post failed",
			"endpoint", j.Endpoint,
			"failures", d.breaker.Failures(),
			"error", err,
		)
		d.observer.Dispatched(Failed, took)
		return Failed
	}

	d.breaker.Success()
	d.logger.Debug("uplink post delivered", "endpoint", j.Endpoint, "took", took)
	d.observer.Dispatched(Delivered, took)
	return Delivered
}
