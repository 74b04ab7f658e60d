package uplink

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewJob(t *testing.T) {
	tests := []struct {
		name   string
		metric Metric
		value  float64
		path   string
		body   string
	}{
		{name: "rounds to two decimals", metric: Temperature, value: 23.456, path: "/sensor/temperature", body: `{"value":23.46}`},
		{name: "integer gas", metric: GasLeakage, value: 1033, path: "/sensor/gas-leakage", body: `{"value":1033.00}`},
		{name: "negative", metric: Earthquake, value: -0.5, path: "/sensor/earthquake", body: `{"value":-0.50}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			j, err := NewJob(tt.metric, tt.value)
			if err != nil {
				t.Fatalf("NewJob() error = %v", err)
			}
			if j.Endpoint != tt.path {
				t.Errorf("Endpoint = %q; want %q", j.Endpoint, tt.path)
			}
			if string(j.Payload) != tt.body {
				t.Errorf("Payload = %s; want %s", j.Payload, tt.body)
			}
		})
	}
}

func TestNewJob_RejectsNonFinite(t *testing.T) {
	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if _, err := NewJob(Ultrasonic, v); !errors.Is(err, ErrNonFinite) {
			t.Errorf("NewJob(%v) error = %v; want ErrNonFinite", v, err)
		}
	}
}

func TestMetric_Valid(t *testing.T) {
	if !GasLeakage.Valid() {
		t.Error("gas-leakage should be valid")
	}
	if Metric("pressure").Valid() {
		t.Error("pressure should not be valid")
	}
}

func TestQueue_DropsOldestAndKeepsOrder(t *testing.T) {
	var q Queue
	for i := 0; i < Capacity+1; i++ {
		evicted := q.Enqueue(Job{Endpoint: fmt.Sprint(i)})
		if want := i == Capacity; evicted != want {
			t.Fatalf("Enqueue(%d) evicted = %v; want %v", i, evicted, want)
		}
	}

	if q.Len() != Capacity {
		t.Fatalf("Len() = %d; want %d", q.Len(), Capacity)
	}
	if q.Evicted() != 1 {
		t.Errorf("Evicted() = %d; want 1", q.Evicted())
	}
	for i := 1; i <= Capacity; i++ {
		j, ok := q.Dequeue()
		if !ok {
			t.Fatalf("Dequeue() empty at %d", i)
		}
		if j.Endpoint != fmt.Sprint(i) {
			t.Fatalf("Dequeue() = %q; want %d", j.Endpoint, i)
		}
	}
	if _, ok := q.Dequeue(); ok {
		t.Fatal("Dequeue() on empty queue returned a job")
	}
}

func TestQueue_Snapshot(t *testing.T) {
	var q Queue
	q.Enqueue(Job{Endpoint: "a"})
	q.Enqueue(Job{Endpoint: "b"})
	q.Dequeue()
	q.Enqueue(Job{Endpoint: "c"})

	got := q.Snapshot()
	if len(got) != 2 || got[0].Endpoint != "b" || got[1].Endpoint != "c" {
		t.Fatalf("Snapshot() = %+v; want [b c]", got)
	}
}

func TestBreaker_SkipsOnceAfterThreshold(t *testing.T) {
	b := NewBreaker(3)
	for i := 0; i < 3; i++ {
		if err := b.Allow(); err != nil {
			t.Fatalf("Allow() #%d error = %v", i, err)
		}
		b.Failure()
	}
	if !b.Open() {
		t.Fatal("Open() = false after 3 failures")
	}
	if err := b.Allow(); !errors.Is(err, ErrBreakerOpen) {
		t.Fatalf("Allow() error = %v; want ErrBreakerOpen", err)
	}
	if b.Failures() != 0 {
		t.Errorf("Failures() = %d after skip; want 0", b.Failures())
	}
	if err := b.Allow(); err != nil {
		t.Errorf("Allow() after skip error = %v; want nil", err)
	}
}

func TestBreaker_SuccessResets(t *testing.T) {
	b := NewBreaker(3)
	b.Failure()
	b.Failure()
	b.Success()
	b.Failure()
	b.Failure()
	if err := b.Allow(); err != nil {
		t.Fatalf("Allow() error = %v; want nil", err)
	}
}

type fakePoster struct {
	errs  []error
	calls int
	last  Job
}

func (f *fakePoster) Post(_ context.Context, j Job) error {
	f.last = j
	i := f.calls
	f.calls++
	if i < len(f.errs) {
		return f.errs[i]
	}
	return nil
}

type countingObserver struct {
	evicted int
	results map[Result]int
	length  int
}

func (o *countingObserver) JobEvicted() { o.evicted++ }
func (o *countingObserver) Dispatched(r Result, _ time.Duration) {
	if o.results == nil {
		o.results = make(map[Result]int)
	}
	o.results[r]++
}
func (o *countingObserver) QueueLen(n int) { o.length = n }

func TestDrainer_DrainOneSequence(t *testing.T) {
	down := errors.New("connection refused")
	poster := &fakePoster{errs: []error{down, down, down}}
	obs := &countingObserver{}
	d := NewDrainer(poster, discardLogger(), WithObserver(obs))

	if got := d.DrainOne(context.Background()); got != Idle {
		t.Fatalf("DrainOne() on empty queue = %v; want idle", got)
	}

	for i := 0; i < 5; i++ {
		if err := d.Enqueue(Temperature, float64(i)); err != nil {
			t.Fatalf("Enqueue() error = %v", err)
		}
	}

	want := []Result{Failed, Failed, Failed, Skipped, Delivered}
	for i, w := range want {
		if got := d.DrainOne(context.Background()); got != w {
			t.Fatalf("DrainOne() #%d = %v; want %v", i, got, w)
		}
	}

	if poster.calls != 4 {
		t.Errorf("poster calls = %d; want 4 (skip makes no attempt)", poster.calls)
	}
	if string(poster.last.Payload) != `{"value":4.00}` {
		t.Errorf("last delivered payload = %s; want job 4, job 3 discarded", poster.last.Payload)
	}
	if d.Pending() != 0 || obs.length != 0 {
		t.Errorf("Pending() = %d, observed len = %d; want 0", d.Pending(), obs.length)
	}
	if obs.results[Failed] != 3 || obs.results[Skipped] != 1 || obs.results[Delivered] != 1 {
		t.Errorf("observed results = %v", obs.results)
	}
}

func TestDrainer_EnqueueRejectsNaN(t *testing.T) {
	d := NewDrainer(&fakePoster{}, discardLogger())
	if err := d.Enqueue(Humidity, math.NaN()); !errors.Is(err, ErrNonFinite) {
		t.Fatalf("Enqueue(NaN) error = %v; want ErrNonFinite", err)
	}
	if d.Pending() != 0 {
		t.Fatalf("Pending() = %d; want 0", d.Pending())
	}
}

func TestDrainer_EvictionReported(t *testing.T) {
	obs := &countingObserver{}
	d := NewDrainer(&fakePoster{}, discardLogger(), WithObserver(obs))
	for i := 0; i < Capacity+3; i++ {
		_ = d.Enqueue(Ultrasonic, 1)
	}
	if obs.evicted != 3 {
		t.Fatalf("evicted = %d; want 3", obs.evicted)
	}
	if obs.length != Capacity {
		t.Fatalf("observed len = %d; want %d", obs.length, Capacity)
	}
}

func TestHTTPPoster_AnyStatusIsDelivered(t *testing.T) {
	var gotPath, gotType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := NewHTTPPoster(srv.URL+"/", time.Second)
	j, _ := NewJob(GasLeakage, 900)
	if err := p.Post(context.Background(), j); err != nil {
		t.Fatalf("Post() error = %v; a 500 response still counts as delivered", err)
	}
	if gotPath != "/sensor/gas-leakage" {
		t.Errorf("path = %q", gotPath)
	}
	if gotType != "application/json" {
		t.Errorf("Content-Type = %q", gotType)
	}
}

func TestHTTPPoster_TransportErrorFails(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	p := NewHTTPPoster(url, time.Second)
	j, _ := NewJob(Humidity, 1)
	if err := p.Post(context.Background(), j); err == nil {
		t.Fatal("Post() to closed server error = nil")
	}
}

func TestDrainer_TimeoutBoundsHangingRemote(t *testing.T) {
	release := make(chan struct{})
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	d := NewDrainer(NewHTTPPoster(srv.URL, 5*time.Second), discardLogger(), WithTimeout(100*time.Millisecond))
	_ = d.Enqueue(Temperature, 20)

	start := time.Now()
	got := d.DrainOne(context.Background())
	if got != Failed {
		t.Fatalf("DrainOne() = %v; want failed", got)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("DrainOne() took %v; want about 100ms", elapsed)
	}
	if d.Breaker().Failures() != 1 {
		t.Errorf("Failures() = %d; want 1", d.Breaker().Failures())
	}
}
