// Package metrics exposes gateway health as Prometheus collectors. The
// collectors are written from the node loop and scraped from the HTTP
// goroutine; client_golang makes that safe.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"auramesh/internal/hazard"
	"auramesh/internal/uplink"
)

const namespace = "aura"

// Frame outcomes counted by Gateway.Frame.
const (
	FrameApplied   = "applied"
	FrameIgnored   = "ignored"
	FrameMalformed = "malformed"
)

// Gateway holds every gateway collector. It implements uplink.Observer and
// hazard.Observer.
type Gateway struct {
	queueLength  prometheus.Gauge
	queueEvicted prometheus.Counter
	dispatch     *prometheus.CounterVec
	latency      prometheus.Histogram
	frames       *prometheus.CounterVec
	hazard       *prometheus.GaugeVec
	cycles       prometheus.Counter
}

func NewGateway(reg prometheus.Registerer) *Gateway {
	g := &Gateway{
		queueLength: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "uplink", Name: "queue_length",
			Help: "Jobs waiting in the uplink queue.",
		}),
		queueEvicted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "uplink", Name: "queue_evicted_total",
			Help: "Jobs overwritten because the uplink queue was full.",
		}),
		dispatch: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "uplink", Name: "dispatch_total",
			Help: "Uplink dispatch outcomes.",
		}, []string{"result"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "uplink", Name: "post_seconds",
			Help:    "Duration of uplink POST attempts.",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 1.5, 2},
		}),
		frames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "mesh", Name: "frames_total",
			Help: "Inbound mesh frames by outcome.",
		}, []string{"result"}),
		hazard: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "hazard", Name: "active",
			Help: "1 while the hazard flag is raised.",
		}, []string{"flag"}),
		cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "hazard", Name: "cycles_total",
			Help: "Completed fusion cycles.",
		}),
	}
	reg.MustRegister(g.queueLength, g.queueEvicted, g.dispatch, g.latency, g.frames, g.hazard, g.cycles)
	return g
}

// NewRegistry returns a registry with the Go and process collectors installed.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func (g *Gateway) JobEvicted() { g.queueEvicted.Inc() }

func (g *Gateway) QueueLen(n int) { g.queueLength.Set(float64(n)) }

func (g *Gateway) Dispatched(r uplink.Result, took time.Duration) {
	g.dispatch.WithLabelValues(r.String()).Inc()
	if r == uplink.Delivered || r == uplink.Failed {
		g.latency.Observe(took.Seconds())
	}
}

func (g *Gateway) Frame(result string) { g.frames.WithLabelValues(result).Inc() }

func (g *Gateway) CycleDone(s hazard.State) {
	g.cycles.Inc()
	g.hazard.WithLabelValues("obstacle").Set(b2f(s.ObstacleNear))
	g.hazard.WithLabelValues("gas").Set(b2f(s.GasLeak))
	g.hazard.WithLabelValues("overheat").Set(b2f(s.Overheat))
	g.hazard.WithLabelValues("seismic").Set(b2f(s.SeismicEvent))
}

func b2f(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
