package registry

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Request kinds used as the "kind" label.
const (
	kindPackument = "packument"
	kindTarball   = "tarball"
)

// Metrics holds the Prometheus collectors for registry traffic.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	requests  *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	cacheHits prometheus.Counter
}

// NewMetrics creates the registry collectors and registers them with reg.
// A nil reg leaves the collectors unregistered, which is useful in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tinypm",
			Subsystem: "registry",
			Name:      "requests_total",
			Help:      "Registry HTTP requests by kind and outcome.",
		}, []string{"kind", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tinypm",
			Subsystem: "registry",
			Name:      "request_duration_seconds",
			Help:      "Registry HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tinypm",
			Subsystem: "registry",
			Name:      "cache_hits_total",
			Help:      "Packument lookups served from the in-process cache.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.requests, m.duration, m.cacheHits)
	}
	return m
}

func (m *Metrics) observe(kind string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	m.requests.WithLabelValues(kind, outcome(err)).Inc()
}

func (m *Metrics) cacheHit() {
	if m == nil {
		return
	}
	m.cacheHits.Inc()
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
		return "not_found"
	}
	return "error"
}
