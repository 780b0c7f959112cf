package prometheus

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "shorty"

// Outcome labels.
const (
	OutcomeCreated = "created"
	OutcomeInvalid = "invalid"
	OutcomeHit     = "hit"
	OutcomeMiss    = "miss"
	OutcomeError   = "error"
)

// Metrics holds the application collectors. A nil *Metrics records nothing,
// which keeps tests and tools free of registry plumbing.
type Metrics struct {
	shortenTotal    *prometheus.CounterVec
	resolveTotal    *prometheus.CounterVec
	collisionsTotal prometheus.Counter
	requestDuration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		shortenTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shorten_total",
			Help:      "Shorten requests by outcome.",
		}, []string{"outcome"}),
		resolveTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolve_total",
			Help:      "Short code resolutions by outcome.",
		}, []string{"outcome"}),
		collisionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "code_collisions_total",
			Help:      "Inserts rejected because the generated code already existed.",
		}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	reg.MustRegister(m.shortenTotal, m.resolveTotal, m.collisionsTotal, m.requestDuration)
	return m
}

func (m *Metrics) ObserveShorten(outcome string) {
	if m == nil {
		return
	}
	m.shortenTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveResolve(outcome string) {
	if m == nil {
		return
	}
	m.resolveTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncCollision() {
	if m == nil {
		return
	}
	m.collisionsTotal.Inc()
}

func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}
