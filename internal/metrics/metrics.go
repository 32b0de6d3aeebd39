// Package metrics exposes Prometheus instrumentation for the server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "findshroom"

// Recognition outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeDegraded = "degraded"
	OutcomeError    = "error"
	OutcomeCached   = "cached"
)

// Metrics holds every collector the server reports. Each instance owns its
// registry, so tests can create as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	recognitions       *prometheus.CounterVec
	recognitionLatency *prometheus.HistogramVec
	httpRequests       *prometheus.CounterVec
	httpLatency        *prometheus.HistogramVec
	storeChanges       *prometheus.CounterVec
	sseClients         prometheus.Gauge
	levelUps           prometheus.Counter
	subscriptions      *prometheus.CounterVec
}

// New creates and registers all collectors, plus the Go runtime and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		recognitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recognitions_total",
			Help:      "Mushroom recognition requests by backend and outcome.",
		}, []string{"backend", "outcome"}),
		recognitionLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recognition_duration_seconds",
			Help:      "Latency of recognition backend calls.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
		}, []string{"backend"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route pattern and status.",
		}, []string{"method", "route", "status"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		storeChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_changes_total",
			Help:      "Committed store writes by collection and operation.",
		}, []string{"collection", "op"}),
		sseClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sse_clients",
			Help:      "Connected push stream clients.",
		}),
		levelUps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "level_ups_total",
			Help:      "Level increases across all users.",
		}),
		subscriptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subscription_activations_total",
			Help:      "Subscription key activation attempts by result.",
		}, []string{"result"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.recognitions,
		m.recognitionLatency,
		m.httpRequests,
		m.httpLatency,
		m.storeChanges,
		m.sseClients,
		m.levelUps,
		m.subscriptions,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveRecognition records one recognition call.
func (m *Metrics) ObserveRecognition(backend, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.recognitions.WithLabelValues(backend, outcome).Inc()
	if outcome != OutcomeCached {
		m.recognitionLatency.WithLabelValues(backend).Observe(d.Seconds())
	}
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpLatency.WithLabelValues(method, route).Observe(d.Seconds())
}

// ObserveChange records a committed store write.
func (m *Metrics) ObserveChange(collection, op string) {
	if m == nil {
		return
	}
	m.storeChanges.WithLabelValues(collection, op).Inc()
}

// SetSSEClients reports the number of connected push clients.
func (m *Metrics) SetSSEClients(n int) {
	if m == nil {
		return
	}
	m.sseClients.Set(float64(n))
}

// AddLevelUps counts levels gained.
func (m *Metrics) AddLevelUps(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.levelUps.Add(float64(n))
}

// ObserveActivation records a subscription activation attempt.
func (m *Metrics) ObserveActivation(activated bool) {
	if m == nil {
		return
	}
	result := "already_used"
	if activated {
		result = "activated"
	}
	m.subscriptions.WithLabelValues(result).Inc()
}
