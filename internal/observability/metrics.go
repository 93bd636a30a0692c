package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics holds the service's prometheus collectors.
type Metrics struct {
	registry        *prometheus.Registry
	requestCount    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	errorCount      *prometheus.CounterVec
	authFailures    *prometheus.CounterVec
}

// NewMetrics registers collectors on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		errorCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_errors_total",
				Help: "Total number of error responses by error code",
			},
			[]string{"method", "route", "code"},
		),
		authFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_failures_total",
				Help: "Rejected bearer authentications by reason",
			},
			[]string{"reason"},
		),
	}
	m.registry.MustRegister(
		m.requestCount,
		m.requestDuration,
		m.errorCount,
		m.authFailures,
		collectors.NewGoCollector(),
	)
	return m
}

// Registry exposes the registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestCount.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(route, method, code string) {
	if m == nil {
		return
	}
	m.errorCount.WithLabelValues(method, route, code).Inc()
}

// RecordAuthFailure counts a rejected authentication.
func (m *Metrics) RecordAuthFailure(reason string) {
	if m == nil {
		return
	}
	m.authFailures.WithLabelValues(reason).Inc()
}
