package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics registers and exposes the service's prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	SweepsTotal          prometheus.Counter
	SweepFailures        prometheus.Counter
	BreachesTotal        prometheus.Counter
	NotificationFailures prometheus.Counter
	BroadcastFailures    prometheus.Counter

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	errorsTotal     *prometheus.CounterVec
}

// NewMetrics initializes a dedicated registry with all collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		SweepsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sla_breach_sweeps_total",
			Help: "Number of breach scanner sweeps executed.",
		}),
		SweepFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sla_breach_sweep_failures_total",
			Help: "Number of sweeps aborted by a store error.",
		}),
		BreachesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sla_instances_breached_total",
			Help: "Number of SLA instances transitioned to BREACHED.",
		}),
		NotificationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sla_notification_failures_total",
			Help: "Number of breach notifications that failed to dispatch.",
		}),
		BroadcastFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sla_broadcast_failures_total",
			Help: "Number of tenant broadcast publishes that failed.",
		}),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by path, method and status.",
		}, []string{"path", "method", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"path", "method"}),
		errorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_request_errors_total",
			Help: "HTTP errors by path, method and domain error code.",
		}, []string{"path", "method", "code"}),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		m.SweepsTotal,
		m.SweepFailures,
		m.BreachesTotal,
		m.NotificationFailures,
		m.BroadcastFailures,
		m.requestsTotal,
		m.requestDuration,
		m.errorsTotal,
	)
	return m
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(path, method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(path, method).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.errorsTotal.WithLabelValues(path, method, code).Inc()
}

// Handler serves the scrape endpoint for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
