// Package metrics exposes Prometheus instrumentation for the bot.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors registered for one process.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	inFlight     prometheus.Gauge
	interactions *prometheus.CounterVec
}

// New creates and registers the bot's collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ecobot_http_requests_total",
			Help: "HTTP requests by service, method, path and status.",
		}, []string{"service", "method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ecobot_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"service", "method", "path"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ecobot_http_requests_in_flight",
			Help: "Requests currently being served.",
		}),
		interactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ecobot_interactions_total",
			Help: "Slash command invocations by command and outcome.",
		}, []string{"command", "outcome"}),
	}

	m.registry.MustRegister(m.httpRequests, m.httpDuration, m.inFlight, m.interactions)
	return m
}

// RecordHTTPRequest records one completed HTTP request.
func (m *Metrics) RecordHTTPRequest(service, method, path, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(service, method, path, status).Inc()
	m.httpDuration.WithLabelValues(service, method, path).Observe(duration.Seconds())
}

// IncrementInFlight bumps the in-flight gauge.
func (m *Metrics) IncrementInFlight() {
	if m == nil {
		return
	}
	m.inFlight.Inc()
}

// DecrementInFlight drops the in-flight gauge.
func (m *Metrics) DecrementInFlight() {
	if m == nil {
		return
	}
	m.inFlight.Dec()
}

// RecordInteraction records one command dispatch outcome.
func (m *Metrics) RecordInteraction(command, outcome string) {
	if m == nil {
		return
	}
	m.interactions.WithLabelValues(command, outcome).Inc()
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
