// Package metrics owns the Prometheus registry of the service and the
// counters recorded by the HTTP layer.
//
// Metrics:
//   - shield_http_requests_total: requests by method, route and status
//   - shield_http_request_duration_seconds: request latency histogram
//   - shield_metadata_requests_total: POST /metadata outcomes by result
//   - shield_metadata_records_total: accepted payloads by record status
//   - shield_auth_failures_total: rejected credentials by reason
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "shield"

// Auth failure reasons.
const (
	AuthMissing = "missing"
	AuthInvalid = "invalid"
)

// Collector holds the registry and every metric the service records.
type Collector struct {
	registry *prometheus.Registry

	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	metadataRequests *prometheus.CounterVec
	metadataRecords  *prometheus.CounterVec
	authFailures     *prometheus.CounterVec
}

// NewCollector creates and registers all metrics on a fresh registry,
// together with the Go runtime and process collectors.
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,

		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests handled",
			},
			[]string{"method", "route", "status"},
		),

		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
			[]string{"method", "route"},
		),

		metadataRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "metadata",
				Name:      "requests_total",
				Help:      "Metadata submissions by result (success or error)",
			},
			[]string{"result"},
		),

		metadataRecords: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "metadata",
				Name:      "records_total",
				Help:      "Accepted metadata records by status (stored or queued) and model",
			},
			[]string{"status", "model"},
		),

		authFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "auth",
				Name:      "failures_total",
				Help:      "Rejected API keys by reason (missing or invalid)",
			},
			[]string{"reason"},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.requestsTotal,
		c.requestDuration,
		c.metadataRequests,
		c.metadataRecords,
		c.authFailures,
	)

	return c
}

// ObserveRequest records one finished HTTP request. route is the matched
// route template, never the raw URL, to bound cardinality.
func (c *Collector) ObserveRequest(method, route string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	c.requestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordMetadataResult counts a metadata submission outcome.
func (c *Collector) RecordMetadataResult(result string) {
	c.metadataRequests.WithLabelValues(result).Inc()
}

// RecordMetadataRecord counts a stored or queued record.
func (c *Collector) RecordMetadataRecord(status, model string) {
	c.metadataRecords.WithLabelValues(status, model).Inc()
}

// RecordAuthFailure counts a rejected credential.
func (c *Collector) RecordAuthFailure(reason string) {
	c.authFailures.WithLabelValues(reason).Inc()
}

// Registry exposes the registry, mainly for tests.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler returns the Prometheus exposition handler for this registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(
		c.registry,
		promhttp.HandlerOpts{
			EnableOpenMetrics: true,
			ErrorHandling:     promhttp.ContinueOnError,
		},
	)
}
