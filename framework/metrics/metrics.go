// Package metrics exposes Prometheus counters for the request sequence.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the application's Prometheus metrics on a private registry.
type Collector struct {
	registry *prometheus.Registry

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
	AuthAttempts *prometheus.CounterVec
	Controllers  *prometheus.CounterVec
}

// NewCollector creates a Collector whose metric names start with namespace.
func NewCollector(namespace string) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		AuthAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "authentication_attempts_total",
				Help:      "Authentication attempts by strategy and outcome",
			},
			[]string{"strategy", "outcome"},
		),
		Controllers: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "controller_instances_total",
				Help:      "Controllers instantiated through the container",
			},
			[]string{"controller"},
		),
	}
	c.registry.MustRegister(c.HTTPRequests, c.HTTPDuration, c.AuthAttempts, c.Controllers)
	return c
}

// ObserveRequest records one finished request. route is the matched
// pattern, or "unmatched".
func (c *Collector) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveAuth records an authentication outcome: "success", "challenge" or "error".
func (c *Collector) ObserveAuth(strategy, outcome string) {
	c.AuthAttempts.WithLabelValues(strategy, outcome).Inc()
}

// ObserveController records one controller instantiation.
func (c *Collector) ObserveController(name string) {
	c.Controllers.WithLabelValues(name).Inc()
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
