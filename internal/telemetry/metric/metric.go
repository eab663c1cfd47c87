// Package metric provides Prometheus metrics for cachemesh.
//
// It exposes request rates and latencies per action, plus a gauge of
// registered store instances, on the /metrics endpoint.
package metric

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds all application metrics.
type Collector struct {
	registry *prometheus.Registry

	// RequestsTotal counts dispatched requests by action and status code.
	RequestsTotal *prometheus.CounterVec

	// RequestDuration observes request handling latency by action.
	RequestDuration *prometheus.HistogramVec

	// InstancesRegistered tracks the number of registered store instances.
	InstancesRegistered prometheus.Gauge
}

// NewCollector creates and registers all application metrics on a fresh
// Prometheus registry.
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cachemesh",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Dispatched requests by action and response status.",
		}, []string{"action", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "cachemesh",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Request handling latency by action.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"action"}),
		InstancesRegistered: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "cachemesh",
			Subsystem: "registry",
			Name:      "instances",
			Help:      "Number of registered store instances.",
		}),
	}

	registry.MustRegister(
		c.RequestsTotal,
		c.RequestDuration,
		c.InstancesRegistered,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return c
}

// Handler returns the HTTP handler for the /metrics endpoint.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
