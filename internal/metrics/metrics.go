// Package metrics exposes Prometheus instrumentation for HTTP traffic,
// relationship toggles and media cleanup.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so tests can create independent instances.
type Metrics struct {
	registry *prometheus.Registry

	requests      *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	toggles       *prometheus.CounterVec
	objectDeletes *prometheus.CounterVec
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vidstream",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern, method and status code.",
		}, []string{"route", "method", "status"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "vidstream",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern and method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		toggles: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vidstream",
			Name:      "relationship_toggles_total",
			Help:      "Like and subscription toggles by target kind and outcome.",
		}, []string{"kind", "outcome"}),
		objectDeletes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vidstream",
			Name:      "storage_object_deletes_total",
			Help:      "Background media deletions by result.",
		}, []string{"result"}),
	}
}

// ObserveToggle records one ledger toggle.
func (m *Metrics) ObserveToggle(kind string, removed bool) {
	outcome := "created"
	if removed {
		outcome = "removed"
	}
	m.toggles.WithLabelValues(kind, outcome).Inc()
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(route, method string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

// ObserveObjectDelete records the result of a janitor deletion.
func (m *Metrics) ObserveObjectDelete(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.objectDeletes.WithLabelValues(result).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
