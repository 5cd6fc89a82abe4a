// Package metrics exposes Prometheus counters for authentication outcomes
// and HTTP traffic.
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

const namespace = "pixelstudio"

// Metrics owns a private registry so tests and multiple servers in one
// process do not collide on the default registerer.
type Metrics struct {
	registry *prometheus.Registry

	authTotal    *prometheus.CounterVec
	rejectsTotal *prometheus.CounterVec
	httpTotal    *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		authTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "operations_total",
			Help:      "Authentication operations by kind and result",
		}, []string{"operation", "result"}),

		rejectsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "rejections_total",
			Help:      "Requests rejected by the authentication middleware by reason",
		}, []string{"reason"}),

		httpTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route pattern and status",
		}, []string{"method", "route", "status"}),

		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// ObserveAuth counts one signup, login, refresh or signout attempt.
func (m *Metrics) ObserveAuth(operation string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.authTotal.WithLabelValues(operation, result).Inc()
}

// ObserveRejection counts a request turned away by the middleware.
func (m *Metrics) ObserveRejection(reason string) {
	m.rejectsTotal.WithLabelValues(reason).Inc()
}

func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.httpTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
