// Package metrics holds the proxy's Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RequestsTotal counts proxy invocations by action and response status.
	// Health checks use action "health"; rejected requests use "invalid".
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hsg245_proxy_requests_total",
			Help: "Total number of proxy requests",
		},
		[]string{"action", "status"},
	)

	BackendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hsg245_proxy_backend_duration_seconds",
			Help:    "Duration of backend calls in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60},
		},
		[]string{"action"},
	)

	// BackendErrors counts failed backend calls. kind is "transport" or "status".
	BackendErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hsg245_proxy_backend_errors_total",
			Help: "Total number of failed backend calls",
		},
		[]string{"action", "kind"},
	)

	HealthChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hsg245_proxy_health_checks_total",
			Help: "Total number of backend health checks",
		},
		[]string{"result"},
	)

	LifecycleTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hsg245_lifecycle_transitions_total",
			Help: "Incident stage changes observed by the proxy",
		},
		[]string{"stage"},
	)

	LifecycleErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hsg245_lifecycle_errors_total",
			Help: "Failures recording incident lifecycle or publishing events",
		},
	)
)

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
