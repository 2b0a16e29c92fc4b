// Package metrics defines the Prometheus metrics for the repository and
// authentication layers. Kept in a standalone package to avoid import cycles
// between the data access and HTTP packages.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RepositoryOps = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "repository_operations_total",
		Help: "Repository operations by entity, operation and outcome",
	}, []string{"entity", "op", "outcome"})

	RepositoryLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "repository_operation_duration_seconds",
		Help:    "Repository operation latency in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
	}, []string{"entity", "op"})

	AuthAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_attempts_total",
		Help: "Authentication attempts by outcome",
	}, []string{"outcome"})

	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests by method, route and status",
	}, []string{"method", "route", "status"})

	HTTPLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
)

// Register registers all metrics on the given registry (or the default if
// nil). Re-registration is tolerated so tests can call it freely.
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	collectors := []prometheus.Collector{
		RepositoryOps,
		RepositoryLatency,
		AuthAttempts,
		HTTPRequests,
		HTTPLatency,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}
