// Package metrics registers the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stackit_http_requests_total",
		Help: "HTTP requests by route pattern, method and status code",
	}, []string{"route", "method", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stackit_http_request_duration_seconds",
		Help:    "HTTP request latency by route pattern",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
	}, []string{"route"})

	StoreWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stackit_store_writes_total",
		Help: "Whole-collection writes by collection and operation",
	}, []string{"collection", "operation"})

	StoreErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stackit_store_errors_total",
		Help: "Failed record store calls by collection and operation",
	}, []string{"collection", "operation"})

	Allocations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stackit_allocations_total",
		Help: "Goal progress computations by outcome",
	}, []string{"outcome"})

	AllocatedGoals = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "stackit_allocated_goals",
		Help:    "Number of goals returned by one progress computation",
		Buckets: prometheus.LinearBuckets(0, 2, 10),
	})

	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stackit_events_published_total",
		Help: "Change events published to the broker by type and result",
	}, []string{"type", "result"})

	RateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stackit_rate_limited_total",
		Help: "Requests rejected by the write rate limiter",
	})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
