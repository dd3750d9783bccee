// Package middleware contains HTTP middleware functions for request processing
package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Total HTTP requests partitioned by method, route, and status code
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"method", "route", "status"},
	)

	// Request duration in seconds partitioned by method, route, and status code
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	// In-flight HTTP requests
	httpInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Number of HTTP requests currently being served",
		},
	)

	// TicketsIssuedTotal counts issued tickets per queue
	TicketsIssuedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queue_tickets_issued_total",
			Help: "Total number of tickets issued",
		},
		[]string{"queue"},
	)

	// TicketsCalledTotal counts called tickets per queue
	TicketsCalledTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queue_tickets_called_total",
			Help: "Total number of tickets called",
		},
		[]string{"queue"},
	)

	// TokensRotatedTotal counts join-token rotations per queue
	TokensRotatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queue_tokens_rotated_total",
			Help: "Total number of join token rotations",
		},
		[]string{"queue"},
	)

	// JoinsTotal counts successful customer joins through the public endpoint
	JoinsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "queue_joins_total",
			Help: "Total number of successful customer joins",
		},
	)
)

// Metrics returns a Fiber v3 middleware that records basic Prometheus metrics.
// Labels are kept low-cardinality by using the matched route path when available.
func Metrics() fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()
		httpInFlight.Inc()
		defer httpInFlight.Dec()

		err := c.Next()

		status := c.Response().StatusCode()
		method := c.Method()
		route := c.Path()
		if r := c.Route(); r != nil && r.Path != "" {
			route = r.Path // Use route template to avoid high cardinality
		}

		labels := prometheus.Labels{
			"method": method,
			"route":  route,
			"status": strconv.Itoa(status),
		}
		httpRequestsTotal.With(labels).Inc()
		httpRequestDuration.With(labels).Observe(time.Since(start).Seconds())

		return err
	}
}
