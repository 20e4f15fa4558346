package api

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts handled requests by route and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "flexo",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration tracks request latency.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "flexo",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "route"},
	)

	// EquivalencySearches counts searches by outcome.
	EquivalencySearches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "flexo",
			Subsystem: "equivalency",
			Name:      "searches_total",
			Help:      "Total number of equivalency searches by outcome",
		},
		[]string{"outcome"},
	)

	// EquivalencyCandidates records how many plates each search scored.
	EquivalencyCandidates = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "flexo",
			Subsystem: "equivalency",
			Name:      "candidates_scored",
			Help:      "Number of candidate plates scored per search",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		},
	)

	// OverriddenResults counts returned candidates whose score came from an
	// override rule.
	OverriddenResults = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "flexo",
			Subsystem: "equivalency",
			Name:      "overridden_results_total",
			Help:      "Total number of returned candidates scored by an override rule",
		},
	)
)

// Search outcomes.
const (
	outcomeOK       = "ok"
	outcomeNotFound = "not_found"
	outcomeInvalid  = "invalid_config"
	outcomeError    = "error"
)

// metricsMiddleware records request counts and latency per route.
func metricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				status, _ = statusFor(err)
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method

			HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
			HTTPRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}
