package emulator

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "featherd_request_duration_seconds",
		Help:    "Request duration in seconds",
		Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
	}, []string{"method", "route", "status"})

	secretOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "featherd_secret_operations_total",
		Help: "Total number of secret store operations",
	}, []string{"operation", "result"})

	secretVersionsPurged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "featherd_secret_versions_purged_total",
		Help: "Total number of expired secret versions purged",
	})

	authFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "featherd_auth_failures_total",
		Help: "Total number of rejected requests due to bad credentials",
	})
)

// MetricsMiddleware records per-request Prometheus metrics.
func MetricsMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		// Route pattern, not raw path, keeps cardinality bounded.
		route := c.Route().Path
		requestDuration.WithLabelValues(
			c.Method(),
			route,
			strconv.Itoa(c.Response().StatusCode()),
		).Observe(time.Since(start).Seconds())

		return err
	}
}

// recordOperation counts a store operation outcome.
func recordOperation(operation string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	secretOperations.WithLabelValues(operation, result).Inc()
}
