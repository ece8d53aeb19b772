package sdk

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsObserver exports SDK operation metrics to Prometheus.
// It registers its collectors against the provided registerer, so several
// clients can share one observer but two observers must not share one
// registerer.
//
// Exported metrics:
//   - feathervault_client_requests_total{method, path, result}
//   - feathervault_client_request_duration_seconds{method, path}
//   - feathervault_client_retries_total{method, path}
//   - feathervault_client_circuit_state_changes_total{route, state}
//
// Example:
//
//	metrics := sdk.NewMetricsObserver(prometheus.DefaultRegisterer)
//	config := sdk.DefaultConfig().WithObserver(metrics)
type MetricsObserver struct {
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	retries         *prometheus.CounterVec
	circuitChanges  *prometheus.CounterVec
}

// NewMetricsObserver creates a Prometheus-backed observer and registers
// its collectors with reg. If reg is nil, the default registerer is used.
func NewMetricsObserver(reg prometheus.Registerer) *MetricsObserver {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &MetricsObserver{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "feathervault_client_requests_total",
			Help: "Total number of vault requests",
		}, []string{"method", "path", "result"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "feathervault_client_request_duration_seconds",
			Help:    "Vault request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"method", "path"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "feathervault_client_retries_total",
			Help: "Total number of retry attempts",
		}, []string{"method", "path"}),
		circuitChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "feathervault_client_circuit_state_changes_total",
			Help: "Total number of circuit breaker state changes",
		}, []string{"route", "state"}),
	}

	reg.MustRegister(m.requests, m.requestDuration, m.retries, m.circuitChanges)
	return m
}

// OnRequestStart is a no-op; counting happens on completion
func (m *MetricsObserver) OnRequestStart(method, path string) {}

// OnRequestEnd records the request outcome and latency
func (m *MetricsObserver) OnRequestEnd(method, path string, duration time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	m.requests.WithLabelValues(method, path, result).Inc()
	m.requestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// OnRetryAttempt counts retries
func (m *MetricsObserver) OnRetryAttempt(method, path string, attempt int, delay time.Duration, err error) {
	m.retries.WithLabelValues(method, path).Inc()
}

// OnCircuitBreakerStateChange counts transitions into each state
func (m *MetricsObserver) OnCircuitBreakerStateChange(route string, oldState, newState CircuitState) {
	m.circuitChanges.WithLabelValues(route, newState.String()).Inc()
}
