package sdk

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopObserver(t *testing.T) {
	// Just verify the noop observer is safe to call.
	var obs Observer = &NoopObserver{}
	obs.OnRequestStart("GET", "/health")
	obs.OnRequestEnd("GET", "/health", time.Millisecond, nil)
	obs.OnRetryAttempt("GET", "/health", 1, time.Millisecond, errors.New("x"))
	obs.OnCircuitBreakerStateChange("default", CircuitClosed, CircuitOpen)
}

func TestLogObserver(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	obs := NewLogObserver(logger)

	obs.OnRequestStart("GET", "/v1/secrets/x")
	obs.OnRequestEnd("GET", "/v1/secrets/x", 5*time.Millisecond, nil)

	entries := hook.AllEntries()
	require.Len(t, entries, 2)
	assert.Equal(t, logrus.DebugLevel, entries[1].Level)
	assert.Equal(t, "request completed", entries[1].Message)
	assert.Equal(t, "GET", entries[1].Data["method"])

	hook.Reset()
	obs.OnRequestEnd("PUT", "/v1/secrets/x", 5*time.Millisecond, errBoom)
	require.Len(t, hook.AllEntries(), 1)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, "request failed", hook.LastEntry().Message)

	hook.Reset()
	obs.OnRetryAttempt("PUT", "/v1/secrets/x", 2, 100*time.Millisecond, errBoom)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, 2, hook.LastEntry().Data["attempt"])

	hook.Reset()
	obs.OnCircuitBreakerStateChange("default", CircuitClosed, CircuitOpen)
	assert.Equal(t, "circuit breaker state changed", hook.LastEntry().Message)
	assert.Equal(t, "open", hook.LastEntry().Data["new_state"])
}

func TestLogObserver_NilLoggerFallsBack(t *testing.T) {
	obs := NewLogObserver(nil)
	require.NotNil(t, obs)
	obs.OnRequestStart("GET", "/health")
}

func TestMetricsObserver(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs := NewMetricsObserver(reg)

	obs.OnRequestEnd("GET", "/v1/secrets/x", 10*time.Millisecond, nil)
	obs.OnRequestEnd("GET", "/v1/secrets/x", 10*time.Millisecond, errBoom)
	obs.OnRetryAttempt("GET", "/v1/secrets/x", 1, time.Millisecond, errBoom)
	obs.OnCircuitBreakerStateChange("default", CircuitClosed, CircuitOpen)

	assert.Equal(t, float64(1), testutil.ToFloat64(
		obs.requests.WithLabelValues("GET", "/v1/secrets/x", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(
		obs.requests.WithLabelValues("GET", "/v1/secrets/x", "error")))
	assert.Equal(t, float64(1), testutil.ToFloat64(
		obs.retries.WithLabelValues("GET", "/v1/secrets/x")))
	assert.Equal(t, float64(1), testutil.ToFloat64(
		obs.circuitChanges.WithLabelValues("default", "open")))
}

func TestCompositeObserver(t *testing.T) {
	var starts, ends int32
	first := &funcObserver{
		onStart: func(method, path string) { atomic.AddInt32(&starts, 1) },
		onEnd:   func(method, path string, d time.Duration, err error) { atomic.AddInt32(&ends, 1) },
	}
	second := &funcObserver{
		onStart: func(method, path string) { atomic.AddInt32(&starts, 1) },
	}

	composite := NewCompositeObserver(first, second)
	composite.OnRequestStart("GET", "/health")
	composite.OnRequestEnd("GET", "/health", time.Millisecond, nil)

	assert.Equal(t, int32(2), atomic.LoadInt32(&starts))
	assert.Equal(t, int32(1), atomic.LoadInt32(&ends))
}

func TestCompositeObserver_PanicIsolation(t *testing.T) {
	var called int32
	panicking := &funcObserver{
		onStart: func(method, path string) { panic("observer bug") },
	}
	healthy := &funcObserver{
		onStart: func(method, path string) { atomic.AddInt32(&called, 1) },
	}

	composite := NewCompositeObserver(panicking, healthy)
	assert.NotPanics(t, func() {
		composite.OnRequestStart("GET", "/health")
	})
	assert.Equal(t, int32(1), atomic.LoadInt32(&called), "a panicking observer must not block the rest")
}
