package sdk

import (
	"time"

	"github.com/sirupsen/logrus"
)

// LogObserver emits structured logs for SDK operations via logrus.
// Request completions are logged at debug level on success and warn level
// on failure; retries and circuit breaker transitions at warn level.
//
// Example:
//
//	logger := logrus.New()
//	logger.SetFormatter(&logrus.JSONFormatter{})
//
//	config := sdk.DefaultConfig().
//	    WithObserver(sdk.NewLogObserver(logger))
type LogObserver struct {
	logger logrus.FieldLogger
}

// NewLogObserver creates an observer that logs to the given logger.
// If logger is nil, the logrus standard logger is used.
func NewLogObserver(logger logrus.FieldLogger) *LogObserver {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &LogObserver{logger: logger}
}

// OnRequestStart logs the start of a request at debug level
func (o *LogObserver) OnRequestStart(method, path string) {
	o.logger.WithFields(logrus.Fields{
		"method": method,
		"path":   path,
	}).Debug("request started")
}

// OnRequestEnd logs the outcome of a request
func (o *LogObserver) OnRequestEnd(method, path string, duration time.Duration, err error) {
	fields := logrus.Fields{
		"method":      method,
		"path":        path,
		"duration_ms": duration.Milliseconds(),
	}
	if err != nil {
		o.logger.WithFields(fields).WithError(err).Warn("request failed")
		return
	}
	o.logger.WithFields(fields).Debug("request completed")
}

// OnRetryAttempt logs each retry with the delay about to be waited
func (o *LogObserver) OnRetryAttempt(method, path string, attempt int, delay time.Duration, err error) {
	o.logger.WithFields(logrus.Fields{
		"method":  method,
		"path":    path,
		"attempt": attempt,
		"delay":   delay.String(),
	}).WithError(err).Warn("retrying request")
}

// OnCircuitBreakerStateChange logs circuit transitions
func (o *LogObserver) OnCircuitBreakerStateChange(route string, oldState, newState CircuitState) {
	o.logger.WithFields(logrus.Fields{
		"route":     route,
		"old_state": oldState.String(),
		"new_state": newState.String(),
	}).Warn("circuit breaker state changed")
}
