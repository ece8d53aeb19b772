package sdk

import (
	"time"
)

// Observer provides hooks for monitoring SDK operations.
// Implement this interface to track performance metrics, debug issues,
// or integrate with your observability stack.
//
// Observer methods are called on the request path and should be fast and
// non-blocking.
//
// The SDK ships three implementations beyond NoopObserver:
//   - NewLogObserver: structured logs via logrus
//   - NewMetricsObserver: Prometheus counters and histograms
//   - NewCompositeObserver: fan-out to several observers
type Observer interface {
	// OnRequestStart is called when an HTTP request starts.
	//
	// Parameters:
	//   - method: HTTP method (GET, PUT, DELETE)
	//   - path: Request path (e.g., "/v1/secrets/db-password")
	OnRequestStart(method, path string)

	// OnRequestEnd is called when an HTTP request completes, whether it
	// succeeded or failed.
	OnRequestEnd(method, path string, duration time.Duration, err error)

	// OnRetryAttempt is called before each retry attempt with the delay
	// that will be waited and the error that triggered the retry.
	OnRetryAttempt(method, path string, attempt int, delay time.Duration, err error)

	// OnCircuitBreakerStateChange is called when a circuit breaker
	// changes state.
	OnCircuitBreakerStateChange(route string, oldState, newState CircuitState)
}

// NoopObserver is a no-op implementation of Observer that does nothing.
// This is the default observer used when none is configured.
type NoopObserver struct{}

// OnRequestStart does nothing
func (n *NoopObserver) OnRequestStart(method, path string) {}

// OnRequestEnd does nothing
func (n *NoopObserver) OnRequestEnd(method, path string, duration time.Duration, err error) {}

// OnRetryAttempt does nothing
func (n *NoopObserver) OnRetryAttempt(method, path string, attempt int, delay time.Duration, err error) {
}

// OnCircuitBreakerStateChange does nothing
func (n *NoopObserver) OnCircuitBreakerStateChange(route string, oldState, newState CircuitState) {}

// observedCircuitBreaker wraps a circuit breaker to notify an observer of
// state changes without modifying the breaker implementation.
type observedCircuitBreaker struct {
	cb        CircuitBreaker
	route     string
	observer  Observer
	lastState CircuitState
}

// newObservedCircuitBreaker creates a circuit breaker that notifies an
// observer of state changes.
func newObservedCircuitBreaker(cb CircuitBreaker, route string, observer Observer) CircuitBreaker {
	return &observedCircuitBreaker{
		cb:        cb,
		route:     route,
		observer:  observer,
		lastState: cb.State(),
	}
}

// Execute runs the function and notifies state changes
func (o *observedCircuitBreaker) Execute(fn func() error) error {
	err := o.cb.Execute(fn)

	currentState := o.cb.State()
	if currentState != o.lastState {
		o.observer.OnCircuitBreakerStateChange(o.route, o.lastState, currentState)
		o.lastState = currentState
	}

	return err
}

// State returns the current state
func (o *observedCircuitBreaker) State() CircuitState {
	return o.cb.State()
}

// Reset resets the circuit and notifies of state change
func (o *observedCircuitBreaker) Reset() {
	oldState := o.cb.State()
	o.cb.Reset()
	newState := o.cb.State()

	if oldState != newState {
		o.observer.OnCircuitBreakerStateChange(o.route, oldState, newState)
		o.lastState = newState
	}
}

// CompositeObserver fans out to multiple observers in order. A panicking
// observer is caught so it cannot affect the others.
//
// Example:
//
//	observer := sdk.NewCompositeObserver(
//	    sdk.NewLogObserver(logrus.StandardLogger()),
//	    sdk.NewMetricsObserver(prometheus.DefaultRegisterer),
//	)
//
//	config := sdk.DefaultConfig().WithObserver(observer)
type CompositeObserver struct {
	observers []Observer
}

// NewCompositeObserver creates an observer that delegates to multiple
// observers.
func NewCompositeObserver(observers ...Observer) Observer {
	return &CompositeObserver{observers: observers}
}

// OnRequestStart notifies all observers of request start.
func (c *CompositeObserver) OnRequestStart(method, path string) {
	for _, obs := range c.observers {
		func() {
			defer func() { _ = recover() }()
			obs.OnRequestStart(method, path)
		}()
	}
}

// OnRequestEnd notifies all observers of request completion.
func (c *CompositeObserver) OnRequestEnd(method, path string, duration time.Duration, err error) {
	for _, obs := range c.observers {
		func() {
			defer func() { _ = recover() }()
			obs.OnRequestEnd(method, path, duration, err)
		}()
	}
}

// OnRetryAttempt notifies all observers
func (c *CompositeObserver) OnRetryAttempt(method, path string, attempt int, delay time.Duration, err error) {
	for _, obs := range c.observers {
		func() {
			defer func() { _ = recover() }()
			obs.OnRetryAttempt(method, path, attempt, delay, err)
		}()
	}
}

// OnCircuitBreakerStateChange notifies all observers
func (c *CompositeObserver) OnCircuitBreakerStateChange(route string, oldState, newState CircuitState) {
	for _, obs := range c.observers {
		func() {
			defer func() { _ = recover() }()
			obs.OnCircuitBreakerStateChange(route, oldState, newState)
		}()
	}
}
