package sdk

import (
	"sync"
	"time"
)

// CircuitState represents the current state of a circuit breaker.
//
// State transitions:
//   - Closed -> Open: when the failure threshold is reached
//   - Open -> Half-Open: after the timeout period expires
//   - Half-Open -> Closed: when the success threshold is reached
//   - Half-Open -> Open: on any failure
type CircuitState int

const (
	// CircuitClosed is the normal operating state.
	// All requests pass through and errors are counted.
	CircuitClosed CircuitState = iota
	// CircuitOpen blocks all requests immediately.
	CircuitOpen
	// CircuitHalfOpen allows limited requests to test if the vault has
	// recovered.
	CircuitHalfOpen
)

// String returns the string representation of the circuit state
func (cs CircuitState) String() string {
	switch cs {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreaker protects the vault from cascading failures by failing
// fast when the recent error rate exceeds a threshold.
//
// Example:
//
//	config := sdk.DefaultConfig().WithCircuitBreaker(sdk.CircuitBreakerConfig{
//	    FailureThreshold: 5,
//	    SuccessThreshold: 2,
//	    Timeout:          30 * time.Second,
//	})
//
//	client, _ := sdk.NewClient(config)
//
//	_, err := client.GetSecret(ctx, "db-password", nil)
//	if errors.Is(err, sdk.ErrCircuitOpen) {
//	    // Circuit is open, vault is unavailable
//	}
type CircuitBreaker interface {
	// Execute runs the given function if the circuit allows it.
	// Returns ErrCircuitOpen if the circuit is open.
	Execute(fn func() error) error

	// State returns the current state of the circuit breaker.
	State() CircuitState

	// Reset manually resets the circuit to closed state.
	Reset()
}

// CircuitBreakerConfig holds configuration for circuit breaker behavior.
// All fields have sensible defaults if not specified.
type CircuitBreakerConfig struct {
	// FailureThreshold is the number of consecutive failures before
	// the circuit opens.
	// Default: 5
	FailureThreshold int

	// SuccessThreshold is the number of consecutive successes required
	// in half-open state before the circuit closes.
	// Default: 2
	SuccessThreshold int

	// Timeout is how long the circuit stays open before transitioning
	// to half-open state to test recovery.
	// Default: 30s
	Timeout time.Duration

	// HalfOpenRequests is the maximum number of requests allowed in
	// half-open state.
	// Default: 3
	HalfOpenRequests int
}

// DefaultCircuitBreakerConfig returns a circuit breaker configuration
// with sensible defaults suitable for most use cases.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Timeout:          30 * time.Second,
		HalfOpenRequests: 3,
	}
}

// circuitBreaker is the default implementation
type circuitBreaker struct {
	config CircuitBreakerConfig

	mu               sync.Mutex
	state            CircuitState
	failures         int
	successes        int
	halfOpenRequests int
	lastFailureTime  time.Time
	lastStateChange  time.Time
}

// NewCircuitBreaker creates a new circuit breaker with the given
// configuration. The circuit starts closed.
func NewCircuitBreaker(config CircuitBreakerConfig) CircuitBreaker {
	return &circuitBreaker{
		config:          config,
		state:           CircuitClosed,
		lastStateChange: time.Now(),
	}
}

// Execute runs the given function if the circuit allows it
func (cb *circuitBreaker) Execute(fn func() error) error {
	cb.mu.Lock()

	cb.checkStateTransition()

	state := cb.state

	if state == CircuitOpen {
		cb.mu.Unlock()
		return NewError(ErrorTypeCircuitOpen, "circuit breaker is open", ErrCircuitOpen)
	}

	if state == CircuitHalfOpen {
		if cb.halfOpenRequests >= cb.config.HalfOpenRequests {
			cb.mu.Unlock()
			return NewError(ErrorTypeCircuitOpen, "circuit breaker half-open limit reached", ErrCircuitOpen)
		}
		cb.halfOpenRequests++
	}

	cb.mu.Unlock()

	err := fn()

	cb.recordResult(err)

	return err
}

// State returns the current state of the circuit
func (cb *circuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.checkStateTransition()
	return cb.state
}

// Reset manually resets the circuit to closed state
func (cb *circuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.state = CircuitClosed
	cb.failures = 0
	cb.successes = 0
	cb.halfOpenRequests = 0
	cb.lastStateChange = time.Now()
}

// checkStateTransition checks if the circuit should transition states.
// Caller must hold cb.mu.
func (cb *circuitBreaker) checkStateTransition() {
	if cb.state == CircuitOpen {
		if time.Since(cb.lastFailureTime) >= cb.config.Timeout {
			cb.transitionTo(CircuitHalfOpen)
		}
	}
}

// recordResult records the result of a function execution
func (cb *circuitBreaker) recordResult(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err != nil {
		cb.onFailure()
	} else {
		cb.onSuccess()
	}
}

// onSuccess handles successful executions
func (cb *circuitBreaker) onSuccess() {
	switch cb.state {
	case CircuitClosed:
		cb.failures = 0

	case CircuitHalfOpen:
		cb.successes++
		if cb.successes >= cb.config.SuccessThreshold {
			cb.transitionTo(CircuitClosed)
		}
	}
}

// onFailure handles failed executions
func (cb *circuitBreaker) onFailure() {
	cb.lastFailureTime = time.Now()

	switch cb.state {
	case CircuitClosed:
		cb.failures++
		if cb.failures >= cb.config.FailureThreshold {
			cb.transitionTo(CircuitOpen)
		}

	case CircuitHalfOpen:
		// Any failure in half-open goes back to open
		cb.transitionTo(CircuitOpen)
	}
}

// transitionTo transitions the circuit to a new state
func (cb *circuitBreaker) transitionTo(newState CircuitState) {
	if cb.state == newState {
		return
	}

	cb.state = newState
	cb.lastStateChange = time.Now()
	cb.failures = 0
	cb.successes = 0
	cb.halfOpenRequests = 0
}

// perRouteCircuitBreaker manages individual circuit breakers per API
// route, so issues with one route (say, secret writes) don't block
// requests to others (say, health checks).
type perRouteCircuitBreaker struct {
	mu       sync.RWMutex
	breakers map[string]CircuitBreaker
	config   CircuitBreakerConfig
}

// newPerRouteCircuitBreaker creates a manager for per-route circuit
// breakers. Each route gets its own breaker with the same configuration.
func newPerRouteCircuitBreaker(config CircuitBreakerConfig) *perRouteCircuitBreaker {
	return &perRouteCircuitBreaker{
		breakers: make(map[string]CircuitBreaker),
		config:   config,
	}
}

// Execute runs a function for a specific route using its circuit breaker.
func (prcb *perRouteCircuitBreaker) Execute(route string, fn func() error) error {
	cb := prcb.getOrCreate(route)
	return cb.Execute(fn)
}

// State returns the state of a specific route's circuit breaker.
// Returns CircuitClosed if no circuit breaker exists for the route.
func (prcb *perRouteCircuitBreaker) State(route string) CircuitState {
	prcb.mu.RLock()
	cb, exists := prcb.breakers[route]
	prcb.mu.RUnlock()

	if !exists {
		return CircuitClosed
	}

	return cb.State()
}

// Reset resets a specific route's circuit breaker to closed state.
func (prcb *perRouteCircuitBreaker) Reset(route string) {
	prcb.mu.RLock()
	cb, exists := prcb.breakers[route]
	prcb.mu.RUnlock()

	if exists {
		cb.Reset()
	}
}

// ResetAll resets all circuit breakers to closed state.
func (prcb *perRouteCircuitBreaker) ResetAll() {
	prcb.mu.RLock()
	defer prcb.mu.RUnlock()

	for _, cb := range prcb.breakers {
		cb.Reset()
	}
}

// getOrCreate gets or creates a circuit breaker for a route
func (prcb *perRouteCircuitBreaker) getOrCreate(route string) CircuitBreaker {
	prcb.mu.RLock()
	cb, exists := prcb.breakers[route]
	prcb.mu.RUnlock()

	if exists {
		return cb
	}

	prcb.mu.Lock()
	defer prcb.mu.Unlock()

	if cb, exists := prcb.breakers[route]; exists {
		return cb
	}

	cb = NewCircuitBreaker(prcb.config)
	prcb.breakers[route] = cb
	return cb
}

// noopCircuitBreaker is a circuit breaker that does nothing
type noopCircuitBreaker struct{}

// Execute always executes the function
func (ncb *noopCircuitBreaker) Execute(fn func() error) error {
	return fn()
}

// State always returns closed
func (ncb *noopCircuitBreaker) State() CircuitState {
	return CircuitClosed
}

// Reset does nothing
func (ncb *noopCircuitBreaker) Reset() {}

// NewNoopCircuitBreaker creates a circuit breaker that never blocks.
// Useful for testing or disabling circuit breaking without changing
// code structure.
func NewNoopCircuitBreaker() CircuitBreaker {
	return &noopCircuitBreaker{}
}
