package sdk

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"
)

// RetryStrategy defines how retries should be performed.
// Different strategies provide different behaviors for retry intervals
// and determine which errors should trigger retries.
//
// The SDK provides several built-in strategies:
//   - ExponentialBackoffStrategy: Exponentially increasing delays
//   - LinearBackoffStrategy: Linear delay increases
//   - ConstantBackoffStrategy: Fixed delay between retries
//   - NoRetryStrategy: Disables retries entirely
//
// Custom strategies implement the same interface:
//
//	type CustomStrategy struct{}
//
//	func (s *CustomStrategy) NextInterval(attempt int) time.Duration {
//	    return time.Duration(attempt*attempt) * time.Second
//	}
//
//	func (s *CustomStrategy) ShouldRetry(err error, attempt int) bool {
//	    return sdk.IsRetryable(err) && attempt < 5
//	}
type RetryStrategy interface {
	// NextInterval returns the delay before the next retry attempt.
	// The attempt parameter starts at 1 for the first retry.
	// Return 0 to indicate no more retries should be attempted.
	NextInterval(attempt int) time.Duration

	// ShouldRetry determines if the error is retryable for the given
	// attempt.
	ShouldRetry(err error, attempt int) bool
}

// budgetedStrategy is implemented by strategies that carry a RetryBudget,
// letting the executor enforce count and duration limits without knowing
// the concrete strategy type.
type budgetedStrategy interface {
	budget() RetryBudget
}

// RetryBudget limits retry attempts by count and duration to prevent
// excessive retries that could overwhelm the service or delay failure
// detection.
type RetryBudget struct {
	// MaxAttempts is the maximum number of retry attempts.
	// Set to 0 for unlimited attempts (not recommended).
	MaxAttempts int

	// MaxDuration is the maximum total time for all retries, including
	// the time spent in retry delays. Set to 0 for no time limit.
	MaxDuration time.Duration

	// RetryableErrors restricts retries to specific error types.
	// If empty, all retryable errors are allowed.
	RetryableErrors []ErrorType
}

// DefaultRetryBudget returns a retry budget with sensible defaults:
// up to 3 retry attempts within 30 seconds, any retryable error.
func DefaultRetryBudget() RetryBudget {
	return RetryBudget{
		MaxAttempts: 3,
		MaxDuration: 30 * time.Second,
	}
}

// IsExhausted checks if the retry budget is exhausted
func (rb *RetryBudget) IsExhausted(attempt int, elapsed time.Duration) bool {
	if rb.MaxAttempts > 0 && attempt >= rb.MaxAttempts {
		return true
	}
	if rb.MaxDuration > 0 && elapsed >= rb.MaxDuration {
		return true
	}
	return false
}

// IsRetryable checks if an error is allowed by the budget
func (rb *RetryBudget) IsRetryable(err error) bool {
	if !IsRetryable(err) {
		return false
	}

	if len(rb.RetryableErrors) == 0 {
		return true
	}

	var enhancedErr *Error
	if errors.As(err, &enhancedErr) {
		for _, allowed := range rb.RetryableErrors {
			if enhancedErr.Type == allowed {
				return true
			}
		}
	}

	return false
}

// ExponentialBackoffStrategy implements exponential backoff with jitter.
// This is the recommended retry strategy for most use cases: it reduces
// load on a struggling vault by increasing delays, and jitter prevents
// synchronized retry storms across clients.
//
// The delay calculation is:
//
//	base = InitialInterval * (Multiplier ^ (attempt-1))
//	delay = min(base, MaxInterval) ± jitter
type ExponentialBackoffStrategy struct {
	// InitialInterval is the initial retry interval.
	InitialInterval time.Duration

	// MaxInterval caps the retry interval.
	MaxInterval time.Duration

	// Multiplier is the exponential growth factor.
	Multiplier float64

	// Jitter is the randomization factor (0.0 to 1.0).
	// 0.3 means ±30% randomization of the calculated interval.
	Jitter float64

	// Budget limits retry attempts by count and duration.
	Budget RetryBudget
}

// DefaultExponentialBackoff returns an exponential backoff strategy with
// sensible defaults: 100ms initial interval doubling up to 5s, ±30%
// jitter, and the default retry budget.
//
// Example:
//
//	config := sdk.DefaultConfig().
//	    WithRetryStrategy(sdk.DefaultExponentialBackoff())
func DefaultExponentialBackoff() *ExponentialBackoffStrategy {
	return &ExponentialBackoffStrategy{
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     5 * time.Second,
		Multiplier:      2.0,
		Jitter:          0.3,
		Budget:          DefaultRetryBudget(),
	}
}

// NextInterval calculates the next retry interval
func (s *ExponentialBackoffStrategy) NextInterval(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	interval := float64(s.InitialInterval) * math.Pow(s.Multiplier, float64(attempt-1))

	if interval > float64(s.MaxInterval) {
		interval = float64(s.MaxInterval)
	}

	if s.Jitter > 0 {
		jitterRange := interval * s.Jitter
		interval += jitterRange * (2*rand.Float64() - 1)
	}

	if interval < 0 {
		interval = 0
	}

	return time.Duration(interval)
}

// ShouldRetry determines if the error is retryable
func (s *ExponentialBackoffStrategy) ShouldRetry(err error, attempt int) bool {
	return s.Budget.IsRetryable(err)
}

func (s *ExponentialBackoffStrategy) budget() RetryBudget { return s.Budget }

// LinearBackoffStrategy implements linear backoff with optional jitter.
// Each retry uses the same base interval, with optional randomization.
type LinearBackoffStrategy struct {
	// Interval is the fixed interval between retries.
	Interval time.Duration

	// Jitter is the randomization factor (0.0 to 1.0).
	Jitter float64

	// Budget limits retry attempts.
	Budget RetryBudget
}

// DefaultLinearBackoff returns a linear backoff strategy with sensible
// defaults: 1s between retries, ±10% jitter, default budget.
func DefaultLinearBackoff() *LinearBackoffStrategy {
	return &LinearBackoffStrategy{
		Interval: 1 * time.Second,
		Jitter:   0.1,
		Budget:   DefaultRetryBudget(),
	}
}

// NextInterval returns the next retry interval
func (s *LinearBackoffStrategy) NextInterval(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	interval := float64(s.Interval)

	if s.Jitter > 0 {
		jitterRange := interval * s.Jitter
		interval += jitterRange * (2*rand.Float64() - 1)
	}

	if interval < 0 {
		interval = 0
	}

	return time.Duration(interval)
}

// ShouldRetry determines if the error is retryable
func (s *LinearBackoffStrategy) ShouldRetry(err error, attempt int) bool {
	return s.Budget.IsRetryable(err)
}

func (s *LinearBackoffStrategy) budget() RetryBudget { return s.Budget }

// ConstantBackoffStrategy implements constant interval retries with no
// randomization.
type ConstantBackoffStrategy struct {
	// Interval is the fixed interval between retries.
	Interval time.Duration

	// Budget limits retry attempts.
	Budget RetryBudget
}

// DefaultConstantBackoff returns a constant backoff strategy with
// sensible defaults: 500ms between retries, default budget.
func DefaultConstantBackoff() *ConstantBackoffStrategy {
	return &ConstantBackoffStrategy{
		Interval: 500 * time.Millisecond,
		Budget:   DefaultRetryBudget(),
	}
}

// NextInterval returns the next retry interval
func (s *ConstantBackoffStrategy) NextInterval(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return s.Interval
}

// ShouldRetry determines if the error is retryable
func (s *ConstantBackoffStrategy) ShouldRetry(err error, attempt int) bool {
	return s.Budget.IsRetryable(err)
}

func (s *ConstantBackoffStrategy) budget() RetryBudget { return s.Budget }

// NoRetryStrategy disables retries entirely.
//
// Example:
//
//	config := sdk.DefaultConfig().
//	    WithRetryStrategy(&sdk.NoRetryStrategy{})
type NoRetryStrategy struct{}

// NextInterval always returns 0
func (s *NoRetryStrategy) NextInterval(attempt int) time.Duration {
	return 0
}

// ShouldRetry always returns false
func (s *NoRetryStrategy) ShouldRetry(err error, attempt int) bool {
	return false
}

// retryExecutor handles retry execution with a given strategy
type retryExecutor struct {
	strategy RetryStrategy
	observer Observer
}

// newRetryExecutor creates a new retry executor
func newRetryExecutor(strategy RetryStrategy, observer Observer) *retryExecutor {
	if strategy == nil {
		strategy = DefaultExponentialBackoff()
	}
	if observer == nil {
		observer = &NoopObserver{}
	}
	return &retryExecutor{strategy: strategy, observer: observer}
}

// Execute runs fn with retry logic. maxRetries is the per-call retry
// attempt limit from the effective configuration; it caps the strategy's
// own budget so a call can tighten (or disable) retries without swapping
// strategies.
func (re *retryExecutor) Execute(ctx context.Context, method, path string, maxRetries int, fn func() error) error {
	var lastErr error
	startTime := time.Now()

	for attempt := 0; ; attempt++ {
		err := fn()

		if err == nil {
			return nil
		}

		lastErr = err

		if attempt >= maxRetries {
			break
		}

		if !re.strategy.ShouldRetry(err, attempt+1) {
			break
		}

		if ctx.Err() != nil {
			return WrapError(ctx.Err(), ErrorTypeTimeout, "context canceled during retry")
		}

		if bs, ok := re.strategy.(budgetedStrategy); ok {
			b := bs.budget()
			if b.IsExhausted(attempt+1, time.Since(startTime)) {
				return lastErr
			}
		}

		interval := re.strategy.NextInterval(attempt + 1)
		if interval < 0 {
			break
		}

		re.observer.OnRetryAttempt(method, path, attempt+1, interval, err)

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return WrapError(ctx.Err(), ErrorTypeTimeout, "context canceled during retry wait")
		case <-timer.C:
		}
	}

	return lastErr
}
