package sdk

import (
	"context"
	"time"
)

// Default values applied when neither the client configuration nor a
// per-call override sets an optional field. These are documented built-in
// defaults, distinct from "unset".
const (
	// DefaultAPIVersion is the FeatherVault API version requested when
	// none is configured.
	DefaultAPIVersion = "2026-08-01"

	// DefaultTimeout is the per-request timeout applied when none is
	// configured on the client or the call.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxRetries is the retry attempt limit applied when none is
	// configured on the client or the call.
	DefaultMaxRetries = 3
)

// Credential supplies the bearer token attached to every request.
// Implementations must be safe for concurrent use; the token is fetched
// per attempt so short-lived tokens can rotate under a live client.
type Credential interface {
	// Token returns the bearer token to authenticate with.
	Token(ctx context.Context) (string, error)
}

// StaticCredential is a Credential backed by a fixed token. Suitable for
// API keys and for tests; production deployments typically plug in a
// credential that refreshes itself.
type StaticCredential struct {
	token string
}

// NewStaticCredential creates a credential that always returns token.
func NewStaticCredential(token string) *StaticCredential {
	return &StaticCredential{token: token}
}

// Token returns the fixed token
func (c *StaticCredential) Token(_ context.Context) (string, error) {
	return c.token, nil
}

// Config holds the client-level configuration for a FeatherVault client.
// Endpoint and Credential are required; everything else is optional and
// has documented defaults.
//
// Configuration is built with the fluent builder pattern:
//
//	config := sdk.DefaultConfig().
//	    WithEndpoint("https://vault.example.com").
//	    WithCredential(sdk.NewStaticCredential(os.Getenv("FEATHERVAULT_TOKEN"))).
//	    WithTimeout(10 * time.Second).
//	    WithRetries(5)
//
//	client, err := sdk.NewClient(config)
//
// NewClient validates the configuration and takes a private copy of it.
// After construction the client's configuration never changes: mutating
// the Config a client was built from has no effect on that client, and
// the snapshot is read concurrently by in-flight calls without locking.
// Per-call adjustments are made with CallOptions, not by mutating Config.
type Config struct {
	// Endpoint is the base URL of the FeatherVault API. Required.
	// Example: "https://vault.example.com"
	Endpoint string

	// Credential authenticates every request. Required.
	Credential Credential

	// APIVersion selects the API version, sent as the api-version query
	// parameter on every request. Fixed at construction; it cannot be
	// overridden per call.
	// Default: DefaultAPIVersion
	APIVersion string

	// Timeout is the per-request timeout, including connection time and
	// reading the response body. Overridable per call.
	// Default: DefaultTimeout
	Timeout time.Duration

	// RetryConfig holds retry-related settings for failed requests.
	RetryConfig RetryConfig

	// TransportConfig holds HTTP connection pool settings.
	TransportConfig TransportConfig

	// Headers are custom headers included in all requests.
	// Reserved headers (Authorization) are managed by the client and
	// rejected here and in per-call overrides.
	Headers map[string]string

	// CircuitBreakerConfig enables circuit breaking when non-nil.
	CircuitBreakerConfig *CircuitBreakerConfig

	// RetryStrategy overrides the default exponential backoff strategy.
	RetryStrategy RetryStrategy

	// Observer receives hooks for requests, retries and circuit breaker
	// state changes. If nil, NoopObserver is used.
	Observer Observer

	// EnablePerEndpointCircuitBreaker gives each API route its own
	// circuit breaker state instead of one shared breaker.
	EnablePerEndpointCircuitBreaker bool
}

// RetryConfig holds retry-related configuration for automatic request
// retries. The SDK uses exponential backoff with jitter by default.
type RetryConfig struct {
	// MaxRetries is the maximum number of retry attempts.
	// Set to 0 to disable retries. Overridable per call.
	// Default: DefaultMaxRetries
	MaxRetries int

	// InitialInterval is the initial retry interval.
	// Default: 100ms
	InitialInterval time.Duration

	// MaxInterval caps the retry interval.
	// Default: 5s
	MaxInterval time.Duration

	// Multiplier is the exponential backoff multiplier.
	// Default: 2.0
	Multiplier float64
}

// TransportConfig holds HTTP transport configuration for connection pooling.
type TransportConfig struct {
	// MaxIdleConns controls the maximum number of idle connections
	// across all hosts. Zero means no limit.
	// Default: 100
	MaxIdleConns int

	// MaxConnsPerHost controls the maximum connections per host.
	// Default: 10
	MaxConnsPerHost int

	// IdleConnTimeout is the maximum time an idle connection stays open.
	// Default: 90s
	IdleConnTimeout time.Duration
}

// DefaultConfig returns a Config with defaults filled in. Endpoint and
// Credential still have to be supplied before the config is usable.
//
// Example:
//
//	config := sdk.DefaultConfig().
//	    WithEndpoint("https://vault.example.com").
//	    WithCredential(cred)
func DefaultConfig() *Config {
	return &Config{
		APIVersion: DefaultAPIVersion,
		Timeout:    DefaultTimeout,
		RetryConfig: RetryConfig{
			MaxRetries:      DefaultMaxRetries,
			InitialInterval: 100 * time.Millisecond,
			MaxInterval:     5 * time.Second,
			Multiplier:      2.0,
		},
		TransportConfig: TransportConfig{
			MaxIdleConns:    100,
			MaxConnsPerHost: 10,
			IdleConnTimeout: 90 * time.Second,
		},
		Headers:  make(map[string]string),
		Observer: &NoopObserver{},
	}
}

// WithEndpoint sets the base URL of the FeatherVault API.
// The URL should include the protocol (http/https) but no trailing slash.
func (c *Config) WithEndpoint(endpoint string) *Config {
	c.Endpoint = endpoint
	return c
}

// WithCredential sets the credential used to authenticate requests.
func (c *Config) WithCredential(cred Credential) *Config {
	c.Credential = cred
	return c
}

// WithAPIVersion pins the API version for all requests from this client.
func (c *Config) WithAPIVersion(version string) *Config {
	c.APIVersion = version
	return c
}

// WithTimeout sets the request timeout for all operations.
func (c *Config) WithTimeout(timeout time.Duration) *Config {
	c.Timeout = timeout
	return c
}

// WithRetries sets the maximum number of retry attempts for failed
// requests. Set to 0 to disable automatic retries.
func (c *Config) WithRetries(maxRetries int) *Config {
	c.RetryConfig.MaxRetries = maxRetries
	return c
}

// WithHeader adds a custom header to be sent with all requests.
//
// Example:
//
//	config := sdk.DefaultConfig().
//	    WithHeader("X-Tenant-ID", "tenant-123")
func (c *Config) WithHeader(key, value string) *Config {
	if c.Headers == nil {
		c.Headers = make(map[string]string)
	}
	c.Headers[key] = value
	return c
}

// WithCircuitBreaker enables and configures circuit breaker protection.
func (c *Config) WithCircuitBreaker(config CircuitBreakerConfig) *Config {
	c.CircuitBreakerConfig = &config
	return c
}

// WithRetryStrategy sets a custom retry strategy for determining retry
// delays. By default, exponential backoff with jitter is used.
func (c *Config) WithRetryStrategy(strategy RetryStrategy) *Config {
	c.RetryStrategy = strategy
	return c
}

// WithObserver sets an observer for monitoring SDK operations.
//
// Example:
//
//	config := sdk.DefaultConfig().
//	    WithObserver(sdk.NewLogObserver(logrus.StandardLogger()))
func (c *Config) WithObserver(observer Observer) *Config {
	c.Observer = observer
	return c
}

// WithPerEndpointCircuitBreaker enables per-endpoint circuit breakers.
func (c *Config) WithPerEndpointCircuitBreaker() *Config {
	c.EnablePerEndpointCircuitBreaker = true
	return c
}

// Validate checks the required fields and fills defaults for missing
// optional values. Called automatically by NewClient.
//
// Returns a *ValidationError if a required field (Endpoint, Credential)
// is missing or a reserved header is configured.
func (c *Config) Validate() error {
	if c.Endpoint == "" {
		return newValidationError("Endpoint", "required field is not set")
	}
	if c.Credential == nil {
		return newValidationError("Credential", "required field is not set")
	}
	for key := range c.Headers {
		if isReservedHeader(key) {
			return newValidationError("Headers", "header "+key+" is managed by the client and cannot be set")
		}
	}
	if c.APIVersion == "" {
		c.APIVersion = DefaultAPIVersion
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.RetryConfig.MaxRetries < 0 {
		c.RetryConfig.MaxRetries = 0
	}
	if c.RetryConfig.InitialInterval <= 0 {
		c.RetryConfig.InitialInterval = 100 * time.Millisecond
	}
	if c.RetryConfig.MaxInterval <= 0 {
		c.RetryConfig.MaxInterval = 5 * time.Second
	}
	if c.RetryConfig.Multiplier <= 1 {
		c.RetryConfig.Multiplier = 2.0
	}
	if c.Observer == nil {
		c.Observer = &NoopObserver{}
	}
	if c.CircuitBreakerConfig != nil {
		if c.CircuitBreakerConfig.FailureThreshold <= 0 {
			c.CircuitBreakerConfig.FailureThreshold = 5
		}
		if c.CircuitBreakerConfig.SuccessThreshold <= 0 {
			c.CircuitBreakerConfig.SuccessThreshold = 2
		}
		if c.CircuitBreakerConfig.Timeout <= 0 {
			c.CircuitBreakerConfig.Timeout = 30 * time.Second
		}
		if c.CircuitBreakerConfig.HalfOpenRequests <= 0 {
			c.CircuitBreakerConfig.HalfOpenRequests = 3
		}
	}
	return nil
}

// clone returns a deep copy of the configuration. NewClient clones the
// caller's Config so the client's view of it can never change after
// construction.
func (c *Config) clone() *Config {
	dup := *c
	dup.Headers = make(map[string]string, len(c.Headers))
	for k, v := range c.Headers {
		dup.Headers[k] = v
	}
	if c.CircuitBreakerConfig != nil {
		cbc := *c.CircuitBreakerConfig
		dup.CircuitBreakerConfig = &cbc
	}
	return &dup
}
