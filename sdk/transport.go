package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// userAgent identifies the SDK on the wire.
const userAgent = "feathervault-go-sdk/1.0.0"

// httpTransport handles HTTP communication with the FeatherVault API.
// It owns the connection pool, circuit breakers and retry executor — the
// pieces that are fixed for the lifetime of a client — while everything
// that can vary between calls arrives as an *EffectiveConfig produced by
// configuration resolution.
type httpTransport struct {
	// client is the underlying HTTP client. It carries no Timeout of
	// its own; the per-call timeout from the effective configuration is
	// applied through the request context.
	client *http.Client
	// config is the client's frozen configuration snapshot
	config *Config
	// endpoint is the parsed base URL for the API
	endpoint *url.URL
	// circuitBreaker provides fault tolerance
	circuitBreaker CircuitBreaker
	// perRouteCircuitBreaker provides per-route circuit breaking
	perRouteCircuitBreaker *perRouteCircuitBreaker
	// retryExecutor handles retry logic
	retryExecutor *retryExecutor
	// observer for monitoring operations
	observer Observer
}

// newHTTPTransport creates the transport for a validated configuration
// snapshot.
func newHTTPTransport(config *Config) (*httpTransport, error) {
	endpoint, err := url.Parse(config.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint URL: %w", err)
	}
	if endpoint.Scheme == "" || endpoint.Host == "" {
		return nil, newValidationError("Endpoint", "must have a scheme and host")
	}

	pool := &http.Transport{
		MaxIdleConns:        config.TransportConfig.MaxIdleConns,
		MaxConnsPerHost:     config.TransportConfig.MaxConnsPerHost,
		IdleConnTimeout:     config.TransportConfig.IdleConnTimeout,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	var circuitBreaker CircuitBreaker
	var perRouteCB *perRouteCircuitBreaker
	if config.CircuitBreakerConfig != nil {
		if config.EnablePerEndpointCircuitBreaker {
			perRouteCB = newPerRouteCircuitBreaker(*config.CircuitBreakerConfig)
			circuitBreaker = NewNoopCircuitBreaker()
		} else {
			cb := NewCircuitBreaker(*config.CircuitBreakerConfig)
			circuitBreaker = newObservedCircuitBreaker(cb, "default", config.Observer)
		}
	} else {
		circuitBreaker = NewNoopCircuitBreaker()
	}

	retryStrategy := config.RetryStrategy
	if retryStrategy == nil {
		retryStrategy = &ExponentialBackoffStrategy{
			InitialInterval: config.RetryConfig.InitialInterval,
			MaxInterval:     config.RetryConfig.MaxInterval,
			Multiplier:      config.RetryConfig.Multiplier,
			Jitter:          0.3,
			// Attempt counting is governed by the per-call retry limit
			// from the effective configuration, not the strategy budget.
			Budget: RetryBudget{
				MaxAttempts: 0,
				MaxDuration: 0,
			},
		}
	}

	return &httpTransport{
		client:                 &http.Client{Transport: pool},
		config:                 config,
		endpoint:               endpoint,
		circuitBreaker:         circuitBreaker,
		perRouteCircuitBreaker: perRouteCB,
		retryExecutor:          newRetryExecutor(retryStrategy, config.Observer),
		observer:               config.Observer,
	}, nil
}

// do executes an HTTP request under the given effective configuration,
// wrapping it in circuit breaking and retry logic. The effective
// configuration's timeout bounds the whole call including retries.
func (t *httpTransport) do(ctx context.Context, eff *EffectiveConfig, method, path string, query url.Values, body, result interface{}) error {
	t.observer.OnRequestStart(method, path)

	if eff.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, eff.Timeout)
		defer cancel()
	}

	start := time.Now()
	route := method + " " + path

	executeFn := func() error {
		return t.retryExecutor.Execute(ctx, method, path, eff.MaxRetries, func() error {
			return t.performHTTPRequest(ctx, eff, method, path, query, body, result)
		})
	}

	var finalErr error
	if t.perRouteCircuitBreaker != nil {
		finalErr = t.perRouteCircuitBreaker.Execute(route, executeFn)
	} else {
		finalErr = t.circuitBreaker.Execute(executeFn)
	}

	t.observer.OnRequestEnd(method, path, time.Since(start), finalErr)

	return finalErr
}

// performHTTPRequest performs a single HTTP request attempt.
func (t *httpTransport) performHTTPRequest(ctx context.Context, eff *EffectiveConfig, method, path string, query url.Values, body, result interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	// path arrives percent-encoded from buildPath; give the URL both
	// forms so String() emits it verbatim instead of escaping the '%'s
	// a second time.
	ref := &url.URL{Path: path}
	if decoded, err := url.PathUnescape(path); err == nil {
		ref.Path = decoded
		ref.RawPath = path
	}
	fullURL := t.endpoint.ResolveReference(ref)
	q := fullURL.Query()
	q.Set("api-version", eff.APIVersion)
	for key, values := range query {
		for _, v := range values {
			q.Add(key, v)
		}
	}
	fullURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, method, fullURL.String(), bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	// Merged headers from resolution; reserved headers were rejected there.
	for key, value := range eff.Headers {
		req.Header.Set(key, value)
	}

	requestID := eff.RequestID
	if requestID == "" {
		requestID = uuid.NewString()
	}
	req.Header.Set("X-Request-ID", requestID)

	// The credential is consulted per attempt so rotating tokens stay fresh.
	token, err := t.config.Credential.Token(ctx)
	if err != nil {
		return NewError(ErrorTypeValidation, "failed to obtain credential token", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := t.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			timeoutErr := &TimeoutError{Op: method + " " + path}
			return timeoutErr.ToError()
		}
		netErr := &NetworkError{Op: method + " " + path, Err: err}
		return netErr.ToError()
	}

	respBody, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		netErr := &NetworkError{Op: "reading response", Err: err}
		return netErr.ToError()
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if result != nil && len(respBody) > 0 {
			if err := json.Unmarshal(respBody, result); err != nil {
				return WrapError(err, ErrorTypeUnknown, "failed to parse response")
			}
		}
		return nil
	}

	apiErr := parseAPIError(resp.StatusCode, respBody)
	enhancedErr := apiErr.ToError()
	enhancedErr.WithContext(&ErrorContext{
		URL:    fullURL.String(),
		Method: method,
	})
	if reqID := resp.Header.Get("X-Request-ID"); reqID != "" {
		enhancedErr.RequestID = reqID
	}
	return enhancedErr
}

// parseAPIError builds an APIError from an error response body, falling
// back to the HTTP status text when the body isn't the expected JSON.
func parseAPIError(statusCode int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: statusCode}
	if len(body) > 0 {
		if err := json.Unmarshal(body, apiErr); err == nil && apiErr.Message != "" {
			return apiErr
		}
	}
	apiErr.Message = http.StatusText(statusCode)
	return apiErr
}

// get performs a GET request
func (t *httpTransport) get(ctx context.Context, eff *EffectiveConfig, path string, query url.Values, result interface{}) error {
	return t.do(ctx, eff, http.MethodGet, path, query, nil, result)
}

// put performs a PUT request
func (t *httpTransport) put(ctx context.Context, eff *EffectiveConfig, path string, body, result interface{}) error {
	return t.do(ctx, eff, http.MethodPut, path, nil, body, result)
}

// delete performs a DELETE request
func (t *httpTransport) delete(ctx context.Context, eff *EffectiveConfig, path string) error {
	return t.do(ctx, eff, http.MethodDelete, path, nil, nil, nil)
}

// close closes the transport
func (t *httpTransport) close() error {
	t.client.CloseIdleConnections()
	return nil
}

// buildPath builds a URL path with proper escaping for path parameters.
// It replaces placeholders like {0}, {1}, etc. with the provided
// arguments. Secret names may contain URL-unsafe characters, so values
// are query-escaped with '+' rewritten to '%20' (a '+' is only a space
// inside query strings, not paths).
//
// Example:
//
//	path := buildPath("/v1/secrets/{0}", "prod/db password")
//	// Result: "/v1/secrets/prod%2Fdb%20password"
func buildPath(pattern string, args ...string) string {
	path := pattern
	for i, arg := range args {
		placeholder := fmt.Sprintf("{%d}", i)
		escaped := url.QueryEscape(arg)
		escaped = strings.Replace(escaped, "+", "%20", -1)
		path = strings.Replace(path, placeholder, escaped, 1)
	}
	return path
}
