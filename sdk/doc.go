// Package sdk provides the Go client library for FeatherVault, a hosted
// secret-store service. It offers a simple, thread-safe way to store and
// retrieve versioned secrets with client-level configuration, per-call
// overrides, automatic retries and circuit breaking.
//
// # Features
//
// The SDK provides:
//   - Immutable client configuration with a fluent builder
//   - Per-call option overrides that never touch client state
//   - Automatic retries with exponential backoff and jitter
//   - Circuit breaker pattern for fault tolerance
//   - Context support for cancellation and timeouts
//   - OpenTelemetry spans for every operation
//   - Pluggable observers for logs (logrus) and metrics (Prometheus)
//   - Type-safe secret access with generics
//
// # Basic Usage
//
// Create a client and work with secrets:
//
//	package main
//
//	import (
//	    "context"
//	    "log"
//	    "os"
//
//	    "github.com/feathervault/feathervault/sdk"
//	)
//
//	func main() {
//	    config := sdk.DefaultConfig().
//	        WithEndpoint("https://vault.example.com").
//	        WithCredential(sdk.NewStaticCredential(os.Getenv("FEATHERVAULT_TOKEN")))
//
//	    client, err := sdk.NewClient(config)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer client.Close()
//
//	    ctx := context.Background()
//
//	    // Store a secret
//	    secret, err := client.SetSecret(ctx, "db-password", "hunter2", nil)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    log.Printf("stored version %s", secret.Version)
//
//	    // Retrieve it
//	    secret, err = client.GetSecret(ctx, "db-password", nil)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	}
//
// # Configuration Model
//
// The SDK distinguishes three layers of configuration:
//
//   - Config is the client-level configuration, built once with the
//     fluent builder and frozen when NewClient copies it. Endpoint and
//     Credential are required; everything else has documented defaults.
//   - CallOptions (embedded in each operation's options struct) is a
//     sparse per-call override. Only fields the caller explicitly sets
//     participate; everything else inherits the client default.
//   - EffectiveConfig is the fully resolved configuration for one
//     request, computed per call by merging the two layers. Resolution
//     never mutates its inputs, so the client snapshot can be shared by
//     any number of concurrent calls without locking.
//
// Per-call overrides win field by field:
//
//	timeout := 2 * time.Second
//	secret, err := client.GetSecret(ctx, "db-password", &sdk.GetSecretOptions{
//	    CallOptions: sdk.CallOptions{Timeout: &timeout},
//	})
//
// Options fixed at construction (endpoint, credential, API version,
// reserved headers) cannot be overridden per call; attempting to do so
// fails with a *ValidationError before any request is sent.
//
// # Error Handling
//
// The SDK provides typed errors and helpers for common checks:
//
//	secret, err := client.GetSecret(ctx, "api-key", nil)
//	if sdk.IsNotFound(err) {
//	    // secret doesn't exist
//	} else if sdk.IsValidation(err) {
//	    // bad configuration or per-call override
//	} else if sdk.IsRetryable(err) {
//	    // transient failure, safe to retry
//	}
//
// # Observability
//
// Observers hook into requests, retries and circuit breaker transitions:
//
//	observer := sdk.NewCompositeObserver(
//	    sdk.NewLogObserver(logrus.StandardLogger()),
//	    sdk.NewMetricsObserver(prometheus.DefaultRegisterer),
//	)
//	config := sdk.DefaultConfig().
//	    WithEndpoint(endpoint).
//	    WithCredential(cred).
//	    WithObserver(observer)
//
// Every operation also opens an OpenTelemetry client span against the
// globally installed tracer provider; without one this is a no-op.
package sdk
