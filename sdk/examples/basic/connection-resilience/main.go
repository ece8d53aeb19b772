// Command connection-resilience demonstrates the SDK's retry strategies
// and circuit breaker against an unreliable vault. Point it at a vault
// you can stop and start to watch the client ride through the outage.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/feathervault/feathervault/sdk"
)

func main() {
	// Exponential backoff with jitter: 100ms, 200ms, 400ms... capped at
	// 5s, up to 5 attempts within 20 seconds.
	retry := &sdk.ExponentialBackoffStrategy{
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     5 * time.Second,
		Multiplier:      2.0,
		Jitter:          0.2,
		Budget: sdk.RetryBudget{
			MaxAttempts: 5,
			MaxDuration: 20 * time.Second,
		},
	}

	config := sdk.DefaultConfig().
		WithEndpoint("http://localhost:8420").
		WithCredential(sdk.NewStaticCredential(os.Getenv("FEATHERVAULT_API_KEY"))).
		WithRetryStrategy(retry).
		WithCircuitBreaker(sdk.CircuitBreakerConfig{
			FailureThreshold: 5,
			SuccessThreshold: 2,
			Timeout:          10 * time.Second,
			HalfOpenRequests: 3,
		})

	client, err := sdk.NewClient(config)
	if err != nil {
		log.Fatalf("Failed to create client: %v", err)
	}
	defer client.Close()

	ctx := context.Background()

	fmt.Println("Polling the vault every second. Stop and restart featherd")
	fmt.Println("to watch retries kick in and the circuit breaker open.")
	fmt.Println()

	if _, err := client.SetSecret(ctx, "heartbeat", "alive", nil); err != nil {
		log.Printf("initial write failed: %v", err)
	}

	for i := 0; ; i++ {
		start := time.Now()
		_, err := client.GetSecret(ctx, "heartbeat", nil)
		elapsed := time.Since(start).Round(time.Millisecond)

		switch {
		case err == nil:
			fmt.Printf("[%3d] ok in %v\n", i, elapsed)
		case errors.Is(err, sdk.ErrCircuitOpen):
			// The breaker fails fast: no network round trip at all.
			fmt.Printf("[%3d] circuit open, failed fast in %v\n", i, elapsed)
		case sdk.IsRetryable(err):
			fmt.Printf("[%3d] failed after retries in %v: %v\n", i, elapsed, err)
		default:
			fmt.Printf("[%3d] permanent failure in %v: %v\n", i, elapsed, err)
		}

		time.Sleep(time.Second)
	}
}
