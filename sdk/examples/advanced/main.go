// Command advanced is an interactive demonstration of the SDK under
// concurrent load: a rotator goroutine writes new versions of a secret
// while reader goroutines fetch it, with an observer printing every
// request, retry, and circuit breaker transition as it happens.
package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/feathervault/feathervault/sdk"
)

// Colors for terminal output
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
)

// consoleObserver prints SDK events with colors so retries and breaker
// transitions are easy to spot in the scrollback.
type consoleObserver struct{}

func (consoleObserver) OnRequestStart(method, path string) {}

func (consoleObserver) OnRequestEnd(method, path string, duration time.Duration, err error) {
	if err != nil {
		fmt.Printf("  %s%s %s failed: %v%s\n", colorRed, method, path, err, colorReset)
		return
	}
	fmt.Printf("  %s%s %s ok%s (%v)\n", colorGreen, method, path, colorReset, duration.Round(time.Millisecond))
}

func (consoleObserver) OnRetryAttempt(method, path string, attempt int, delay time.Duration, err error) {
	fmt.Printf("  %sretry #%d for %s %s after %v: %v%s\n", colorYellow, attempt, method, path, delay.Round(time.Millisecond), err, colorReset)
}

func (consoleObserver) OnCircuitBreakerStateChange(route string, oldState, newState sdk.CircuitState) {
	fmt.Printf("  %scircuit %s: %s -> %s%s\n", colorCyan, route, oldState, newState, colorReset)
}

func main() {
	fmt.Printf("%sFeatherVault SDK demo%s\n", colorBold, colorReset)
	fmt.Println("Rotating a secret while readers fetch it concurrently.")
	fmt.Println("Stop and restart featherd to watch the resilience machinery.")
	fmt.Println()

	config := sdk.DefaultConfig().
		WithEndpoint("http://localhost:8420").
		WithCredential(sdk.NewStaticCredential(os.Getenv("FEATHERVAULT_API_KEY"))).
		WithRetryStrategy(sdk.DefaultExponentialBackoff()).
		WithCircuitBreaker(sdk.DefaultCircuitBreakerConfig()).
		WithObserver(consoleObserver{})

	client, err := sdk.NewExtendedClient(config)
	if err != nil {
		fmt.Printf("%sfailed to create client: %v%s\n", colorRed, err, colorReset)
		os.Exit(1)
	}
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		fmt.Printf("\n%sshutting down...%s\n", colorBold, colorReset)
		cancel()
	}()

	var (
		wg        sync.WaitGroup
		reads     atomic.Int64
		readFails atomic.Int64
	)

	// Rotator: writes a new version every few seconds.
	wg.Add(1)
	go func() {
		defer wg.Done()
		for rotation := 1; ; rotation++ {
			value := fmt.Sprintf("token-%06d", rand.Intn(1000000))
			secret, err := client.SetSecret(ctx, "session-signing-key", value, nil)
			if err != nil {
				fmt.Printf("%srotation %d failed: %v%s\n", colorRed, rotation, err, colorReset)
			} else {
				fmt.Printf("%srotated session-signing-key to version %s%s\n", colorBlue, secret.Version, colorReset)
			}

			select {
			case <-ctx.Done():
				return
			case <-time.After(3 * time.Second):
			}
		}
	}()

	// Readers: fetch the secret on jittered intervals.
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for {
				_, err := client.GetSecret(ctx, "session-signing-key", nil)
				if err != nil {
					readFails.Add(1)
				} else {
					reads.Add(1)
				}

				select {
				case <-ctx.Done():
					return
				case <-time.After(time.Duration(500+rand.Intn(1000)) * time.Millisecond):
				}
			}
		}(i)
	}

	wg.Wait()

	total := reads.Load() + readFails.Load()
	fmt.Printf("\n%sSummary:%s %d reads, %d failures (%.1f%% success)\n",
		colorBold, colorReset, total, readFails.Load(),
		100*float64(reads.Load())/float64(max(total, 1)))
}
