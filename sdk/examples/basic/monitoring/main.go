// Command monitoring shows how to observe SDK behavior with structured
// logs and Prometheus metrics. It wires a LogObserver and a
// MetricsObserver into the client and exposes the metrics on :9090.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/feathervault/feathervault/sdk"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.DebugLevel)

	registry := prometheus.NewRegistry()

	// Fan out SDK events to logs and metrics.
	observer := sdk.NewCompositeObserver(
		sdk.NewLogObserver(logger),
		sdk.NewMetricsObserver(registry),
	)

	config := sdk.DefaultConfig().
		WithEndpoint("http://localhost:8420").
		WithCredential(sdk.NewStaticCredential(os.Getenv("FEATHERVAULT_API_KEY"))).
		WithObserver(observer)

	client, err := sdk.NewClient(config)
	if err != nil {
		log.Fatalf("Failed to create client: %v", err)
	}
	defer client.Close()

	// Expose the SDK metrics for scraping.
	go func() {
		http.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		fmt.Println("Metrics available at http://localhost:9090/metrics")
		if err := http.ListenAndServe(":9090", nil); err != nil {
			log.Printf("metrics server stopped: %v", err)
		}
	}()

	ctx := context.Background()

	// Generate some traffic so there's something to look at.
	for i := 0; i < 10; i++ {
		name := fmt.Sprintf("demo-secret-%d", i%3)

		if _, err := client.SetSecret(ctx, name, fmt.Sprintf("value-%d", i), nil); err != nil {
			log.Printf("set %s failed: %v", name, err)
			continue
		}
		if _, err := client.GetSecret(ctx, name, nil); err != nil {
			log.Printf("get %s failed: %v", name, err)
		}

		// A read of a missing secret shows up as a failed request.
		_, _ = client.GetSecret(ctx, "no-such-secret", nil)

		time.Sleep(500 * time.Millisecond)
	}

	fmt.Println("Traffic generated. Press Ctrl+C to exit, or scrape the metrics first.")
	select {}
}
