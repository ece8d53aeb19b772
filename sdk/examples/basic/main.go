package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/feathervault/feathervault/sdk"
)

func main() {
	// Create an extended client with default configuration
	config := sdk.DefaultConfig().
		WithEndpoint("http://localhost:8420").
		WithCredential(sdk.NewStaticCredential(os.Getenv("FEATHERVAULT_API_KEY"))).
		WithTimeout(10 * time.Second).
		WithRetries(3)

	client, err := sdk.NewExtendedClient(config)
	if err != nil {
		log.Fatalf("Failed to create client: %v", err)
	}
	defer client.Close()

	ctx := context.Background()

	// Test connectivity
	fmt.Println("Testing connectivity...")
	if err := client.Ping(ctx); err != nil {
		log.Printf("Warning: vault ping failed: %v", err)
		log.Println("Make sure featherd is running on http://localhost:8420")
	} else {
		fmt.Println("✓ Successfully connected to FeatherVault")
	}

	// Example 1: Store a simple secret
	fmt.Println("\n1. Storing a secret...")
	secret, err := client.SetSecret(ctx, "db-password", "hunter2", nil)
	if err != nil {
		log.Fatalf("Failed to store secret: %v", err)
	}
	fmt.Printf("✓ Stored db-password at version %s\n", secret.Version)

	// Example 2: Store with metadata
	fmt.Println("\n2. Storing a secret with metadata...")
	contentType := "text/plain"
	secret, err = client.SetSecret(ctx, "stripe-api-key", "sk_test_abc123", &sdk.SetSecretOptions{
		ContentType: &contentType,
		Tags: map[string]string{
			"env":  "staging",
			"team": "payments",
		},
	})
	if err != nil {
		log.Fatalf("Failed to store secret: %v", err)
	}
	fmt.Printf("✓ Stored stripe-api-key at version %s\n", secret.Version)

	// Example 3: Retrieve the latest version
	fmt.Println("\n3. Retrieving a secret...")
	secret, err = client.GetSecret(ctx, "db-password", nil)
	if err != nil {
		log.Fatalf("Failed to retrieve secret: %v", err)
	}
	fmt.Printf("✓ db-password = %q (version %s)\n", secret.Value, secret.Version)

	// Example 4: Per-call configuration overrides
	fmt.Println("\n4. Using per-call overrides...")
	shortTimeout := 2 * time.Second
	noRetries := 0
	secret, err = client.GetSecret(ctx, "db-password", &sdk.GetSecretOptions{
		CallOptions: sdk.CallOptions{
			Timeout:    &shortTimeout,
			MaxRetries: &noRetries,
		},
	})
	if err != nil {
		log.Fatalf("Failed to retrieve secret: %v", err)
	}
	fmt.Printf("✓ Retrieved with a 2s timeout and no retries: version %s\n", secret.Version)

	// Example 5: List secrets (metadata only, no values)
	fmt.Println("\n5. Listing secrets...")
	items, err := client.ListSecrets(ctx, nil)
	if err != nil {
		log.Fatalf("Failed to list secrets: %v", err)
	}
	for _, item := range items {
		fmt.Printf("  - %s (version %s, tags %v)\n", item.Name, item.Version, item.Tags)
	}

	// Example 6: Handle a missing secret
	fmt.Println("\n6. Handling a missing secret...")
	_, err = client.GetSecret(ctx, "does-not-exist", nil)
	if sdk.IsNotFound(err) {
		fmt.Println("✓ Got the expected not-found error")
	} else if err != nil {
		log.Fatalf("Unexpected error: %v", err)
	}

	// Example 7: Delete a secret
	fmt.Println("\n7. Deleting a secret...")
	if err := client.DeleteSecret(ctx, "db-password", nil); err != nil {
		log.Fatalf("Failed to delete secret: %v", err)
	}
	fmt.Println("✓ Deleted db-password")

	fmt.Println("\nDone!")
}
