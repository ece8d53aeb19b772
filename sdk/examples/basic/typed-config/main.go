// Command typed-config shows the generic TypedClient storing and
// retrieving structured secrets as JSON without manual marshaling.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/feathervault/feathervault/sdk"
)

// DatabaseCredentials is the structured secret this service keeps in
// the vault.
type DatabaseCredentials struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	Database string `json:"database"`
}

func main() {
	config := sdk.DefaultConfig().
		WithEndpoint("http://localhost:8420").
		WithCredential(sdk.NewStaticCredential(os.Getenv("FEATHERVAULT_API_KEY"))).
		WithTimeout(10 * time.Second)

	base, err := sdk.NewExtendedClient(config)
	if err != nil {
		log.Fatalf("Failed to create client: %v", err)
	}
	defer base.Close()

	client := sdk.NewTypedClient[DatabaseCredentials](base)
	ctx := context.Background()

	// Store structured credentials. The client serializes them to JSON
	// and tags the secret with the right content type.
	creds := DatabaseCredentials{
		Host:     "db.internal",
		Port:     5432,
		Username: "app",
		Password: "hunter2",
		Database: "orders",
	}
	secret, err := client.SetSecret(ctx, "orders-db", creds, nil)
	if err != nil {
		log.Fatalf("Failed to store credentials: %v", err)
	}
	fmt.Printf("Stored orders-db at version %s\n", secret.Version)

	// Retrieve them back as the typed struct.
	got, meta, err := client.GetSecret(ctx, "orders-db", nil)
	if err != nil {
		log.Fatalf("Failed to retrieve credentials: %v", err)
	}
	fmt.Printf("Retrieved version %s: %s@%s:%d/%s\n",
		meta.Version, got.Username, got.Host, got.Port, got.Database)

	// Rotate the password: write a new version, old versions remain
	// addressable by version number.
	creds.Password = "correct-horse-battery-staple"
	secret, err = client.SetSecret(ctx, "orders-db", creds, nil)
	if err != nil {
		log.Fatalf("Failed to rotate credentials: %v", err)
	}
	fmt.Printf("Rotated to version %s\n", secret.Version)
}
