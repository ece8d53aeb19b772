package sdk

import (
	"context"
)

// TypedClient provides a type-safe wrapper around the client for secrets
// whose values are structured data. It uses Go generics to JSON-encode
// values on write and decode them on read, eliminating manual
// serialization and type assertions.
//
// Example:
//
//	type DatabaseCredentials struct {
//	    Host     string `json:"host"`
//	    Username string `json:"username"`
//	    Password string `json:"password"`
//	}
//
//	dbClient := sdk.NewTypedClient[DatabaseCredentials](extClient)
//
//	creds := DatabaseCredentials{Host: "db.internal", Username: "app", Password: "hunter2"}
//	_, err := dbClient.SetSecret(ctx, "db-credentials", creds, nil)
//
//	retrieved, _, err := dbClient.GetSecret(ctx, "db-credentials", nil)
//	fmt.Println(retrieved.Host) // already DatabaseCredentials
type TypedClient[T any] struct {
	client ExtendedClient
}

// NewTypedClient creates a typed client wrapper for type T. String
// values pass through unencoded so plain secrets stay readable in other
// tooling; every other type is stored as JSON.
func NewTypedClient[T any](client ExtendedClient) *TypedClient[T] {
	return &TypedClient[T]{client: client}
}

// SetSecret encodes value and stores it as a new version of the named
// secret. Per-call options behave exactly as on Client.SetSecret.
func (tc *TypedClient[T]) SetSecret(ctx context.Context, name string, value T, opts *SetSecretOptions) (*Secret, error) {
	encoded, err := serializeValue(value)
	if err != nil {
		return nil, err
	}
	return tc.client.SetSecret(ctx, name, encoded, opts)
}

// GetSecret retrieves and decodes the named secret. The decoded value is
// returned alongside the raw secret so callers still have access to
// version, tags and attributes.
func (tc *TypedClient[T]) GetSecret(ctx context.Context, name string, opts *GetSecretOptions) (T, *Secret, error) {
	var value T
	secret, err := tc.client.GetSecret(ctx, name, opts)
	if err != nil {
		return value, nil, err
	}
	if err := deserializeValue(secret.Value, &value); err != nil {
		return value, nil, err
	}
	return value, secret, nil
}

// DeleteSecret removes the named secret and all its versions.
func (tc *TypedClient[T]) DeleteSecret(ctx context.Context, name string, opts *DeleteSecretOptions) error {
	return tc.client.DeleteSecret(ctx, name, opts)
}

// SecretExists checks whether the named secret exists.
func (tc *TypedClient[T]) SecretExists(ctx context.Context, name string) (bool, error) {
	return tc.client.SecretExists(ctx, name)
}
