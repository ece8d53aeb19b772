package sdk

import (
	"encoding/json"
	"fmt"
	"time"
)

// SecretAttributes carries the lifecycle metadata of a secret version.
type SecretAttributes struct {
	// Enabled reports whether this version may be retrieved.
	Enabled bool `json:"enabled"`
	// NotBefore is the earliest time the secret may be used, if set.
	NotBefore *time.Time `json:"not_before,omitempty"`
	// ExpiresOn is the time after which the secret may not be used, if set.
	ExpiresOn *time.Time `json:"expires_on,omitempty"`
	// CreatedAt is when this version was created.
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is when this version was last modified.
	UpdatedAt time.Time `json:"updated_at"`
}

// Secret is a secret version as returned by the FeatherVault API.
type Secret struct {
	// Name is the secret's name, unique within the vault.
	Name string `json:"name"`
	// Value is the secret material.
	Value string `json:"value"`
	// Version identifies this version of the secret.
	Version string `json:"version"`
	// ContentType describes the value, e.g. "text/plain".
	ContentType string `json:"content_type,omitempty"`
	// Tags are free-form labels stored with the secret.
	Tags map[string]string `json:"tags,omitempty"`
	// Attributes carries lifecycle metadata.
	Attributes SecretAttributes `json:"attributes"`
}

// SecretItem is a list entry: a secret's metadata without its value.
type SecretItem struct {
	Name        string            `json:"name"`
	Version     string            `json:"version"`
	ContentType string            `json:"content_type,omitempty"`
	Tags        map[string]string `json:"tags,omitempty"`
	Attributes  SecretAttributes  `json:"attributes"`
}

// setSecretRequest is the request body for set operations.
type setSecretRequest struct {
	Value       string            `json:"value"`
	ContentType string            `json:"content_type,omitempty"`
	Tags        map[string]string `json:"tags,omitempty"`
	Enabled     *bool             `json:"enabled,omitempty"`
	NotBefore   *time.Time        `json:"not_before,omitempty"`
	ExpiresOn   *time.Time        `json:"expires_on,omitempty"`
}

// secretListResponse is the response body for list operations.
type secretListResponse struct {
	Items []SecretItem `json:"items"`
}

// HealthResponse represents the health check response from the vault.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service,omitempty"`
	Version string `json:"version,omitempty"`
	Uptime  string `json:"uptime,omitempty"`
}

// serializeValue encodes a Go value as a JSON secret value for the typed
// client. Strings pass through untouched so plain secrets stay readable
// in other tooling.
func serializeValue(value interface{}) (string, error) {
	if s, ok := value.(string); ok {
		return s, nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return "", NewError(ErrorTypeValidation, fmt.Sprintf("failed to serialize value: %v", err), err)
	}
	return string(data), nil
}

// deserializeValue decodes a secret value into dest. String destinations
// receive the raw value; everything else is JSON-decoded.
func deserializeValue(value string, dest interface{}) error {
	if s, ok := dest.(*string); ok {
		*s = value
		return nil
	}
	if err := json.Unmarshal([]byte(value), dest); err != nil {
		return NewError(ErrorTypeValidation, fmt.Sprintf("failed to deserialize value: %v", err), err)
	}
	return nil
}
