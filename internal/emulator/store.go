package emulator

import (
	"context"
	"errors"
	"time"
)

// Store errors.
var (
	// ErrSecretNotFound is returned when a secret or version does not
	// exist in the store.
	ErrSecretNotFound = errors.New("secret not found")

	// ErrSecretDisabled is returned when the requested version exists
	// but is disabled or outside its validity window.
	ErrSecretDisabled = errors.New("secret is disabled")
)

// SecretAttributes carries the lifecycle metadata of a stored version.
type SecretAttributes struct {
	Enabled   bool       `json:"enabled"`
	NotBefore *time.Time `json:"not_before,omitempty"`
	ExpiresOn *time.Time `json:"expires_on,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// SecretRecord is one stored secret version.
type SecretRecord struct {
	Name        string            `json:"name"`
	Value       string            `json:"value"`
	Version     string            `json:"version"`
	ContentType string            `json:"content_type,omitempty"`
	Tags        map[string]string `json:"tags,omitempty"`
	Attributes  SecretAttributes  `json:"attributes"`
}

// SetSecretInput is the payload for storing a new secret version.
// Optional fields left nil take server-side defaults.
type SetSecretInput struct {
	Value       string
	ContentType string
	Tags        map[string]string
	Enabled     *bool
	NotBefore   *time.Time
	ExpiresOn   *time.Time
}

// Usable reports whether the version may be served at time now.
func (r *SecretRecord) Usable(now time.Time) bool {
	if !r.Attributes.Enabled {
		return false
	}
	if r.Attributes.NotBefore != nil && now.Before(*r.Attributes.NotBefore) {
		return false
	}
	if r.Attributes.ExpiresOn != nil && !now.Before(*r.Attributes.ExpiresOn) {
		return false
	}
	return true
}

// Expired reports whether the version's expiry has passed at time now.
func (r *SecretRecord) Expired(now time.Time) bool {
	return r.Attributes.ExpiresOn != nil && !now.Before(*r.Attributes.ExpiresOn)
}

// Store is the secret store backend behind the emulator's HTTP surface.
// Implementations must be safe for concurrent use.
type Store interface {
	// SetSecret stores input as a new version of the named secret and
	// returns the stored record with its assigned version.
	SetSecret(ctx context.Context, name string, input SetSecretInput) (*SecretRecord, error)

	// GetSecret returns the named secret. An empty version selects the
	// latest usable version; a concrete version is returned regardless
	// of enablement unless it is expired.
	GetSecret(ctx context.Context, name, version string) (*SecretRecord, error)

	// DeleteSecret removes the named secret and all its versions.
	// Returns ErrSecretNotFound if the secret does not exist.
	DeleteSecret(ctx context.Context, name string) error

	// ListSecrets returns the latest version of each secret, without a
	// guaranteed order beyond name-sorted. max <= 0 means no limit.
	ListSecrets(ctx context.Context, max int) ([]*SecretRecord, error)

	// PurgeExpired removes versions whose expiry has passed, returning
	// the number of versions removed. Secrets left with no versions are
	// removed entirely.
	PurgeExpired(ctx context.Context, now time.Time) (int, error)

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}
