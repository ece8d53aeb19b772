package emulator

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"
)

// MemoryStore is the default in-process secret store. Versions are held
// per secret name in insertion order; version identifiers are a
// monotonically increasing counter per secret rendered as a string.
type MemoryStore struct {
	mu      sync.RWMutex
	secrets map[string]*memorySecret
}

type memorySecret struct {
	nextVersion int
	versions    []*SecretRecord
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{secrets: make(map[string]*memorySecret)}
}

// SetSecret stores a new version of the named secret.
func (s *MemoryStore) SetSecret(_ context.Context, name string, input SetSecretInput) (*SecretRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sec, ok := s.secrets[name]
	if !ok {
		sec = &memorySecret{nextVersion: 1}
		s.secrets[name] = sec
	}

	now := time.Now().UTC()
	enabled := true
	if input.Enabled != nil {
		enabled = *input.Enabled
	}

	record := &SecretRecord{
		Name:        name,
		Value:       input.Value,
		Version:     strconv.Itoa(sec.nextVersion),
		ContentType: input.ContentType,
		Tags:        copyTags(input.Tags),
		Attributes: SecretAttributes{
			Enabled:   enabled,
			NotBefore: input.NotBefore,
			ExpiresOn: input.ExpiresOn,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
	sec.nextVersion++
	sec.versions = append(sec.versions, record)

	return cloneRecord(record), nil
}

// GetSecret returns the named secret, latest usable version by default.
func (s *MemoryStore) GetSecret(_ context.Context, name, version string) (*SecretRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sec, ok := s.secrets[name]
	if !ok {
		return nil, ErrSecretNotFound
	}

	now := time.Now().UTC()

	if version != "" {
		for _, record := range sec.versions {
			if record.Version == version {
				if record.Expired(now) {
					return nil, ErrSecretNotFound
				}
				return cloneRecord(record), nil
			}
		}
		return nil, ErrSecretNotFound
	}

	// Latest usable version wins; a latest-but-disabled version hides
	// the secret rather than falling back silently to older material.
	for i := len(sec.versions) - 1; i >= 0; i-- {
		record := sec.versions[i]
		if record.Expired(now) {
			continue
		}
		if !record.Usable(now) {
			return nil, ErrSecretDisabled
		}
		return cloneRecord(record), nil
	}

	return nil, ErrSecretNotFound
}

// DeleteSecret removes the named secret and all versions.
func (s *MemoryStore) DeleteSecret(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.secrets[name]; !ok {
		return ErrSecretNotFound
	}
	delete(s.secrets, name)
	return nil
}

// ListSecrets returns the latest version of each secret, name-sorted.
func (s *MemoryStore) ListSecrets(_ context.Context, max int) ([]*SecretRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.secrets))
	for name := range s.secrets {
		names = append(names, name)
	}
	sort.Strings(names)

	items := make([]*SecretRecord, 0, len(names))
	for _, name := range names {
		if max > 0 && len(items) >= max {
			break
		}
		sec := s.secrets[name]
		if len(sec.versions) == 0 {
			continue
		}
		items = append(items, cloneRecord(sec.versions[len(sec.versions)-1]))
	}

	return items, nil
}

// PurgeExpired removes expired versions and empty secrets.
func (s *MemoryStore) PurgeExpired(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	purged := 0
	for name, sec := range s.secrets {
		kept := sec.versions[:0]
		for _, record := range sec.versions {
			if record.Expired(now) {
				purged++
				continue
			}
			kept = append(kept, record)
		}
		sec.versions = kept
		if len(sec.versions) == 0 {
			delete(s.secrets, name)
		}
	}

	return purged, nil
}

// Ping always succeeds for the in-memory store.
func (s *MemoryStore) Ping(_ context.Context) error { return nil }

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error { return nil }

func copyTags(tags map[string]string) map[string]string {
	if tags == nil {
		return nil
	}
	dup := make(map[string]string, len(tags))
	for k, v := range tags {
		dup[k] = v
	}
	return dup
}

func cloneRecord(record *SecretRecord) *SecretRecord {
	dup := *record
	dup.Tags = copyTags(record.Tags)
	return &dup
}
