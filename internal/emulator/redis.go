package emulator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "feathervault:secret:"

// redisEnvelope is the JSON document stored per secret name.
type redisEnvelope struct {
	NextVersion int             `json:"next_version"`
	Versions    []*SecretRecord `json:"versions"`
}

// RedisStore is a Redis-backed secret store. Each secret is one JSON
// document keyed by name; writes go through optimistic transactions so
// concurrent version bumps don't lose updates.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{client: client}, nil
}

// SetSecret stores a new version of the named secret.
func (s *RedisStore) SetSecret(ctx context.Context, name string, input SetSecretInput) (*SecretRecord, error) {
	key := redisKeyPrefix + name
	var stored *SecretRecord

	txn := func(tx *redis.Tx) error {
		envelope, err := loadEnvelope(ctx, tx, key)
		if err != nil {
			return err
		}
		if envelope == nil {
			envelope = &redisEnvelope{NextVersion: 1}
		}

		now := time.Now().UTC()
		enabled := true
		if input.Enabled != nil {
			enabled = *input.Enabled
		}

		record := &SecretRecord{
			Name:        name,
			Value:       input.Value,
			Version:     strconv.Itoa(envelope.NextVersion),
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
		envelope.NextVersion++
		envelope.Versions = append(envelope.Versions, record)
		stored = record

		return saveEnvelope(ctx, tx, key, envelope)
	}

	if err := s.client.Watch(ctx, txn, key); err != nil {
		return nil, fmt.Errorf("failed to store secret: %w", err)
	}

	return stored, nil
}

// GetSecret returns the named secret, latest usable version by default.
func (s *RedisStore) GetSecret(ctx context.Context, name, version string) (*SecretRecord, error) {
	envelope, err := s.fetch(ctx, name)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	if version != "" {
		for _, record := range envelope.Versions {
			if record.Version == version {
				if record.Expired(now) {
					return nil, ErrSecretNotFound
				}
				return record, nil
			}
		}
		return nil, ErrSecretNotFound
	}

	for i := len(envelope.Versions) - 1; i >= 0; i-- {
		record := envelope.Versions[i]
		if record.Expired(now) {
			continue
		}
		if !record.Usable(now) {
			return nil, ErrSecretDisabled
		}
		return record, nil
	}

	return nil, ErrSecretNotFound
}

// DeleteSecret removes the named secret and all versions.
func (s *RedisStore) DeleteSecret(ctx context.Context, name string) error {
	deleted, err := s.client.Del(ctx, redisKeyPrefix+name).Result()
	if err != nil {
		return fmt.Errorf("failed to delete secret: %w", err)
	}
	if deleted == 0 {
		return ErrSecretNotFound
	}
	return nil
}

// ListSecrets returns the latest version of each secret, name-sorted.
// SCAN is used instead of KEYS so a large vault doesn't block Redis.
func (s *RedisStore) ListSecrets(ctx context.Context, max int) ([]*SecretRecord, error) {
	var names []string
	iter := s.client.Scan(ctx, 0, redisKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		names = append(names, iter.Val()[len(redisKeyPrefix):])
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan secrets: %w", err)
	}
	sort.Strings(names)

	items := make([]*SecretRecord, 0, len(names))
	for _, name := range names {
		if max > 0 && len(items) >= max {
			break
		}
		envelope, err := s.fetch(ctx, name)
		if err != nil {
			if errors.Is(err, ErrSecretNotFound) {
				continue
			}
			return nil, err
		}
		if len(envelope.Versions) == 0 {
			continue
		}
		items = append(items, envelope.Versions[len(envelope.Versions)-1])
	}

	return items, nil
}

// PurgeExpired removes expired versions and empty secrets.
func (s *RedisStore) PurgeExpired(ctx context.Context, now time.Time) (int, error) {
	var names []string
	iter := s.client.Scan(ctx, 0, redisKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		names = append(names, iter.Val()[len(redisKeyPrefix):])
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("failed to scan secrets: %w", err)
	}

	purged := 0
	for _, name := range names {
		key := redisKeyPrefix + name
		keyPurged := 0
		txn := func(tx *redis.Tx) error {
			// Recomputed from scratch so a transaction retry does not
			// double-count.
			keyPurged = 0
			envelope, err := loadEnvelope(ctx, tx, key)
			if err != nil || envelope == nil {
				return err
			}

			kept := envelope.Versions[:0]
			for _, record := range envelope.Versions {
				if record.Expired(now) {
					keyPurged++
					continue
				}
				kept = append(kept, record)
			}
			envelope.Versions = kept

			if len(envelope.Versions) == 0 {
				_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
					pipe.Del(ctx, key)
					return nil
				})
				return err
			}
			return saveEnvelope(ctx, tx, key, envelope)
		}
		if err := s.client.Watch(ctx, txn, key); err != nil {
			return purged, fmt.Errorf("failed to purge secret %s: %w", name, err)
		}
		purged += keyPurged
	}

	return purged, nil
}

// Ping verifies the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) fetch(ctx context.Context, name string) (*redisEnvelope, error) {
	data, err := s.client.Get(ctx, redisKeyPrefix+name).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSecretNotFound
		}
		return nil, fmt.Errorf("failed to get secret: %w", err)
	}

	var envelope redisEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("corrupt secret document for %s: %w", name, err)
	}
	return &envelope, nil
}

func loadEnvelope(ctx context.Context, tx *redis.Tx, key string) (*redisEnvelope, error) {
	data, err := tx.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var envelope redisEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("corrupt secret document: %w", err)
	}
	return &envelope, nil
}

func saveEnvelope(ctx context.Context, tx *redis.Tx, key string, envelope *redisEnvelope) error {
	data, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, key, data, 0)
		return nil
	})
	return err
}
