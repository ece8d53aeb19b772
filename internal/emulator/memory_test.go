package emulator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_SetBumpsVersion(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	first, err := store.SetSecret(ctx, "db-password", SetSecretInput{Value: "one"})
	require.NoError(t, err)
	assert.Equal(t, "1", first.Version)
	assert.True(t, first.Attributes.Enabled, "enabled defaults to true")

	second, err := store.SetSecret(ctx, "db-password", SetSecretInput{Value: "two"})
	require.NoError(t, err)
	assert.Equal(t, "2", second.Version)

	latest, err := store.GetSecret(ctx, "db-password", "")
	require.NoError(t, err)
	assert.Equal(t, "two", latest.Value)
	assert.Equal(t, "2", latest.Version)
}

func TestMemoryStore_GetSpecificVersion(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.SetSecret(ctx, "db-password", SetSecretInput{Value: "one"})
	require.NoError(t, err)
	_, err = store.SetSecret(ctx, "db-password", SetSecretInput{Value: "two"})
	require.NoError(t, err)

	record, err := store.GetSecret(ctx, "db-password", "1")
	require.NoError(t, err)
	assert.Equal(t, "one", record.Value)

	_, err = store.GetSecret(ctx, "db-password", "99")
	assert.ErrorIs(t, err, ErrSecretNotFound)
}

func TestMemoryStore_NotFound(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.GetSecret(ctx, "missing", "")
	assert.ErrorIs(t, err, ErrSecretNotFound)

	err = store.DeleteSecret(ctx, "missing")
	assert.ErrorIs(t, err, ErrSecretNotFound)
}

func TestMemoryStore_Delete(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.SetSecret(ctx, "temp", SetSecretInput{Value: "v"})
	require.NoError(t, err)

	require.NoError(t, store.DeleteSecret(ctx, "temp"))

	_, err = store.GetSecret(ctx, "temp", "")
	assert.ErrorIs(t, err, ErrSecretNotFound)
}

func TestMemoryStore_DisabledVersionHidesSecret(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	disabled := false

	_, err := store.SetSecret(ctx, "db-password", SetSecretInput{Value: "one"})
	require.NoError(t, err)
	_, err = store.SetSecret(ctx, "db-password", SetSecretInput{Value: "two", Enabled: &disabled})
	require.NoError(t, err)

	// The latest version is disabled: reads must not silently fall back
	// to the older value.
	_, err = store.GetSecret(ctx, "db-password", "")
	assert.ErrorIs(t, err, ErrSecretDisabled)

	// Fetching the disabled version explicitly still works.
	record, err := store.GetSecret(ctx, "db-password", "2")
	require.NoError(t, err)
	assert.Equal(t, "two", record.Value)
}

func TestMemoryStore_NotBeforeWindow(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	future := time.Now().Add(time.Hour)

	_, err := store.SetSecret(ctx, "rotating-key", SetSecretInput{Value: "v", NotBefore: &future})
	require.NoError(t, err)

	_, err = store.GetSecret(ctx, "rotating-key", "")
	assert.ErrorIs(t, err, ErrSecretDisabled)
}

func TestMemoryStore_ExpiredVersionSkipped(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	past := time.Now().Add(-time.Hour)

	_, err := store.SetSecret(ctx, "db-password", SetSecretInput{Value: "old"})
	require.NoError(t, err)
	_, err = store.SetSecret(ctx, "db-password", SetSecretInput{Value: "expired", ExpiresOn: &past})
	require.NoError(t, err)

	// Expired versions are treated as gone; the previous live version
	// is served.
	record, err := store.GetSecret(ctx, "db-password", "")
	require.NoError(t, err)
	assert.Equal(t, "old", record.Value)

	_, err = store.GetSecret(ctx, "db-password", "2")
	assert.ErrorIs(t, err, ErrSecretNotFound)
}

func TestMemoryStore_List(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for _, name := range []string{"zeta", "alpha", "mid"} {
		_, err := store.SetSecret(ctx, name, SetSecretInput{Value: "v-" + name})
		require.NoError(t, err)
	}

	items, err := store.ListSecrets(ctx, 0)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "alpha", items[0].Name, "list is name-sorted")

	limited, err := store.ListSecrets(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestMemoryStore_PurgeExpired(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	past := time.Now().Add(-time.Hour)

	_, err := store.SetSecret(ctx, "gone", SetSecretInput{Value: "v", ExpiresOn: &past})
	require.NoError(t, err)
	_, err = store.SetSecret(ctx, "kept", SetSecretInput{Value: "v"})
	require.NoError(t, err)
	_, err = store.SetSecret(ctx, "mixed", SetSecretInput{Value: "old", ExpiresOn: &past})
	require.NoError(t, err)
	_, err = store.SetSecret(ctx, "mixed", SetSecretInput{Value: "new"})
	require.NoError(t, err)

	purged, err := store.PurgeExpired(ctx, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, 2, purged)

	// Fully expired secrets disappear; partially expired ones keep
	// their live versions.
	_, err = store.GetSecret(ctx, "gone", "")
	assert.ErrorIs(t, err, ErrSecretNotFound)

	record, err := store.GetSecret(ctx, "mixed", "")
	require.NoError(t, err)
	assert.Equal(t, "new", record.Value)
}

func TestMemoryStore_ReturnedRecordsAreCopies(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.SetSecret(ctx, "tagged", SetSecretInput{
		Value: "v",
		Tags:  map[string]string{"team": "platform"},
	})
	require.NoError(t, err)

	record, err := store.GetSecret(ctx, "tagged", "")
	require.NoError(t, err)
	record.Tags["team"] = "tampered"
	record.Value = "tampered"

	fresh, err := store.GetSecret(ctx, "tagged", "")
	require.NoError(t, err)
	assert.Equal(t, "platform", fresh.Tags["team"])
	assert.Equal(t, "v", fresh.Value)
}
