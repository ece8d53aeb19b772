package integration

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feathervault/feathervault/internal/emulator"
	"github.com/feathervault/feathervault/sdk"
)

const testAPIKey = "integration-test-key"

var vaultEndpoint string

// TestMain boots featherd on a loopback listener so the tests exercise
// the real SDK transport against the real HTTP surface.
func TestMain(m *testing.M) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	store := emulator.NewMemoryStore()
	app := emulator.NewApp(&emulator.Config{
		APIKey:          testAPIKey,
		RequestTimeout:  10 * time.Second,
		ShutdownTimeout: 5 * time.Second,
		MetricsPath:     "/metrics",
	}, store, logrus.NewEntry(logger))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		fmt.Printf("failed to listen: %v\n", err)
		os.Exit(1)
	}
	vaultEndpoint = "http://" + ln.Addr().String()

	go func() {
		if err := app.Listener(ln); err != nil {
			fmt.Printf("server stopped: %v\n", err)
		}
	}()

	code := m.Run()

	_ = app.Shutdown()
	_ = store.Close()
	os.Exit(code)
}

func newVaultClient(t *testing.T) sdk.ExtendedClient {
	t.Helper()

	client, err := sdk.NewExtendedClient(sdk.DefaultConfig().
		WithEndpoint(vaultEndpoint).
		WithCredential(sdk.NewStaticCredential(testAPIKey)).
		WithTimeout(5 * time.Second))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestE2E_Ping(t *testing.T) {
	client := newVaultClient(t)

	require.NoError(t, client.Ping(context.Background()))
}

func TestE2E_SecretLifecycle(t *testing.T) {
	client := newVaultClient(t)
	ctx := context.Background()

	contentType := "text/plain"
	stored, err := client.SetSecret(ctx, "e2e-db-password", "hunter2", &sdk.SetSecretOptions{
		ContentType: &contentType,
		Tags:        map[string]string{"suite": "e2e"},
	})
	require.NoError(t, err)
	assert.Equal(t, "1", stored.Version)

	got, err := client.GetSecret(ctx, "e2e-db-password", nil)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", got.Value)
	assert.Equal(t, "text/plain", got.ContentType)
	assert.Equal(t, "e2e", got.Tags["suite"])

	// Rotate and verify both versions are addressable.
	rotated, err := client.SetSecret(ctx, "e2e-db-password", "correct-horse", nil)
	require.NoError(t, err)
	assert.Equal(t, "2", rotated.Version)

	old, err := client.GetSecretVersion(ctx, "e2e-db-password", "1", nil)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", old.Value)

	latest, err := client.GetSecret(ctx, "e2e-db-password", nil)
	require.NoError(t, err)
	assert.Equal(t, "correct-horse", latest.Value)

	require.NoError(t, client.DeleteSecret(ctx, "e2e-db-password", nil))

	_, err = client.GetSecret(ctx, "e2e-db-password", nil)
	assert.True(t, sdk.IsNotFound(err), "deleted secret should be gone: %v", err)
}

func TestE2E_ListSecrets(t *testing.T) {
	client := newVaultClient(t)
	ctx := context.Background()

	for _, name := range []string{"e2e-list-a", "e2e-list-b"} {
		_, err := client.SetSecret(ctx, name, "v", nil)
		require.NoError(t, err)
	}

	items, err := client.ListSecrets(ctx, nil)
	require.NoError(t, err)

	names := make(map[string]bool, len(items))
	for _, item := range items {
		names[item.Name] = true
	}
	assert.True(t, names["e2e-list-a"])
	assert.True(t, names["e2e-list-b"])
}

func TestE2E_SlashInSecretName(t *testing.T) {
	client := newVaultClient(t)
	ctx := context.Background()

	_, err := client.SetSecret(ctx, "prod/payments/api key", "v", nil)
	require.NoError(t, err)

	got, err := client.GetSecret(ctx, "prod/payments/api key", nil)
	require.NoError(t, err)
	assert.Equal(t, "prod/payments/api key", got.Name)

	// The stored name must round-trip through listing too: a single
	// decode on the server side, no stray percent-encoding.
	items, err := client.ListSecrets(ctx, nil)
	require.NoError(t, err)
	names := make([]string, 0, len(items))
	for _, item := range items {
		names = append(names, item.Name)
	}
	assert.Contains(t, names, "prod/payments/api key")
	for _, name := range names {
		assert.NotContains(t, name, "%2F", "listed name still encoded: %q", name)
		assert.NotContains(t, name, "%25", "listed name double-encoded: %q", name)
	}
}

func TestE2E_StoredNameSurvivesLaterRequests(t *testing.T) {
	client := newVaultClient(t)
	ctx := context.Background()

	// The server must copy the name out of the request buffer; later
	// requests for an equal-length name reuse that buffer and would
	// otherwise rewrite the stored key in place.
	_, err := client.SetSecret(ctx, "orders-signing", "v", nil)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := client.GetSecret(ctx, "zzzzzz-zzzzzzz", nil)
		assert.True(t, sdk.IsNotFound(err), "unexpected error: %v", err)
	}

	got, err := client.GetSecret(ctx, "orders-signing", nil)
	require.NoError(t, err)
	assert.Equal(t, "orders-signing", got.Name)

	items, err := client.ListSecrets(ctx, nil)
	require.NoError(t, err)
	names := make([]string, 0, len(items))
	for _, item := range items {
		names = append(names, item.Name)
	}
	assert.Contains(t, names, "orders-signing")
	assert.NotContains(t, names, "zzzzzz-zzzzzzz")
}

func TestE2E_BadCredentialRejected(t *testing.T) {
	client, err := sdk.NewExtendedClient(sdk.DefaultConfig().
		WithEndpoint(vaultEndpoint).
		WithCredential(sdk.NewStaticCredential("wrong-key")).
		WithRetries(0))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	_, err = client.GetSecret(context.Background(), "anything", nil)
	require.Error(t, err)
	assert.False(t, sdk.IsNotFound(err), "auth failure must not read as not-found")
}

func TestE2E_PerCallOverrides(t *testing.T) {
	client := newVaultClient(t)
	ctx := context.Background()

	requestID := "e2e-fixed-request-id"
	timeout := 2 * time.Second
	_, err := client.SetSecret(ctx, "e2e-override", "v", &sdk.SetSecretOptions{
		CallOptions: sdk.CallOptions{
			Timeout:   &timeout,
			RequestID: &requestID,
			Headers:   map[string]string{"X-Caller": "integration"},
		},
	})
	require.NoError(t, err)
}

func TestE2E_ConcurrentWriters(t *testing.T) {
	client := newVaultClient(t)
	ctx := context.Background()

	const writers = 8
	var wg sync.WaitGroup
	errs := make(chan error, writers)

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := client.SetSecret(ctx, "e2e-contended", fmt.Sprintf("writer-%d", i), nil)
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	// Every write got a distinct version; the counter must equal the
	// number of writers.
	got, err := client.GetSecret(ctx, "e2e-contended", nil)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprint(writers), got.Version)
}

func TestE2E_TypedClient(t *testing.T) {
	type endpointConfig struct {
		URL     string `json:"url"`
		APIKey  string `json:"api_key"`
		Retries int    `json:"retries"`
	}

	client := newVaultClient(t)
	typed := sdk.NewTypedClient[endpointConfig](client)
	ctx := context.Background()

	want := endpointConfig{URL: "https://api.internal", APIKey: "k", Retries: 3}
	_, err := typed.SetSecret(ctx, "e2e-typed", want, nil)
	require.NoError(t, err)

	got, meta, err := typed.GetSecret(ctx, "e2e-typed", nil)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, "1", meta.Version)
}
