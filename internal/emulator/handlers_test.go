package emulator

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logrus.NewEntry(logger)
}

func testApp(t *testing.T, apiKey string) (*fiber.App, Store) {
	t.Helper()
	store := NewMemoryStore()
	app := NewApp(&Config{
		APIKey:          apiKey,
		RequestTimeout:  5 * time.Second,
		ShutdownTimeout: 5 * time.Second,
		MetricsPath:     "/metrics",
	}, store, testLogger())
	t.Cleanup(func() { _ = store.Close() })
	return app, store
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req)
	require.NoError(t, err)

	var decoded map[string]any
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp, decoded
}

func TestAPI_SetGetRoundTrip(t *testing.T) {
	app, _ := testApp(t, "")

	resp, body := doJSON(t, app, "PUT", "/v1/secrets/db-password", fiber.Map{
		"value":        "hunter2",
		"content_type": "text/plain",
		"tags":         fiber.Map{"env": "test"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "db-password", body["name"])
	assert.Equal(t, "hunter2", body["value"])
	assert.Equal(t, "1", body["version"])
	assert.Equal(t, "text/plain", body["content_type"])

	resp, body = doJSON(t, app, "GET", "/v1/secrets/db-password", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "hunter2", body["value"])

	attrs, ok := body["attributes"].(map[string]any)
	require.True(t, ok, "record carries attributes")
	assert.Equal(t, true, attrs["enabled"])
}

func TestAPI_GetSpecificVersion(t *testing.T) {
	app, _ := testApp(t, "")

	doJSON(t, app, "PUT", "/v1/secrets/db-password", fiber.Map{"value": "one"})
	doJSON(t, app, "PUT", "/v1/secrets/db-password", fiber.Map{"value": "two"})

	resp, body := doJSON(t, app, "GET", "/v1/secrets/db-password?version=1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "one", body["value"])
}

func TestAPI_GetMissingSecret(t *testing.T) {
	app, _ := testApp(t, "")

	resp, body := doJSON(t, app, "GET", "/v1/secrets/missing", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "SECRET_NOT_FOUND", body["code"])
}

func TestAPI_DisabledSecret(t *testing.T) {
	app, store := testApp(t, "")
	disabled := false

	_, err := store.SetSecret(context.Background(), "dark", SetSecretInput{
		Value:   "v",
		Enabled: &disabled,
	})
	require.NoError(t, err)

	resp, body := doJSON(t, app, "GET", "/v1/secrets/dark", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "SECRET_DISABLED", body["code"])
}

func TestAPI_Delete(t *testing.T) {
	app, _ := testApp(t, "")

	doJSON(t, app, "PUT", "/v1/secrets/temp", fiber.Map{"value": "v"})

	resp, _ := doJSON(t, app, "DELETE", "/v1/secrets/temp", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = doJSON(t, app, "DELETE", "/v1/secrets/temp", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_List(t *testing.T) {
	app, _ := testApp(t, "")

	doJSON(t, app, "PUT", "/v1/secrets/alpha", fiber.Map{"value": "a"})
	doJSON(t, app, "PUT", "/v1/secrets/beta", fiber.Map{"value": "b"})

	resp, body := doJSON(t, app, "GET", "/v1/secrets", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	items, ok := body["items"].([]any)
	require.True(t, ok)
	require.Len(t, items, 2)

	// Listing never exposes secret values.
	first, ok := items[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "alpha", first["name"])
	assert.NotContains(t, first, "value")

	resp, body = doJSON(t, app, "GET", "/v1/secrets?max_results=1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["items"], 1)
}

func TestAPI_ListInvalidMaxResults(t *testing.T) {
	app, _ := testApp(t, "")

	for _, q := range []string{"max_results=-1", "max_results=banana"} {
		resp, body := doJSON(t, app, "GET", "/v1/secrets?"+q, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, q)
		assert.Equal(t, "INVALID_REQUEST", body["code"], q)
	}
}

func TestAPI_InvalidBody(t *testing.T) {
	app, _ := testApp(t, "")

	req := httptest.NewRequest("PUT", "/v1/secrets/bad", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_ExpiryBeforeActivationRejected(t *testing.T) {
	app, _ := testApp(t, "")

	notBefore := time.Now().Add(2 * time.Hour)
	expiresOn := time.Now().Add(time.Hour)

	resp, body := doJSON(t, app, "PUT", "/v1/secrets/backwards", fiber.Map{
		"value":      "v",
		"not_before": notBefore.Format(time.RFC3339),
		"expires_on": expiresOn.Format(time.RFC3339),
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_REQUEST", body["code"])
}

func TestAPI_EncodedSecretNames(t *testing.T) {
	app, _ := testApp(t, "")

	resp, body := doJSON(t, app, "PUT", "/v1/secrets/prod%2Fdb%20password", fiber.Map{"value": "v"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "prod/db password", body["name"])

	resp, body = doJSON(t, app, "GET", "/v1/secrets/prod%2Fdb%20password", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "v", body["value"])
}

func TestAPI_BearerAuth(t *testing.T) {
	app, _ := testApp(t, "sk-test-token")

	// Missing token.
	resp, body := doJSON(t, app, "GET", "/v1/secrets", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "UNAUTHORIZED", body["code"])

	// Wrong token.
	req := httptest.NewRequest("GET", "/v1/secrets", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	resp2, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp2.StatusCode)

	// Correct token.
	req = httptest.NewRequest("GET", "/v1/secrets", nil)
	req.Header.Set("Authorization", "Bearer sk-test-token")
	resp3, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp3.StatusCode)
}

func TestAPI_HealthAndRootStayOpen(t *testing.T) {
	app, _ := testApp(t, "sk-test-token")

	resp, body := doJSON(t, app, "GET", "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "featherd", body["service"])

	resp, body = doJSON(t, app, "GET", "/", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "running", body["status"])
}

func TestAPI_UnknownRoute(t *testing.T) {
	app, _ := testApp(t, "")

	resp, body := doJSON(t, app, "GET", "/v2/nope", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", body["code"])
}

func TestSweeper_PurgesExpiredVersions(t *testing.T) {
	store := NewMemoryStore()
	past := time.Now().Add(-time.Hour)

	_, err := store.SetSecret(context.Background(), "stale", SetSecretInput{
		Value:     "v",
		ExpiresOn: &past,
	})
	require.NoError(t, err)

	sweeper := NewSweeper(store, testLogger(), 10*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweeper.Start(ctx)
		close(done)
	}()

	// The sweeper runs once at startup; give it a moment.
	assert.Eventually(t, func() bool {
		_, err := store.GetSecret(context.Background(), "stale", "")
		return err != nil
	}, time.Second, 10*time.Millisecond)

	cancel()
	<-done
}
