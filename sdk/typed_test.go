package sdk

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type dbCredentials struct {
	Host     string `json:"host"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// typedVault stores whatever was PUT and echoes it back on GET.
func typedVault() *httptest.Server {
	values := make(map[string]string)
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/secrets/", func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, "/v1/secrets/")
		switch r.Method {
		case http.MethodPut:
			var req setSecretRequest
			json.NewDecoder(r.Body).Decode(&req)
			values[name] = req.Value
			json.NewEncoder(w).Encode(Secret{Name: name, Value: req.Value, Version: "1"})
		case http.MethodGet:
			value, ok := values[name]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				json.NewEncoder(w).Encode(map[string]string{"error": "secret not found", "code": "SECRET_NOT_FOUND"})
				return
			}
			json.NewEncoder(w).Encode(Secret{Name: name, Value: value, Version: "1"})
		case http.MethodDelete:
			delete(values, name)
			w.WriteHeader(http.StatusNoContent)
		}
	})
	return httptest.NewServer(mux)
}

func TestTypedClient_RoundTrip(t *testing.T) {
	server := typedVault()
	defer server.Close()

	client := testClient(t, server)
	typed := NewTypedClient[dbCredentials](client)
	ctx := context.Background()

	creds := dbCredentials{Host: "db.internal", Username: "app", Password: "hunter2"}
	stored, err := typed.SetSecret(ctx, "db-credentials", creds, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"host":"db.internal","username":"app","password":"hunter2"}`, stored.Value)

	got, secret, err := typed.GetSecret(ctx, "db-credentials", nil)
	require.NoError(t, err)
	assert.Equal(t, creds, got)
	assert.Equal(t, "1", secret.Version)
}

func TestTypedClient_StringPassthrough(t *testing.T) {
	server := typedVault()
	defer server.Close()

	client := testClient(t, server)
	typed := NewTypedClient[string](client)
	ctx := context.Background()

	// Plain strings are stored as-is, not JSON-quoted.
	stored, err := typed.SetSecret(ctx, "api-key", "s3cr3t", nil)
	require.NoError(t, err)
	assert.Equal(t, "s3cr3t", stored.Value)

	got, _, err := typed.GetSecret(ctx, "api-key", nil)
	require.NoError(t, err)
	assert.Equal(t, "s3cr3t", got)
}

func TestTypedClient_DecodeMismatch(t *testing.T) {
	server := typedVault()
	defer server.Close()

	client := testClient(t, server)
	ctx := context.Background()

	_, err := client.SetSecret(ctx, "free-text", "not json at all", nil)
	require.NoError(t, err)

	typed := NewTypedClient[dbCredentials](client)
	_, _, err = typed.GetSecret(ctx, "free-text", nil)
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestTypedClient_DeleteAndExists(t *testing.T) {
	server := typedVault()
	defer server.Close()

	client := testClient(t, server)
	typed := NewTypedClient[string](client)
	ctx := context.Background()

	_, err := typed.SetSecret(ctx, "temp", "value", nil)
	require.NoError(t, err)

	exists, err := typed.SecretExists(ctx, "temp")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, typed.DeleteSecret(ctx, "temp", nil))

	exists, err = typed.SecretExists(ctx, "temp")
	require.NoError(t, err)
	assert.False(t, exists)
}
