package sdk

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"sync"
)

// Client is a FeatherVault secret-store client. All methods are safe for
// concurrent use: the client's configuration is an immutable snapshot
// taken at construction, shared read-only by every in-flight call.
//
// Each method accepts an optional per-call options struct. Options that
// the caller leaves unset inherit the client's defaults; options the
// caller sets win for that call only. The merge happens once per call
// and never changes the client's configuration.
//
// Example:
//
//	client, err := sdk.NewClient(sdk.DefaultConfig().
//	    WithEndpoint("https://vault.example.com").
//	    WithCredential(sdk.NewStaticCredential(token)))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	secret, err := client.SetSecret(ctx, "db-password", "hunter2", nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println("stored version", secret.Version)
type Client interface {
	// SetSecret stores a new version of the named secret and returns
	// the stored secret including its new version identifier.
	//
	// Example:
	//
	//	secret, err := client.SetSecret(ctx, "api-key", "s3cr3t", &sdk.SetSecretOptions{
	//	    Tags: map[string]string{"env": "prod"},
	//	})
	SetSecret(ctx context.Context, name, value string, opts *SetSecretOptions) (*Secret, error)

	// GetSecret retrieves the latest version of the named secret, or a
	// specific version when opts.Version is set. Use IsNotFound to
	// check for missing secrets.
	GetSecret(ctx context.Context, name string, opts *GetSecretOptions) (*Secret, error)

	// DeleteSecret removes the named secret and all its versions.
	// Deleting a secret that does not exist returns an error matching
	// IsNotFound.
	DeleteSecret(ctx context.Context, name string, opts *DeleteSecretOptions) error

	// Ping checks connectivity to the vault. Useful for health checks.
	Ping(ctx context.Context) error

	// Close releases the client's resources. The client must not be
	// used after Close; Close is safe to call multiple times.
	Close() error
}

// ExtendedClient provides additional functionality beyond the basic
// Client interface.
//
// Example:
//
//	extClient, err := sdk.NewExtendedClient(config)
//	items, err := extClient.ListSecrets(ctx, nil)
//	for _, item := range items {
//	    fmt.Println(item.Name, item.Version)
//	}
type ExtendedClient interface {
	Client

	// ListSecrets returns metadata for the secrets in the vault,
	// without their values.
	ListSecrets(ctx context.Context, opts *ListSecretsOptions) ([]SecretItem, error)

	// GetSecretVersion retrieves a specific version of the named secret.
	// Shorthand for GetSecret with opts.Version set.
	GetSecretVersion(ctx context.Context, name, version string, opts *GetSecretOptions) (*Secret, error)

	// SecretExists checks whether a secret exists without returning
	// its value to the caller.
	SecretExists(ctx context.Context, name string) (bool, error)
}

// client is the concrete implementation of the Client interface
type client struct {
	transport *httpTransport
	config    *Config
	mu        sync.RWMutex
	closed    bool
}

// NewClient creates a new FeatherVault client with the provided
// configuration. The configuration is validated — Endpoint and
// Credential are required — and then copied: the client keeps a private
// snapshot, so mutating config after NewClient returns has no effect on
// the client.
//
// Example:
//
//	config := sdk.DefaultConfig().
//	    WithEndpoint("https://vault.example.com").
//	    WithCredential(cred).
//	    WithTimeout(10 * time.Second)
//	client, err := sdk.NewClient(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
func NewClient(config *Config) (Client, error) {
	return newClient(config)
}

// NewExtendedClient creates a new FeatherVault client with extended
// functionality: everything Client offers plus listing, version lookup
// and existence checks.
func NewExtendedClient(config *Config) (ExtendedClient, error) {
	return newClient(config)
}

func newClient(config *Config) (*client, error) {
	if config == nil {
		config = DefaultConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Freeze the configuration. From here on the snapshot is read-only.
	frozen := config.clone()

	transport, err := newHTTPTransport(frozen)
	if err != nil {
		return nil, fmt.Errorf("failed to create transport: %w", err)
	}

	return &client{
		transport: transport,
		config:    frozen,
	}, nil
}

// SetSecret stores a new version of the named secret
func (c *client) SetSecret(ctx context.Context, name, value string, opts *SetSecretOptions) (*Secret, error) {
	if err := c.checkClosed(); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, newValidationError("name", "must not be empty")
	}

	eff, err := resolveCallConfig(c.config, opts.callOptions())
	if err != nil {
		return nil, err
	}

	ctx, span := startSpan(ctx, "SecretClient.SetSecret", name)
	defer func() { endSpan(span, err) }()

	req := setSecretRequest{Value: value}
	if opts != nil {
		if opts.ContentType != nil {
			req.ContentType = *opts.ContentType
		}
		req.Tags = opts.Tags
		req.Enabled = opts.Enabled
		req.NotBefore = opts.NotBefore
		req.ExpiresOn = opts.ExpiresOn
	}

	path := buildPath("/v1/secrets/{0}", name)
	var secret Secret
	if err = c.transport.put(ctx, eff, path, req, &secret); err != nil {
		return nil, err
	}

	return &secret, nil
}

// GetSecret retrieves a secret by name
func (c *client) GetSecret(ctx context.Context, name string, opts *GetSecretOptions) (*Secret, error) {
	if err := c.checkClosed(); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, newValidationError("name", "must not be empty")
	}

	eff, err := resolveCallConfig(c.config, opts.callOptions())
	if err != nil {
		return nil, err
	}

	ctx, span := startSpan(ctx, "SecretClient.GetSecret", name)
	defer func() { endSpan(span, err) }()

	var query url.Values
	if opts != nil && opts.Version != "" {
		query = url.Values{"version": []string{opts.Version}}
	}

	path := buildPath("/v1/secrets/{0}", name)
	var secret Secret
	if err = c.transport.get(ctx, eff, path, query, &secret); err != nil {
		return nil, err
	}

	return &secret, nil
}

// DeleteSecret removes a secret and all its versions
func (c *client) DeleteSecret(ctx context.Context, name string, opts *DeleteSecretOptions) error {
	if err := c.checkClosed(); err != nil {
		return err
	}
	if name == "" {
		return newValidationError("name", "must not be empty")
	}

	eff, err := resolveCallConfig(c.config, opts.callOptions())
	if err != nil {
		return err
	}

	ctx, span := startSpan(ctx, "SecretClient.DeleteSecret", name)
	defer func() { endSpan(span, err) }()

	path := buildPath("/v1/secrets/{0}", name)
	err = c.transport.delete(ctx, eff, path)
	return err
}

// ListSecrets returns metadata for the secrets in the vault
func (c *client) ListSecrets(ctx context.Context, opts *ListSecretsOptions) ([]SecretItem, error) {
	if err := c.checkClosed(); err != nil {
		return nil, err
	}

	eff, err := resolveCallConfig(c.config, opts.callOptions())
	if err != nil {
		return nil, err
	}

	ctx, span := startSpan(ctx, "SecretClient.ListSecrets", "")
	defer func() { endSpan(span, err) }()

	var query url.Values
	if opts != nil && opts.MaxResults != nil {
		query = url.Values{"max_results": []string{strconv.Itoa(*opts.MaxResults)}}
	}

	var resp secretListResponse
	if err = c.transport.get(ctx, eff, "/v1/secrets", query, &resp); err != nil {
		return nil, err
	}

	return resp.Items, nil
}

// GetSecretVersion retrieves a specific version of a secret
func (c *client) GetSecretVersion(ctx context.Context, name, version string, opts *GetSecretOptions) (*Secret, error) {
	if version == "" {
		return nil, newValidationError("version", "must not be empty")
	}
	versioned := GetSecretOptions{Version: version}
	if opts != nil {
		versioned.CallOptions = opts.CallOptions
	}
	return c.GetSecret(ctx, name, &versioned)
}

// SecretExists checks whether a secret exists
func (c *client) SecretExists(ctx context.Context, name string) (bool, error) {
	_, err := c.GetSecret(ctx, name, nil)
	if err == nil {
		return true, nil
	}
	if IsNotFound(err) {
		return false, nil
	}
	return false, err
}

// Ping checks connectivity to the vault
func (c *client) Ping(ctx context.Context) error {
	if err := c.checkClosed(); err != nil {
		return err
	}

	eff, err := resolveCallConfig(c.config, nil)
	if err != nil {
		return err
	}

	var resp HealthResponse
	if err := c.transport.get(ctx, eff, "/health", nil, &resp); err != nil {
		return err
	}

	if resp.Status != "healthy" {
		return fmt.Errorf("vault is not healthy: %s", resp.Status)
	}

	return nil
}

// Close closes the client and releases resources
func (c *client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	c.closed = true
	return c.transport.close()
}

// checkClosed checks if the client is closed
func (c *client) checkClosed() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return fmt.Errorf("client is closed")
	}
	return nil
}
