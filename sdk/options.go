package sdk

import "time"

// CallOptions is a sparse set of per-call overrides for client-level
// configuration. Only fields that are explicitly set participate: a nil
// pointer (or nil map) means "inherit the client default". A CallOptions
// value is consumed by a single call and never retained by the client.
//
// Overrides win over client defaults field by field; there is no deeper
// precedence chain. Options fixed at client construction (endpoint,
// credential, API version, reserved headers) cannot be overridden here —
// attempting to set a reserved header fails the call with a
// *ValidationError before any request is sent.
//
// Example:
//
//	timeout := 5 * time.Second
//	_, err := client.GetSecret(ctx, "db-password", &sdk.GetSecretOptions{
//	    CallOptions: sdk.CallOptions{Timeout: &timeout},
//	})
type CallOptions struct {
	// Timeout overrides the client-level request timeout for this call.
	Timeout *time.Duration

	// MaxRetries overrides the client-level retry attempt limit for
	// this call. Set to a pointer to 0 to disable retries for one call.
	MaxRetries *int

	// Headers are added to the request, overriding client-level headers
	// with the same name. Reserved headers (Authorization) are rejected.
	Headers map[string]string

	// RequestID pins the request ID for this call instead of letting
	// the transport generate one. Useful for correlating with upstream
	// tracing systems.
	RequestID *string
}

// SetSecretOptions contains optional parameters for SetSecret.
// All fields are optional; the embedded CallOptions carries the generic
// per-call configuration overrides.
//
// Example:
//
//	contentType := "application/json"
//	err := client.SetSecret(ctx, "service-config", payload, &sdk.SetSecretOptions{
//	    ContentType: &contentType,
//	    Tags:        map[string]string{"team": "platform"},
//	})
type SetSecretOptions struct {
	CallOptions

	// ContentType describes the secret value, e.g. "text/plain" or
	// "application/json". Stored with the secret and returned on reads.
	ContentType *string

	// Tags are free-form labels stored with the secret.
	Tags map[string]string

	// Enabled controls whether the new secret version is usable.
	// Defaults to true on the server.
	Enabled *bool

	// NotBefore is the earliest time the secret may be used.
	NotBefore *time.Time

	// ExpiresOn is the time after which the secret may not be used.
	ExpiresOn *time.Time
}

// GetSecretOptions contains optional parameters for GetSecret.
type GetSecretOptions struct {
	CallOptions

	// Version selects a specific secret version. Empty means latest.
	Version string
}

// DeleteSecretOptions contains optional parameters for DeleteSecret.
type DeleteSecretOptions struct {
	CallOptions
}

// ListSecretsOptions contains optional parameters for ListSecrets.
type ListSecretsOptions struct {
	CallOptions

	// MaxResults limits the number of items returned.
	MaxResults *int
}

// callOptions extracts the embedded CallOptions from an operation's
// options struct, tolerating a nil options pointer.
func (o *SetSecretOptions) callOptions() *CallOptions {
	if o == nil {
		return nil
	}
	return &o.CallOptions
}

func (o *GetSecretOptions) callOptions() *CallOptions {
	if o == nil {
		return nil
	}
	return &o.CallOptions
}

func (o *DeleteSecretOptions) callOptions() *CallOptions {
	if o == nil {
		return nil
	}
	return &o.CallOptions
}

func (o *ListSecretsOptions) callOptions() *CallOptions {
	if o == nil {
		return nil
	}
	return &o.CallOptions
}
