package sdk

import (
	"strings"
	"time"
)

// reservedHeaders are set by the client from construction-time options
// and may not appear in client-level Headers or per-call overrides.
var reservedHeaders = map[string]struct{}{
	"authorization": {},
}

// isReservedHeader reports whether name is managed by the client.
func isReservedHeader(name string) bool {
	_, ok := reservedHeaders[strings.ToLower(name)]
	return ok
}

// EffectiveConfig is the fully resolved configuration applied to one
// request. It is computed at call time by merging the client's
// configuration snapshot with the call's overrides, used for the
// duration of that single call, and then discarded. Every field is
// populated: options left unset at both levels carry their documented
// built-in defaults.
type EffectiveConfig struct {
	// Endpoint is the base URL of the API.
	Endpoint string

	// APIVersion is sent as the api-version query parameter.
	APIVersion string

	// Timeout bounds the whole call, including retries.
	Timeout time.Duration

	// MaxRetries is the retry attempt limit for this call.
	MaxRetries int

	// Headers is the merged header set (client defaults overlaid with
	// call overrides). It is a fresh copy owned by this call.
	Headers map[string]string

	// RequestID is the caller-pinned request ID, or empty if the
	// transport should generate one per attempt.
	RequestID string
}

// resolveCallConfig merges the client configuration snapshot with a
// per-call override into the effective configuration for one request.
//
// The merge is per-field with exactly two precedence levels: a field the
// override explicitly sets wins, otherwise the client value is used, and
// a field unset at both levels takes its built-in default. Neither input
// is mutated; the result is a new value. The function is pure — no I/O,
// no clock, no random state — so equal inputs always produce equal
// outputs.
//
// It fails with a *ValidationError if base is missing a required field
// (a defensive re-check; Config.Validate enforces this at construction),
// if the override carries a negative timeout, or if the override tries
// to set an option fixed at construction, which for the current option
// set means a reserved header.
//
// Deliberately out of scope: detecting semantically conflicting option
// combinations. That belongs to CheckCallOptions, which callers may run
// before a call; keeping it out of the merge keeps resolution total over
// valid field sets.
func resolveCallConfig(base *Config, opts *CallOptions) (*EffectiveConfig, error) {
	if base == nil || base.Endpoint == "" {
		return nil, newValidationError("Endpoint", "required field is not set")
	}
	if base.Credential == nil {
		return nil, newValidationError("Credential", "required field is not set")
	}

	eff := &EffectiveConfig{
		Endpoint:   base.Endpoint,
		APIVersion: base.APIVersion,
		Timeout:    base.Timeout,
		MaxRetries: base.RetryConfig.MaxRetries,
		Headers:    make(map[string]string, len(base.Headers)),
	}
	if eff.APIVersion == "" {
		eff.APIVersion = DefaultAPIVersion
	}
	if eff.Timeout <= 0 {
		eff.Timeout = DefaultTimeout
	}
	if eff.MaxRetries < 0 {
		eff.MaxRetries = 0
	}
	for k, v := range base.Headers {
		if isReservedHeader(k) {
			return nil, newValidationError("Headers", "header "+k+" is managed by the client and cannot be set")
		}
		eff.Headers[k] = v
	}

	if opts == nil {
		return eff, nil
	}

	if opts.Timeout != nil {
		if *opts.Timeout < 0 {
			return nil, newValidationError("Timeout", "must not be negative")
		}
		eff.Timeout = *opts.Timeout
	}
	if opts.MaxRetries != nil {
		eff.MaxRetries = *opts.MaxRetries
		if eff.MaxRetries < 0 {
			eff.MaxRetries = 0
		}
	}
	if opts.RequestID != nil {
		eff.RequestID = *opts.RequestID
	}
	for k, v := range opts.Headers {
		if isReservedHeader(k) {
			return nil, newValidationError("Headers", "header "+k+" is fixed at client construction and cannot be overridden per call")
		}
		eff.Headers[k] = v
	}

	return eff, nil
}

// CheckCallOptions validates a per-call override for semantic conflicts
// that the merge itself does not police, such as a zero timeout combined
// with retries. It is optional: clients do not invoke it on the request
// path, so callers decide whether they want the stricter checking.
//
// Example:
//
//	if err := sdk.CheckCallOptions(&opts.CallOptions); err != nil {
//	    return err
//	}
//	secret, err := client.GetSecret(ctx, name, opts)
func CheckCallOptions(opts *CallOptions) error {
	if opts == nil {
		return nil
	}
	if opts.Timeout != nil && *opts.Timeout < 0 {
		return newValidationError("Timeout", "must not be negative")
	}
	if opts.Timeout != nil && *opts.Timeout == 0 && opts.MaxRetries != nil && *opts.MaxRetries > 0 {
		return newValidationError("Timeout", "zero timeout cannot be combined with retries")
	}
	if opts.MaxRetries != nil && *opts.MaxRetries < 0 {
		return newValidationError("MaxRetries", "must not be negative")
	}
	if opts.RequestID != nil && *opts.RequestID == "" {
		return newValidationError("RequestID", "must not be empty when set")
	}
	for k := range opts.Headers {
		if isReservedHeader(k) {
			return newValidationError("Headers", "header "+k+" is fixed at client construction and cannot be overridden per call")
		}
	}
	return nil
}
