package eveapi

import "errors"

// Error definitions for the eveapi package.
var (
	// ErrInvalidKey is returned when the provider answered but the key
	// grants access to nothing. This is terminal and user-facing; it is
	// distinct from a transport failure and is never retried by the core.
	ErrInvalidKey = errors.New("invalid API key")

	// ErrUnreachable is returned for transport failures and provider-level
	// faults. The attempt is terminal; retrying is the caller's decision.
	ErrUnreachable = errors.New("verification provider unreachable")

	// ErrInvalidConfig is returned when the client is constructed with
	// invalid configuration.
	ErrInvalidConfig = errors.New("invalid eveapi configuration")
)
