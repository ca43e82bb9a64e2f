package auth

import "errors"

// Authentication failures. Missing, malformed and unknown keys all map to
// UNAUTHENTICATED so a caller cannot probe which keys exist; a revoked key
// maps to PERMISSION_DENIED.
var (
	ErrMissingKey       = errors.New("API key required in x-api-key metadata")
	ErrInvalidKeyFormat = errors.New("invalid API key format")
	ErrUnknownKey       = errors.New("unknown secret ID")
	ErrInvalidKey       = errors.New("invalid API key")
	ErrKeyRevoked       = errors.New("API key has been revoked")

	// ErrUnavailable wraps storage failures during key lookup.
	ErrUnavailable = errors.New("authentication backend unavailable")
)
