package auth

import "errors"

// Authentication errors map onto transport statuses:
// Unauthenticated (401) for missing or invalid keys, without confirming the key exists.
// PermissionDenied (403) for revoked keys, which confirms existence but blocks use.
// Unavailable (503) when the key store cannot be reached.
var (
	ErrMissingKey       = errors.New("API key required in x-api-key metadata")
	ErrInvalidKeyFormat = errors.New("invalid API key format")
	ErrUnknownKey       = errors.New("unknown secret ID")
	ErrInvalidKey       = errors.New("invalid API key")
	ErrKeyRevoked       = errors.New("API key has been revoked")
	ErrUnavailable      = errors.New("key store unavailable")
)
