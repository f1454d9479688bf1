package evault

import "errors"

// Sentinel errors shared across the service, registry, vault, and
// encryption layers. Callers match them with errors.Is; each layer
// wraps them with %w and local context.
var (
	// ErrUnauthorized covers missing, invalid, and expired sessions.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidCredentials is returned on login with an unknown user
	// or wrong password. The two cases are deliberately not distinguished.
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrDuplicateUser     = errors.New("user already exists")
	ErrDuplicateDocument = errors.New("document already exists")
	ErrNotFound          = errors.New("not found")

	// ErrNotOwner is returned when the authenticated user is not the
	// current ledger-derived owner of the document.
	ErrNotOwner = errors.New("not the current owner")

	// ErrUnknownUser is returned when a transfer names a recipient that
	// is not registered.
	ErrUnknownUser = errors.New("unknown user")

	// ErrDecryption indicates the ciphertext could not be opened:
	// wrong key or corrupted content. Never degraded to garbage output.
	ErrDecryption = errors.New("decryption failed")

	// ErrContentMismatch indicates stored content no longer matches the
	// fingerprint recorded in the ledger. Distinct from ErrChainIntegrity
	// because the content store and the ledger are independently durable.
	ErrContentMismatch = errors.New("content does not match recorded fingerprint")

	// ErrChainIntegrity indicates the ledger itself failed verification.
	// At startup this is fatal: no mutations are served over a corrupted
	// ledger.
	ErrChainIntegrity = errors.New("ledger integrity check failed")
)
