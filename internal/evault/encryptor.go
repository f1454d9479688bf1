package evault

import "io"

// Encryptor seals and opens document content with the system-held key.
// Access control is enforced by the service through sessions and
// ledger-derived ownership, not by per-user keys, so content does not
// need re-encryption when ownership changes.
type Encryptor interface {
	// Encrypt reads plaintext from r and writes ciphertext to w.
	Encrypt(r io.Reader, w io.Writer) error

	// Decrypt reads ciphertext from r and writes plaintext to w.
	// A wrong key or corrupted ciphertext returns an error wrapping
	// ErrDecryption; it never silently produces garbage.
	Decrypt(r io.Reader, w io.Writer) error

	// Setup performs one-time key generation. Called during `evault
	// config init`; a no-op if the key already exists is an error so
	// keys are never overwritten accidentally.
	Setup() error

	// IsConfigured reports whether the key material is in place.
	IsConfigured() bool
}
