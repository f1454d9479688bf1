package testutil

import (
	"evault-go/internal/encryption"
	"evault-go/internal/evault"
)

// NewTestEncryptor creates a new test encryptor for testing.
func NewTestEncryptor() evault.Encryptor {
	return encryption.NewTestEncryptor()
}
