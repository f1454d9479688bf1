package testutil

import (
	"evault-go/internal/evault"
	"evault-go/internal/vault"
)

// NewTestVault creates a new in-memory vault for testing.
func NewTestVault() evault.Vault {
	return vault.NewMemoryVault("test-vault")
}
