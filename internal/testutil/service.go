package testutil

import (
	"testing"
	"time"

	"evault-go/internal/evault"
	"evault-go/internal/ledger"
)

// TestService bundles a VaultService with the fakes it was built on,
// so tests can reach past the service when they need to.
type TestService struct {
	Service  *evault.VaultService
	Registry evault.Registry
	Vault    evault.Vault
	Sessions *evault.SessionManager
	Chain    *ledger.Chain
	Clock    *StubClock
}

// NewTestService creates a VaultService wired entirely to in-memory
// fakes, with a fresh genesis block at the stub clock's time.
func NewTestService(t *testing.T) *TestService {
	t.Helper()

	clock := FixedClock()
	reg := NewTestRegistry()

	chain := ledger.NewChain(clock.Now())
	if err := reg.AppendBlock(chain.Head()); err != nil {
		t.Fatalf("failed to persist genesis block: %v", err)
	}

	sessions, err := evault.NewSessionManager(30*time.Minute, clock)
	if err != nil {
		t.Fatalf("failed to create session manager: %v", err)
	}

	vlt := NewTestVault()
	svc := evault.NewVaultService(reg, vlt, NewTestEncryptor(), sessions, chain, evault.NewNopLogger(), clock, NewStubIDGenerator())

	return &TestService{
		Service:  svc,
		Registry: reg,
		Vault:    vlt,
		Sessions: sessions,
		Chain:    chain,
		Clock:    clock,
	}
}
