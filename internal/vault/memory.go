package vault

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"evault-go/internal/evault"
)

// MemoryVault is an in-memory implementation of the Vault interface,
// useful for testing. Safe for concurrent use.
type MemoryVault struct {
	name    string
	content map[string][]byte // documentID -> ciphertext
	mu      sync.RWMutex
}

var _ evault.Vault = (*MemoryVault)(nil)

// NewMemoryVault creates a new in-memory vault with the given name.
func NewMemoryVault(name string) *MemoryVault {
	return &MemoryVault{
		name:    name,
		content: make(map[string][]byte),
	}
}

// PutContent stores ciphertext for a document. Content is write-once.
func (m *MemoryVault) PutContent(documentID string, r io.Reader, size int64) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read content: %w", err)
	}
	if int64(len(data)) != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, len(data))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.content[documentID]; ok {
		return fmt.Errorf("content for %s: %w", documentID, evault.ErrDuplicateDocument)
	}
	m.content[documentID] = data
	return nil
}

// GetContent retrieves ciphertext by document ID.
func (m *MemoryVault) GetContent(documentID string, w io.Writer) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.content[documentID]
	if !ok {
		return fmt.Errorf("content for %s: %w", documentID, evault.ErrNotFound)
	}

	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write content: %w", err)
	}
	return nil
}

// HasContent reports whether ciphertext exists for the document ID.
func (m *MemoryVault) HasContent(documentID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.content[documentID]
	return ok, nil
}

// Corrupt overwrites stored ciphertext in place. Only tests use this,
// to simulate content tampering independent of the ledger.
func (m *MemoryVault) Corrupt(documentID string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.content[documentID] = append([]byte(nil), data...)
}

// ValidateSetup always succeeds for an in-memory vault.
func (m *MemoryVault) ValidateSetup() error {
	return nil
}
