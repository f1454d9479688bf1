package registry

import (
	"fmt"
	"sync"

	"evault-go/internal/evault"
	"evault-go/internal/ledger"
	"evault-go/internal/model"
)

// MemoryRegistry is an in-memory implementation of the Registry
// interface backed by maps. It is used by tests and by the `memory`
// registry config type. Safe for concurrent use.
type MemoryRegistry struct {
	mu     sync.RWMutex
	users  map[string]model.User
	docs   map[string]model.Document
	blocks []ledger.Block
}

var _ evault.Registry = (*MemoryRegistry)(nil)

// NewMemoryRegistry creates an empty in-memory registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		users: make(map[string]model.User),
		docs:  make(map[string]model.Document),
	}
}

func (m *MemoryRegistry) CreateUser(user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[user.Username]; ok {
		return fmt.Errorf("user %q: %w", user.Username, evault.ErrDuplicateUser)
	}
	m.users[user.Username] = *user
	return nil
}

func (m *MemoryRegistry) FindUser(username string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[username]
	if !ok {
		return nil, fmt.Errorf("user %q: %w", username, evault.ErrNotFound)
	}
	return &user, nil
}

func (m *MemoryRegistry) UpdateUserPassword(username string, salt, passwordHash []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[username]
	if !ok {
		return fmt.Errorf("user %q: %w", username, evault.ErrNotFound)
	}
	user.Salt = append([]byte(nil), salt...)
	user.PasswordHash = append([]byte(nil), passwordHash...)
	m.users[username] = user
	return nil
}

func (m *MemoryRegistry) CreateDocument(doc *model.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.docs[doc.ID]; ok {
		return fmt.Errorf("document %s: %w", doc.ID, evault.ErrDuplicateDocument)
	}
	m.docs[doc.ID] = *doc
	return nil
}

func (m *MemoryRegistry) FindDocument(id string) (*model.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.docs[id]
	if !ok {
		return nil, fmt.Errorf("document %s: %w", id, evault.ErrNotFound)
	}
	return &doc, nil
}

func (m *MemoryRegistry) AppendBlock(block ledger.Block) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, b := range m.blocks {
		if b.Index == block.Index {
			return fmt.Errorf("block %d already persisted", block.Index)
		}
	}
	m.blocks = append(m.blocks, block)
	return nil
}

func (m *MemoryRegistry) ListBlocks() ([]ledger.Block, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return append([]ledger.Block(nil), m.blocks...), nil
}

func (m *MemoryRegistry) Close() error { return nil }
