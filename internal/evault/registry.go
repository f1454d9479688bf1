package evault

import (
	"evault-go/internal/ledger"
	"evault-go/internal/model"
)

// Registry provides durable storage for users, document metadata, and
// sealed ledger blocks. Implementations map storage-level duplicate and
// missing-row conditions onto ErrDuplicateUser, ErrDuplicateDocument,
// and ErrNotFound.
type Registry interface {
	// User operations

	// CreateUser stores a new user. Returns ErrDuplicateUser if the
	// username is taken.
	CreateUser(user *model.User) error

	// FindUser returns the user with the given username, or ErrNotFound.
	FindUser(username string) (*model.User, error)

	// UpdateUserPassword replaces the salt and password hash for an
	// existing user. Returns ErrNotFound if the user is absent.
	UpdateUserPassword(username string, salt, passwordHash []byte) error

	// Document operations

	// CreateDocument stores document metadata. Documents are write-once;
	// an existing ID yields ErrDuplicateDocument.
	CreateDocument(doc *model.Document) error

	// FindDocument returns document metadata by ID, or ErrNotFound.
	FindDocument(id string) (*model.Document, error)

	// Block operations

	// AppendBlock persists a sealed block. Blocks are immutable; the
	// index is the primary key and re-inserting an index is an error.
	AppendBlock(block ledger.Block) error

	// ListBlocks returns every persisted block ordered by index.
	ListBlocks() ([]ledger.Block, error)

	// Close releases the underlying storage.
	Close() error
}
