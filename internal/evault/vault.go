package evault

import "io"

// Vault stores encrypted document content keyed by document ID,
// independent of the ledger. Operations stream through io.Reader and
// io.Writer so large documents never need to fit in memory twice.
type Vault interface {
	// PutContent stores ciphertext for a document. Content is
	// write-once: storing an ID that already exists returns
	// ErrDuplicateDocument. size is the number of bytes read from r.
	PutContent(documentID string, r io.Reader, size int64) error

	// GetContent writes the stored ciphertext to w.
	// Returns ErrNotFound if no content exists for the ID.
	GetContent(documentID string, w io.Writer) error

	// HasContent reports whether content exists for the ID.
	HasContent(documentID string) (bool, error)

	// ValidateSetup verifies that the backend is accessible and
	// properly configured.
	ValidateSetup() error
}
