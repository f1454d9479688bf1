package model

import (
	"time"

	"evault-go/internal/ledger"
)

// User is a registered account. The password is never stored; only the
// argon2id hash and the per-user random salt are.
type User struct {
	Username     string // unique identifier
	Salt         []byte // 16 random bytes, generated at registration
	PasswordHash []byte // argon2id(password, salt)
	CreatedAt    time.Time
}

// Document is the logical metadata for a stored document. The owner is
// deliberately absent: current ownership is always derived by replaying
// the ledger, never read from a mutable column.
type Document struct {
	ID          string // UUID, content-independent
	Title       string
	Description string
	ContentType string
	Fingerprint ledger.Digest // plaintext digest at creation; immutable
	CreatedAt   time.Time
}
