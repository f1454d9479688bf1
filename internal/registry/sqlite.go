package registry

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"evault-go/internal/evault"
	"evault-go/internal/ledger"
	"evault-go/internal/model"
)

// SQLiteRegistry implements the Registry interface using SQLite.
type SQLiteRegistry struct {
	db   *sql.DB
	path string
}

var _ evault.Registry = (*SQLiteRegistry)(nil)

// NewSQLiteRegistry opens a SQLite-backed registry.
// path can be a file path or ":memory:" for an in-memory database.
func NewSQLiteRegistry(path string) (*SQLiteRegistry, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	return &SQLiteRegistry{db: db, path: path}, nil
}

// NewSQLiteRegistryFromDB wraps an existing connection. The caller is
// responsible for ensuring the connection is properly configured.
func NewSQLiteRegistryFromDB(db *sql.DB) *SQLiteRegistry {
	return &SQLiteRegistry{db: db}
}

// OpenConnection opens and configures a SQLite connection with the
// PRAGMAs the registry relies on. Exported for tools and tests.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open registry: %w", err)
	}

	// SQLite ships with foreign keys OFF for backward compatibility.
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// DB exposes the underlying connection for migration checks.
func (s *SQLiteRegistry) DB() *sql.DB { return s.db }

// isConstraintErr reports whether err is a SQLite constraint violation
// (duplicate primary key or unique index).
func isConstraintErr(err error) bool {
	var serr sqlite3.Error
	return errors.As(err, &serr) && serr.Code == sqlite3.ErrConstraint
}

// User operations

func (s *SQLiteRegistry) CreateUser(user *model.User) error {
	_, err := s.db.Exec(
		`INSERT INTO users (username, salt, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		user.Username, user.Salt, user.PasswordHash, user.CreatedAt.UnixNano(),
	)
	if err != nil {
		if isConstraintErr(err) {
			return fmt.Errorf("user %q: %w", user.Username, evault.ErrDuplicateUser)
		}
		return fmt.Errorf("inserting user: %w", err)
	}
	return nil
}

func (s *SQLiteRegistry) FindUser(username string) (*model.User, error) {
	var user model.User
	var createdAt int64
	err := s.db.QueryRow(
		`SELECT username, salt, password_hash, created_at FROM users WHERE username = ?`,
		username,
	).Scan(&user.Username, &user.Salt, &user.PasswordHash, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %q: %w", username, evault.ErrNotFound)
		}
		return nil, fmt.Errorf("finding user: %w", err)
	}
	user.CreatedAt = time.Unix(0, createdAt)
	return &user, nil
}

func (s *SQLiteRegistry) UpdateUserPassword(username string, salt, passwordHash []byte) error {
	res, err := s.db.Exec(
		`UPDATE users SET salt = ?, password_hash = ? WHERE username = ?`,
		salt, passwordHash, username,
	)
	if err != nil {
		return fmt.Errorf("updating password: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating password: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("user %q: %w", username, evault.ErrNotFound)
	}
	return nil
}

// Document operations

func (s *SQLiteRegistry) CreateDocument(doc *model.Document) error {
	_, err := s.db.Exec(
		`INSERT INTO documents (id, title, description, content_type, fingerprint, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.Title, doc.Description, doc.ContentType, doc.Fingerprint.String(), doc.CreatedAt.UnixNano(),
	)
	if err != nil {
		if isConstraintErr(err) {
			return fmt.Errorf("document %s: %w", doc.ID, evault.ErrDuplicateDocument)
		}
		return fmt.Errorf("inserting document: %w", err)
	}
	return nil
}

func (s *SQLiteRegistry) FindDocument(id string) (*model.Document, error) {
	var doc model.Document
	var fingerprint string
	var createdAt int64
	err := s.db.QueryRow(
		`SELECT id, title, description, content_type, fingerprint, created_at
		 FROM documents WHERE id = ?`,
		id,
	).Scan(&doc.ID, &doc.Title, &doc.Description, &doc.ContentType, &fingerprint, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("document %s: %w", id, evault.ErrNotFound)
		}
		return nil, fmt.Errorf("finding document: %w", err)
	}
	doc.Fingerprint, err = ledger.ParseDigest(fingerprint)
	if err != nil {
		return nil, fmt.Errorf("document %s: %w", id, err)
	}
	doc.CreatedAt = time.Unix(0, createdAt)
	return &doc, nil
}

// Block operations

func (s *SQLiteRegistry) AppendBlock(block ledger.Block) error {
	txs, err := json.Marshal(block.Transactions)
	if err != nil {
		return fmt.Errorf("encoding block %d transactions: %w", block.Index, err)
	}
	_, err = s.db.Exec(
		`INSERT INTO blocks (idx, timestamp, prev, digest, transactions) VALUES (?, ?, ?, ?, ?)`,
		block.Index, block.Timestamp, block.Prev.String(), block.Digest.String(), string(txs),
	)
	if err != nil {
		if isConstraintErr(err) {
			return fmt.Errorf("block %d already persisted: %w", block.Index, err)
		}
		return fmt.Errorf("inserting block %d: %w", block.Index, err)
	}
	return nil
}

func (s *SQLiteRegistry) ListBlocks() ([]ledger.Block, error) {
	rows, err := s.db.Query(
		`SELECT idx, timestamp, prev, digest, transactions FROM blocks ORDER BY idx`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing blocks: %w", err)
	}
	defer rows.Close()

	var blocks []ledger.Block
	for rows.Next() {
		var b ledger.Block
		var prev, digest, txs string
		if err := rows.Scan(&b.Index, &b.Timestamp, &prev, &digest, &txs); err != nil {
			return nil, fmt.Errorf("scanning block: %w", err)
		}
		if b.Prev, err = ledger.ParseDigest(prev); err != nil {
			return nil, fmt.Errorf("block %d: %w", b.Index, err)
		}
		if b.Digest, err = ledger.ParseDigest(digest); err != nil {
			return nil, fmt.Errorf("block %d: %w", b.Index, err)
		}
		if err := json.Unmarshal([]byte(txs), &b.Transactions); err != nil {
			return nil, fmt.Errorf("decoding block %d transactions: %w", b.Index, err)
		}
		blocks = append(blocks, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing blocks: %w", err)
	}
	return blocks, nil
}

func (s *SQLiteRegistry) Close() error {
	return s.db.Close()
}
