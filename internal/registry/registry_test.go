package registry_test

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"evault-go/internal/evault"
	"evault-go/internal/ledger"
	"evault-go/internal/model"
	"evault-go/internal/testutil"
)

// registryTests runs the shared conformance suite against a Registry
// implementation.
func registryTests(t *testing.T, newRegistry func(t *testing.T) evault.Registry) {
	created := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

	newUser := func(username string) *model.User {
		return &model.User{
			Username:     username,
			Salt:         []byte("0123456789abcdef"),
			PasswordHash: []byte("not-a-real-hash-but-32-bytes-xx!"),
			CreatedAt:    created,
		}
	}

	t.Run("users", func(t *testing.T) {
		t.Parallel()
		reg := newRegistry(t)

		if err := reg.CreateUser(newUser("alice")); err != nil {
			t.Fatalf("CreateUser() error = %v", err)
		}

		t.Run("find", func(t *testing.T) {
			user, err := reg.FindUser("alice")
			if err != nil {
				t.Fatalf("FindUser() error = %v", err)
			}
			if user.Username != "alice" {
				t.Errorf("Username = %q, want %q", user.Username, "alice")
			}
			if !bytes.Equal(user.Salt, []byte("0123456789abcdef")) {
				t.Error("Salt does not round trip")
			}
			if !user.CreatedAt.Equal(created) {
				t.Errorf("CreatedAt = %v, want %v", user.CreatedAt, created)
			}
		})

		t.Run("duplicate", func(t *testing.T) {
			if err := reg.CreateUser(newUser("alice")); !errors.Is(err, evault.ErrDuplicateUser) {
				t.Errorf("CreateUser() error = %v, want ErrDuplicateUser", err)
			}
		})

		t.Run("not found", func(t *testing.T) {
			if _, err := reg.FindUser("nobody"); !errors.Is(err, evault.ErrNotFound) {
				t.Errorf("FindUser() error = %v, want ErrNotFound", err)
			}
		})

		t.Run("update password", func(t *testing.T) {
			newSalt := []byte("fedcba9876543210")
			newHash := []byte("another-fake-hash-of-32-bytes-yy")
			if err := reg.UpdateUserPassword("alice", newSalt, newHash); err != nil {
				t.Fatalf("UpdateUserPassword() error = %v", err)
			}
			user, err := reg.FindUser("alice")
			if err != nil {
				t.Fatalf("FindUser() error = %v", err)
			}
			if !bytes.Equal(user.Salt, newSalt) || !bytes.Equal(user.PasswordHash, newHash) {
				t.Error("password update did not persist")
			}

			if err := reg.UpdateUserPassword("nobody", newSalt, newHash); !errors.Is(err, evault.ErrNotFound) {
				t.Errorf("UpdateUserPassword(unknown) error = %v, want ErrNotFound", err)
			}
		})
	})

	t.Run("documents", func(t *testing.T) {
		t.Parallel()
		reg := newRegistry(t)

		doc := &model.Document{
			ID:          "11111111-1111-1111-1111-111111111111",
			Title:       "Contract",
			Description: "signed copy",
			ContentType: "application/pdf",
			Fingerprint: ledger.NewDigest([]byte("content")),
			CreatedAt:   created,
		}
		if err := reg.CreateDocument(doc); err != nil {
			t.Fatalf("CreateDocument() error = %v", err)
		}

		got, err := reg.FindDocument(doc.ID)
		if err != nil {
			t.Fatalf("FindDocument() error = %v", err)
		}
		if got.Title != doc.Title || got.ContentType != doc.ContentType {
			t.Errorf("FindDocument() = %+v, want %+v", got, doc)
		}
		if got.Fingerprint != doc.Fingerprint {
			t.Error("Fingerprint does not round trip")
		}
		if !got.CreatedAt.Equal(created) {
			t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, created)
		}

		if err := reg.CreateDocument(doc); !errors.Is(err, evault.ErrDuplicateDocument) {
			t.Errorf("CreateDocument() error = %v, want ErrDuplicateDocument", err)
		}
		if _, err := reg.FindDocument("nope"); !errors.Is(err, evault.ErrNotFound) {
			t.Errorf("FindDocument(unknown) error = %v, want ErrNotFound", err)
		}
	})

	t.Run("blocks", func(t *testing.T) {
		t.Parallel()
		reg := newRegistry(t)

		chain := ledger.NewChain(created)
		if err := reg.AppendBlock(chain.Head()); err != nil {
			t.Fatalf("AppendBlock(genesis) error = %v", err)
		}
		block, err := chain.Append(created.Add(time.Minute), ledger.Transaction{
			Kind:        ledger.KindUpload,
			DocumentID:  "doc-1",
			Actor:       "alice",
			Timestamp:   created.UnixNano(),
			Fingerprint: ledger.NewDigest([]byte("content")),
		})
		if err != nil {
			t.Fatalf("Append() error = %v", err)
		}
		if err := reg.AppendBlock(block); err != nil {
			t.Fatalf("AppendBlock() error = %v", err)
		}

		t.Run("duplicate index rejected", func(t *testing.T) {
			if err := reg.AppendBlock(block); err == nil {
				t.Error("AppendBlock() accepted a duplicate index")
			}
		})

		t.Run("list reloads a verifiable chain", func(t *testing.T) {
			blocks, err := reg.ListBlocks()
			if err != nil {
				t.Fatalf("ListBlocks() error = %v", err)
			}
			if len(blocks) != 2 {
				t.Fatalf("ListBlocks() returned %d blocks, want 2", len(blocks))
			}

			loaded, err := ledger.Load(blocks)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if loaded.Head().Digest != block.Digest {
				t.Error("reloaded head digest differs")
			}
			if len(loaded.Head().Transactions) != 1 {
				t.Fatalf("reloaded head has %d transactions, want 1", len(loaded.Head().Transactions))
			}
			tx := loaded.Head().Transactions[0]
			if tx.Kind != ledger.KindUpload || tx.Actor != "alice" {
				t.Errorf("reloaded transaction = %+v", tx)
			}
		})
	})
}

func TestMemoryRegistry(t *testing.T) {
	t.Parallel()
	registryTests(t, func(t *testing.T) evault.Registry {
		return testutil.NewTestRegistry()
	})
}

func TestSQLiteRegistry(t *testing.T) {
	t.Parallel()
	registryTests(t, testutil.NewSQLiteTestRegistry)
}
