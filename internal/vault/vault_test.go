package vault

import (
	"bytes"
	"errors"
	"testing"

	"evault-go/internal/evault"
)

// vaultTests runs the shared conformance suite against a Vault
// implementation.
func vaultTests(t *testing.T, newVault func(t *testing.T) evault.Vault) {
	t.Run("put and get", func(t *testing.T) {
		t.Parallel()
		v := newVault(t)
		content := []byte("ciphertext bytes")

		if err := v.PutContent("doc-1", bytes.NewReader(content), int64(len(content))); err != nil {
			t.Fatalf("PutContent() error = %v", err)
		}

		var got bytes.Buffer
		if err := v.GetContent("doc-1", &got); err != nil {
			t.Fatalf("GetContent() error = %v", err)
		}
		if !bytes.Equal(got.Bytes(), content) {
			t.Errorf("GetContent() = %q, want %q", got.Bytes(), content)
		}
	})

	t.Run("write once", func(t *testing.T) {
		t.Parallel()
		v := newVault(t)
		content := []byte("first write")

		if err := v.PutContent("doc-1", bytes.NewReader(content), int64(len(content))); err != nil {
			t.Fatalf("PutContent() error = %v", err)
		}
		err := v.PutContent("doc-1", bytes.NewReader([]byte("second write")), 12)
		if !errors.Is(err, evault.ErrDuplicateDocument) {
			t.Errorf("second PutContent() error = %v, want ErrDuplicateDocument", err)
		}

		// The original content is untouched.
		var got bytes.Buffer
		if err := v.GetContent("doc-1", &got); err != nil {
			t.Fatalf("GetContent() error = %v", err)
		}
		if !bytes.Equal(got.Bytes(), content) {
			t.Errorf("GetContent() = %q, want %q", got.Bytes(), content)
		}
	})

	t.Run("get unknown", func(t *testing.T) {
		t.Parallel()
		v := newVault(t)
		if err := v.GetContent("nope", &bytes.Buffer{}); !errors.Is(err, evault.ErrNotFound) {
			t.Errorf("GetContent() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("has content", func(t *testing.T) {
		t.Parallel()
		v := newVault(t)

		ok, err := v.HasContent("doc-1")
		if err != nil {
			t.Fatalf("HasContent() error = %v", err)
		}
		if ok {
			t.Error("HasContent() = true before put")
		}

		if err := v.PutContent("doc-1", bytes.NewReader([]byte("x")), 1); err != nil {
			t.Fatalf("PutContent() error = %v", err)
		}
		ok, err = v.HasContent("doc-1")
		if err != nil {
			t.Fatalf("HasContent() error = %v", err)
		}
		if !ok {
			t.Error("HasContent() = false after put")
		}
	})

	t.Run("validate setup", func(t *testing.T) {
		t.Parallel()
		v := newVault(t)
		if err := v.ValidateSetup(); err != nil {
			t.Errorf("ValidateSetup() error = %v", err)
		}
	})
}

func TestMemoryVault(t *testing.T) {
	t.Parallel()
	vaultTests(t, func(t *testing.T) evault.Vault {
		return NewMemoryVault("test-vault")
	})
}

func TestFileSystemVault(t *testing.T) {
	t.Parallel()
	vaultTests(t, func(t *testing.T) evault.Vault {
		t.Helper()
		v, err := NewFileSystemVault("test-vault", t.TempDir())
		if err != nil {
			t.Fatalf("NewFileSystemVault() error = %v", err)
		}
		return v
	})
}

func TestFileSystemVault_SizeMismatch(t *testing.T) {
	t.Parallel()
	v, err := NewFileSystemVault("test-vault", t.TempDir())
	if err != nil {
		t.Fatalf("NewFileSystemVault() error = %v", err)
	}

	content := []byte("short")
	if err := v.PutContent("doc-1", bytes.NewReader(content), int64(len(content))+10); err == nil {
		t.Error("PutContent() accepted a size mismatch")
	}

	// The failed write must not leave content behind.
	ok, err := v.HasContent("doc-1")
	if err != nil {
		t.Fatalf("HasContent() error = %v", err)
	}
	if ok {
		t.Error("HasContent() = true after failed put")
	}
}

func TestMemoryVault_Corrupt(t *testing.T) {
	t.Parallel()
	v := NewMemoryVault("test-vault")

	if err := v.PutContent("doc-1", bytes.NewReader([]byte("original")), 8); err != nil {
		t.Fatalf("PutContent() error = %v", err)
	}
	v.Corrupt("doc-1", []byte("tampered"))

	var got bytes.Buffer
	if err := v.GetContent("doc-1", &got); err != nil {
		t.Fatalf("GetContent() error = %v", err)
	}
	if got.String() != "tampered" {
		t.Errorf("GetContent() = %q after Corrupt, want %q", got.String(), "tampered")
	}
}
