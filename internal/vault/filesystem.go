package vault

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"evault-go/internal/evault"
)

// FileSystemVault is a filesystem-based implementation of the Vault
// interface. Ciphertext is stored one file per document:
//
//	<root>/
//	  content/
//	    <documentID>
type FileSystemVault struct {
	name       string
	root       string
	contentDir string
}

var _ evault.Vault = (*FileSystemVault)(nil)

// NewFileSystemVault creates a new filesystem vault rooted at the given path.
func NewFileSystemVault(name, root string) (*FileSystemVault, error) {
	contentDir := filepath.Join(root, "content")
	if err := os.MkdirAll(contentDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create content directory: %w", err)
	}

	return &FileSystemVault{
		name:       name,
		root:       root,
		contentDir: contentDir,
	}, nil
}

// PutContent stores ciphertext for a document. Content is write-once:
// an existing document ID is rejected, since document content never
// changes after upload.
func (v *FileSystemVault) PutContent(documentID string, r io.Reader, size int64) error {
	destPath := filepath.Join(v.contentDir, documentID)

	if _, err := os.Stat(destPath); err == nil {
		return fmt.Errorf("content for %s: %w", documentID, evault.ErrDuplicateDocument)
	}

	tmpPath := destPath + ".tmp"
	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return fmt.Errorf("creating content file: %w", err)
	}

	written, err := io.Copy(f, r)
	if err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing content: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing content file: %w", err)
	}
	if written != size {
		os.Remove(tmpPath)
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, written)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("finalizing content file: %w", err)
	}
	return nil
}

// GetContent retrieves ciphertext by document ID and writes it to w.
func (v *FileSystemVault) GetContent(documentID string, w io.Writer) error {
	f, err := os.Open(filepath.Join(v.contentDir, documentID))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("content for %s: %w", documentID, evault.ErrNotFound)
		}
		return fmt.Errorf("opening content: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("reading content: %w", err)
	}
	return nil
}

// HasContent reports whether ciphertext exists for the document ID.
func (v *FileSystemVault) HasContent(documentID string) (bool, error) {
	_, err := os.Stat(filepath.Join(v.contentDir, documentID))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("checking content: %w", err)
	}
	return true, nil
}

// ValidateSetup verifies that the vault directories are accessible.
func (v *FileSystemVault) ValidateSetup() error {
	info, err := os.Stat(v.root)
	if err != nil {
		return fmt.Errorf("vault root not accessible: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("vault root is not a directory: %s", v.root)
	}
	if _, err := os.Stat(v.contentDir); err != nil {
		return fmt.Errorf("vault content directory not accessible: %w", err)
	}
	return nil
}
