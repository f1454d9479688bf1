package encryption

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"filippo.io/age"

	"evault-go/internal/evault"
)

// AgeEncryptor implements evault.Encryptor using filippo.io/age with a
// single system-held X25519 identity. Documents are encrypted to the
// identity's recipient and decrypted with the identity itself; who may
// trigger a decryption is decided by the service layer, not by key
// possession, so ownership transfers never re-encrypt content.
type AgeEncryptor struct {
	identityPath string
}

var _ evault.Encryptor = (*AgeEncryptor)(nil)

// NewAgeEncryptor creates a new AgeEncryptor reading the identity from
// the given path.
func NewAgeEncryptor(identityPath string) *AgeEncryptor {
	return &AgeEncryptor{identityPath: identityPath}
}

// Setup generates the system X25519 identity. Called once during
// `evault config init`; refuses to overwrite existing key material.
func (e *AgeEncryptor) Setup() error {
	if _, err := os.Stat(e.identityPath); err == nil {
		return fmt.Errorf("identity file already exists at %s", e.identityPath)
	}

	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return fmt.Errorf("generating identity: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(e.identityPath), 0700); err != nil {
		return fmt.Errorf("creating key directory: %w", err)
	}
	if err := os.WriteFile(e.identityPath, []byte(identity.String()+"\n"), 0600); err != nil {
		return fmt.Errorf("writing identity file: %w", err)
	}
	return nil
}

// Encrypt reads plaintext from r and writes age-encrypted ciphertext to w.
func (e *AgeEncryptor) Encrypt(r io.Reader, w io.Writer) error {
	identity, err := e.loadIdentity()
	if err != nil {
		return err
	}

	encWriter, err := age.Encrypt(w, identity.Recipient())
	if err != nil {
		return fmt.Errorf("creating encrypted writer: %w", err)
	}
	if _, err := io.Copy(encWriter, r); err != nil {
		return fmt.Errorf("encrypting data: %w", err)
	}
	if err := encWriter.Close(); err != nil {
		return fmt.Errorf("finalizing encryption: %w", err)
	}
	return nil
}

// Decrypt reads ciphertext from r and writes plaintext to w. Ciphertext
// produced for a different identity, and ciphertext corrupted after the
// fact, both fail with evault.ErrDecryption.
func (e *AgeEncryptor) Decrypt(r io.Reader, w io.Writer) error {
	identity, err := e.loadIdentity()
	if err != nil {
		return err
	}

	decReader, err := age.Decrypt(r, identity)
	if err != nil {
		return fmt.Errorf("opening ciphertext: %v: %w", err, evault.ErrDecryption)
	}
	if _, err := io.Copy(w, decReader); err != nil {
		// Payload authentication failures surface during the copy.
		return fmt.Errorf("reading ciphertext: %v: %w", err, evault.ErrDecryption)
	}
	return nil
}

// IsConfigured returns true if the identity file exists.
func (e *AgeEncryptor) IsConfigured() bool {
	_, err := os.Stat(e.identityPath)
	return err == nil
}

// loadIdentity reads and parses the system identity from disk.
func (e *AgeEncryptor) loadIdentity() (*age.X25519Identity, error) {
	data, err := os.ReadFile(e.identityPath)
	if err != nil {
		return nil, fmt.Errorf("reading identity file: %w", err)
	}

	identities, err := age.ParseIdentities(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing identity file: %w", err)
	}
	if len(identities) == 0 {
		return nil, fmt.Errorf("no identities found in %s", e.identityPath)
	}

	x, ok := identities[0].(*age.X25519Identity)
	if !ok {
		return nil, fmt.Errorf("identity in %s is not an X25519 key", e.identityPath)
	}
	return x, nil
}
