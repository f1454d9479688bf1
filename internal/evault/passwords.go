package evault

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// argon2id parameters for password hashing.
const (
	saltLength     = 16
	argonTime      = 1
	argonMemory    = 64 * 1024 // KiB
	argonThreads   = 4
	argonKeyLength = 32
)

// NewSalt returns a fresh random per-user salt. Salts are generated at
// registration (and password change) and never reused across users.
func NewSalt() ([]byte, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generating salt: %w", err)
	}
	return salt, nil
}

// HashPassword derives an argon2id hash from the password and salt.
func HashPassword(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLength)
}

// VerifyPassword reports whether the candidate password hashes to the
// stored value, in constant time.
func VerifyPassword(passwordHash []byte, password string, salt []byte) bool {
	candidate := HashPassword(password, salt)
	return subtle.ConstantTimeCompare(passwordHash, candidate) == 1
}
