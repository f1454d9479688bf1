package evault

import (
	"bytes"
	"testing"
)

func TestHashPassword_VerifyPassword(t *testing.T) {
	t.Parallel()

	salt, err := NewSalt()
	if err != nil {
		t.Fatalf("NewSalt() error = %v", err)
	}
	hash := HashPassword("correct horse", salt)

	if !VerifyPassword(hash, "correct horse", salt) {
		t.Error("VerifyPassword() = false for the right password")
	}
	if VerifyPassword(hash, "wrong horse", salt) {
		t.Error("VerifyPassword() = true for the wrong password")
	}
}

func TestHashPassword_SaltChangesHash(t *testing.T) {
	t.Parallel()

	salt1, err := NewSalt()
	if err != nil {
		t.Fatalf("NewSalt() error = %v", err)
	}
	salt2, err := NewSalt()
	if err != nil {
		t.Fatalf("NewSalt() error = %v", err)
	}
	if bytes.Equal(salt1, salt2) {
		t.Fatal("NewSalt() returned identical salts")
	}

	if bytes.Equal(HashPassword("pw", salt1), HashPassword("pw", salt2)) {
		t.Error("same password with different salts produced the same hash")
	}
}

func TestVerifyPassword_WrongSalt(t *testing.T) {
	t.Parallel()

	salt, err := NewSalt()
	if err != nil {
		t.Fatalf("NewSalt() error = %v", err)
	}
	other, err := NewSalt()
	if err != nil {
		t.Fatalf("NewSalt() error = %v", err)
	}

	hash := HashPassword("pw", salt)
	if VerifyPassword(hash, "pw", other) {
		t.Error("VerifyPassword() = true with the wrong salt")
	}
}
