package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DigestLength is the number of bytes in a digest.
const DigestLength = 32

// Digest is a SHA-256 fingerprint. It is used both for content
// fingerprints and for block linkage, so any single-bit change to the
// hashed input produces an unrelated digest.
type Digest [DigestLength]byte

// ZeroDigest is the previous-digest sentinel carried by the genesis block.
var ZeroDigest = Digest{}

// NewDigest computes the digest of a byte slice.
func NewDigest(data []byte) Digest {
	return Digest(sha256.Sum256(data))
}

// ParseDigest decodes a digest from its hex representation.
func ParseDigest(s string) (Digest, error) {
	var d Digest
	raw, err := hex.DecodeString(s)
	if err != nil {
		return d, fmt.Errorf("parsing digest: %w", err)
	}
	if len(raw) != DigestLength {
		return d, fmt.Errorf("parsing digest: expected %d bytes, got %d", DigestLength, len(raw))
	}
	copy(d[:], raw)
	return d, nil
}

func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// IsZero reports whether the digest is the all-zero sentinel.
func (d Digest) IsZero() bool {
	return d == ZeroDigest
}

// MarshalText implements encoding.TextMarshaler so digests serialize as
// hex strings in JSON.
func (d Digest) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Digest) UnmarshalText(text []byte) error {
	parsed, err := ParseDigest(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
