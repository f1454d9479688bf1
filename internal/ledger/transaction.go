package ledger

import "fmt"

// Kind identifies the custody event a transaction records.
type Kind int

const (
	// KindUpload records a document entering the vault under its first owner.
	KindUpload Kind = iota + 1
	// KindTransfer records an ownership change from Actor to Recipient.
	KindTransfer
)

func (k Kind) String() string {
	switch k {
	case KindUpload:
		return "upload"
	case KindTransfer:
		return "transfer"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// MarshalText serializes the kind as its string name so block encodings
// stay readable and stable across versions.
func (k Kind) MarshalText() ([]byte, error) {
	switch k {
	case KindUpload, KindTransfer:
		return []byte(k.String()), nil
	default:
		return nil, fmt.Errorf("invalid transaction kind %d", int(k))
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "upload":
		*k = KindUpload
	case "transfer":
		*k = KindTransfer
	default:
		return fmt.Errorf("invalid transaction kind %q", string(text))
	}
	return nil
}

// Transaction is a single recorded custody event. It is immutable once
// sealed into a block; the ledger only ever hands out copies.
type Transaction struct {
	Kind        Kind   `json:"kind"`
	DocumentID  string `json:"document_id"`
	Actor       string `json:"actor"`
	Recipient   string `json:"recipient,omitempty"` // Transfer only
	Timestamp   int64  `json:"timestamp"`           // unix nanoseconds
	Fingerprint Digest `json:"fingerprint"`
}

// Owner returns the user that holds the document after this transaction.
func (t Transaction) Owner() string {
	switch t.Kind {
	case KindTransfer:
		return t.Recipient
	default:
		return t.Actor
	}
}

// Touches reports whether the transaction involves the given user as
// actor or recipient.
func (t Transaction) Touches(username string) bool {
	return t.Actor == username || (t.Kind == KindTransfer && t.Recipient == username)
}
