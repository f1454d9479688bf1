package ledger

import (
	"testing"
)

func TestDigest_RoundTrip(t *testing.T) {
	t.Parallel()
	d := NewDigest([]byte("some content"))

	parsed, err := ParseDigest(d.String())
	if err != nil {
		t.Fatalf("ParseDigest() error = %v", err)
	}
	if parsed != d {
		t.Errorf("ParseDigest(String()) = %s, want %s", parsed, d)
	}
}

func TestParseDigest_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
	}{
		{name: "empty", in: ""},
		{name: "not hex", in: "zz"},
		{name: "wrong length", in: "deadbeef"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := ParseDigest(tt.in); err == nil {
				t.Errorf("ParseDigest(%q) succeeded, want error", tt.in)
			}
		})
	}
}

func TestDigest_IsZero(t *testing.T) {
	t.Parallel()
	if !ZeroDigest.IsZero() {
		t.Error("ZeroDigest.IsZero() = false")
	}
	if NewDigest([]byte("x")).IsZero() {
		t.Error("NewDigest(x).IsZero() = true")
	}
}

func TestKind_TextRoundTrip(t *testing.T) {
	t.Parallel()

	for _, k := range []Kind{KindUpload, KindTransfer} {
		text, err := k.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%v) error = %v", k, err)
		}
		var back Kind
		if err := back.UnmarshalText(text); err != nil {
			t.Fatalf("UnmarshalText(%q) error = %v", text, err)
		}
		if back != k {
			t.Errorf("round trip of %v = %v", k, back)
		}
	}

	if _, err := Kind(0).MarshalText(); err == nil {
		t.Error("MarshalText(0) succeeded, want error")
	}
	var k Kind
	if err := k.UnmarshalText([]byte("mint")); err == nil {
		t.Error("UnmarshalText(mint) succeeded, want error")
	}
}

func TestBlock_ComputeDigest_Deterministic(t *testing.T) {
	t.Parallel()
	b := Block{
		Index:     1,
		Timestamp: testGenesisTime.UnixNano(),
		Transactions: []Transaction{
			uploadTx("doc", "alice", testGenesisTime),
		},
		Prev: NewDigest([]byte("prev")),
	}

	first := b.ComputeDigest()
	if first != b.ComputeDigest() {
		t.Error("ComputeDigest() is not deterministic")
	}

	b.Timestamp++
	if b.ComputeDigest() == first {
		t.Error("ComputeDigest() unchanged after mutating the block")
	}
}
