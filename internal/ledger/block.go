package ledger

import (
	"encoding/json"
	"fmt"
)

// Block is a sealed, hash-linked container of one or more transactions.
// Index 0 is the genesis block: no transactions, zero previous digest.
type Block struct {
	Index        uint64        `json:"index"`
	Timestamp    int64         `json:"timestamp"` // unix nanoseconds
	Transactions []Transaction `json:"transactions"`
	Prev         Digest        `json:"prev"`
	Digest       Digest        `json:"digest"`
}

// blockPayload is the canonical encoding hashed to produce a block
// digest. It mirrors Block without the digest itself; struct field
// order fixes the byte layout, so the encoding is deterministic.
type blockPayload struct {
	Index        uint64        `json:"index"`
	Timestamp    int64         `json:"timestamp"`
	Transactions []Transaction `json:"transactions"`
	Prev         Digest        `json:"prev"`
}

// ComputeDigest recomputes the block digest from its stored fields.
// The result only matches b.Digest if no field was altered after sealing.
func (b Block) ComputeDigest() Digest {
	payload, err := json.Marshal(blockPayload{
		Index:        b.Index,
		Timestamp:    b.Timestamp,
		Transactions: b.Transactions,
		Prev:         b.Prev,
	})
	if err != nil {
		// Transactions contain only plain data; encoding cannot fail.
		panic(fmt.Sprintf("encoding block %d: %v", b.Index, err))
	}
	return NewDigest(payload)
}

// clone returns a deep copy so callers cannot mutate sealed state
// through a shared transaction slice.
func (b Block) clone() Block {
	c := b
	c.Transactions = append([]Transaction(nil), b.Transactions...)
	return c
}
