// Package ledger implements the append-only, hash-linked custody ledger.
// A Chain is built once from persisted blocks (or starts at genesis),
// grows only through Seal/Commit, and can always prove that no sealed
// block was altered after the fact.
package ledger

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrEmptyBlock is returned when sealing a block with no transactions.
	ErrEmptyBlock = errors.New("block must contain at least one transaction")

	// ErrUnknownDocument is returned when no transaction references the document.
	ErrUnknownDocument = errors.New("document not recorded in ledger")

	// ErrBrokenLink is returned when committing a block that does not
	// extend the current head.
	ErrBrokenLink = errors.New("block does not extend chain head")
)

// Report is the result of a full chain verification walk.
type Report struct {
	Blocks   int    // number of blocks examined
	BadIndex int    // index of the first inconsistent block, -1 if none
	Reason   string // human-readable description of the first failure
}

// Ok reports whether verification found no inconsistency.
func (r Report) Ok() bool { return r.BadIndex < 0 }

func (r Report) String() string {
	if r.Ok() {
		return fmt.Sprintf("chain valid (%d blocks)", r.Blocks)
	}
	return fmt.Sprintf("chain invalid at block %d: %s", r.BadIndex, r.Reason)
}

// Chain is the ordered sequence of sealed blocks. It is not safe for
// concurrent use; callers serialize access (the service layer holds a
// single writer lock).
type Chain struct {
	blocks []Block
}

// NewChain creates a chain holding only the genesis block.
func NewChain(genesisTime time.Time) *Chain {
	genesis := Block{
		Index:     0,
		Timestamp: genesisTime.UnixNano(),
		Prev:      ZeroDigest,
	}
	genesis.Digest = genesis.ComputeDigest()
	return &Chain{blocks: []Block{genesis}}
}

// Load rebuilds a chain from persisted blocks and verifies it before
// accepting. A tampered or out-of-order block set is rejected so callers
// can fail fast instead of appending on top of corrupted history.
func Load(blocks []Block) (*Chain, error) {
	if len(blocks) == 0 {
		return nil, errors.New("loading chain: no blocks (missing genesis)")
	}
	c := &Chain{blocks: make([]Block, 0, len(blocks))}
	for _, b := range blocks {
		c.blocks = append(c.blocks, b.clone())
	}
	if report := c.Verify(); !report.Ok() {
		return nil, fmt.Errorf("loading chain: %s", report)
	}
	return c, nil
}

// Head returns a copy of the most recently sealed block.
func (c *Chain) Head() Block {
	return c.blocks[len(c.blocks)-1].clone()
}

// Len returns the number of blocks including genesis.
func (c *Chain) Len() int { return len(c.blocks) }

// Blocks returns a copy of every block in order, for persistence and
// inspection. Mutating the result does not affect the chain.
func (c *Chain) Blocks() []Block {
	out := make([]Block, 0, len(c.blocks))
	for _, b := range c.blocks {
		out = append(out, b.clone())
	}
	return out
}

// Seal builds the next block from the given transactions without
// appending it. The caller persists the block and then calls Commit, so
// a failed write leaves the in-memory chain untouched.
func (c *Chain) Seal(ts time.Time, txs ...Transaction) (Block, error) {
	if len(txs) == 0 {
		return Block{}, ErrEmptyBlock
	}
	head := c.blocks[len(c.blocks)-1]
	b := Block{
		Index:        head.Index + 1,
		Timestamp:    ts.UnixNano(),
		Transactions: append([]Transaction(nil), txs...),
		Prev:         head.Digest,
	}
	b.Digest = b.ComputeDigest()
	return b, nil
}

// Commit appends a previously sealed block. It rejects blocks that do
// not extend the current head or whose digest does not recompute.
func (c *Chain) Commit(b Block) error {
	head := c.blocks[len(c.blocks)-1]
	if b.Index != head.Index+1 || b.Prev != head.Digest {
		return fmt.Errorf("committing block %d: %w", b.Index, ErrBrokenLink)
	}
	if b.ComputeDigest() != b.Digest {
		return fmt.Errorf("committing block %d: digest does not recompute", b.Index)
	}
	c.blocks = append(c.blocks, b.clone())
	return nil
}

// Append seals and commits in one step. This is the only chain mutation
// besides Commit; sealed blocks are never edited or removed.
func (c *Chain) Append(ts time.Time, txs ...Transaction) (Block, error) {
	b, err := c.Seal(ts, txs...)
	if err != nil {
		return Block{}, err
	}
	if err := c.Commit(b); err != nil {
		return Block{}, err
	}
	return b, nil
}

// Verify walks the chain once, recomputing every digest and checking
// linkage. It reports the first inconsistent index; any later damage is
// implied, since each digest covers the previous one.
func (c *Chain) Verify() Report {
	report := Report{Blocks: len(c.blocks), BadIndex: -1}
	for i, b := range c.blocks {
		if b.Index != uint64(i) {
			report.BadIndex = i
			report.Reason = fmt.Sprintf("stored index %d at position %d", b.Index, i)
			return report
		}
		if i == 0 {
			if !b.Prev.IsZero() {
				report.BadIndex = 0
				report.Reason = "genesis previous digest is not zero"
				return report
			}
		} else if b.Prev != c.blocks[i-1].Digest {
			report.BadIndex = i
			report.Reason = "previous digest does not match prior block"
			return report
		}
		if b.ComputeDigest() != b.Digest {
			report.BadIndex = i
			report.Reason = "stored digest does not recompute"
			return report
		}
	}
	return report
}

// ResolveOwner replays the chain in block order and returns the current
// owner of the document: the most recent upload or transfer wins.
func (c *Chain) ResolveOwner(documentID string) (string, error) {
	owner := ""
	for _, b := range c.blocks {
		for _, tx := range b.Transactions {
			if tx.DocumentID == documentID {
				owner = tx.Owner()
			}
		}
	}
	if owner == "" {
		return "", fmt.Errorf("resolving owner of %s: %w", documentID, ErrUnknownDocument)
	}
	return owner, nil
}

// History returns every transaction touching the document in
// chronological order, without collapsing to a single result.
func (c *Chain) History(documentID string) []Transaction {
	var out []Transaction
	for _, b := range c.blocks {
		for _, tx := range b.Transactions {
			if tx.DocumentID == documentID {
				out = append(out, tx)
			}
		}
	}
	return out
}

// OwnedBy returns the documents currently owned by the user, ordered by
// first appearance in the chain.
func (c *Chain) OwnedBy(username string) []string {
	owners := make(map[string]string)
	var order []string
	for _, b := range c.blocks {
		for _, tx := range b.Transactions {
			if _, seen := owners[tx.DocumentID]; !seen {
				order = append(order, tx.DocumentID)
			}
			owners[tx.DocumentID] = tx.Owner()
		}
	}
	var out []string
	for _, id := range order {
		if owners[id] == username {
			out = append(out, id)
		}
	}
	return out
}

// TransactionsByUser returns every transaction where the user acted or
// received, in chronological order.
func (c *Chain) TransactionsByUser(username string) []Transaction {
	var out []Transaction
	for _, b := range c.blocks {
		for _, tx := range b.Transactions {
			if tx.Touches(username) {
				out = append(out, tx)
			}
		}
	}
	return out
}

// BlockByDigest returns the block with the given digest, if any.
func (c *Chain) BlockByDigest(d Digest) (Block, bool) {
	for _, b := range c.blocks {
		if b.Digest == d {
			return b.clone(), true
		}
	}
	return Block{}, false
}
