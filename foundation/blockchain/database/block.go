package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashline/powchain/foundation/blockchain/signature"
)

// EventHandler defines a function that is called when events occur in the
// processing of mining and validating blocks.
type EventHandler func(v string, args ...any)

// Block represents a group of transactions batched together, along with the
// proof-of-work metadata required to link it to its parent.
type Block struct {
	Index        uint64 `json:"index"`
	Timestamp    uint64 `json:"timestamp"`
	Transactions []Tx   `json:"transactions"`
	PreviousHash string `json:"previous_hash"`
	Nonce        uint64 `json:"nonce"`
	Difficulty   uint   `json:"difficulty"`
	Hash         string `json:"hash"`
}

// hashable is the exact field set and order the spec assigns to a block's
// hash: index, timestamp, transactions, previous_hash, nonce, difficulty.
type hashable struct {
	Index        uint64
	Timestamp    uint64
	Transactions []Tx
	PreviousHash string
	Nonce        uint64
	Difficulty   uint
}

func (b Block) hashable() hashable {
	return hashable{
		Index:        b.Index,
		Timestamp:    b.Timestamp,
		Transactions: b.Transactions,
		PreviousHash: b.PreviousHash,
		Nonce:        b.Nonce,
		Difficulty:   b.Difficulty,
	}
}

// calculateHash recomputes the block's hash from its current fields.
func (b Block) calculateHash() string {
	return signature.Hash(b.hashable())
}

// NewBlock constructs an unmined block: timestamp is set to now, nonce starts at
// zero, and the hash reflects that starting nonce.
func NewBlock(index uint64, transactions []Tx, previousHash string, difficulty uint, now time.Time) Block {
	b := Block{
		Index:        index,
		Timestamp:    uint64(now.UTC().Unix()),
		Transactions: transactions,
		PreviousHash: previousHash,
		Nonce:        0,
		Difficulty:   difficulty,
	}
	b.Hash = b.calculateHash()

	return b
}

// Mine increments the block's nonce until its hash satisfies the
// difficulty, or ctx is cancelled. Cancellation is checked on every
// attempt so a losing race against another miner can abandon the template
// immediately.
func Mine(ctx context.Context, b *Block, ev EventHandler) error {
	if ev == nil {
		ev = func(string, ...any) {}
	}

	ev("database: Mine: blk[%d]: started", b.Index)
	defer ev("database: Mine: blk[%d]: completed", b.Index)

	var attempts uint64
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		attempts++
		if attempts%1_000_000 == 0 {
			ev("database: Mine: blk[%d]: attempts[%d]", b.Index, attempts)
		}

		b.Hash = b.calculateHash()
		if isHashSolved(b.Difficulty, b.Hash) {
			ev("database: Mine: blk[%d]: solved: nonce[%d] hash[%s]", b.Index, b.Nonce, b.Hash)
			return nil
		}

		b.Nonce++
	}
}

// IsValid reports whether the block's stored hash matches its recomputed
// hash and satisfies the difficulty's leading-zero requirement. Linkage to
// a parent is checked by the chain, not here.
func (b Block) IsValid(difficulty uint) bool {
	if b.calculateHash() != b.Hash {
		return false
	}

	return isHashSolved(difficulty, b.Hash)
}

// isHashSolved reports whether hash has at least difficulty leading hex
// zero nibbles.
func isHashSolved(difficulty uint, hash string) bool {
	const zeros = "0000000000000000000000000000000000000000000000000000000000000000"

	if int(difficulty) > len(hash) {
		return false
	}

	return hash[:difficulty] == zeros[:difficulty]
}

// ValidateCoinbase reports whether the block's first transaction is a valid
// coinbase of exactly CoinbaseReward units, as every non-genesis block must
// have.
func (b Block) ValidateCoinbase() error {
	if len(b.Transactions) == 0 {
		return errors.New("block has no transactions, expected a leading coinbase")
	}

	coinbase := b.Transactions[0]
	if coinbase.Kind != KindCoinbase {
		return fmt.Errorf("first transaction is not a coinbase, got kind %s", coinbase.Kind)
	}

	if coinbase.Amount != CoinbaseReward {
		return fmt.Errorf("coinbase reward is wrong, got %d, expected %d", coinbase.Amount, CoinbaseReward)
	}

	return nil
}
