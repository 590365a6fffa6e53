// Package genesis describes the parameters every node needs to agree on
// before it can validate or extend a chain.
package genesis

import (
	"time"

	"github.com/hashline/powchain/foundation/blockchain/database"
	"github.com/hashline/powchain/foundation/blockchain/signature"
)

// Genesis carries the chain-wide constants a node needs before it can mine
// or validate a single block. Unlike a UTXO-style genesis file, there is no
// initial balance table: every unit of the native asset enters circulation
// through a coinbase reward.
type Genesis struct {
	Difficulty uint `json:"difficulty"`
}

// Default returns the genesis parameters a fresh network launches with.
func Default() Genesis {
	return Genesis{Difficulty: 2}
}

// Block constructs the genesis block: index zero, no transactions, and a
// previous hash of all zeros since it has no parent.
func (g Genesis) Block(now time.Time) database.Block {
	return database.NewBlock(0, nil, signature.ZeroHash, g.Difficulty, now)
}
