package database

import (
	"encoding/hex"

	"github.com/hashline/powchain/foundation/blockchain/merkle"
	"github.com/hashline/powchain/foundation/blockchain/signature"
)

// txHashable adapts Tx to the merkle package's Hashable constraint. It
// exists only so the debug surface can report a merkle root over a block's
// transactions; the root itself is not part of the block hash.
type txHashable struct {
	tx Tx
}

func (h txHashable) Hash() ([]byte, error) {
	return hex.DecodeString(h.tx.Hash())
}

func (h txHashable) Equals(other txHashable) bool {
	return h.tx.Equals(other.tx)
}

// MerkleRoot returns the hex-encoded merkle root over the block's
// transactions, for diagnostic display only. Consensus never depends on
// this value; the block hash covers the transaction list directly.
func (b Block) MerkleRoot() (string, error) {
	if len(b.Transactions) == 0 {
		return signature.ZeroHash, nil
	}

	values := make([]txHashable, len(b.Transactions))
	for i, tx := range b.Transactions {
		values[i] = txHashable{tx: tx}
	}

	tree, err := merkle.NewTree(values)
	if err != nil {
		return "", err
	}

	return hex.EncodeToString(tree.MerkleRoot), nil
}
