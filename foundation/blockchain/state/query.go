package state

import (
	"errors"

	"github.com/hashline/powchain/foundation/blockchain/database"
)

// ErrAccountNotFound is returned when a queried account has never received
// or sent value.
var ErrAccountNotFound = errors.New("account not found")

// =============================================================================

// GetBalance returns the account's current balance.
func (s *State) GetBalance(account database.AccountID) uint64 {
	return s.db.GetBalance(account)
}

// QueryAccount returns a copy of the account's balance record.
func (s *State) QueryAccount(account database.AccountID) (database.Account, error) {
	accounts := s.db.CopyAccounts()

	if info, exists := accounts[account]; exists {
		return info, nil
	}

	return database.Account{}, ErrAccountNotFound
}

// QueryMempoolLength returns the current length of the pending pool.
func (s *State) QueryMempoolLength() int {
	return s.mempool.Count()
}

// QueryBlocksByNumber returns the inclusive range of blocks [from, to] by
// index.
func (s *State) QueryBlocksByNumber(from uint64, to uint64) []database.Block {
	blocks := s.db.CopyBlocks()

	var out []database.Block
	for _, block := range blocks {
		if block.Index >= from && block.Index <= to {
			out = append(out, block)
		}
	}

	return out
}

// QueryBlocksByAccount returns every block containing a transaction that
// sends from, or receives into, accountID. An empty accountID returns every
// block.
func (s *State) QueryBlocksByAccount(accountID database.AccountID) []database.Block {
	blocks := s.db.CopyBlocks()

	if accountID == "" {
		return blocks
	}

	var out []database.Block
	for _, block := range blocks {
		for _, tx := range block.Transactions {
			if tx.From == accountID || tx.To == accountID {
				out = append(out, block)
				break
			}
		}
	}

	return out
}
