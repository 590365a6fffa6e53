package state

import (
	"errors"

	"github.com/hashline/powchain/foundation/blockchain/database"
	"github.com/hashline/powchain/foundation/blockchain/signature"
)

// ErrChainNotLonger is returned when a candidate chain is not strictly
// longer than the local chain, so it loses the longest-chain tie-break.
var ErrChainNotLonger = errors.New("candidate chain is not longer than the local chain")

// ErrChainInvalid is returned when a candidate chain fails validation.
var ErrChainInvalid = errors.New("candidate chain failed validation")

// ReplaceChain swaps in candidate as the local chain when it is strictly
// longer than the current chain and passes full validation. No mining is
// allowed to take place while the swap is in progress. Pending transactions
// already included in candidate are dropped from the pool, and any
// remaining pending transaction that no longer verifies against the new
// balances is dropped as well.
func (s *State) ReplaceChain(candidate []database.Block) error {
	s.evHandler("state: ReplaceChain: started: candidate len[%d]", len(candidate))
	defer s.evHandler("state: ReplaceChain: completed")

	// Registered first so it runs last: after the chain lock is released
	// and mining is allowed again, since SignalStartMining checks
	// IsMiningAllowed, which takes the chain lock itself.
	replaced := false
	defer func() {
		if replaced && s.Worker != nil {
			s.Worker.SignalStartMining()
		}
	}()

	s.setMiningAllowed(false)
	defer s.setMiningAllowed(true)

	if s.Worker != nil {
		done := s.Worker.SignalCancelMining()
		defer done()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	local := s.db.CopyBlocks()
	if len(candidate) <= len(local) {
		return ErrChainNotLonger
	}

	if !s.IsValidChain(candidate) {
		return ErrChainInvalid
	}

	if err := s.db.ReplaceChain(candidate); err != nil {
		return err
	}

	included := make(map[string]struct{})
	for _, block := range candidate {
		for _, tx := range block.Transactions {
			included[tx.Hash()] = struct{}{}
		}
	}
	s.mempool.RemoveIncluded(included)

	accounts := s.db.CopyAccounts()
	s.mempool.Filter(func(tx database.Tx) bool {
		if !tx.Verify() {
			return false
		}
		return accounts[tx.From].Balance >= tx.Amount
	})

	replaced = true

	return nil
}

// IsValidChain reports whether chain is a well-formed chain from genesis:
// the first block is a valid genesis block for this node's genesis
// parameters, every block satisfies its own proof of work, every block
// after genesis correctly links to and extends its parent with a proper
// coinbase, every transfer verifies, and replaying every transaction never
// drives a balance negative.
func (s *State) IsValidChain(chain []database.Block) bool {
	if len(chain) == 0 {
		return false
	}

	genesisBlock := chain[0]
	if genesisBlock.Index != 0 {
		return false
	}
	if genesisBlock.PreviousHash != signature.ZeroHash {
		return false
	}
	if len(genesisBlock.Transactions) != 0 {
		return false
	}
	if !genesisBlock.IsValid(s.genesis.Difficulty) {
		return false
	}

	for i := 1; i < len(chain); i++ {
		block := chain[i]
		parent := chain[i-1]

		if err := validateNextBlock(block, parent, s.genesis.Difficulty); err != nil {
			return false
		}
	}

	if _, err := database.ReplayBalances(chain); err != nil {
		return false
	}

	return true
}
