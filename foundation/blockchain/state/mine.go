package state

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashline/powchain/foundation/blockchain/database"
)

// ErrChainEmpty is returned when an operation requires a tip but the chain
// has not been given a genesis block yet.
var ErrChainEmpty = errors.New("chain has no genesis block")

// ErrAlreadyGenesis is returned when create_genesis is called on a chain
// that already has blocks.
var ErrAlreadyGenesis = errors.New("chain already has a genesis block")

// =============================================================================

// CreateGenesis builds and mines the genesis block and pushes it as the
// chain's only block. It fails if the chain already has a tip.
func (s *State) CreateGenesis() (database.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db.Height() != 0 {
		return database.Block{}, ErrAlreadyGenesis
	}

	block := s.genesis.Block(time.Now())

	if err := database.Mine(context.Background(), &block, database.EventHandler(s.evHandler)); err != nil {
		return database.Block{}, err
	}

	if err := s.db.AppendBlock(block); err != nil {
		return database.Block{}, err
	}

	s.evHandler("state: CreateGenesis: pushed genesis block[%s]", block.Hash)

	return block, nil
}

// MinePending builds a new block from the coinbase reward plus a greedily
// selected subset of the pending pool, mines it, and appends it to the
// chain. Selection walks the drained pool in order against a running
// balance snapshot seeded from the current account state: a transaction
// that doesn't verify or would overdraw its sender against that running
// balance is dropped for good, never requeued, so a double-spend or a
// forged transfer can't wedge the pool into being drained and rejected on
// every mining attempt. Only the transactions actually selected for this
// block are restored to the pool if mining is subsequently cancelled or
// the mined block fails to append.
func (s *State) MinePending(ctx context.Context, minerAccount database.AccountID) (database.Block, error) {
	s.evHandler("state: MinePending: MINING: check chain has a tip")

	s.mu.Lock()
	tip := s.db.LatestBlock()
	if tip.Hash == "" {
		s.mu.Unlock()
		return database.Block{}, ErrChainEmpty
	}

	pending := s.mempool.Drain()
	balances := s.db.CopyAccounts()
	s.mu.Unlock()

	selected := make([]database.Tx, 0, len(pending))
	for _, tx := range pending {
		if !tx.Verify() {
			s.evHandler("state: MinePending: MINING: drop tx[%s]: does not verify", tx.Hash())
			continue
		}

		from := balances[tx.From]
		if from.Balance < tx.Amount {
			s.evHandler("state: MinePending: MINING: drop tx[%s]: insufficient balance", tx.Hash())
			continue
		}

		to := balances[tx.To]
		from.Balance -= tx.Amount
		to.Balance += tx.Amount
		balances[tx.From] = from
		balances[tx.To] = to

		selected = append(selected, tx)
	}

	txs := make([]database.Tx, 0, len(selected)+1)
	txs = append(txs, database.NewCoinbase(minerAccount, time.Now()))
	txs = append(txs, selected...)

	s.evHandler("state: MinePending: MINING: perform proof of work: txs[%d]", len(txs))

	block := database.NewBlock(tip.Index+1, txs, tip.Hash, s.genesis.Difficulty, time.Now())
	if err := database.Mine(ctx, &block, database.EventHandler(s.evHandler)); err != nil {
		for _, tx := range selected {
			s.mempool.Upsert(tx)
		}
		return database.Block{}, err
	}

	if err := ctx.Err(); err != nil {
		for _, tx := range selected {
			s.mempool.Upsert(tx)
		}
		return database.Block{}, err
	}

	s.mu.Lock()
	currentTip := s.db.LatestBlock()
	if err := validateNextBlock(block, currentTip, s.genesis.Difficulty); err != nil {
		s.mu.Unlock()
		for _, tx := range selected {
			s.mempool.Upsert(tx)
		}
		return database.Block{}, fmt.Errorf("chain tip advanced while mining, discarding candidate: %w", err)
	}

	err := s.db.AppendBlock(block)
	s.mu.Unlock()

	if err != nil {
		for _, tx := range selected {
			s.mempool.Upsert(tx)
		}
		return database.Block{}, err
	}

	s.evHandler("state: MinePending: MINING: mined block[%d] hash[%s]", block.Index, block.Hash)

	return block, nil
}

// AddBlock accepts a block proposed by a peer. It is accepted only when it
// extends the current tip: has a valid proof of work, the correct index and
// previous_hash, a well-formed coinbase, and every transfer verifies and
// leaves no sender with a negative balance. On success the pending entries
// it consumed are dropped and mining is signalled to restart against the
// new tip.
func (s *State) AddBlock(block database.Block) error {
	s.evHandler("state: AddBlock: started: blk[%d]: hash[%s]", block.Index, block.Hash)
	defer s.evHandler("state: AddBlock: completed: blk[%d]", block.Index)

	// Registered first so it runs last: after the chain lock is released and
	// the cancelled miner has acknowledged, since SignalStartMining takes
	// the chain lock itself.
	accepted := false
	defer func() {
		if accepted && s.Worker != nil {
			s.Worker.SignalStartMining()
		}
	}()

	if s.Worker != nil {
		done := s.Worker.SignalCancelMining()
		defer done()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tip := s.db.LatestBlock()

	if err := validateNextBlock(block, tip, s.genesis.Difficulty); err != nil {
		return err
	}

	if err := s.db.AppendBlock(block); err != nil {
		return err
	}

	included := make(map[string]struct{}, len(block.Transactions))
	for _, tx := range block.Transactions {
		included[tx.Hash()] = struct{}{}
	}
	s.mempool.RemoveIncluded(included)

	accepted = true

	return nil
}

// validateNextBlock checks the rules that only apply to a block extending
// the current tip: linkage and index, on top of the block's own proof of
// work, coinbase shape, and non-coinbase transaction validity.
func validateNextBlock(block, tip database.Block, difficulty uint) error {
	if !block.IsValid(difficulty) {
		return errors.New("block hash does not satisfy difficulty or does not match its fields")
	}

	if block.Index != tip.Index+1 {
		return errors.New("block index does not extend the current tip")
	}

	if block.PreviousHash != tip.Hash {
		return errors.New("block previous_hash does not match the current tip")
	}

	if err := block.ValidateCoinbase(); err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(block.Transactions))
	seen[block.Transactions[0].Hash()] = struct{}{}

	for _, tx := range block.Transactions[1:] {
		if tx.Kind != database.KindTransfer {
			return errors.New("non-coinbase transaction is not a transfer")
		}

		hash := tx.Hash()
		if _, dup := seen[hash]; dup {
			return errors.New("block contains a duplicate transaction")
		}
		seen[hash] = struct{}{}

		if !tx.Verify() {
			return errors.New("transaction does not verify")
		}
	}

	return nil
}
