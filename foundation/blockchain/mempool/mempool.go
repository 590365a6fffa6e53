// Package mempool maintains the pool of validated transactions waiting to
// be drained into a block.
package mempool

import (
	"sync"

	"github.com/hashline/powchain/foundation/blockchain/database"
)

// Mempool represents a cache of pending, unordered transactions keyed by
// their tx_hash.
type Mempool struct {
	mu   sync.RWMutex
	pool map[string]database.Tx
}

// New constructs an empty mempool.
func New() *Mempool {
	return &Mempool{
		pool: make(map[string]database.Tx),
	}
}

// Count returns the current number of transactions in the pool.
func (mp *Mempool) Count() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return len(mp.pool)
}

// Has reports whether a transaction with this hash is already pooled.
func (mp *Mempool) Has(hash string) bool {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	_, exists := mp.pool[hash]
	return exists
}

// Upsert adds a transaction to the pool, keyed by its own hash. A
// transaction that is already pooled is a no-op.
func (mp *Mempool) Upsert(tx database.Tx) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool[tx.Hash()] = tx
}

// Delete removes a transaction from the pool by hash.
func (mp *Mempool) Delete(hash string) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	delete(mp.pool, hash)
}

// Copy returns every currently pooled transaction without removing them.
// The order of the returned slice is unspecified.
func (mp *Mempool) Copy() []database.Tx {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	txs := make([]database.Tx, 0, len(mp.pool))
	for _, tx := range mp.pool {
		txs = append(txs, tx)
	}
	return txs
}

// Drain removes and returns every transaction currently pooled. The order
// of the returned slice is unspecified; callers that need a stable block
// ordering should sort it themselves.
func (mp *Mempool) Drain() []database.Tx {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	txs := make([]database.Tx, 0, len(mp.pool))
	for _, tx := range mp.pool {
		txs = append(txs, tx)
	}

	mp.pool = make(map[string]database.Tx)
	return txs
}

// Truncate clears every transaction from the pool.
func (mp *Mempool) Truncate() {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool = make(map[string]database.Tx)
}

// RemoveIncluded drops every pooled transaction whose hash appears in
// hashes. Used after replace_chain to purge pending entries the new chain
// already contains.
func (mp *Mempool) RemoveIncluded(hashes map[string]struct{}) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	for hash := range hashes {
		delete(mp.pool, hash)
	}
}

// Filter removes every pooled transaction for which keep returns false. It
// is used after replace_chain to drop pending transactions that no longer
// verify against the new balance view.
func (mp *Mempool) Filter(keep func(database.Tx) bool) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	for hash, tx := range mp.pool {
		if !keep(tx) {
			delete(mp.pool, hash)
		}
	}
}
