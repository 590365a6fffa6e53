package state

import (
	"errors"

	"github.com/hashline/powchain/foundation/blockchain/database"
	"github.com/hashline/powchain/foundation/blockchain/peer"
)

// ErrAlreadyPooled is returned when a transaction's tx_hash is already
// pending or already appears in a stored block.
var ErrAlreadyPooled = errors.New("transaction already pooled or mined")

// AddKnownPeer adds a newly discovered peer, returning true if it was not
// already known.
func (s *State) AddKnownPeer(peer peer.Peer) bool {
	return s.knownPeers.Add(peer)
}

// RemoveKnownPeer drops a peer that stopped responding.
func (s *State) RemoveKnownPeer(peer peer.Peer) {
	s.knownPeers.Remove(peer)
}

// AddTransaction validates an incoming transaction and, if it is well
// formed and not a duplicate of a pooled or already-mined transaction,
// inserts it into the pending pool. It signals the miner to consider
// starting a new attempt and gossips the transaction onward.
func (s *State) AddTransaction(tx database.Tx) error {
	s.evHandler("state: AddTransaction: started: tx[%s]", tx)
	defer s.evHandler("state: AddTransaction: completed: tx[%s]", tx)

	if !tx.Verify() {
		return errors.New("transaction does not verify")
	}

	hash := tx.Hash()
	if s.mempool.Has(hash) || s.db.HasTxHash(hash) {
		return ErrAlreadyPooled
	}

	s.mempool.Upsert(tx)

	if s.Worker != nil {
		s.Worker.SignalStartMining()
	}
	s.NetSendTxToPeers(tx)

	return nil
}
