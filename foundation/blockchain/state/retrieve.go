package state

import (
	"github.com/hashline/powchain/foundation/blockchain/database"
	"github.com/hashline/powchain/foundation/blockchain/genesis"
	"github.com/hashline/powchain/foundation/blockchain/peer"
)

// RetrieveHost returns the node's own host address.
func (s *State) RetrieveHost() string {
	return s.host
}

// RetrieveGenesis returns the genesis parameters this chain was started
// with.
func (s *State) RetrieveGenesis() genesis.Genesis {
	return s.genesis
}

// RetrieveLatestBlock returns a copy of the current tip. The zero Block is
// returned if the chain has no genesis block yet.
func (s *State) RetrieveLatestBlock() database.Block {
	return s.db.LatestBlock()
}

// RetrieveChain returns a copy of the full chain, oldest block first.
func (s *State) RetrieveChain() []database.Block {
	return s.db.CopyBlocks()
}

// RetrieveMempool returns a copy of the pending transactions.
func (s *State) RetrieveMempool() []database.Tx {
	return s.mempool.Copy()
}

// RetrieveAccounts returns a copy of the current account balances.
func (s *State) RetrieveAccounts() map[database.AccountID]database.Account {
	return s.db.CopyAccounts()
}

// RetrieveKnownPeers returns a copy of the known peer list, excluding this
// node's own host.
func (s *State) RetrieveKnownPeers() []peer.Peer {
	return s.knownPeers.Copy(s.host)
}

// RetrieveKnownPeersExcept returns a copy of the known peer list, excluding
// the given host rather than this node's own host. Used to answer a
// RequestPeers call without echoing the caller's own just-registered
// address back to it.
func (s *State) RetrieveKnownPeersExcept(host string) []peer.Peer {
	return s.knownPeers.Copy(host)
}
