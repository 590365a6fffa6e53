// Package state is the core API for the blockchain and implements all the
// business rules and processing: transaction and block acceptance, chain
// replacement, and balance queries.
package state

import (
	"sync"

	"github.com/hashline/powchain/foundation/blockchain/database"
	"github.com/hashline/powchain/foundation/blockchain/genesis"
	"github.com/hashline/powchain/foundation/blockchain/mempool"
	"github.com/hashline/powchain/foundation/blockchain/peer"
)

// EventHandler defines a function that is called when events occur in the
// processing of transactions and blocks.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by any
// package providing support for mining and peer discovery.
type Worker interface {
	Shutdown()
	SignalStartMining()
	SignalCancelMining() (done func())
}

// Network interface represents the behavior required to be implemented by
// any package providing gossip transport for the blockchain. State depends
// on this interface, not on the p2p package directly, so p2p can depend on
// state without an import cycle.
type Network interface {
	BroadcastBlock(block database.Block)
	BroadcastTransaction(tx database.Tx)
}

// =============================================================================

// Config represents the configuration required to start the blockchain node.
type Config struct {
	MinerAccount database.AccountID
	Host         string
	Genesis      genesis.Genesis
	KnownPeers   *peer.PeerSet
	EvHandler    EventHandler
}

// State manages the blockchain: the ledger, the pending pool, and the set
// of known peers.
type State struct {
	minerAccount database.AccountID
	host         string
	evHandler    EventHandler
	mu           sync.Mutex

	allowMining bool
	knownPeers  *peer.PeerSet
	genesis     genesis.Genesis
	mempool     *mempool.Mempool
	db          *database.Database

	Worker  Worker
	Network Network
}

// New constructs a new blockchain state. It does not create the genesis
// block; call CreateGenesis or ReplaceChain to give the chain a tip.
func New(cfg Config) (*State, error) {
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	state := State{
		minerAccount: cfg.MinerAccount,
		host:         cfg.Host,
		evHandler:    ev,
		allowMining:  true,

		knownPeers: cfg.KnownPeers,
		genesis:    cfg.Genesis,
		mempool:    mempool.New(),
		db:         database.New(),
	}

	return &state, nil
}

// Shutdown cleanly brings the node down.
func (s *State) Shutdown() {
	s.evHandler("state: shutdown: started")
	defer s.evHandler("state: shutdown: completed")

	if s.Worker != nil {
		s.Worker.Shutdown()
	}
}

// IsMiningAllowed reports whether the miner loop may currently propose new
// blocks. Mining is paused while a chain replacement is in progress.
func (s *State) IsMiningAllowed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.allowMining
}

func (s *State) setMiningAllowed(allowed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.allowMining = allowed
}
