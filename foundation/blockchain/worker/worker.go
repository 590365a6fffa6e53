// Package worker implements the background goroutines that drive a node:
// mining new blocks and discovering/syncing with peers.
package worker

import (
	"sync"
	"time"

	"github.com/hashline/powchain/foundation/blockchain/database"
	"github.com/hashline/powchain/foundation/blockchain/peer"
	"github.com/hashline/powchain/foundation/blockchain/state"
)

// peerUpdateInterval is how often the peer-discovery loop refreshes its
// view of the network.
const peerUpdateInterval = 30 * time.Second

// Syncer is the peer-discovery and chain-sync transport the worker needs.
// The p2p package implements this so worker never imports it directly,
// mirroring how state depends on state.Network rather than p2p.
type Syncer interface {
	RequestPeers(p peer.Peer) ([]peer.Peer, error)
	RequestChain(p peer.Peer) ([]database.Block, error)
}

// Worker manages the mining and peer-discovery workflows for a node.
type Worker struct {
	state        *state.State
	net          Syncer
	minerAccount database.AccountID
	mineEnabled  bool

	wg           sync.WaitGroup
	ticker       *time.Ticker
	shut         chan struct{}
	startMining  chan bool
	cancelMining chan chan struct{}
	evHandler    state.EventHandler
}

// Run creates a worker, registers it with the state package as its
// state.Worker, and starts the background goroutines. Peer discovery and
// startup chain sync always run; mineEnabled only gates whether the miner
// ever proposes a block, so a --node-mine=false node still stays caught up
// with the network.
func Run(st *state.State, net Syncer, minerAccount database.AccountID, mineEnabled bool, evHandler state.EventHandler) *Worker {
	w := Worker{
		state:        st,
		net:          net,
		minerAccount: minerAccount,
		mineEnabled:  mineEnabled,
		ticker:       time.NewTicker(peerUpdateInterval),
		shut:         make(chan struct{}),
		startMining:  make(chan bool, 1),
		cancelMining: make(chan chan struct{}, 1),
		evHandler:    evHandler,
	}

	st.Worker = &w

	w.Sync()

	operations := []func(){
		w.peerOperations,
		w.miningOperations,
	}

	g := len(operations)
	w.wg.Add(g)

	hasStarted := make(chan bool)
	for _, op := range operations {
		go func(op func()) {
			defer w.wg.Done()
			hasStarted <- true
			op()
		}(op)
	}

	for i := 0; i < g; i++ {
		<-hasStarted
	}

	return &w
}

// =============================================================================
// These methods implement the state.Worker interface.

// Shutdown stops the ticker, cancels any in-flight mining, and waits for
// every background goroutine to return.
func (w *Worker) Shutdown() {
	w.evHandler("worker: shutdown: started")
	defer w.evHandler("worker: shutdown: completed")

	w.ticker.Stop()

	done := w.SignalCancelMining()
	done()

	close(w.shut)
	w.wg.Wait()
}

// SignalStartMining asks the mining goroutine to attempt a new block. If a
// signal is already pending, this is a no-op.
func (w *Worker) SignalStartMining() {
	if !w.mineEnabled {
		return
	}

	if !w.state.IsMiningAllowed() {
		w.evHandler("worker: SignalStartMining: mining turned off")
		return
	}

	select {
	case w.startMining <- true:
	default:
	}
	w.evHandler("worker: SignalStartMining: mining signaled")
}

// SignalCancelMining asks any in-flight mining attempt to stop. The
// returned func blocks until the mining goroutine has acknowledged the
// signal, so callers can safely mutate chain state once it returns.
func (w *Worker) SignalCancelMining() (done func()) {
	ack := make(chan struct{})

	select {
	case w.cancelMining <- ack:
		return func() { <-ack }
	default:
		return func() {}
	}
}

// isShutdown reports whether a shutdown has been signaled.
func (w *Worker) isShutdown() bool {
	select {
	case <-w.shut:
		return true
	default:
		return false
	}
}
