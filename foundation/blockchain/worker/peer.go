package worker

import (
	"github.com/hashline/powchain/foundation/blockchain/peer"
)

// peerOperations is the goroutine that periodically refreshes the known
// peer set.
func (w *Worker) peerOperations() {
	w.evHandler("worker: peerOperations: G started")
	defer w.evHandler("worker: peerOperations: G completed")

	for {
		select {
		case <-w.ticker.C:
			if !w.isShutdown() {
				w.runPeersOperation()
			}
		case <-w.shut:
			w.evHandler("worker: peerOperations: received shut signal")
			return
		}
	}
}

// runPeersOperation asks every known peer who else it knows about. A peer
// that can't be reached is dropped from the known set.
func (w *Worker) runPeersOperation() {
	w.evHandler("worker: runPeersOperation: started")
	defer w.evHandler("worker: runPeersOperation: completed")

	for _, p := range w.state.RetrieveKnownPeers() {
		peers, err := w.net.RequestPeers(p)
		if err != nil {
			w.evHandler("worker: runPeersOperation: requestPeers: %s: ERROR: %s", p.Host, err)
			w.state.RemoveKnownPeer(p)
			continue
		}

		w.addNewPeers(peers)
	}
}

// addNewPeers records every peer in peers that isn't already known and
// isn't this node's own host.
func (w *Worker) addNewPeers(peers []peer.Peer) {
	w.evHandler("worker: addNewPeers: started")
	defer w.evHandler("worker: addNewPeers: completed")

	for _, p := range peers {
		if p.Match(w.state.RetrieveHost()) {
			continue
		}

		if w.state.AddKnownPeer(p) {
			w.evHandler("worker: addNewPeers: add peer-node %s", p.Host)
		}
	}
}
