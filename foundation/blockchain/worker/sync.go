package worker

// Sync asks every known peer for its peer list and full chain. A peer's
// chain replaces the local one whenever state.ReplaceChain accepts it
// (strictly longer and fully valid); anything else is logged and skipped.
func (w *Worker) Sync() {
	w.evHandler("worker: sync: started")
	defer w.evHandler("worker: sync: completed")

	for _, p := range w.state.RetrieveKnownPeers() {
		peers, err := w.net.RequestPeers(p)
		if err != nil {
			w.evHandler("worker: sync: requestPeers: %s: ERROR: %s", p.Host, err)
			continue
		}
		w.addNewPeers(peers)

		chain, err := w.net.RequestChain(p)
		if err != nil {
			w.evHandler("worker: sync: requestChain: %s: ERROR: %s", p.Host, err)
			continue
		}

		if err := w.state.ReplaceChain(chain); err != nil {
			w.evHandler("worker: sync: replaceChain: %s: %s", p.Host, err)
		}
	}
}
