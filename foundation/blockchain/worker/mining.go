package worker

import (
	"context"
	"sync"
	"time"
)

// miningOperations is the goroutine that owns block production. It idles
// until signaled to start, and drains a cancel signal immediately so a
// cancel arriving while idle never blocks its sender.
func (w *Worker) miningOperations() {
	w.evHandler("worker: miningOperations: G started")
	defer w.evHandler("worker: miningOperations: G completed")

	for {
		select {
		case <-w.startMining:
			if !w.isShutdown() {
				w.runMiningOperation()
			}

		case ack := <-w.cancelMining:
			close(ack)

		case <-w.shut:
			w.evHandler("worker: miningOperations: received shut signal")
			return
		}
	}
}

// runMiningOperation drains the pending pool into a new block and mines it.
// An empty pool still produces a coinbase-only block: the miner loop keeps
// attempting mine_pending while enabled, it never waits for transactions to
// show up. A concurrent cancel signal aborts the attempt; the transactions
// the attempt drained are restored to the pool by state.MinePending itself.
func (w *Worker) runMiningOperation() {
	w.evHandler("worker: runMiningOperation: MINING: started")
	defer w.evHandler("worker: runMiningOperation: MINING: completed")

	if !w.state.IsMiningAllowed() {
		w.evHandler("worker: runMiningOperation: MINING: turned off")
		return
	}

	defer func() {
		w.evHandler("worker: runMiningOperation: MINING: signal new mining operation: Txs[%d]", w.state.QueryMempoolLength())
		w.SignalStartMining()
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(2)

	var ack chan struct{}

	go func() {
		defer func() {
			cancel()
			wg.Done()
		}()

		select {
		case a := <-w.cancelMining:
			ack = a
			w.evHandler("worker: runMiningOperation: MINING: CANCEL: requested")
		case <-ctx.Done():
		}
	}()

	go func() {
		defer func() {
			cancel()
			wg.Done()
		}()

		t := time.Now()
		block, err := w.state.MinePending(ctx, w.minerAccount)
		w.evHandler("worker: runMiningOperation: MINING: duration[%v]", time.Since(t))

		if err != nil {
			switch {
			case ctx.Err() != nil:
				w.evHandler("worker: runMiningOperation: MINING: CANCEL: complete")
			default:
				w.evHandler("worker: runMiningOperation: MINING: ERROR: %s", err)
			}
			return
		}

		w.evHandler("worker: runMiningOperation: MINING: mined block[%d] hash[%s]", block.Index, block.Hash)
		w.state.NetSendBlockToPeers(block)
	}()

	wg.Wait()

	if ack != nil {
		close(ack)
	}
}
