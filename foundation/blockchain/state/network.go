package state

import "github.com/hashline/powchain/foundation/blockchain/database"

// NetSendBlockToPeers takes a newly mined or accepted block and gossips it
// to every known peer via the registered Network transport.
func (s *State) NetSendBlockToPeers(block database.Block) {
	s.evHandler("state: NetSendBlockToPeers: started")
	defer s.evHandler("state: NetSendBlockToPeers: completed")

	if s.Network == nil {
		return
	}

	s.Network.BroadcastBlock(block)
}

// NetSendTxToPeers shares a newly accepted transaction with the network.
func (s *State) NetSendTxToPeers(tx database.Tx) {
	s.evHandler("state: NetSendTxToPeers: started")
	defer s.evHandler("state: NetSendTxToPeers: completed")

	if s.Network == nil {
		return
	}

	s.Network.BroadcastTransaction(tx)
}
