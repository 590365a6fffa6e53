package p2p

import (
	"bufio"
	"encoding/json"
	"net"
	"time"

	"github.com/hashline/powchain/foundation/blockchain/database"
	"github.com/hashline/powchain/foundation/blockchain/peer"
)

// dialTimeout bounds how long a single outbound connection attempt waits.
const dialTimeout = 3 * time.Second

// send dials host, writes env as a single newline-terminated JSON line and,
// for kinds that expect a reply, waits for exactly one reply line before
// closing the connection. For fire-and-forget kinds (gossip) it returns
// right after the write with an empty envelope; the server never writes a
// reply back for those.
func send(host string, env Envelope) (Envelope, error) {
	conn, err := net.DialTimeout("tcp", host, dialTimeout)
	if err != nil {
		return Envelope{}, err
	}
	defer conn.Close()

	data, err := json.Marshal(env)
	if err != nil {
		return Envelope{}, err
	}
	data = append(data, '\n')

	if _, err := conn.Write(data); err != nil {
		return Envelope{}, err
	}

	if !expectsReply(env.Kind) {
		return Envelope{}, nil
	}

	conn.SetReadDeadline(time.Now().Add(dialTimeout))

	reader := bufio.NewReader(conn)
	line, err := reader.ReadBytes('\n')
	if err != nil {
		return Envelope{}, err
	}

	var reply Envelope
	if err := json.Unmarshal(line, &reply); err != nil {
		return Envelope{}, err
	}

	return reply, nil
}

// expectsReply reports whether a message of this kind is answered
// synchronously on the same connection.
func expectsReply(kind Kind) bool {
	switch kind {
	case KindRequestPeers, KindRequestChain:
		return true
	default:
		return false
	}
}

// RegisterWithSeed announces selfHost to the seed at seedHost. The seed
// never replies to a register message.
func RegisterWithSeed(seedHost, selfHost string) error {
	env, err := newEnvelope(KindRegister, selfHost, RegisterPayload{Host: selfHost})
	if err != nil {
		return err
	}

	_, err = send(seedHost, env)
	return err
}

// RequestPeersFromSeed asks the seed at seedHost for its known peer set,
// excluding selfHost.
func RequestPeersFromSeed(seedHost, selfHost string) ([]peer.Peer, error) {
	env, err := newEnvelope(KindRequestPeers, selfHost, RequestPeersPayload{})
	if err != nil {
		return nil, err
	}

	reply, err := send(seedHost, env)
	if err != nil {
		return nil, err
	}

	var payload ResponsePeersPayload
	if err := reply.decodePayload(&payload); err != nil {
		return nil, err
	}

	return payload.Peers, nil
}

// SubmitTransaction sends a signed transfer to a node's p2p listener. The
// node gossips it onward if it accepts it; this call does not wait to find
// out, matching the fire-and-forget shape of every other gossip message.
func SubmitTransaction(nodeHost string, tx database.Tx) error {
	env, err := newEnvelope(KindNewTransaction, nodeHost, NewTransactionPayload{Tx: tx})
	if err != nil {
		return err
	}

	_, err = send(nodeHost, env)
	return err
}
