package p2p

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"net"

	"github.com/hashline/powchain/foundation/blockchain/database"
	"github.com/hashline/powchain/foundation/blockchain/peer"
	"github.com/hashline/powchain/foundation/blockchain/state"
)

// EventHandler defines a function called to report p2p activity.
type EventHandler func(v string, args ...any)

// Server listens for inbound peer connections and answers or applies
// whatever envelope arrives on them. It also implements state.Network and
// worker.Syncer, so a single value serves as the node's entire transport.
type Server struct {
	host      string
	state     *state.State
	listener  net.Listener
	evHandler EventHandler
}

// NewServer constructs a server bound to host but does not start listening
// yet; call Listen to do that.
func NewServer(host string, st *state.State, evHandler EventHandler) *Server {
	if evHandler == nil {
		evHandler = func(string, ...any) {}
	}

	return &Server{
		host:      host,
		state:     st,
		evHandler: evHandler,
	}
}

// Listen opens the TCP listener and starts the accept loop in the
// background. It returns once the listener is ready to accept.
func (s *Server) Listen() error {
	listener, err := net.Listen("tcp", s.host)
	if err != nil {
		return err
	}
	s.listener = listener

	s.evHandler("p2p: server: listening: %s", s.host)
	go s.acceptLoop()

	return nil
}

// Close stops accepting new connections.
func (s *Server) Close() error {
	if s.listener == nil {
		return nil
	}
	return s.listener.Close()
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			s.evHandler("p2p: server: accept: ERROR: %s", err)
			continue
		}

		go s.handleConn(conn)
	}
}

// handleConn reads envelopes from a single inbound connection until it
// closes. Request/response kinds get an answer written back on the same
// connection; fire-and-forget kinds (new block, new transaction) do not.
func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)
	encoder := json.NewEncoder(conn)

	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			if err != io.EOF {
				s.evHandler("p2p: server: read: ERROR: %s", err)
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(line, &env); err != nil {
			s.evHandler("p2p: server: decode: ERROR: %s", err)
			return
		}

		if err := env.Validate(); err != nil {
			s.evHandler("p2p: server: validate: ERROR: %s", err)
			continue
		}

		reply, hasReply, err := s.dispatch(env)
		if err != nil {
			s.evHandler("p2p: server: dispatch: kind[%s]: ERROR: %s", env.Kind, err)
			continue
		}

		if hasReply {
			if err := encoder.Encode(reply); err != nil {
				s.evHandler("p2p: server: reply: ERROR: %s", err)
				return
			}
		}
	}
}

func (s *Server) dispatch(env Envelope) (Envelope, bool, error) {
	switch env.Kind {
	case KindNewBlock:
		var payload NewBlockPayload
		if err := env.decodePayload(&payload); err != nil {
			return Envelope{}, false, err
		}

		if err := s.state.AddBlock(payload.Block); err != nil {
			s.evHandler("p2p: server: dispatch: new_block: blk[%d]: rejected: %s", payload.Block.Index, err)

			tip := s.state.RetrieveLatestBlock()
			if payload.Block.Index > tip.Index {
				sender := peer.New(env.From)
				chain, chainErr := s.RequestChain(sender)
				if chainErr != nil {
					s.evHandler("p2p: server: dispatch: new_block: request_chain: %s: ERROR: %s", sender.Host, chainErr)
					return Envelope{}, false, nil
				}
				if replaceErr := s.state.ReplaceChain(chain); replaceErr != nil {
					s.evHandler("p2p: server: dispatch: new_block: replace_chain: ERROR: %s", replaceErr)
				}
			}

			return Envelope{}, false, nil
		}

		relay, err := newEnvelope(KindNewBlock, s.host, NewBlockPayload{Block: payload.Block})
		if err != nil {
			return Envelope{}, false, err
		}
		s.fanout(relay, env.From)
		return Envelope{}, false, nil

	case KindNewTransaction:
		var payload NewTransactionPayload
		if err := env.decodePayload(&payload); err != nil {
			return Envelope{}, false, err
		}
		if err := s.state.AddTransaction(payload.Tx); err != nil && !errors.Is(err, state.ErrAlreadyPooled) {
			return Envelope{}, false, err
		}
		return Envelope{}, false, nil

	case KindRequestPeers:
		s.state.AddKnownPeer(peer.New(env.From))
		reply, err := newEnvelope(KindResponsePeers, s.host, ResponsePeersPayload{
			Peers: s.state.RetrieveKnownPeersExcept(env.From),
		})
		return reply, true, err

	case KindRequestChain:
		reply, err := newEnvelope(KindResponseChain, s.host, ResponseChainPayload{
			Blocks: s.state.RetrieveChain(),
		})
		return reply, true, err

	default:
		return Envelope{}, false, errors.New("unsupported message kind for a node server")
	}
}

// =============================================================================
// state.Network implementation: fire-and-forget gossip to every known peer.

// BroadcastBlock gossips block to every known peer. Failures are logged,
// not returned; gossip is best-effort.
func (s *Server) BroadcastBlock(block database.Block) {
	env, err := newEnvelope(KindNewBlock, s.host, NewBlockPayload{Block: block})
	if err != nil {
		s.evHandler("p2p: broadcastBlock: ERROR: %s", err)
		return
	}
	s.fanout(env, s.host)
}

// BroadcastTransaction gossips tx to every known peer.
func (s *Server) BroadcastTransaction(tx database.Tx) {
	env, err := newEnvelope(KindNewTransaction, s.host, NewTransactionPayload{Tx: tx})
	if err != nil {
		s.evHandler("p2p: broadcastTransaction: ERROR: %s", err)
		return
	}
	s.fanout(env, s.host)
}

// fanout sends env to every known peer except the one at exclude.
func (s *Server) fanout(env Envelope, exclude string) {
	for _, p := range s.state.RetrieveKnownPeersExcept(exclude) {
		go func(p peer.Peer) {
			if _, err := send(p.Host, env); err != nil {
				s.evHandler("p2p: fanout: %s: ERROR: %s", p.Host, err)
			}
		}(p)
	}
}

// =============================================================================
// worker.Syncer implementation: request/response calls to a single peer.

// RequestPeers asks p for its known peer set.
func (s *Server) RequestPeers(p peer.Peer) ([]peer.Peer, error) {
	env, err := newEnvelope(KindRequestPeers, s.host, RequestPeersPayload{})
	if err != nil {
		return nil, err
	}

	reply, err := send(p.Host, env)
	if err != nil {
		return nil, err
	}

	var payload ResponsePeersPayload
	if err := reply.decodePayload(&payload); err != nil {
		return nil, err
	}

	return payload.Peers, nil
}

// RequestChain asks p for its full chain.
func (s *Server) RequestChain(p peer.Peer) ([]database.Block, error) {
	env, err := newEnvelope(KindRequestChain, s.host, RequestChainPayload{})
	if err != nil {
		return nil, err
	}

	reply, err := send(p.Host, env)
	if err != nil {
		return nil, err
	}

	var payload ResponseChainPayload
	if err := reply.decodePayload(&payload); err != nil {
		return nil, err
	}

	return payload.Blocks, nil
}
