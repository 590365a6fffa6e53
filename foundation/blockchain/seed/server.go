package seed

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"net"

	"github.com/hashline/powchain/foundation/blockchain/p2p"
)

// EventHandler defines a function called to report seed activity.
type EventHandler func(v string, args ...any)

// Server answers RequestPeers and Register messages from nodes over the
// same p2p envelope protocol the node-to-node transport uses. It never
// touches chain or transaction messages.
type Server struct {
	host      string
	registry  *Registry
	listener  net.Listener
	evHandler EventHandler
}

// NewServer constructs a seed server bound to host, backed by registry.
func NewServer(host string, registry *Registry, evHandler EventHandler) *Server {
	if evHandler == nil {
		evHandler = func(string, ...any) {}
	}

	return &Server{
		host:      host,
		registry:  registry,
		evHandler: evHandler,
	}
}

// Listen opens the TCP listener and starts the accept loop in the
// background.
func (s *Server) Listen() error {
	listener, err := net.Listen("tcp", s.host)
	if err != nil {
		return err
	}
	s.listener = listener

	s.evHandler("seed: server: listening: %s", s.host)
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
			s.evHandler("seed: server: accept: ERROR: %s", err)
			continue
		}

		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)
	encoder := json.NewEncoder(conn)

	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			if err != io.EOF {
				s.evHandler("seed: server: read: ERROR: %s", err)
			}
			return
		}

		var env p2p.Envelope
		if err := json.Unmarshal(line, &env); err != nil {
			s.evHandler("seed: server: decode: ERROR: %s", err)
			return
		}

		if err := env.Validate(); err != nil {
			s.evHandler("seed: server: validate: ERROR: %s", err)
			continue
		}

		switch env.Kind {
		case p2p.KindRegister:
			s.registry.Touch(env.From)

		case p2p.KindRequestPeers:
			s.registry.Touch(env.From)

			reply, err := p2p.NewResponsePeers(s.host, s.registry.Peers(env.From))
			if err != nil {
				s.evHandler("seed: server: build reply: ERROR: %s", err)
				continue
			}
			if err := encoder.Encode(reply); err != nil {
				s.evHandler("seed: server: reply: ERROR: %s", err)
				return
			}

		default:
			s.evHandler("seed: server: unsupported message kind[%s] from %s", env.Kind, env.From)
		}
	}
}
