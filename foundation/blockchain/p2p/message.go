// Package p2p implements the node's gossip transport: newline-delimited
// JSON envelopes exchanged over plain TCP connections. Every envelope
// carries its own freshly generated id; a reply gets a new id rather than
// echoing the request's, and is paired with its request only by arriving
// on the same connection.
package p2p

import (
	"encoding/json"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/hashline/powchain/foundation/blockchain/database"
	"github.com/hashline/powchain/foundation/blockchain/peer"
)

// Kind identifies the shape of an envelope's payload.
type Kind string

// The message kinds a node or seed will send or answer.
const (
	KindNewBlock       Kind = "new_block"
	KindNewTransaction Kind = "new_transaction"
	KindRequestPeers   Kind = "request_peers"
	KindResponsePeers  Kind = "response_peers"
	KindRequestChain   Kind = "request_chain"
	KindResponseChain  Kind = "response_chain"
	KindRegister       Kind = "register"
)

// Envelope is the single wire type exchanged over a p2p connection: a kind
// tag, a correlation id, the sender's own host, and a raw payload whose
// shape depends on Kind.
type Envelope struct {
	ID      string          `json:"id" validate:"required"`
	Kind    Kind            `json:"kind" validate:"required"`
	From    string          `json:"from" validate:"required"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

var validate = validator.New()

// newEnvelope builds an envelope carrying payload, tagged with a fresh
// correlation id.
func newEnvelope(kind Kind, from string, payload any) (Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}

	return Envelope{
		ID:      uuid.NewString(),
		Kind:    kind,
		From:    from,
		Payload: data,
	}, nil
}

// Validate checks the envelope is well formed before it's handed to the
// business logic.
func (e Envelope) Validate() error {
	return validate.Struct(e)
}

// decodePayload unmarshals the envelope's payload into v.
func (e Envelope) decodePayload(v any) error {
	return json.Unmarshal(e.Payload, v)
}

// =============================================================================
// Payload shapes, one per Kind.

// NewBlockPayload carries a freshly mined or accepted block.
type NewBlockPayload struct {
	Block database.Block `json:"block"`
}

// NewTransactionPayload carries a newly accepted transaction.
type NewTransactionPayload struct {
	Tx database.Tx `json:"tx"`
}

// RequestPeersPayload has no fields; the sender's host is enough context.
type RequestPeersPayload struct{}

// ResponsePeersPayload answers RequestPeers with the responder's known set.
type ResponsePeersPayload struct {
	Peers []peer.Peer `json:"peers"`
}

// RequestChainPayload has no fields; the sender wants the full chain.
type RequestChainPayload struct{}

// ResponseChainPayload answers RequestChain with the full local chain.
type ResponseChainPayload struct {
	Blocks []database.Block `json:"blocks"`
}

// RegisterPayload is sent by a node to a seed to announce its own address.
type RegisterPayload struct {
	Host string `json:"host"`
}

// NewResponsePeers builds a response_peers envelope from the responder's
// address and known peer set. Exported so the seed package, which has no
// server-side use for the rest of this package's node message kinds, can
// still speak the shared envelope protocol.
func NewResponsePeers(from string, peers []peer.Peer) (Envelope, error) {
	return newEnvelope(KindResponsePeers, from, ResponsePeersPayload{Peers: peers})
}
