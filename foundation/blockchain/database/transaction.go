package database

import (
	"crypto/ecdsa"
	"encoding/hex"
	"errors"
	"time"

	"github.com/hashline/powchain/foundation/blockchain/signature"
)

// Kind distinguishes a coinbase reward from a signed transfer.
type Kind uint8

// The two transaction variants the chain understands.
const (
	KindTransfer Kind = iota
	KindCoinbase
)

// String implements fmt.Stringer for logging.
func (k Kind) String() string {
	if k == KindCoinbase {
		return "coinbase"
	}
	return "transfer"
}

// CoinbaseReward is the fixed subsidy paid to whoever mines a block.
const CoinbaseReward = 50

// =============================================================================

// Tx is the transactional information recorded on the chain: either a
// coinbase reward or a signed transfer between two addresses.
type Tx struct {
	Kind      Kind      `json:"kind"`
	From      AccountID `json:"from,omitempty"`
	To        AccountID `json:"to"`
	Amount    uint64    `json:"amount"`
	Timestamp uint64    `json:"timestamp"`
	Signature string    `json:"signature,omitempty"`
	PublicKey string    `json:"public_key,omitempty"`
}

// signable is the canonical field set that is hashed and signed. Signature
// and PublicKey are deliberately excluded: they're derived from, not part
// of, the signed message.
type signable struct {
	Kind      Kind
	From      AccountID
	To        AccountID
	Amount    uint64
	Timestamp uint64
}

func (tx Tx) signable() signable {
	return signable{
		Kind:      tx.Kind,
		From:      tx.From,
		To:        tx.To,
		Amount:    tx.Amount,
		Timestamp: tx.Timestamp,
	}
}

// Hash returns the tx_hash: the SHA-256 digest of the canonical encoding of
// every field except the signature and the public key.
func (tx Tx) Hash() string {
	return signature.Hash(tx.signable())
}

// Equals reports whether two transactions are the same transaction, which
// for a chain with no replay protection beyond content addressing means
// their tx_hash values match.
func (tx Tx) Equals(other Tx) bool {
	return tx.Hash() == other.Hash()
}

// NewCoinbase constructs the reward transaction that must lead every
// non-genesis block.
func NewCoinbase(to AccountID, now time.Time) Tx {
	return Tx{
		Kind:      KindCoinbase,
		To:        to,
		Amount:    CoinbaseReward,
		Timestamp: uint64(now.UTC().Unix()),
	}
}

// NewTransfer constructs and signs a transfer of amount to the given
// address using fromPrivateKey.
func NewTransfer(fromPrivateKey *ecdsa.PrivateKey, to AccountID, amount uint64, now time.Time) (Tx, error) {
	if amount == 0 {
		return Tx{}, errors.New("transfer amount must be greater than zero")
	}
	if !to.IsAccountID() {
		return Tx{}, errors.New("to account is not properly formatted")
	}

	from := AccountID(signature.AddressFromPublicKey(&fromPrivateKey.PublicKey))

	tx := Tx{
		Kind:      KindTransfer,
		From:      from,
		To:        to,
		Amount:    amount,
		Timestamp: uint64(now.UTC().Unix()),
	}

	sig, err := signature.Sign(tx.Hash(), fromPrivateKey)
	if err != nil {
		return Tx{}, err
	}

	tx.Signature = sig
	tx.PublicKey = hex.EncodeToString(signature.PublicKeyBytes(&fromPrivateKey.PublicKey))

	return tx, nil
}

// Verify reports whether the transaction is well formed: a coinbase is
// always valid, a transfer must carry a positive amount, a public key whose
// address encoding equals its From address, and a signature that verifies against that
// public key and the transaction's own hash.
func (tx Tx) Verify() bool {
	if tx.Kind == KindCoinbase {
		return true
	}

	if tx.Amount == 0 {
		return false
	}

	pubBytes, err := hex.DecodeString(tx.PublicKey)
	if err != nil {
		return false
	}

	addr, err := signature.AddressFromPublicKeyBytes(pubBytes)
	if err != nil || AccountID(addr) != tx.From {
		return false
	}

	if err := signature.Verify(tx.Hash(), tx.Signature, tx.PublicKey); err != nil {
		return false
	}

	return true
}

// String implements fmt.Stringer for logging.
func (tx Tx) String() string {
	return string(tx.From) + "->" + string(tx.To) + ":" + tx.Kind.String()
}
