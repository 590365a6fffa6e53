// Package signature provides helper functions for handling the blockchain's
// cryptographic needs: canonical hashing, secp256k1 keys, and DER-encoded
// ECDSA signatures.
package signature

import (
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"

	"github.com/ethereum/go-ethereum/crypto"
)

// ZeroHash represents a hash of all zeros, used for the genesis block's
// previous hash.
const ZeroHash string = "0000000000000000000000000000000000000000000000000000000000000000"

// Hash returns the hex-encoded SHA-256 digest of the JSON-canonical encoding
// of value. Struct field order in Go's encoding/json is fixed by field
// declaration order, so as long as callers pass a struct (never a map),
// repeated calls with an equal value always produce the same bytes.
func Hash(value any) string {
	data, err := json.Marshal(value)
	if err != nil {
		return ZeroHash
	}

	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// GenerateKey creates a new secp256k1 private key.
func GenerateKey() (*ecdsa.PrivateKey, error) {
	return crypto.GenerateKey()
}

// PublicKeyBytes returns the compressed secp256k1 encoding of a public key.
func PublicKeyBytes(pub *ecdsa.PublicKey) []byte {
	return crypto.CompressPubkey(pub)
}

// AddressFromPublicKey returns the account address for a public key: the hex
// encoding of its compressed form, prefixed with 0x.
func AddressFromPublicKey(pub *ecdsa.PublicKey) string {
	return "0x" + hex.EncodeToString(PublicKeyBytes(pub))
}

// AddressFromPublicKeyBytes decodes a compressed public key and returns the
// corresponding address, validating the encoding along the way.
func AddressFromPublicKeyBytes(pubBytes []byte) (string, error) {
	pub, err := crypto.DecompressPubkey(pubBytes)
	if err != nil {
		return "", err
	}

	return AddressFromPublicKey(pub), nil
}

// Sign produces a DER-encoded ECDSA signature over the SHA-256 digest given
// by digestHex (a hex string, typically a tx_hash or block hash).
func Sign(digestHex string, privateKey *ecdsa.PrivateKey) (string, error) {
	digest, err := hex.DecodeString(digestHex)
	if err != nil {
		return "", err
	}

	der, err := ecdsa.SignASN1(rand.Reader, privateKey, digest)
	if err != nil {
		return "", err
	}

	return hex.EncodeToString(der), nil
}

// Verify checks a DER-encoded ECDSA signature over digestHex against a
// compressed public key.
func Verify(digestHex string, sigHex string, pubKeyHex string) error {
	digest, err := hex.DecodeString(digestHex)
	if err != nil {
		return err
	}

	sig, err := hex.DecodeString(sigHex)
	if err != nil {
		return err
	}

	pubBytes, err := hex.DecodeString(pubKeyHex)
	if err != nil {
		return err
	}

	pub, err := crypto.DecompressPubkey(pubBytes)
	if err != nil {
		return err
	}

	if !ecdsa.VerifyASN1(pub, digest, sig) {
		return errors.New("signature does not verify against public key")
	}

	return nil
}
