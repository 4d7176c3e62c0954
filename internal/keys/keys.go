// Package keys implements the chain's native account scheme: Ed25519 key
// material, SHA-256 derived 20-byte addresses with the "0lt" text prefix, and
// signing of node-produced raw transactions.
//
// Contract bytecode on the chain is EVM compatible, but transaction signing is
// not: a secp256k1 key or an Ethereum-style signature is never accepted here.
package keys

import (
	"bytes"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// KeyTypeEd25519 is the keyType tag the node expects in a signed envelope.
const KeyTypeEd25519 = "ed25519"

// KeyFormatError reports malformed private key material.
type KeyFormatError struct {
	Reason string
}

func (e *KeyFormatError) Error() string {
	return "invalid private key: " + e.Reason
}

// Signer holds a deployer key. It never leaves the process: only signatures
// and the public key are sent to the node.
type Signer struct {
	private ed25519.PrivateKey
	public  ed25519.PublicKey
	address common.Address
}

// ParsePrivateKey accepts a hex-encoded 32-byte seed, or a 64-byte seed||pubkey
// pair as produced by most Ed25519 tooling. A "0x" prefix is tolerated.
func ParsePrivateKey(s string) (*Signer, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	if s == "" {
		return nil, &KeyFormatError{Reason: "empty key"}
	}

	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, &KeyFormatError{Reason: "not valid hex"}
	}

	var priv ed25519.PrivateKey
	switch len(raw) {
	case ed25519.SeedSize:
		priv = ed25519.NewKeyFromSeed(raw)
	case ed25519.PrivateKeySize:
		priv = ed25519.NewKeyFromSeed(raw[:ed25519.SeedSize])
		if !bytes.Equal(priv[ed25519.SeedSize:], raw[ed25519.SeedSize:]) {
			return nil, &KeyFormatError{Reason: "embedded public key does not match seed"}
		}
	default:
		return nil, &KeyFormatError{
			Reason: fmt.Sprintf("expected %d or %d bytes, got %d", ed25519.SeedSize, ed25519.PrivateKeySize, len(raw)),
		}
	}

	pub := priv.Public().(ed25519.PublicKey)
	return &Signer{
		private: priv,
		public:  pub,
		address: AddressFromPublicKey(pub),
	}, nil
}

// DeriveAddress is a convenience wrapper for ParsePrivateKey(...).Address().
func DeriveAddress(privateKey string) (common.Address, error) {
	s, err := ParsePrivateKey(privateKey)
	if err != nil {
		return common.Address{}, err
	}
	return s.Address(), nil
}

// AddressFromPublicKey hashes the raw public key with SHA-256 and keeps the
// first 20 bytes.
func AddressFromPublicKey(pub ed25519.PublicKey) common.Address {
	sum := sha256.Sum256(pub)
	return common.BytesToAddress(sum[:common.AddressLength])
}

func (s *Signer) Address() common.Address { return s.address }

// Sign signs msg with the Ed25519 key.
func (s *Signer) Sign(msg []byte) []byte {
	return ed25519.Sign(s.private, msg)
}

// PublicKey is the key descriptor attached to a signed envelope.
type PublicKey struct {
	KeyType string `json:"keyType"`
	Data    string `json:"data"`
}

// Envelope is the params object of broadcast.TxSync.
type Envelope struct {
	RawTx     string    `json:"rawTx"`
	Signature string    `json:"signature"`
	PublicKey PublicKey `json:"publicKey"`
}

// SignRawTx signs the bytes the node produced in tx.CreateRawSend. The raw tx
// travels base64-encoded; the signature covers the decoded bytes.
func (s *Signer) SignRawTx(rawTx string) (*Envelope, error) {
	msg, err := base64.StdEncoding.DecodeString(rawTx)
	if err != nil {
		return nil, fmt.Errorf("decode raw tx: %w", err)
	}

	return &Envelope{
		RawTx:     rawTx,
		Signature: base64.StdEncoding.EncodeToString(s.Sign(msg)),
		PublicKey: PublicKey{
			KeyType: KeyTypeEd25519,
			Data:    base64.StdEncoding.EncodeToString(s.public),
		},
	}, nil
}
