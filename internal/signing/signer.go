// Package signing provides secp256k1 key management and deterministic
// ECDSA signing over SHA-256 digests.
package signing

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"

	"github.com/consensource/consensource-cli/pkg/errors"
)

// Signer holds a private key for the lifetime of a signing session.
// Nothing in this layer persists key material.
type Signer struct {
	privateKey *btcec.PrivateKey
}

// NewSigner generates a signer with a fresh random key pair.
func NewSigner() (*Signer, error) {
	privateKey, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, errors.E(errors.ErrSigningFailed, "signing", "NewSigner",
			fmt.Sprintf("failed to generate private key: %v", err))
	}
	return &Signer{privateKey: privateKey}, nil
}

// FromHex builds a signer from a hex-encoded 32-byte private key.
func FromHex(privateKeyHex string) (*Signer, error) {
	raw, err := hex.DecodeString(strings.TrimSpace(privateKeyHex))
	if err != nil {
		return nil, errors.E(errors.ErrInvalidKeyFormat, "signing", "FromHex",
			"private key is not valid hex")
	}
	if len(raw) != btcec.PrivKeyBytesLen {
		return nil, errors.E(errors.ErrInvalidKeyFormat, "signing", "FromHex",
			fmt.Sprintf("private key must be %d bytes, got %d", btcec.PrivKeyBytesLen, len(raw)))
	}

	privateKey, _ := btcec.PrivKeyFromBytes(raw)
	if privateKey == nil {
		return nil, errors.E(errors.ErrInvalidKeyFormat, "signing", "FromHex",
			"invalid private key")
	}
	return &Signer{privateKey: privateKey}, nil
}

// PrivateKeyHex exports the private key as a hex string.
func (s *Signer) PrivateKeyHex() string {
	return hex.EncodeToString(s.privateKey.Serialize())
}

// PublicKeyHex returns the compressed public key as a hex string. This is
// the form embedded in transaction and batch headers.
func (s *Signer) PublicKeyHex() string {
	return hex.EncodeToString(s.privateKey.PubKey().SerializeCompressed())
}

// Sign signs message with the signer's private key and returns the
// hex-encoded signature. The message is digested with SHA-256 first, and
// the underlying scheme is RFC 6979 deterministic ECDSA, so signing the
// same bytes with the same key always yields the same signature.
func (s *Signer) Sign(message []byte) (string, error) {
	digest := sha256.Sum256(message)
	signature := ecdsa.Sign(s.privateKey, digest[:])
	return hex.EncodeToString(signature.Serialize()), nil
}

// Verify checks a hex-encoded signature over message against a
// hex-encoded compressed public key. A bad signature is reported as
// false rather than an error so callers can decide whether it is fatal.
func Verify(publicKeyHex string, message []byte, signatureHex string) bool {
	pubKeyBytes, err := hex.DecodeString(publicKeyHex)
	if err != nil {
		return false
	}
	publicKey, err := btcec.ParsePubKey(pubKeyBytes)
	if err != nil {
		return false
	}

	sigBytes, err := hex.DecodeString(signatureHex)
	if err != nil {
		return false
	}
	signature, err := ecdsa.ParseSignature(sigBytes)
	if err != nil {
		return false
	}

	digest := sha256.Sum256(message)
	return signature.Verify(digest[:], publicKey)
}
