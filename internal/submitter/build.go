package submitter

import (
	"crypto/rand"
	"crypto/sha512"
	"encoding/hex"

	"github.com/consensource/consensource-cli/internal/addressing"
	"github.com/consensource/consensource-cli/internal/protocol"
	"github.com/consensource/consensource-cli/internal/signing"
	"github.com/consensource/consensource-cli/pkg/errors"
)

// Payload is one unit of work to include in a batch: the serialized
// payload bytes plus the state addresses the transaction may touch and
// the transaction ids it depends on.
type Payload struct {
	Bytes        []byte
	Inputs       []string
	Outputs      []string
	Dependencies []string
}

// BuildTransaction builds and signs a transaction for p. The header
// embeds the hex SHA-512 of the exact payload bytes, and the header
// signature over the exact encoded header bytes is the transaction id.
func BuildTransaction(signer *signing.Signer, p Payload) (*protocol.Transaction, error) {
	if len(p.Bytes) == 0 {
		return nil, errors.E(errors.ErrMalformedPayload, "submitter", "BuildTransaction",
			"payload is empty")
	}

	digest := sha512.Sum512(p.Bytes)
	publicKey := signer.PublicKeyHex()

	header := &protocol.TransactionHeader{
		BatcherPublicKey: publicKey,
		Dependencies:     p.Dependencies,
		FamilyName:       addressing.FamilyName,
		FamilyVersion:    addressing.FamilyVersion,
		Inputs:           p.Inputs,
		Nonce:            newNonce(),
		Outputs:          p.Outputs,
		PayloadSHA512:    hex.EncodeToString(digest[:]),
		SignerPublicKey:  publicKey,
	}

	headerBytes, err := protocol.EncodeTransactionHeader(header)
	if err != nil {
		return nil, err
	}

	signature, err := signer.Sign(headerBytes)
	if err != nil {
		return nil, errors.E(errors.ErrSigningFailed, "submitter", "BuildTransaction", err.Error())
	}

	return &protocol.Transaction{
		Header:          headerBytes,
		HeaderSignature: signature,
		Payload:         p.Bytes,
	}, nil
}

// BuildBatch wraps transactions into a signed batch. The batch header
// lists the transaction ids in the order given; that order is the
// execution order at the validator, so dependent transactions must come
// after their dependencies.
func BuildBatch(signer *signing.Signer, transactions []*protocol.Transaction) (*protocol.Batch, error) {
	if len(transactions) == 0 {
		return nil, errors.E(errors.ErrMalformedPayload, "submitter", "BuildBatch",
			"batch must contain at least one transaction")
	}

	ids := make([]string, len(transactions))
	for i, txn := range transactions {
		ids[i] = txn.ID()
	}

	header := &protocol.BatchHeader{
		SignerPublicKey: signer.PublicKeyHex(),
		TransactionIDs:  ids,
	}
	headerBytes, err := protocol.EncodeBatchHeader(header)
	if err != nil {
		return nil, err
	}

	signature, err := signer.Sign(headerBytes)
	if err != nil {
		return nil, errors.E(errors.ErrSigningFailed, "submitter", "BuildBatch", err.Error())
	}

	return &protocol.Batch{
		Header:          headerBytes,
		HeaderSignature: signature,
		Transactions:    transactions,
	}, nil
}

// newNonce generates a random per-transaction nonce so identical payloads
// produce distinct transactions.
func newNonce() string {
	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		panic("crypto/rand unavailable: " + err.Error())
	}
	return hex.EncodeToString(nonce)
}
