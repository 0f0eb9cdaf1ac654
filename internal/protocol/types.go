// Package protocol defines the transaction, batch and client message
// structures exchanged with the validator, together with a deterministic
// binary codec for them.
//
// Transaction and batch identifiers are the hex header signatures, so the
// encoded header bytes must be byte-stable for a given logical value.
// The codec writes fields in a fixed order and never iterates maps, which
// keeps re-encoding reproducible.
package protocol

// TransactionHeader describes a single unit of work: who signed it, what
// family processes it, which state addresses it reads and writes, and the
// digest of its payload.
type TransactionHeader struct {
	BatcherPublicKey string
	// Dependencies lists transaction ids that must be committed before
	// this transaction is executed.
	Dependencies  []string
	FamilyName    string
	FamilyVersion string
	Inputs        []string
	Nonce         string
	Outputs       []string
	// PayloadSHA512 is the hex SHA-512 of the exact payload bytes.
	PayloadSHA512   string
	SignerPublicKey string
}

// Transaction carries the serialized header, the signature over those
// exact header bytes, and the payload. The header signature doubles as
// the transaction id.
type Transaction struct {
	Header          []byte
	HeaderSignature string
	Payload         []byte
}

// ID returns the transaction identifier.
func (t *Transaction) ID() string { return t.HeaderSignature }

// BatchHeader binds an ordered list of transaction ids to the batch
// signer. The order is significant: it is the execution order inside the
// batch.
type BatchHeader struct {
	SignerPublicKey string
	TransactionIDs  []string
}

// Batch is an atomic, ordered group of transactions. The header signature
// doubles as the batch id.
type Batch struct {
	Header          []byte
	HeaderSignature string
	Transactions    []*Transaction
}

// ID returns the batch identifier.
func (b *Batch) ID() string { return b.HeaderSignature }

// BatchList is the submission envelope accepted by the validator.
type BatchList struct {
	Batches []*Batch
}

// BatchStatus is the execution status of a submitted batch.
type BatchStatus int32

// Batch status values. Committed and Invalid are terminal.
const (
	StatusUnset     BatchStatus = 0
	StatusCommitted BatchStatus = 1
	StatusInvalid   BatchStatus = 2
	StatusPending   BatchStatus = 3
	StatusUnknown   BatchStatus = 4
)

// String returns the wire-protocol name of the status.
func (s BatchStatus) String() string {
	switch s {
	case StatusCommitted:
		return "COMMITTED"
	case StatusInvalid:
		return "INVALID"
	case StatusPending:
		return "PENDING"
	default:
		return "UNKNOWN"
	}
}

// Terminal reports whether the status will not change further.
func (s BatchStatus) Terminal() bool {
	return s == StatusCommitted || s == StatusInvalid
}

// InvalidTransaction is the validator's per-transaction rejection detail.
type InvalidTransaction struct {
	TransactionID string
	Message       string
}

// BatchSubmitRequest asks the validator to accept a list of batches.
type BatchSubmitRequest struct {
	Batches []*Batch
}

// SubmitStatus is the validator's immediate answer to a submission.
type SubmitStatus int32

// Submission acknowledgement values.
const (
	SubmitUnset         SubmitStatus = 0
	SubmitOK            SubmitStatus = 1
	SubmitInternalError SubmitStatus = 2
	SubmitInvalidBatch  SubmitStatus = 3
	SubmitQueueFull     SubmitStatus = 4
)

// BatchSubmitResponse acknowledges a submission. It does not imply the
// batch has been executed, only that it was accepted for processing.
type BatchSubmitResponse struct {
	Status SubmitStatus
}

// BatchStatusRequest asks for the current status of one or more batches.
type BatchStatusRequest struct {
	BatchIDs []string
	// Wait asks the validator to hold the request open until a terminal
	// status or its own timeout.
	Wait bool
	// Timeout is the validator-side wait bound in seconds.
	Timeout uint32
}

// BatchStatusEntry is the status of a single batch.
type BatchStatusEntry struct {
	BatchID             string
	Status              BatchStatus
	InvalidTransactions []*InvalidTransaction
}

// BatchStatusResponse carries the status of each requested batch.
type BatchStatusResponse struct {
	Status        SubmitStatus
	BatchStatuses []*BatchStatusEntry
}
