package protocol

import (
	"bytes"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/consensource/consensource-cli/pkg/errors"
)

// Field numbers follow the validator's message definitions. Encoding
// writes fields in ascending field-number order with no maps anywhere,
// so the same logical value always produces the same bytes.

// EncodeTransactionHeader serializes a transaction header.
func EncodeTransactionHeader(h *TransactionHeader) ([]byte, error) {
	if err := validateTransactionHeader(h); err != nil {
		return nil, err
	}

	var b []byte
	b = appendString(b, 1, h.BatcherPublicKey)
	for _, dep := range h.Dependencies {
		b = appendString(b, 2, dep)
	}
	b = appendString(b, 3, h.FamilyName)
	b = appendString(b, 4, h.FamilyVersion)
	for _, in := range h.Inputs {
		b = appendString(b, 5, in)
	}
	b = appendString(b, 6, h.Nonce)
	for _, out := range h.Outputs {
		b = appendString(b, 7, out)
	}
	b = appendString(b, 9, h.PayloadSHA512)
	b = appendString(b, 10, h.SignerPublicKey)
	return b, nil
}

// DecodeTransactionHeader parses a transaction header from wire bytes.
func DecodeTransactionHeader(data []byte) (*TransactionHeader, error) {
	h := &TransactionHeader{}
	err := eachField(data, func(num protowire.Number, v []byte) error {
		switch num {
		case 1:
			h.BatcherPublicKey = string(v)
		case 2:
			h.Dependencies = append(h.Dependencies, string(v))
		case 3:
			h.FamilyName = string(v)
		case 4:
			h.FamilyVersion = string(v)
		case 5:
			h.Inputs = append(h.Inputs, string(v))
		case 6:
			h.Nonce = string(v)
		case 7:
			h.Outputs = append(h.Outputs, string(v))
		case 9:
			h.PayloadSHA512 = string(v)
		case 10:
			h.SignerPublicKey = string(v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return h, nil
}

// EncodeTransaction serializes a signed transaction.
func EncodeTransaction(t *Transaction) ([]byte, error) {
	if len(t.Header) == 0 {
		return nil, malformed("EncodeTransaction", "transaction header is required")
	}
	if t.HeaderSignature == "" {
		return nil, malformed("EncodeTransaction", "transaction header signature is required")
	}

	var b []byte
	b = appendBytes(b, 1, t.Header)
	b = appendString(b, 2, t.HeaderSignature)
	b = appendBytes(b, 3, t.Payload)
	return b, nil
}

// DecodeTransaction parses a transaction from wire bytes.
func DecodeTransaction(data []byte) (*Transaction, error) {
	t := &Transaction{}
	err := eachField(data, func(num protowire.Number, v []byte) error {
		switch num {
		case 1:
			t.Header = bytes.Clone(v)
		case 2:
			t.HeaderSignature = string(v)
		case 3:
			t.Payload = bytes.Clone(v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// EncodeBatchHeader serializes a batch header.
func EncodeBatchHeader(h *BatchHeader) ([]byte, error) {
	if h.SignerPublicKey == "" {
		return nil, malformed("EncodeBatchHeader", "batch signer public key is required")
	}
	if len(h.TransactionIDs) == 0 {
		return nil, malformed("EncodeBatchHeader", "batch must reference at least one transaction")
	}

	var b []byte
	b = appendString(b, 1, h.SignerPublicKey)
	for _, id := range h.TransactionIDs {
		b = appendString(b, 2, id)
	}
	return b, nil
}

// DecodeBatchHeader parses a batch header from wire bytes.
func DecodeBatchHeader(data []byte) (*BatchHeader, error) {
	h := &BatchHeader{}
	err := eachField(data, func(num protowire.Number, v []byte) error {
		switch num {
		case 1:
			h.SignerPublicKey = string(v)
		case 2:
			h.TransactionIDs = append(h.TransactionIDs, string(v))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return h, nil
}

// EncodeBatch serializes a signed batch.
func EncodeBatch(batch *Batch) ([]byte, error) {
	if len(batch.Header) == 0 {
		return nil, malformed("EncodeBatch", "batch header is required")
	}
	if batch.HeaderSignature == "" {
		return nil, malformed("EncodeBatch", "batch header signature is required")
	}
	if len(batch.Transactions) == 0 {
		return nil, malformed("EncodeBatch", "batch must contain at least one transaction")
	}

	var b []byte
	b = appendBytes(b, 1, batch.Header)
	b = appendString(b, 2, batch.HeaderSignature)
	for _, txn := range batch.Transactions {
		tb, err := EncodeTransaction(txn)
		if err != nil {
			return nil, err
		}
		b = appendBytes(b, 3, tb)
	}
	return b, nil
}

// DecodeBatch parses a batch from wire bytes.
func DecodeBatch(data []byte) (*Batch, error) {
	batch := &Batch{}
	err := eachField(data, func(num protowire.Number, v []byte) error {
		switch num {
		case 1:
			batch.Header = bytes.Clone(v)
		case 2:
			batch.HeaderSignature = string(v)
		case 3:
			txn, err := DecodeTransaction(v)
			if err != nil {
				return err
			}
			batch.Transactions = append(batch.Transactions, txn)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return batch, nil
}

// EncodeBatchList serializes a batch list.
func EncodeBatchList(list *BatchList) ([]byte, error) {
	var b []byte
	for _, batch := range list.Batches {
		bb, err := EncodeBatch(batch)
		if err != nil {
			return nil, err
		}
		b = appendBytes(b, 1, bb)
	}
	return b, nil
}

// DecodeBatchList parses a batch list from wire bytes.
func DecodeBatchList(data []byte) (*BatchList, error) {
	list := &BatchList{}
	err := eachField(data, func(num protowire.Number, v []byte) error {
		if num == 1 {
			batch, err := DecodeBatch(v)
			if err != nil {
				return err
			}
			list.Batches = append(list.Batches, batch)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return list, nil
}

// EncodeBatchSubmitRequest serializes a submission request.
func EncodeBatchSubmitRequest(req *BatchSubmitRequest) ([]byte, error) {
	if len(req.Batches) == 0 {
		return nil, malformed("EncodeBatchSubmitRequest", "submission must contain at least one batch")
	}

	var b []byte
	for _, batch := range req.Batches {
		bb, err := EncodeBatch(batch)
		if err != nil {
			return nil, err
		}
		b = appendBytes(b, 1, bb)
	}
	return b, nil
}

// DecodeBatchSubmitRequest parses a submission request from wire bytes.
func DecodeBatchSubmitRequest(data []byte) (*BatchSubmitRequest, error) {
	req := &BatchSubmitRequest{}
	err := eachField(data, func(num protowire.Number, v []byte) error {
		if num == 1 {
			batch, err := DecodeBatch(v)
			if err != nil {
				return err
			}
			req.Batches = append(req.Batches, batch)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

// EncodeBatchSubmitResponse serializes a submission acknowledgement.
func EncodeBatchSubmitResponse(resp *BatchSubmitResponse) ([]byte, error) {
	var b []byte
	b = appendVarint(b, 1, uint64(resp.Status))
	return b, nil
}

// DecodeBatchSubmitResponse parses a submission acknowledgement.
func DecodeBatchSubmitResponse(data []byte) (*BatchSubmitResponse, error) {
	resp := &BatchSubmitResponse{}
	err := eachVarintOrBytes(data, func(num protowire.Number, u uint64, _ []byte) error {
		if num == 1 {
			resp.Status = SubmitStatus(u)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// EncodeBatchStatusRequest serializes a status query.
func EncodeBatchStatusRequest(req *BatchStatusRequest) ([]byte, error) {
	if len(req.BatchIDs) == 0 {
		return nil, malformed("EncodeBatchStatusRequest", "status query must name at least one batch")
	}

	var b []byte
	for _, id := range req.BatchIDs {
		b = appendString(b, 1, id)
	}
	if req.Wait {
		b = appendVarint(b, 2, 1)
	}
	if req.Timeout != 0 {
		b = appendVarint(b, 3, uint64(req.Timeout))
	}
	return b, nil
}

// DecodeBatchStatusRequest parses a status query from wire bytes.
func DecodeBatchStatusRequest(data []byte) (*BatchStatusRequest, error) {
	req := &BatchStatusRequest{}
	err := eachVarintOrBytes(data, func(num protowire.Number, u uint64, v []byte) error {
		switch num {
		case 1:
			req.BatchIDs = append(req.BatchIDs, string(v))
		case 2:
			req.Wait = u != 0
		case 3:
			req.Timeout = uint32(u)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

// EncodeBatchStatusResponse serializes a status response.
func EncodeBatchStatusResponse(resp *BatchStatusResponse) ([]byte, error) {
	var b []byte
	b = appendVarint(b, 1, uint64(resp.Status))
	for _, entry := range resp.BatchStatuses {
		var eb []byte
		eb = appendString(eb, 1, entry.BatchID)
		eb = appendVarint(eb, 2, uint64(entry.Status))
		for _, inv := range entry.InvalidTransactions {
			var ib []byte
			ib = appendString(ib, 1, inv.TransactionID)
			ib = appendString(ib, 2, inv.Message)
			eb = appendBytes(eb, 3, ib)
		}
		b = appendBytes(b, 2, eb)
	}
	return b, nil
}

// DecodeBatchStatusResponse parses a status response from wire bytes.
func DecodeBatchStatusResponse(data []byte) (*BatchStatusResponse, error) {
	resp := &BatchStatusResponse{}
	err := eachVarintOrBytes(data, func(num protowire.Number, u uint64, v []byte) error {
		switch num {
		case 1:
			resp.Status = SubmitStatus(u)
		case 2:
			entry, err := decodeBatchStatusEntry(v)
			if err != nil {
				return err
			}
			resp.BatchStatuses = append(resp.BatchStatuses, entry)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func decodeBatchStatusEntry(data []byte) (*BatchStatusEntry, error) {
	entry := &BatchStatusEntry{}
	err := eachVarintOrBytes(data, func(num protowire.Number, u uint64, v []byte) error {
		switch num {
		case 1:
			entry.BatchID = string(v)
		case 2:
			entry.Status = BatchStatus(u)
		case 3:
			inv := &InvalidTransaction{}
			err := eachField(v, func(n protowire.Number, fv []byte) error {
				switch n {
				case 1:
					inv.TransactionID = string(fv)
				case 2:
					inv.Message = string(fv)
				}
				return nil
			})
			if err != nil {
				return err
			}
			entry.InvalidTransactions = append(entry.InvalidTransactions, inv)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func validateTransactionHeader(h *TransactionHeader) error {
	switch {
	case h.FamilyName == "":
		return malformed("EncodeTransactionHeader", "family name is required")
	case h.FamilyVersion == "":
		return malformed("EncodeTransactionHeader", "family version is required")
	case h.SignerPublicKey == "":
		return malformed("EncodeTransactionHeader", "signer public key is required")
	case h.BatcherPublicKey == "":
		return malformed("EncodeTransactionHeader", "batcher public key is required")
	case h.PayloadSHA512 == "":
		return malformed("EncodeTransactionHeader", "payload digest is required")
	case h.Nonce == "":
		return malformed("EncodeTransactionHeader", "nonce is required")
	}
	return nil
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendBytes(b []byte, num protowire.Number, v []byte) []byte {
	if len(v) == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

// eachField walks a message whose fields are all length-delimited,
// invoking fn for every field. Unknown fields are skipped; any wire-level
// inconsistency is a protocol violation.
func eachField(data []byte, fn func(num protowire.Number, v []byte) error) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return violation("malformed field tag")
		}
		data = data[n:]

		if typ != protowire.BytesType {
			m := protowire.ConsumeFieldValue(num, typ, data)
			if m < 0 {
				return violation("malformed field value")
			}
			data = data[m:]
			continue
		}

		v, m := protowire.ConsumeBytes(data)
		if m < 0 {
			return violation("malformed length-delimited field")
		}
		data = data[m:]

		if err := fn(num, v); err != nil {
			return err
		}
	}
	return nil
}

// eachVarintOrBytes walks a message with a mix of varint and
// length-delimited fields.
func eachVarintOrBytes(data []byte, fn func(num protowire.Number, u uint64, v []byte) error) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return violation("malformed field tag")
		}
		data = data[n:]

		switch typ {
		case protowire.VarintType:
			u, m := protowire.ConsumeVarint(data)
			if m < 0 {
				return violation("malformed varint field")
			}
			data = data[m:]
			if err := fn(num, u, nil); err != nil {
				return err
			}
		case protowire.BytesType:
			v, m := protowire.ConsumeBytes(data)
			if m < 0 {
				return violation("malformed length-delimited field")
			}
			data = data[m:]
			if err := fn(num, 0, v); err != nil {
				return err
			}
		default:
			m := protowire.ConsumeFieldValue(num, typ, data)
			if m < 0 {
				return violation("malformed field value")
			}
			data = data[m:]
		}
	}
	return nil
}

func malformed(op, msg string) error {
	return errors.E(errors.ErrMalformedPayload, "codec", op, msg)
}

func violation(msg string) error {
	return errors.E(errors.ErrProtocolViolation, "codec", "Decode", msg)
}
