package protocol

import (
	"bytes"
	"testing"

	"github.com/consensource/consensource-cli/pkg/errors"
)

func sampleHeader() *TransactionHeader {
	return &TransactionHeader{
		BatcherPublicKey: "02aabbcc",
		Dependencies:     []string{"dep1", "dep2"},
		FamilyName:       "certificate_registry",
		FamilyVersion:    "0.1",
		Inputs:           []string{"addr1", "addr2"},
		Nonce:            "0011223344556677",
		Outputs:          []string{"addr2"},
		PayloadSHA512:    "feedface",
		SignerPublicKey:  "02aabbcc",
	}
}

func TestTransactionHeaderRoundTrip(t *testing.T) {
	orig := sampleHeader()
	encoded, err := EncodeTransactionHeader(orig)
	if err != nil {
		t.Fatalf("EncodeTransactionHeader: %v", err)
	}

	decoded, err := DecodeTransactionHeader(encoded)
	if err != nil {
		t.Fatalf("DecodeTransactionHeader: %v", err)
	}

	if decoded.BatcherPublicKey != orig.BatcherPublicKey {
		t.Errorf("BatcherPublicKey: %q != %q", decoded.BatcherPublicKey, orig.BatcherPublicKey)
	}
	if len(decoded.Dependencies) != 2 || decoded.Dependencies[0] != "dep1" || decoded.Dependencies[1] != "dep2" {
		t.Errorf("Dependencies: %v", decoded.Dependencies)
	}
	if decoded.FamilyName != orig.FamilyName {
		t.Errorf("FamilyName: %q != %q", decoded.FamilyName, orig.FamilyName)
	}
	if decoded.FamilyVersion != orig.FamilyVersion {
		t.Errorf("FamilyVersion: %q != %q", decoded.FamilyVersion, orig.FamilyVersion)
	}
	if len(decoded.Inputs) != 2 || decoded.Inputs[0] != "addr1" {
		t.Errorf("Inputs: %v", decoded.Inputs)
	}
	if decoded.Nonce != orig.Nonce {
		t.Errorf("Nonce: %q != %q", decoded.Nonce, orig.Nonce)
	}
	if len(decoded.Outputs) != 1 || decoded.Outputs[0] != "addr2" {
		t.Errorf("Outputs: %v", decoded.Outputs)
	}
	if decoded.PayloadSHA512 != orig.PayloadSHA512 {
		t.Errorf("PayloadSHA512: %q != %q", decoded.PayloadSHA512, orig.PayloadSHA512)
	}
	if decoded.SignerPublicKey != orig.SignerPublicKey {
		t.Errorf("SignerPublicKey: %q != %q", decoded.SignerPublicKey, orig.SignerPublicKey)
	}
}

func TestTransactionHeaderEncodingIsStable(t *testing.T) {
	first, err := EncodeTransactionHeader(sampleHeader())
	if err != nil {
		t.Fatalf("EncodeTransactionHeader: %v", err)
	}
	second, err := EncodeTransactionHeader(sampleHeader())
	if err != nil {
		t.Fatalf("EncodeTransactionHeader: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("encoding the same header twice produced different bytes")
	}

	// Decode and re-encode must also reproduce the bytes exactly, since
	// the transaction id is a signature over them.
	decoded, err := DecodeTransactionHeader(first)
	if err != nil {
		t.Fatalf("DecodeTransactionHeader: %v", err)
	}
	reencoded, err := EncodeTransactionHeader(decoded)
	if err != nil {
		t.Fatalf("EncodeTransactionHeader: %v", err)
	}
	if !bytes.Equal(first, reencoded) {
		t.Error("re-encoding a decoded header changed the bytes")
	}
}

func TestEncodeTransactionHeaderRejectsMissingFields(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*TransactionHeader)
	}{
		{"family name", func(h *TransactionHeader) { h.FamilyName = "" }},
		{"family version", func(h *TransactionHeader) { h.FamilyVersion = "" }},
		{"signer", func(h *TransactionHeader) { h.SignerPublicKey = "" }},
		{"batcher", func(h *TransactionHeader) { h.BatcherPublicKey = "" }},
		{"payload digest", func(h *TransactionHeader) { h.PayloadSHA512 = "" }},
		{"nonce", func(h *TransactionHeader) { h.Nonce = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := sampleHeader()
			tc.mutate(h)
			_, err := EncodeTransactionHeader(h)
			if !errors.Is(err, errors.ErrMalformedPayload) {
				t.Errorf("expected ErrMalformedPayload, got %v", err)
			}
		})
	}
}

func TestBatchRoundTrip(t *testing.T) {
	headerBytes, err := EncodeTransactionHeader(sampleHeader())
	if err != nil {
		t.Fatalf("EncodeTransactionHeader: %v", err)
	}
	txn := &Transaction{
		Header:          headerBytes,
		HeaderSignature: "txnsig",
		Payload:         []byte{0x01, 0x02, 0x03},
	}
	batch := &Batch{
		Header:          []byte{0x0a, 0x01, 0x78},
		HeaderSignature: "batchsig",
		Transactions:    []*Transaction{txn},
	}

	encoded, err := EncodeBatch(batch)
	if err != nil {
		t.Fatalf("EncodeBatch: %v", err)
	}
	decoded, err := DecodeBatch(encoded)
	if err != nil {
		t.Fatalf("DecodeBatch: %v", err)
	}

	if decoded.ID() != "batchsig" {
		t.Errorf("batch id: %q", decoded.ID())
	}
	if !bytes.Equal(decoded.Header, batch.Header) {
		t.Error("batch header bytes changed")
	}
	if len(decoded.Transactions) != 1 {
		t.Fatalf("transactions: %d", len(decoded.Transactions))
	}
	got := decoded.Transactions[0]
	if got.ID() != "txnsig" {
		t.Errorf("transaction id: %q", got.ID())
	}
	if !bytes.Equal(got.Header, headerBytes) {
		t.Error("transaction header bytes changed")
	}
	if !bytes.Equal(got.Payload, txn.Payload) {
		t.Error("payload bytes changed")
	}
}

func TestEncodeBatchRejectsEmpty(t *testing.T) {
	_, err := EncodeBatch(&Batch{Header: []byte{1}, HeaderSignature: "sig"})
	if !errors.Is(err, errors.ErrMalformedPayload) {
		t.Errorf("expected ErrMalformedPayload, got %v", err)
	}
	_, err = EncodeBatchHeader(&BatchHeader{SignerPublicKey: "02aa"})
	if !errors.Is(err, errors.ErrMalformedPayload) {
		t.Errorf("expected ErrMalformedPayload, got %v", err)
	}
}

func TestBatchListRoundTrip(t *testing.T) {
	headerBytes, err := EncodeTransactionHeader(sampleHeader())
	if err != nil {
		t.Fatalf("EncodeTransactionHeader: %v", err)
	}
	list := &BatchList{}
	for _, sig := range []string{"batch-a", "batch-b", "batch-c"} {
		list.Batches = append(list.Batches, &Batch{
			Header:          []byte{0x0a, 0x01, 0x78},
			HeaderSignature: sig,
			Transactions: []*Transaction{{
				Header:          headerBytes,
				HeaderSignature: "txn-" + sig,
				Payload:         []byte{0xff},
			}},
		})
	}

	encoded, err := EncodeBatchList(list)
	if err != nil {
		t.Fatalf("EncodeBatchList: %v", err)
	}
	decoded, err := DecodeBatchList(encoded)
	if err != nil {
		t.Fatalf("DecodeBatchList: %v", err)
	}

	if len(decoded.Batches) != 3 {
		t.Fatalf("batches: %d", len(decoded.Batches))
	}
	for i, sig := range []string{"batch-a", "batch-b", "batch-c"} {
		if decoded.Batches[i].ID() != sig {
			t.Errorf("batch %d id: %q != %q", i, decoded.Batches[i].ID(), sig)
		}
	}
}

func TestBatchStatusRequestRoundTrip(t *testing.T) {
	req := &BatchStatusRequest{
		BatchIDs: []string{"id-1", "id-2"},
		Wait:     true,
		Timeout:  30,
	}
	encoded, err := EncodeBatchStatusRequest(req)
	if err != nil {
		t.Fatalf("EncodeBatchStatusRequest: %v", err)
	}
	decoded, err := DecodeBatchStatusRequest(encoded)
	if err != nil {
		t.Fatalf("DecodeBatchStatusRequest: %v", err)
	}
	if len(decoded.BatchIDs) != 2 || decoded.BatchIDs[0] != "id-1" || decoded.BatchIDs[1] != "id-2" {
		t.Errorf("BatchIDs: %v", decoded.BatchIDs)
	}
	if !decoded.Wait {
		t.Error("Wait was dropped")
	}
	if decoded.Timeout != 30 {
		t.Errorf("Timeout: %d", decoded.Timeout)
	}
}

func TestBatchStatusResponseRoundTrip(t *testing.T) {
	resp := &BatchStatusResponse{
		Status: SubmitOK,
		BatchStatuses: []*BatchStatusEntry{
			{BatchID: "good", Status: StatusCommitted},
			{
				BatchID: "bad",
				Status:  StatusInvalid,
				InvalidTransactions: []*InvalidTransaction{
					{TransactionID: "txn-1", Message: "agent already exists"},
				},
			},
		},
	}

	encoded, err := EncodeBatchStatusResponse(resp)
	if err != nil {
		t.Fatalf("EncodeBatchStatusResponse: %v", err)
	}
	decoded, err := DecodeBatchStatusResponse(encoded)
	if err != nil {
		t.Fatalf("DecodeBatchStatusResponse: %v", err)
	}

	if decoded.Status != SubmitOK {
		t.Errorf("Status: %v", decoded.Status)
	}
	if len(decoded.BatchStatuses) != 2 {
		t.Fatalf("entries: %d", len(decoded.BatchStatuses))
	}
	if decoded.BatchStatuses[0].BatchID != "good" || decoded.BatchStatuses[0].Status != StatusCommitted {
		t.Errorf("entry 0: %+v", decoded.BatchStatuses[0])
	}
	bad := decoded.BatchStatuses[1]
	if bad.Status != StatusInvalid {
		t.Errorf("entry 1 status: %v", bad.Status)
	}
	if len(bad.InvalidTransactions) != 1 {
		t.Fatalf("invalid transactions: %d", len(bad.InvalidTransactions))
	}
	if bad.InvalidTransactions[0].TransactionID != "txn-1" ||
		bad.InvalidTransactions[0].Message != "agent already exists" {
		t.Errorf("invalid transaction: %+v", bad.InvalidTransactions[0])
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	garbage := []byte{0xff}
	decoders := map[string]func([]byte) error{
		"transaction header": func(b []byte) error { _, err := DecodeTransactionHeader(b); return err },
		"transaction":        func(b []byte) error { _, err := DecodeTransaction(b); return err },
		"batch":              func(b []byte) error { _, err := DecodeBatch(b); return err },
		"batch list":         func(b []byte) error { _, err := DecodeBatchList(b); return err },
		"status response":    func(b []byte) error { _, err := DecodeBatchStatusResponse(b); return err },
	}
	for name, decode := range decoders {
		if err := decode(garbage); !errors.Is(err, errors.ErrProtocolViolation) {
			t.Errorf("%s: expected ErrProtocolViolation, got %v", name, err)
		}
	}
}

func TestDecodeSkipsUnknownFields(t *testing.T) {
	encoded, err := EncodeTransactionHeader(sampleHeader())
	if err != nil {
		t.Fatalf("EncodeTransactionHeader: %v", err)
	}
	// Append an unknown length-delimited field; decoding must ignore it.
	withUnknown := append(append([]byte{}, encoded...), 0x7a, 0x02, 0xde, 0xad)

	decoded, err := DecodeTransactionHeader(withUnknown)
	if err != nil {
		t.Fatalf("DecodeTransactionHeader: %v", err)
	}
	if decoded.FamilyName != "certificate_registry" {
		t.Errorf("FamilyName: %q", decoded.FamilyName)
	}
}

func TestBatchStatusSemantics(t *testing.T) {
	if !StatusCommitted.Terminal() || !StatusInvalid.Terminal() {
		t.Error("committed and invalid must be terminal")
	}
	if StatusPending.Terminal() || StatusUnknown.Terminal() {
		t.Error("pending and unknown must not be terminal")
	}
	if StatusCommitted.String() != "COMMITTED" || StatusInvalid.String() != "INVALID" ||
		StatusPending.String() != "PENDING" || StatusUnknown.String() != "UNKNOWN" {
		t.Error("status names diverge from the wire protocol")
	}
}
