package submitter

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/consensource/consensource-cli/internal/protocol"
	"github.com/consensource/consensource-cli/internal/signing"
	"github.com/consensource/consensource-cli/internal/transport"
	"github.com/consensource/consensource-cli/pkg/errors"
)

// stubRequester scripts validator behavior: each Request consumes the
// next step, and connection attempts are counted.
type stubRequester struct {
	mu       sync.Mutex
	steps    []func(kind transport.MessageKind, content []byte) (*transport.Envelope, error)
	connects int
	requests int
}

func (s *stubRequester) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connects++
	return nil
}

func (s *stubRequester) Request(ctx context.Context, kind transport.MessageKind, content []byte, timeout time.Duration) (*transport.Envelope, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests++
	if len(s.steps) == 0 {
		return nil, errors.E(errors.ErrTimedOut, "transport", "Request", "no scripted response")
	}
	step := s.steps[0]
	s.steps = s.steps[1:]
	return step(kind, content)
}

func (s *stubRequester) push(fn func(kind transport.MessageKind, content []byte) (*transport.Envelope, error)) {
	s.steps = append(s.steps, fn)
}

func submitAck(t *testing.T, status protocol.SubmitStatus) func(transport.MessageKind, []byte) (*transport.Envelope, error) {
	t.Helper()
	return func(kind transport.MessageKind, content []byte) (*transport.Envelope, error) {
		if kind != transport.KindBatchSubmitRequest {
			t.Errorf("expected submit request, got %v", kind)
		}
		body, err := protocol.EncodeBatchSubmitResponse(&protocol.BatchSubmitResponse{Status: status})
		if err != nil {
			t.Fatalf("EncodeBatchSubmitResponse: %v", err)
		}
		return &transport.Envelope{Kind: transport.KindBatchSubmitResponse, Content: body}, nil
	}
}

func statusReply(t *testing.T, entries ...*protocol.BatchStatusEntry) func(transport.MessageKind, []byte) (*transport.Envelope, error) {
	t.Helper()
	return func(kind transport.MessageKind, content []byte) (*transport.Envelope, error) {
		if kind != transport.KindBatchStatusRequest {
			t.Errorf("expected status request, got %v", kind)
		}
		body, err := protocol.EncodeBatchStatusResponse(&protocol.BatchStatusResponse{
			Status:        protocol.SubmitOK,
			BatchStatuses: entries,
		})
		if err != nil {
			t.Fatalf("EncodeBatchStatusResponse: %v", err)
		}
		return &transport.Envelope{Kind: transport.KindBatchStatusResponse, Content: body}, nil
	}
}

func requestFailure(err error) func(transport.MessageKind, []byte) (*transport.Envelope, error) {
	return func(transport.MessageKind, []byte) (*transport.Envelope, error) {
		return nil, err
	}
}

func testOptions() Options {
	return Options{
		Policy: RetryPolicy{
			MaxAttempts:    3,
			InitialBackoff: time.Millisecond,
			MaxBackoff:     2 * time.Millisecond,
			Multiplier:     2,
		},
		RequestTimeout:  time.Second,
		PollInterval:    time.Millisecond,
		MaxPollInterval: 2 * time.Millisecond,
		StatusDeadline:  time.Second,
	}
}

func testSigner(t *testing.T) *signing.Signer {
	t.Helper()
	signer, err := signing.NewSigner()
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}
	return signer
}

func testPayload() Payload {
	return Payload{
		Bytes:   []byte{0x08, 0x01},
		Inputs:  []string{"aa"},
		Outputs: []string{"aa"},
	}
}

func TestSubmitCommits(t *testing.T) {
	signer := testSigner(t)
	stub := &stubRequester{}

	batch, err := BuildBatch(signer, mustBuild(t, signer, testPayload()))
	if err != nil {
		t.Fatalf("BuildBatch: %v", err)
	}

	stub.push(submitAck(t, protocol.SubmitOK))
	stub.push(statusReply(t, &protocol.BatchStatusEntry{
		BatchID: batch.ID(), Status: protocol.StatusCommitted,
	}))

	sub := New(stub, signer, testOptions())
	result, err := sub.SubmitBatch(context.Background(), batch)
	if err != nil {
		t.Fatalf("SubmitBatch: %v", err)
	}
	if result.BatchID != batch.ID() {
		t.Errorf("BatchID: %q != %q", result.BatchID, batch.ID())
	}
	if result.Status != protocol.StatusCommitted {
		t.Errorf("Status: %v", result.Status)
	}
}

func TestSubmitRejectedAtSubmission(t *testing.T) {
	signer := testSigner(t)
	stub := &stubRequester{}
	stub.push(submitAck(t, protocol.SubmitInvalidBatch))

	sub := New(stub, signer, testOptions())
	result, err := sub.Submit(context.Background(), []Payload{testPayload()})
	if !errors.Is(err, errors.ErrSubmissionRejected) {
		t.Fatalf("expected ErrSubmissionRejected, got %v", err)
	}
	if result == nil || result.Status != protocol.StatusInvalid {
		t.Errorf("result: %+v", result)
	}
}

func TestSubmitInvalidAtStatusCarriesDetail(t *testing.T) {
	signer := testSigner(t)
	stub := &stubRequester{}

	batch, err := BuildBatch(signer, mustBuild(t, signer, testPayload()))
	if err != nil {
		t.Fatalf("BuildBatch: %v", err)
	}

	stub.push(submitAck(t, protocol.SubmitOK))
	stub.push(statusReply(t, &protocol.BatchStatusEntry{
		BatchID: batch.ID(),
		Status:  protocol.StatusInvalid,
		InvalidTransactions: []*protocol.InvalidTransaction{
			{TransactionID: batch.Transactions[0].ID(), Message: "agent already exists"},
		},
	}))

	sub := New(stub, signer, testOptions())
	result, err := sub.SubmitBatch(context.Background(), batch)
	if !errors.Is(err, errors.ErrSubmissionRejected) {
		t.Fatalf("expected ErrSubmissionRejected, got %v", err)
	}
	if result.Status != protocol.StatusInvalid {
		t.Errorf("Status: %v", result.Status)
	}
	if len(result.InvalidTransactions) != 1 ||
		result.InvalidTransactions[0].Message != "agent already exists" {
		t.Errorf("InvalidTransactions: %+v", result.InvalidTransactions)
	}
}

func TestSubmitRetriesAfterConnectionLoss(t *testing.T) {
	signer := testSigner(t)
	stub := &stubRequester{}

	batch, err := BuildBatch(signer, mustBuild(t, signer, testPayload()))
	if err != nil {
		t.Fatalf("BuildBatch: %v", err)
	}

	stub.push(requestFailure(errors.E(errors.ErrConnectionLost, "transport", "Request", "connection lost")))
	stub.push(submitAck(t, protocol.SubmitOK))
	stub.push(statusReply(t, &protocol.BatchStatusEntry{
		BatchID: batch.ID(), Status: protocol.StatusCommitted,
	}))

	sub := New(stub, signer, testOptions())
	result, err := sub.SubmitBatch(context.Background(), batch)
	if err != nil {
		t.Fatalf("SubmitBatch: %v", err)
	}
	if result.Status != protocol.StatusCommitted {
		t.Errorf("Status: %v", result.Status)
	}
	if stub.connects != 1 {
		t.Errorf("reconnects: %d", stub.connects)
	}
}

func TestSubmitRetriesWhenQueueFull(t *testing.T) {
	signer := testSigner(t)
	stub := &stubRequester{}

	batch, err := BuildBatch(signer, mustBuild(t, signer, testPayload()))
	if err != nil {
		t.Fatalf("BuildBatch: %v", err)
	}

	stub.push(submitAck(t, protocol.SubmitQueueFull))
	stub.push(submitAck(t, protocol.SubmitOK))
	stub.push(statusReply(t, &protocol.BatchStatusEntry{
		BatchID: batch.ID(), Status: protocol.StatusCommitted,
	}))

	sub := New(stub, signer, testOptions())
	result, err := sub.SubmitBatch(context.Background(), batch)
	if err != nil {
		t.Fatalf("SubmitBatch: %v", err)
	}
	if result.Status != protocol.StatusCommitted {
		t.Errorf("Status: %v", result.Status)
	}
}

func TestSubmitGivesUpAfterMaxAttempts(t *testing.T) {
	signer := testSigner(t)
	stub := &stubRequester{}
	lost := errors.E(errors.ErrConnectionLost, "transport", "Request", "connection lost")
	stub.push(requestFailure(lost))
	stub.push(requestFailure(lost))
	stub.push(requestFailure(lost))

	sub := New(stub, signer, testOptions())
	_, err := sub.Submit(context.Background(), []Payload{testPayload()})
	if !errors.Is(err, errors.ErrConnectionLost) {
		t.Fatalf("expected ErrConnectionLost, got %v", err)
	}
	if stub.requests != 3 {
		t.Errorf("attempts: %d", stub.requests)
	}
}

func TestSubmitPollsUntilTerminal(t *testing.T) {
	signer := testSigner(t)
	stub := &stubRequester{}

	batch, err := BuildBatch(signer, mustBuild(t, signer, testPayload()))
	if err != nil {
		t.Fatalf("BuildBatch: %v", err)
	}

	stub.push(submitAck(t, protocol.SubmitOK))
	pending := &protocol.BatchStatusEntry{BatchID: batch.ID(), Status: protocol.StatusPending}
	stub.push(statusReply(t, pending))
	stub.push(statusReply(t, pending))
	stub.push(statusReply(t, &protocol.BatchStatusEntry{
		BatchID: batch.ID(), Status: protocol.StatusCommitted,
	}))

	sub := New(stub, signer, testOptions())
	result, err := sub.SubmitBatch(context.Background(), batch)
	if err != nil {
		t.Fatalf("SubmitBatch: %v", err)
	}
	if result.Status != protocol.StatusCommitted {
		t.Errorf("Status: %v", result.Status)
	}
	if stub.requests != 4 {
		t.Errorf("requests: %d", stub.requests)
	}
}

func TestSubmitReportsUnknownAtDeadline(t *testing.T) {
	signer := testSigner(t)
	stub := &stubRequester{}

	batch, err := BuildBatch(signer, mustBuild(t, signer, testPayload()))
	if err != nil {
		t.Fatalf("BuildBatch: %v", err)
	}

	stub.push(submitAck(t, protocol.SubmitOK))
	// Stay pending forever; the deadline must convert this to UNKNOWN.
	for i := 0; i < 100; i++ {
		stub.push(statusReply(t, &protocol.BatchStatusEntry{
			BatchID: batch.ID(), Status: protocol.StatusPending,
		}))
	}

	opts := testOptions()
	opts.StatusDeadline = 20 * time.Millisecond
	sub := New(stub, signer, opts)
	result, err := sub.SubmitBatch(context.Background(), batch)
	if err != nil {
		t.Fatalf("SubmitBatch: %v", err)
	}
	if result.Status != protocol.StatusUnknown {
		t.Errorf("Status: %v", result.Status)
	}
}

func TestStatusQuery(t *testing.T) {
	signer := testSigner(t)
	stub := &stubRequester{}
	stub.push(statusReply(t, &protocol.BatchStatusEntry{
		BatchID: "some-batch", Status: protocol.StatusCommitted,
	}))

	sub := New(stub, signer, testOptions())
	result, err := sub.Status(context.Background(), "some-batch")
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if result.Status != protocol.StatusCommitted {
		t.Errorf("Status: %v", result.Status)
	}
}

func TestStatusUnknownBatch(t *testing.T) {
	signer := testSigner(t)
	stub := &stubRequester{}
	stub.push(statusReply(t))

	sub := New(stub, signer, testOptions())
	result, err := sub.Status(context.Background(), "absent-batch")
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if result.Status != protocol.StatusUnknown {
		t.Errorf("Status: %v", result.Status)
	}
}

func TestSubmitRejectsEmptyPayloadList(t *testing.T) {
	sub := New(&stubRequester{}, testSigner(t), testOptions())
	if _, err := sub.Submit(context.Background(), nil); !errors.Is(err, errors.ErrMalformedPayload) {
		t.Errorf("expected ErrMalformedPayload, got %v", err)
	}
}

func mustBuild(t *testing.T, signer *signing.Signer, payloads ...Payload) []*protocol.Transaction {
	t.Helper()
	transactions := make([]*protocol.Transaction, 0, len(payloads))
	for _, p := range payloads {
		txn, err := BuildTransaction(signer, p)
		if err != nil {
			t.Fatalf("BuildTransaction: %v", err)
		}
		transactions = append(transactions, txn)
	}
	return transactions
}
