// Package submitter composes the codec, the signer and the transport into
// a single submission operation: build a batch from one or more payloads,
// submit it, and wait for a terminal commit status.
package submitter

import (
	"context"
	"time"

	"github.com/consensource/consensource-cli/internal/protocol"
	"github.com/consensource/consensource-cli/internal/signing"
	"github.com/consensource/consensource-cli/internal/transport"
	"github.com/consensource/consensource-cli/pkg/errors"
	"github.com/consensource/consensource-cli/pkg/logging"
)

// Requester is the transport surface the submitter needs. It is satisfied
// by *transport.Connection and by test stubs.
type Requester interface {
	Connect(ctx context.Context) error
	Request(ctx context.Context, kind transport.MessageKind, content []byte, timeout time.Duration) (*transport.Envelope, error)
}

// SubmissionResult is the terminal outcome of a submission.
type SubmissionResult struct {
	BatchID string
	Status  protocol.BatchStatus
	// InvalidTransactions holds the validator's per-transaction error
	// detail when Status is INVALID.
	InvalidTransactions []*protocol.InvalidTransaction
}

// Options configures a Submitter.
type Options struct {
	// Policy bounds retries of transient submission failures.
	Policy RetryPolicy
	// RequestTimeout bounds a single request/response exchange.
	RequestTimeout time.Duration
	// PollInterval is the initial delay between status queries.
	PollInterval time.Duration
	// MaxPollInterval caps the growing delay between status queries.
	MaxPollInterval time.Duration
	// StatusDeadline bounds the entire wait for a terminal status. When
	// it elapses the result status is UNKNOWN.
	StatusDeadline time.Duration
	// Logger defaults to a warn-level logger when nil.
	Logger *logging.Logger
}

// Submitter owns the lifecycle of a batch from construction through
// terminal status resolution. Submission is retried on transient
// failures: batch ids are deterministic for the built batch, so the
// validator deduplicates a resubmitted batch rather than executing it
// twice.
type Submitter struct {
	conn   Requester
	signer *signing.Signer
	opts   Options
	log    *logging.Logger
}

// New creates a Submitter. Zero option fields get production defaults.
func New(conn Requester, signer *signing.Signer, opts Options) *Submitter {
	if opts.Policy.MaxAttempts <= 0 {
		opts.Policy = DefaultRetryPolicy()
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = time.Second
	}
	if opts.MaxPollInterval <= 0 {
		opts.MaxPollInterval = 10 * time.Second
	}
	if opts.StatusDeadline <= 0 {
		opts.StatusDeadline = 5 * time.Minute
	}
	if opts.Logger == nil {
		opts.Logger = logging.New(logging.DefaultConfig())
	}
	return &Submitter{
		conn:   conn,
		signer: signer,
		opts:   opts,
		log:    opts.Logger.WithField("component", "submitter"),
	}
}

// Submit builds one batch from the payloads, in the order given, submits
// it and waits for a terminal status. Any build failure aborts the whole
// batch: batches are atomic units, so there is no partial submission.
func (s *Submitter) Submit(ctx context.Context, payloads []Payload) (*SubmissionResult, error) {
	if len(payloads) == 0 {
		return nil, errors.E(errors.ErrMalformedPayload, "submitter", "Submit",
			"no payloads to submit")
	}

	transactions := make([]*protocol.Transaction, 0, len(payloads))
	for _, p := range payloads {
		txn, err := BuildTransaction(s.signer, p)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, txn)
	}

	batch, err := BuildBatch(s.signer, transactions)
	if err != nil {
		return nil, err
	}

	return s.SubmitBatch(ctx, batch)
}

// SubmitBatch submits an already-built batch and waits for a terminal
// status. Transient transport failures are retried per the policy, with
// an explicit reconnect after a lost connection.
func (s *Submitter) SubmitBatch(ctx context.Context, batch *protocol.Batch) (*SubmissionResult, error) {
	content, err := protocol.EncodeBatchSubmitRequest(&protocol.BatchSubmitRequest{
		Batches: []*protocol.Batch{batch},
	})
	if err != nil {
		return nil, err
	}

	log := s.log.WithField("batch_id", batch.ID())

	var resp *transport.Envelope
	var lastErr error
	for attempt := 0; attempt < s.opts.Policy.MaxAttempts; attempt++ {
		if attempt > 0 {
			log.WithField("attempt", attempt).Debug("retrying batch submission")
			if err := s.sleep(ctx, s.opts.Policy.Backoff(attempt-1)); err != nil {
				return nil, err
			}
		}

		env, err := s.conn.Request(ctx, transport.KindBatchSubmitRequest, content, s.opts.RequestTimeout)
		if err == nil {
			ack, err := s.decodeSubmitAck(env)
			if err != nil {
				return nil, err
			}
			switch ack.Status {
			case protocol.SubmitOK:
				resp = env
			case protocol.SubmitQueueFull:
				// Back-pressure, not rejection. Retry.
				lastErr = errors.E(errors.ErrTimedOut, "submitter", "SubmitBatch",
					"validator queue full")
				continue
			case protocol.SubmitInvalidBatch:
				return &SubmissionResult{BatchID: batch.ID(), Status: protocol.StatusInvalid},
					errors.E(errors.ErrSubmissionRejected, "submitter", "SubmitBatch",
						"validator rejected the batch")
			default:
				return nil, errors.E(errors.ErrProtocolViolation, "submitter", "SubmitBatch",
					"validator reported an internal error")
			}
		} else {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if !errors.Retryable(err) && !errors.Is(err, errors.ErrNotConnected) {
				return nil, err
			}
			lastErr = err
			if errors.Is(err, errors.ErrConnectionLost) || errors.Is(err, errors.ErrNotConnected) {
				if cerr := s.conn.Connect(ctx); cerr != nil {
					lastErr = cerr
				}
			}
			continue
		}
		break
	}
	if resp == nil {
		return nil, lastErr
	}

	log.Debug("batch accepted, polling for terminal status")
	return s.waitForTerminal(ctx, batch.ID())
}

// Status performs a single status query for a batch id.
func (s *Submitter) Status(ctx context.Context, batchID string) (*SubmissionResult, error) {
	return s.queryStatus(ctx, batchID, false)
}

// waitForTerminal polls the batch status at increasing intervals until it
// is terminal or the status deadline elapses, in which case the status is
// reported as UNKNOWN.
func (s *Submitter) waitForTerminal(ctx context.Context, batchID string) (*SubmissionResult, error) {
	deadline := time.Now().Add(s.opts.StatusDeadline)
	interval := s.opts.PollInterval

	for {
		if time.Now().After(deadline) {
			return &SubmissionResult{BatchID: batchID, Status: protocol.StatusUnknown}, nil
		}

		result, err := s.queryStatus(ctx, batchID, true)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if !errors.Retryable(err) &&
				!errors.Is(err, errors.ErrNotConnected) &&
				!errors.Is(err, errors.ErrProtocolViolation) {
				return nil, err
			}
			// A violated connection has already been dropped by the
			// transport; reconnect and keep polling until the deadline.
			if !errors.Is(err, errors.ErrTimedOut) {
				if cerr := s.conn.Connect(ctx); cerr != nil {
					s.log.WithError(cerr).Debug("reconnect failed during status poll")
				}
			}
		} else if result.Status.Terminal() {
			if result.Status == protocol.StatusInvalid {
				return result, errors.E(errors.ErrSubmissionRejected, "submitter", "waitForTerminal",
					"batch was invalid")
			}
			return result, nil
		}

		if err := s.sleep(ctx, interval); err != nil {
			return nil, err
		}
		interval = time.Duration(float64(interval) * s.opts.Policy.Multiplier)
		if interval > s.opts.MaxPollInterval || interval <= 0 {
			interval = s.opts.MaxPollInterval
		}
	}
}

func (s *Submitter) queryStatus(ctx context.Context, batchID string, wait bool) (*SubmissionResult, error) {
	req := &protocol.BatchStatusRequest{BatchIDs: []string{batchID}, Wait: wait}
	if wait {
		req.Timeout = uint32(s.opts.RequestTimeout / time.Second)
	}
	content, err := protocol.EncodeBatchStatusRequest(req)
	if err != nil {
		return nil, err
	}

	env, err := s.conn.Request(ctx, transport.KindBatchStatusRequest, content, s.opts.RequestTimeout)
	if err != nil {
		return nil, err
	}
	if env.Kind != transport.KindBatchStatusResponse {
		return nil, errors.E(errors.ErrProtocolViolation, "submitter", "queryStatus",
			"unexpected response kind "+env.Kind.String())
	}

	resp, err := protocol.DecodeBatchStatusResponse(env.Content)
	if err != nil {
		return nil, err
	}

	for _, entry := range resp.BatchStatuses {
		if entry.BatchID == batchID {
			return &SubmissionResult{
				BatchID:             batchID,
				Status:              entry.Status,
				InvalidTransactions: entry.InvalidTransactions,
			}, nil
		}
	}
	return &SubmissionResult{BatchID: batchID, Status: protocol.StatusUnknown}, nil
}

func (s *Submitter) decodeSubmitAck(env *transport.Envelope) (*protocol.BatchSubmitResponse, error) {
	if env.Kind != transport.KindBatchSubmitResponse {
		return nil, errors.E(errors.ErrProtocolViolation, "submitter", "SubmitBatch",
			"unexpected response kind "+env.Kind.String())
	}
	return protocol.DecodeBatchSubmitResponse(env.Content)
}

func (s *Submitter) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
