// Package errors defines the error taxonomy shared by the codec, signing,
// transport and submission layers, plus a small domain error type that
// carries operation context.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors. Callers classify failures with errors.Is against these
// to decide whether an operation may be retried.
var (
	// ErrMalformedPayload indicates the caller supplied input that cannot
	// be encoded into a valid transaction. Never retried.
	ErrMalformedPayload = errors.New("malformed payload")
	// ErrSigningFailed indicates a signing operation failed, usually
	// because of bad key material. Never retried.
	ErrSigningFailed = errors.New("signing failed")
	// ErrInvalidKeyFormat indicates key material could not be parsed.
	ErrInvalidKeyFormat = errors.New("invalid key format")
	// ErrProtocolViolation indicates unexpected wire bytes. Fatal to the
	// connection that produced them.
	ErrProtocolViolation = errors.New("protocol violation")
	// ErrConnectionLost indicates the validator connection dropped while
	// a request was outstanding. Transient; retried with backoff.
	ErrConnectionLost = errors.New("connection lost")
	// ErrTimedOut indicates a request did not receive a response within
	// its deadline. Transient; retried with backoff.
	ErrTimedOut = errors.New("request timed out")
	// ErrSubmissionRejected indicates the validator reported the batch
	// INVALID. Never retried: resubmitting a known-bad batch cannot succeed.
	ErrSubmissionRejected = errors.New("submission rejected")
	// ErrNotConnected indicates a request was issued on a connection that
	// has not been established or has been closed.
	ErrNotConnected = errors.New("not connected")
)

// Unwrap provides compatibility with the standard errors package.
func Unwrap(err error) error { return errors.Unwrap(err) }

// Is provides compatibility with the standard errors package.
func Is(err, target error) bool { return errors.Is(err, target) }

// As provides compatibility with the standard errors package.
func As(err error, target interface{}) bool { return errors.As(err, target) }

// New creates a new error with the given message.
func New(message string) error { return errors.New(message) }

// Retryable reports whether err represents a transient failure that the
// submission layer may retry.
func Retryable(err error) bool {
	return errors.Is(err, ErrConnectionLost) || errors.Is(err, ErrTimedOut)
}

// Error is a domain error with additional context.
type Error struct {
	// Original is the underlying error, often one of the sentinels above.
	Original error
	// Domain is the layer that produced the error (e.g. "codec", "transport").
	Domain string
	// Operation is the operation that failed (e.g. "Submit", "Request").
	Operation string
	// Message is a human-readable description.
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	var sb strings.Builder

	sb.WriteString("[")
	if e.Domain != "" {
		sb.WriteString(e.Domain)
		if e.Operation != "" {
			sb.WriteString(".")
			sb.WriteString(e.Operation)
		}
	} else if e.Operation != "" {
		sb.WriteString(e.Operation)
	}
	sb.WriteString("] ")

	if e.Message != "" {
		sb.WriteString(e.Message)
	}

	if e.Original != nil {
		if e.Message != "" {
			sb.WriteString(": ")
		}
		sb.WriteString(e.Original.Error())
	}

	return sb.String()
}

// Unwrap implements the errors.Unwrapper interface.
func (e *Error) Unwrap() error { return e.Original }

// Wrap wraps an error with a message, preserving the domain and operation
// of an existing domain error.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}

	var domainErr *Error
	if errors.As(err, &domainErr) {
		return &Error{
			Original:  domainErr,
			Domain:    domainErr.Domain,
			Operation: domainErr.Operation,
			Message:   message,
		}
	}

	return &Error{Original: err, Message: message}
}

// Wrapf wraps an error with a formatted message.
func Wrapf(err error, format string, args ...interface{}) error {
	return Wrap(err, fmt.Sprintf(format, args...))
}

// E builds a domain error. String arguments are assigned in order to
// Domain, Operation and Message; an error argument becomes Original.
func E(args ...interface{}) error {
	if len(args) == 0 {
		return nil
	}

	e := &Error{}
	for _, arg := range args {
		switch a := arg.(type) {
		case string:
			if e.Domain == "" {
				e.Domain = a
			} else if e.Operation == "" {
				e.Operation = a
			} else if e.Message == "" {
				e.Message = a
			}
		case error:
			e.Original = a
		}
	}

	return e
}
