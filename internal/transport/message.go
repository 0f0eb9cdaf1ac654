// Package transport maintains a single logical connection to a validator
// and multiplexes concurrent request/response exchanges over it. Each
// outbound envelope carries a locally-generated correlation id; inbound
// envelopes are routed back to the waiting caller by matching that id.
package transport

import (
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/consensource/consensource-cli/pkg/errors"
)

// MessageKind tags the content of an envelope. The set is closed: the
// framing boundary matches exhaustively and treats anything else as a
// protocol violation.
type MessageKind uint32

// Message kinds.
const (
	KindUnset               MessageKind = 0
	KindPingRequest         MessageKind = 1
	KindPingResponse        MessageKind = 2
	KindBatchSubmitRequest  MessageKind = 100
	KindBatchSubmitResponse MessageKind = 101
	KindBatchStatusRequest  MessageKind = 102
	KindBatchStatusResponse MessageKind = 103
)

// String returns the wire-protocol name of the kind.
func (k MessageKind) String() string {
	switch k {
	case KindPingRequest:
		return "PING_REQUEST"
	case KindPingResponse:
		return "PING_RESPONSE"
	case KindBatchSubmitRequest:
		return "CLIENT_BATCH_SUBMIT_REQUEST"
	case KindBatchSubmitResponse:
		return "CLIENT_BATCH_SUBMIT_RESPONSE"
	case KindBatchStatusRequest:
		return "CLIENT_BATCH_STATUS_REQUEST"
	case KindBatchStatusResponse:
		return "CLIENT_BATCH_STATUS_RESPONSE"
	default:
		return "UNSET"
	}
}

// Envelope is one framed message: a kind, a correlation id pairing a
// request with its response, and the serialized content.
type Envelope struct {
	Kind          MessageKind
	CorrelationID string
	Content       []byte
}

// EncodeEnvelope serializes an envelope.
func EncodeEnvelope(env *Envelope) []byte {
	var b []byte
	if env.Kind != KindUnset {
		b = protowire.AppendTag(b, 1, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(env.Kind))
	}
	if env.CorrelationID != "" {
		b = protowire.AppendTag(b, 2, protowire.BytesType)
		b = protowire.AppendString(b, env.CorrelationID)
	}
	if len(env.Content) > 0 {
		b = protowire.AppendTag(b, 3, protowire.BytesType)
		b = protowire.AppendBytes(b, env.Content)
	}
	return b
}

// DecodeEnvelope parses an envelope from wire bytes.
func DecodeEnvelope(data []byte) (*Envelope, error) {
	env := &Envelope{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, violation("malformed envelope tag")
		}
		data = data[n:]

		switch {
		case num == 1 && typ == protowire.VarintType:
			u, m := protowire.ConsumeVarint(data)
			if m < 0 {
				return nil, violation("malformed message kind")
			}
			env.Kind = MessageKind(u)
			data = data[m:]
		case num == 2 && typ == protowire.BytesType:
			v, m := protowire.ConsumeBytes(data)
			if m < 0 {
				return nil, violation("malformed correlation id")
			}
			env.CorrelationID = string(v)
			data = data[m:]
		case num == 3 && typ == protowire.BytesType:
			v, m := protowire.ConsumeBytes(data)
			if m < 0 {
				return nil, violation("malformed envelope content")
			}
			env.Content = append([]byte(nil), v...)
			data = data[m:]
		default:
			m := protowire.ConsumeFieldValue(num, typ, data)
			if m < 0 {
				return nil, violation("malformed envelope field")
			}
			data = data[m:]
		}
	}
	return env, nil
}

func violation(msg string) error {
	return errors.E(errors.ErrProtocolViolation, "transport", "DecodeEnvelope", msg)
}
