package transport

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/consensource/consensource-cli/pkg/errors"
)

// maxFrameSize bounds a single frame. Batches are small; anything larger
// than this is a corrupted stream, not a legitimate message.
const maxFrameSize = 1 << 24

// WriteFrame writes one envelope as a 4-byte big-endian length prefix
// followed by the envelope bytes.
func WriteFrame(w io.Writer, env *Envelope) error {
	body := EncodeEnvelope(env)
	if len(body) > maxFrameSize {
		return errors.E(errors.ErrMalformedPayload, "transport", "WriteFrame",
			fmt.Sprintf("frame of %d bytes exceeds maximum %d", len(body), maxFrameSize))
	}

	var prefix [4]byte
	binary.BigEndian.PutUint32(prefix[:], uint32(len(body)))
	if _, err := w.Write(prefix[:]); err != nil {
		return err
	}
	_, err := w.Write(body)
	return err
}

// ReadFrame reads one length-prefixed envelope from r. An oversized
// length prefix or undecodable body is a protocol violation; transport
// errors from r are returned as-is.
func ReadFrame(r io.Reader) (*Envelope, error) {
	var prefix [4]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return nil, err
	}

	size := binary.BigEndian.Uint32(prefix[:])
	if size > maxFrameSize {
		return nil, errors.E(errors.ErrProtocolViolation, "transport", "ReadFrame",
			fmt.Sprintf("frame length %d exceeds maximum %d", size, maxFrameSize))
	}

	body := make([]byte, size)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, err
	}
	return DecodeEnvelope(body)
}
