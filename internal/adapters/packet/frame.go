// Package packet implements the wire protocol spoken between the build
// manager, worker nodes and task hosts. Frames are a 4-byte big-endian
// length prefix followed by a JSON payload.
package packet

import (
	"encoding/binary"
	"encoding/json"
	"io"

	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/zerr"
)

// MaxFrameSize is the maximum allowed frame payload (16 MiB).
const MaxFrameSize = 16 << 20

// WriteFrame writes v as a length-prefixed JSON frame to w.
func WriteFrame(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return zerr.Wrap(err, "marshal frame")
	}

	if len(data) > MaxFrameSize {
		return zerr.With(domain.ErrPacketTooLarge, "size", len(data))
	}

	if err := binary.Write(w, binary.BigEndian, uint32(len(data))); err != nil {
		return zerr.Wrap(err, "write length prefix")
	}

	if _, err := w.Write(data); err != nil {
		return zerr.Wrap(err, "write payload")
	}

	return nil
}

// ReadFrame reads one length-prefixed JSON frame from r and decodes it into v.
// Returns io.EOF untouched when the stream ends cleanly before a frame starts.
func ReadFrame(r io.Reader, v any) error {
	var length uint32
	if err := binary.Read(r, binary.BigEndian, &length); err != nil {
		if err == io.EOF {
			return io.EOF
		}
		return zerr.Wrap(err, "read length prefix")
	}

	if length > MaxFrameSize {
		return zerr.With(domain.ErrPacketTooLarge, "size", length)
	}

	data := make([]byte, length)
	if _, err := io.ReadFull(r, data); err != nil {
		return zerr.Wrap(err, "read payload")
	}

	if err := json.Unmarshal(data, v); err != nil {
		return zerr.Wrap(err, "unmarshal frame")
	}

	return nil
}
