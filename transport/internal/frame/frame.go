// Package frame implements the length-prefixed framing used on byte streams:
// a little-endian u16 payload length followed by the payload.
package frame

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
)

const (
	headerSize = 2
	MaxPayload = math.MaxUint16
)

var ErrTooLarge = errors.New("frame payload exceeds 65535 bytes")

// Append appends the framed payload to buf
func Append(buf []byte, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayload {
		return buf, ErrTooLarge
	}
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(payload)))
	return append(buf, payload...), nil
}

// Write frames payload and writes it with a single call
func Write(w io.Writer, payload []byte) error {
	buf, err := Append(make([]byte, 0, headerSize+len(payload)), payload)
	if err != nil {
		return err
	}
	_, err = w.Write(buf)
	return err
}

// Read reads one frame. A clean end of stream before the header is io.EOF;
// a stream cut inside a frame is io.ErrUnexpectedEOF.
func Read(r io.Reader) ([]byte, error) {
	var header [headerSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}

	payload := make([]byte, binary.LittleEndian.Uint16(header[:]))
	if _, err := io.ReadFull(r, payload); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return payload, nil
}
