package wire

import (
	"encoding/binary"
	"math"
)

// Encoder appends encoded values to a growing buffer. The zero value is ready
// to use.
type Encoder struct {
	buf []byte
}

// NewEncoder returns an encoder that appends to buf
func NewEncoder(buf []byte) *Encoder {
	return &Encoder{buf: buf[:0]}
}

// Bytes returns the encoded data. The slice aliases the encoder's buffer until
// the next write.
func (e *Encoder) Bytes() []byte {
	return e.buf
}

// Len returns the number of encoded bytes
func (e *Encoder) Len() int {
	return len(e.buf)
}

// Reset discards the encoded data and keeps the buffer
func (e *Encoder) Reset() {
	e.buf = e.buf[:0]
}

func (e *Encoder) WriteUvarint(v uint64) {
	switch {
	case v <= singleByteMax:
		e.buf = append(e.buf, byte(v))
	case v <= math.MaxUint16:
		e.buf = append(e.buf, u16Tag)
		e.buf = binary.LittleEndian.AppendUint16(e.buf, uint16(v))
	case v <= math.MaxUint32:
		e.buf = append(e.buf, u32Tag)
		e.buf = binary.LittleEndian.AppendUint32(e.buf, uint32(v))
	default:
		e.buf = append(e.buf, u64Tag)
		e.buf = binary.LittleEndian.AppendUint64(e.buf, v)
	}
}

func (e *Encoder) WriteVarint(v int64) {
	e.WriteUvarint(zigzag(v))
}

func (e *Encoder) WriteU32(v uint32) {
	e.WriteUvarint(uint64(v))
}

func (e *Encoder) WriteU64(v uint64) {
	e.WriteUvarint(v)
}

// WriteU8 writes a single raw byte; bincode does not varint-encode u8
func (e *Encoder) WriteU8(v uint8) {
	e.buf = append(e.buf, v)
}

func (e *Encoder) WriteBool(v bool) {
	if v {
		e.buf = append(e.buf, 1)
	} else {
		e.buf = append(e.buf, 0)
	}
}

func (e *Encoder) WriteF32(v float32) {
	e.buf = binary.LittleEndian.AppendUint32(e.buf, math.Float32bits(v))
}

func (e *Encoder) WriteF64(v float64) {
	e.buf = binary.LittleEndian.AppendUint64(e.buf, math.Float64bits(v))
}

// WriteBytes writes a length prefix followed by b
func (e *Encoder) WriteBytes(b []byte) {
	e.WriteUvarint(uint64(len(b)))
	e.buf = append(e.buf, b...)
}

func (e *Encoder) WriteString(s string) {
	e.WriteUvarint(uint64(len(s)))
	e.buf = append(e.buf, s...)
}
