// Package wire implements the compact binary encoding used on the replication
// channel. It is byte-compatible with bincode's standard configuration:
// variable-length little-endian integers, zig-zag signed integers and
// length-prefixed byte strings.
package wire

import "errors"

var (
	ErrUnexpectedEOF = errors.New("wire: unexpected end of data")
	ErrInvalidVarint = errors.New("wire: invalid varint")
	ErrInvalidBool   = errors.New("wire: invalid bool")
	ErrTrailingBytes = errors.New("wire: trailing bytes after value")
)

const (
	singleByteMax = 250
	u16Tag        = 251
	u32Tag        = 252
	u64Tag        = 253
)

func zigzag(v int64) uint64 {
	return uint64(v<<1) ^ uint64(v>>63)
}

func unzigzag(v uint64) int64 {
	return int64(v>>1) ^ -int64(v&1)
}
