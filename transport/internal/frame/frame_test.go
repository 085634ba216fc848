package frame_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/plus3/mmoss/transport/internal/frame"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFraming(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, frame.Write(&buf, []byte{0xAA, 0xBB, 0xCC}))
	require.NoError(t, frame.Write(&buf, nil))
	assert.Equal(t, []byte{3, 0, 0xAA, 0xBB, 0xCC, 0, 0}, buf.Bytes())

	payload, err := frame.Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xAA, 0xBB, 0xCC}, payload)

	payload, err = frame.Read(&buf)
	require.NoError(t, err)
	assert.Empty(t, payload)

	_, err = frame.Read(&buf)
	assert.ErrorIs(t, err, io.EOF)
}

func TestTruncatedFrame(t *testing.T) {
	_, err := frame.Read(bytes.NewReader([]byte{5, 0, 1, 2}))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestFrameTooLarge(t *testing.T) {
	var buf bytes.Buffer
	err := frame.Write(&buf, make([]byte, frame.MaxPayload+1))
	assert.ErrorIs(t, err, frame.ErrTooLarge)
	assert.Zero(t, buf.Len())

	require.NoError(t, frame.Write(&buf, make([]byte, frame.MaxPayload)))
	assert.Equal(t, frame.MaxPayload+2, buf.Len())
}
