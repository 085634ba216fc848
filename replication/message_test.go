package replication_test

import (
	"testing"

	"github.com/plus3/mmoss/replication"
	"github.com/plus3/mmoss/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encode(t *testing.T, msg replication.Message) []byte {
	t.Helper()
	var enc wire.Encoder
	require.NoError(t, replication.EncodeMessage(&enc, msg))
	return enc.Bytes()
}

func TestMessageLayout(t *testing.T) {
	assert.Equal(t, []byte{0, 5, 1}, encode(t, replication.Spawn{MobType: 5, SpawnId: 1}))
	assert.Equal(t, []byte{1, 9, 2, 0xAA, 0xBB}, encode(t, replication.Update{Id: 9, Data: []byte{0xAA, 0xBB}}))
	assert.Equal(t,
		[]byte{2, 3, 251, 1000 & 0xFF, 1000 >> 8, 4, 0},
		encode(t, replication.AddComponent{SpawnId: 3, ComponentType: 1000, Id: 4}),
	)
}

func TestMessageRoundTrip(t *testing.T) {
	messages := []replication.Message{
		replication.Spawn{MobType: 5, SpawnId: 70000},
		replication.Update{Id: 12, Data: []byte{1, 2, 3}},
		replication.AddComponent{SpawnId: 1, ComponentType: 7, Id: 300, Data: []byte{9}},
	}

	for _, msg := range messages {
		got, err := replication.DecodeMessage(encode(t, msg))
		require.NoError(t, err)
		assert.Equal(t, msg, got)
	}
}

func TestDecodeMessageErrors(t *testing.T) {
	_, err := replication.DecodeMessage([]byte{7})
	assert.Equal(t, replication.ErrUnknownVariant{Variant: 7}, err)

	_, err = replication.DecodeMessage(nil)
	assert.ErrorIs(t, err, wire.ErrUnexpectedEOF)

	_, err = replication.DecodeMessage([]byte{1, 9, 5, 1})
	assert.ErrorIs(t, err, wire.ErrUnexpectedEOF)

	_, err = replication.DecodeMessage([]byte{0, 5, 1, 0})
	assert.ErrorIs(t, err, wire.ErrTrailingBytes)
}

func TestEncodeRejectsPointers(t *testing.T) {
	var enc wire.Encoder
	assert.Error(t, replication.EncodeMessage(&enc, &replication.Spawn{}))
}
