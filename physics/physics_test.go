package physics_test

import (
	"testing"

	"github.com/plus3/mmoss/ecs"
	"github.com/plus3/mmoss/physics"
	"github.com/plus3/mmoss/replication"
	"github.com/plus3/mmoss/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransformEncoding(t *testing.T) {
	transform := physics.Transform{
		Translation: physics.Vec3{X: 1, Y: 2, Z: 3},
		Rotation:    physics.Quat{X: 0, Y: 0.5, Z: 0, W: 0.5},
	}

	var enc wire.Encoder
	transform.Encode(&enc)
	assert.Equal(t, 28, enc.Len())
	assert.Equal(t, []byte{0, 0, 0x80, 0x3F}, enc.Bytes()[:4])

	var decoded physics.Transform
	dec := wire.NewDecoder(enc.Bytes())
	require.NoError(t, decoded.Decode(dec))
	assert.NoError(t, dec.Finish())
	assert.Equal(t, transform, decoded)
}

func TestTransformDecodeShortInputKeepsValue(t *testing.T) {
	transform := physics.IdentityTransform()
	err := transform.Decode(wire.NewDecoder(make([]byte, 20)))

	assert.ErrorIs(t, err, wire.ErrUnexpectedEOF)
	assert.Equal(t, physics.IdentityTransform(), transform)
}

func TestActorReplicatesIntoProxy(t *testing.T) {
	actor := physics.NewDynamicActor(4, physics.Transform{
		Translation: physics.Vec3{X: 5},
		Rotation:    physics.IdentityQuat,
	})
	proxy := physics.NewDynamicActorProxy(4)

	assert.Equal(t, physics.DynamicActorProxyType, replication.WireType(&actor))
	assert.Equal(t, physics.IdentityTransform(), proxy.CurrentTransform())

	require.NoError(t, proxy.Replicate(wire.NewDecoder(replication.Snapshot(&actor))))
	assert.Equal(t, actor.Transform, proxy.CurrentTransform())

	static := physics.NewStaticActor(5, physics.IdentityTransform())
	assert.Equal(t, physics.StaticActorProxyType, replication.WireType(&static))
	staticProxy := physics.NewStaticActorProxy(5)
	assert.Equal(t, physics.StaticActorProxyType, replication.WireType(&staticProxy))
}

func TestFindTransform(t *testing.T) {
	registry := ecs.NewComponentRegistry()
	physics.RegisterComponents(registry)
	replication.RegisterComponents(registry)
	storage := ecs.NewStorage(registry)

	proxy := physics.NewStaticActorProxy(1)
	proxy.Transform.Translation = physics.Vec3{Y: 9}
	withTransform := storage.Spawn(replication.Mob{Type: 1}, proxy)
	without := storage.Spawn(replication.Mob{Type: 1})

	transform, ok := physics.FindTransform(storage, withTransform)
	require.True(t, ok)
	assert.Equal(t, float32(9), transform.Translation.Y)

	_, ok = physics.FindTransform(storage, without)
	assert.False(t, ok)
}
