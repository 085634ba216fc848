package client_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/plus3/mmoss/ecs"
	"github.com/plus3/mmoss/physics"
	"github.com/plus3/mmoss/replication"
	"github.com/plus3/mmoss/replication/client"
	"github.com/plus3/mmoss/wire"
	"github.com/stretchr/testify/require"
)

const squareType replication.MobType = 5

type recorder struct {
	events []string
}

func (r *recorder) OnSpawn(entity ecs.Entity, spawnId replication.SpawnId, mobType replication.MobType) {
	r.events = append(r.events, fmt.Sprintf("spawn %d type=%d", spawnId, mobType))
}

func (r *recorder) OnComponentAdded(entity ecs.Entity, spawnId replication.SpawnId, componentType replication.ComponentType, id replication.Id) {
	r.events = append(r.events, fmt.Sprintf("add %d type=%d id=%d", spawnId, componentType, id))
}

func (r *recorder) OnComponentUpdated(entity ecs.Entity, spawnId replication.SpawnId, id replication.Id) {
	r.events = append(r.events, fmt.Sprintf("update %d id=%d", spawnId, id))
}

func newStorage() *ecs.Storage {
	registry := ecs.NewComponentRegistry()
	replication.RegisterComponents(registry)
	physics.RegisterComponents(registry)
	return ecs.NewStorage(registry)
}

func newFactories(t *testing.T) (*client.MobFactory, *client.ComponentFactory) {
	t.Helper()

	mobs := client.NewMobFactoryBuilder()
	require.NoError(t, mobs.Register(squareType, client.MobEntryFunc(func(storage *ecs.Storage) (ecs.Entity, error) {
		return storage.Spawn(replication.Mob{Type: squareType}), nil
	})))
	mobFactory, err := mobs.Build()
	require.NoError(t, err)

	components := client.NewComponentFactoryBuilder()
	require.NoError(t, client.RegisterDefaultComponents(components))
	componentFactory, err := components.Build()
	require.NoError(t, err)

	return mobFactory, componentFactory
}

func encode(t *testing.T, msg replication.Message) []byte {
	t.Helper()
	var enc wire.Encoder
	require.NoError(t, replication.EncodeMessage(&enc, msg))
	return enc.Bytes()
}

func transformData(x, y, z float32) []byte {
	var enc wire.Encoder
	physics.Transform{Translation: physics.Vec3{X: x, Y: y, Z: z}, Rotation: physics.IdentityQuat}.Encode(&enc)
	return enc.Bytes()
}

func send(t *testing.T, ctx context.Context, conn interface {
	Send(context.Context, []byte) error
}, msgs ...replication.Message) {
	t.Helper()
	for _, msg := range msgs {
		require.NoError(t, conn.Send(ctx, encode(t, msg)))
	}
}

func process(t *testing.T, ctx context.Context, in *client.Incoming, n int) {
	t.Helper()
	for range n {
		require.NoError(t, in.ProcessIncoming(ctx))
	}
}
