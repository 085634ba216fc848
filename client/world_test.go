package client_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/plus3/mmoss/client"
	"github.com/plus3/mmoss/ecs"
	"github.com/plus3/mmoss/logging"
	"github.com/plus3/mmoss/physics"
	"github.com/plus3/mmoss/replication"
	rclient "github.com/plus3/mmoss/replication/client"
	"github.com/plus3/mmoss/replication/server"
	"github.com/plus3/mmoss/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const squareType replication.MobType = 5

func squareFactory(t *testing.T) *rclient.MobFactory {
	t.Helper()
	b := rclient.NewMobFactoryBuilder()
	require.NoError(t, b.Register(squareType, rclient.MobEntryFunc(func(s *ecs.Storage) (ecs.Entity, error) {
		return s.Spawn(replication.Mob{Type: squareType}), nil
	})))
	f, err := b.Build()
	require.NoError(t, err)
	return f
}

func listen(t *testing.T, ctx context.Context) transport.Listener {
	t.Helper()
	l, err := transport.Listen(ctx, "127.0.0.1:0", transport.DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

type events []string

func (e *events) callbacks() client.CallbackFuncs {
	return client.CallbackFuncs{
		Spawn: func(_ ecs.Entity, spawnId replication.SpawnId, mobType replication.MobType) {
			*e = append(*e, fmt.Sprintf("spawn %d type=%d", spawnId, mobType))
		},
		ComponentAdded: func(_ ecs.Entity, spawnId replication.SpawnId, componentType replication.ComponentType, id replication.Id) {
			*e = append(*e, fmt.Sprintf("add %d type=%d id=%d", spawnId, componentType, id))
		},
		ComponentUpdated: func(_ ecs.Entity, spawnId replication.SpawnId, id replication.Id) {
			*e = append(*e, fmt.Sprintf("update %d id=%d", spawnId, id))
		},
	}
}

// updateUntil runs Update on the test goroutine until done reports true
func updateUntil(t *testing.T, w *client.World, cb client.Callbacks, done func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !done() {
		require.NoError(t, w.Update(cb))
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for replication")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestReplicationOverTCP(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	l := listen(t, ctx)
	srv := server.NewManager(logging.Nop{})
	defer srv.Close()
	go srv.Serve(ctx, l)

	registry := ecs.NewComponentRegistry()
	replication.RegisterComponents(registry)
	physics.RegisterComponents(registry)
	serverStorage := ecs.NewStorage(registry)

	start := physics.IdentityTransform()
	start.Translation = physics.Vec3{X: 1, Y: 2, Z: 3}
	actor := serverStorage.Spawn(replication.Mob{Type: squareType}, physics.NewDynamicActor(10, start))
	spawnId := srv.RegisterNewEntity(actor)

	w, err := client.New(ctx, squareFactory(t), nil, l.Addr().String(), client.WithLogger(logging.Nop{}))
	require.NoError(t, err)
	defer w.Close()

	require.Eventually(t, func() bool { return len(srv.Clients()) == 1 }, 5*time.Second, 5*time.Millisecond)
	require.NoError(t, srv.Serialize(ctx, serverStorage))

	var got events
	cb := got.callbacks()
	updateUntil(t, w, cb, func() bool { return len(got) >= 2 })
	assert.Equal(t, events{
		fmt.Sprintf("spawn %d type=5", spawnId),
		fmt.Sprintf("add %d type=7 id=10", spawnId),
	}, got)

	entity, ok := w.Entity(spawnId)
	require.True(t, ok)
	transform, err := w.Transform(entity)
	require.NoError(t, err)
	assert.Equal(t, start, transform)

	ecs.Get[physics.DynamicActor](serverStorage, actor).Transform.Translation.X = 42
	srv.MarkDirty(actor)
	require.NoError(t, srv.Serialize(ctx, serverStorage))

	updateUntil(t, w, cb, func() bool { return len(got) >= 3 })
	assert.Equal(t, fmt.Sprintf("update %d id=10", spawnId), got[2])

	transform, err = w.Transform(entity)
	require.NoError(t, err)
	assert.Equal(t, float32(42), transform.Translation.X)

	require.NoError(t, srv.Close())
	require.Eventually(t, func() bool {
		return w.Update(nil) != nil
	}, 5*time.Second, 5*time.Millisecond)
	assert.ErrorIs(t, w.Update(nil), client.ErrDisconnected)
}

func TestNewErrors(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := client.New(ctx, nil, nil, "127.0.0.1:1")
	assert.ErrorIs(t, err, client.ErrNilFactory)

	_, err = client.New(ctx, squareFactory(t), nil, "carrier-pigeon://coop:1", client.WithLogger(logging.Nop{}))
	var unsupported transport.ErrUnsupportedScheme
	assert.ErrorAs(t, err, &unsupported)
}

func TestCloseAndAccessors(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	l := listen(t, ctx)
	registry := ecs.NewComponentRegistry()
	w, err := client.New(ctx, squareFactory(t), nil, l.Addr().String(),
		client.WithLogger(logging.Nop{}),
		client.WithRegistry(registry),
		client.WithDialTimeout(time.Second),
		client.WithTransportConfig(transport.DefaultConfig()),
	)
	require.NoError(t, err)
	assert.Same(t, registry, w.Registry())

	bare := w.Storage().Spawn(replication.Mob{Type: squareType})
	_, err = w.Transform(bare)
	assert.ErrorIs(t, err, client.ErrNoTransform)

	proxied := w.Storage().Spawn(physics.NewStaticActorProxy(1))
	transform, err := w.Transform(proxied)
	require.NoError(t, err)
	assert.Equal(t, physics.IdentityTransform(), transform)

	w.Storage().Delete(bare)
	_, err = w.Transform(bare)
	assert.ErrorIs(t, err, client.ErrUnknownEntity)

	assert.NoError(t, w.Update(nil))
	require.NoError(t, w.Close())
	assert.ErrorIs(t, w.Close(), client.ErrWorldClosed)
	assert.ErrorIs(t, w.Update(nil), client.ErrWorldClosed)
}

// streamLog records the error logged when the replication stream ends
type streamLog struct {
	logging.Nop
	mu     sync.Mutex
	errors []string
}

func (l *streamLog) Error(msg string, keyValues ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, msg)
}

func (l *streamLog) ended() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.errors) > 0
}

func TestUpdateAppliesFramesQueuedBeforeDisconnect(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	l := listen(t, ctx)
	srv := server.NewManager(logging.Nop{})
	go srv.Serve(ctx, l)

	registry := ecs.NewComponentRegistry()
	replication.RegisterComponents(registry)
	physics.RegisterComponents(registry)
	serverStorage := ecs.NewStorage(registry)
	actor := serverStorage.Spawn(replication.Mob{Type: squareType}, physics.NewDynamicActor(10, physics.IdentityTransform()))
	spawnId := srv.RegisterNewEntity(actor)

	log := &streamLog{}
	w, err := client.New(ctx, squareFactory(t), nil, l.Addr().String(), client.WithLogger(log))
	require.NoError(t, err)
	defer w.Close()

	require.Eventually(t, func() bool { return len(srv.Clients()) == 1 }, 5*time.Second, 5*time.Millisecond)
	require.NoError(t, srv.Serialize(ctx, serverStorage))
	require.NoError(t, srv.Close())

	// nothing has been applied yet, the stream ends with the frames still queued
	require.Eventually(t, log.ended, 5*time.Second, 5*time.Millisecond)

	var got events
	err = w.Update(got.callbacks())
	assert.ErrorIs(t, err, client.ErrDisconnected)
	assert.Equal(t, events{
		fmt.Sprintf("spawn %d type=5", spawnId),
		fmt.Sprintf("add %d type=7 id=10", spawnId),
	}, got)

	entity, ok := w.Entity(spawnId)
	require.True(t, ok)
	_, err = w.Transform(entity)
	assert.NoError(t, err)

	assert.ErrorIs(t, w.Update(nil), client.ErrDisconnected)
}

func TestCloseWhileUpdating(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	l := listen(t, ctx)
	w, err := client.New(ctx, squareFactory(t), nil, l.Addr().String(), client.WithLogger(logging.Nop{}))
	require.NoError(t, err)

	updating := make(chan struct{})
	var (
		wg        sync.WaitGroup
		updateErr error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		var started sync.Once
		for {
			err := w.Update(nil)
			started.Do(func() { close(updating) })
			if err != nil {
				updateErr = err
				return
			}
		}
	}()

	<-updating
	require.NoError(t, w.Close())
	wg.Wait()
	assert.ErrorIs(t, updateErr, client.ErrWorldClosed)
	assert.ErrorIs(t, w.Close(), client.ErrWorldClosed)
}
