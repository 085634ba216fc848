// Package client connects to an mmoss server and mirrors the replicated
// entities into a local ecs.Storage.
package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync/atomic"

	"github.com/plus3/mmoss/ecs"
	"github.com/plus3/mmoss/logging"
	"github.com/plus3/mmoss/physics"
	"github.com/plus3/mmoss/replication"
	rclient "github.com/plus3/mmoss/replication/client"
	"github.com/plus3/mmoss/transport"
)

var (
	ErrNilFactory    = errors.New("mmoss: mob factory is nil")
	ErrWorldClosed   = errors.New("mmoss: world closed")
	ErrDisconnected  = errors.New("mmoss: disconnected from server")
	ErrUnknownEntity = errors.New("mmoss: unknown entity")
	ErrNoTransform   = errors.New("mmoss: entity has no transform component")
)

type (
	Callbacks     = rclient.Callbacks
	CallbackFuncs = rclient.CallbackFuncs
)

// World is a client's view of the server's replicated entities.
//
// Update, Transform and Storage must be called from one goroutine at a time.
// Close may be called from any goroutine, including while Update runs.
type World struct {
	storage *ecs.Storage
	manager *rclient.Manager
	conn    transport.Conn
	logger  logging.Logger

	cancel context.CancelFunc
	done   chan struct{}
	err    error
	closed atomic.Bool
}

// New connects to address and starts receiving replication messages. A nil
// components factory is replaced by one holding the default components.
func New(ctx context.Context, mobs *rclient.MobFactory, components *rclient.ComponentFactory, address string, opts ...Option) (*World, error) {
	if mobs == nil {
		return nil, ErrNilFactory
	}
	if components == nil {
		components = rclient.DefaultComponentFactory()
	}

	cfg := DefaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Registry == nil {
		cfg.Registry = ecs.NewComponentRegistry()
	}

	replication.RegisterComponents(cfg.Registry)
	physics.RegisterComponents(cfg.Registry)
	mobs.RegisterComponents(cfg.Registry)
	components.RegisterComponents(cfg.Registry)

	dialCtx := ctx
	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	conn, err := transport.Dial(dialCtx, address, cfg.Transport)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", address, err)
	}
	cfg.Logger.Info("connected to server", "address", address, "remote", conn.RemoteAddr())

	manager, incoming := rclient.NewManager(conn, mobs, components, cfg.Logger)
	runCtx, cancel := context.WithCancel(context.Background())
	w := &World{
		storage: ecs.NewStorage(cfg.Registry),
		manager: manager,
		conn:    conn,
		logger:  cfg.Logger,
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	go func() {
		err := incoming.Run(runCtx)
		if err != nil {
			w.err = fmt.Errorf("%w: %w", ErrDisconnected, err)
		}
		close(w.done)
		if err != nil {
			w.logger.Error("replication stream ended", "error", err)
		}
	}()
	return w, nil
}

// Update applies every message received since the last call, in the order
// spawns, component additions, component updates. A nil cb is allowed.
// Once the connection has failed Update still applies what arrived before the
// failure and then reports it.
func (w *World) Update(cb Callbacks) error {
	if w.closed.Load() {
		return ErrWorldClosed
	}
	if cb == nil {
		cb = CallbackFuncs{}
	}

	var failed bool
	select {
	case <-w.done:
		failed = true
	default:
	}

	w.manager.UpdateWorld(w.storage, cb)

	if failed && !w.closed.Load() {
		return w.err
	}
	return nil
}

// Close disconnects from the server. Calling it again returns ErrWorldClosed.
func (w *World) Close() error {
	if !w.closed.CompareAndSwap(false, true) {
		return ErrWorldClosed
	}
	w.cancel()
	err := w.conn.Close()
	<-w.done
	if errors.Is(err, net.ErrClosed) {
		err = nil
	}
	return err
}

// Transform returns the current transform of entity
func (w *World) Transform(entity ecs.Entity) (physics.Transform, error) {
	if !w.storage.Alive(entity) {
		return physics.Transform{}, fmt.Errorf("%w: %d", ErrUnknownEntity, entity)
	}
	t, ok := physics.FindTransform(w.storage, entity)
	if !ok {
		return physics.Transform{}, fmt.Errorf("%w: %d", ErrNoTransform, entity)
	}
	return t, nil
}

func (w *World) Storage() *ecs.Storage {
	return w.storage
}

func (w *World) Registry() *ecs.ComponentRegistry {
	return w.storage.Registry()
}

// Entity returns the local entity for a server spawn id
func (w *World) Entity(spawnId replication.SpawnId) (ecs.Entity, bool) {
	return w.manager.Entity(spawnId)
}

func (w *World) SpawnId(entity ecs.Entity) (replication.SpawnId, bool) {
	return w.manager.SpawnId(entity)
}
