// Package server replicates entities from an authoritative ecs.Storage to
// connected clients.
package server

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"

	"github.com/google/uuid"
	"github.com/kamstrup/intmap"
	"github.com/plus3/mmoss/ecs"
	"github.com/plus3/mmoss/logging"
	"github.com/plus3/mmoss/replication"
	"github.com/plus3/mmoss/transport"
	"github.com/plus3/mmoss/wire"
)

var ErrClosed = errors.New("replication: manager closed")

type client struct {
	id     uuid.UUID
	conn   transport.Conn
	synced bool
	cancel context.CancelFunc
}

// Manager tracks clients and the entities replicated to them. All methods are
// safe for concurrent use; Serialize must not run concurrently with itself.
type Manager struct {
	logger logging.Logger

	mu      sync.Mutex
	closed  bool
	clients []*client

	nextSpawnId replication.SpawnId
	spawnIds    *intmap.Map[ecs.Entity, replication.SpawnId]
	registered  []ecs.Entity
	newEntities []ecs.Entity
	dirty       []ecs.Entity
	isDirty     *intmap.Map[ecs.Entity, struct{}]

	wg sync.WaitGroup
}

func NewManager(logger logging.Logger) *Manager {
	if logger == nil {
		logger = logging.Default()
	}
	return &Manager{
		logger:      logger,
		nextSpawnId: 1,
		spawnIds:    intmap.New[ecs.Entity, replication.SpawnId](64),
		isDirty:     intmap.New[ecs.Entity, struct{}](64),
	}
}

// AddClient queues conn for a full sync on the next Serialize. The client is
// removed when its connection fails.
func (m *Manager) AddClient(conn transport.Conn) uuid.UUID {
	ctx, cancel := context.WithCancel(context.Background())
	c := &client{id: uuid.New(), conn: conn, cancel: cancel}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		cancel()
		conn.Close()
		return c.id
	}
	m.clients = append(m.clients, c)
	m.wg.Add(1)
	m.mu.Unlock()

	m.logger.Info("client connected", "client", c.id, "addr", conn.RemoteAddr())

	go func() {
		defer m.wg.Done()
		m.watch(ctx, c)
	}()
	return c.id
}

// watch drains the client's connection until it fails. Clients have nothing to
// say yet, so frames are discarded.
func (m *Manager) watch(ctx context.Context, c *client) {
	for {
		data, err := c.conn.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				m.logger.Debug("client disconnected", "client", c.id)
			} else {
				m.logger.Warn("client connection failed", "client", c.id, "error", err)
			}
			m.RemoveClient(c.id)
			return
		}
		m.logger.Trace("ignoring client frame", "client", c.id, "size", len(data))
	}
}

// RemoveClient closes and forgets a client. Unknown ids are ignored.
func (m *Manager) RemoveClient(id uuid.UUID) bool {
	m.mu.Lock()
	var removed *client
	for i, c := range m.clients {
		if c.id == id {
			removed = c
			m.clients = append(m.clients[:i], m.clients[i+1:]...)
			break
		}
	}
	m.mu.Unlock()

	if removed == nil {
		return false
	}
	removed.cancel()
	if err := removed.conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		m.logger.Debug("closing client connection", "client", id, "error", err)
	}
	m.logger.Info("client removed", "client", id)
	return true
}

// Clients returns the ids of connected clients in connection order
func (m *Manager) Clients() []uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]uuid.UUID, len(m.clients))
	for i, c := range m.clients {
		ids[i] = c.id
	}
	return ids
}

// RegisterNewEntity assigns entity a spawn id and announces it to synced
// clients on the next Serialize. The entity must carry a replication.Mob.
// Registering an entity twice returns its existing spawn id.
func (m *Manager) RegisterNewEntity(entity ecs.Entity) replication.SpawnId {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id, ok := m.spawnIds.Get(entity); ok {
		return id
	}
	id := m.nextSpawnId
	m.nextSpawnId++
	m.spawnIds.Put(entity, id)
	m.registered = append(m.registered, entity)
	m.newEntities = append(m.newEntities, entity)
	return id
}

func (m *Manager) SpawnId(entity ecs.Entity) (replication.SpawnId, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.spawnIds.Get(entity)
}

// MarkDirty schedules an update of every replicated component of entity
func (m *Manager) MarkDirty(entity ecs.Entity) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.isDirty.Get(entity); ok {
		return
	}
	m.isDirty.Put(entity, struct{}{})
	m.dirty = append(m.dirty, entity)
}

// Serialize brings every client up to date with storage. Clients that joined
// since the last call get a full sync, entities registered since then are
// announced to the others, and dirty entities send their current state.
// Clients whose sends fail are dropped.
func (m *Manager) Serialize(ctx context.Context, storage *ecs.Storage) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	var pending, synced []*client
	for _, c := range m.clients {
		if c.synced {
			synced = append(synced, c)
		} else {
			pending = append(pending, c)
		}
	}
	newEntities, dirty := m.newEntities, m.dirty
	m.newEntities, m.dirty = nil, nil
	m.isDirty.Clear()
	m.registered = m.pruneDead(storage)
	registered := append([]ecs.Entity(nil), m.registered...)
	m.mu.Unlock()

	var failed []*client

	if len(pending) > 0 {
		frames := m.spawnFrames(storage, registered)
		for _, c := range pending {
			if err := sendAll(ctx, c.conn, frames); err != nil {
				m.logger.Error("full sync failed", "client", c.id, "error", err)
				failed = append(failed, c)
				continue
			}
			m.logger.Debug("client synced", "client", c.id, "entities", len(registered))
			m.markSynced(c)
		}
	}

	if len(newEntities) > 0 && len(synced) > 0 {
		frames := m.spawnFrames(storage, newEntities)
		for _, c := range synced {
			if err := sendAll(ctx, c.conn, frames); err != nil {
				m.logger.Error("failed to send spawns", "client", c.id, "error", err)
				failed = append(failed, c)
			}
		}
	}

	if len(dirty) > 0 {
		frames := m.updateFrames(storage, dirty)
		if len(frames) > 0 {
			for _, c := range synced {
				if err := sendUpdates(ctx, c.conn, frames); err != nil {
					m.logger.Error("failed to send updates", "client", c.id, "error", err)
					failed = append(failed, c)
				}
			}
		}
	}

	for _, c := range failed {
		m.RemoveClient(c.id)
	}
	return nil
}

// pruneDead drops entities that no longer exist. Called with mu held.
func (m *Manager) pruneDead(storage *ecs.Storage) []ecs.Entity {
	live := m.registered[:0]
	for _, entity := range m.registered {
		if storage.Alive(entity) {
			live = append(live, entity)
			continue
		}
		m.spawnIds.Del(entity)
	}
	return live
}

func (m *Manager) markSynced(c *client) {
	m.mu.Lock()
	c.synced = true
	m.mu.Unlock()
}

func (m *Manager) spawnFrames(storage *ecs.Storage, entities []ecs.Entity) [][]byte {
	var frames [][]byte
	for _, entity := range entities {
		spawnId, ok := m.SpawnId(entity)
		if !ok || !storage.Alive(entity) {
			continue
		}
		mob := ecs.Get[replication.Mob](storage, entity)
		if mob == nil {
			m.logger.Error("registered entity has no mob type", "entity", entity, "spawn_id", spawnId)
			continue
		}

		frames = m.appendFrame(frames, replication.Spawn{MobType: mob.Type, SpawnId: spawnId})
		for component := range replication.Components(storage, entity) {
			frames = m.appendFrame(frames, replication.AddComponent{
				SpawnId:       spawnId,
				ComponentType: replication.WireType(component),
				Id:            component.ReplicationId(),
				Data:          replication.Snapshot(component),
			})
		}
	}
	return frames
}

func (m *Manager) updateFrames(storage *ecs.Storage, entities []ecs.Entity) [][]byte {
	var frames [][]byte
	for _, entity := range entities {
		if _, ok := m.SpawnId(entity); !ok {
			continue
		}
		for component := range replication.Components(storage, entity) {
			frames = m.appendFrame(frames, replication.Update{
				Id:   component.ReplicationId(),
				Data: replication.Snapshot(component),
			})
		}
	}
	return frames
}

func (m *Manager) appendFrame(frames [][]byte, msg replication.Message) [][]byte {
	var enc wire.Encoder
	if err := replication.EncodeMessage(&enc, msg); err != nil {
		m.logger.Error("failed to encode message", "message", msg, "error", err)
		return frames
	}
	return append(frames, enc.Bytes())
}

func sendAll(ctx context.Context, conn transport.Conn, frames [][]byte) error {
	for _, frame := range frames {
		if err := conn.Send(ctx, frame); err != nil {
			return err
		}
	}
	return nil
}

// sendUpdates prefers datagrams when the connection has them. A datagram that
// cannot be sent, for example because it is too large, goes over the reliable
// channel instead.
func sendUpdates(ctx context.Context, conn transport.Conn, frames [][]byte) error {
	dc, ok := conn.(transport.DatagramConn)
	if !ok {
		return sendAll(ctx, conn, frames)
	}
	for _, frame := range frames {
		if err := dc.SendDatagram(frame); err == nil {
			continue
		}
		if err := conn.Send(ctx, frame); err != nil {
			return err
		}
	}
	return nil
}

// Close disconnects every client. Later calls to Serialize return ErrClosed.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	m.closed = true
	clients := m.clients
	m.clients = nil
	m.mu.Unlock()

	for _, c := range clients {
		c.cancel()
		c.conn.Close()
	}
	m.wg.Wait()
	return nil
}
