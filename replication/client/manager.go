// Package client applies the replication stream received from a server to a
// local ecs.Storage. Messages are queued by Incoming as they arrive and applied
// in a batch by Manager.UpdateWorld on the thread that owns the storage.
package client

import (
	"context"
	"sync"

	"github.com/kamstrup/intmap"
	"github.com/plus3/mmoss/ecs"
	"github.com/plus3/mmoss/logging"
	"github.com/plus3/mmoss/replication"
	"github.com/plus3/mmoss/transport"
	"github.com/plus3/mmoss/wire"
)

// Callbacks are notified while UpdateWorld applies pending messages
type Callbacks interface {
	OnSpawn(entity ecs.Entity, spawnId replication.SpawnId, mobType replication.MobType)
	OnComponentAdded(entity ecs.Entity, spawnId replication.SpawnId, componentType replication.ComponentType, id replication.Id)
	OnComponentUpdated(entity ecs.Entity, spawnId replication.SpawnId, id replication.Id)
}

// CallbackFuncs adapts plain functions to Callbacks. Nil fields are skipped.
type CallbackFuncs struct {
	Spawn            func(entity ecs.Entity, spawnId replication.SpawnId, mobType replication.MobType)
	ComponentAdded   func(entity ecs.Entity, spawnId replication.SpawnId, componentType replication.ComponentType, id replication.Id)
	ComponentUpdated func(entity ecs.Entity, spawnId replication.SpawnId, id replication.Id)
}

func (c CallbackFuncs) OnSpawn(entity ecs.Entity, spawnId replication.SpawnId, mobType replication.MobType) {
	if c.Spawn != nil {
		c.Spawn(entity, spawnId, mobType)
	}
}

func (c CallbackFuncs) OnComponentAdded(entity ecs.Entity, spawnId replication.SpawnId, componentType replication.ComponentType, id replication.Id) {
	if c.ComponentAdded != nil {
		c.ComponentAdded(entity, spawnId, componentType, id)
	}
}

func (c CallbackFuncs) OnComponentUpdated(entity ecs.Entity, spawnId replication.SpawnId, id replication.Id) {
	if c.ComponentUpdated != nil {
		c.ComponentUpdated(entity, spawnId, id)
	}
}

type pending struct {
	mu        sync.Mutex
	spawns    []replication.Spawn
	additions []replication.AddComponent
	updates   map[replication.Id][]byte
}

func (p *pending) push(msg replication.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch m := msg.(type) {
	case replication.Spawn:
		p.spawns = append(p.spawns, m)
	case replication.AddComponent:
		p.additions = append(p.additions, m)
	case replication.Update:
		p.updates[m.Id] = m.Data
	}
}

// take hands the queued messages to the caller and leaves the queues empty
func (p *pending) take() ([]replication.Spawn, []replication.AddComponent, map[replication.Id][]byte) {
	p.mu.Lock()
	defer p.mu.Unlock()

	spawns, additions, updates := p.spawns, p.additions, p.updates
	p.spawns = nil
	p.additions = nil
	p.updates = make(map[replication.Id][]byte)
	return spawns, additions, updates
}

// restore re-queues updates that matched no component. Updates received in the
// meantime are newer and win.
func (p *pending) restore(updates map[replication.Id][]byte) {
	if len(updates) == 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	for id, data := range updates {
		if _, ok := p.updates[id]; !ok {
			p.updates[id] = data
		}
	}
}

// Incoming reads frames from the connection into the pending queues. It is
// safe to run on its own goroutine alongside the Manager.
type Incoming struct {
	conn    transport.Conn
	pending *pending
	logger  logging.Logger
}

// ProcessIncoming waits for one frame and queues the message it carries.
// Frames that fail to decode are logged and dropped; transport failures are
// returned.
func (in *Incoming) ProcessIncoming(ctx context.Context) error {
	data, err := in.conn.Receive(ctx)
	if err != nil {
		return err
	}

	msg, err := replication.DecodeMessage(data)
	if err != nil {
		in.logger.Warn("dropping undecodable replication frame", "size", len(data), "error", err)
		return nil
	}
	in.logger.Trace("received replication message", "message", msg)
	in.pending.push(msg)
	return nil
}

// Run processes frames until the context ends or the connection fails. A
// cancelled context returns nil.
func (in *Incoming) Run(ctx context.Context) error {
	for {
		if err := in.ProcessIncoming(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
}

// Manager owns the mapping between server spawn ids and local entities
type Manager struct {
	pending    *pending
	mobs       *MobFactory
	components *ComponentFactory
	logger     logging.Logger

	entities *intmap.Map[replication.SpawnId, ecs.Entity]
	spawnIds *intmap.Map[ecs.Entity, replication.SpawnId]
}

func NewManager(conn transport.Conn, mobs *MobFactory, components *ComponentFactory, logger logging.Logger) (*Manager, *Incoming) {
	if logger == nil {
		logger = logging.Default()
	}
	p := &pending{updates: make(map[replication.Id][]byte)}

	m := &Manager{
		pending:    p,
		mobs:       mobs,
		components: components,
		logger:     logger,
		entities:   intmap.New[replication.SpawnId, ecs.Entity](64),
		spawnIds:   intmap.New[ecs.Entity, replication.SpawnId](64),
	}
	in := &Incoming{conn: conn, pending: p, logger: logger}
	return m, in
}

// Entity returns the local entity spawned for a server spawn id
func (m *Manager) Entity(spawnId replication.SpawnId) (ecs.Entity, bool) {
	return m.entities.Get(spawnId)
}

func (m *Manager) SpawnId(entity ecs.Entity) (replication.SpawnId, bool) {
	return m.spawnIds.Get(entity)
}

// Len returns the number of entities spawned through replication
func (m *Manager) Len() int {
	return m.entities.Len()
}

// UpdateWorld applies every queued message to storage: spawns first, then
// component additions, then state updates. Updates addressed to components
// that do not exist yet stay queued for the next call. Failures are logged and
// never abort the batch.
func (m *Manager) UpdateWorld(storage *ecs.Storage, cb Callbacks) {
	spawns, additions, updates := m.pending.take()

	for _, spawn := range spawns {
		m.spawn(storage, spawn, cb)
	}
	for _, add := range additions {
		m.addComponent(storage, add, cb)
	}
	if len(updates) > 0 {
		m.applyUpdates(storage, updates, cb)
	}

	m.pending.restore(updates)
}

func (m *Manager) spawn(storage *ecs.Storage, spawn replication.Spawn, cb Callbacks) {
	entity, err := m.mobs.Construct(storage, spawn.MobType)
	if err != nil {
		m.logger.Error("failed to spawn mob", "mob_type", spawn.MobType, "spawn_id", spawn.SpawnId, "error", err)
		return
	}

	if old, ok := m.entities.Get(spawn.SpawnId); ok {
		m.spawnIds.Del(old)
	}
	m.entities.Put(spawn.SpawnId, entity)
	m.spawnIds.Put(entity, spawn.SpawnId)

	m.logger.Debug("spawned mob", "mob_type", spawn.MobType, "spawn_id", spawn.SpawnId, "entity", entity)
	cb.OnSpawn(entity, spawn.SpawnId, spawn.MobType)
}

func (m *Manager) addComponent(storage *ecs.Storage, add replication.AddComponent, cb Callbacks) {
	entity, ok := m.entities.Get(add.SpawnId)
	if !ok || !storage.Alive(entity) {
		m.logger.Error("component added to unknown spawn", "spawn_id", add.SpawnId, "component_type", add.ComponentType, "id", add.Id)
		return
	}

	if err := m.components.AddComponent(storage, entity, add.ComponentType, add.Id, add.Data); err != nil {
		m.logger.Error("failed to add component", "spawn_id", add.SpawnId, "component_type", add.ComponentType, "id", add.Id, "error", err)
		return
	}
	cb.OnComponentAdded(entity, add.SpawnId, add.ComponentType, add.Id)
}

// applyUpdates removes every update it consumes from updates
func (m *Manager) applyUpdates(storage *ecs.Storage, updates map[replication.Id][]byte, cb Callbacks) {
	for entity := range storage.Entities() {
		for component := range replication.Components(storage, entity) {
			id := component.ReplicationId()
			data, ok := updates[id]
			if !ok {
				continue
			}
			delete(updates, id)

			if err := component.Replicate(wire.NewDecoder(data)); err != nil {
				m.logger.Error("failed to replicate component", "id", id, "entity", entity, "error", err)
				continue
			}

			spawnId, ok := m.spawnIds.Get(entity)
			if !ok {
				m.logger.Error("replicated component on entity without spawn id", "id", id, "entity", entity)
				continue
			}
			cb.OnComponentUpdated(entity, spawnId, id)
		}
		if len(updates) == 0 {
			return
		}
	}
}
