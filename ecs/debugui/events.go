package debugui

import (
	"sync/atomic"

	"github.com/plus3/mmoss/ecs"
	"github.com/plus3/mmoss/replication"
	rclient "github.com/plus3/mmoss/replication/client"
)

// EventCounter counts replication callbacks before handing them on
type EventCounter struct {
	next rclient.Callbacks

	spawns  atomic.Int64
	added   atomic.Int64
	updated atomic.Int64
}

// NewEventCounter wraps next, which may be nil
func NewEventCounter(next rclient.Callbacks) *EventCounter {
	if next == nil {
		next = rclient.CallbackFuncs{}
	}
	return &EventCounter{next: next}
}

func (c *EventCounter) OnSpawn(entity ecs.Entity, spawnId replication.SpawnId, mobType replication.MobType) {
	c.spawns.Add(1)
	c.next.OnSpawn(entity, spawnId, mobType)
}

func (c *EventCounter) OnComponentAdded(entity ecs.Entity, spawnId replication.SpawnId, componentType replication.ComponentType, id replication.Id) {
	c.added.Add(1)
	c.next.OnComponentAdded(entity, spawnId, componentType, id)
}

func (c *EventCounter) OnComponentUpdated(entity ecs.Entity, spawnId replication.SpawnId, id replication.Id) {
	c.updated.Add(1)
	c.next.OnComponentUpdated(entity, spawnId, id)
}

type EventCounts struct {
	Spawns, Added, Updated int64
}

func (c *EventCounter) Counts() EventCounts {
	return EventCounts{
		Spawns:  c.spawns.Load(),
		Added:   c.added.Load(),
		Updated: c.updated.Load(),
	}
}
