// Package replication defines the messages and component contract used to
// mirror server-side entities onto clients.
package replication

import (
	"iter"

	"github.com/plus3/mmoss/ecs"
	"github.com/plus3/mmoss/wire"
)

// Id identifies one replicated component instance. The server assigns it.
type Id uint32

// MobType names the kind of a spawned entity
type MobType uint32

// ComponentType names the kind of a replicated component. Values
// 0x0000-0x00FF are reserved for the library.
type ComponentType uint32

// SpawnId correlates component additions with the spawn that introduced the
// owning entity
type SpawnId uint32

// Replicated is implemented by components whose state is mirrored from the
// server. Implementations use pointer receivers so the storage copy is
// updated in place.
type Replicated interface {
	ReplicationId() Id
	ComponentType() ComponentType
	Serialize(enc *wire.Encoder)
	Replicate(dec *wire.Decoder) error
}

// Proxied is implemented by server-side components that clients represent
// with a different, lighter component type
type Proxied interface {
	ReplicatedComponentType() ComponentType
}

// Mob tags a server entity with its mob type
type Mob struct {
	Type MobType
}

// RegisterComponents registers the component types this package stores
func RegisterComponents(registry *ecs.ComponentRegistry) {
	ecs.RegisterComponent[Mob](registry)
}

// WireType returns the component type announced to clients for c
func WireType(c Replicated) ComponentType {
	if p, ok := c.(Proxied); ok {
		return p.ReplicatedComponentType()
	}
	return c.ComponentType()
}

// Components yields every replicated component attached to entity
func Components(storage *ecs.Storage, entity ecs.Entity) iter.Seq[Replicated] {
	return func(yield func(Replicated) bool) {
		for comp := range storage.Components(entity) {
			if r, ok := comp.(Replicated); ok {
				if !yield(r) {
					return
				}
			}
		}
	}
}

// Find returns the replicated component of entity with the given id
func Find(storage *ecs.Storage, entity ecs.Entity, id Id) (Replicated, bool) {
	for r := range Components(storage, entity) {
		if r.ReplicationId() == id {
			return r, true
		}
	}
	return nil, false
}

// Snapshot serializes the current state of a component
func Snapshot(c Replicated) []byte {
	var enc wire.Encoder
	c.Serialize(&enc)
	return enc.Bytes()
}
