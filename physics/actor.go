package physics

import (
	"github.com/plus3/mmoss/ecs"
	"github.com/plus3/mmoss/replication"
	"github.com/plus3/mmoss/wire"
)

// Library component types
const (
	StaticActorType       replication.ComponentType = 5
	DynamicActorType      replication.ComponentType = 6
	DynamicActorProxyType replication.ComponentType = 7
	StaticActorProxyType  replication.ComponentType = 8
)

// TransformComponent is implemented by every component that places its entity
// in the world
type TransformComponent interface {
	CurrentTransform() Transform
}

// DynamicActor is the server-side moving actor. Clients mirror it as a
// DynamicActorProxy.
type DynamicActor struct {
	Id        replication.Id
	Transform Transform
}

func NewDynamicActor(id replication.Id, transform Transform) DynamicActor {
	return DynamicActor{Id: id, Transform: transform}
}

func (a *DynamicActor) ReplicationId() replication.Id            { return a.Id }
func (a *DynamicActor) ComponentType() replication.ComponentType { return DynamicActorType }
func (a *DynamicActor) ReplicatedComponentType() replication.ComponentType {
	return DynamicActorProxyType
}
func (a *DynamicActor) Serialize(enc *wire.Encoder)       { a.Transform.Encode(enc) }
func (a *DynamicActor) Replicate(dec *wire.Decoder) error { return a.Transform.Decode(dec) }
func (a *DynamicActor) CurrentTransform() Transform       { return a.Transform }

// StaticActor is the server-side immovable actor, mirrored as a
// StaticActorProxy.
type StaticActor struct {
	Id        replication.Id
	Transform Transform
}

func NewStaticActor(id replication.Id, transform Transform) StaticActor {
	return StaticActor{Id: id, Transform: transform}
}

func (a *StaticActor) ReplicationId() replication.Id            { return a.Id }
func (a *StaticActor) ComponentType() replication.ComponentType { return StaticActorType }
func (a *StaticActor) ReplicatedComponentType() replication.ComponentType {
	return StaticActorProxyType
}
func (a *StaticActor) Serialize(enc *wire.Encoder)       { a.Transform.Encode(enc) }
func (a *StaticActor) Replicate(dec *wire.Decoder) error { return a.Transform.Decode(dec) }
func (a *StaticActor) CurrentTransform() Transform       { return a.Transform }

// DynamicActorProxy mirrors a remote DynamicActor without simulating it
type DynamicActorProxy struct {
	Id        replication.Id
	Transform Transform
}

func NewDynamicActorProxy(id replication.Id) DynamicActorProxy {
	return DynamicActorProxy{Id: id, Transform: IdentityTransform()}
}

func (p *DynamicActorProxy) ReplicationId() replication.Id { return p.Id }
func (p *DynamicActorProxy) ComponentType() replication.ComponentType {
	return DynamicActorProxyType
}
func (p *DynamicActorProxy) Serialize(enc *wire.Encoder)       { p.Transform.Encode(enc) }
func (p *DynamicActorProxy) Replicate(dec *wire.Decoder) error { return p.Transform.Decode(dec) }
func (p *DynamicActorProxy) CurrentTransform() Transform       { return p.Transform }

// StaticActorProxy mirrors a remote StaticActor
type StaticActorProxy struct {
	Id        replication.Id
	Transform Transform
}

func NewStaticActorProxy(id replication.Id) StaticActorProxy {
	return StaticActorProxy{Id: id, Transform: IdentityTransform()}
}

func (p *StaticActorProxy) ReplicationId() replication.Id { return p.Id }
func (p *StaticActorProxy) ComponentType() replication.ComponentType {
	return StaticActorProxyType
}
func (p *StaticActorProxy) Serialize(enc *wire.Encoder)       { p.Transform.Encode(enc) }
func (p *StaticActorProxy) Replicate(dec *wire.Decoder) error { return p.Transform.Decode(dec) }
func (p *StaticActorProxy) CurrentTransform() Transform       { return p.Transform }

// RegisterComponents registers every actor component type
func RegisterComponents(registry *ecs.ComponentRegistry) {
	ecs.RegisterComponent[DynamicActor](registry)
	ecs.RegisterComponent[StaticActor](registry)
	ecs.RegisterComponent[DynamicActorProxy](registry)
	ecs.RegisterComponent[StaticActorProxy](registry)
}

// FindTransform returns the transform of the first component on entity that
// implements TransformComponent
func FindTransform(storage *ecs.Storage, entity ecs.Entity) (Transform, bool) {
	for comp := range storage.Components(entity) {
		if tc, ok := comp.(TransformComponent); ok {
			return tc.CurrentTransform(), true
		}
	}
	return Transform{}, false
}
