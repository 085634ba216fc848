package client

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/plus3/mmoss/ecs"
	"github.com/plus3/mmoss/replication"
	"github.com/plus3/mmoss/wire"
)

var ErrBuilderConsumed = errors.New("replication: builder already built")

type ErrUnknownMobType struct {
	Type replication.MobType
}

func (e ErrUnknownMobType) Error() string {
	return fmt.Sprintf("replication: no mob registered for type %d", e.Type)
}

type ErrUnknownComponentType struct {
	Type replication.ComponentType
}

func (e ErrUnknownComponentType) Error() string {
	return fmt.Sprintf("replication: no component registered for type %d", e.Type)
}

// MobEntry constructs the local entity for a spawned mob
type MobEntry interface {
	Construct(storage *ecs.Storage) (ecs.Entity, error)
}

// ComponentEntry attaches a replicated component to a spawned entity, seeded
// with the serialized state sent by the server
type ComponentEntry interface {
	AddComponent(storage *ecs.Storage, entity ecs.Entity, id replication.Id, data []byte) error
}

// ComponentRegistrar is implemented by entries that know which component
// types they store. Worlds register those types before the first update.
type ComponentRegistrar interface {
	RegisterComponents(registry *ecs.ComponentRegistry)
}

type MobEntryFunc func(storage *ecs.Storage) (ecs.Entity, error)

func (f MobEntryFunc) Construct(storage *ecs.Storage) (ecs.Entity, error) {
	return f(storage)
}

type ComponentEntryFunc func(storage *ecs.Storage, entity ecs.Entity, id replication.Id, data []byte) error

func (f ComponentEntryFunc) AddComponent(storage *ecs.Storage, entity ecs.Entity, id replication.Id, data []byte) error {
	return f(storage, entity, id, data)
}

// ReplicatedEntry builds a component of type T with New and replicates the
// initial payload into it before attaching it
type ReplicatedEntry[T any, P interface {
	*T
	replication.Replicated
}] struct {
	New func(id replication.Id) T
}

func NewReplicatedEntry[T any, P interface {
	*T
	replication.Replicated
}](newFn func(id replication.Id) T) ReplicatedEntry[T, P] {
	return ReplicatedEntry[T, P]{New: newFn}
}

func (e ReplicatedEntry[T, P]) AddComponent(storage *ecs.Storage, entity ecs.Entity, id replication.Id, data []byte) error {
	component := e.New(id)
	if err := P(&component).Replicate(wire.NewDecoder(data)); err != nil {
		return fmt.Errorf("replicate initial state: %w", err)
	}
	return storage.AddComponent(entity, component)
}

func (e ReplicatedEntry[T, P]) RegisterComponents(registry *ecs.ComponentRegistry) {
	ecs.RegisterComponent[T](registry)
}

type MobFactoryBuilder struct {
	entries  map[replication.MobType]MobEntry
	consumed bool
}

func NewMobFactoryBuilder() *MobFactoryBuilder {
	return &MobFactoryBuilder{entries: make(map[replication.MobType]MobEntry)}
}

// Register maps a mob type to its entry, replacing any earlier registration
func (b *MobFactoryBuilder) Register(mobType replication.MobType, entry MobEntry) error {
	if b.consumed {
		return ErrBuilderConsumed
	}
	b.entries[mobType] = entry
	return nil
}

// Build consumes the builder
func (b *MobFactoryBuilder) Build() (*MobFactory, error) {
	if b.consumed {
		return nil, ErrBuilderConsumed
	}
	b.consumed = true
	f := &MobFactory{entries: b.entries}
	b.entries = nil
	return f, nil
}

// MobFactory is immutable and may be shared by any number of worlds
type MobFactory struct {
	entries map[replication.MobType]MobEntry
}

func (f *MobFactory) Construct(storage *ecs.Storage, mobType replication.MobType) (ecs.Entity, error) {
	entry, ok := f.entries[mobType]
	if !ok {
		return 0, ErrUnknownMobType{Type: mobType}
	}
	return entry.Construct(storage)
}

// Types returns the registered mob types in ascending order
func (f *MobFactory) Types() []replication.MobType {
	return slices.Sorted(maps.Keys(f.entries))
}

func (f *MobFactory) RegisterComponents(registry *ecs.ComponentRegistry) {
	for _, entry := range f.entries {
		if r, ok := entry.(ComponentRegistrar); ok {
			r.RegisterComponents(registry)
		}
	}
}

type ComponentFactoryBuilder struct {
	entries  map[replication.ComponentType]ComponentEntry
	consumed bool
}

func NewComponentFactoryBuilder() *ComponentFactoryBuilder {
	return &ComponentFactoryBuilder{entries: make(map[replication.ComponentType]ComponentEntry)}
}

func (b *ComponentFactoryBuilder) Register(componentType replication.ComponentType, entry ComponentEntry) error {
	if b.consumed {
		return ErrBuilderConsumed
	}
	b.entries[componentType] = entry
	return nil
}

func (b *ComponentFactoryBuilder) Build() (*ComponentFactory, error) {
	if b.consumed {
		return nil, ErrBuilderConsumed
	}
	b.consumed = true
	f := &ComponentFactory{entries: b.entries}
	b.entries = nil
	return f, nil
}

// ComponentFactory is immutable and may be shared by any number of worlds
type ComponentFactory struct {
	entries map[replication.ComponentType]ComponentEntry
}

func (f *ComponentFactory) AddComponent(storage *ecs.Storage, entity ecs.Entity, componentType replication.ComponentType, id replication.Id, data []byte) error {
	entry, ok := f.entries[componentType]
	if !ok {
		return ErrUnknownComponentType{Type: componentType}
	}
	return entry.AddComponent(storage, entity, id, data)
}

func (f *ComponentFactory) Types() []replication.ComponentType {
	return slices.Sorted(maps.Keys(f.entries))
}

func (f *ComponentFactory) RegisterComponents(registry *ecs.ComponentRegistry) {
	for _, entry := range f.entries {
		if r, ok := entry.(ComponentRegistrar); ok {
			r.RegisterComponents(registry)
		}
	}
}
