package ecs_test

import (
	"reflect"
	"testing"

	"github.com/plus3/mmoss/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntityEncoding(t *testing.T) {
	tests := []struct {
		index      uint32
		generation uint32
	}{
		{0, 1},
		{1, 0},
		{0xFFFFFFFF, 0xFFFFFFFF},
		{0x12345678, 0x9ABCDEF0},
	}

	for _, tt := range tests {
		entity := ecs.NewEntity(tt.index, tt.generation)
		assert.Equal(t, tt.index, entity.Index())
		assert.Equal(t, tt.generation, entity.Generation())
	}
}

func TestSpawnEntity(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())

	id := storage.Spawn(&Position{X: 1.0, Y: 2.0}, &Velocity{DX: 0.5, DY: 0.5}, Score(32))
	assert.NotEqual(t, ecs.Entity(0), id)
	assert.True(t, storage.Alive(id))
	assert.Equal(t, 1, storage.Len())

	score := ecs.Get[Score](storage, id)
	require.NotNil(t, score)
	assert.Equal(t, Score(32), *score)
}

func TestSpawnPanics(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())

	assert.Panics(t, func() { storage.Spawn(Position{}, Position{}) })
	assert.Panics(t, func() { storage.Spawn(map[string]int{}) })
	assert.Panics(t, func() { storage.Spawn(struct{ Unregistered int }{}) })
}

func TestGetComponent(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())

	id := storage.Spawn(&Position{X: 3.0, Y: 4.0}, Name{Value: "Test Entity"})

	pos := storage.GetComponent(id, reflect.TypeOf(Position{}))
	require.NotNil(t, pos)
	assert.Equal(t, &Position{X: 3.0, Y: 4.0}, pos)

	name := ecs.Get[Name](storage, id)
	require.NotNil(t, name)
	assert.Equal(t, "Test Entity", name.Value)

	assert.Nil(t, storage.GetComponent(id, reflect.TypeOf(Velocity{})))
	assert.Nil(t, ecs.Get[Velocity](storage, id))
}

func TestDeleteEntity(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())

	id := storage.Spawn(&Position{X: 1.0, Y: 1.0}, &Health{Current: 100, Max: 100})
	assert.True(t, storage.Delete(id))

	assert.False(t, storage.Alive(id))
	assert.Nil(t, storage.GetComponent(id, reflect.TypeOf(Position{})))
	assert.False(t, storage.Delete(id), "second delete is a no-op")
	assert.Equal(t, 0, storage.Len())
}

func TestDeletedEntityIsNeverReused(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())

	old := storage.Spawn(Position{X: 1})
	storage.Delete(old)

	reused := storage.Spawn(Position{X: 2})
	assert.Equal(t, old.Index(), reused.Index(), "slot is recycled")
	assert.NotEqual(t, old, reused)
	assert.False(t, storage.Alive(old))
	assert.Nil(t, ecs.Get[Position](storage, old))
	assert.Equal(t, float32(2), ecs.Get[Position](storage, reused).X)
}

func TestUnknownEntity(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())

	assert.False(t, storage.Alive(0))
	assert.False(t, storage.Alive(ecs.NewEntity(42, 1)))
	assert.ErrorIs(t, storage.AddComponent(ecs.NewEntity(42, 1), Position{}), ecs.ErrEntityNotFound)
	assert.ErrorIs(t, storage.RemoveComponent(0, reflect.TypeOf(Position{})), ecs.ErrEntityNotFound)
}

func TestEntityStableAcrossArchetypeMoves(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())

	id := storage.Spawn(Position{X: 1, Y: 2})
	other := storage.Spawn(Position{X: 9, Y: 9})

	require.NoError(t, storage.AddComponent(id, Velocity{DX: 3}))
	require.NoError(t, storage.AddComponent(id, &Health{Current: 5, Max: 10}))

	assert.True(t, storage.HasComponent(id, reflect.TypeOf(Velocity{})))
	assert.Equal(t, &Position{X: 1, Y: 2}, ecs.Get[Position](storage, id))
	assert.Equal(t, &Health{Current: 5, Max: 10}, ecs.Get[Health](storage, id))

	require.NoError(t, storage.RemoveComponent(id, reflect.TypeOf(Velocity{})))
	assert.False(t, storage.HasComponent(id, reflect.TypeOf(Velocity{})))
	assert.Equal(t, &Position{X: 1, Y: 2}, ecs.Get[Position](storage, id))

	assert.Equal(t, &Position{X: 9, Y: 9}, ecs.Get[Position](storage, other))
}

func TestAddComponentReplacesExisting(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())

	id := storage.Spawn(Position{X: 1})
	require.NoError(t, storage.AddComponent(id, Position{X: 7}))

	assert.Equal(t, float32(7), ecs.Get[Position](storage, id).X)
	assert.Equal(t, 1, storage.Len())
}

func TestRemoveComponent(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())

	id := storage.Spawn(Position{X: 1})

	assert.ErrorIs(t, storage.RemoveComponent(id, reflect.TypeOf(Velocity{})), ecs.ErrComponentNotFound)

	require.NoError(t, storage.RemoveComponent(id, reflect.TypeOf(Position{})))
	assert.True(t, storage.Alive(id), "entity without components stays alive")

	count := 0
	for range storage.Components(id) {
		count++
	}
	assert.Equal(t, 0, count)
}

func TestComponentMutation(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())

	id := storage.Spawn(&Position{X: 1.0, Y: 1.0})

	pos := ecs.Get[Position](storage, id)
	pos.X = 10.0
	pos.Y = 20.0

	assert.Equal(t, &Position{X: 10, Y: 20}, ecs.Get[Position](storage, id))
}

func TestComponentPointersSurviveGrowth(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())

	first := storage.Spawn(Position{X: 1})
	pos := ecs.Get[Position](storage, first)

	for i := 0; i < 500; i++ {
		storage.Spawn(Position{X: float32(i)})
	}

	pos.X = 42
	assert.Equal(t, float32(42), ecs.Get[Position](storage, first).X)
}

func TestComponentsAndEntities(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())

	a := storage.Spawn(Position{X: 1}, Tag("a"))
	b := storage.Spawn(Health{Current: 1})
	c := storage.Spawn(Position{X: 2})
	storage.Delete(c)

	var components []any
	for comp := range storage.Components(a) {
		components = append(components, comp)
	}
	assert.ElementsMatch(t, []any{&Position{X: 1}, ptr(Tag("a"))}, components)

	var entities []ecs.Entity
	for entity := range storage.Entities() {
		entities = append(entities, entity)
	}
	assert.ElementsMatch(t, []ecs.Entity{a, b}, entities)
}

func TestArchetypes(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())

	storage.Spawn(Position{X: 1}, Velocity{})
	storage.Spawn(Velocity{}, Position{X: 2})
	storage.Spawn(Position{X: 3})

	archetype := storage.GetArchetypeByTypes([]reflect.Type{reflect.TypeOf(Velocity{}), reflect.TypeOf(Position{})})
	require.NotNil(t, archetype)
	assert.Equal(t, 2, archetype.Len())
	assert.Equal(t, []reflect.Type{reflect.TypeOf(Position{}), reflect.TypeOf(Velocity{})}, archetype.Types())

	count := 0
	for range storage.Archetypes() {
		count++
	}
	assert.Equal(t, 2, count)
}

func TestRegistry(t *testing.T) {
	registry := ecs.NewComponentRegistry()
	ecs.RegisterComponent[Position](registry)
	ecs.RegisterComponent[Position](registry)
	ecs.RegisterComponent[Health](registry)

	assert.True(t, registry.IsRegistered(reflect.TypeOf(Position{})))
	assert.False(t, registry.IsRegistered(reflect.TypeOf(Velocity{})))
	assert.Equal(t, []reflect.Type{reflect.TypeOf(Health{}), reflect.TypeOf(Position{})}, registry.Types())
}

func ptr[T any](v T) *T {
	return &v
}
