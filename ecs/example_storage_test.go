package ecs_test

import (
	"fmt"
	"reflect"

	"github.com/plus3/mmoss/ecs"
)

// ExampleStorage demonstrates the basic API for managing entities and components.
// Components are organized by archetype - entities with the same component types
// share the same archetype for efficient memory layout and iteration.
func ExampleStorage() {
	registry := ecs.NewComponentRegistry()
	ecs.RegisterComponent[Position](registry)
	ecs.RegisterComponent[Velocity](registry)
	ecs.RegisterComponent[Health](registry)
	storage := ecs.NewStorage(registry)

	player := storage.Spawn(
		Position{X: 10, Y: 20},
		Velocity{DX: 1, DY: 0},
		Health{Current: 100, Max: 100},
	)

	pos := ecs.Get[Position](storage, player)
	fmt.Printf("Player spawned at (%.0f, %.0f)\n", pos.X, pos.Y)

	pos.X = 15
	pos.Y = 25
	fmt.Printf("Player moved to (%.0f, %.0f)\n", pos.X, pos.Y)

	storage.Delete(player)
	fmt.Println("Player alive:", storage.Alive(player))

	// Output:
	// Player spawned at (10, 20)
	// Player moved to (15, 25)
	// Player alive: false
}

// ExampleStorage_addRemoveComponents shows that an entity keeps its id while
// it moves between archetypes as components are added or removed.
func ExampleStorage_addRemoveComponents() {
	registry := ecs.NewComponentRegistry()
	ecs.RegisterComponent[Position](registry)
	ecs.RegisterComponent[Velocity](registry)
	storage := ecs.NewStorage(registry)

	entity := storage.Spawn(Position{X: 0, Y: 0})
	fmt.Println("Has velocity:", storage.HasComponent(entity, reflect.TypeOf(Velocity{})))

	_ = storage.AddComponent(entity, Velocity{DX: 5, DY: 3})
	vel := ecs.Get[Velocity](storage, entity)
	fmt.Printf("Has velocity: %v (%.0f, %.0f)\n", vel != nil, vel.DX, vel.DY)

	_ = storage.RemoveComponent(entity, reflect.TypeOf(Velocity{}))
	fmt.Println("Has velocity:", storage.HasComponent(entity, reflect.TypeOf(Velocity{})))

	// Output:
	// Has velocity: false
	// Has velocity: true (5, 3)
	// Has velocity: false
}
