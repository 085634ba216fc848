package ecs_test

import (
	"fmt"
	"sort"

	"github.com/plus3/mmoss/ecs"
)

// ExampleView demonstrates using Views for flexible entity queries.
// Views don't require a Scheduler and perform iteration on-demand, making
// them ideal for tools and rendering code outside of a system.
func ExampleView() {
	registry := ecs.NewComponentRegistry()
	ecs.RegisterComponent[Position](registry)
	ecs.RegisterComponent[Velocity](registry)
	storage := ecs.NewStorage(registry)

	player := storage.Spawn(Position{X: 10, Y: 20}, Velocity{DX: 1, DY: 0})

	view := ecs.NewView[struct {
		*Position
		*Velocity
	}](storage)

	if item := view.Get(player); item != nil {
		fmt.Printf("Player at (%.0f, %.0f) moving (%.0f, %.0f)\n",
			item.Position.X, item.Position.Y, item.Velocity.DX, item.Velocity.DY)
	}

	// Output:
	// Player at (10, 20) moving (1, 0)
}

// ExampleView_Iter shows iterating over all entities matching a view.
// Entities without the optional Health component are still visited.
func ExampleView_Iter() {
	registry := ecs.NewComponentRegistry()
	ecs.RegisterComponent[Position](registry)
	ecs.RegisterComponent[Health](registry)
	storage := ecs.NewStorage(registry)

	storage.Spawn(Position{X: 0, Y: 0})
	storage.Spawn(Position{X: 10, Y: 10}, Health{Current: 50, Max: 100})

	view := ecs.NewView[struct {
		Position *Position
		Health   *Health `ecs:"optional"`
	}](storage)

	var lines []string
	for item := range view.Values() {
		if item.Health != nil {
			lines = append(lines, fmt.Sprintf("(%.0f, %.0f) health %d", item.Position.X, item.Position.Y, item.Health.Current))
		} else {
			lines = append(lines, fmt.Sprintf("(%.0f, %.0f) no health", item.Position.X, item.Position.Y))
		}
	}
	sort.Strings(lines)
	for _, line := range lines {
		fmt.Println(line)
	}

	// Output:
	// (0, 0) no health
	// (10, 10) health 50
}
