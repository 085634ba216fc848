package ecs_test

import (
	"testing"

	"github.com/plus3/mmoss/ecs"
)

func BenchmarkSpawn(b *testing.B) {
	storage := ecs.NewStorage(newTestRegistry())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		storage.Spawn(Position{X: float32(i)}, Velocity{DX: 1})
	}
}

func BenchmarkAddComponent(b *testing.B) {
	storage := ecs.NewStorage(newTestRegistry())
	entities := make([]ecs.Entity, b.N)
	for i := range entities {
		entities[i] = storage.Spawn(Position{X: float32(i)})
	}

	b.ResetTimer()
	for _, entity := range entities {
		_ = storage.AddComponent(entity, Velocity{DX: 1})
	}
}

func BenchmarkViewIter(b *testing.B) {
	storage := ecs.NewStorage(newTestRegistry())
	for i := 0; i < 10000; i++ {
		storage.Spawn(Position{X: float32(i)}, Velocity{DX: 1})
	}
	view := ecs.NewView[struct {
		*Position
		*Velocity
	}](storage)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for item := range view.Values() {
			item.Position.X += item.Velocity.DX
		}
	}
}
