package ecs_test

import (
	"context"
	"testing"
	"time"

	"github.com/plus3/mmoss/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MovementSystem struct {
	Entities ecs.Query[struct {
		*Position
		*Velocity
	}]
	ExecuteCount int
}

func (s *MovementSystem) Execute(frame *ecs.UpdateFrame) {
	s.ExecuteCount++
	for item := range s.Entities.Values() {
		item.Position.X += item.Velocity.DX * float32(frame.DeltaTime)
		item.Position.Y += item.Velocity.DY * float32(frame.DeltaTime)
	}
}

type ReaperSystem struct {
	Entities ecs.Query[struct {
		Entity ecs.Entity
		*Health
	}]
}

func (s *ReaperSystem) Execute(frame *ecs.UpdateFrame) {
	for item := range s.Entities.Values() {
		if item.Health.Current <= 0 {
			frame.Commands.Delete(item.Entity)
		}
	}
}

func TestSchedulerOnce(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())
	scheduler := ecs.NewScheduler(storage)

	movement := &MovementSystem{}
	scheduler.Register(movement)
	scheduler.Register(&ReaperSystem{})

	mover := storage.Spawn(Position{}, Velocity{DX: 1, DY: 2})
	dead := storage.Spawn(Health{Current: 0, Max: 10})

	scheduler.Once(0.5)
	scheduler.Once(0.5)

	assert.Equal(t, 2, movement.ExecuteCount)
	assert.Equal(t, &Position{X: 1, Y: 2}, ecs.Get[Position](storage, mover))
	assert.False(t, storage.Alive(dead))

	stats := scheduler.Stats()
	assert.Equal(t, uint64(2), stats.Ticks)
	require.Len(t, stats.Systems, 2)
	assert.Equal(t, "MovementSystem", stats.Systems[0].Name)
	assert.Equal(t, "ReaperSystem", stats.Systems[1].Name)
	assert.Equal(t, int64(2), stats.Systems[0].ExecutionCount)
	assert.LessOrEqual(t, stats.Systems[0].MinDuration, stats.Systems[0].MaxDuration)
}

type tickRecorder struct {
	ticks []uint64
}

func (r *tickRecorder) Name() string { return "recorder" }

func (r *tickRecorder) Execute(frame *ecs.UpdateFrame) {
	r.ticks = append(r.ticks, frame.Tick)
}

func TestSchedulerNamedSystemAndTicks(t *testing.T) {
	scheduler := ecs.NewScheduler(ecs.NewStorage(newTestRegistry()))
	recorder := &tickRecorder{}
	scheduler.Register(recorder)

	scheduler.Once(0.1)
	scheduler.Once(0.1)
	scheduler.Once(0.1)

	assert.Equal(t, []uint64{1, 2, 3}, recorder.ticks)
	stats := scheduler.Stats()
	assert.Equal(t, "recorder", stats.Systems[0].Name)
	assert.Equal(t, int64(3), stats.Systems[0].ExecutionCount)
	assert.Equal(t, stats.Systems[0].TotalDuration/3, stats.Systems[0].AvgDuration)
}

func TestSchedulerRunStopsOnCancel(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())
	scheduler := ecs.NewScheduler(storage)

	movement := &MovementSystem{}
	scheduler.Register(movement)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		scheduler.Run(ctx, time.Millisecond)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
	assert.Greater(t, movement.ExecuteCount, 0)
}
