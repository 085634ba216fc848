package ecs

import (
	"context"
	"reflect"
	"sync"
	"time"
)

// SchedulerStats is a snapshot of scheduler timings
type SchedulerStats struct {
	Ticks uint64
	// Overruns counts ticks of Run that took longer than the interval
	Overruns uint64
	Systems  []SystemStats
}

type SystemStats struct {
	Name           string
	ExecutionCount int64
	MinDuration    time.Duration
	MaxDuration    time.Duration
	AvgDuration    time.Duration
	LastDuration   time.Duration
	TotalDuration  time.Duration
}

// Scheduler runs systems in registration order against one storage
type Scheduler struct {
	storage *Storage
	systems []System

	mu       sync.Mutex
	ticks    uint64
	overruns uint64
	stats    []SystemStats
}

func NewScheduler(storage *Storage) *Scheduler {
	return &Scheduler{storage: storage}
}

type queryField interface {
	Init(storage *Storage)
}

// Register appends system and binds its exported Query fields
func (s *Scheduler) Register(system System) {
	s.bindQueries(system)
	s.systems = append(s.systems, system)

	name := ""
	if named, ok := system.(Named); ok {
		name = named.Name()
	} else {
		t := reflect.TypeOf(system)
		if t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		name = t.Name()
	}

	s.mu.Lock()
	s.stats = append(s.stats, SystemStats{Name: name})
	s.mu.Unlock()
}

func (s *Scheduler) bindQueries(system System) {
	v := reflect.ValueOf(system)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return
	}
	v = v.Elem()

	for i := range v.NumField() {
		field := v.Field(i)
		if !field.CanSet() || field.Kind() != reflect.Struct {
			continue
		}
		if q, ok := field.Addr().Interface().(queryField); ok {
			q.Init(s.storage)
		}
	}
}

// Once runs every system with the given delta time in seconds, then applies
// the queued commands
func (s *Scheduler) Once(dt float64) {
	s.mu.Lock()
	s.ticks++
	tick := s.ticks
	s.mu.Unlock()

	frame := newUpdateFrame(tick, dt, s.storage)
	for i, system := range s.systems {
		start := time.Now()
		system.Execute(frame)
		s.record(i, time.Since(start))
	}

	frame.Commands.Flush(s.storage)
}

func (s *Scheduler) record(i int, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := &s.stats[i]
	if st.ExecutionCount == 0 || d < st.MinDuration {
		st.MinDuration = d
	}
	st.MaxDuration = max(st.MaxDuration, d)
	st.ExecutionCount++
	st.LastDuration = d
	st.TotalDuration += d
	st.AvgDuration = st.TotalDuration / time.Duration(st.ExecutionCount)
}

// Run ticks every interval until ctx is done. Each tick receives the wall
// time since the previous one.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.Once(now.Sub(last).Seconds())
			last = now

			if time.Since(now) > interval {
				s.mu.Lock()
				s.overruns++
				s.mu.Unlock()
			}
		}
	}
}

// Stats returns a copy of the current timings. It is safe to call while Run
// is active.
func (s *Scheduler) Stats() SchedulerStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return SchedulerStats{
		Ticks:    s.ticks,
		Overruns: s.overruns,
		Systems:  append([]SystemStats(nil), s.stats...),
	}
}
