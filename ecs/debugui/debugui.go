// Package debugui renders Dear ImGui windows for inspecting a replicated
// world: the entities the server spawned, their components and the stream of
// replication events.
package debugui

import (
	"github.com/plus3/mmoss/ecs"
	"github.com/plus3/mmoss/replication"
)

// Source is the world being inspected. client.World satisfies it.
type Source interface {
	Storage() *ecs.Storage
	SpawnId(entity ecs.Entity) (replication.SpawnId, bool)
}

// Inspector owns the debug windows. It keeps its state outside the inspected
// storage so the windows never show up in themselves.
type Inspector struct {
	source Source
	events *EventCounter

	browser   EntityBrowser
	inspector ComponentInspector
	viewer    ArchetypeViewer
	stats     ReplicationStats
}

func NewInspector(source Source, events *EventCounter) *Inspector {
	if events == nil {
		events = NewEventCounter(nil)
	}
	return &Inspector{
		source:  source,
		events:  events,
		browser: NewEntityBrowser(100),
		viewer:  NewArchetypeViewer(),
		stats:   NewReplicationStats(120),
	}
}

// Render draws every window. Call it between the backend's BeginFrame and
// EndFrame.
func (i *Inspector) Render(deltaTime float32) {
	storage := i.source.Storage()
	if archetype := i.viewer.Render(storage); archetype != nil {
		i.browser.SetFilter(i.browser.filterText, archetype)
	}
	i.browser.Render(i.source)
	entity, selected := i.browser.Selected()
	i.inspector.Render(i.source, entity, selected)
	i.stats.Render(storage, i.events, deltaTime)
}

// InspectorSystem queues the inspector to render after the frame's other
// systems have run
type InspectorSystem struct {
	Inspector *Inspector
}

func (s *InspectorSystem) Execute(frame *ecs.UpdateFrame) {
	dt := float32(frame.DeltaTime)
	frame.Commands.Defer(func() {
		s.Inspector.Render(dt)
	})
}
