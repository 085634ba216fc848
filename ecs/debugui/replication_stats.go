package debugui

import (
	"fmt"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/mmoss/ecs"
)

// ReplicationStats graphs frame time and the rate of updates arriving from
// the server
type ReplicationStats struct {
	frames  []float32
	updates []float32
	index   int

	last EventCounts
}

func NewReplicationStats(history int) ReplicationStats {
	history = max(history, 1)
	return ReplicationStats{
		frames:  make([]float32, history),
		updates: make([]float32, history),
	}
}

// Sample records one frame. It returns the updates per second seen since the
// previous sample.
func (rs *ReplicationStats) Sample(counts EventCounts, deltaTime float32) float32 {
	var rate float32
	if deltaTime > 0 {
		rate = float32(counts.Updated-rs.last.Updated) / deltaTime
	}
	rs.last = counts

	rs.frames[rs.index] = deltaTime * 1000
	rs.updates[rs.index] = rate
	rs.index = (rs.index + 1) % len(rs.frames)
	return rate
}

// AverageFrameTime is the mean of the recorded frame times in milliseconds
func (rs *ReplicationStats) AverageFrameTime() float32 {
	var total float32
	for _, ft := range rs.frames {
		total += ft
	}
	return total / float32(len(rs.frames))
}

func (rs *ReplicationStats) Render(storage *ecs.Storage, events *EventCounter, deltaTime float32) {
	if !imgui.BeginV("Replication", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	counts := events.Counts()
	rate := rs.Sample(counts, deltaTime)

	archetypes := 0
	for range storage.Archetypes() {
		archetypes++
	}

	imgui.Text(fmt.Sprintf("Entities: %d", storage.Len()))
	imgui.Text(fmt.Sprintf("Archetypes: %d", archetypes))
	imgui.Separator()
	imgui.Text(fmt.Sprintf("Spawns: %d", counts.Spawns))
	imgui.Text(fmt.Sprintf("Components added: %d", counts.Added))
	imgui.Text(fmt.Sprintf("Updates: %d (%.0f/s)", counts.Updated, rate))

	avg := rs.AverageFrameTime()
	if avg > 0 {
		imgui.Text(fmt.Sprintf("Avg Frame Time: %.2f ms (%.0f FPS)", avg, 1000/avg))
	}

	imgui.Separator()
	imgui.Text("Frame Time (ms)")
	imgui.PlotLinesFloatPtr("##frametime", &rs.frames[0], int32(len(rs.frames)))
	imgui.Text("Updates/s")
	imgui.PlotLinesFloatPtr("##updates", &rs.updates[0], int32(len(rs.updates)))

	imgui.End()
}
