package main

import (
	"io"
	"runtime"
	"text/template"
	"time"

	"github.com/plus3/mmoss/ecs"
)

type Report struct {
	// Configuration
	Addr    string
	Tick    time.Duration
	Squares int

	// Results
	TotalTime     time.Duration
	Clients       int
	Scheduler     ecs.SchedulerStats
	MemStatsStart runtime.MemStats
	MemStatsEnd   runtime.MemStats
}

func (r *Report) Generate(w io.Writer) error {
	const reportTemplate = `
# mmoss Server Report

## Configuration
- **Address:** {{.Addr}}
- **Tick:** {{.Tick}}
- **Squares:** {{.Squares}}

## Results
- **Uptime:** {{.TotalTime}}
- **Clients at shutdown:** {{.Clients}}
- **Ticks:** {{.Scheduler.Ticks}} ({{.Scheduler.Overruns}} over budget)
{{range .Scheduler.Systems}}
### {{.Name}}
  - **Runs:** {{.ExecutionCount}}
  - **Avg:** {{.AvgDuration}}
  - **Min:** {{.MinDuration}}
  - **Max:** {{.MaxDuration}}
{{end}}
## Memory Usage (Raw Bytes)
- Heap Alloc:     {{.MemStatsStart.HeapAlloc}} (start) -> {{.MemStatsEnd.HeapAlloc}} (end) -> delta: {{bsub .MemStatsEnd.HeapAlloc .MemStatsStart.HeapAlloc}}
- Total Alloc:    {{.MemStatsStart.TotalAlloc}} (start) -> {{.MemStatsEnd.TotalAlloc}} (end) -> delta: {{bsub .MemStatsEnd.TotalAlloc .MemStatsStart.TotalAlloc}}
- Num GC:         {{.MemStatsStart.NumGC}} (start) -> {{.MemStatsEnd.NumGC}} (end) -> delta: {{usub .MemStatsEnd.NumGC .MemStatsStart.NumGC}}
- Total GC Pause: {{.MemStatsEnd.PauseTotalNs | ns}}
`

	fm := template.FuncMap{
		"bsub": func(a, b uint64) int64 {
			return int64(a) - int64(b)
		},
		"usub": func(a, b uint32) uint32 {
			return a - b
		},
		"ns": func(ns uint64) string {
			return time.Duration(ns).String()
		},
	}

	tmpl, err := template.New("report").Funcs(fm).Parse(reportTemplate)
	if err != nil {
		return err
	}

	return tmpl.Execute(w, r)
}
