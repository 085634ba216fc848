package debugui

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/mmoss/ecs"
	"github.com/plus3/mmoss/replication"
)

// ComponentInspector shows the component values of the selected entity. It
// is read-only: the next replicated update would overwrite any edit.
type ComponentInspector struct{}

func (ci *ComponentInspector) Render(source Source, entity ecs.Entity, selected bool) {
	if !imgui.BeginV("Components", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}
	defer imgui.End()

	storage := source.Storage()
	if !selected {
		imgui.Text("No entity selected")
		return
	}
	if !storage.Alive(entity) {
		imgui.Text(fmt.Sprintf("Entity %d:%d is gone", entity.Index(), entity.Generation()))
		return
	}

	imgui.Text(fmt.Sprintf("Entity: %d:%d", entity.Index(), entity.Generation()))
	if spawnId, ok := source.SpawnId(entity); ok {
		imgui.Text(fmt.Sprintf("Spawn Id: %d", spawnId))
	} else {
		imgui.Text("Spawn Id: local")
	}
	imgui.Separator()

	for component := range storage.Components(entity) {
		t := reflect.TypeOf(component)
		if t.Kind() == reflect.Pointer {
			t = t.Elem()
		}

		label := t.String()
		if r, ok := component.(replication.Replicated); ok {
			label = fmt.Sprintf("%s (id %d, type %d)", label, r.ReplicationId(), replication.WireType(r))
		}

		if imgui.TreeNodeStr(label) {
			for _, line := range Describe(component) {
				imgui.Text(strings.Repeat("  ", line.Depth) + line.Name + ": " + line.Value)
			}
			imgui.TreePop()
		}
	}
}

// FieldLine is one rendered field. Nested struct fields follow their parent
// with a greater Depth and an empty parent Value.
type FieldLine struct {
	Depth int
	Name  string
	Value string
}

// Describe flattens the exported fields of a component for display
func Describe(component any) []FieldLine {
	val := reflect.Indirect(reflect.ValueOf(component))
	if !val.IsValid() {
		return nil
	}
	if val.Kind() != reflect.Struct {
		return []FieldLine{{Name: val.Type().String(), Value: fmt.Sprint(val.Interface())}}
	}
	return describeStruct(nil, val, 0)
}

func describeStruct(lines []FieldLine, val reflect.Value, depth int) []FieldLine {
	for _, index := range exportedFields(val.Type()) {
		field := val.Type().Field(index)
		fv := val.Field(index)

		if fv.Kind() == reflect.Pointer {
			if fv.IsNil() {
				lines = append(lines, FieldLine{Depth: depth, Name: field.Name, Value: "nil"})
				continue
			}
			fv = fv.Elem()
		}

		switch fv.Kind() {
		case reflect.Struct:
			lines = append(lines, FieldLine{Depth: depth, Name: field.Name})
			lines = describeStruct(lines, fv, depth+1)
		case reflect.Slice, reflect.Array:
			lines = append(lines, FieldLine{Depth: depth, Name: field.Name, Value: fmt.Sprintf("[%d items]", fv.Len())})
		case reflect.Map:
			lines = append(lines, FieldLine{Depth: depth, Name: field.Name, Value: fmt.Sprintf("map[%d items]", fv.Len())})
		case reflect.Float32, reflect.Float64:
			lines = append(lines, FieldLine{Depth: depth, Name: field.Name, Value: fmt.Sprintf("%.3f", fv.Float())})
		default:
			lines = append(lines, FieldLine{Depth: depth, Name: field.Name, Value: fmt.Sprint(fv.Interface())})
		}
	}
	return lines
}

var fieldCache sync.Map

func exportedFields(t reflect.Type) []int {
	if cached, ok := fieldCache.Load(t); ok {
		return cached.([]int)
	}

	var fields []int
	for i := range t.NumField() {
		if t.Field(i).IsExported() {
			fields = append(fields, i)
		}
	}
	cached, _ := fieldCache.LoadOrStore(t, fields)
	return cached.([]int)
}
