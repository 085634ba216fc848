package debugui

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/mmoss/ecs"
)

type ArchetypeRow struct {
	ID             uint32
	ComponentTypes []string
	EntityCount    int
}

// ArchetypeViewer lists archetypes with their entity counts. Clicking a row
// filters the entity browser to it.
type ArchetypeViewer struct {
	rows          []ArchetypeRow
	sortColumn    int
	sortAscending bool
	selected      *uint32
}

func NewArchetypeViewer() ArchetypeViewer {
	return ArchetypeViewer{sortColumn: 2}
}

func (av *ArchetypeViewer) Render(storage *ecs.Storage) *uint32 {
	if !imgui.BeginV("Archetypes", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return nil
	}
	defer imgui.End()

	av.Refresh(storage)

	maxEntities := 0
	for _, row := range av.rows {
		maxEntities = max(maxEntities, row.EntityCount)
	}

	var clicked *uint32
	const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg | imgui.TableFlagsSortable | imgui.TableFlagsScrollY
	if imgui.BeginTableV("ArchetypeTable", 3, tableFlags, imgui.NewVec2(0, 0), 0) {
		imgui.TableSetupColumn("Archetype")
		imgui.TableSetupColumn("Components")
		imgui.TableSetupColumn("Entities")
		imgui.TableHeadersRow()

		sortSpecs := imgui.TableGetSortSpecs()
		if sortSpecs.SpecsDirty() && sortSpecs.SpecsCount() > 0 {
			spec := sortSpecs.Specs()
			av.SortBy(int(spec.ColumnIndex()), spec.SortDirection() == imgui.SortDirectionAscending)
			sortSpecs.SetSpecsDirty(false)
		}

		for _, row := range av.rows {
			imgui.TableNextRow()

			imgui.TableNextColumn()
			isSelected := av.selected != nil && *av.selected == row.ID
			if imgui.SelectableBoolV(fmt.Sprintf("0x%X", row.ID), isSelected, imgui.SelectableFlagsSpanAllColumns, imgui.NewVec2(0, 0)) {
				id := row.ID
				clicked = &id
				av.selected = &id
			}

			imgui.TableNextColumn()
			imgui.Text(strings.Join(row.ComponentTypes, ", "))

			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("%d", row.EntityCount))

			if maxEntities > 0 {
				width := float32(row.EntityCount) / float32(maxEntities) * 80
				imgui.SameLine()
				pos := imgui.CursorScreenPos()
				color := imgui.ColorU32Vec4(imgui.NewVec4(0.2, 0.6, 0.8, 0.6))
				imgui.WindowDrawList().AddRectFilled(pos, imgui.NewVec2(pos.X+width, pos.Y+10), color)
			}
		}

		imgui.EndTable()
	}
	return clicked
}

// Refresh re-reads the archetypes and their entity counts
func (av *ArchetypeViewer) Refresh(storage *ecs.Storage) {
	av.rows = av.rows[:0]
	for archetype := range storage.Archetypes() {
		names := make([]string, len(archetype.Types()))
		for i, t := range archetype.Types() {
			names[i] = t.String()
		}
		av.rows = append(av.rows, ArchetypeRow{
			ID:             archetype.ID(),
			ComponentTypes: names,
			EntityCount:    archetype.Len(),
		})
	}
	av.sort()
}

func (av *ArchetypeViewer) Rows() []ArchetypeRow {
	return av.rows
}

func (av *ArchetypeViewer) SortBy(column int, ascending bool) {
	av.sortColumn = column
	av.sortAscending = ascending
	av.sort()
}

func (av *ArchetypeViewer) sort() {
	slices.SortStableFunc(av.rows, func(a, b ArchetypeRow) int {
		var c int
		switch av.sortColumn {
		case 0:
			c = cmp.Compare(a.ID, b.ID)
		case 1:
			c = slices.Compare(a.ComponentTypes, b.ComponentTypes)
		default:
			c = cmp.Compare(a.EntityCount, b.EntityCount)
		}
		if c == 0 {
			c = cmp.Compare(a.ID, b.ID)
		}
		if !av.sortAscending {
			return -c
		}
		return c
	})
}
