package debugui

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/mmoss/ecs"
	"github.com/plus3/mmoss/replication"
)

type EntityRow struct {
	Entity         ecs.Entity
	SpawnId        replication.SpawnId
	Replicated     bool
	MobType        replication.MobType
	ArchetypeID    uint32
	ComponentTypes []string
}

const (
	entityColumn = iota
	spawnColumn
	mobColumn
	archetypeColumn
	componentsColumn
)

// EntityBrowser lists the entities of the inspected world in a paged table
type EntityBrowser struct {
	rows          []EntityRow
	sortColumn    int
	sortAscending bool

	filterText        string
	filterArchetypeId *uint32
	selected          ecs.Entity
	hasSelection      bool
	currentPage       int
	pageSize          int
}

func NewEntityBrowser(pageSize int) EntityBrowser {
	return EntityBrowser{
		sortColumn:    spawnColumn,
		sortAscending: true,
		pageSize:      max(pageSize, 1),
	}
}

// Selected returns the entity picked in the table, if any
func (eb *EntityBrowser) Selected() (ecs.Entity, bool) {
	return eb.selected, eb.hasSelection
}

func (eb *EntityBrowser) Render(source Source) {
	if !imgui.BeginV("Entities", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	eb.Refresh(source)

	imgui.InputTextWithHint("##search", "Search...", &eb.filterText, imgui.InputTextFlagsNone, nil)
	imgui.SameLine()
	if imgui.Button("Clear Filter") {
		eb.filterText = ""
		eb.filterArchetypeId = nil
		eb.currentPage = 0
	}

	rows := eb.Filtered()
	pages := max((len(rows)+eb.pageSize-1)/eb.pageSize, 1)
	eb.currentPage = min(eb.currentPage, pages-1)

	const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg | imgui.TableFlagsSortable | imgui.TableFlagsScrollY
	if imgui.BeginTableV("EntityTable", 5, tableFlags, imgui.NewVec2(0, 0), 0) {
		imgui.TableSetupColumn("Entity")
		imgui.TableSetupColumn("Spawn Id")
		imgui.TableSetupColumn("Mob Type")
		imgui.TableSetupColumn("Archetype")
		imgui.TableSetupColumn("Components")
		imgui.TableHeadersRow()

		sortSpecs := imgui.TableGetSortSpecs()
		if sortSpecs.SpecsDirty() && sortSpecs.SpecsCount() > 0 {
			spec := sortSpecs.Specs()
			eb.SortBy(int(spec.ColumnIndex()), spec.SortDirection() == imgui.SortDirectionAscending)
			sortSpecs.SetSpecsDirty(false)
			rows = eb.Filtered()
		}

		start := eb.currentPage * eb.pageSize
		end := min(start+eb.pageSize, len(rows))
		for _, row := range rows[start:end] {
			imgui.TableNextRow()

			imgui.TableNextColumn()
			label := fmt.Sprintf("%d:%d", row.Entity.Index(), row.Entity.Generation())
			if imgui.SelectableBoolV(label, eb.hasSelection && eb.selected == row.Entity, imgui.SelectableFlagsSpanAllColumns, imgui.NewVec2(0, 0)) {
				eb.selected = row.Entity
				eb.hasSelection = true
			}

			imgui.TableNextColumn()
			if row.Replicated {
				imgui.Text(fmt.Sprintf("%d", row.SpawnId))
			} else {
				imgui.Text("-")
			}

			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("%d", row.MobType))

			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("0x%X", row.ArchetypeID))

			imgui.TableNextColumn()
			imgui.Text(strings.Join(row.ComponentTypes, ", "))
		}

		imgui.EndTable()
	}

	if len(rows) > eb.pageSize {
		imgui.Text(fmt.Sprintf("Page %d / %d (%d entities)", eb.currentPage+1, pages, len(rows)))
		imgui.SameLine()
		if imgui.Button("Prev") && eb.currentPage > 0 {
			eb.currentPage--
		}
		imgui.SameLine()
		if imgui.Button("Next") && eb.currentPage < pages-1 {
			eb.currentPage++
		}
	} else {
		imgui.Text(fmt.Sprintf("Total: %d entities", len(rows)))
	}

	imgui.End()
}

// Refresh rebuilds the rows. Replicated components move entities between
// archetypes without changing the entity count, so nothing is cached.
func (eb *EntityBrowser) Refresh(source Source) {
	storage := source.Storage()
	eb.rows = eb.rows[:0]

	for archetype := range storage.Archetypes() {
		names := make([]string, len(archetype.Types()))
		for i, t := range archetype.Types() {
			names[i] = t.String()
		}

		for entity := range archetype.Iter() {
			row := EntityRow{
				Entity:         entity,
				ArchetypeID:    archetype.ID(),
				ComponentTypes: names,
			}
			row.SpawnId, row.Replicated = source.SpawnId(entity)
			if mob := ecs.Get[replication.Mob](storage, entity); mob != nil {
				row.MobType = mob.Type
			}
			eb.rows = append(eb.rows, row)
		}
	}

	if eb.hasSelection && !storage.Alive(eb.selected) {
		eb.hasSelection = false
	}
	eb.sort()
}

// SortBy orders rows by one of the table's columns
func (eb *EntityBrowser) SortBy(column int, ascending bool) {
	eb.sortColumn = column
	eb.sortAscending = ascending
	eb.sort()
}

func (eb *EntityBrowser) sort() {
	slices.SortStableFunc(eb.rows, func(a, b EntityRow) int {
		var c int
		switch eb.sortColumn {
		case spawnColumn:
			c = cmp.Compare(a.SpawnId, b.SpawnId)
		case mobColumn:
			c = cmp.Compare(a.MobType, b.MobType)
		case archetypeColumn:
			c = cmp.Compare(a.ArchetypeID, b.ArchetypeID)
		case componentsColumn:
			c = slices.Compare(a.ComponentTypes, b.ComponentTypes)
		}
		if c == 0 {
			c = cmp.Compare(a.Entity, b.Entity)
		}
		if !eb.sortAscending {
			return -c
		}
		return c
	})
}

// Filtered returns the rows matching the search text and archetype filter
func (eb *EntityBrowser) Filtered() []EntityRow {
	if eb.filterText == "" && eb.filterArchetypeId == nil {
		return eb.rows
	}

	needle := strings.ToLower(eb.filterText)
	filtered := make([]EntityRow, 0, len(eb.rows))
	for _, row := range eb.rows {
		if eb.filterArchetypeId != nil && row.ArchetypeID != *eb.filterArchetypeId {
			continue
		}
		if needle != "" && !row.matches(needle) {
			continue
		}
		filtered = append(filtered, row)
	}
	return filtered
}

// matches compares needle with the spawn id exactly and searches the
// component type names
func (r EntityRow) matches(needle string) bool {
	if r.Replicated && strconv.FormatUint(uint64(r.SpawnId), 10) == needle {
		return true
	}
	return strings.Contains(strings.ToLower(strings.Join(r.ComponentTypes, " ")), needle)
}

// SetFilter sets the search text and archetype filter; a nil archetype
// matches all
func (eb *EntityBrowser) SetFilter(text string, archetype *uint32) {
	eb.filterText = text
	eb.filterArchetypeId = archetype
	eb.currentPage = 0
}
