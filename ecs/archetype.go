package ecs

import (
	"hash/fnv"
	"iter"
	"reflect"
	"slices"
)

type byTypeName []reflect.Type

func (a byTypeName) Len() int      { return len(a) }
func (a byTypeName) Swap(i, j int) { a[i], a[j] = a[j], a[i] }
func (a byTypeName) Less(i, j int) bool {
	if a[i].String() != a[j].String() {
		return a[i].String() < a[j].String()
	}
	return a[i].PkgPath() < a[j].PkgPath()
}

// Archetype represents a unique combination of component types
type Archetype struct {
	id       uint32
	types    []reflect.Type
	columns  []column
	entities []Entity
	free     []int
	count    int
}

// newArchetype creates a new archetype with the given ID and sorted component types
func newArchetype(id uint32, types []reflect.Type, registry *ComponentRegistry) *Archetype {
	a := &Archetype{
		id:      id,
		types:   types,
		columns: make([]column, len(types)),
	}

	for idx, typ := range types {
		factory := registry.getFactory(typ)
		if factory == nil {
			panic("component type " + typ.String() + " not registered")
		}
		a.columns[idx] = factory()
	}

	return a
}

// insert places the entity's components into a free row and returns it.
// components must hold exactly one value (or pointer) per archetype type.
func (a *Archetype) insert(entity Entity, components []any) int {
	var row int
	if len(a.free) > 0 {
		row = a.free[len(a.free)-1]
		a.free = a.free[:len(a.free)-1]
		a.entities[row] = entity
	} else {
		row = len(a.entities)
		a.entities = append(a.entities, entity)
	}

	for _, comp := range components {
		idx := a.columnIndex(componentType(comp))
		if idx < 0 || !a.columns[idx].put(row, comp) {
			panic("component " + componentType(comp).String() + " does not belong to archetype")
		}
	}
	a.count++
	return row
}

// remove clears a row and makes it available for reuse
func (a *Archetype) remove(row int) {
	if row < 0 || row >= len(a.entities) || a.entities[row] == 0 {
		return
	}
	for _, col := range a.columns {
		col.clear(row)
	}
	a.entities[row] = 0
	a.free = append(a.free, row)
	a.count--
}

// component returns a pointer to the component of the given type stored in row
func (a *Archetype) component(row int, compType reflect.Type) any {
	idx := a.columnIndex(compType)
	if idx < 0 {
		return nil
	}
	return a.columns[idx].get(row)
}

func (a *Archetype) columnIndex(compType reflect.Type) int {
	for i, typ := range a.types {
		if typ == compType {
			return i
		}
	}
	return -1
}

// HasComponent checks if this archetype has the given component type
func (a *Archetype) HasComponent(compType reflect.Type) bool {
	return slices.Contains(a.types, compType)
}

// ID returns the archetype's unique identifier
func (a *Archetype) ID() uint32 {
	return a.id
}

// Types returns the sorted component types for this archetype
func (a *Archetype) Types() []reflect.Type {
	return a.types
}

// Len returns the number of live entities in this archetype
func (a *Archetype) Len() int {
	return a.count
}

// Iter returns an iterator over the live entities in this archetype
func (a *Archetype) Iter() iter.Seq[Entity] {
	return func(yield func(Entity) bool) {
		for _, entity := range a.entities {
			if entity == 0 {
				continue
			}
			if !yield(entity) {
				return
			}
		}
	}
}

func (a *Archetype) rows() iter.Seq2[int, Entity] {
	return func(yield func(int, Entity) bool) {
		for row, entity := range a.entities {
			if entity == 0 {
				continue
			}
			if !yield(row, entity) {
				return
			}
		}
	}
}

// hashTypes generates an archetype id for a sorted slice of types. The hash
// covers package path and name so it is stable across runs.
func hashTypes(types []reflect.Type) uint32 {
	h := fnv.New32a()
	for _, t := range types {
		h.Write([]byte(t.PkgPath()))
		h.Write([]byte{0})
		h.Write([]byte(t.String()))
		h.Write([]byte{0})
	}
	return h.Sum32()
}

func componentType(component any) reflect.Type {
	compType := reflect.TypeOf(component)
	if compType != nil && compType.Kind() == reflect.Ptr {
		compType = compType.Elem()
	}
	return compType
}
