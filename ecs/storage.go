package ecs

import (
	"errors"
	"iter"
	"reflect"
	"sort"

	"github.com/kamstrup/intmap"
)

var (
	ErrEntityNotFound    = errors.New("ecs: entity not found")
	ErrComponentNotFound = errors.New("ecs: component not found")
)

// Storage is the main ECS storage interface
type Storage struct {
	archetypes  map[uint32]*Archetype
	registry    *ComponentRegistry
	locations   *intmap.Map[uint32, location]
	generations []uint32
	freeIndices []uint32
}

// NewStorage creates a new ECS storage system with the given component registry
func NewStorage(registry *ComponentRegistry) *Storage {
	return &Storage{
		archetypes: make(map[uint32]*Archetype),
		registry:   registry,
		locations:  intmap.New[uint32, location](256),
	}
}

// Registry returns the component registry backing this storage
func (s *Storage) Registry() *ComponentRegistry {
	return s.registry
}

// Spawn creates a new entity with the provided components. Components may be
// passed by value or by pointer; the storage keeps its own copy.
func (s *Storage) Spawn(components ...any) Entity {
	types := extractComponentTypes(components)
	archetype := s.archetypeFor(types)

	entity := s.allocate()
	row := archetype.insert(entity, components)
	s.locations.Put(entity.Index(), location{archetype: archetype, row: row})
	return entity
}

func (s *Storage) allocate() Entity {
	if n := len(s.freeIndices); n > 0 {
		index := s.freeIndices[n-1]
		s.freeIndices = s.freeIndices[:n-1]
		return NewEntity(index, s.generations[index])
	}
	index := uint32(len(s.generations))
	s.generations = append(s.generations, 1)
	return NewEntity(index, 1)
}

func (s *Storage) locate(entity Entity) (location, bool) {
	index := entity.Index()
	if entity == 0 || int(index) >= len(s.generations) || s.generations[index] != entity.Generation() {
		return location{}, false
	}
	return s.locations.Get(index)
}

// Alive reports whether the entity exists in this storage
func (s *Storage) Alive(entity Entity) bool {
	_, ok := s.locate(entity)
	return ok
}

// Delete removes all data related to the entity. It returns false if the
// entity was not alive.
func (s *Storage) Delete(entity Entity) bool {
	loc, ok := s.locate(entity)
	if !ok {
		return false
	}

	loc.archetype.remove(loc.row)
	index := entity.Index()
	s.locations.Del(index)
	s.generations[index]++
	if s.generations[index] == 0 {
		s.generations[index] = 1
	}
	s.freeIndices = append(s.freeIndices, index)
	return true
}

// AddComponent attaches a component to an entity, moving it to the matching
// archetype. If the entity already has a component of the same type its value
// is replaced in place.
func (s *Storage) AddComponent(entity Entity, component any) error {
	loc, ok := s.locate(entity)
	if !ok {
		return ErrEntityNotFound
	}

	compType := validateComponentType(component)
	oldArchetype := loc.archetype
	if idx := oldArchetype.columnIndex(compType); idx >= 0 {
		oldArchetype.columns[idx].put(loc.row, component)
		return nil
	}

	newTypes := make([]reflect.Type, 0, len(oldArchetype.types)+1)
	newTypes = append(newTypes, oldArchetype.types...)
	newTypes = append(newTypes, compType)
	sort.Sort(byTypeName(newTypes))

	components := make([]any, 0, len(newTypes))
	components = append(components, component)
	for _, typ := range oldArchetype.types {
		components = append(components, oldArchetype.component(loc.row, typ))
	}

	s.move(entity, loc, s.archetypeFor(newTypes), components)
	return nil
}

// RemoveComponent detaches the component of the given type from an entity.
// An entity left without components stays alive.
func (s *Storage) RemoveComponent(entity Entity, compType reflect.Type) error {
	loc, ok := s.locate(entity)
	if !ok {
		return ErrEntityNotFound
	}

	oldArchetype := loc.archetype
	if !oldArchetype.HasComponent(compType) {
		return ErrComponentNotFound
	}

	newTypes := make([]reflect.Type, 0, len(oldArchetype.types)-1)
	components := make([]any, 0, len(oldArchetype.types)-1)
	for _, typ := range oldArchetype.types {
		if typ != compType {
			newTypes = append(newTypes, typ)
			components = append(components, oldArchetype.component(loc.row, typ))
		}
	}

	s.move(entity, loc, s.archetypeFor(newTypes), components)
	return nil
}

// move copies components into the new archetype before releasing the old row,
// since the component pointers reference the old row's memory.
func (s *Storage) move(entity Entity, from location, to *Archetype, components []any) {
	row := to.insert(entity, components)
	from.archetype.remove(from.row)
	s.locations.Put(entity.Index(), location{archetype: to, row: row})
}

// GetComponent returns a pointer to the component of the given type for the
// entity, or nil if the entity is not alive or lacks the component
func (s *Storage) GetComponent(entity Entity, compType reflect.Type) any {
	loc, ok := s.locate(entity)
	if !ok {
		return nil
	}
	return loc.archetype.component(loc.row, compType)
}

// HasComponent checks if an entity has a specific component type
func (s *Storage) HasComponent(entity Entity, compType reflect.Type) bool {
	loc, ok := s.locate(entity)
	if !ok {
		return false
	}
	return loc.archetype.HasComponent(compType)
}

// Components returns an iterator over pointers to every component of the entity
func (s *Storage) Components(entity Entity) iter.Seq[any] {
	return func(yield func(any) bool) {
		loc, ok := s.locate(entity)
		if !ok {
			return
		}
		for _, col := range loc.archetype.columns {
			if !yield(col.get(loc.row)) {
				return
			}
		}
	}
}

// Entities returns an iterator over every live entity
func (s *Storage) Entities() iter.Seq[Entity] {
	return func(yield func(Entity) bool) {
		for _, archetype := range s.archetypes {
			for entity := range archetype.Iter() {
				if !yield(entity) {
					return
				}
			}
		}
	}
}

// Archetypes returns an iterator over every archetype created so far
func (s *Storage) Archetypes() iter.Seq[*Archetype] {
	return func(yield func(*Archetype) bool) {
		for _, archetype := range s.archetypes {
			if !yield(archetype) {
				return
			}
		}
	}
}

// Len returns the number of live entities
func (s *Storage) Len() int {
	return s.locations.Len()
}

// GetArchetypeByTypes returns an archetype storage (if one exists) based on reflect.Type
func (s *Storage) GetArchetypeByTypes(types []reflect.Type) *Archetype {
	sorted := append([]reflect.Type(nil), types...)
	sort.Sort(byTypeName(sorted))
	return s.archetypes[hashTypes(sorted)]
}

func (s *Storage) archetypeFor(types []reflect.Type) *Archetype {
	archetypeId := hashTypes(types)
	archetype, exists := s.archetypes[archetypeId]
	if !exists {
		archetype = newArchetype(archetypeId, types, s.registry)
		s.archetypes[archetypeId] = archetype
	}
	return archetype
}

// extractComponentTypes extracts and sorts component types from a slice of components
func extractComponentTypes(components []any) []reflect.Type {
	types := make([]reflect.Type, 0, len(components))
	for _, comp := range components {
		compType := validateComponentType(comp)
		for _, existing := range types {
			if existing == compType {
				panic("duplicate component type " + compType.String())
			}
		}
		types = append(types, compType)
	}
	sort.Sort(byTypeName(types))
	return types
}

func validateComponentType(component any) reflect.Type {
	compType := componentType(component)
	if compType == nil {
		panic("component cannot be nil")
	}

	// Components can be structs or primitives (int, string, etc.)
	// But not pointers, maps, channels, or functions (those aren't value types)
	switch compType.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Chan, reflect.Func:
		panic("components cannot be pointers, maps, channels, or functions")
	}
	return compType
}

type ComponentReader interface {
	GetComponent(Entity, reflect.Type) any
}

// Get returns a pointer to the entity's component of type T, or nil
func Get[T any](reader ComponentReader, entity Entity) *T {
	comp, _ := reader.GetComponent(entity, reflect.TypeFor[T]()).(*T)
	return comp
}
