package ecs

// Entity identifies a spawned entity. The lower 32 bits hold the slot index and
// the upper 32 bits the slot generation. An Entity keeps its value while
// components are added or removed, and a deleted Entity never resolves again
// even after its slot is reused. The zero Entity is never handed out.
type Entity uint64

// NewEntity packs a slot index and generation into an Entity
func NewEntity(index uint32, generation uint32) Entity {
	return Entity(uint64(generation)<<32 | uint64(index))
}

// Index extracts the slot index from the entity
func (e Entity) Index() uint32 {
	return uint32(e & 0xFFFFFFFF)
}

// Generation extracts the slot generation from the entity
func (e Entity) Generation() uint32 {
	return uint32(e >> 32)
}

// location is where an entity's components currently live
type location struct {
	archetype *Archetype
	row       int
}
