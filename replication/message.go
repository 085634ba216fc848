package replication

import (
	"fmt"

	"github.com/plus3/mmoss/wire"
)

const (
	spawnVariant        = 0
	updateVariant       = 1
	addComponentVariant = 2
)

// Message is one of Spawn, Update or AddComponent
type Message interface {
	variant() uint32
}

// Spawn announces a new entity of the given mob type
type Spawn struct {
	MobType MobType
	SpawnId SpawnId
}

// Update carries the serialized state of one replicated component
type Update struct {
	Id   Id
	Data []byte
}

// AddComponent attaches a replicated component to a previously spawned entity
type AddComponent struct {
	SpawnId       SpawnId
	ComponentType ComponentType
	Id            Id
	Data          []byte
}

func (Spawn) variant() uint32        { return spawnVariant }
func (Update) variant() uint32       { return updateVariant }
func (AddComponent) variant() uint32 { return addComponentVariant }

// ErrUnknownVariant is returned when decoding a message tag this version does
// not know
type ErrUnknownVariant struct {
	Variant uint32
}

func (e ErrUnknownVariant) Error() string {
	return fmt.Sprintf("replication: unknown message variant %d", e.Variant)
}

// EncodeMessage appends msg to enc
func EncodeMessage(enc *wire.Encoder, msg Message) error {
	switch m := msg.(type) {
	case Spawn:
		enc.WriteU32(spawnVariant)
		enc.WriteU32(uint32(m.MobType))
		enc.WriteU32(uint32(m.SpawnId))
	case Update:
		enc.WriteU32(updateVariant)
		enc.WriteU32(uint32(m.Id))
		enc.WriteBytes(m.Data)
	case AddComponent:
		enc.WriteU32(addComponentVariant)
		enc.WriteU32(uint32(m.SpawnId))
		enc.WriteU32(uint32(m.ComponentType))
		enc.WriteU32(uint32(m.Id))
		enc.WriteBytes(m.Data)
	default:
		return fmt.Errorf("replication: cannot encode %T", msg)
	}
	return nil
}

// DecodeMessage decodes exactly one message from data
func DecodeMessage(data []byte) (Message, error) {
	dec := wire.NewDecoder(data)

	variant, err := dec.ReadU32()
	if err != nil {
		return nil, fmt.Errorf("read variant: %w", err)
	}

	var msg Message
	switch variant {
	case spawnVariant:
		msg, err = decodeSpawn(dec)
	case updateVariant:
		msg, err = decodeUpdate(dec)
	case addComponentVariant:
		msg, err = decodeAddComponent(dec)
	default:
		return nil, ErrUnknownVariant{Variant: variant}
	}
	if err != nil {
		return nil, err
	}

	if err := dec.Finish(); err != nil {
		return nil, err
	}
	return msg, nil
}

func decodeSpawn(dec *wire.Decoder) (Spawn, error) {
	mobType, err := dec.ReadU32()
	if err != nil {
		return Spawn{}, fmt.Errorf("spawn mob type: %w", err)
	}
	spawnId, err := dec.ReadU32()
	if err != nil {
		return Spawn{}, fmt.Errorf("spawn id: %w", err)
	}
	return Spawn{MobType: MobType(mobType), SpawnId: SpawnId(spawnId)}, nil
}

func decodeUpdate(dec *wire.Decoder) (Update, error) {
	id, err := dec.ReadU32()
	if err != nil {
		return Update{}, fmt.Errorf("update id: %w", err)
	}
	data, err := dec.ReadBytes()
	if err != nil {
		return Update{}, fmt.Errorf("update data: %w", err)
	}
	return Update{Id: Id(id), Data: data}, nil
}

func decodeAddComponent(dec *wire.Decoder) (AddComponent, error) {
	spawnId, err := dec.ReadU32()
	if err != nil {
		return AddComponent{}, fmt.Errorf("add component spawn id: %w", err)
	}
	componentType, err := dec.ReadU32()
	if err != nil {
		return AddComponent{}, fmt.Errorf("add component type: %w", err)
	}
	id, err := dec.ReadU32()
	if err != nil {
		return AddComponent{}, fmt.Errorf("add component id: %w", err)
	}
	data, err := dec.ReadBytes()
	if err != nil {
		return AddComponent{}, fmt.Errorf("add component data: %w", err)
	}
	return AddComponent{
		SpawnId:       SpawnId(spawnId),
		ComponentType: ComponentType(componentType),
		Id:            Id(id),
		Data:          data,
	}, nil
}
