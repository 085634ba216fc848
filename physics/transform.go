// Package physics holds the transform value types and the actor components
// replicated between server and clients. Simulation is not part of mmoss.
package physics

import (
	"fmt"

	"github.com/plus3/mmoss/wire"
)

type Vec3 struct {
	X, Y, Z float32
}

type Quat struct {
	X, Y, Z, W float32
}

// IdentityQuat is the rotation that leaves vectors unchanged
var IdentityQuat = Quat{W: 1}

type Transform struct {
	Translation Vec3
	Rotation    Quat
}

// IdentityTransform is positioned at the origin with no rotation
func IdentityTransform() Transform {
	return Transform{Rotation: IdentityQuat}
}

func (v Vec3) Encode(enc *wire.Encoder) {
	enc.WriteF32(v.X)
	enc.WriteF32(v.Y)
	enc.WriteF32(v.Z)
}

func (v *Vec3) Decode(dec *wire.Decoder) error {
	var err error
	for _, f := range []*float32{&v.X, &v.Y, &v.Z} {
		if *f, err = dec.ReadF32(); err != nil {
			return fmt.Errorf("vec3: %w", err)
		}
	}
	return nil
}

func (q Quat) Encode(enc *wire.Encoder) {
	enc.WriteF32(q.X)
	enc.WriteF32(q.Y)
	enc.WriteF32(q.Z)
	enc.WriteF32(q.W)
}

func (q *Quat) Decode(dec *wire.Decoder) error {
	var err error
	for _, f := range []*float32{&q.X, &q.Y, &q.Z, &q.W} {
		if *f, err = dec.ReadF32(); err != nil {
			return fmt.Errorf("quat: %w", err)
		}
	}
	return nil
}

func (t Transform) Encode(enc *wire.Encoder) {
	t.Translation.Encode(enc)
	t.Rotation.Encode(enc)
}

func (t *Transform) Decode(dec *wire.Decoder) error {
	var next Transform
	if err := next.Translation.Decode(dec); err != nil {
		return err
	}
	if err := next.Rotation.Decode(dec); err != nil {
		return err
	}
	*t = next
	return nil
}
