package physics

import (
	"github.com/ByteArena/box2d"
	"github.com/go-gl/mathgl/mgl64"
)

// Body is a handle on a box2d body. Once removed, getters return zero values
// and setters do nothing.
type Body struct {
	body        *box2d.B2Body
	world       *World
	tag         Tag
	slot        int
	restitution float64
	static      bool
}

func (b *Body) Tag() Tag {
	return b.tag
}

// Slot is the owner's index for this body, or -1 for static colliders.
func (b *Body) Slot() int {
	return b.slot
}

func (b *Body) Removed() bool {
	return b.body == nil
}

func (b *Body) Position() mgl64.Vec2 {
	if b.body == nil {
		return mgl64.Vec2{}
	}
	return b.world.fromWorld(b.body.GetPosition())
}

func (b *Body) SetPosition(p mgl64.Vec2) {
	if b.body == nil {
		return
	}
	b.body.SetTransform(b.world.toWorld(p), b.body.GetAngle())
}

// Velocity returns the linear velocity in table units per second.
func (b *Body) Velocity() mgl64.Vec2 {
	if b.body == nil {
		return mgl64.Vec2{}
	}
	return b.world.fromWorld(b.body.GetLinearVelocity())
}

func (b *Body) SetVelocity(v mgl64.Vec2) {
	if b.body == nil {
		return
	}
	b.body.SetLinearVelocity(b.world.toWorld(v))
}

// Speed is the magnitude of the linear velocity in table units per second.
func (b *Body) Speed() float64 {
	return b.Velocity().Len()
}

// ApplyImpulse applies a linear impulse (mass * table units / s) at the centre of mass.
func (b *Body) ApplyImpulse(impulse mgl64.Vec2) {
	if b.body == nil {
		return
	}
	b.body.ApplyLinearImpulse(b.world.toWorld(impulse), b.body.GetWorldCenter(), true)
}

func (b *Body) AngularVelocity() float64 {
	if b.body == nil {
		return 0
	}
	return b.body.GetAngularVelocity()
}

func (b *Body) SetAngularVelocity(omega float64) {
	if b.body == nil {
		return
	}
	b.body.SetAngularVelocity(omega)
}

func (b *Body) Mass() float64 {
	if b.body == nil {
		return 0
	}
	return b.body.GetMass()
}
