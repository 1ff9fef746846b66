package physics

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func newBall(w *World, x, y float64, tag Tag, slot int) *Body {
	return w.AddCircle(CircleDef{
		Position:    mgl64.Vec2{x, y},
		Radius:      15,
		Mass:        1,
		Restitution: 0.9,
		Tag:         tag,
		Slot:        slot,
	})
}

func TestCircleMassMatchesDefinition(t *testing.T) {
	w := NewWorld(DefaultOptions())
	b := newBall(w, 100, 100, TagCue, 0)
	if math.Abs(b.Mass()-1) > 1e-6 {
		t.Errorf("mass = %f, want 1", b.Mass())
	}
}

func TestPositionRoundTripsThroughScale(t *testing.T) {
	w := NewWorld(DefaultOptions())
	b := newBall(w, 321, 123, TagObject, 1)
	p := b.Position()
	if math.Abs(p.X()-321) > 1e-6 || math.Abs(p.Y()-123) > 1e-6 {
		t.Errorf("position = %v, want (321,123)", p)
	}
	b.SetPosition(mgl64.Vec2{50, 60})
	p = b.Position()
	if math.Abs(p.X()-50) > 1e-6 || math.Abs(p.Y()-60) > 1e-6 {
		t.Errorf("position after set = %v, want (50,60)", p)
	}
}

func TestImpulseSetsVelocity(t *testing.T) {
	w := NewWorld(DefaultOptions())
	b := newBall(w, 100, 100, TagCue, 0)
	b.ApplyImpulse(mgl64.Vec2{500, 0})

	v := b.Velocity()
	if math.Abs(v.X()-500) > 1e-6 || math.Abs(v.Y()) > 1e-6 {
		t.Errorf("velocity = %v, want (500,0) for unit mass", v)
	}

	w.Step(1.0 / 60)
	if b.Position().X() <= 100 {
		t.Errorf("ball did not move right: x=%f", b.Position().X())
	}
}

func TestBeginCallbackOrderAndTags(t *testing.T) {
	w := NewWorld(DefaultOptions())
	cue := newBall(w, 100, 100, TagCue, 0)
	obj := newBall(w, 160, 100, TagObject, 1)

	hits := 0
	w.OnBegin(TagObject, TagCue, func(a, b *Body) {
		if a.Tag() != TagObject || b.Tag() != TagCue {
			t.Errorf("callback got (%s,%s), want (object,cue)", a.Tag(), b.Tag())
		}
		hits++
	})

	cue.SetVelocity(mgl64.Vec2{600, 0})
	for i := 0; i < 60 && hits == 0; i++ {
		w.Step(1.0 / 60)
	}

	if hits == 0 {
		t.Fatal("expected a cue/object begin contact")
	}
	if obj.Velocity().X() <= 0 {
		t.Errorf("object ball should move right after impact: v=%v", obj.Velocity())
	}
}

func TestCushionBouncesBall(t *testing.T) {
	w := NewWorld(DefaultOptions())
	w.AddSegment(mgl64.Vec2{300, 0}, mgl64.Vec2{300, 400}, 0.7, TagCushion)
	b := newBall(w, 200, 200, TagCue, 0)

	cushionHits := 0
	w.OnBegin(TagCue, TagCushion, func(a, c *Body) {
		cushionHits++
	})

	b.SetVelocity(mgl64.Vec2{800, 0})
	for i := 0; i < 120; i++ {
		w.Step(1.0 / 60)
	}

	if cushionHits == 0 {
		t.Error("expected at least one cushion contact")
	}
	if b.Velocity().X() >= 0 {
		t.Errorf("ball should be travelling back left: v=%v", b.Velocity())
	}
	if b.Position().X() > 300 {
		t.Errorf("ball passed through the cushion: x=%f", b.Position().X())
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	w := NewWorld(DefaultOptions())
	b := newBall(w, 100, 100, TagObject, 1)
	if w.BodyCount() != 1 {
		t.Fatalf("body count = %d, want 1", w.BodyCount())
	}
	w.Remove(b)
	w.Remove(b)
	if !b.Removed() {
		t.Error("body should report removed")
	}
	if w.BodyCount() != 0 {
		t.Errorf("body count = %d, want 0", w.BodyCount())
	}
	// Setters on a removed body are no-ops
	b.SetVelocity(mgl64.Vec2{1, 1})
	if b.Speed() != 0 {
		t.Errorf("removed body speed = %f, want 0", b.Speed())
	}
}

func TestWorldsAreIndependent(t *testing.T) {
	w1 := NewWorld(DefaultOptions())
	w2 := NewWorld(DefaultOptions())
	a := newBall(w1, 100, 100, TagCue, 0)
	b := newBall(w2, 100, 100, TagCue, 0)

	a.SetVelocity(mgl64.Vec2{100, 0})
	w1.Step(1.0 / 60)

	if b.Position().X() != 100 {
		t.Errorf("stepping one world moved a body in another: x=%f", b.Position().X())
	}
}
