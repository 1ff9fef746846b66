package physics

import (
	"github.com/ByteArena/box2d"
)

type contactListener struct { /* implements box2d.B2ContactListenerInterface */
	world *World
}

func newContactListener(w *World) *contactListener {
	return &contactListener{world: w}
}

func bodiesOf(contact box2d.B2ContactInterface) (*Body, *Body, bool) {
	a, ok := contact.GetFixtureA().GetBody().GetUserData().(*Body)
	if !ok {
		return nil, nil, false
	}
	b, ok := contact.GetFixtureB().GetBody().GetUserData().(*Body)
	if !ok {
		return nil, nil, false
	}
	return a, b, true
}

// Called when two fixtures begin to touch.
func (l *contactListener) BeginContact(contact box2d.B2ContactInterface) { // contact has to be backed by a pointer
	a, b, ok := bodiesOf(contact)
	if !ok {
		return
	}
	l.world.dispatchBegin(a, b)
}

func (l *contactListener) EndContact(contact box2d.B2ContactInterface) {
}

// PreSolve picks the restitution for the contact: a static collider's value wins over the
// ball's, otherwise the dynamic bodies' lower value is used.
func (l *contactListener) PreSolve(contact box2d.B2ContactInterface, oldManifold box2d.B2Manifold) {
	a, b, ok := bodiesOf(contact)
	if !ok {
		return
	}
	switch {
	case a.static:
		contact.SetRestitution(a.restitution)
	case b.static:
		contact.SetRestitution(b.restitution)
	default:
		r := a.restitution
		if b.restitution < r {
			r = b.restitution
		}
		contact.SetRestitution(r)
	}
}

func (l *contactListener) PostSolve(contact box2d.B2ContactInterface, impulse *box2d.B2ContactImpulse) {
}
