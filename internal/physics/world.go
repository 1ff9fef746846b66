// Package physics wraps a box2d world behind the small set of primitives the table needs:
// circular dynamic bodies, static segment colliders, centre impulses, fixed-step integration
// and begin-collision callbacks keyed by collision tags.
//
// All coordinates crossing this package boundary are in table units (pixels); the world itself
// runs in metres so box2d's tolerances and per-step translation limits stay meaningful.
package physics

import (
	"math"

	"github.com/ByteArena/box2d"
	"github.com/go-gl/mathgl/mgl64"
)

// Tag identifies what kind of object a body is, for collision callbacks.
type Tag int

const (
	TagNone Tag = iota
	TagCue
	TagObject
	TagCushion
)

func (t Tag) String() string {
	switch t {
	case TagCue:
		return "cue"
	case TagObject:
		return "object"
	case TagCushion:
		return "cushion"
	}
	return "none"
}

// BeginFunc is invoked when two tagged bodies start touching.
// a carries the first tag of the registration, b the second.
type BeginFunc func(a, b *Body)

// Options configures a World.
type Options struct {
	PixelsPerMeter     float64
	VelocityIterations int
	PositionIterations int
}

// DefaultOptions matches the box2d testbed iteration counts.
func DefaultOptions() Options {
	return Options{
		PixelsPerMeter:     100,
		VelocityIterations: 8,
		PositionIterations: 3,
	}
}

type tagPair struct {
	a, b Tag
}

type handler struct {
	first Tag
	fn    BeginFunc
}

// World is a zero-gravity rigid body world. It is not safe for concurrent use;
// each table owns its own World.
type World struct {
	world    *box2d.B2World
	opts     Options
	handlers map[tagPair][]handler
	bodies   map[*box2d.B2Body]*Body
}

// NewWorld creates an empty world with zero gravity.
func NewWorld(opts Options) *World {
	if opts.PixelsPerMeter <= 0 {
		opts.PixelsPerMeter = DefaultOptions().PixelsPerMeter
	}
	if opts.VelocityIterations <= 0 {
		opts.VelocityIterations = DefaultOptions().VelocityIterations
	}
	if opts.PositionIterations <= 0 {
		opts.PositionIterations = DefaultOptions().PositionIterations
	}

	gravity := box2d.MakeB2Vec2(0.0, 0.0) // top-down table, no gravity
	world := box2d.MakeB2World(gravity)

	w := &World{
		world:    &world,
		opts:     opts,
		handlers: make(map[tagPair][]handler),
		bodies:   make(map[*box2d.B2Body]*Body),
	}
	w.world.SetContactListener(newContactListener(w))
	return w
}

// CircleDef describes a dynamic circular body.
type CircleDef struct {
	Position    mgl64.Vec2
	Radius      float64
	Mass        float64
	Restitution float64
	Tag         Tag
	Slot        int
}

// AddCircle creates a dynamic disk. Density is chosen so the body mass equals def.Mass;
// box2d derives the disk moment of inertia from the fixture.
func (w *World) AddCircle(def CircleDef) *Body {
	bodydef := box2d.MakeB2BodyDef()
	bodydef.Type = box2d.B2BodyType.B2_dynamicBody
	bodydef.Position = w.toWorld(def.Position)
	bodydef.AllowSleep = false

	b2body := w.world.CreateBody(&bodydef)

	radius := def.Radius / w.opts.PixelsPerMeter
	shape := box2d.MakeB2CircleShape()
	shape.SetRadius(radius)

	fixturedef := box2d.MakeB2FixtureDef()
	fixturedef.Shape = &shape
	fixturedef.Density = def.Mass / (math.Pi * radius * radius)
	fixturedef.Friction = 0 // no spin transfer between balls
	fixturedef.Restitution = def.Restitution
	b2body.CreateFixtureFromDef(&fixturedef)
	b2body.SetBullet(true)

	body := &Body{
		body:        b2body,
		world:       w,
		tag:         def.Tag,
		slot:        def.Slot,
		restitution: def.Restitution,
	}
	b2body.SetUserData(body)
	w.bodies[b2body] = body
	return body
}

// AddSegment creates a static line-segment collider between a and b.
func (w *World) AddSegment(a, b mgl64.Vec2, restitution float64, tag Tag) *Body {
	bodydef := box2d.MakeB2BodyDef()
	bodydef.Type = box2d.B2BodyType.B2_staticBody
	b2body := w.world.CreateBody(&bodydef)

	vertices := []box2d.B2Vec2{w.toWorld(a), w.toWorld(b)}
	shape := box2d.MakeB2ChainShape()
	shape.CreateChain(vertices, len(vertices))

	fixturedef := box2d.MakeB2FixtureDef()
	fixturedef.Shape = &shape
	fixturedef.Density = 0
	fixturedef.Friction = 0
	fixturedef.Restitution = restitution
	b2body.CreateFixtureFromDef(&fixturedef)

	body := &Body{
		body:        b2body,
		world:       w,
		tag:         tag,
		slot:        -1,
		restitution: restitution,
		static:      true,
	}
	b2body.SetUserData(body)
	w.bodies[b2body] = body
	return body
}

// Remove destroys the body. Removing an already removed body is a no-op.
func (w *World) Remove(body *Body) {
	if body == nil || body.body == nil {
		return
	}
	delete(w.bodies, body.body)
	w.world.DestroyBody(body.body)
	body.body = nil
}

// Clear destroys every body in the world.
func (w *World) Clear() {
	for _, body := range w.bodies {
		w.Remove(body)
	}
}

// BodyCount returns the number of live bodies, static ones included.
func (w *World) BodyCount() int {
	return len(w.bodies)
}

// Step advances the simulation by dt seconds. Begin-collision callbacks run inside Step.
func (w *World) Step(dt float64) {
	w.world.Step(dt, w.opts.VelocityIterations, w.opts.PositionIterations)
}

// OnBegin registers fn for contacts between a body tagged a and one tagged b.
// The pair is unordered; fn always receives the a-tagged body first.
func (w *World) OnBegin(a, b Tag, fn BeginFunc) {
	key := orderedPair(a, b)
	w.handlers[key] = append(w.handlers[key], handler{first: a, fn: fn})
}

// ClearHandlers drops all registered callbacks.
func (w *World) ClearHandlers() {
	w.handlers = make(map[tagPair][]handler)
}

func (w *World) dispatchBegin(a, b *Body) {
	for _, h := range w.handlers[orderedPair(a.tag, b.tag)] {
		if h.first == a.tag {
			h.fn(a, b)
		} else {
			h.fn(b, a)
		}
	}
}

func orderedPair(a, b Tag) tagPair {
	if a > b {
		a, b = b, a
	}
	return tagPair{a, b}
}

func (w *World) toWorld(v mgl64.Vec2) box2d.B2Vec2 {
	return box2d.MakeB2Vec2(v.X()/w.opts.PixelsPerMeter, v.Y()/w.opts.PixelsPerMeter)
}

func (w *World) fromWorld(v box2d.B2Vec2) mgl64.Vec2 {
	return mgl64.Vec2{v.X * w.opts.PixelsPerMeter, v.Y * w.opts.PixelsPerMeter}
}
