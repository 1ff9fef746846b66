package game

import (
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"github.com/playmatatu/poolsim/internal/geometry"
	"github.com/playmatatu/poolsim/internal/physics"
)

// maxPlacementAttempts bounds the rejection sampler for a single ball before the whole
// layout is redrawn.
const maxPlacementAttempts = 5000

// ErrTableClosed is returned when racking a table after Close.
var ErrTableClosed = errors.New("table is closed")

// Table owns the physics world and every ball on it.
// It is not safe for concurrent use.
type Table struct {
	cfg      Config
	world    *physics.World
	balls    []Ball
	cushions []*physics.Body
	rng      *rand.Rand

	shot ShotLog

	closed bool
}

// NewTable validates cfg and builds an empty table with its cushions in place.
// Call Reset to rack the balls.
func NewTable(cfg Config) (*Table, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid table config")
	}
	cfg = cfg.clone()

	t := &Table{
		cfg:   cfg,
		world: physics.NewWorld(physics.DefaultOptions()),
		balls: make([]Ball, cfg.NumBalls),
		rng:   rand.New(rand.NewSource(1)),
	}

	for _, seg := range cfg.Cushions {
		t.cushions = append(t.cushions, t.world.AddSegment(seg.A, seg.B, cfg.CushionRestitution, physics.TagCushion))
	}

	for i := range t.balls {
		t.balls[i] = t.emptySlot(i)
	}

	t.registerObservers()
	return t, nil
}

// Config returns a copy of the table configuration.
func (t *Table) Config() Config {
	return t.cfg.clone()
}

// Seed reseeds the table's random source.
func (t *Table) Seed(seed int64) {
	t.rng = rand.New(rand.NewSource(seed))
}

// Reset removes all balls and racks n of them at random, non-overlapping positions.
// A closed table stays empty.
func (t *Table) Reset() {
	if t.closed {
		return
	}
	t.clearBalls()

	for {
		if t.rackRandom() {
			break
		}
		// jammed: start over with a fresh draw
		t.clearBalls()
	}
	t.shot = ShotLog{FirstContact: -1}
}

// ResetLayout racks the balls at fixed positions; positions[0] is the cue ball.
func (t *Table) ResetLayout(positions []mgl64.Vec2) error {
	if t.closed {
		return ErrTableClosed
	}
	if len(positions) != t.cfg.NumBalls {
		return errors.Errorf("layout has %d positions, table has %d balls", len(positions), t.cfg.NumBalls)
	}
	for i, p := range positions {
		if !geometry.PointInField(p, t.cfg.Field) {
			return errors.Errorf("ball %d at %v is outside the field", i, p)
		}
		for j := 0; j < i; j++ {
			if p.Sub(positions[j]).Len() < 2*t.cfg.BallRadius {
				return errors.Errorf("balls %d and %d overlap", j, i)
			}
		}
	}

	t.clearBalls()
	for i, p := range positions {
		t.spawn(i, p)
	}
	t.shot = ShotLog{FirstContact: -1}
	return nil
}

// Close removes every live body from the physics world. The table stays usable as an
// empty, finished table: shots strike nothing and observations carry only sentinels.
func (t *Table) Close() {
	if t.closed {
		return
	}
	t.closed = true
	t.clearBalls()
	for _, c := range t.cushions {
		t.world.Remove(c)
	}
	t.cushions = nil
	t.world.ClearHandlers()
}

// Closed reports whether Close has been called.
func (t *Table) Closed() bool {
	return t.closed
}

// Balls returns a copy of every ball slot.
func (t *Table) Balls() []Ball {
	out := make([]Ball, len(t.balls))
	for i := range t.balls {
		t.balls[i].sync()
		out[i] = t.balls[i]
		out[i].body = nil
	}
	return out
}

// Ball returns a copy of one slot.
func (t *Table) Ball(slot int) (Ball, bool) {
	if slot < 0 || slot >= len(t.balls) {
		return Ball{}, false
	}
	t.balls[slot].sync()
	b := t.balls[slot]
	b.body = nil
	return b, true
}

// Cue returns a copy of the cue ball.
func (t *Table) Cue() Ball {
	b, _ := t.Ball(0)
	return b
}

// PlaceBall moves a live ball to p and stops it.
func (t *Table) PlaceBall(slot int, p mgl64.Vec2) error {
	if slot < 0 || slot >= len(t.balls) {
		return errors.Errorf("no ball in slot %d", slot)
	}
	b := &t.balls[slot]
	if !b.Live() {
		return errors.Errorf("ball %d is not on the table", slot)
	}
	b.body.SetPosition(p)
	b.body.SetVelocity(mgl64.Vec2{})
	b.body.SetAngularVelocity(0)
	b.sync()
	return nil
}

// LiveObjectBalls counts object balls still on the table.
func (t *Table) LiveObjectBalls() int {
	n := 0
	for i := 1; i < len(t.balls); i++ {
		if !t.balls[i].Pocketed {
			n++
		}
	}
	return n
}

// Done reports whether every object ball has been pocketed.
func (t *Table) Done() bool {
	if t.closed {
		return true
	}
	for i := 1; i < len(t.balls); i++ {
		if !t.balls[i].Pocketed {
			return false
		}
	}
	return true
}

func (t *Table) emptySlot(slot int) Ball {
	role := RoleObject
	color := ColorWhite
	if slot == 0 {
		role = RoleCue
		color = ColorRed
	}
	return Ball{
		Slot:     slot,
		Role:     role,
		Color:    color,
		Position: OffTable,
		Radius:   t.cfg.BallRadius,
	}
}

func (t *Table) spawn(slot int, p mgl64.Vec2) {
	b := t.emptySlot(slot)
	b.Position = p
	b.body = t.world.AddCircle(physics.CircleDef{
		Position:    p,
		Radius:      t.cfg.BallRadius,
		Mass:        t.cfg.BallMass,
		Restitution: t.cfg.BallRestitution,
		Tag:         roleTag(b.Role),
		Slot:        slot,
	})
	t.balls[slot] = b
}

func (t *Table) clearBalls() {
	for i := range t.balls {
		t.world.Remove(t.balls[i].body)
		t.balls[i] = t.emptySlot(i)
	}
}

// rackRandom places every slot at a random free spot. It reports false if the
// sampler jammed.
func (t *Table) rackRandom() bool {
	for i := range t.balls {
		p, ok := t.randomFreePosition()
		if !ok {
			return false
		}
		t.spawn(i, p)
	}
	return true
}

// randomFreePosition draws points inside the spawn area until one is at least a
// ball diameter from every live ball.
func (t *Table) randomFreePosition() (mgl64.Vec2, bool) {
	inset := t.cfg.BallRadius + t.cfg.SpawnMargin
	w, h := t.cfg.spawnArea()

	for attempt := 0; attempt < maxPlacementAttempts; attempt++ {
		p := mgl64.Vec2{inset + t.rng.Float64()*w, inset + t.rng.Float64()*h}
		if t.isFree(p) {
			return p, true
		}
	}
	return mgl64.Vec2{}, false
}

func (t *Table) isFree(p mgl64.Vec2) bool {
	for i := range t.balls {
		b := &t.balls[i]
		if !b.Live() {
			continue
		}
		if b.body.Position().Sub(p).Len() < 2*t.cfg.BallRadius {
			return false
		}
	}
	return true
}

// respawnCue removes the cue body and recreates it at a random free spot.
func (t *Table) respawnCue() {
	t.world.Remove(t.balls[0].body)
	t.balls[0] = t.emptySlot(0)

	p, ok := t.randomFreePosition()
	if !ok {
		// the table is never full enough for this in practice; fall back to the first
		// free point on a coarse grid
		p = t.gridFreePosition()
	}
	t.spawn(0, p)
}

func (t *Table) gridFreePosition() mgl64.Vec2 {
	inset := t.cfg.BallRadius + t.cfg.SpawnMargin
	step := 2 * t.cfg.BallRadius
	for y := inset; y <= t.cfg.Height-inset; y += step {
		for x := inset; x <= t.cfg.Width-inset; x += step {
			p := mgl64.Vec2{x, y}
			if t.isFree(p) {
				return p
			}
		}
	}
	return mgl64.Vec2{t.cfg.Width / 2, t.cfg.Height / 2}
}

// pocketObject parks an object ball off the table and removes it from the world for good.
func (t *Table) pocketObject(slot int) {
	b := &t.balls[slot]
	t.world.Remove(b.body)
	b.body = nil
	b.Pocketed = true
	b.Position = OffTable
	b.Velocity = mgl64.Vec2{}
}
