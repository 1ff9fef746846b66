package game

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/playmatatu/poolsim/internal/physics"
)

// Role distinguishes the cue ball from object balls.
type Role string

const (
	RoleCue    Role = "CUE"
	RoleObject Role = "OBJECT"
)

// Color is an RGB triple used by renderers.
type Color [3]uint8

var (
	ColorRed   = Color{255, 0, 0}
	ColorWhite = Color{255, 255, 255}
)

// Ball is one logical ball slot. Slot 0 is always the cue ball.
// A pocketed object ball keeps its slot, parked at OffTable with no physics body.
type Ball struct {
	Slot     int        `json:"slot"`
	Role     Role       `json:"role"`
	Color    Color      `json:"color"`
	Position mgl64.Vec2 `json:"position"`
	Velocity mgl64.Vec2 `json:"velocity"`
	Radius   float64    `json:"radius"`
	Pocketed bool       `json:"pocketed"`

	body *physics.Body
}

// Live reports whether the ball is on the table and simulated.
func (b *Ball) Live() bool {
	return !b.Pocketed && b.body != nil
}

// IsCue reports whether this is the cue ball.
func (b *Ball) IsCue() bool {
	return b.Role == RoleCue
}

// sync copies the body state into the logical record.
func (b *Ball) sync() {
	if b.body == nil {
		return
	}
	b.Position = b.body.Position()
	b.Velocity = b.body.Velocity()
}

func (b *Ball) speed() float64 {
	if b.body == nil {
		return 0
	}
	return b.body.Speed()
}

func roleTag(r Role) physics.Tag {
	if r == RoleCue {
		return physics.TagCue
	}
	return physics.TagObject
}
