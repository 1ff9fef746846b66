package game

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/playmatatu/poolsim/internal/geometry"
)

// ShotPlan is the solver's full view of one discrete action.
type ShotPlan struct {
	Action       int        `json:"action"`
	Valid        bool       `json:"valid"`
	Target       int        `json:"target"` // ball slot
	Pocket       int        `json:"pocket"`
	Angle        float64    `json:"angle"`
	Ghost        mgl64.Vec2 `json:"ghost"`
	Straightness float64    `json:"straightness"`
	Possible     int        `json:"possible"`
}

// decodeAction maps an action to (target slot, pocket index). Actions are laid out
// object-ball-major: action = (slot-1)*P + pocket. ok is false for out-of-range actions
// and for targets that are no longer on the table.
func (t *Table) decodeAction(action int) (slot, pocket int, ok bool) {
	p := len(t.cfg.Pockets)
	if action < 0 || action >= t.cfg.NumActions() {
		return 0, 0, false
	}
	slot = action/p + 1
	pocket = action % p

	if !t.balls[slot].Live() || !t.balls[0].Live() {
		return 0, 0, false
	}
	return slot, pocket, true
}

// ghostBall returns the point the cue ball centre must reach for the target to travel
// toward the pocket. ok is false when the target is already inside the pocket mouth.
func (t *Table) ghostBall(slot, pocket int) (mgl64.Vec2, bool) {
	r := t.cfg.BallRadius
	target := t.balls[slot].body.Position()
	pk := t.cfg.Pockets[pocket]

	toPocket := pk.Sub(target)
	if toPocket.Len() < r {
		return mgl64.Vec2{}, false
	}

	// aim one radius past the pocket centre so grazing shots still drop
	adjusted := pk.Add(toPocket.Normalize().Mul(r))
	dir, ok := geometry.Direction(target, adjusted)
	if !ok {
		return mgl64.Vec2{}, false
	}
	return target.Sub(dir.Mul(2 * r)), true
}

// CalcAngle returns the launch angle for action using the ghost-ball method.
// Invalid actions and unreachable targets return 0.
func (t *Table) CalcAngle(action int) float64 {
	slot, pocket, ok := t.decodeAction(action)
	if !ok {
		return 0
	}
	ghost, ok := t.ghostBall(slot, pocket)
	if !ok {
		return 0
	}
	return geometry.Angle(ghost.Sub(t.balls[0].body.Position()))
}

// Straightness scores how collinear cue, target and pocket are: 1 when the target sits
// directly between cue and pocket, falling toward -1 as the cut gets thinner.
// Degenerate or impossible geometry returns -1.
func (t *Table) Straightness(action int) float64 {
	slot, pocket, ok := t.decodeAction(action)
	if !ok {
		return SentinelFeature
	}

	target := t.balls[slot].body.Position()
	toCue := t.balls[0].body.Position().Sub(target)
	toPocket := t.cfg.Pockets[pocket].Sub(target)

	theta, ok := geometry.AngleBetween(toCue, toPocket)
	if !ok || theta < ImpossibleAngle {
		return SentinelFeature
	}
	return 2*theta/math.Pi - 1
}

// IsPotPossible returns 1 when neither the cue->target nor the target->pocket path is
// blocked by another live ball, 0 otherwise.
func (t *Table) IsPotPossible(action int) int {
	slot, pocket, ok := t.decodeAction(action)
	if !ok {
		return 0
	}

	cue := t.balls[0].body.Position()
	target := t.balls[slot].body.Position()
	pk := t.cfg.Pockets[pocket]

	if t.obstructed(cue, target, slot) || t.obstructed(target, pk, slot) {
		return 0
	}
	return 1
}

// obstructed reports whether any live ball other than the cue and target lies within a
// ball diameter of a->b, with its projection strictly inside the segment.
func (t *Table) obstructed(a, b mgl64.Vec2, target int) bool {
	length := b.Sub(a).Len()
	limit := 2 * t.cfg.BallRadius

	for i := 1; i < len(t.balls); i++ {
		if i == target || !t.balls[i].Live() {
			continue
		}
		proj, dist := geometry.ProjectOntoSegment(a, b, t.balls[i].body.Position())
		if dist < limit && proj > 0 && proj < length {
			return true
		}
	}
	return false
}

// CalculateStraightness evaluates Straightness for every action.
func (t *Table) CalculateStraightness() []float64 {
	out := make([]float64, t.cfg.NumActions())
	for a := range out {
		out[a] = t.Straightness(a)
	}
	return out
}

// CalculatePossibility evaluates IsPotPossible for every action.
func (t *Table) CalculatePossibility() []float64 {
	out := make([]float64, t.cfg.NumActions())
	for a := range out {
		out[a] = float64(t.IsPotPossible(a))
	}
	return out
}

// Aim resolves one action into a ShotPlan.
func (t *Table) Aim(action int) ShotPlan {
	plan := ShotPlan{
		Action:       action,
		Straightness: SentinelFeature,
	}
	slot, pocket, ok := t.decodeAction(action)
	if !ok {
		return plan
	}

	plan.Valid = true
	plan.Target = slot
	plan.Pocket = pocket
	if ghost, ok := t.ghostBall(slot, pocket); ok {
		plan.Ghost = ghost
	}
	plan.Angle = t.CalcAngle(action)
	plan.Straightness = t.Straightness(action)
	plan.Possible = t.IsPotPossible(action)
	return plan
}

// Plans resolves every action.
func (t *Table) Plans() []ShotPlan {
	out := make([]ShotPlan, t.cfg.NumActions())
	for a := range out {
		out[a] = t.Aim(a)
	}
	return out
}
