package game

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/playmatatu/poolsim/internal/geometry"
	"github.com/playmatatu/poolsim/internal/physics"
)

// registerObservers hooks the shot log to cue collisions. Callbacks run inside
// world.Step, so the log always reflects the shot in progress.
func (t *Table) registerObservers() {
	t.world.OnBegin(physics.TagCue, physics.TagObject, func(_, obj *physics.Body) {
		t.shot.CueHitObject++
		if t.shot.FirstContact < 0 {
			t.shot.FirstContact = obj.Slot()
		}
	})
	t.world.OnBegin(physics.TagCue, physics.TagCushion, func(_, _ *physics.Body) {
		t.shot.CueHitCushion++
	})
}

// MakeShot plays one discrete action to rest. An action that does not decode to a live
// target strikes nothing; the table is left as it was and the shot still counts.
func (t *Table) MakeShot(action int) ShotLog {
	if t.closed {
		return newShotLog(action, 0)
	}
	if _, _, ok := t.decodeAction(action); !ok {
		t.shot = newShotLog(action, 0)
		t.CheckPocketed()
		return t.finishShot()
	}
	return t.shoot(action, t.CalcAngle(action))
}

// MakeShotAngle strikes the cue ball at an arbitrary angle in radians.
func (t *Table) MakeShotAngle(angle float64) ShotLog {
	if t.closed {
		return newShotLog(-1, angle)
	}
	return t.shoot(-1, angle)
}

func (t *Table) shoot(action int, angle float64) ShotLog {
	t.shot = newShotLog(action, angle)

	for i := range t.balls {
		if t.balls[i].Live() {
			t.balls[i].body.SetAngularVelocity(0)
		}
	}
	t.balls[0].body.ApplyImpulse(geometry.FromAngle(angle, t.cfg.ShotImpulse))

	for t.moving() {
		t.world.Step(t.cfg.TimeStep)
		t.applyFriction()
		t.shot.Ticks++
	}

	t.CheckPocketed()
	return t.finishShot()
}

func (t *Table) finishShot() ShotLog {
	for i := range t.balls {
		t.balls[i].sync()
	}
	out := t.shot
	out.PocketedSlots = append([]int(nil), t.shot.PocketedSlots...)
	return out
}

func (t *Table) moving() bool {
	for i := range t.balls {
		if t.balls[i].speed() > 0 {
			return true
		}
	}
	return false
}

// frictionDecay is the speed lost in one tick:
// mu*g*dt + alpha*v*dt + beta*v^2*dt.
func (c Config) frictionDecay(speed float64) float64 {
	dt := c.TimeStep
	return c.FrictionMu*c.Gravity*dt + c.FrictionAlpha*speed*dt + c.FrictionBeta*speed*speed*dt
}

// applyFriction slows every moving ball along its direction of travel. A ball whose
// decay meets its speed stops exactly.
func (t *Table) applyFriction() {
	for i := range t.balls {
		b := &t.balls[i]
		if !b.Live() {
			continue
		}
		v := b.body.Velocity()
		speed := v.Len()
		if speed == 0 {
			continue
		}

		decay := t.cfg.frictionDecay(speed)
		if decay >= speed {
			b.body.SetVelocity(mgl64.Vec2{})
			b.body.SetAngularVelocity(0)
			continue
		}
		b.body.SetVelocity(v.Mul((speed - decay) / speed))
	}
}

// CheckPocketed resolves every ball whose centre has left the field. Object balls are
// removed for the rest of the episode; the cue ball is respawned once the objects are
// cleared away.
func (t *Table) CheckPocketed() {
	if t.closed {
		return
	}
	cueOut := false
	for i := range t.balls {
		b := &t.balls[i]
		if !b.Live() {
			continue
		}
		if geometry.PointInField(b.body.Position(), t.cfg.Field) {
			continue
		}

		if b.IsCue() {
			cueOut = true
			continue
		}
		t.pocketObject(i)
		t.shot.ObjectPocketed = true
		t.shot.PocketedCount++
		t.shot.PocketedSlots = append(t.shot.PocketedSlots, i)
	}

	if cueOut {
		t.shot.CuePocketed = true
		t.respawnCue()
	}
}
