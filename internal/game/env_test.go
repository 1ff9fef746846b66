package game

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func newTestEnv(t *testing.T, cfg Config, opts ...Option) *Env {
	t.Helper()
	env, err := NewEnv(cfg, opts...)
	if err != nil {
		t.Fatalf("NewEnv: %v", err)
	}
	t.Cleanup(env.Close)
	return env
}

func assertAtRest(t *testing.T, env *Env) {
	t.Helper()
	for _, b := range env.Balls() {
		if b.Velocity != (mgl64.Vec2{}) {
			t.Errorf("ball %d still moving after the shot: v=%v", b.Slot, b.Velocity)
		}
		if !b.Pocketed && b.Position == OffTable {
			t.Errorf("ball %d parked without being pocketed", b.Slot)
		}
	}
}

func TestObservationSize(t *testing.T) {
	for _, n := range []int{2, 3, 5, 9} {
		env := newTestEnv(t, DefaultConfig(n))
		seed := int64(n)
		obs := env.Reset(&seed)
		if len(obs) != env.ObservationSize() {
			t.Errorf("n=%d: len(obs) = %d, want %d", n, len(obs), env.ObservationSize())
		}
		if obs[0] != 1 {
			t.Errorf("n=%d: sinceLastPot = %f, want 1 after reset", n, obs[0])
		}
	}
}

func TestResetSameSeedSameObservation(t *testing.T) {
	env := newTestEnv(t, DefaultConfig(4))
	seed := int64(99)
	first := env.Reset(&seed)
	second := env.Reset(&seed)
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("obs[%d]: %f != %f for the same seed", i, first[i], second[i])
		}
	}
}

func TestShotsEndAtRest(t *testing.T) {
	env := newTestEnv(t, DefaultConfig(5))
	seed := int64(11)
	env.Reset(&seed)

	for i := 0; i < 12 && !env.Done(); i++ {
		action := (i * 7) % env.NumActions()
		env.Step(action)
		assertAtRest(t, env)
	}

	for _, angle := range []float64{0, 1.2, -2.5, 3.1} {
		if env.Done() {
			break
		}
		env.StepAngle(angle)
		assertAtRest(t, env)
	}
}

func TestPottedBallsStayPotted(t *testing.T) {
	env := newTestEnv(t, DefaultConfig(6))
	seed := int64(5)
	env.Reset(&seed)

	potted := map[int]bool{}
	for i := 0; i < 30 && !env.Done(); i++ {
		env.Step(i % env.NumActions())
		balls := env.Balls()
		for slot := range potted {
			if !balls[slot].Pocketed {
				t.Fatalf("ball %d came back after being potted", slot)
			}
		}
		for _, b := range balls {
			if b.Pocketed {
				if b.IsCue() {
					t.Fatal("cue ball reported pocketed after a shot")
				}
				potted[b.Slot] = true
			}
		}
	}
}

func TestStraightPotIntoSidePocket(t *testing.T) {
	env := newTestEnv(t, DefaultConfig(2), WithFixedLayout(mgl64.Vec2{640, 300}, mgl64.Vec2{640, 560}))

	// slot 1 into the bottom-middle pocket
	obs, reward, done := env.Step(4)

	if !done {
		t.Fatal("expected the only object ball to drop")
	}
	if reward != BonusUnit {
		t.Errorf("reward = %f, want %f", reward, BonusUnit)
	}
	ep := env.Episode()
	if ep.Streak != 1 || ep.SinceLastPot != 1 || ep.Last.FirstContact != 1 {
		t.Errorf("episode = %+v, want streak 1 and first contact on slot 1", ep)
	}
	if ep.Last.CueHitObject == 0 {
		t.Error("cue/object contact was not observed")
	}
	// object features switch to sentinels
	p := len(DefaultPockets())
	cueToObject := 3 + 2*p
	if obs[cueToObject] != SentinelFeature || obs[cueToObject+1] != SentinelFeature {
		t.Errorf("cue->object features = %v, want sentinels", obs[cueToObject:cueToObject+2])
	}
	objectBlock := cueToObject + 2
	if obs[objectBlock] != SentinelCoord || obs[objectBlock+1] != SentinelCoord {
		t.Errorf("object coords = %v, want %v", obs[objectBlock:objectBlock+2], SentinelCoord)
	}
}

func TestEpisodeEndsWhenAllObjectsDown(t *testing.T) {
	env := newTestEnv(t, DefaultConfig(4), WithFixedLayout(
		mgl64.Vec2{300, 300}, mgl64.Vec2{500, 200}, mgl64.Vec2{700, 400}, mgl64.Vec2{900, 300},
	))

	// invalid action: nothing is struck, pocket detection still runs
	noop := -1

	if err := env.PlaceBall(1, mgl64.Vec2{-60, 320}); err != nil {
		t.Fatal(err)
	}
	if _, _, done := env.Step(noop); done {
		t.Fatal("done with two object balls left")
	}

	// scratches never finish the episode
	for i := 0; i < 3; i++ {
		if err := env.PlaceBall(0, mgl64.Vec2{1400, 320}); err != nil {
			t.Fatal(err)
		}
		_, reward, done := env.Step(noop)
		if done {
			t.Fatal("cue pocketing must not end the episode")
		}
		if reward >= 0 {
			t.Errorf("scratch reward = %f, want a penalty", reward)
		}
		if env.Balls()[0].Pocketed {
			t.Error("cue should have respawned")
		}
	}

	if err := env.PlaceBall(2, mgl64.Vec2{-60, 100}); err != nil {
		t.Fatal(err)
	}
	if _, _, done := env.Step(noop); done {
		t.Fatal("done with one object ball left")
	}

	if err := env.PlaceBall(3, mgl64.Vec2{1400, 500}); err != nil {
		t.Fatal(err)
	}
	if _, _, done := env.Step(noop); !done {
		t.Fatal("expected done once all three object balls are down")
	}

	for _, b := range env.Balls()[1:] {
		if !b.Pocketed {
			t.Errorf("ball %d not pocketed at episode end", b.Slot)
		}
	}

	obs, reward, done := env.Step(0)
	if !done || reward != 0 {
		t.Errorf("step after terminal = (%f, %v), want (0, true)", reward, done)
	}
	if len(obs) != env.ObservationSize() {
		t.Errorf("terminal obs len = %d", len(obs))
	}
}

func TestResetStartsFreshEpisode(t *testing.T) {
	env := newTestEnv(t, DefaultConfig(2), WithFixedLayout(TwoBallLayout...))
	env.Step(-1)
	env.Step(-1)
	if env.Episode().SinceLastPot != 3 {
		t.Fatalf("sinceLastPot = %d, want 3 after two misses", env.Episode().SinceLastPot)
	}

	obs := env.Reset(nil)
	ep := env.Episode()
	if ep.Shots != 0 || ep.Streak != 0 || ep.SinceLastPot != 1 || ep.State != AwaitingShot {
		t.Errorf("episode after reset = %+v", ep)
	}
	if obs[1] != 300 || obs[2] != 300 {
		t.Errorf("cue = (%f,%f), want fixed layout (300,300)", obs[1], obs[2])
	}
}

func TestFixedLayoutMustFit(t *testing.T) {
	_, err := NewEnv(DefaultConfig(3), WithFixedLayout(TwoBallLayout...))
	if err == nil {
		t.Error("expected an error for a layout with the wrong ball count")
	}
}

func TestSnapshotCarriesGeometry(t *testing.T) {
	env := newTestEnv(t, DefaultConfig(3))
	s := env.Snapshot()
	if len(s.Balls) != 3 || len(s.Pockets) != 6 || len(s.Cushions) != 6 || len(s.Field) != 8 {
		t.Errorf("snapshot = %+v", s)
	}
	if s.Balls[0].Color != ColorRed || s.Balls[1].Color != ColorWhite {
		t.Errorf("colours = %v, %v", s.Balls[0].Color, s.Balls[1].Color)
	}
	if s.State != AwaitingShot.String() {
		t.Errorf("state = %s", s.State)
	}
}

func TestClosedEnvIsInert(t *testing.T) {
	env := newTestEnv(t, DefaultConfig(4))
	seed := int64(3)
	env.Reset(&seed)
	env.Close()

	if !env.Done() {
		t.Error("closed env should report done")
	}
	obs, reward, done := env.Step(0)
	if reward != 0 || !done {
		t.Errorf("Step on closed env = (reward %v, done %v), want (0, true)", reward, done)
	}
	if len(obs) != env.ObservationSize() {
		t.Errorf("len(obs) = %d, want %d", len(obs), env.ObservationSize())
	}
	if _, _, done := env.StepAngle(0.5); !done {
		t.Error("StepAngle on closed env should be done")
	}
	if got := env.Reset(&seed); len(got) != env.ObservationSize() || got[1] != SentinelCoord {
		t.Errorf("Reset on closed env gave %v", got)
	}
	if len(env.Plans()) != env.NumActions() {
		t.Errorf("plans = %d, want %d", len(env.Plans()), env.NumActions())
	}
	for _, p := range env.Plans() {
		if p.Valid {
			t.Errorf("action %d resolves on a closed table", p.Action)
		}
	}
	if snap := env.Snapshot(); !snap.Done {
		t.Error("snapshot of closed env should be done")
	}
	if ep := env.Episode(); ep.Shots != 0 {
		t.Errorf("shots = %d, closed env must not score", ep.Shots)
	}
}
