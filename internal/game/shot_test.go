package game

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

// layoutTable racks a table with fixed positions and the given pockets.
func layoutTable(t *testing.T, pockets []mgl64.Vec2, positions ...mgl64.Vec2) *Table {
	t.Helper()
	cfg := DefaultConfig(len(positions))
	if pockets != nil {
		cfg.Pockets = pockets
	}
	table, err := NewTable(cfg)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	t.Cleanup(table.Close)
	if err := table.ResetLayout(positions); err != nil {
		t.Fatalf("ResetLayout: %v", err)
	}
	return table
}

func TestDecodeActionLayout(t *testing.T) {
	table := newTestTable(t, 4)
	table.Reset()

	p := len(DefaultPockets())
	for action := 0; action < table.cfg.NumActions(); action++ {
		slot, pocket, ok := table.decodeAction(action)
		if !ok {
			t.Fatalf("action %d should decode", action)
		}
		if slot != action/p+1 || pocket != action%p {
			t.Errorf("action %d -> (%d,%d), want (%d,%d)", action, slot, pocket, action/p+1, action%p)
		}
	}
	for _, action := range []int{-1, table.cfg.NumActions(), 1000} {
		if _, _, ok := table.decodeAction(action); ok {
			t.Errorf("action %d should not decode", action)
		}
	}
}

func TestCalcAngleRange(t *testing.T) {
	table := newTestTable(t, 6)
	for seed := int64(0); seed < 20; seed++ {
		table.Seed(seed)
		table.Reset()
		for action := 0; action < table.cfg.NumActions(); action++ {
			a := table.CalcAngle(action)
			if math.IsNaN(a) || math.IsInf(a, 0) || a <= -math.Pi || a > math.Pi {
				t.Errorf("seed %d action %d: angle %f out of (-pi, pi]", seed, action, a)
			}
		}
	}
}

func TestCalcAngleInvalidIsZero(t *testing.T) {
	table := layoutTable(t, nil, mgl64.Vec2{300, 300}, mgl64.Vec2{500, 200}, mgl64.Vec2{700, 400})
	table.pocketObject(1)

	for _, action := range []int{-5, table.cfg.NumActions(), 0, 1, 5} {
		if got := table.CalcAngle(action); got != 0 {
			t.Errorf("CalcAngle(%d) = %f, want exactly 0", action, got)
		}
	}
	// slot 2 is still live
	if got := table.CalcAngle(len(DefaultPockets())); got == 0 {
		t.Error("expected a real angle for a live target")
	}
}

func TestCalcAngleTargetInPocketMouth(t *testing.T) {
	table := layoutTable(t, []mgl64.Vec2{{510, 300}}, mgl64.Vec2{300, 300}, mgl64.Vec2{500, 300})
	if got := table.CalcAngle(0); got != 0 {
		t.Errorf("CalcAngle = %f, want 0 when the target sits in the pocket", got)
	}
}

func TestCalcAngleGhostBall(t *testing.T) {
	table := layoutTable(t, []mgl64.Vec2{{500, 0}}, mgl64.Vec2{300, 300}, mgl64.Vec2{500, 300})

	// target straight below the pocket: ghost ball sits one diameter under it
	plan := table.Aim(0)
	want := mgl64.Vec2{500, 330}
	if plan.Ghost.Sub(want).Len() > 1e-6 {
		t.Errorf("ghost = %v, want %v", plan.Ghost, want)
	}
	wantAngle := math.Atan2(30, 200)
	if math.Abs(plan.Angle-wantAngle) > 1e-9 {
		t.Errorf("angle = %f, want %f", plan.Angle, wantAngle)
	}
}

func TestStraightnessCollinear(t *testing.T) {
	table := layoutTable(t, []mgl64.Vec2{{1280, 300}}, TwoBallLayout...)

	if got := table.Straightness(0); math.Abs(got-1) > 1e-9 {
		t.Errorf("straightness = %f, want ~1", got)
	}
	if got := table.IsPotPossible(0); got != 1 {
		t.Errorf("IsPotPossible = %d, want 1", got)
	}
	if got := table.CalcAngle(0); math.Abs(got) > 1e-9 {
		t.Errorf("CalcAngle = %f, want 0 for a dead-straight shot", got)
	}
}

func TestStraightnessRightAngleCut(t *testing.T) {
	table := layoutTable(t, []mgl64.Vec2{{500, 0}}, TwoBallLayout...)
	if got := table.Straightness(0); math.Abs(got) > 1e-9 {
		t.Errorf("straightness = %f, want 0 for a 90 degree cut", got)
	}
}

func TestStraightnessSentinels(t *testing.T) {
	// pocket on the same side of the target as the cue
	table := layoutTable(t, []mgl64.Vec2{{100, 300}}, TwoBallLayout...)
	if got := table.Straightness(0); got != -1 {
		t.Errorf("same-side straightness = %f, want -1", got)
	}
	if got := table.Straightness(99); got != -1 {
		t.Errorf("out-of-range straightness = %f, want -1", got)
	}

	// pocket exactly at the target centre
	table = layoutTable(t, []mgl64.Vec2{{500, 300}}, TwoBallLayout...)
	if got := table.Straightness(0); got != -1 {
		t.Errorf("zero-length straightness = %f, want -1", got)
	}
}

func TestStraightnessRange(t *testing.T) {
	table := newTestTable(t, 8)
	for seed := int64(0); seed < 10; seed++ {
		table.Seed(seed)
		table.Reset()
		for _, s := range table.CalculateStraightness() {
			if s < -1 || s > 1 {
				t.Errorf("seed %d: straightness %f out of [-1,1]", seed, s)
			}
		}
	}
}

func TestBlockerOnCueLine(t *testing.T) {
	table := layoutTable(t, []mgl64.Vec2{{1280, 300}},
		mgl64.Vec2{300, 300}, mgl64.Vec2{600, 300}, mgl64.Vec2{450, 300})

	// action 0: slot 1 into the only pocket, slot 2 sits between cue and target
	if got := table.IsPotPossible(0); got != 0 {
		t.Errorf("IsPotPossible(0) = %d, want 0 with a blocker", got)
	}
	// action 1: slot 2 is the target, slot 1 now blocks the pocket line
	if got := table.IsPotPossible(1); got != 0 {
		t.Errorf("IsPotPossible(1) = %d, want 0", got)
	}

	if err := table.PlaceBall(2, mgl64.Vec2{450, 500}); err != nil {
		t.Fatal(err)
	}
	if got := table.IsPotPossible(0); got != 1 {
		t.Errorf("IsPotPossible(0) = %d, want 1 once the blocker moves", got)
	}
}

func TestBlockerOnPocketLine(t *testing.T) {
	table := layoutTable(t, []mgl64.Vec2{{1000, 300}},
		mgl64.Vec2{300, 300}, mgl64.Vec2{500, 300}, mgl64.Vec2{800, 310})

	if got := table.IsPotPossible(0); got != 0 {
		t.Errorf("IsPotPossible(0) = %d, want 0 with a ball in front of the pocket", got)
	}
}

func TestBallBeyondSegmentDoesNotBlock(t *testing.T) {
	// slot 2 is behind the cue, inside 2r of the extended line but outside the segment
	table := layoutTable(t, []mgl64.Vec2{{1280, 300}},
		mgl64.Vec2{300, 300}, mgl64.Vec2{600, 300}, mgl64.Vec2{200, 300})

	if got := table.IsPotPossible(0); got != 1 {
		t.Errorf("IsPotPossible(0) = %d, want 1", got)
	}
}

func TestPossibilityVectorShape(t *testing.T) {
	table := newTestTable(t, 5)
	table.Reset()

	pos := table.CalculatePossibility()
	if len(pos) != table.cfg.NumActions() {
		t.Fatalf("len = %d, want %d", len(pos), table.cfg.NumActions())
	}
	for i, v := range pos {
		if v != 0 && v != 1 {
			t.Errorf("possibility[%d] = %f, want 0 or 1", i, v)
		}
	}
}
