package game

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

// Config is the immutable description of a table. It is copied into the Table at
// construction; later changes to the caller's value have no effect.
type Config struct {
	NumBalls int

	Width, Height float64
	BallRadius    float64
	BallMass      float64
	SpawnMargin   float64

	Field    []mgl64.Vec2
	Pockets  []mgl64.Vec2
	Cushions []Segment

	BallRestitution    float64
	CushionRestitution float64

	ShotImpulse float64
	TimeStep    float64

	Gravity       float64
	FrictionMu    float64
	FrictionAlpha float64
	FrictionBeta  float64

	// Reward is the per-shot reward policy; nil selects the streak policy built from
	// BonusUnit, CuePenalty and TimePenalty.
	Reward      RewardPolicy
	BonusUnit   float64
	CuePenalty  float64
	TimePenalty float64

	// Debug logs a line per resolved shot.
	Debug bool
}

// DefaultConfig returns the standard 1280x640 table with n balls (cue included).
func DefaultConfig(n int) Config {
	return Config{
		NumBalls:           n,
		Width:              TableWidth,
		Height:             TableHeight,
		BallRadius:         BallRadius,
		BallMass:           BallMass,
		SpawnMargin:        SpawnMargin,
		Field:              DefaultField(),
		Pockets:            DefaultPockets(),
		Cushions:           DefaultCushions(),
		BallRestitution:    BallRestitution,
		CushionRestitution: CushionRestitution,
		ShotImpulse:        ShotImpulse,
		TimeStep:           TimeStep,
		Gravity:            Gravity,
		FrictionMu:         FrictionMu,
		FrictionAlpha:      FrictionAlpha,
		FrictionBeta:       FrictionBeta,
		BonusUnit:          BonusUnit,
		CuePenalty:         CuePenalty,
		TimePenalty:        TimePenalty,
	}
}

// Validate checks the configuration can host a table.
func (c Config) Validate() error {
	if c.NumBalls < 2 {
		return errors.Errorf("need at least 2 balls, got %d", c.NumBalls)
	}
	if c.BallRadius <= 0 {
		return errors.New("ball radius must be positive")
	}
	if c.BallMass <= 0 {
		return errors.New("ball mass must be positive")
	}
	if len(c.Field) < 3 {
		return errors.Errorf("field polygon needs at least 3 vertices, got %d", len(c.Field))
	}
	if len(c.Pockets) == 0 {
		return errors.New("table has no pockets")
	}
	if c.TimeStep <= 0 {
		return errors.New("time step must be positive")
	}
	if c.FrictionMu <= 0 || c.Gravity <= 0 {
		// the constant term is what brings every ball to an exact stop
		return errors.New("friction mu and gravity must be positive")
	}
	if c.FrictionAlpha < 0 || c.FrictionBeta < 0 {
		return errors.New("friction coefficients must not be negative")
	}

	w, h := c.spawnArea()
	if w <= 0 || h <= 0 {
		return errors.New("table too small for the spawn margin")
	}
	// Random sequential placement jams well before dense packing; keep n under a
	// quarter of the (2r)^2 cells.
	d := 2 * c.BallRadius
	capacity := int((w / d) * (h / d) / 4)
	if c.NumBalls > capacity {
		return errors.Errorf("cannot fit %d balls on the table (capacity ~%d)", c.NumBalls, capacity)
	}
	return nil
}

// NumObjectBalls is the fixed number of object balls.
func (c Config) NumObjectBalls() int {
	return c.NumBalls - 1
}

// NumActions is the size of the discrete action space.
func (c Config) NumActions() int {
	return c.NumObjectBalls() * len(c.Pockets)
}

// ObservationSize is the length of the observation vector for this configuration.
func (c Config) ObservationSize() int {
	p := len(c.Pockets)
	m := c.NumObjectBalls()
	return 3 + 2*p + 2*m + m*(2+2*p) + 2*m*p
}

func (c Config) spawnArea() (float64, float64) {
	inset := c.BallRadius + c.SpawnMargin
	return c.Width - 2*inset, c.Height - 2*inset
}

func (c Config) clone() Config {
	out := c
	out.Field = append([]mgl64.Vec2(nil), c.Field...)
	out.Pockets = append([]mgl64.Vec2(nil), c.Pockets...)
	out.Cushions = append([]Segment(nil), c.Cushions...)
	return out
}
