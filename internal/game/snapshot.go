package game

import "github.com/go-gl/mathgl/mgl64"

// Snapshot is a read-only picture of the table for renderers.
type Snapshot struct {
	Width    float64      `json:"width"`
	Height   float64      `json:"height"`
	Radius   float64      `json:"radius"`
	Balls    []Ball       `json:"balls"`
	Cushions []Segment    `json:"cushions"`
	Pockets  []mgl64.Vec2 `json:"pockets"`
	Field    []mgl64.Vec2 `json:"field"`

	State  string  `json:"state"`
	Shots  int     `json:"shots"`
	Reward float64 `json:"total_reward"`
	Done   bool    `json:"done"`
}

// Snapshot captures ball positions plus the static geometry.
func (t *Table) Snapshot() Snapshot {
	cfg := t.cfg.clone()
	return Snapshot{
		Width:    cfg.Width,
		Height:   cfg.Height,
		Radius:   cfg.BallRadius,
		Balls:    t.Balls(),
		Cushions: cfg.Cushions,
		Pockets:  cfg.Pockets,
		Field:    cfg.Field,
		Done:     t.Done(),
	}
}

// Geometry describes the empty table for a configuration; used by renderers before any
// env exists.
func Geometry(cfg Config) Snapshot {
	cfg = cfg.clone()
	return Snapshot{
		Width:    cfg.Width,
		Height:   cfg.Height,
		Radius:   cfg.BallRadius,
		Balls:    []Ball{},
		Cushions: cfg.Cushions,
		Pockets:  cfg.Pockets,
		Field:    cfg.Field,
		State:    AwaitingShot.String(),
	}
}
