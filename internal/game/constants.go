package game

import "github.com/go-gl/mathgl/mgl64"

// Table and physics defaults. Distances are in table units (pixels), time in seconds.

const (
	TableWidth  = 1280.0
	TableHeight = 640.0
	BallRadius  = 15.0
	BallMass    = 1.0

	// Spawn margin between a fresh ball and the cushion line.
	SpawnMargin = 30.0

	BallRestitution    = 0.9
	CushionRestitution = 0.7

	ShotImpulse = 1000.0
	TimeStep    = 1.0 / 60.0

	// Friction: decay = mu*g*dt + alpha*v*dt + beta*v^2*dt
	Gravity       = 981.0 // 9.81 m/s^2 at 100 px/m
	FrictionMu    = 0.1
	FrictionAlpha = 0.2
	FrictionBeta  = 0.0002

	// Reward shaping
	BonusUnit   = 10.0
	CuePenalty  = 10.0
	TimePenalty = 1.0

	// ImpossibleAngle is the cue-target-pocket angle (radians, ~1 degree) below which
	// a cut cannot be made.
	ImpossibleAngle = 0.017453292519943295

	// Observation sentinels for pocketed balls.
	SentinelCoord   = -100.0
	SentinelFeature = -1.0
)

// OffTable is where pocketed balls are parked.
var OffTable = mgl64.Vec2{SentinelCoord, SentinelCoord}

// DefaultField is the playable area: a rectangle with the four corner pockets notched out.
// The side pockets sit in the gaps between the top and bottom cushion segments.
func DefaultField() []mgl64.Vec2 {
	return []mgl64.Vec2{
		{30, 0}, {1250, 0}, {1280, 30}, {1280, 610},
		{1250, 640}, {30, 640}, {0, 610}, {0, 30},
	}
}

// DefaultPockets lists pocket centres: top-left, top-middle, top-right,
// bottom-left, bottom-middle, bottom-right.
func DefaultPockets() []mgl64.Vec2 {
	return []mgl64.Vec2{
		{0, 0}, {640, 0}, {1280, 0},
		{0, 640}, {640, 640}, {1280, 640},
	}
}

// Segment is a static cushion collider.
type Segment struct {
	Name string     `json:"name"`
	A    mgl64.Vec2 `json:"a"`
	B    mgl64.Vec2 `json:"b"`
}

// DefaultCushions returns the six cushion rails, leaving gaps at every pocket.
func DefaultCushions() []Segment {
	return []Segment{
		{Name: "top-left", A: mgl64.Vec2{30, 0}, B: mgl64.Vec2{620, 0}},
		{Name: "top-right", A: mgl64.Vec2{660, 0}, B: mgl64.Vec2{1250, 0}},
		{Name: "bottom-left", A: mgl64.Vec2{30, 640}, B: mgl64.Vec2{620, 640}},
		{Name: "bottom-right", A: mgl64.Vec2{660, 640}, B: mgl64.Vec2{1250, 640}},
		{Name: "left", A: mgl64.Vec2{0, 30}, B: mgl64.Vec2{0, 610}},
		{Name: "right", A: mgl64.Vec2{1280, 30}, B: mgl64.Vec2{1280, 610}},
	}
}
