// Package geometry holds the pure 2D helpers used by the table and the shot solver.
package geometry

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Epsilon is the length below which a vector is treated as zero.
const Epsilon = 1e-9

// PointInField reports whether p lies inside the polygon described by vertices.
// It casts a horizontal ray from p toward +x and counts edge crossings.
// Edges with equal y never divide; the polygon is closed by wrapping n -> 0.
func PointInField(p mgl64.Vec2, vertices []mgl64.Vec2) bool {
	n := len(vertices)
	if n < 3 {
		return false
	}

	x, y := p.X(), p.Y()
	inside := false

	prev := vertices[n-1]
	for i := 0; i < n; i++ {
		cur := vertices[i]
		px, py := prev.X(), prev.Y()
		sx, sy := cur.X(), cur.Y()

		if math.Min(py, sy) < y && y <= math.Max(py, sy) && x <= math.Max(px, sx) {
			// py != sy is guaranteed by the strict range check above
			xinters := (y-py)*(sx-px)/(sy-py) + px
			if px == sx || x <= xinters {
				inside = !inside
			}
		}
		prev = cur
	}

	return inside
}

// ProjectOntoSegment projects p onto the segment a->b.
// t is the signed, unclamped distance of the projection from a along the segment;
// dist is the distance from p to the closest point of the segment (t clamped to [0, |ab|]).
func ProjectOntoSegment(a, b, p mgl64.Vec2) (t, dist float64) {
	ab := b.Sub(a)
	length := ab.Len()
	if length < Epsilon {
		return 0, p.Sub(a).Len()
	}

	dir := ab.Mul(1 / length)
	t = p.Sub(a).Dot(dir)

	clamped := mgl64.Clamp(t, 0, length)
	closest := a.Add(dir.Mul(clamped))
	return t, p.Sub(closest).Len()
}

// PointToSegmentDistance returns the Euclidean distance from p to the segment a->b.
func PointToSegmentDistance(a, b, p mgl64.Vec2) float64 {
	_, dist := ProjectOntoSegment(a, b, p)
	return dist
}

// SafeNormalize returns v scaled to unit length, or the zero vector if v is too short.
func SafeNormalize(v mgl64.Vec2) (mgl64.Vec2, bool) {
	l := v.Len()
	if l < Epsilon {
		return mgl64.Vec2{}, false
	}
	return v.Mul(1 / l), true
}

// Direction returns the unit vector pointing from a to b.
func Direction(a, b mgl64.Vec2) (mgl64.Vec2, bool) {
	return SafeNormalize(b.Sub(a))
}

// Angle returns the bearing of v in radians, in (-pi, pi].
func Angle(v mgl64.Vec2) float64 {
	a := math.Atan2(v.Y(), v.X())
	if a <= -math.Pi {
		// atan2(-0, x<0) is -pi
		return math.Pi
	}
	return a
}

// FromAngle returns a vector of the given magnitude pointing along angle.
func FromAngle(angle, magnitude float64) mgl64.Vec2 {
	return mgl64.Vec2{math.Cos(angle) * magnitude, math.Sin(angle) * magnitude}
}

// AngleBetween returns the unsigned angle between a and b in radians.
// The cosine is clamped to [-1, 1] so rounding never produces NaN from Acos.
func AngleBetween(a, b mgl64.Vec2) (float64, bool) {
	denom := a.Len() * b.Len()
	if denom < Epsilon {
		return 0, false
	}
	cos := mgl64.Clamp(a.Dot(b)/denom, -1, 1)
	return math.Acos(cos), true
}
