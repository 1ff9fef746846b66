package game

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/playmatatu/poolsim/internal/geometry"
)

// observe assembles the observation vector. Layout, with m object balls and P pockets:
//
//	sinceLastPot
//	cue x, y
//	(dist, angle) cue -> each pocket
//	(dist, angle) cue -> each object ball
//	per object ball: x, y, (dist, angle) -> each pocket
//	straightness per action
//	possibility per action
//
// Pocketed balls report SentinelCoord for coordinates and SentinelFeature for distances
// and angles.
func (t *Table) observe(sinceLastPot int) []float64 {
	if t.closed {
		return t.closedObservation(sinceLastPot)
	}
	obs := make([]float64, 0, t.cfg.ObservationSize())
	obs = append(obs, float64(sinceLastPot))

	cue := t.balls[0].body.Position()
	obs = append(obs, cue.X(), cue.Y())

	for _, pk := range t.cfg.Pockets {
		obs = appendPolar(obs, cue, pk)
	}

	for i := 1; i < len(t.balls); i++ {
		if !t.balls[i].Live() {
			obs = append(obs, SentinelFeature, SentinelFeature)
			continue
		}
		obs = appendPolar(obs, cue, t.balls[i].body.Position())
	}

	for i := 1; i < len(t.balls); i++ {
		if !t.balls[i].Live() {
			obs = append(obs, SentinelCoord, SentinelCoord)
			for range t.cfg.Pockets {
				obs = append(obs, SentinelFeature, SentinelFeature)
			}
			continue
		}
		p := t.balls[i].body.Position()
		obs = append(obs, p.X(), p.Y())
		for _, pk := range t.cfg.Pockets {
			obs = appendPolar(obs, p, pk)
		}
	}

	obs = append(obs, t.CalculateStraightness()...)
	obs = append(obs, t.CalculatePossibility()...)
	return obs
}

func appendPolar(obs []float64, from, to mgl64.Vec2) []float64 {
	d := to.Sub(from)
	return append(obs, d.Len(), geometry.Angle(d))
}

// closedObservation keeps the vector length fixed once the table has no bodies left.
func (t *Table) closedObservation(sinceLastPot int) []float64 {
	obs := make([]float64, t.cfg.ObservationSize())
	for i := range obs {
		obs[i] = SentinelFeature
	}
	obs[0] = float64(sinceLastPot)
	obs[1], obs[2] = SentinelCoord, SentinelCoord
	return obs
}
