package game

import (
	"log"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

// TwoBallLayout is the classic practice rack: cue at (300,300), one object ball at (500,300).
var TwoBallLayout = []mgl64.Vec2{{300, 300}, {500, 300}}

// Env drives one table through episodes: reset, shot, score, repeat until every object
// ball is down. It is not safe for concurrent use.
type Env struct {
	table   *Table
	policy  RewardPolicy
	episode Episode
	layout  []mgl64.Vec2
	debug   bool
}

// Option customises an Env.
type Option func(*Env)

// WithFixedLayout racks the balls at the given positions on every reset instead of at
// random. positions[0] is the cue ball.
func WithFixedLayout(positions ...mgl64.Vec2) Option {
	return func(e *Env) {
		e.layout = append([]mgl64.Vec2(nil), positions...)
	}
}

// WithRewardPolicy overrides the configured reward policy.
func WithRewardPolicy(p RewardPolicy) Option {
	return func(e *Env) {
		e.policy = p
	}
}

// NewEnv builds a table for cfg and racks it once with seed 1.
func NewEnv(cfg Config, opts ...Option) (*Env, error) {
	table, err := NewTable(cfg)
	if err != nil {
		return nil, err
	}

	e := &Env{
		table:  table,
		policy: table.cfg.rewardPolicy(),
		debug:  cfg.Debug,
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.layout != nil {
		if err := table.ResetLayout(e.layout); err != nil {
			table.Close()
			return nil, errors.Wrap(err, "invalid fixed layout")
		}
	} else {
		table.Reset()
	}
	e.episode = newEpisode()
	return e, nil
}

// Reset starts a new episode and returns the first observation. A non-nil seed reseeds
// the table's random source first, so the same seed always yields the same rack.
func (e *Env) Reset(seed *int64) []float64 {
	if seed != nil {
		e.table.Seed(*seed)
	}
	if e.layout != nil {
		// validated in NewEnv
		_ = e.table.ResetLayout(e.layout)
	} else {
		e.table.Reset()
	}
	e.episode = newEpisode()

	if e.debug {
		log.Printf("[ENV] Reset: %d balls, %d actions", e.table.cfg.NumBalls, e.table.cfg.NumActions())
	}
	return e.Observation()
}

// Step plays one discrete action to rest and scores it.
// Once the episode is terminal, Step returns the current observation, zero reward and done.
func (e *Env) Step(action int) ([]float64, float64, bool) {
	return e.play(func() ShotLog { return e.table.MakeShot(action) })
}

// StepAngle plays a shot at an arbitrary angle in radians.
func (e *Env) StepAngle(angle float64) ([]float64, float64, bool) {
	return e.play(func() ShotLog { return e.table.MakeShotAngle(angle) })
}

func (e *Env) play(shot func() ShotLog) ([]float64, float64, bool) {
	if e.episode.State == Terminal || e.table.Closed() {
		return e.Observation(), 0, true
	}

	e.episode.State = Simulating
	shotLog := shot()
	e.episode.State = Resolved

	reward := e.episode.score(shotLog, e.policy)
	done := e.table.Done()

	if e.debug {
		log.Printf("[ENV] Shot %d: action=%d potted=%v cue=%v hits=%d reward=%.3f",
			e.episode.Shots, shotLog.Action, shotLog.PocketedSlots, shotLog.CuePocketed, shotLog.CueHitObject, reward)
	}

	if done {
		e.episode.State = Terminal
		if e.debug {
			log.Printf("[ENV] Episode finished after %d shots, total reward %.3f", e.episode.Shots, e.episode.TotalReward)
		}
	} else {
		e.episode.State = AwaitingShot
	}
	return e.Observation(), reward, done
}

// Observation returns the current observation vector.
func (e *Env) Observation() []float64 {
	return e.table.observe(e.episode.SinceLastPot)
}

// Snapshot returns a render snapshot including episode progress.
func (e *Env) Snapshot() Snapshot {
	s := e.table.Snapshot()
	s.State = e.episode.State.String()
	s.Shots = e.episode.Shots
	s.Reward = e.episode.TotalReward
	return s
}

// Episode returns a copy of the episode counters.
func (e *Env) Episode() Episode {
	ep := e.episode
	ep.Last.PocketedSlots = append([]int(nil), e.episode.Last.PocketedSlots...)
	return ep
}

// Done reports whether the episode is over. A closed env is always done.
func (e *Env) Done() bool {
	return e.episode.State == Terminal || e.table.Closed()
}

// Plans resolves every action against the current table.
func (e *Env) Plans() []ShotPlan {
	return e.table.Plans()
}

// Balls returns a copy of every ball slot.
func (e *Env) Balls() []Ball {
	return e.table.Balls()
}

// PlaceBall moves a live ball; used to set up scenarios.
func (e *Env) PlaceBall(slot int, p mgl64.Vec2) error {
	return e.table.PlaceBall(slot, p)
}

func (e *Env) NumActions() int {
	return e.table.cfg.NumActions()
}

func (e *Env) ObservationSize() int {
	return e.table.cfg.ObservationSize()
}

// Config returns a copy of the table configuration.
func (e *Env) Config() Config {
	return e.table.Config()
}

// Close releases every physics body.
func (e *Env) Close() {
	e.table.Close()
}
