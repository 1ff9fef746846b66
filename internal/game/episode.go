package game

// State is the phase of an episode.
type State int

const (
	AwaitingShot State = iota
	Simulating
	Resolved
	Terminal
)

func (s State) String() string {
	switch s {
	case AwaitingShot:
		return "awaiting_shot"
	case Simulating:
		return "simulating"
	case Resolved:
		return "resolved"
	case Terminal:
		return "terminal"
	}
	return "unknown"
}

// ShotLog records what happened during one shot. The per-shot fields are cleared at the
// start of every shot; Streak and SinceLastPot are the episode counters as they stood when
// the shot was scored.
type ShotLog struct {
	Action int     `json:"action"` // -1 for angle shots
	Angle  float64 `json:"angle"`

	CuePocketed    bool  `json:"cue_pocketed"`
	ObjectPocketed bool  `json:"object_pocketed"`
	PocketedCount  int   `json:"pocketed_count"`
	PocketedSlots  []int `json:"pocketed_slots,omitempty"`

	CueHitObject  int `json:"cue_hit_object"`
	CueHitCushion int `json:"cue_hit_cushion"`
	FirstContact  int `json:"first_contact"` // slot of the first object ball the cue touched, -1 if none
	Ticks         int `json:"ticks"`

	Streak       int `json:"streak"`
	SinceLastPot int `json:"since_last_pot"`
}

func newShotLog(action int, angle float64) ShotLog {
	return ShotLog{Action: action, Angle: angle, FirstContact: -1}
}

// Episode tracks the state machine and the counters that carry across shots.
type Episode struct {
	State        State
	Shots        int
	Streak       int
	SinceLastPot int
	TotalReward  float64
	CueFouls     int
	Last         ShotLog
}

func newEpisode() Episode {
	return Episode{State: AwaitingShot, SinceLastPot: 1}
}

// score updates the streak counters from a resolved shot and returns its reward.
// On a pot the streak grows and the time counter resets to 1; on a miss the streak resets
// and the time counter is charged at its current value before growing.
func (e *Episode) score(log ShotLog, policy RewardPolicy) float64 {
	if log.ObjectPocketed {
		e.Streak++
		e.SinceLastPot = 1
	} else {
		e.Streak = 0
	}
	log.Streak = e.Streak
	log.SinceLastPot = e.SinceLastPot

	reward := policy.ComputeReward(log)

	if !log.ObjectPocketed {
		e.SinceLastPot++
	}
	if log.CuePocketed {
		e.CueFouls++
	}
	e.Shots++
	e.TotalReward += reward
	e.Last = log
	return reward
}
