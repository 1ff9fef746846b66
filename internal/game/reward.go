package game

// RewardPolicy turns a resolved shot into a scalar reward.
type RewardPolicy interface {
	ComputeReward(log ShotLog) float64
}

// StreakReward pays for consecutive pots and charges for time spent not potting.
type StreakReward struct {
	BonusUnit   float64
	CuePenalty  float64
	TimePenalty float64
}

func (s StreakReward) ComputeReward(log ShotLog) float64 {
	reward := 0.0
	if log.CuePocketed {
		reward -= s.CuePenalty
	}
	if log.ObjectPocketed {
		reward += float64(log.PocketedCount*log.Streak) * s.BonusUnit
	} else {
		reward -= float64(log.SinceLastPot) * s.TimePenalty
	}
	return reward
}

// FlagReward is the flat scheme: +1 for an object pot, -0.2 for scratching, a small
// penalty otherwise. An object pot outweighs a scratch on the same shot.
type FlagReward struct{}

func (FlagReward) ComputeReward(log ShotLog) float64 {
	switch {
	case log.ObjectPocketed:
		return 1
	case log.CuePocketed:
		return -0.2
	}
	return -0.001
}

// rewardPolicy resolves the configured policy, defaulting to StreakReward.
func (c Config) rewardPolicy() RewardPolicy {
	if c.Reward != nil {
		return c.Reward
	}
	return StreakReward{
		BonusUnit:   c.BonusUnit,
		CuePenalty:  c.CuePenalty,
		TimePenalty: c.TimePenalty,
	}
}
