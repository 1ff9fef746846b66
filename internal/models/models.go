package models

import (
	"database/sql"
	"time"
)

// APIClient is a caller allowed to host simulator sessions
type APIClient struct {
	ID        int          `db:"id" json:"id"`
	ClientID  string       `db:"client_id" json:"client_id"`
	Name      string       `db:"name" json:"name"`
	KeyHash   string       `db:"key_hash" json:"-"`
	IsActive  bool         `db:"is_active" json:"is_active"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
	LastUsed  sql.NullTime `db:"last_used" json:"last_used,omitempty"`
}

// Episode is one reset-to-terminal run of a hosted env
type Episode struct {
	ID          int64          `db:"id" json:"id"`
	EnvID       string         `db:"env_id" json:"env_id"`
	ClientID    sql.NullString `db:"client_id" json:"client_id,omitempty"`
	NumBalls    int            `db:"num_balls" json:"num_balls"`
	Seed        sql.NullInt64  `db:"seed" json:"seed,omitempty"`
	Shots       int            `db:"shots" json:"shots"`
	TotalReward float64        `db:"total_reward" json:"total_reward"`
	Done        bool           `db:"done" json:"done"`
	StartedAt   time.Time      `db:"started_at" json:"started_at"`
	FinishedAt  sql.NullTime   `db:"finished_at" json:"finished_at,omitempty"`
}

// ShotRecord is a single resolved shot within an episode
type ShotRecord struct {
	ID            int64     `db:"id" json:"id"`
	EpisodeID     int64     `db:"episode_id" json:"episode_id"`
	ShotNumber    int       `db:"shot_number" json:"shot_number"`
	Action        int       `db:"action" json:"action"`
	Angle         float64   `db:"angle" json:"angle"`
	Reward        float64   `db:"reward" json:"reward"`
	CuePocketed   bool      `db:"cue_pocketed" json:"cue_pocketed"`
	PocketedCount int       `db:"pocketed_count" json:"pocketed_count"`
	CueHitObject  int       `db:"cue_hit_object" json:"cue_hit_object"`
	CueHitCushion int       `db:"cue_hit_cushion" json:"cue_hit_cushion"`
	FirstContact  int       `db:"first_contact" json:"first_contact"`
	Ticks         int       `db:"ticks" json:"ticks"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}
