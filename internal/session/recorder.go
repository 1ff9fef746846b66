package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/playmatatu/poolsim/internal/game"
	"github.com/playmatatu/poolsim/internal/models"
	"github.com/redis/go-redis/v9"
)

// EventsChannel is the Redis pub/sub channel carrying env snapshots.
const EventsChannel = "env_events"

// Recorder receives session lifecycle events. Calls are made while the session lock is
// held; failures are logged and never fail the caller's request.
type Recorder interface {
	EpisodeStarted(ctx context.Context, s *Session) error
	ShotPlayed(ctx context.Context, s *Session, ep game.Episode, reward float64, done bool) error
	EpisodeClosed(ctx context.Context, s *Session, ep game.Episode) error
	Snapshot(ctx context.Context, s *Session, snap game.Snapshot) error
	SessionClosed(ctx context.Context, s *Session) error
}

// Event is the payload published on EventsChannel.
type Event struct {
	Type     string        `json:"type"`
	EnvID    string        `json:"env_id"`
	Snapshot game.Snapshot `json:"snapshot"`
}

// SnapshotKey is the Redis key holding the latest snapshot of an env.
func SnapshotKey(envID string) string {
	return fmt.Sprintf("env:%s:snapshot", envID)
}

// RedisRecorder caches the latest snapshot per env and publishes it for other instances.
type RedisRecorder struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisRecorder(rdb *redis.Client, ttl time.Duration) *RedisRecorder {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RedisRecorder{rdb: rdb, ttl: ttl}
}

func (r *RedisRecorder) EpisodeStarted(ctx context.Context, s *Session) error {
	return nil
}

func (r *RedisRecorder) ShotPlayed(ctx context.Context, s *Session, ep game.Episode, reward float64, done bool) error {
	return nil
}

func (r *RedisRecorder) EpisodeClosed(ctx context.Context, s *Session, ep game.Episode) error {
	return nil
}

func (r *RedisRecorder) SessionClosed(ctx context.Context, s *Session) error {
	if err := r.rdb.Del(ctx, SnapshotKey(s.ID)).Err(); err != nil {
		return errors.Wrap(err, "drop snapshot")
	}
	b, _ := json.Marshal(Event{Type: "closed", EnvID: s.ID})
	return errors.Wrap(r.rdb.Publish(ctx, EventsChannel, b).Err(), "publish close")
}

func (r *RedisRecorder) Snapshot(ctx context.Context, s *Session, snap game.Snapshot) error {
	b, err := json.Marshal(Event{Type: "snapshot", EnvID: s.ID, Snapshot: snap})
	if err != nil {
		return errors.Wrap(err, "marshal snapshot")
	}
	if err := r.rdb.SetEx(ctx, SnapshotKey(s.ID), b, r.ttl).Err(); err != nil {
		return errors.Wrap(err, "store snapshot")
	}
	if err := r.rdb.Publish(ctx, EventsChannel, b).Err(); err != nil {
		return errors.Wrap(err, "publish snapshot")
	}
	return nil
}

// SQLRecorder stores episodes and shots in Postgres.
type SQLRecorder struct {
	db *sqlx.DB
}

func NewSQLRecorder(db *sqlx.DB) *SQLRecorder {
	return &SQLRecorder{db: db}
}

func (r *SQLRecorder) EpisodeStarted(ctx context.Context, s *Session) error {
	ep := models.Episode{
		EnvID:     s.ID,
		ClientID:  sql.NullString{String: s.ClientID, Valid: s.ClientID != ""},
		NumBalls:  s.NumBalls,
		StartedAt: time.Now(),
	}
	if s.seed != nil {
		ep.Seed = sql.NullInt64{Int64: *s.seed, Valid: true}
	}

	rows, err := r.db.NamedQueryContext(ctx, `
		INSERT INTO episodes (env_id, client_id, num_balls, seed, started_at)
		VALUES (:env_id, :client_id, :num_balls, :seed, :started_at)
		RETURNING id
	`, ep)
	if err != nil {
		return errors.Wrap(err, "insert episode")
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return errors.Wrap(err, "insert episode")
		}
		return errors.New("insert episode: no id returned")
	}
	if err := rows.Scan(&ep.ID); err != nil {
		return errors.Wrap(err, "scan episode id")
	}
	s.SetEpisodeID(ep.ID)
	return nil
}

func (r *SQLRecorder) ShotPlayed(ctx context.Context, s *Session, ep game.Episode, reward float64, done bool) error {
	if s.episodeID == 0 {
		return nil
	}
	shot := models.ShotRecord{
		EpisodeID:     s.episodeID,
		ShotNumber:    ep.Shots,
		Action:        ep.Last.Action,
		Angle:         ep.Last.Angle,
		Reward:        reward,
		CuePocketed:   ep.Last.CuePocketed,
		PocketedCount: ep.Last.PocketedCount,
		CueHitObject:  ep.Last.CueHitObject,
		CueHitCushion: ep.Last.CueHitCushion,
		FirstContact:  ep.Last.FirstContact,
		Ticks:         ep.Last.Ticks,
		CreatedAt:     time.Now(),
	}
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO shots (episode_id, shot_number, action, angle, reward, cue_pocketed, pocketed_count,
			cue_hit_object, cue_hit_cushion, first_contact, ticks, created_at)
		VALUES (:episode_id, :shot_number, :action, :angle, :reward, :cue_pocketed, :pocketed_count,
			:cue_hit_object, :cue_hit_cushion, :first_contact, :ticks, :created_at)
	`, shot)
	if err != nil {
		return errors.Wrap(err, "insert shot")
	}

	if done {
		_, err = r.db.NamedExecContext(ctx, `
			UPDATE episodes SET shots=:shots, total_reward=:total_reward, done=:done, finished_at=NOW() WHERE id=:id
		`, models.Episode{ID: s.episodeID, Shots: ep.Shots, TotalReward: ep.TotalReward, Done: true})
		return errors.Wrap(err, "finish episode")
	}
	return nil
}

func (r *SQLRecorder) EpisodeClosed(ctx context.Context, s *Session, ep game.Episode) error {
	if s.episodeID == 0 {
		return nil
	}
	_, err := r.db.NamedExecContext(ctx, `
		UPDATE episodes SET shots=:shots, total_reward=:total_reward, finished_at=COALESCE(finished_at, NOW()) WHERE id=:id
	`, models.Episode{ID: s.episodeID, Shots: ep.Shots, TotalReward: ep.TotalReward})
	return errors.Wrap(err, "close episode")
}

func (r *SQLRecorder) Snapshot(ctx context.Context, s *Session, snap game.Snapshot) error {
	return nil
}

func (r *SQLRecorder) SessionClosed(ctx context.Context, s *Session) error {
	return nil
}
