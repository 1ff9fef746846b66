// Package session hosts independent simulator envs for remote callers. Each session owns
// its env exclusively and serialises access with its own mutex; sessions never share a
// physics world.
package session

import (
	"context"
	"crypto/rand"
	"log"
	"math/big"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/playmatatu/poolsim/internal/config"
	"github.com/playmatatu/poolsim/internal/game"
)

var (
	ErrNotFound        = errors.New("session not found")
	ErrTooManySessions = errors.New("session limit reached")
	ErrInvalidRequest  = errors.New("invalid request")
)

// Session is one hosted env.
type Session struct {
	ID        string
	ClientID  string
	NumBalls  int
	CreatedAt time.Time

	mu        sync.Mutex
	env       *game.Env
	seed      *int64
	lastUsed  time.Time
	episodeID int64
	closed    bool
}

// Seed returns the seed of the current episode, if one was given.
func (s *Session) Seed() *int64 {
	return s.seed
}

// EpisodeID is the database id of the current episode, 0 when not recorded.
func (s *Session) EpisodeID() int64 {
	return s.episodeID
}

// SetEpisodeID is used by recorders that persist episodes.
func (s *Session) SetEpisodeID(id int64) {
	s.episodeID = id
}

// Info is the JSON view of a session.
type Info struct {
	ID              string    `json:"id"`
	ClientID        string    `json:"client_id,omitempty"`
	NumBalls        int       `json:"num_balls"`
	ObservationSize int       `json:"observation_size"`
	ActionCount     int       `json:"action_count"`
	State           string    `json:"state"`
	Shots           int       `json:"shots"`
	TotalReward     float64   `json:"total_reward"`
	CreatedAt       time.Time `json:"created_at"`
	LastUsed        time.Time `json:"last_used"`
}

// StepRequest selects either a discrete action or a continuous angle.
type StepRequest struct {
	Action *int     `json:"action"`
	Angle  *float64 `json:"angle"`
}

// StepResult is the outcome of one shot.
type StepResult struct {
	Observation []float64    `json:"observation"`
	Reward      float64      `json:"reward"`
	Done        bool         `json:"done"`
	Shot        game.ShotLog `json:"shot"`
}

// Manager owns every hosted session.
type Manager struct {
	cfg       *config.Config
	recorders []Recorder

	mu       sync.RWMutex
	sessions map[string]*Session
	onUpdate []func(id string, snap game.Snapshot)
	onClose  []func(id string)

	now func() time.Time
}

func NewManager(cfg *config.Config, recorders ...Recorder) *Manager {
	return &Manager{
		cfg:       cfg,
		recorders: recorders,
		sessions:  make(map[string]*Session),
		now:       time.Now,
	}
}

// OnUpdate registers fn to receive a snapshot after every reset and shot.
func (m *Manager) OnUpdate(fn func(id string, snap game.Snapshot)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onUpdate = append(m.onUpdate, fn)
}

// OnClose registers fn to run after a session is deleted or reaped.
func (m *Manager) OnClose(fn func(id string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onClose = append(m.onClose, fn)
}

// Create hosts a new env with n balls and returns it along with the first observation.
func (m *Manager) Create(ctx context.Context, clientID string, n int, seed *int64) (*Session, []float64, error) {
	if n <= 0 {
		n = m.cfg.NumBalls
	}
	if n < 2 || n > m.cfg.MaxBallsPerSession {
		return nil, nil, errors.Wrapf(ErrInvalidRequest, "num_balls must be between 2 and %d", m.cfg.MaxBallsPerSession)
	}

	if m.full() {
		return nil, nil, ErrTooManySessions
	}

	env, err := game.NewEnv(m.cfg.TableConfig(n))
	if err != nil {
		return nil, nil, errors.Wrap(ErrInvalidRequest, err.Error())
	}

	now := m.now()
	s := &Session{
		ID:        "ENV_" + generateID(10),
		ClientID:  clientID,
		NumBalls:  n,
		CreatedAt: now,
		env:       env,
		lastUsed:  now,
	}

	s.mu.Lock()
	obs := m.resetLocked(ctx, s, seed)
	s.mu.Unlock()

	// the early check is only a fast path; concurrent creates race to here
	m.mu.Lock()
	if m.cfg.MaxSessions > 0 && len(m.sessions) >= m.cfg.MaxSessions {
		m.mu.Unlock()
		m.close(ctx, s)
		return nil, nil, ErrTooManySessions
	}
	m.sessions[s.ID] = s
	m.mu.Unlock()

	log.Printf("[SESSION] Created %s (client=%q, balls=%d)", s.ID, clientID, n)
	return s, obs, nil
}

// Get returns a session by id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

func (m *Manager) full() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg.MaxSessions > 0 && len(m.sessions) >= m.cfg.MaxSessions
}

// lock returns the session with s.mu held. A session closed while the caller waited for
// the lock is reported as not found.
func (m *Manager) lock(id string) (*Session, error) {
	s, err := m.Get(id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrNotFound
	}
	return s, nil
}

// Reset starts a new episode on the session.
func (m *Manager) Reset(ctx context.Context, id string, seed *int64) ([]float64, error) {
	s, err := m.lock(id)
	if err != nil {
		return nil, err
	}
	defer s.mu.Unlock()
	return m.resetLocked(ctx, s, seed), nil
}

func (m *Manager) resetLocked(ctx context.Context, s *Session, seed *int64) []float64 {
	if s.episodeID != 0 {
		m.closeEpisode(ctx, s)
	}
	s.seed = seed
	s.lastUsed = m.now()
	obs := s.env.Reset(seed)

	for _, r := range m.recorders {
		if err := r.EpisodeStarted(ctx, s); err != nil {
			log.Printf("[SESSION] %s: episode start not recorded: %v", s.ID, err)
		}
	}
	m.publish(ctx, s)
	return obs
}

// Step plays one shot. Exactly one of req.Action and req.Angle must be set.
func (m *Manager) Step(ctx context.Context, id string, req StepRequest) (*StepResult, error) {
	if (req.Action == nil) == (req.Angle == nil) {
		return nil, errors.Wrap(ErrInvalidRequest, "exactly one of action or angle is required")
	}
	s, err := m.lock(id)
	if err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	if req.Action != nil && (*req.Action < 0 || *req.Action >= s.env.NumActions()) {
		// out-of-range actions are legal no-op shots for the env; remote callers get told
		log.Printf("[SESSION] %s: action %d outside [0,%d), playing as no-op", s.ID, *req.Action, s.env.NumActions())
	}

	wasDone := s.env.Done()
	var (
		obs    []float64
		reward float64
		done   bool
	)
	if req.Action != nil {
		obs, reward, done = s.env.Step(*req.Action)
	} else {
		obs, reward, done = s.env.StepAngle(*req.Angle)
	}
	s.lastUsed = m.now()

	res := &StepResult{Observation: obs, Reward: reward, Done: done}
	if wasDone {
		return res, nil
	}

	ep := s.env.Episode()
	res.Shot = ep.Last
	for _, r := range m.recorders {
		if err := r.ShotPlayed(ctx, s, ep, reward, done); err != nil {
			log.Printf("[SESSION] %s: shot not recorded: %v", s.ID, err)
		}
	}
	m.publish(ctx, s)
	return res, nil
}

// Observation returns the current observation.
func (m *Manager) Observation(id string) ([]float64, error) {
	s, err := m.lock(id)
	if err != nil {
		return nil, err
	}
	defer s.mu.Unlock()
	s.lastUsed = m.now()
	return s.env.Observation(), nil
}

// Snapshot returns the render snapshot.
func (m *Manager) Snapshot(id string) (game.Snapshot, error) {
	s, err := m.lock(id)
	if err != nil {
		return game.Snapshot{}, err
	}
	defer s.mu.Unlock()
	return s.env.Snapshot(), nil
}

// Plans resolves every action for the session's current table.
func (m *Manager) Plans(id string) ([]game.ShotPlan, error) {
	s, err := m.lock(id)
	if err != nil {
		return nil, err
	}
	defer s.mu.Unlock()
	s.lastUsed = m.now()
	return s.env.Plans(), nil
}

// Info describes a session.
func (m *Manager) Info(id string) (Info, error) {
	s, err := m.lock(id)
	if err != nil {
		return Info{}, err
	}
	defer s.mu.Unlock()
	return s.info(), nil
}

// List describes every session, optionally filtered by client.
func (m *Manager) List(clientID string) []Info {
	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		if clientID == "" || s.ClientID == clientID {
			sessions = append(sessions, s)
		}
	}
	m.mu.RUnlock()

	out := make([]Info, 0, len(sessions))
	for _, s := range sessions {
		s.mu.Lock()
		if !s.closed {
			out = append(out, s.info())
		}
		s.mu.Unlock()
	}
	return out
}

func (s *Session) info() Info {
	ep := s.env.Episode()
	return Info{
		ID:              s.ID,
		ClientID:        s.ClientID,
		NumBalls:        s.NumBalls,
		ObservationSize: s.env.ObservationSize(),
		ActionCount:     s.env.NumActions(),
		State:           ep.State.String(),
		Shots:           ep.Shots,
		TotalReward:     ep.TotalReward,
		CreatedAt:       s.CreatedAt,
		LastUsed:        s.lastUsed,
	}
}

// Delete closes and forgets a session.
func (m *Manager) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()
	if !ok {
		return ErrNotFound
	}

	m.close(ctx, s)
	log.Printf("[SESSION] Deleted %s", id)
	return nil
}

func (m *Manager) close(ctx context.Context, s *Session) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	m.closeEpisode(ctx, s)
	s.env.Close()
	for _, r := range m.recorders {
		if err := r.SessionClosed(ctx, s); err != nil {
			log.Printf("[SESSION] %s: close not recorded: %v", s.ID, err)
		}
	}
	s.mu.Unlock()

	m.mu.RLock()
	hooks := m.onClose
	m.mu.RUnlock()
	for _, fn := range hooks {
		fn(s.ID)
	}
}

func (m *Manager) closeEpisode(ctx context.Context, s *Session) {
	ep := s.env.Episode()
	for _, r := range m.recorders {
		if err := r.EpisodeClosed(ctx, s, ep); err != nil {
			log.Printf("[SESSION] %s: episode close not recorded: %v", s.ID, err)
		}
	}
	s.episodeID = 0
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *Manager) publish(ctx context.Context, s *Session) {
	snap := s.env.Snapshot()
	for _, r := range m.recorders {
		if err := r.Snapshot(ctx, s, snap); err != nil {
			log.Printf("[SESSION] %s: snapshot not stored: %v", s.ID, err)
		}
	}

	m.mu.RLock()
	hooks := m.onUpdate
	m.mu.RUnlock()
	for _, fn := range hooks {
		fn(s.ID, snap)
	}
}

// generateID generates a random alphanumeric ID
func generateID(length int) string {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	result := make([]byte, length)
	for i := range result {
		n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		result[i] = charset[n.Int64()]
	}
	return string(result)
}
