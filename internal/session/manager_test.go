package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/playmatatu/poolsim/internal/config"
	"github.com/playmatatu/poolsim/internal/game"
)

func testConfig() *config.Config {
	return &config.Config{
		Environment:        "test",
		NumBalls:           3,
		MaxBallsPerSession: 8,
		MaxSessions:        4,
		ShotImpulse:        game.ShotImpulse,
		FrictionMu:         game.FrictionMu,
		FrictionAlpha:      game.FrictionAlpha,
		FrictionBeta:       game.FrictionBeta,
		TimeStep:           game.TimeStep,
		BonusUnit:          game.BonusUnit,
		CuePenalty:         game.CuePenalty,
		TimePenalty:        game.TimePenalty,
	}
}

type fakeRecorder struct {
	mu        sync.Mutex
	started   int
	shots     int
	closed    int
	snapshots int
	nextID    int64
}

func (f *fakeRecorder) EpisodeStarted(ctx context.Context, s *Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started++
	f.nextID++
	s.SetEpisodeID(f.nextID)
	return nil
}

func (f *fakeRecorder) ShotPlayed(ctx context.Context, s *Session, ep game.Episode, reward float64, done bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.shots++
	return nil
}

func (f *fakeRecorder) EpisodeClosed(ctx context.Context, s *Session, ep game.Episode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return nil
}

func (f *fakeRecorder) Snapshot(ctx context.Context, s *Session, snap game.Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshots++
	return errors.New("snapshot store down")
}

func (f *fakeRecorder) SessionClosed(ctx context.Context, s *Session) error {
	return nil
}

func intPtr(v int) *int { return &v }

func TestCreateStepDelete(t *testing.T) {
	ctx := context.Background()
	rec := &fakeRecorder{}
	m := NewManager(testConfig(), rec)

	updates := 0
	m.OnUpdate(func(id string, snap game.Snapshot) { updates++ })

	seed := int64(4)
	s, obs, err := m.Create(ctx, "trainer", 3, &seed)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	info, err := m.Info(s.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(obs) != info.ObservationSize {
		t.Errorf("len(obs) = %d, want %d", len(obs), info.ObservationSize)
	}
	if info.ActionCount != 2*6 {
		t.Errorf("action count = %d, want 12", info.ActionCount)
	}
	if s.EpisodeID() != 1 || *s.Seed() != 4 {
		t.Errorf("episode id = %d, seed = %v", s.EpisodeID(), s.Seed())
	}

	res, err := m.Step(ctx, s.ID, StepRequest{Action: intPtr(0)})
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if len(res.Observation) != info.ObservationSize {
		t.Errorf("step obs len = %d", len(res.Observation))
	}
	if rec.shots != 1 {
		t.Errorf("recorded shots = %d, want 1", rec.shots)
	}

	if err := m.Delete(ctx, s.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := m.Get(s.ID); err != ErrNotFound {
		t.Errorf("Get after delete = %v, want ErrNotFound", err)
	}
	if rec.closed != 1 {
		t.Errorf("closed episodes = %d, want 1", rec.closed)
	}
	if updates != 2 || rec.snapshots != 2 {
		t.Errorf("updates = %d, snapshots = %d, want 2 each", updates, rec.snapshots)
	}
}

func TestStepRequiresExactlyOneInput(t *testing.T) {
	ctx := context.Background()
	m := NewManager(testConfig())
	s, _, err := m.Create(ctx, "", 2, nil)
	if err != nil {
		t.Fatal(err)
	}

	angle := 0.5
	for _, req := range []StepRequest{{}, {Action: intPtr(0), Angle: &angle}} {
		if _, err := m.Step(ctx, s.ID, req); errors.Cause(err) != ErrInvalidRequest {
			t.Errorf("Step(%+v) err = %v, want ErrInvalidRequest", req, err)
		}
	}
	if _, err := m.Step(ctx, s.ID, StepRequest{Angle: &angle}); err != nil {
		t.Errorf("angle step: %v", err)
	}
	if _, err := m.Step(ctx, "ENV_MISSING", StepRequest{Angle: &angle}); err != ErrNotFound {
		t.Errorf("unknown env err = %v, want ErrNotFound", err)
	}
}

func TestCreateValidatesBallCount(t *testing.T) {
	m := NewManager(testConfig())
	for _, n := range []int{1, 9, 100} {
		if _, _, err := m.Create(context.Background(), "", n, nil); errors.Cause(err) != ErrInvalidRequest {
			t.Errorf("n=%d: err = %v, want ErrInvalidRequest", n, err)
		}
	}
	s, _, err := m.Create(context.Background(), "", 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	if s.NumBalls != 3 {
		t.Errorf("default balls = %d, want 3", s.NumBalls)
	}
}

func TestSessionLimit(t *testing.T) {
	m := NewManager(testConfig())
	for i := 0; i < 4; i++ {
		if _, _, err := m.Create(context.Background(), "", 2, nil); err != nil {
			t.Fatal(err)
		}
	}
	if _, _, err := m.Create(context.Background(), "", 2, nil); err != ErrTooManySessions {
		t.Errorf("err = %v, want ErrTooManySessions", err)
	}
}

func TestResetRecordsNewEpisode(t *testing.T) {
	ctx := context.Background()
	rec := &fakeRecorder{}
	m := NewManager(testConfig(), rec)
	s, first, err := m.Create(ctx, "", 3, nil)
	if err != nil {
		t.Fatal(err)
	}

	seed := int64(12)
	obs, err := m.Reset(ctx, s.ID, &seed)
	if err != nil {
		t.Fatal(err)
	}
	if len(obs) != len(first) {
		t.Errorf("obs len changed across reset: %d vs %d", len(obs), len(first))
	}
	if rec.started != 2 || rec.closed != 1 {
		t.Errorf("started=%d closed=%d, want 2/1", rec.started, rec.closed)
	}
	if s.EpisodeID() != 2 {
		t.Errorf("episode id = %d, want 2", s.EpisodeID())
	}
}

func TestReapIdle(t *testing.T) {
	ctx := context.Background()
	m := NewManager(testConfig())
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	old, _, err := m.Create(ctx, "", 2, nil)
	if err != nil {
		t.Fatal(err)
	}
	now = now.Add(20 * time.Minute)
	fresh, _, err := m.Create(ctx, "", 2, nil)
	if err != nil {
		t.Fatal(err)
	}

	if n := m.ReapIdle(ctx, 10*time.Minute); n != 1 {
		t.Fatalf("reaped %d, want 1", n)
	}
	if _, err := m.Get(old.ID); err != ErrNotFound {
		t.Error("idle session should be gone")
	}
	if _, err := m.Get(fresh.ID); err != nil {
		t.Error("fresh session should survive")
	}
}

func TestListFiltersByClient(t *testing.T) {
	ctx := context.Background()
	m := NewManager(testConfig())
	m.Create(ctx, "a", 2, nil)
	m.Create(ctx, "a", 2, nil)
	m.Create(ctx, "b", 2, nil)

	if got := len(m.List("a")); got != 2 {
		t.Errorf("List(a) = %d, want 2", got)
	}
	if got := len(m.List("")); got != 3 {
		t.Errorf("List() = %d, want 3", got)
	}

	m.CloseAll(ctx)
	if m.Count() != 0 {
		t.Errorf("count after CloseAll = %d", m.Count())
	}
}

func TestConcurrentStepsOnSeparateSessions(t *testing.T) {
	ctx := context.Background()
	m := NewManager(testConfig())
	var ids []string
	for i := 0; i < 3; i++ {
		s, _, err := m.Create(ctx, "", 3, nil)
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, s.ID)
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			for a := 0; a < 3; a++ {
				if _, err := m.Step(ctx, id, StepRequest{Action: intPtr(a)}); err != nil {
					t.Errorf("step %s: %v", id, err)
				}
			}
		}(id)
	}
	wg.Wait()
}

func TestDeleteRunsCloseHooks(t *testing.T) {
	ctx := context.Background()
	m := NewManager(testConfig())
	var closed []string
	m.OnClose(func(id string) { closed = append(closed, id) })

	s, _, err := m.Create(ctx, "", 2, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Delete(ctx, s.ID); err != nil {
		t.Fatal(err)
	}
	if err := m.Delete(ctx, s.ID); err != ErrNotFound {
		t.Errorf("second delete = %v, want ErrNotFound", err)
	}
	if len(closed) != 1 || closed[0] != s.ID {
		t.Errorf("close hooks saw %v", closed)
	}
}

func TestStepOnSessionClosedWhileWaiting(t *testing.T) {
	ctx := context.Background()
	m := NewManager(testConfig())
	s, _, err := m.Create(ctx, "", 3, nil)
	if err != nil {
		t.Fatal(err)
	}

	s.mu.Lock()
	errs := make(chan error, 1)
	go func() {
		_, err := m.Step(ctx, s.ID, StepRequest{Action: intPtr(0)})
		errs <- err
	}()
	time.Sleep(20 * time.Millisecond)

	// tear the session down the way close does while the step waits for the lock
	m.mu.Lock()
	delete(m.sessions, s.ID)
	m.mu.Unlock()
	s.closed = true
	s.env.Close()
	s.mu.Unlock()

	select {
	case err := <-errs:
		if err != ErrNotFound {
			t.Errorf("Step err = %v, want ErrNotFound", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Step did not return")
	}

	if _, err := m.Observation(s.ID); err != ErrNotFound {
		t.Errorf("Observation err = %v, want ErrNotFound", err)
	}
}

func TestDeleteRacingSteps(t *testing.T) {
	ctx := context.Background()
	m := NewManager(testConfig())
	s, _, err := m.Create(ctx, "", 3, nil)
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(a int) {
			defer wg.Done()
			if _, err := m.Step(ctx, s.ID, StepRequest{Action: intPtr(a % 6)}); err != nil && err != ErrNotFound {
				t.Errorf("step: %v", err)
			}
			if _, err := m.Plans(s.ID); err != nil && err != ErrNotFound {
				t.Errorf("plans: %v", err)
			}
		}(i)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		m.Delete(ctx, s.ID)
	}()
	wg.Wait()

	if m.Count() != 0 {
		t.Errorf("count = %d, want 0", m.Count())
	}
}

func TestConcurrentCreateRespectsLimit(t *testing.T) {
	ctx := context.Background()
	m := NewManager(testConfig())

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := m.Create(ctx, "", 2, nil)
			if err == nil {
				mu.Lock()
				created++
				mu.Unlock()
			} else if err != ErrTooManySessions {
				t.Errorf("create: %v", err)
			}
		}()
	}
	wg.Wait()

	if created != 4 || m.Count() != 4 {
		t.Errorf("created %d, count %d, want 4 each", created, m.Count())
	}
}
