package session

import (
	"context"
	"log"
	"time"
)

// ReapIdle closes every session untouched for longer than maxIdle and returns how many
// were removed.
func (m *Manager) ReapIdle(ctx context.Context, maxIdle time.Duration) int {
	cutoff := m.now().Add(-maxIdle)

	// s.mu is never taken while holding m.mu; publish locks in the other order
	m.mu.RLock()
	all := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		all = append(all, s)
	}
	m.mu.RUnlock()

	var stale []*Session
	for _, s := range all {
		s.mu.Lock()
		idle := s.lastUsed.Before(cutoff)
		s.mu.Unlock()
		if !idle {
			continue
		}
		m.mu.Lock()
		if _, ok := m.sessions[s.ID]; ok {
			delete(m.sessions, s.ID)
			stale = append(stale, s)
		}
		m.mu.Unlock()
	}

	for _, s := range stale {
		m.close(ctx, s)
		log.Printf("[SESSION] Reaped idle session %s", s.ID)
	}
	return len(stale)
}

// StartReaper runs ReapIdle on a ticker until ctx is cancelled.
func (m *Manager) StartReaper(ctx context.Context, interval, maxIdle time.Duration) {
	if interval <= 0 || maxIdle <= 0 {
		log.Println("[SESSION] Reaper disabled (interval or idle timeout not set)")
		return
	}

	log.Printf("[SESSION] Reaper started (interval=%s, idle=%s)", interval, maxIdle)
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Println("[SESSION] Reaper stopping")
				return
			case <-ticker.C:
				if n := m.ReapIdle(ctx, maxIdle); n > 0 {
					log.Printf("[SESSION] Reaped %d idle sessions, %d remaining", n, m.Count())
				}
			}
		}
	}()
}

// CloseAll closes every session; used on shutdown.
func (m *Manager) CloseAll(ctx context.Context) {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for id, s := range m.sessions {
		sessions = append(sessions, s)
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	for _, s := range sessions {
		m.close(ctx, s)
	}
	log.Printf("[SESSION] Closed %d sessions", len(sessions))
}
