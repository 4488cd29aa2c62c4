package core

// sweeper.go evicts idle sessions.
//
// Sessions live only in memory. A viewer that is closed without an explicit
// DELETE would otherwise keep its workbook forever, so a background loop
// drops sessions that have not been touched for longer than the TTL.

import (
	"context"
	"log/slog"
	"time"
)

// SweepConfig holds configuration for the session sweeper.
type SweepConfig struct {
	TTL      time.Duration // Idle time before a session is evicted (default: 1h)
	Interval time.Duration // How often to sweep (default: 5m)
}

// StartSessionSweeper evicts idle sessions every Interval until ctx is
// cancelled. It blocks; run it in a goroutine.
func (s *Service) StartSessionSweeper(ctx context.Context, cfg SweepConfig) {
	if cfg.TTL <= 0 {
		cfg.TTL = time.Hour
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}

	slog.Info("session sweeper started", "ttl", cfg.TTL, "interval", cfg.Interval)

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("session sweeper stopped")
			return
		case <-ticker.C:
			s.SweepIdle(cfg.TTL)
		}
	}
}

// SweepIdle removes sessions idle for longer than ttl and returns how many
// were removed.
func (s *Service) SweepIdle(ttl time.Duration) int {
	cutoff := s.now().Add(-ttl)

	s.mu.Lock()
	removed := 0
	for id, sess := range s.sessions {
		if sess.idleSince().Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	n := len(s.sessions)
	s.mu.Unlock()

	if removed > 0 {
		s.recorder.SetSessions(n)
		slog.Info("idle sessions evicted", "evicted", removed, "remaining", n)
	}
	return removed
}
