package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/ashureev/quizzical/internal/store"
)

// StartReaper runs a background goroutine that periodically removes quiz
// sessions idle for longer than ttl.
func StartReaper(ctx context.Context, repo store.Repository, mgr *Manager, ttl, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		slog.Info("Session reaper started", "interval", interval, "ttl", ttl)

		for {
			select {
			case <-ticker.C:
				reapExpiredSessions(ctx, repo, mgr, ttl)
			case <-ctx.Done():
				slog.Info("Session reaper shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}

func reapExpiredSessions(ctx context.Context, repo store.Repository, mgr *Manager, ttl time.Duration) int {
	expired, err := repo.GetExpiredQuizSessions(ctx, ttl)
	if err != nil {
		slog.Error("Session reaper failed to list expired sessions", "error", err)
		return 0
	}
	if len(expired) == 0 {
		return 0
	}

	slog.Info("Session reaper found expired sessions", "count", len(expired))

	reaped := 0
	for _, snap := range expired {
		mgr.Close(snap.UserID, snap.SessionID)

		if err := repo.DeleteQuizSession(ctx, snap.UserID, snap.SessionID); err != nil {
			slog.Warn("Session reaper failed to delete session",
				"error", err,
				"user_id", snap.UserID,
				"session_id", snap.SessionID)
			continue
		}
		reaped++
	}

	slog.Info("Session reaper cleanup completed", "reaped", reaped)
	return reaped
}
