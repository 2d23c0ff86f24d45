package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/ashureev/quizzical/internal/domain"
)

func newTestStore(t *testing.T) Repository {
	t.Helper()
	repo, err := NewSQLite(MemoryPath)
	if err != nil {
		t.Fatalf("NewSQLite() error = %v", err)
	}
	t.Cleanup(func() {
		if err := repo.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return repo
}

func TestUserRoundTrip(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	got, err := repo.GetUser(ctx, "anon_missing")
	if err != nil || got != nil {
		t.Fatalf("Expected nil, nil for missing user, got %v, %v", got, err)
	}

	now := time.Unix(1_700_000_000, 0)
	user := &domain.User{UserID: "anon_1", Username: "anon-1", LastSeenAt: now, CreatedAt: now, UpdatedAt: now}
	if err := repo.UpsertUser(ctx, user); err != nil {
		t.Fatalf("UpsertUser() error = %v", err)
	}

	later := now.Add(time.Hour)
	if err := repo.UpdateLastSeen(ctx, "anon_1", later); err != nil {
		t.Fatalf("UpdateLastSeen() error = %v", err)
	}

	got, err = repo.GetUser(ctx, "anon_1")
	if err != nil {
		t.Fatalf("GetUser() error = %v", err)
	}
	if got.Username != "anon-1" || !got.LastSeenAt.Equal(later) {
		t.Errorf("Unexpected user: %+v", got)
	}
}

func TestQuizSessionLifecycle(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	snap := &domain.QuizSnapshot{UserID: "anon_1", SessionID: "tab-1", StateJSON: `{"screen":"start"}`}
	if err := repo.SaveQuizSession(ctx, snap); err != nil {
		t.Fatalf("SaveQuizSession() error = %v", err)
	}

	snap.StateJSON = `{"screen":"quiz"}`
	if err := repo.SaveQuizSession(ctx, snap); err != nil {
		t.Fatalf("SaveQuizSession() update error = %v", err)
	}

	got, err := repo.GetQuizSession(ctx, "anon_1", "tab-1")
	if err != nil {
		t.Fatalf("GetQuizSession() error = %v", err)
	}
	if got == nil || got.StateJSON != `{"screen":"quiz"}` {
		t.Fatalf("Unexpected snapshot: %+v", got)
	}

	if err := repo.DeleteQuizSession(ctx, "anon_1", "tab-1"); err != nil {
		t.Fatalf("DeleteQuizSession() error = %v", err)
	}
	got, err = repo.GetQuizSession(ctx, "anon_1", "tab-1")
	if err != nil || got != nil {
		t.Fatalf("Expected deleted snapshot, got %v, %v", got, err)
	}
}

func TestGetExpiredQuizSessions(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	old := time.Now().Add(-2 * time.Hour)
	stale := &domain.QuizSnapshot{UserID: "anon_1", SessionID: "old", StateJSON: "{}", CreatedAt: old, UpdatedAt: old}
	fresh := &domain.QuizSnapshot{UserID: "anon_1", SessionID: "new", StateJSON: "{}"}
	for _, s := range []*domain.QuizSnapshot{stale, fresh} {
		if err := repo.SaveQuizSession(ctx, s); err != nil {
			t.Fatalf("SaveQuizSession() error = %v", err)
		}
	}

	expired, err := repo.GetExpiredQuizSessions(ctx, time.Hour)
	if err != nil {
		t.Fatalf("GetExpiredQuizSessions() error = %v", err)
	}
	if len(expired) != 1 || expired[0].SessionID != "old" {
		t.Errorf("Expected only the stale session, got %+v", expired)
	}
}

func TestNewSQLiteOnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "quiz.db")
	repo, err := NewSQLite(path)
	if err != nil {
		t.Fatalf("NewSQLite() error = %v", err)
	}
	defer repo.Close()

	if err := repo.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}
