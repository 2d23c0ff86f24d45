package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ashureev/quizzical/internal/domain"
	"github.com/ashureev/quizzical/internal/shared"
	_ "modernc.org/sqlite"
)

// MemoryPath selects a private in-memory database.
const MemoryPath = ":memory:"

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (Repository, error) {
	var dsn string
	if dbPath == MemoryPath {
		dsn = MemoryPath
	} else {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
		// WAL mode for better concurrency.
		dsn = dbPath + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if dbPath == MemoryPath {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
		db.SetConnMaxLifetime(0)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS users (
		user_id TEXT PRIMARY KEY,
		username TEXT NOT NULL,
		last_seen_at INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS quiz_sessions (
		user_id TEXT NOT NULL,
		session_id TEXT NOT NULL,
		state_json TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (user_id, session_id)
	);
	CREATE INDEX IF NOT EXISTS idx_quiz_sessions_updated ON quiz_sessions(updated_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// GetUser retrieves a user by their user ID.
func (s *SQLiteStore) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	query := `
		SELECT user_id, username, last_seen_at, created_at, updated_at
		FROM users WHERE user_id = ?`

	var user domain.User
	var lastSeen, createdAt, updatedAt int64

	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&user.UserID, &user.Username, &lastSeen, &createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan user row: %w", err)
	}

	user.LastSeenAt = time.Unix(lastSeen, 0)
	user.CreatedAt = time.Unix(createdAt, 0)
	user.UpdatedAt = time.Unix(updatedAt, 0)
	return &user, nil
}

// UpsertUser creates or updates a user record.
func (s *SQLiteStore) UpsertUser(ctx context.Context, user *domain.User) error {
	query := `
	INSERT INTO users (user_id, username, last_seen_at, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(user_id) DO UPDATE SET
		username = excluded.username,
		last_seen_at = excluded.last_seen_at,
		updated_at = excluded.updated_at`

	_, err := s.db.ExecContext(ctx, query,
		user.UserID, user.Username, user.LastSeenAt.Unix(),
		user.CreatedAt.Unix(), user.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

// UpdateLastSeen updates the last_seen_at timestamp for a user.
func (s *SQLiteStore) UpdateLastSeen(ctx context.Context, userID string, lastSeen time.Time) error {
	query := `UPDATE users SET last_seen_at = ?, updated_at = ? WHERE user_id = ?`
	result, err := s.db.ExecContext(ctx, query, lastSeen.Unix(), time.Now().Unix(), userID)
	if err != nil {
		return fmt.Errorf("update last_seen: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		slog.Warn("UpdateLastSeen affected 0 rows", "user_id", userID)
	}
	return nil
}

// GetQuizSession retrieves a stored quiz session.
func (s *SQLiteStore) GetQuizSession(ctx context.Context, userID, sessionID string) (*domain.QuizSnapshot, error) {
	query := `
		SELECT user_id, session_id, state_json, created_at, updated_at
		FROM quiz_sessions WHERE user_id = ? AND session_id = ?`

	snap, err := scanSnapshot(s.db.QueryRowContext(ctx, query, userID, sessionID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan quiz session: %w", err)
	}
	return snap, nil
}

// SaveQuizSession creates or replaces a stored quiz session.
func (s *SQLiteStore) SaveQuizSession(ctx context.Context, snapshot *domain.QuizSnapshot) error {
	query := `
		INSERT INTO quiz_sessions (user_id, session_id, state_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id, session_id) DO UPDATE SET
			state_json = excluded.state_json,
			updated_at = excluded.updated_at`

	createdAt := snapshot.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	updatedAt := snapshot.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, query,
		snapshot.UserID, snapshot.SessionID, snapshot.StateJSON,
		createdAt.Unix(), updatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("save quiz session: %w", err)
	}
	return nil
}

// DeleteQuizSession removes a stored quiz session.
// Retries with exponential backoff on SQLITE_BUSY errors.
func (s *SQLiteStore) DeleteQuizSession(ctx context.Context, userID, sessionID string) error {
	maxRetries := 3
	baseDelay := 100 * time.Millisecond

	var err error
	for i := 0; i < maxRetries; i++ {
		_, err = s.db.ExecContext(ctx, `DELETE FROM quiz_sessions WHERE user_id = ? AND session_id = ?`, userID, sessionID)
		if err == nil {
			return nil
		}
		if !shared.IsSQLiteConflictError(err) || i == maxRetries-1 {
			break
		}

		delay := baseDelay * time.Duration(1<<i) // 100ms, 200ms
		slog.Debug("DeleteQuizSession hit SQLITE_BUSY, retrying",
			"user_id", userID,
			"session_id", sessionID,
			"attempt", i+1,
			"delay", delay)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("delete quiz session %s: %w", domain.SessionKey(userID, sessionID), err)
}

// GetExpiredQuizSessions lists sessions not updated within ttl.
func (s *SQLiteStore) GetExpiredQuizSessions(ctx context.Context, ttl time.Duration) ([]*domain.QuizSnapshot, error) {
	threshold := time.Now().Add(-ttl).Unix()
	query := `
		SELECT user_id, session_id, state_json, created_at, updated_at
		FROM quiz_sessions WHERE updated_at < ?`

	rows, err := s.db.QueryContext(ctx, query, threshold)
	if err != nil {
		return nil, fmt.Errorf("query expired quiz sessions: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close expired sessions rows", "error", closeErr)
		}
	}()

	var snapshots []*domain.QuizSnapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expired quiz session: %w", err)
		}
		snapshots = append(snapshots, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expired quiz sessions: %w", err)
	}
	return snapshots, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row rowScanner) (*domain.QuizSnapshot, error) {
	var snap domain.QuizSnapshot
	var createdAt, updatedAt int64
	if err := row.Scan(&snap.UserID, &snap.SessionID, &snap.StateJSON, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	snap.CreatedAt = time.Unix(createdAt, 0)
	snap.UpdatedAt = time.Unix(updatedAt, 0)
	return &snap, nil
}
