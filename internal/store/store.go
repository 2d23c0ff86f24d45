// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"github.com/ashureev/quizzical/internal/domain"
)

// Repository defines the interface for persisting users and quiz sessions.
type Repository interface {
	// GetUser retrieves a user by their user ID. It returns nil, nil when absent.
	GetUser(ctx context.Context, userID string) (*domain.User, error)

	// UpsertUser creates or updates a user record.
	UpsertUser(ctx context.Context, user *domain.User) error

	// UpdateLastSeen updates the last_seen_at timestamp for a user.
	UpdateLastSeen(ctx context.Context, userID string, lastSeen time.Time) error

	// GetQuizSession retrieves a stored quiz session. It returns nil, nil when absent.
	GetQuizSession(ctx context.Context, userID, sessionID string) (*domain.QuizSnapshot, error)

	// SaveQuizSession creates or replaces a stored quiz session.
	SaveQuizSession(ctx context.Context, snapshot *domain.QuizSnapshot) error

	// DeleteQuizSession removes a stored quiz session.
	DeleteQuizSession(ctx context.Context, userID, sessionID string) error

	// GetExpiredQuizSessions lists sessions not updated within ttl.
	GetExpiredQuizSessions(ctx context.Context, ttl time.Duration) ([]*domain.QuizSnapshot, error)

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
