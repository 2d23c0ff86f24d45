// Package session keeps one quiz controller per anonymous user and browser
// tab, snapshots their state to the store, and evicts idle sessions.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ashureev/quizzical/internal/domain"
	"github.com/ashureev/quizzical/internal/quiz"
	"github.com/ashureev/quizzical/internal/store"
	"github.com/ashureev/quizzical/internal/trivia"
)

const saveTimeout = 5 * time.Second

// Manager owns the live quiz controllers.
type Manager struct {
	repo   store.Repository
	source trivia.Source
	logger *slog.Logger

	mu     sync.Mutex
	active map[string]*quiz.Controller
}

// NewManager creates a new session manager.
func NewManager(repo store.Repository, source trivia.Source, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		repo:   repo,
		source: source,
		logger: logger,
		active: make(map[string]*quiz.Controller),
	}
}

// Get returns the controller for a user/tab, restoring it from the store
// or creating a fresh one.
func (m *Manager) Get(ctx context.Context, userID, sessionID string) (*quiz.Controller, error) {
	key := domain.SessionKey(userID, sessionID)

	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.active[key]; ok {
		return c, nil
	}

	initial := quiz.NewState()
	snap, err := m.repo.GetQuizSession(ctx, userID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load quiz session: %w", err)
	}
	restored := false
	if snap != nil {
		if err := json.Unmarshal([]byte(snap.StateJSON), &initial); err != nil {
			m.logger.Warn("Discarding unreadable quiz snapshot", "error", err, "user_id", userID, "session_id", sessionID)
			initial = quiz.NewState()
		} else {
			restored = true
		}
	}

	createdAt := time.Now()
	if snap != nil {
		createdAt = snap.CreatedAt
	}
	c := quiz.NewController(m.source, initial, m.saver(userID, sessionID, createdAt), m.logger.With("user_id", userID, "session_id", sessionID))
	m.active[key] = c

	if !restored {
		// Persist the fresh session so the reaper can find it.
		m.save(userID, sessionID, createdAt, c.State())
	}

	m.logger.Info("Quiz session opened", "user_id", userID, "session_id", sessionID, "restored", restored)
	return c, nil
}

// Close drops the live controller for a user/tab.
func (m *Manager) Close(userID, sessionID string) {
	key := domain.SessionKey(userID, sessionID)

	m.mu.Lock()
	c, ok := m.active[key]
	delete(m.active, key)
	m.mu.Unlock()

	if ok {
		c.Close()
		m.logger.Info("Quiz session closed", "user_id", userID, "session_id", sessionID)
	}
}

// CloseAll drops every live controller.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	active := m.active
	m.active = make(map[string]*quiz.Controller)
	m.mu.Unlock()

	for _, c := range active {
		c.Close()
	}
}

// Active returns the number of live controllers.
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.active)
}

func (m *Manager) saver(userID, sessionID string, createdAt time.Time) quiz.ChangeFunc {
	return func(s quiz.State) {
		m.save(userID, sessionID, createdAt, s)
	}
}

func (m *Manager) save(userID, sessionID string, createdAt time.Time, s quiz.State) {
	data, err := json.Marshal(s)
	if err != nil {
		m.logger.Error("Failed to encode quiz session", "error", err, "user_id", userID, "session_id", sessionID)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	err = m.repo.SaveQuizSession(ctx, &domain.QuizSnapshot{
		UserID:    userID,
		SessionID: sessionID,
		StateJSON: string(data),
		CreatedAt: createdAt,
		UpdatedAt: time.Now(),
	})
	if err != nil {
		m.logger.Error("Failed to save quiz session", "error", err, "user_id", userID, "session_id", sessionID)
	}
}
