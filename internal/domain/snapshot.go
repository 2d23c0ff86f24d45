package domain

import (
	"time"
)

// QuizSnapshot is the stored form of one tab's quiz session.
type QuizSnapshot struct {
	UserID    string
	SessionID string
	StateJSON string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Key returns the composite identifier of the snapshot.
func (s *QuizSnapshot) Key() string {
	return SessionKey(s.UserID, s.SessionID)
}

// SessionKey joins a user ID and tab session ID.
func SessionKey(userID, sessionID string) string {
	return userID + ":" + sessionID
}
