package domain

import (
	"context"
	"time"

	"card-manager/internal/auth"
)

// SessionTTL is fixed; sessions are never extended.
const SessionTTL = time.Hour

type Session struct {
	UserID         string    `json:"user_id"`
	Token          string    `json:"token"`
	ExpirationTime time.Time `json:"expiration_time"`
}

func NewSession(userID string) (*Session, error) {
	return NewSessionAt(userID, time.Now())
}

// NewSessionAt creates a session as if it had been issued at createdAt.
func NewSessionAt(userID string, createdAt time.Time) (*Session, error) {
	token, err := auth.GenerateSessionToken()
	if err != nil {
		return nil, err
	}
	return &Session{
		UserID:         userID,
		Token:          token,
		ExpirationTime: createdAt.Add(SessionTTL),
	}, nil
}

func (s *Session) IsValid() bool {
	return s.IsValidAt(time.Now())
}

func (s *Session) IsValidAt(now time.Time) bool {
	return now.Before(s.ExpirationTime)
}

// SessionStore keeps at most one session per user id. Lookups that miss return nil, nil.
type SessionStore interface {
	Put(ctx context.Context, session *Session) error
	Get(ctx context.Context, userID string) (*Session, error)
	FindByToken(ctx context.Context, token string) (*Session, error)
	Remove(ctx context.Context, userID string) error
}
