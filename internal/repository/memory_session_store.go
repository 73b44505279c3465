package repository

import (
	"context"
	"sync"

	"card-manager/internal/domain"
)

// MemorySessionStore keeps sessions in a map keyed by user id.
// Entries are copied in and out so callers never share the stored value.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]domain.Session
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]domain.Session)}
}

var _ domain.SessionStore = (*MemorySessionStore)(nil)

func (m *MemorySessionStore) Put(_ context.Context, session *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.UserID] = *session
	return nil
}

func (m *MemorySessionStore) Get(_ context.Context, userID string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[userID]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

// FindByToken scans every entry; there is no token index.
func (m *MemorySessionStore) FindByToken(_ context.Context, token string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.Token == token {
			cp := s
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MemorySessionStore) Remove(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
	return nil
}

// Len reports how many sessions are stored, expired ones included.
func (m *MemorySessionStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
