package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps sessions in process memory.  Sessions are lost on
// restart; idle ones are released by Sweep.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]Session)}
}

func (m *MemoryStore) Get(_ context.Context, sender string) (Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[sender], nil
}

func (m *MemoryStore) Put(_ context.Context, sender string, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sender] = s
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, sender string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sender)
	return nil
}

func (m *MemoryStore) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions = make(map[string]Session)
	return nil
}

// Sweep removes sessions whose LastActive is before idleSince and returns
// how many were dropped.
func (m *MemoryStore) Sweep(_ context.Context, idleSince time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k, s := range m.sessions {
		if s.LastActive.Before(idleSince) {
			delete(m.sessions, k)
			n++
		}
	}
	return n, nil
}

// Len returns the number of live sessions.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
