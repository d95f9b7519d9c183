package state

import "sync"

type memoryStore[T any] struct {
	mu       sync.RWMutex
	sessions map[int64]T
}

// NewMemoryStore constructs an in-memory Store. Sessions do not survive a restart.
func NewMemoryStore[T any]() Store[T] {
	return &memoryStore[T]{
		sessions: make(map[int64]T),
	}
}

// Get returns the session for a user if it exists.
func (m *memoryStore[T]) Get(userID int64) (T, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, ok := m.sessions[userID]
	return session, ok
}

// Set replaces the session for a user.
func (m *memoryStore[T]) Set(userID int64, session T) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[userID] = session
}

// Clear removes the entire session for a user.
func (m *memoryStore[T]) Clear(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, userID)
}

// Len reports how many users currently hold a session.
func (m *memoryStore[T]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
