package auth

import (
	"context"
	"sync"
)

// MemoryStore keeps users in process memory. Accounts are lost on restart.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]User
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[string]User)}
}

func (m *MemoryStore) CreateUser(_ context.Context, u User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.Username]; ok {
		return ErrUsernameTaken
	}
	m.users[u.Username] = u
	return nil
}

func (m *MemoryStore) GetUser(_ context.Context, username string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[username]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

// Count returns the number of stored users.
func (m *MemoryStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.users)
}
