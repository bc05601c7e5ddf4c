package session

import (
	"context"
	"encoding/json"
	"sync"
)

// MemoryStore keeps sessions in process memory. Used by tests and local runs
// without Redis.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]map[string]json.RawMessage
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]map[string]json.RawMessage)}
}

// Load returns the stored session or a new one when id is unknown
func (m *MemoryStore) Load(_ context.Context, id string) (*Session, error) {
	if id == "" {
		return New(), nil
	}

	m.mu.RLock()
	values, ok := m.data[id]
	m.mu.RUnlock()
	if !ok {
		return New(), nil
	}

	copied := make(map[string]json.RawMessage, len(values))
	for k, v := range values {
		copied[k] = v
	}
	return Restore(id, copied), nil
}

// Save stores a copy of the session values
func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	m.mu.Lock()
	m.data[s.ID] = s.Values()
	m.mu.Unlock()
	s.MarkSaved()
	return nil
}

// Destroy removes a session
func (m *MemoryStore) Destroy(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[id]; !ok {
		return ErrSessionNotFound
	}
	delete(m.data, id)
	return nil
}

// Len returns the number of stored sessions
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}
