// internal/domain/session/session.go
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// ErrSessionNotFound is returned by stores when no data exists for an id
var ErrSessionNotFound = errors.New("session not found")

// Session is a request-scoped bag of JSON values keyed by name. Mutations mark
// it modified; only modified sessions are written back to the store.
type Session struct {
	ID       string
	values   map[string]json.RawMessage
	modified bool
	isNew    bool
}

// Store persists sessions between requests
type Store interface {
	Load(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Destroy(ctx context.Context, id string) error
}

// New creates an empty session with a fresh id
func New() *Session {
	return &Session{
		ID:     uuid.New().String(),
		values: make(map[string]json.RawMessage),
		isNew:  true,
	}
}

// Restore rebuilds a persisted session
func Restore(id string, values map[string]json.RawMessage) *Session {
	if values == nil {
		values = make(map[string]json.RawMessage)
	}
	return &Session{ID: id, values: values}
}

// Get decodes the value stored under key into dest. It reports false when the
// key is absent.
func (s *Session) Get(key string, dest interface{}) (bool, error) {
	raw, ok := s.values[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return true, fmt.Errorf("failed to decode session key %q: %w", key, err)
	}
	return true, nil
}

// Set stores value under key and marks the session modified
func (s *Session) Set(key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode session key %q: %w", key, err)
	}
	s.values[key] = raw
	s.modified = true
	return nil
}

// Delete removes key and reports whether it was present
func (s *Session) Delete(key string) bool {
	if _, ok := s.values[key]; !ok {
		return false
	}
	delete(s.values, key)
	s.modified = true
	return true
}

// Has reports whether key is set
func (s *Session) Has(key string) bool {
	_, ok := s.values[key]
	return ok
}

// Keys returns the stored keys in sorted order
func (s *Session) Keys() []string {
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Values returns a copy of the raw values for persistence
func (s *Session) Values() map[string]json.RawMessage {
	out := make(map[string]json.RawMessage, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// MarkModified forces the session to be persisted at the end of the request
func (s *Session) MarkModified() {
	s.modified = true
}

// Modified reports whether the session needs saving
func (s *Session) Modified() bool {
	return s.modified
}

// IsNew reports whether the session was created during this request
func (s *Session) IsNew() bool {
	return s.isNew
}

// MarkSaved is called by stores after a successful write
func (s *Session) MarkSaved() {
	s.modified = false
	s.isNew = false
}
