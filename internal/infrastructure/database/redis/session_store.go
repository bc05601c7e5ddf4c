package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/your-org/storefront-cart/internal/domain/session"
)

// SessionStore keeps web sessions as JSON documents under <prefix><id>
type SessionStore struct {
	rdb    redis.Cmdable
	prefix string
	ttl    time.Duration
}

// NewSessionStore creates a Redis-backed session store
func NewSessionStore(rdb redis.Cmdable, prefix string, ttl time.Duration) *SessionStore {
	return &SessionStore{
		rdb:    rdb,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (s *SessionStore) key(id string) string {
	return s.prefix + id
}

// Load fetches a session. Unknown or expired ids start a new session.
func (s *SessionStore) Load(ctx context.Context, id string) (*session.Session, error) {
	if id == "" {
		return session.New(), nil
	}

	data, err := s.rdb.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return session.New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var values map[string]json.RawMessage
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("failed to decode session %s: %w", id, err)
	}

	return session.Restore(id, values), nil
}

// Save writes the session and refreshes its expiry
func (s *SessionStore) Save(ctx context.Context, sess *session.Session) error {
	data, err := json.Marshal(sess.Values())
	if err != nil {
		return fmt.Errorf("failed to encode session %s: %w", sess.ID, err)
	}

	if err := s.rdb.Set(ctx, s.key(sess.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session %s: %w", sess.ID, err)
	}

	sess.MarkSaved()
	return nil
}

// Destroy deletes a session
func (s *SessionStore) Destroy(ctx context.Context, id string) error {
	n, err := s.rdb.Del(ctx, s.key(id)).Result()
	if err != nil {
		return fmt.Errorf("failed to destroy session %s: %w", id, err)
	}
	if n == 0 {
		return session.ErrSessionNotFound
	}
	return nil
}
