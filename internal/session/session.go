// Package session keeps diner table sessions in Redis. A session binds a
// browser to one dining table until it expires or is ended.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned for unknown, ended or expired sessions.
var ErrNotFound = errors.New("session not found or expired")

// Session is the server-side record of a diner's table visit.
type Session struct {
	ID          uuid.UUID `json:"id"`
	TableID     uuid.UUID `json:"tableId"`
	TableNumber int32     `json:"tableNumber"`
	CreatedAt   time.Time `json:"createdAt"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// Key returns the Redis key the session is stored under.
func Key(id uuid.UUID) string {
	return "session:" + id.String()
}

// Store creates and loads sessions.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
	now func() time.Time
}

// NewStore creates a Store whose sessions live for ttl.
func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl, now: time.Now}
}

// Create opens a new session for the given table.
func (s *Store) Create(ctx context.Context, tableID uuid.UUID, tableNumber int32) (*Session, error) {
	now := s.now().UTC()
	sess := &Session{
		ID:          uuid.New(),
		TableID:     tableID,
		TableNumber: tableNumber,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.ttl),
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return nil, fmt.Errorf("marshal session: %w", err)
	}
	if err := s.rdb.Set(ctx, Key(sess.ID), data, s.ttl).Err(); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	return sess, nil
}

// Get loads a live session.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*Session, error) {
	val, err := s.rdb.Get(ctx, Key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(val, &sess); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	if !s.now().Before(sess.ExpiresAt) {
		return nil, ErrNotFound
	}
	return &sess, nil
}

// Delete ends the session. Deleting an unknown session is not an error.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.rdb.Del(ctx, Key(id)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

type contextKey struct{}

// WithSession stores the session in ctx.
func WithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, sess)
}

// FromContext returns the session stored by WithSession.
func FromContext(ctx context.Context) (*Session, bool) {
	sess, ok := ctx.Value(contextKey{}).(*Session)
	return sess, ok && sess != nil
}
