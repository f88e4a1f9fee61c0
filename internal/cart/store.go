package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/tablemenu/api/internal/session"
)

const (
	maxUpdateRetries = 3
	submitLockTTL    = 30 * time.Second
)

// Errors returned by RedisStore.
var (
	ErrConflict             = errors.New("cart was modified concurrently")
	ErrSubmissionInProgress = errors.New("order submission already in progress")
)

// Key returns the Redis key of the session's cart.
func Key(sessionID uuid.UUID) string {
	return "cart:" + sessionID.String()
}

func lockKey(sessionID uuid.UUID) string {
	return "cart-lock:" + sessionID.String()
}

// RedisStore persists each session's cart as a single JSON value that expires
// together with the session.
type RedisStore struct {
	rdb *redis.Client
	now func() time.Time
}

// NewRedisStore creates a new RedisStore.
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb, now: time.Now}
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func load(ctx context.Context, g getter, key string) (*Cart, error) {
	data, err := g.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return &Cart{Lines: []Line{}}, nil
		}
		return nil, fmt.Errorf("get cart: %w", err)
	}

	var c Cart
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("unmarshal cart: %w", err)
	}
	if c.Lines == nil {
		c.Lines = []Line{}
	}
	return &c, nil
}

// Load returns the session's cart; a session without one has an empty cart.
func (s *RedisStore) Load(ctx context.Context, sess *session.Session) (*Cart, error) {
	return load(ctx, s.rdb, Key(sess.ID))
}

// Update loads the cart, applies fn and writes the result back in one
// WATCH/MULTI transaction. Concurrent writers cause a retry; an error from fn
// aborts without writing.
func (s *RedisStore) Update(ctx context.Context, sess *session.Session, fn func(*Cart) error) (*Cart, error) {
	key := Key(sess.ID)

	for attempt := 0; attempt < maxUpdateRetries; attempt++ {
		var out *Cart
		err := s.rdb.Watch(ctx, func(tx *redis.Tx) error {
			c, err := load(ctx, tx, key)
			if err != nil {
				return err
			}
			if err := fn(c); err != nil {
				return err
			}

			ttl := sess.ExpiresAt.Sub(s.now())
			if ttl <= 0 {
				return session.ErrNotFound
			}
			data, err := json.Marshal(c)
			if err != nil {
				return fmt.Errorf("marshal cart: %w", err)
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				if c.IsEmpty() {
					pipe.Del(ctx, key)
					return nil
				}
				pipe.Set(ctx, key, data, ttl)
				return nil
			})
			out = c
			return err
		}, key)

		if err == nil {
			return out, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return nil, err
	}

	return nil, ErrConflict
}

// Clear removes the session's cart.
func (s *RedisStore) Clear(ctx context.Context, sess *session.Session) error {
	if err := s.rdb.Del(ctx, Key(sess.ID)).Err(); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

// Lock marks the session as submitting. A second Lock before unlock, or
// before the lock times out, fails with ErrSubmissionInProgress.
func (s *RedisStore) Lock(ctx context.Context, sess *session.Session) (func(), error) {
	key := lockKey(sess.ID)
	ok, err := s.rdb.SetNX(ctx, key, 1, submitLockTTL).Result()
	if err != nil {
		return nil, fmt.Errorf("lock cart: %w", err)
	}
	if !ok {
		return nil, ErrSubmissionInProgress
	}
	return func() {
		// Must run even when ctx is already done.
		s.rdb.Del(context.WithoutCancel(ctx), key) //nolint:errcheck
	}, nil
}
