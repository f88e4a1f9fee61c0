package cart

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tablemenu/api/internal/session"
)

func newTestStore(t *testing.T) (*RedisStore, *miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewRedisStore(rdb), mr, rdb
}

func testSession(ttl time.Duration) *session.Session {
	now := time.Now()
	return &session.Session{ID: uuid.New(), TableID: uuid.New(), TableNumber: 4, CreatedAt: now, ExpiresAt: now.Add(ttl)}
}

func TestLoad_EmptyWhenMissing(t *testing.T) {
	store, _, _ := newTestStore(t)
	c, err := store.Load(context.Background(), testSession(time.Hour))
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())
	assert.NotNil(t, c.Lines)
}

func TestUpdate_PersistsWholeCart(t *testing.T) {
	store, mr, _ := newTestStore(t)
	ctx := context.Background()
	sess := testSession(time.Hour)

	_, err := store.Update(ctx, sess, func(c *Cart) error {
		c.Add(burger, extras(), "")
		c.Add(juice, nil, "")
		return nil
	})
	require.NoError(t, err)

	got, err := store.Load(ctx, sess)
	require.NoError(t, err)
	require.Len(t, got.Lines, 2)
	assert.Equal(t, "Bacon", got.Lines[0].Selections[1].OptionName)

	ttl := mr.TTL(Key(sess.ID))
	assert.True(t, ttl > 0 && ttl <= time.Hour, "cart ttl %v must not exceed the session", ttl)
}

func TestUpdate_ErrorLeavesCartUntouched(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()
	sess := testSession(time.Hour)

	_, err := store.Update(ctx, sess, func(c *Cart) error {
		c.Add(burger, nil, "")
		return nil
	})
	require.NoError(t, err)

	_, err = store.Update(ctx, sess, func(c *Cart) error {
		c.Add(juice, nil, "")
		return c.RemoveLine(7)
	})
	assert.ErrorIs(t, err, ErrLineNotFound)

	got, err := store.Load(ctx, sess)
	require.NoError(t, err)
	require.Len(t, got.Lines, 1)
	assert.Equal(t, "Burger", got.Lines[0].DishName)
}

func TestUpdate_RetriesOnConcurrentWrite(t *testing.T) {
	store, _, rdb := newTestStore(t)
	ctx := context.Background()
	sess := testSession(time.Hour)

	calls := 0
	c, err := store.Update(ctx, sess, func(c *Cart) error {
		calls++
		if calls == 1 {
			// Another writer lands between WATCH and EXEC.
			require.NoError(t, rdb.Set(ctx, Key(sess.ID), `{"lines":[]}`, time.Hour).Err())
		}
		c.Add(juice, nil, "")
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Len(t, c.Lines, 1)
}

func TestUpdate_GivesUpAfterRetries(t *testing.T) {
	store, _, rdb := newTestStore(t)
	ctx := context.Background()
	sess := testSession(time.Hour)

	calls := 0
	_, err := store.Update(ctx, sess, func(c *Cart) error {
		calls++
		require.NoError(t, rdb.Set(ctx, Key(sess.ID), `{"lines":[]}`, time.Hour).Err())
		return nil
	})
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, maxUpdateRetries, calls)
}

func TestUpdate_ExpiredSession(t *testing.T) {
	store, _, _ := newTestStore(t)
	sess := testSession(-time.Second)

	_, err := store.Update(context.Background(), sess, func(c *Cart) error {
		c.Add(burger, nil, "")
		return nil
	})
	assert.True(t, errors.Is(err, session.ErrNotFound))
}

func TestUpdate_EmptyCartDeletesKey(t *testing.T) {
	store, mr, _ := newTestStore(t)
	ctx := context.Background()
	sess := testSession(time.Hour)

	_, err := store.Update(ctx, sess, func(c *Cart) error {
		c.Add(burger, nil, "")
		return nil
	})
	require.NoError(t, err)
	_, err = store.Update(ctx, sess, func(c *Cart) error {
		return c.UpdateLine(0, 0, nil)
	})
	require.NoError(t, err)
	assert.False(t, mr.Exists(Key(sess.ID)))
}

func TestClear(t *testing.T) {
	store, mr, _ := newTestStore(t)
	ctx := context.Background()
	sess := testSession(time.Hour)

	_, err := store.Update(ctx, sess, func(c *Cart) error {
		c.Add(burger, nil, "")
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, store.Clear(ctx, sess))
	assert.False(t, mr.Exists(Key(sess.ID)))
}

func TestSessionsDoNotShareCarts(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()
	a, b := testSession(time.Hour), testSession(time.Hour)

	_, err := store.Update(ctx, a, func(c *Cart) error {
		c.Add(burger, nil, "")
		return nil
	})
	require.NoError(t, err)

	got, err := store.Load(ctx, b)
	require.NoError(t, err)
	assert.True(t, got.IsEmpty())
}

func TestLock(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()
	sess := testSession(time.Hour)

	unlock, err := store.Lock(ctx, sess)
	require.NoError(t, err)

	_, err = store.Lock(ctx, sess)
	assert.ErrorIs(t, err, ErrSubmissionInProgress)

	unlock()
	unlock2, err := store.Lock(ctx, sess)
	require.NoError(t, err)
	unlock2()
}
