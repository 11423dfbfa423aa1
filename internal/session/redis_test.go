package session

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insurx/insurx-web/internal/domain"
)

// newTestRedis connects to REDIS_TEST_ADDR and skips when it is unset.
func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, rdb.Ping(ctx).Err())
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestRedisStore_RoundTrip(t *testing.T) {
	rdb := newTestRedis(t)
	now := time.Now().Truncate(time.Millisecond)
	st := NewRedisStore(rdb, clockwork.NewFakeClockAt(now), discardLogger())
	ctx := context.Background()

	sess := &domain.Session{
		ID:        uuid.NewString(),
		Profile:   activeProfile(),
		Token:     "tok",
		CreatedAt: now,
		ExpiresAt: now.Add(time.Minute),
	}
	require.NoError(t, st.Set(ctx, sess))

	ttl, err := rdb.TTL(ctx, redisKeyPrefix+sess.ID).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	got, err := st.Get(ctx, sess.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, sess.Profile, got.Profile)

	require.NoError(t, st.Delete(ctx, sess.ID))
	got, err = st.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisStore_CorruptReadsAsNil(t *testing.T) {
	rdb := newTestRedis(t)
	st := NewRedisStore(rdb, clockwork.NewRealClock(), discardLogger())
	ctx := context.Background()

	id := uuid.NewString()
	require.NoError(t, rdb.Set(ctx, redisKeyPrefix+id, "{not json", time.Minute).Err())

	got, err := st.Get(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, got)

	exists, err := rdb.Exists(ctx, redisKeyPrefix+id).Result()
	require.NoError(t, err)
	assert.Zero(t, exists)
}
