package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()

	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRedisWithClient(client), srv
}

func TestRedisSetGet(t *testing.T) {
	r, _ := testRedis(t)
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "games-bob-1-true", []byte(`{"games":[]}`), time.Hour))

	got, err := r.Get(ctx, "games-bob-1-true")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"games":[]}`), got)
}

func TestRedisMiss(t *testing.T) {
	r, _ := testRedis(t)

	_, err := r.Get(context.Background(), "absent")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestRedisExpiry(t *testing.T) {
	r, srv := testRedis(t)
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "key", []byte("value"), time.Hour))

	srv.FastForward(time.Hour + time.Second)

	_, err := r.Get(ctx, "key")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestRedisInvalidate(t *testing.T) {
	r, _ := testRedis(t)
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "a", []byte("1"), time.Hour))
	require.NoError(t, r.Invalidate(ctx, "a"))

	_, err := r.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, r.Invalidate(ctx))
}

func TestRedisHealthCheck(t *testing.T) {
	r, _ := testRedis(t)
	assert.NoError(t, r.HealthCheck(context.Background()))
}
