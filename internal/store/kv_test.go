package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisKV(t *testing.T) (*miniredis.Miniredis, *RedisKV) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, NewRedisKV(client)
}

func TestRedisKV_GetSet(t *testing.T) {
	mr, kv := setupRedisKV(t)
	ctx := context.Background()

	_, err := kv.Get(ctx, "analysis:1:all")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, kv.Set(ctx, "analysis:1:all", `{"ok":true}`, 5*time.Minute))
	v, err := kv.Get(ctx, "analysis:1:all")
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, v)

	mr.FastForward(6 * time.Minute)
	_, err = kv.Get(ctx, "analysis:1:all")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestRedisKV_Incr(t *testing.T) {
	_, kv := setupRedisKV(t)
	ctx := context.Background()

	n, err := kv.Incr(ctx, "analysis:generation")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = kv.Incr(ctx, "analysis:generation")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	v, err := kv.Get(ctx, "analysis:generation")
	require.NoError(t, err)
	assert.Equal(t, "2", v)
}

func TestMemoryKV_TTL(t *testing.T) {
	now := time.Date(2025, 3, 5, 10, 0, 0, 0, time.UTC)
	kv := NewMemoryKV().WithClock(func() time.Time { return now })
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "a", "1", time.Minute))
	require.NoError(t, kv.Set(ctx, "b", "2", 0))

	now = now.Add(30 * time.Second)
	v, err := kv.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "1", v)

	now = now.Add(time.Minute)
	_, err = kv.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrMiss)

	v, err = kv.Get(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, "2", v)
}

func TestMemoryKV_Incr(t *testing.T) {
	kv := NewMemoryKV()
	ctx := context.Background()

	n, err := kv.Incr(ctx, "gen")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	n, err = kv.Incr(ctx, "gen")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	require.NoError(t, kv.Set(ctx, "text", "abc", 0))
	_, err = kv.Incr(ctx, "text")
	assert.Error(t, err)
}
