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

func setupMiniRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := NewClient(mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisPageCache_GetSetTTL(t *testing.T) {
	mr, client := setupMiniRedis(t)
	pc := NewRedisPageCache(client, IndexPagePrefix)
	ctx := context.Background()

	_, ok, err := pc.Get(ctx, "1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, pc.Set(ctx, "1", []byte(`{"items":[]}`), 20*time.Second))
	assert.True(t, mr.Exists("index_page:1"))

	val, ok, err := pc.Get(ctx, "1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"items":[]}`, string(val))

	mr.FastForward(21 * time.Second)
	_, ok, err = pc.Get(ctx, "1")
	require.NoError(t, err)
	assert.False(t, ok, "entry should expire after its TTL")
}

func TestRedisPageCache_FlushOnlyTouchesPrefix(t *testing.T) {
	mr, client := setupMiniRedis(t)
	pc := NewRedisPageCache(client, IndexPagePrefix)
	ctx := context.Background()

	for i := 0; i < 250; i++ {
		require.NoError(t, pc.Set(ctx, time.Duration(i).String(), []byte("x"), time.Minute))
	}
	require.NoError(t, mr.Set("ratelimit:create:1", "3"))

	removed, err := pc.Flush(ctx)
	require.NoError(t, err)
	assert.Equal(t, 250, removed)
	assert.True(t, mr.Exists("ratelimit:create:1"))

	// flushing an empty cache is not an error
	removed, err = pc.Flush(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestMemoryPageCache(t *testing.T) {
	pc := NewPageCache(nil)
	require.IsType(t, &MemoryPageCache{}, pc)
	ctx := context.Background()

	// flushing an empty cache is not an error
	n, err := pc.Flush(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, pc.Set(ctx, "1", []byte("page one"), time.Minute))
	require.NoError(t, pc.Set(ctx, "2", []byte("page two"), time.Minute))
	val, ok, err := pc.Get(ctx, "1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "page one", string(val))

	n, err = pc.Flush(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	_, ok, err = pc.Get(ctx, "1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryPageCache_Expiry(t *testing.T) {
	pc := NewMemoryPageCache(IndexPagePrefix)
	ctx := context.Background()

	require.NoError(t, pc.Set(ctx, "1", []byte("x"), 30*time.Millisecond))
	_, ok, err := pc.Get(ctx, "1")
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Eventually(t, func() bool {
		_, ok, _ := pc.Get(ctx, "1")
		return !ok
	}, time.Second, 10*time.Millisecond)

	n, err := pc.Flush(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "expired entries are not counted")
}

func TestInitRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	c := InitRedis(mr.Addr())
	require.NotNil(t, c)
	t.Cleanup(func() { _ = c.Close() })
	require.NoError(t, c.Ping(context.Background()).Err())

	assert.Nil(t, InitRedis("redis://%zz"))
}
