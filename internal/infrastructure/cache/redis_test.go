package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendora/backend/internal/domain"
	"github.com/vendora/backend/internal/platform/logger"
)

func newTestRedisCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	c, err := NewRedisCache("redis://"+srv.Addr()+"/0", logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, srv
}

func TestRedisCache_RoundTrip(t *testing.T) {
	c, _ := newTestRedisCache(t)
	ctx := context.Background()

	_, err := c.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "k", []byte(`{"x":1}`), time.Minute))
	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, `{"x":1}`, string(got))

	exists, err := c.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, c.Delete(ctx, "k"))
	exists, err = c.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRedisCache_TTL(t *testing.T) {
	c, srv := newTestRedisCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "short", []byte("v"), time.Second))
	require.NoError(t, c.Set(ctx, "forever", []byte("v"), 0))
	srv.FastForward(2 * time.Second)

	_, err := c.Get(ctx, "short")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
	_, err = c.Get(ctx, "forever")
	assert.NoError(t, err)
}

func TestRedisCache_Incr(t *testing.T) {
	c, _ := newTestRedisCache(t)
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		n, err := c.Incr(ctx, "gen")
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}
}

func TestNewRedisCache_Errors(t *testing.T) {
	t.Run("bad url", func(t *testing.T) {
		_, err := NewRedisCache("http://nope", logger.NewNop())
		assert.Error(t, err)
	})

	t.Run("unreachable server", func(t *testing.T) {
		srv := miniredis.RunT(t)
		addr := srv.Addr()
		srv.Close()
		_, err := NewRedisCache("redis://"+addr, logger.NewNop())
		assert.ErrorContains(t, err, "redis ping")
	})

	t.Run("nil logger", func(t *testing.T) {
		_, err := NewRedisCache("redis://localhost:6379", nil)
		assert.Error(t, err)
	})
}
