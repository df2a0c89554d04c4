package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/Telehealthmarketplace/backend/internal/adapters/cache"
	"github.com/zatekoja/Telehealthmarketplace/backend/internal/domain/providers"
	redisclient "github.com/zatekoja/Telehealthmarketplace/backend/internal/infrastructure/clients/redis"
)

func newAdapter(t *testing.T) (providers.CacheProvider, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return cache.NewRedisAdapter(redisclient.Wrap(rdb)), mr
}

func TestRedisAdapter_GetSetDelete(t *testing.T) {
	adapter, _ := newAdapter(t)
	ctx := context.Background()

	_, err := adapter.Get(ctx, "missing")
	assert.Error(t, err)

	require.NoError(t, adapter.Set(ctx, "k", []byte("v"), 60))
	got, err := adapter.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	exists, err := adapter.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, adapter.Delete(ctx, "k"))
	exists, err = adapter.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRedisAdapter_SetIfAbsent(t *testing.T) {
	adapter, mr := newAdapter(t)
	ctx := context.Background()

	ok, err := adapter.SetIfAbsent(ctx, "inflight:s1:doctor:cancel", []byte("1"), 30)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = adapter.SetIfAbsent(ctx, "inflight:s1:doctor:cancel", []byte("1"), 30)
	require.NoError(t, err)
	assert.False(t, ok)

	mr.FastForward(31 * time.Second)

	ok, err = adapter.SetIfAbsent(ctx, "inflight:s1:doctor:cancel", []byte("1"), 30)
	require.NoError(t, err)
	assert.True(t, ok)
}
