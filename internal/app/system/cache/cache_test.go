package cache_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dalemusser/commonroom/internal/app/system/cache"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type item struct {
	Slug string `json:"slug"`
	N    int    `json:"n"`
}

func newCache(t *testing.T) (*cache.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return cache.New(rdb, "test:", time.Minute, zap.NewNop()), mr
}

func TestSetGet(t *testing.T) {
	c, mr := newCache(t)
	ctx := context.Background()

	key := c.Key("community", "go")
	assert.Equal(t, "test:community:go", key)

	c.Set(ctx, key, item{Slug: "go", N: 3})
	assert.True(t, mr.Exists(key))
	assert.Equal(t, time.Minute, mr.TTL(key))

	var got item
	require.True(t, c.Get(ctx, key, &got))
	assert.Equal(t, item{Slug: "go", N: 3}, got)

	c.Delete(ctx, key)
	assert.False(t, c.Get(ctx, key, &got))
}

func TestFetch_LoadsOnceThenHits(t *testing.T) {
	c, _ := newCache(t)
	ctx := context.Background()
	calls := 0
	load := func(context.Context) (item, error) {
		calls++
		return item{Slug: "rust", N: 1}, nil
	}

	for i := 0; i < 3; i++ {
		got, err := cache.Fetch(ctx, c, c.Key("community", "rust"), load)
		require.NoError(t, err)
		assert.Equal(t, "rust", got.Slug)
	}
	assert.Equal(t, 1, calls)
}

func TestFetch_ErrorsAreNotCached(t *testing.T) {
	c, mr := newCache(t)
	ctx := context.Background()
	boom := errors.New("not found")

	_, err := cache.Fetch(ctx, c, "k", func(context.Context) (item, error) { return item{}, boom })
	require.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists("k"))
}

func TestGet_CorruptValueIsAMiss(t *testing.T) {
	c, mr := newCache(t)
	require.NoError(t, mr.Set("test:x:y", "{not json"))

	var got item
	assert.False(t, c.Get(context.Background(), "test:x:y", &got))
	assert.False(t, mr.Exists("test:x:y"))
}

func TestRedisDown_IsAMiss(t *testing.T) {
	c, mr := newCache(t)
	mr.Close()

	calls := 0
	got, err := cache.Fetch(context.Background(), c, "k", func(context.Context) (item, error) {
		calls++
		return item{Slug: "live"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "live", got.Slug)
	assert.Equal(t, 1, calls)
}

func TestNilCache(t *testing.T) {
	var c *cache.Cache
	ctx := context.Background()

	assert.Nil(t, cache.New(nil, "p:", time.Minute, nil))
	assert.Equal(t, "", c.Key("a", "b"))
	c.Set(ctx, "k", item{})
	c.Delete(ctx, "k")

	var got item
	assert.False(t, c.Get(ctx, "k", &got))

	v, err := cache.Fetch(ctx, c, "k", func(context.Context) (item, error) { return item{N: 7}, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v.N)
}

func TestDial(t *testing.T) {
	rdb, err := cache.Dial(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, rdb)

	mr := miniredis.RunT(t)
	rdb, err = cache.Dial(context.Background(), mr.Addr())
	require.NoError(t, err)
	require.NotNil(t, rdb)
	_ = rdb.Close()
}
