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

type resumeEntry struct {
	Index int    `json:"index"`
	Lang  string `json:"lang"`
}

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisCache(rdb, "fs:"), mr
}

func TestRedisCacheRoundTrip(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	key := ResumeKey("s-1")
	require.NoError(t, c.SetJSON(ctx, key, resumeEntry{Index: 4, Lang: "es"}, time.Minute))
	assert.True(t, mr.Exists("fs:interview:s-1:resume"))

	var got resumeEntry
	hit, err := c.GetJSON(ctx, key, &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, resumeEntry{Index: 4, Lang: "es"}, got)

	mr.FastForward(2 * time.Minute)
	hit, err = c.GetJSON(ctx, key, &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestRedisCacheCorruptEntryIsMiss(t *testing.T) {
	c, mr := newTestCache(t)
	require.NoError(t, mr.Set("fs:broken", "{not json"))

	var got resumeEntry
	hit, err := c.GetJSON(context.Background(), "broken", &got)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.False(t, mr.Exists("fs:broken"))
}

func TestRedisCacheDel(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	require.NoError(t, c.SetJSON(ctx, "a", 1, 0))
	require.NoError(t, c.SetJSON(ctx, "b", 2, 0))

	require.NoError(t, c.Del(ctx, "a", "b"))
	require.NoError(t, c.Del(ctx))
	assert.False(t, mr.Exists("fs:a"))
	assert.False(t, mr.Exists("fs:b"))
}
