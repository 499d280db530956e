package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	return mr, redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestRedisGuard_FirstSeen(t *testing.T) {
	mr, client := setupRedis(t)
	g := NewRedisGuard(client, time.Hour)
	ctx := context.Background()

	first, err := g.FirstSeen(ctx, "listing-1")
	require.NoError(t, err)
	assert.True(t, first)

	again, err := g.FirstSeen(ctx, "listing-1")
	require.NoError(t, err)
	assert.False(t, again)

	other, err := g.FirstSeen(ctx, "listing-2")
	require.NoError(t, err)
	assert.True(t, other)

	assert.True(t, mr.Exists(defaultKeyPrefix+"listing-1"))
	assert.Equal(t, time.Hour, mr.TTL(defaultKeyPrefix+"listing-1"))
}

func TestRedisGuard_ExpiredKeyIsNewAgain(t *testing.T) {
	mr, client := setupRedis(t)
	g := NewRedisGuard(client, time.Minute)
	ctx := context.Background()

	_, err := g.FirstSeen(ctx, "k")
	require.NoError(t, err)
	mr.FastForward(2 * time.Minute)

	first, err := g.FirstSeen(ctx, "k")
	require.NoError(t, err)
	assert.True(t, first)
}

func TestRedisGuard_ServerDown(t *testing.T) {
	mr, client := setupRedis(t)
	g := NewRedisGuard(client, time.Minute)
	mr.Close()

	_, err := g.FirstSeen(context.Background(), "k")
	assert.Error(t, err)
}

func TestConnect(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	g, err := Connect(context.Background(), "redis://"+mr.Addr()+"/0", time.Minute)
	require.NoError(t, err)
	t.Cleanup(func() { _ = g.Close() })

	first, err := g.FirstSeen(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, first)

	_, err = Connect(context.Background(), "not a url", time.Minute)
	assert.Error(t, err)
}

func TestMemoryGuard(t *testing.T) {
	g := NewMemoryGuard(time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return now }
	ctx := context.Background()

	first, _ := g.FirstSeen(ctx, "a")
	again, _ := g.FirstSeen(ctx, "a")
	assert.True(t, first)
	assert.False(t, again)

	now = now.Add(time.Minute)
	expired, _ := g.FirstSeen(ctx, "a")
	assert.True(t, expired)
}

func TestMemoryGuard_Concurrent(t *testing.T) {
	g := NewMemoryGuard(0)
	var wins int32
	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := g.FirstSeen(context.Background(), "same"); ok {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, wins)
}
