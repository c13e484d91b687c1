package storage_test

import (
	"context"
	"testing"
	"time"

	"overcooked-payments/payment-svc/internal/storage"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupGuard(t *testing.T) (*storage.RedisGuard, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return storage.NewRedisGuard(client, 10*time.Second), mr
}

func TestRedisGuard_AcquireRelease(t *testing.T) {
	guard, mr := setupGuard(t)
	ctx := context.Background()

	ok, err := guard.Acquire(ctx, "555")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, mr.Exists("webhook:payment:555"))
	assert.Equal(t, 10*time.Second, mr.TTL("webhook:payment:555"))

	ok, err = guard.Acquire(ctx, "555")
	require.NoError(t, err)
	assert.False(t, ok, "second delivery must see the marker")

	require.NoError(t, guard.Release(ctx, "555"))
	assert.False(t, mr.Exists("webhook:payment:555"))

	ok, err = guard.Acquire(ctx, "555")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisGuard_ReleaseKeepsForeignMarker(t *testing.T) {
	guard, mr := setupGuard(t)
	ctx := context.Background()

	ok, err := guard.Acquire(ctx, "555")
	require.NoError(t, err)
	require.True(t, ok)

	// the marker expired and another instance took it over
	require.NoError(t, mr.Set("webhook:payment:555", "someone-else"))

	require.NoError(t, guard.Release(ctx, "555"))
	got, err := mr.Get("webhook:payment:555")
	require.NoError(t, err)
	assert.Equal(t, "someone-else", got)
}

func TestRedisGuard_ReleaseWithoutAcquire(t *testing.T) {
	guard, _ := setupGuard(t)

	assert.NoError(t, guard.Release(context.Background(), "never-acquired"))
}

func TestRedisGuard_MarkerExpires(t *testing.T) {
	guard, mr := setupGuard(t)
	ctx := context.Background()

	ok, err := guard.Acquire(ctx, "555")
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(11 * time.Second)

	ok, err = guard.Acquire(ctx, "555")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisGuard_Unavailable(t *testing.T) {
	guard, mr := setupGuard(t)
	mr.Close()

	_, err := guard.Acquire(context.Background(), "555")

	assert.Error(t, err)
}
