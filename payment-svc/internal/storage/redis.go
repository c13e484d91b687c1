package storage

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const DefaultGuardTTL = 30 * time.Second

var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// RedisGuard marks a payment notification as in flight so concurrent
// deliveries of the same payment can be acknowledged without reprocessing.
// The marker expires on its own if the holder dies.
type RedisGuard struct {
	Client *redis.Client
	TTL    time.Duration

	held sync.Map
}

func NewRedisGuard(client *redis.Client, ttl time.Duration) *RedisGuard {
	if ttl <= 0 {
		ttl = DefaultGuardTTL
	}
	return &RedisGuard{Client: client, TTL: ttl}
}

func (g *RedisGuard) MarkerKey(paymentID string) string {
	return "webhook:payment:" + paymentID
}

func (g *RedisGuard) Acquire(ctx context.Context, paymentID string) (bool, error) {
	token := uuid.NewString()
	ok, err := g.Client.SetNX(ctx, g.MarkerKey(paymentID), token, g.TTL).Result()
	if err != nil {
		return false, err
	}
	if ok {
		g.held.Store(paymentID, token)
	}
	return ok, nil
}

// Release drops the marker if this process still owns it.
func (g *RedisGuard) Release(ctx context.Context, paymentID string) error {
	token, ok := g.held.LoadAndDelete(paymentID)
	if !ok {
		return nil
	}
	return releaseScript.Run(ctx, g.Client, []string{g.MarkerKey(paymentID)}, token).Err()
}
