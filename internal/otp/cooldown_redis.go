package otp

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const cooldownKeyPrefix = "otp_cooldown:"

// redisCooldown implements CooldownLimiter with a SET NX + TTL marker key.
type redisCooldown struct {
	client *redis.Client
}

// NewRedisCooldown creates a redis-backed cooldown limiter.
func NewRedisCooldown(client *redis.Client) CooldownLimiter {
	return &redisCooldown{client: client}
}

func (r *redisCooldown) Allow(ctx context.Context, key string, window time.Duration) (bool, error) {
	// SET NX atomically claims the window; a false result means a marker
	// from a recent issue is still live.
	ok, err := r.client.SetNX(ctx, cooldownKeyPrefix+key, 1, window).Result()
	if err != nil {
		return false, err
	}
	return ok, nil
}
