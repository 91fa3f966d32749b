package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/okaybet/crossarb/internal/domain"
)

// Cooldown implements domain.Cooldown with SET NX, so a market pair that just
// produced a dispatch is not dispatched again until the key expires.
//
// Key schema:
//
//	cooldown:{key} - "1" while the cooldown is active
type Cooldown struct {
	rdb *redis.Client
}

// NewCooldown creates a Cooldown backed by the given Client.
func NewCooldown(c *Client) *Cooldown {
	return &Cooldown{rdb: c.Underlying()}
}

// Active reports whether the cooldown key is currently held, without
// touching its TTL.
func (cd *Cooldown) Active(ctx context.Context, key string) (bool, error) {
	n, err := cd.rdb.Exists(ctx, "cooldown:"+key).Result()
	if err != nil {
		return false, fmt.Errorf("redis: cooldown %s: %w", key, err)
	}
	return n > 0, nil
}

// TrySet atomically claims the cooldown key. It returns true when the claim
// succeeded and false when the key was already held.
func (cd *Cooldown) TrySet(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := cd.rdb.SetNX(ctx, "cooldown:"+key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis: cooldown %s: %w", key, err)
	}
	return ok, nil
}

// Compile-time interface check.
var _ domain.Cooldown = (*Cooldown)(nil)
