// Package cache wraps the Redis client used for hot counters: the cached
// per-user like count and the rolling-day super-like budget. Redis is an
// accelerator here, never the source of truth — every caller has a DB
// fallback.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// likeCountTTL bounds staleness of the cached like counter.
const likeCountTTL = time.Hour

// defaultSuperLikeWindow is the rolling-day window for the super-like budget.
const defaultSuperLikeWindow = 24 * time.Hour

// RedisCache holds the shared Redis client.
type RedisCache struct {
	Client *redis.Client

	// SuperLikeCap is the number of budget units per window. Values below 1
	// behave as 1.
	SuperLikeCap int

	// SuperLikeWindow overrides the rolling-day budget window when positive.
	SuperLikeWindow time.Duration
}

// New initializes a Redis client. Only addr is mandatory.
func New(addr, password string, db int) *RedisCache {
	opts := &redis.Options{Addr: addr}
	if password != "" {
		opts.Password = password
	}
	if db != 0 {
		opts.DB = db
	}
	return &RedisCache{Client: redis.NewClient(opts)}
}

// Ping verifies connectivity.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

// Close releases the underlying client.
func (c *RedisCache) Close() error {
	return c.Client.Close()
}

func keyForLikeCount(userID string) string {
	return fmt.Sprintf("likes:count:%s", userID)
}

func keyForSuperLike(userID string) string {
	return fmt.Sprintf("superlikes:budget:%s", userID)
}

// IncrLikeCount bumps the cached like counter for a user, refreshing its
// TTL. A missing key is created implicitly (callers reconcile with the DB
// on read misses, so starting from zero is harmless).
func (c *RedisCache) IncrLikeCount(ctx context.Context, userID string) error {
	key := keyForLikeCount(userID)
	if err := c.Client.Incr(ctx, key).Err(); err != nil {
		return err
	}
	return c.Client.Expire(ctx, key, likeCountTTL).Err()
}

// GetLikeCount returns the cached like count and whether the key was
// present. TTL is refreshed on access since the user is active.
func (c *RedisCache) GetLikeCount(ctx context.Context, userID string) (int64, bool, error) {
	key := keyForLikeCount(userID)
	val, err := c.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	_ = c.Client.Expire(ctx, key, likeCountTTL).Err()
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, err
	}
	return n, true, nil
}

// SetLikeCount stores a freshly computed like count with the standard TTL.
func (c *RedisCache) SetLikeCount(ctx context.Context, userID string, n int64) error {
	return c.Client.Set(ctx, keyForLikeCount(userID), n, likeCountTTL).Err()
}

// AllowSuperLike consumes one unit of the user's rolling super-like budget.
// The first consumer of the window creates the key with the window TTL; a
// consumer past the cap within the window is refused.
func (c *RedisCache) AllowSuperLike(ctx context.Context, userID string) (bool, error) {
	key := keyForSuperLike(userID)
	n, err := c.Client.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if n == 1 {
		window := c.SuperLikeWindow
		if window <= 0 {
			window = defaultSuperLikeWindow
		}
		if err := c.Client.Expire(ctx, key, window).Err(); err != nil {
			return false, err
		}
	}
	limit := int64(c.SuperLikeCap)
	if limit < 1 {
		limit = 1
	}
	return n <= limit, nil
}
