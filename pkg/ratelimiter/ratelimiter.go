package ratelimiter

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"anoa.com/socialforum/pkg/apperror"
	"github.com/redis/go-redis/v9"
)

// RateLimitError is returned when a per-user cooldown is still running.
type RateLimitError struct {
	Message    string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return e.Message
}

func (e *RateLimitError) Unwrap() error {
	return apperror.ErrRateLimitExceeded
}

// RetryAfterHeader renders RetryAfter in whole seconds, at least 1.
func (e *RateLimitError) RetryAfterHeader() string {
	secs := int(math.Ceil(e.RetryAfter.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}

// Cooldown enforces one action per user per window. A nil client disables it.
type Cooldown struct {
	rdb    *redis.Client
	action string
	window time.Duration
}

func NewCooldown(rdb *redis.Client, action string, window time.Duration) *Cooldown {
	return &Cooldown{rdb: rdb, action: action, window: window}
}

// Acquire claims the cooldown slot for userID. When the slot is taken a
// *RateLimitError carrying the remaining TTL is returned.
func (c *Cooldown) Acquire(ctx context.Context, userID uint) error {
	if c == nil || c.rdb == nil || c.window <= 0 {
		return nil
	}

	allowed, err := CheckAndSetRateLimit(ctx, c.rdb, userID, c.action, c.window)
	if err != nil {
		return err
	}
	if allowed {
		return nil
	}

	ttl, _ := GetRateLimitTTL(ctx, c.rdb, userID, c.action)
	return &RateLimitError{
		Message:    fmt.Sprintf("you are doing that too fast. Please wait %.0f seconds", math.Ceil(ttl.Seconds())),
		RetryAfter: ttl,
	}
}

// Release clears the slot, used when the guarded action failed.
func (c *Cooldown) Release(ctx context.Context, userID uint) {
	if c == nil || c.rdb == nil {
		return
	}
	_ = ClearRateLimit(ctx, c.rdb, userID, c.action)
}

func key(userID uint, action string) string {
	return fmt.Sprintf("rate_limit:user:%d:%s", userID, action)
}

func CheckAndSetRateLimit(ctx context.Context, rdb *redis.Client, userID uint, action string, limit time.Duration) (bool, error) {
	if rdb == nil {
		return true, nil
	}

	wasSet, err := rdb.SetNX(ctx, key(userID, action), "locked", limit).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check rate limit in redis: %w", err)
	}

	return wasSet, nil
}

func GetRateLimitTTL(ctx context.Context, rdb *redis.Client, userID uint, action string) (time.Duration, error) {
	if rdb == nil {
		return 0, nil
	}
	return rdb.TTL(ctx, key(userID, action)).Result()
}

func ClearRateLimit(ctx context.Context, rdb *redis.Client, userID uint, action string) error {
	if rdb == nil {
		return nil
	}
	_, err := rdb.Del(ctx, key(userID, action)).Result()
	return err
}
