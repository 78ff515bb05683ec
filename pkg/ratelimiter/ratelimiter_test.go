package ratelimiter

import (
	"context"
	"errors"
	"testing"
	"time"

	"anoa.com/socialforum/pkg/apperror"
	"github.com/stretchr/testify/assert"
)

func TestCooldownWithoutRedisAlwaysAllows(t *testing.T) {
	cd := NewCooldown(nil, "post", 15*time.Second)

	for i := 0; i < 3; i++ {
		assert.NoError(t, cd.Acquire(context.Background(), 7))
	}
	cd.Release(context.Background(), 7)

	var nilCooldown *Cooldown
	assert.NoError(t, nilCooldown.Acquire(context.Background(), 7))
}

func TestRateLimitError(t *testing.T) {
	err := &RateLimitError{Message: "slow down", RetryAfter: 1500 * time.Millisecond}

	assert.Equal(t, "slow down", err.Error())
	assert.Equal(t, "2", err.RetryAfterHeader())
	assert.True(t, errors.Is(err, apperror.ErrRateLimitExceeded))

	zero := &RateLimitError{}
	assert.Equal(t, "1", zero.RetryAfterHeader())
}
