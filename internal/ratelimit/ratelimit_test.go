package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/smallbiznis/soildata/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBucketTTL(t *testing.T) {
	assert.Equal(t, 4*time.Second, bucketTTL(10, 20))
	assert.Equal(t, time.Second, bucketTTL(1000, 1))
	assert.Equal(t, time.Second, bucketTTL(0, 5))
}

func TestEvaluate(t *testing.T) {
	allowed := evaluate(true, 4.6, 1000, 2, 5)
	assert.True(t, allowed.Allowed)
	assert.Equal(t, 4, allowed.Remaining)
	assert.Equal(t, 5, allowed.Limit)
	assert.Zero(t, allowed.RetryAfter)

	denied := evaluate(false, 0.5, 1000, 2, 5)
	assert.False(t, denied.Allowed)
	assert.Equal(t, 250*time.Millisecond, denied.RetryAfter)
	assert.Equal(t, time.UnixMilli(1250), denied.ResetTime)
}

func TestScriptValueConversion(t *testing.T) {
	assert.Equal(t, int64(1), toInt(int64(1)))
	assert.Equal(t, int64(7), toInt("7"))
	assert.Equal(t, 2.75, toFloat("2.75"))
	assert.Equal(t, 3.0, toFloat(int64(3)))
	assert.Zero(t, toFloat(nil))
}

func TestNewWriteLimiter(t *testing.T) {
	limiter, err := NewWriteLimiter(config.Config{})
	require.NoError(t, err)
	assert.Nil(t, limiter)

	_, err = NewWriteLimiter(config.Config{RateLimit: config.RateLimitConfig{Enabled: true, WriteRate: 1, WriteBurst: 1}})
	assert.Error(t, err)

	_, err = NewWriteLimiter(config.Config{RateLimit: config.RateLimitConfig{Enabled: true, RedisAddr: "localhost:6379"}})
	assert.Error(t, err)

	limiter, err = NewWriteLimiter(config.Config{RateLimit: config.RateLimitConfig{
		Enabled: true, RedisAddr: "localhost:6379", WriteRate: 5, WriteBurst: 10,
	}})
	require.NoError(t, err)
	require.NotNil(t, limiter)
	assert.NoError(t, limiter.Close())
}

func TestTokenBucketRejectsBadInput(t *testing.T) {
	var bucket *TokenBucket
	_, err := bucket.Allow(context.Background(), "k", 1, 1)
	assert.Error(t, err)
	assert.Nil(t, NewTokenBucket(nil))
}
