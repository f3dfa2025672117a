package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestBucket(perMinute, capacity int) (*TokenBucket, *time.Time) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tb := NewTokenBucket(perMinute, capacity)
	tb.now = func() time.Time { return now }
	tb.lastRefillTime = now
	return tb, &now
}

func TestTokenBucket_AllowAndRefill(t *testing.T) {
	tb, now := newTestBucket(60, 2)

	assert.True(t, tb.Allow())
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow(), "桶已空")
	assert.Equal(t, time.Second, tb.RetryAfter())

	*now = now.Add(time.Second)
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow())

	// 长时间空闲也不会超过容量
	*now = now.Add(time.Hour)
	assert.True(t, tb.Allow())
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow())
}

func TestNewTokenBucket_DefaultCapacity(t *testing.T) {
	tb := NewTokenBucket(30, 0)
	assert.Equal(t, 15.0, tb.capacity)

	tb = NewTokenBucket(1, 0)
	assert.Equal(t, 1.0, tb.capacity)
}
