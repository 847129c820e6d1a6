package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T) (*Limiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewLimiter(client), mr
}

func TestIPRateLimit(t *testing.T) {
	ctx := context.Background()
	l, mr := newTestLimiter(t)
	l.WithIPLimit(3, time.Minute)

	for i := 0; i < 3; i++ {
		exceeded, err := l.CheckIPRateLimitWithPurpose(ctx, "10.0.0.1", "login")
		require.NoError(t, err)
		assert.False(t, exceeded, "request %d", i)
		require.NoError(t, l.RecordIPRequestWithPurpose(ctx, "10.0.0.1", "login"))
	}

	exceeded, err := l.CheckIPRateLimitWithPurpose(ctx, "10.0.0.1", "login")
	require.NoError(t, err)
	assert.True(t, exceeded)

	// budgets are per purpose and per ip
	exceeded, err = l.CheckIPRateLimitWithPurpose(ctx, "10.0.0.1", "register")
	require.NoError(t, err)
	assert.False(t, exceeded)
	exceeded, err = l.CheckIPRateLimitWithPurpose(ctx, "10.0.0.2", "login")
	require.NoError(t, err)
	assert.False(t, exceeded)

	mr.FastForward(time.Minute + time.Second)
	exceeded, err = l.CheckIPRateLimitWithPurpose(ctx, "10.0.0.1", "login")
	require.NoError(t, err)
	assert.False(t, exceeded)
}

func TestEmailCooldown(t *testing.T) {
	ctx := context.Background()
	l, mr := newTestLimiter(t)

	active, err := l.CheckEmailCooldown(ctx, "ann@x.com")
	require.NoError(t, err)
	assert.False(t, active)

	require.NoError(t, l.SetEmailCooldown(ctx, "Ann@X.com"))
	active, err = l.CheckEmailCooldown(ctx, "ann@x.com")
	require.NoError(t, err)
	assert.True(t, active)

	mr.FastForward(DefaultEmailCooldown)
	active, err = l.CheckEmailCooldown(ctx, "ann@x.com")
	require.NoError(t, err)
	assert.False(t, active)
}

func TestRedisUnavailable(t *testing.T) {
	l, mr := newTestLimiter(t)
	mr.Close()

	_, err := l.CheckIPRateLimitWithPurpose(context.Background(), "10.0.0.1", "login")
	assert.Error(t, err)
}
