package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultIPLimit       = 10
	DefaultIPWindow      = 15 * time.Minute
	DefaultEmailCooldown = 2 * time.Minute
)

// Limiter counts requests per client IP in fixed Redis windows and keeps a
// per-email cooldown for mail-sending endpoints
type Limiter struct {
	client        *redis.Client
	ipLimit       int64
	ipWindow      time.Duration
	emailCooldown time.Duration
}

func NewLimiter(client *redis.Client) *Limiter {
	return &Limiter{
		client:        client,
		ipLimit:       DefaultIPLimit,
		ipWindow:      DefaultIPWindow,
		emailCooldown: DefaultEmailCooldown,
	}
}

// WithIPLimit overrides the per-IP request budget and its window
func (l *Limiter) WithIPLimit(limit int64, window time.Duration) *Limiter {
	l.ipLimit = limit
	l.ipWindow = window
	return l
}

func getIPKey(ip, purpose string) string {
	return fmt.Sprintf("ratelimit:ip:%s:%s", purpose, ip)
}

func getEmailKey(email string) string {
	return fmt.Sprintf("ratelimit:email:%s", strings.ToLower(email))
}

// CheckIPRateLimitWithPurpose reports whether ip used up its budget for purpose
func (l *Limiter) CheckIPRateLimitWithPurpose(ctx context.Context, ip, purpose string) (bool, error) {
	count, err := l.client.Get(ctx, getIPKey(ip, purpose)).Int64()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read rate limit: %w", err)
	}
	return count >= l.ipLimit, nil
}

// RecordIPRequestWithPurpose counts one request. The window starts with the
// first request.
func (l *Limiter) RecordIPRequestWithPurpose(ctx context.Context, ip, purpose string) error {
	key := getIPKey(ip, purpose)

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to record request: %w", err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, key, l.ipWindow).Err(); err != nil {
			return fmt.Errorf("failed to set rate limit window: %w", err)
		}
	}

	return nil
}

// CheckEmailCooldown reports whether an email was sent to this address recently
func (l *Limiter) CheckEmailCooldown(ctx context.Context, email string) (bool, error) {
	n, err := l.client.Exists(ctx, getEmailKey(email)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check email cooldown: %w", err)
	}
	return n > 0, nil
}

// SetEmailCooldown starts the cooldown for an address
func (l *Limiter) SetEmailCooldown(ctx context.Context, email string) error {
	if err := l.client.Set(ctx, getEmailKey(email), "1", l.emailCooldown).Err(); err != nil {
		return fmt.Errorf("failed to set email cooldown: %w", err)
	}
	return nil
}
