package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"

	"github.com/crowngraphics/portal/internal/config"
)

const (
	keyIntakeClient = "intake:client:%s"
)

// IntakeLimiter throttles anonymous order submissions per client address and
// keeps two concurrent submissions of one order id from racing.
type IntakeLimiter struct {
	enabled bool

	bucket *TokenBucket
	orders *orderClaims

	rate  float64
	burst int
}

func NewIntakeLimiter(cfg config.Config) (*IntakeLimiter, error) {
	limitCfg := cfg.RateLimit
	if !limitCfg.IntakeEnabled {
		return nil, nil
	}

	addr := strings.TrimSpace(limitCfg.RedisAddr)
	if addr == "" {
		return nil, errors.New("rate limit redis addr is required")
	}
	if limitCfg.IntakeRate <= 0 || limitCfg.IntakeBurst <= 0 {
		return nil, errors.New("intake rate limit must be positive")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(limitCfg.RedisPassword),
		DB:       limitCfg.RedisDB,
	})

	return &IntakeLimiter{
		enabled: true,
		bucket:  NewTokenBucket(client),
		orders:  newOrderClaims(client),
		rate:    limitCfg.IntakeRate,
		burst:   limitCfg.IntakeBurst,
	}, nil
}

func (l *IntakeLimiter) Enabled() bool {
	return l != nil && l.enabled
}

func (l *IntakeLimiter) AllowClient(ctx context.Context, clientIP string) (*RateLimitResult, error) {
	if !l.Enabled() {
		return &RateLimitResult{Allowed: true}, nil
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyIntakeClient, strings.TrimSpace(clientIP)), l.rate, l.burst)
}

func (l *IntakeLimiter) TryLockOrder(ctx context.Context, orderID string) (string, bool, error) {
	if !l.Enabled() {
		return "", true, nil
	}
	return l.orders.Claim(ctx, orderID)
}

func (l *IntakeLimiter) ReleaseOrder(ctx context.Context, orderID, token string) error {
	if !l.Enabled() {
		return nil
	}
	return l.orders.Release(ctx, orderID, token)
}
