package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

const (
	keyOrderLock = "intake:lock:order:%s"

	// Long enough to cover PDF rendering and both emails of one submission.
	orderLockTTL = 2 * time.Minute
)

// Deletes the claim only while it still carries the caller's token, so an
// expired claim taken over by a later submission is left alone.
const releaseOrderScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

var (
	errOrderLockUnconfigured = errors.New("order lock: redis client not configured")
	errOrderIDEmpty          = errors.New("order lock: order id is empty")
)

// orderClaims hands out short-lived claims on order ids so one submission
// finishes its dedupe check before a duplicate of the same order starts.
type orderClaims struct {
	client  *redis.Client
	release *redis.Script
	ttl     time.Duration
}

func newOrderClaims(client *redis.Client) *orderClaims {
	if client == nil {
		return nil
	}
	return &orderClaims{
		client:  client,
		release: redis.NewScript(releaseOrderScript),
		ttl:     orderLockTTL,
	}
}

func orderKey(orderID string) (string, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return "", errOrderIDEmpty
	}
	return fmt.Sprintf(keyOrderLock, orderID), nil
}

// Claim returns a release token and true when the order was free. A false
// result with no error means another submission of the order is in flight.
func (c *orderClaims) Claim(ctx context.Context, orderID string) (string, bool, error) {
	if c == nil || c.client == nil {
		return "", false, errOrderLockUnconfigured
	}
	key, err := orderKey(orderID)
	if err != nil {
		return "", false, err
	}

	token := uuid.NewString()
	won, err := c.client.SetNX(ctx, key, token, c.ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("claim order %s: %w", orderID, err)
	}
	if !won {
		return "", false, nil
	}
	return token, true, nil
}

// Release drops a claim taken by Claim. Missing tokens are a no-op.
func (c *orderClaims) Release(ctx context.Context, orderID, token string) error {
	if c == nil || c.client == nil || token == "" {
		return nil
	}
	key, err := orderKey(orderID)
	if err != nil {
		return nil
	}
	return c.release.Run(ctx, c.client, []string{key}, token).Err()
}
