package redis

import (
	"context"
	"errors"
	"strings"
	"time"

	"vpn-storefront/internal/domain"
	"vpn-storefront/internal/domain/ports/repository"
	"vpn-storefront/internal/infra/metrics"

	"github.com/go-redis/redis/v8"
)

// referralCodeTTL keeps the hint around long enough to survive a closed
// tab but short enough that stale ownership changes age out.
const referralCodeTTL = 72 * time.Hour

var _ repository.ReferralCodeCache = (*ReferralCache)(nil)

// ReferralCache is a UX hint only. A recalled code is always passed back
// through full validation before any discount is applied.
type ReferralCache struct {
	client RedisClient
}

func NewReferralCache(client RedisClient) *ReferralCache {
	return &ReferralCache{client: client}
}

func referralKey(customerEmail string) string {
	return "referral_code:" + strings.ToLower(strings.TrimSpace(customerEmail))
}

func (c *ReferralCache) Remember(ctx context.Context, customerEmail, code string) error {
	return c.client.Set(ctx, referralKey(customerEmail), code, referralCodeTTL)
}

func (c *ReferralCache) Recall(ctx context.Context, customerEmail string) (string, error) {
	code, err := c.client.Get(ctx, referralKey(customerEmail))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.IncCacheRequest("referral_code", "miss")
			return "", domain.ErrNotFound
		}
		return "", err
	}
	metrics.IncCacheRequest("referral_code", "hit")
	return code, nil
}

func (c *ReferralCache) Forget(ctx context.Context, customerEmail string) error {
	return c.client.Del(ctx, referralKey(customerEmail))
}
