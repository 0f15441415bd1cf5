package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/oselu/walletpay/internal/models"
	"github.com/oselu/walletpay/internal/observability"
)

const walletCacheKeyPrefix = "wallet:name:"

// walletCache is a read-through cache for wallet lookups by name. Misses and
// redis failures fall back to the store; settlement and deletion invalidate.
type walletCache struct {
	redis redis.Cmdable
	ttl   time.Duration
}

func newWalletCache(client redis.Cmdable, ttl time.Duration) *walletCache {
	return &walletCache{redis: client, ttl: ttl}
}

func (c *walletCache) get(ctx context.Context, name string) *models.Wallet {
	if c == nil || c.redis == nil {
		return nil
	}
	val, err := c.redis.Get(ctx, walletCacheKeyPrefix+name).Result()
	if err != nil {
		if err != redis.Nil {
			zap.L().Warn("wallet cache lookup failed", zap.Error(err), zap.String("wallet", name))
		}
		observability.IncrementWalletCache("miss")
		return nil
	}
	var w models.Wallet
	if err := json.Unmarshal([]byte(val), &w); err != nil {
		observability.IncrementWalletCache("miss")
		return nil
	}
	observability.IncrementWalletCache("hit")
	return &w
}

func (c *walletCache) set(ctx context.Context, w *models.Wallet) {
	if c == nil || c.redis == nil || w == nil {
		return
	}
	buf, err := json.Marshal(w)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, walletCacheKeyPrefix+w.Name, buf, c.ttl).Err(); err != nil {
		zap.L().Warn("wallet cache store failed", zap.Error(err), zap.String("wallet", w.Name))
	}
}

func (c *walletCache) invalidate(ctx context.Context, names ...string) {
	if c == nil || c.redis == nil || len(names) == 0 {
		return
	}
	keys := make([]string, len(names))
	for i, n := range names {
		keys[i] = walletCacheKeyPrefix + n
	}
	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		zap.L().Warn("wallet cache invalidation failed", zap.Error(err), zap.Strings("wallets", names))
	}
}
