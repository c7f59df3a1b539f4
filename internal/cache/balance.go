package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"

	"loyalty-ledger-backend/internal/config"
	"loyalty-ledger-backend/internal/domain"
	"loyalty-ledger-backend/internal/logger"
)

// BalanceCache is a read-through cache in front of the wallet projection.
//
// Entries are keyed by a per-wallet generation. Writers bump the generation
// after their transaction commits, so a reader never sees a balance older
// than its own last write. Cache failures degrade to misses.
type BalanceCache interface {
	// Lookup returns the cached balance and the generation it was read at.
	Lookup(ctx context.Context, key domain.WalletKey) (bal *domain.WalletBalance, gen int64, hit bool)
	// Store caches a balance loaded after Lookup returned gen.
	Store(ctx context.Context, key domain.WalletKey, gen int64, bal *domain.WalletBalance)
	// Invalidate bumps the generation of each wallet.
	Invalidate(ctx context.Context, keys ...domain.WalletKey)
}

// InitRedis connects to Redis. It returns nil when Redis is disabled or
// unreachable; callers continue without a cache.
func InitRedis(ctx context.Context, cfg *config.Config) *redis.Client {
	if !cfg.Redis.Enabled {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.GetRedisAddress(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warn("Redis connection failed, continuing without balance cache", "addr", cfg.GetRedisAddress(), "error", err)
		_ = rdb.Close()
		return nil
	}
	logger.Info("Redis connection established", "addr", cfg.GetRedisAddress())
	return rdb
}

// New returns a Redis-backed cache, or a no-op cache when rdb is nil.
func New(rdb *redis.Client, ttl time.Duration) BalanceCache {
	if rdb == nil {
		return Nop{}
	}
	return &RedisBalanceCache{rdb: rdb, ttl: ttl}
}

type RedisBalanceCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func genKey(k domain.WalletKey) string {
	return fmt.Sprintf("loyalty:wallet:%d:%d:gen", k.UserID, k.RestaurantID)
}

func balanceKey(k domain.WalletKey, gen int64) string {
	return fmt.Sprintf("loyalty:wallet:%d:%d:v%d", k.UserID, k.RestaurantID, gen)
}

func (c *RedisBalanceCache) generation(ctx context.Context, k domain.WalletKey) (int64, error) {
	v, err := c.rdb.Get(ctx, genKey(k)).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(v, 10, 64)
}

func (c *RedisBalanceCache) Lookup(ctx context.Context, key domain.WalletKey) (*domain.WalletBalance, int64, bool) {
	gen, err := c.generation(ctx, key)
	if err != nil {
		logger.Warn("Balance cache generation read failed", "userID", key.UserID, "restaurantID", key.RestaurantID, "error", err)
		return nil, -1, false
	}
	data, err := c.rdb.Get(ctx, balanceKey(key, gen)).Bytes()
	if err == redis.Nil {
		return nil, gen, false
	}
	if err != nil {
		logger.Warn("Balance cache read failed", "userID", key.UserID, "restaurantID", key.RestaurantID, "error", err)
		return nil, -1, false
	}
	var bal domain.WalletBalance
	if err := json.Unmarshal(data, &bal); err != nil {
		return nil, gen, false
	}
	return &bal, gen, true
}

func (c *RedisBalanceCache) Store(ctx context.Context, key domain.WalletKey, gen int64, bal *domain.WalletBalance) {
	if gen < 0 {
		return
	}
	data, err := json.Marshal(bal)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, balanceKey(key, gen), string(data), c.ttl).Err(); err != nil {
		logger.Warn("Balance cache write failed", "userID", key.UserID, "restaurantID", key.RestaurantID, "error", err)
	}
}

func (c *RedisBalanceCache) Invalidate(ctx context.Context, keys ...domain.WalletKey) {
	for _, k := range keys {
		if err := c.rdb.Incr(ctx, genKey(k)).Err(); err != nil {
			// TTL bounds staleness until the key recovers.
			logger.Warn("Balance cache invalidation failed", "userID", k.UserID, "restaurantID", k.RestaurantID, "error", err)
		}
	}
}

// Nop never hits.
type Nop struct{}

func (Nop) Lookup(context.Context, domain.WalletKey) (*domain.WalletBalance, int64, bool) {
	return nil, -1, false
}
func (Nop) Store(context.Context, domain.WalletKey, int64, *domain.WalletBalance) {}
func (Nop) Invalidate(context.Context, ...domain.WalletKey)                        {}
