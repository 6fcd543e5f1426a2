package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"shop/internal/config"
	"shop/internal/domain/model"
	"shop/internal/usecase"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	keyPrefix         = "catalog:"
	keyRootCategories = keyPrefix + "categories"
	keyProductPrefix  = keyPrefix + "product:"
)

// カタログの読み取りをRedisにJSONで置く。
// Redisが落ちていてもエラーにはせず、毎回DBを読むだけにする。
type RedisCatalogCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

func NewRedisCatalogCache(cfg config.RedisConfig, ttl time.Duration, log *zap.Logger) *RedisCatalogCache {
	return NewRedisCatalogCacheWithClient(redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}), ttl, log)
}

func NewRedisCatalogCacheWithClient(client *redis.Client, ttl time.Duration, log *zap.Logger) *RedisCatalogCache {
	if log == nil {
		log = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisCatalogCache{client: client, ttl: ttl, log: log}
}

func (c *RedisCatalogCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCatalogCache) Close() error {
	return c.client.Close()
}

func (c *RedisCatalogCache) GetRootCategories(ctx context.Context) ([]model.Category, bool) {
	var cats []model.Category
	if !c.getJSON(ctx, keyRootCategories, &cats) {
		return nil, false
	}
	return cats, true
}

func (c *RedisCatalogCache) SetRootCategories(ctx context.Context, cats []model.Category) {
	c.setJSON(ctx, keyRootCategories, cats)
}

func (c *RedisCatalogCache) GetProduct(ctx context.Context, slug string) (model.Product, bool) {
	var p model.Product
	if !c.getJSON(ctx, keyProductPrefix+slug, &p) {
		return model.Product{}, false
	}
	return p, true
}

func (c *RedisCatalogCache) SetProduct(ctx context.Context, p model.Product) {
	c.setJSON(ctx, keyProductPrefix+p.Slug, p)
}

// catalog:* を全部消す
func (c *RedisCatalogCache) Invalidate(ctx context.Context) {
	iter := c.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.log.Warn("cache scan failed", zap.Error(err))
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.log.Warn("cache invalidate failed", zap.Error(err))
	}
}

func (c *RedisCatalogCache) getJSON(ctx context.Context, key string, dest interface{}) bool {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false
	}
	if err != nil {
		c.log.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		c.log.Warn("cache decode failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (c *RedisCatalogCache) setJSON(ctx context.Context, key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		c.log.Warn("cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.log.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

var _ usecase.CatalogCache = (*RedisCatalogCache)(nil)
