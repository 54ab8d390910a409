package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/vladislavdragonenkov/bookshop/internal/domain"
)

const productKeyPrefix = "bookshop:catalog:product:"

// ProductCache хранит сериализованные карточки книг с TTL.
// Промах кэша не является ошибкой и возвращается вторым значением.
type ProductCache interface {
	Get(ctx context.Context, productID string) (domain.Product, bool, error)
	Set(ctx context.Context, product domain.Product, ttl time.Duration) error
	Delete(ctx context.Context, productID string) error
}

// RedisProductCache реализует ProductCache поверх Redis.
// Карточки хранятся как JSON и целиком перезаписываются при Set.
type RedisProductCache struct {
	client *redis.Client
}

func NewRedisProductCache(client *redis.Client) *RedisProductCache {
	return &RedisProductCache{client: client}
}

var _ ProductCache = (*RedisProductCache)(nil)

func productKey(productID string) string {
	return productKeyPrefix + productID
}

func (c *RedisProductCache) Get(ctx context.Context, productID string) (domain.Product, bool, error) {
	payload, err := c.client.Get(ctx, productKey(productID)).Result()
	if err == redis.Nil {
		return domain.Product{}, false, nil
	}
	if err != nil {
		return domain.Product{}, false, fmt.Errorf("redis get product %s: %w", productID, err)
	}

	var product domain.Product
	if err := json.Unmarshal([]byte(payload), &product); err != nil {
		return domain.Product{}, false, fmt.Errorf("decode cached product %s: %w", productID, err)
	}

	return product, true, nil
}

func (c *RedisProductCache) Set(ctx context.Context, product domain.Product, ttl time.Duration) error {
	payload, err := json.Marshal(product)
	if err != nil {
		return fmt.Errorf("encode product %s: %w", product.ID, err)
	}
	if err := c.client.Set(ctx, productKey(product.ID), payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set product %s: %w", product.ID, err)
	}
	return nil
}

func (c *RedisProductCache) Delete(ctx context.Context, productID string) error {
	if err := c.client.Del(ctx, productKey(productID)).Err(); err != nil {
		return fmt.Errorf("redis delete product %s: %w", productID, err)
	}
	return nil
}
