package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dukahub/pos-api/internal/domain"
)

// RedisCache caches dashboard metrics and product listings. Sale commits and
// product edits invalidate; readers fall back to the database on miss.
type RedisCache struct {
	client         *redis.Client
	dashboardTTL   time.Duration
	productListTTL time.Duration
}

// NewRedisCache creates a new Redis cache instance
func NewRedisCache(client *redis.Client, dashboardTTL, productListTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:         client,
		dashboardTTL:   dashboardTTL,
		productListTTL: productListTTL,
	}
}

const (
	dashboardMetricsKey = "dashboard:metrics"
	productKeySet       = "products:cache_keys"
)

func productListKey(limit, offset int) string {
	return fmt.Sprintf("products:list:limit:%d:offset:%d", limit, offset)
}

// GetDashboardMetrics retrieves cached dashboard metrics
func (c *RedisCache) GetDashboardMetrics(ctx context.Context) (*domain.DashboardMetrics, error) {
	val, err := c.client.Get(ctx, dashboardMetricsKey).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	var metrics domain.DashboardMetrics
	if err := json.Unmarshal([]byte(val), &metrics); err != nil {
		return nil, err
	}

	return &metrics, nil
}

// SetDashboardMetrics stores dashboard metrics in cache
func (c *RedisCache) SetDashboardMetrics(ctx context.Context, metrics *domain.DashboardMetrics) error {
	data, err := json.Marshal(metrics)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, dashboardMetricsKey, data, c.dashboardTTL).Err()
}

// InvalidateDashboardMetrics removes dashboard metrics from cache
func (c *RedisCache) InvalidateDashboardMetrics(ctx context.Context) error {
	return c.client.Del(ctx, dashboardMetricsKey).Err()
}

// GetProductList retrieves a cached product page
func (c *RedisCache) GetProductList(ctx context.Context, limit, offset int) ([]*domain.Product, error) {
	val, err := c.client.Get(ctx, productListKey(limit, offset)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	var products []*domain.Product
	if err := json.Unmarshal([]byte(val), &products); err != nil {
		return nil, err
	}

	return products, nil
}

// SetProductList stores a product page in cache and tracks the key in a SET
func (c *RedisCache) SetProductList(ctx context.Context, limit, offset int, products []*domain.Product) error {
	key := productListKey(limit, offset)

	data, err := json.Marshal(products)
	if err != nil {
		return err
	}

	pipe := c.client.Pipeline()
	pipe.Set(ctx, key, data, c.productListTTL)
	pipe.SAdd(ctx, productKeySet, key)
	pipe.Expire(ctx, productKeySet, c.productListTTL)
	_, err = pipe.Exec(ctx)
	return err
}

// InvalidateProductLists removes all cached product pages using SET-based tracking
func (c *RedisCache) InvalidateProductLists(ctx context.Context) error {
	keys, err := c.client.SMembers(ctx, productKeySet).Result()
	if err != nil && err != redis.Nil {
		return err
	}

	if len(keys) > 0 {
		keys = append(keys, productKeySet)
		return c.client.Unlink(ctx, keys...).Err()
	}

	return nil
}

// InvalidateAfterSale invalidates everything a committed sale makes stale
func (c *RedisCache) InvalidateAfterSale(ctx context.Context) error {
	if err := c.InvalidateDashboardMetrics(ctx); err != nil && err != redis.Nil {
		return err
	}

	if err := c.InvalidateProductLists(ctx); err != nil && err != redis.Nil {
		return err
	}

	return nil
}
