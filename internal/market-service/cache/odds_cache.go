package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

type Cache struct{ R *redis.Client }

func New(r *redis.Client) *Cache { return &Cache{R: r} }

func keyMarket(marketID string) string { return "odds:current:" + marketID }

func (c *Cache) GetMarket(ctx context.Context, marketID string, dst any) (bool, error) {
	b, err := c.R.Get(ctx, keyMarket(marketID)).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal(b, dst)
}

func (c *Cache) SetMarket(ctx context.Context, marketID string, v any, ttl time.Duration) error {
	b, _ := json.Marshal(v)
	return c.R.Set(ctx, keyMarket(marketID), b, ttl).Err()
}
