package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache TTLs
const (
	TTLOpportunities = 30 * time.Second // public listings, refreshed often
	TTLOpportunity   = 2 * time.Minute  // single posting
	TTLDefault       = 5 * time.Minute
)

// Cache key prefixes
const (
	PrefixOpportunity   = "opportunity:"
	PrefixOpportunities = "opportunities:"
)

// Service Redis cache service interface
type Service interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error

	// Opportunity listing cache
	GetOpportunities(ctx context.Context, filterKey string) ([]byte, error)
	SetOpportunities(ctx context.Context, filterKey string, data interface{}) error
	InvalidateOpportunities(ctx context.Context) error

	IsAvailable() bool
	Ping(ctx context.Context) error
}

type redisCache struct {
	client *redis.Client
}

// NewService creates a new cache service
func NewService(client *redis.Client) Service {
	return &redisCache{client: client}
}

func (c *redisCache) IsAvailable() bool {
	return c.client != nil
}

func (c *redisCache) Ping(ctx context.Context) error {
	if c.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	return c.client.Ping(ctx).Err()
}

// Get reads a cached value into dest
func (c *redisCache) Get(ctx context.Context, key string, dest interface{}) error {
	if c.client == nil {
		return fmt.Errorf("redis not available")
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return err
	}

	return json.Unmarshal(data, dest)
}

// Set stores a value with a TTL
func (c *redisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if c.client == nil {
		return nil // no Redis, cache is a no-op
	}

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, key, data, ttl).Err()
}

// Delete removes keys
func (c *redisCache) Delete(ctx context.Context, keys ...string) error {
	if c.client == nil || len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

// GetOpportunities returns a cached opportunity listing for a filter key
func (c *redisCache) GetOpportunities(ctx context.Context, filterKey string) ([]byte, error) {
	if c.client == nil {
		return nil, redis.Nil
	}
	return c.client.Get(ctx, PrefixOpportunities+filterKey).Bytes()
}

// SetOpportunities caches an opportunity listing under a filter key
func (c *redisCache) SetOpportunities(ctx context.Context, filterKey string, data interface{}) error {
	return c.Set(ctx, PrefixOpportunities+filterKey, data, TTLOpportunities)
}

// InvalidateOpportunities drops every cached listing after a write
func (c *redisCache) InvalidateOpportunities(ctx context.Context) error {
	if c.client == nil {
		return nil
	}

	iter := c.client.Scan(ctx, 0, PrefixOpportunities+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}
