package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"crm-pipeline/internal/model"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const cacheKeyPrefix = "crm:records:"

// RedisCache caches a provider's record set in redis so that several
// API instances share one upstream fetch per TTL.
type RedisCache struct {
	client   *redis.Client
	entity   string
	provider Provider
	ttl      time.Duration
	logger   zerolog.Logger
}

// NewRedisCache wraps p with a cache entry keyed by entity.
func NewRedisCache(client *redis.Client, entity string, p Provider, ttl time.Duration, logger zerolog.Logger) *RedisCache {
	return &RedisCache{client: client, entity: entity, provider: p, ttl: ttl, logger: logger}
}

// CacheKey is the redis key holding an entity's records.
func CacheKey(entity string) string {
	return cacheKeyPrefix + entity
}

// Records serves from the cache, falling through to the provider on a
// miss. Redis failures degrade to a direct fetch.
func (c *RedisCache) Records(ctx context.Context) ([]model.Record, error) {
	key := CacheKey(c.entity)

	data, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var records []model.Record
		if err := json.Unmarshal(data, &records); err == nil {
			return records, nil
		}
		c.logger.Warn().Str("entity", c.entity).Msg("discarding undecodable cache entry")
	case errors.Is(err, redis.Nil):
	default:
		c.logger.Warn().Err(err).Str("entity", c.entity).Msg("redis read failed")
	}

	records, err := c.provider.Records(ctx)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("failed to encode records for cache: %w", err)
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("entity", c.entity).Msg("redis write failed")
	}
	return records, nil
}

// Invalidate drops the cached entry, e.g. after a dataset upload.
func (c *RedisCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, CacheKey(c.entity)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cache for %s: %w", c.entity, err)
	}
	return nil
}
