package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ambulance-list/internal/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// ErrCacheMiss reports a key that is not in the cache.
var ErrCacheMiss = errors.New("cache miss")

// Fetcher is the upstream a CachingProvider wraps.
type Fetcher interface {
	FetchTransports(ctx context.Context, departmentID string) ([]models.TransportRecord, error)
}

// KVStore abstracts the cache so tests can swap Redis out.
type KVStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

type RedisKVStore struct {
	client *redis.Client
}

func NewRedisKVStore(client *redis.Client) *RedisKVStore {
	return &RedisKVStore{client: client}
}

func (r *RedisKVStore) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", ErrCacheMiss
		}
		return "", err
	}
	return val, nil
}

func (r *RedisKVStore) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *RedisKVStore) Del(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

// CachingProvider serves transports from the cache while they are fresh.
// Each entry keeps two keys: a fresh marker that expires after ttl and the
// payload itself, which outlives it so a failing upstream can fall back to
// the last known sequence. A non-positive ttl disables caching and every
// call goes straight to the upstream.
type CachingProvider struct {
	upstream Fetcher
	kv       KVStore
	ttl      time.Duration
	staleTTL time.Duration
	disabled bool
	logger   *zap.Logger
}

func NewCachingProvider(upstream Fetcher, kv KVStore, ttl time.Duration, logger *zap.Logger) *CachingProvider {
	return &CachingProvider{
		upstream: upstream,
		kv:       kv,
		ttl:      ttl,
		staleTTL: 10 * ttl,
		disabled: ttl <= 0,
		logger:   logger,
	}
}

func cacheKey(departmentID string) string {
	return fmt.Sprintf("transports:department:%s", departmentID)
}

func freshKey(departmentID string) string {
	return cacheKey(departmentID) + ":fresh"
}

func (c *CachingProvider) FetchTransports(ctx context.Context, departmentID string) ([]models.TransportRecord, error) {
	if c.disabled {
		return c.upstream.FetchTransports(ctx, departmentID)
	}
	if _, err := c.kv.Get(ctx, freshKey(departmentID)); err == nil {
		if cached, err := c.load(ctx, departmentID); err == nil {
			c.logger.Debug("Transport cache hit", zap.String("department_id", departmentID))
			return cached, nil
		}
	}

	transports, err := c.upstream.FetchTransports(ctx, departmentID)
	if err != nil {
		stale, cacheErr := c.load(ctx, departmentID)
		if cacheErr != nil {
			return nil, err
		}
		c.logger.Warn("Serving stale transports after upstream failure",
			zap.String("department_id", departmentID),
			zap.Error(err),
		)
		return stale, nil
	}

	if err := c.store(ctx, departmentID, transports); err != nil {
		c.logger.Warn("Failed to cache transports",
			zap.String("department_id", departmentID),
			zap.Error(err),
		)
	}
	return transports, nil
}

// Warm fetches from upstream and overwrites the cached entry.
func (c *CachingProvider) Warm(ctx context.Context, departmentID string) (int, error) {
	transports, err := c.upstream.FetchTransports(ctx, departmentID)
	if err != nil {
		return 0, err
	}
	if c.disabled {
		return len(transports), nil
	}
	if err := c.store(ctx, departmentID, transports); err != nil {
		return 0, fmt.Errorf("cache transports for %s: %w", departmentID, err)
	}
	return len(transports), nil
}

func (c *CachingProvider) Invalidate(ctx context.Context, departmentID string) error {
	if err := c.kv.Del(ctx, freshKey(departmentID)); err != nil {
		return err
	}
	return c.kv.Del(ctx, cacheKey(departmentID))
}

func (c *CachingProvider) load(ctx context.Context, departmentID string) ([]models.TransportRecord, error) {
	raw, err := c.kv.Get(ctx, cacheKey(departmentID))
	if err != nil {
		return nil, err
	}
	var transports []models.TransportRecord
	if err := json.Unmarshal([]byte(raw), &transports); err != nil {
		return nil, fmt.Errorf("decode cached transports: %w", err)
	}
	return transports, nil
}

func (c *CachingProvider) store(ctx context.Context, departmentID string, transports []models.TransportRecord) error {
	if transports == nil {
		transports = []models.TransportRecord{}
	}
	data, err := json.Marshal(transports)
	if err != nil {
		return fmt.Errorf("encode transports: %w", err)
	}
	if err := c.kv.Set(ctx, cacheKey(departmentID), string(data), c.staleTTL); err != nil {
		return err
	}
	return c.kv.Set(ctx, freshKey(departmentID), "1", c.ttl)
}
