package recognition

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/findshroom/findshroom-server/internal/metrics"
)

const cacheKeyPrefix = "findshroom:recognition:"

// ErrCorruptEntry is returned by Cache.Get when a stored value cannot be
// decoded.
var ErrCorruptEntry = errors.New("corrupt cache entry")

// Cache stores JSON values under string keys.
type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// RedisConfig configures the Redis connection.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RedisCache is a Cache backed by Redis.
type RedisCache struct {
	db *redis.Client
}

// NewRedisCache connects to Redis and pings it.
func NewRedisCache(ctx context.Context, cfg RedisConfig) (*RedisCache, error) {
	db := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
	if err := db.Ping(ctx).Err(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return &RedisCache{db: db}, nil
}

// Get decodes the value at key into dest. It reports false on a miss.
func (c *RedisCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	val, err := c.db.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get: %w", err)
	}
	if err := json.Unmarshal(val, dest); err != nil {
		return false, fmt.Errorf("%w: %v", ErrCorruptEntry, err)
	}
	return true, nil
}

// Set stores value as JSON with the given TTL.
func (c *RedisCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	return c.db.Set(ctx, key, data, ttl).Err()
}

// Invalidate removes key.
func (c *RedisCache) Invalidate(ctx context.Context, key string) error {
	return c.db.Del(ctx, key).Err()
}

// Close closes the connection pool.
func (c *RedisCache) Close() error {
	return c.db.Close()
}

// CachingRecognizer serves repeated images from a cache. Cache errors are
// logged and the call falls through to the wrapped Recognizer. Degraded
// results are not cached. Entries that cannot be decoded or that another
// backend produced are invalidated and recognized again.
type CachingRecognizer struct {
	next     Recognizer
	cache    Cache
	ttl      time.Duration
	observer Observer
	logger   *slog.Logger
}

var _ Recognizer = (*CachingRecognizer)(nil)

// NewCachingRecognizer wraps next with cache.
func NewCachingRecognizer(next Recognizer, cache Cache, ttl time.Duration, observer Observer, logger *slog.Logger) *CachingRecognizer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &CachingRecognizer{next: next, cache: cache, ttl: ttl, observer: observer, logger: logger}
}

// Name returns the wrapped recognizer's name.
func (c *CachingRecognizer) Name() string {
	return c.next.Name()
}

// CacheKey returns the cache key for an image.
func CacheKey(image []byte) string {
	sum := sha256.Sum256(image)
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}

// Recognize implements Recognizer.
func (c *CachingRecognizer) Recognize(ctx context.Context, image []byte) (*Result, error) {
	key := CacheKey(image)

	var cached Result
	hit, err := c.cache.Get(ctx, key, &cached)
	if err != nil {
		c.logger.Warn("recognition cache read failed", "error", err)
		if errors.Is(err, ErrCorruptEntry) {
			c.invalidate(ctx, key)
		}
	}
	if hit && cached.Backend != c.next.Name() {
		c.logger.Debug("dropping cached result from another backend", "cached_backend", cached.Backend)
		c.invalidate(ctx, key)
		hit = false
	}
	if hit {
		if c.observer != nil {
			c.observer.ObserveRecognition(c.next.Name(), metrics.OutcomeCached, 0)
		}
		return &cached, nil
	}

	result, err := c.next.Recognize(ctx, image)
	if err != nil {
		return nil, err
	}
	if result.Degraded {
		return result, nil
	}

	if err := c.cache.Set(ctx, key, result, c.ttl); err != nil {
		c.logger.Warn("recognition cache write failed", "error", err)
	}
	return result, nil
}

func (c *CachingRecognizer) invalidate(ctx context.Context, key string) {
	if err := c.cache.Invalidate(ctx, key); err != nil {
		c.logger.Warn("recognition cache invalidate failed", "error", err)
	}
}
