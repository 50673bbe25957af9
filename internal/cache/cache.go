// internal/cache/cache.go
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultTTL is used when Set is called with ttl <= 0
const DefaultTTL = time.Hour

// ErrMiss is returned by Get when the key does not exist
var ErrMiss = errors.New("cache miss")

// Runner runs fn with a connection from the active cache pool
type Runner interface {
	Do(ctx context.Context, fn func(ctx context.Context, conn *redis.Conn) error) error
}

// Cache stores JSON values in the cache backend
type Cache struct {
	db         Runner
	defaultTTL time.Duration
	metrics    *Metrics
	logger     *zap.Logger
}

// Option configures a Cache
type Option func(*Cache)

// WithDefaultTTL sets the TTL used when Set gets none
func WithDefaultTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.defaultTTL = ttl
		}
	}
}

// WithMetrics counts hits, misses and errors on m
func WithMetrics(m *Metrics) Option {
	return func(c *Cache) {
		c.metrics = m
	}
}

// WithLogger sets the cache logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func New(db Runner, opts ...Option) *Cache {
	c := &Cache{
		db:         db,
		defaultTTL: DefaultTTL,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get decodes the value at key into dest. It returns ErrMiss when the key
// does not exist.
func (c *Cache) Get(ctx context.Context, key string, dest any) error {
	var raw []byte
	err := c.db.Do(ctx, func(ctx context.Context, conn *redis.Conn) error {
		b, err := conn.Get(ctx, key).Bytes()
		if err != nil {
			return err
		}
		raw = b
		return nil
	})
	if errors.Is(err, redis.Nil) {
		c.metrics.miss()
		return ErrMiss
	}
	if err != nil {
		return c.fail("get", key, err)
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return c.fail("get", key, fmt.Errorf("decode: %w", err))
	}
	c.metrics.hit()
	return nil
}

// Set stores value as JSON at key with ttl, or the default TTL if ttl <= 0
func (c *Cache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return c.fail("set", key, fmt.Errorf("encode: %w", err))
	}

	err = c.db.Do(ctx, func(ctx context.Context, conn *redis.Conn) error {
		return conn.SetEx(ctx, key, raw, ttl).Err()
	})
	if err != nil {
		return c.fail("set", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (c *Cache) Delete(ctx context.Context, key string) error {
	err := c.db.Do(ctx, func(ctx context.Context, conn *redis.Conn) error {
		return conn.Del(ctx, key).Err()
	})
	if err != nil {
		return c.fail("delete", key, err)
	}
	return nil
}

func (c *Cache) fail(op, key string, err error) error {
	c.metrics.failure(op)
	c.logger.Warn("cache operation failed",
		zap.String("op", op),
		zap.String("key", key),
		zap.Error(err))
	return fmt.Errorf("cache %s %s: %w", op, key, err)
}
