package database

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/InstaIntelli/insta/internal/config"
	"github.com/InstaIntelli/insta/internal/failover"
)

// RedisPool is a cache client for one role
type RedisPool struct {
	client *redis.Client
	role   failover.Role
	logger *zap.Logger
}

// NewRedisPool creates a client for cfg, from its URL or else its host and
// port. It returns failover.ErrNotConfigured when neither is set.
func NewRedisPool(role failover.Role, cfg config.RedisConfig, logger *zap.Logger) (*RedisPool, error) {
	if !cfg.Configured() {
		return nil, failover.ErrNotConfigured
	}

	opts, err := redisOptions(cfg)
	if err != nil {
		return nil, fmt.Errorf("redis %s: %w", role, err)
	}

	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("redis client initialized",
		zap.Stringer("role", role),
		zap.String("label", cfg.Label),
		zap.String("addr", opts.Addr),
		zap.Int("db", opts.DB))

	return &RedisPool{
		client: redis.NewClient(opts),
		role:   role,
		logger: logger,
	}, nil
}

func redisOptions(cfg config.RedisConfig) (*redis.Options, error) {
	var opts *redis.Options
	if cfg.URL != "" {
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parse url: %w", err)
		}
		opts = parsed
	} else {
		port := cfg.Port
		if port == 0 {
			port = 6379
		}
		opts = &redis.Options{
			Addr:     net.JoinHostPort(cfg.Host, strconv.Itoa(port)),
			Password: cfg.Password,
			DB:       cfg.DB,
		}
	}

	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	if cfg.ReadTimeout > 0 {
		opts.ReadTimeout = cfg.ReadTimeout
	}
	if cfg.WriteTimeout > 0 {
		opts.WriteTimeout = cfg.WriteTimeout
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	return opts, nil
}

// Probe sends PING
func (p *RedisPool) Probe(ctx context.Context) error {
	if err := p.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis %s probe: %w", p.role, err)
	}
	return nil
}

// Checkout takes a dedicated connection from the client pool
func (p *RedisPool) Checkout(ctx context.Context) (*redis.Conn, error) {
	return p.client.Conn(), nil
}

// Checkin returns conn to the client pool
func (p *RedisPool) Checkin(conn *redis.Conn) error {
	return conn.Close()
}

// Close closes the client
func (p *RedisPool) Close() error {
	return p.client.Close()
}
