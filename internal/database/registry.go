// internal/database/registry.go
package database

import (
	"database/sql"
	"errors"

	"github.com/hashicorp/go-multierror"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/InstaIntelli/insta/internal/config"
	"github.com/InstaIntelli/insta/internal/failover"
)

// Backend kinds, as reported by the health endpoint
const (
	KindPostgres = "postgres"
	KindMongo    = "mongodb"
	KindRedis    = "redis"
)

// Registry owns the one failover manager per backend kind for the process
type Registry struct {
	Postgres *failover.Manager[*sql.Conn]
	Mongo    *failover.Manager[*DocumentConn]
	Redis    *failover.Manager[*redis.Conn]
}

// NewRegistry builds every pool and manager from cfg. A backend whose pool
// cannot be built is logged and treated as absent; NewRegistry never fails.
// opts apply to all three managers.
func NewRegistry(cfg *config.Config, logger *zap.Logger, opts ...failover.Option) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}

	pgLog := logger.Named(KindPostgres)
	pgPrimary := openPool[*sql.Conn](KindPostgres, failover.RolePrimary, pgLog, func() (*PostgresPool, error) {
		return NewPostgresPool(failover.RolePrimary, cfg.Relational.Primary, pgLog)
	})
	pgFallback := openPool[*sql.Conn](KindPostgres, failover.RoleFallback, pgLog, func() (*PostgresPool, error) {
		return NewPostgresPool(failover.RoleFallback, cfg.Relational.Fallback, pgLog)
	})

	mongoLog := logger.Named(KindMongo)
	mongoPrimary := openPool[*DocumentConn](KindMongo, failover.RolePrimary, mongoLog, func() (*MongoPool, error) {
		return NewMongoPool(failover.RolePrimary, cfg.Document.Primary, mongoLog)
	})
	mongoFallback := openPool[*DocumentConn](KindMongo, failover.RoleFallback, mongoLog, func() (*MongoPool, error) {
		return NewMongoPool(failover.RoleFallback, cfg.Document.Fallback, mongoLog)
	})

	redisLog := logger.Named(KindRedis)
	redisPrimary := openPool[*redis.Conn](KindRedis, failover.RolePrimary, redisLog, func() (*RedisPool, error) {
		return NewRedisPool(failover.RolePrimary, cfg.Cache.Primary, redisLog)
	})
	redisFallback := openPool[*redis.Conn](KindRedis, failover.RoleFallback, redisLog, func() (*RedisPool, error) {
		return NewRedisPool(failover.RoleFallback, cfg.Cache.Fallback, redisLog)
	})

	return &Registry{
		Postgres: failover.New(KindPostgres, pgPrimary, pgFallback,
			managerOptions(pgLog, cfg.Relational.Primary.Label, cfg.Relational.Fallback.Label, opts)...),
		Mongo: failover.New(KindMongo, mongoPrimary, mongoFallback,
			managerOptions(mongoLog, cfg.Document.Primary.Label, cfg.Document.Fallback.Label, opts)...),
		Redis: failover.New(KindRedis, redisPrimary, redisFallback,
			managerOptions(redisLog, cfg.Cache.Primary.Label, cfg.Cache.Fallback.Label, opts)...),
	}
}

func managerOptions(logger *zap.Logger, primary, fallback string, extra []failover.Option) []failover.Option {
	opts := []failover.Option{
		failover.WithLogger(logger),
		failover.WithLabels(failover.Labels{Primary: primary, Fallback: fallback}),
	}
	return append(opts, extra...)
}

// openPool runs open and converts its result to a pool, returning a nil
// interface (not a typed nil) when the pool is absent or misconfigured.
func openPool[C any, P failover.Pool[C]](kind string, role failover.Role, logger *zap.Logger, open func() (P, error)) failover.Pool[C] {
	pool, err := open()
	switch {
	case errors.Is(err, failover.ErrNotConfigured):
		logger.Info("pool not configured", zap.String("backend", kind), zap.Stringer("role", role))
		return nil
	case err != nil:
		logger.Error("invalid pool configuration", zap.String("backend", kind), zap.Stringer("role", role), zap.Error(err))
		return nil
	}
	return pool
}

// Reporters returns the managers in health report order
func (r *Registry) Reporters() []failover.Reporter {
	return []failover.Reporter{r.Postgres, r.Mongo, r.Redis}
}

// Checkers returns the managers for a background monitor
func (r *Registry) Checkers() []failover.Checker {
	return []failover.Checker{r.Postgres, r.Mongo, r.Redis}
}

// Close closes every pool and reports all failures
func (r *Registry) Close() error {
	var result error
	for _, closer := range []interface{ Close() error }{r.Postgres, r.Mongo, r.Redis} {
		if err := closer.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result
}
