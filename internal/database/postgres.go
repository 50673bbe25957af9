package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"go.uber.org/zap"

	"github.com/InstaIntelli/insta/internal/config"
	"github.com/InstaIntelli/insta/internal/failover"
)

// PostgresPool is a relational connection pool for one role
type PostgresPool struct {
	db     *sql.DB
	role   failover.Role
	logger *zap.Logger
}

// NewPostgresPool opens a pool for cfg. It returns failover.ErrNotConfigured
// when cfg has no URL. No connection is made until first use.
func NewPostgresPool(role failover.Role, cfg config.PostgresConfig, logger *zap.Logger) (*PostgresPool, error) {
	if cfg.URL == "" {
		return nil, failover.ErrNotConfigured
	}

	dsn, err := postgresDSN(cfg.URL, cfg.ConnectTimeout)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(cfg.PoolSize + cfg.MaxOverflow)
	db.SetMaxIdleConns(cfg.PoolSize)
	db.SetConnMaxLifetime(cfg.Recycle)

	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("postgres pool initialized",
		zap.Stringer("role", role),
		zap.String("label", cfg.Label),
		zap.Int("pool_size", cfg.PoolSize),
		zap.Int("max_overflow", cfg.MaxOverflow))

	return &PostgresPool{db: db, role: role, logger: logger}, nil
}

// NewPostgresPoolFromDB wraps an existing *sql.DB
func NewPostgresPoolFromDB(db *sql.DB, role failover.Role) *PostgresPool {
	return &PostgresPool{db: db, role: role, logger: zap.NewNop()}
}

// Probe runs SELECT 1
func (p *PostgresPool) Probe(ctx context.Context) error {
	var one int
	if err := p.db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("postgres %s probe: %w", p.role, err)
	}
	return nil
}

// Checkout reserves a single connection
func (p *PostgresPool) Checkout(ctx context.Context) (*sql.Conn, error) {
	conn, err := p.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("postgres %s conn: %w", p.role, err)
	}
	return conn, nil
}

// Checkin returns conn to the pool
func (p *PostgresPool) Checkin(conn *sql.Conn) error {
	return conn.Close()
}

// Close closes the database connection
func (p *PostgresPool) Close() error {
	return p.db.Close()
}

// Stats returns pool statistics
func (p *PostgresPool) Stats() sql.DBStats {
	return p.db.Stats()
}

// postgresDSN normalizes a connection URL for lib/pq. SQLAlchemy style
// driver suffixes are dropped, connect_timeout is added and sslmode
// defaults to require for Supabase hosts and disable elsewhere.
func postgresDSN(raw string, connectTimeout time.Duration) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse postgres url: %w", err)
	}

	scheme, _, _ := strings.Cut(u.Scheme, "+")
	switch scheme {
	case "postgres", "postgresql":
		u.Scheme = scheme
	default:
		return "", fmt.Errorf("parse postgres url: unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("parse postgres url: missing host")
	}

	q := u.Query()
	if q.Get("connect_timeout") == "" && connectTimeout > 0 {
		secs := int(connectTimeout / time.Second)
		if secs < 1 {
			secs = 1
		}
		q.Set("connect_timeout", strconv.Itoa(secs))
	}
	if q.Get("sslmode") == "" {
		if isSupabaseHost(u.Hostname()) {
			q.Set("sslmode", "require")
		} else {
			q.Set("sslmode", "disable")
		}
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}

func isSupabaseHost(host string) bool {
	host = strings.ToLower(host)
	return strings.HasSuffix(host, ".supabase.co") || strings.HasSuffix(host, ".supabase.com")
}
