package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"go.uber.org/zap"

	"github.com/InstaIntelli/insta/internal/config"
	"github.com/InstaIntelli/insta/internal/failover"
)

const mongoDisconnectTimeout = 5 * time.Second

// DocumentConn is a logical session on one document store
type DocumentConn struct {
	Client   *mongo.Client
	Database *mongo.Database
	Session  *mongo.Session
}

// Context binds ctx to the connection's session
func (c *DocumentConn) Context(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, c.Session)
}

// MongoPool is a document store client for one role
type MongoPool struct {
	client   *mongo.Client
	database string
	role     failover.Role
	logger   *zap.Logger
}

// NewMongoPool creates a client for cfg. It returns
// failover.ErrNotConfigured when cfg has no URL. The client connects lazily.
func NewMongoPool(role failover.Role, cfg config.MongoConfig, logger *zap.Logger) (*MongoPool, error) {
	if cfg.URL == "" {
		return nil, failover.ErrNotConfigured
	}
	if cfg.Database == "" {
		return nil, fmt.Errorf("mongo %s: database name is empty", role)
	}

	opts := options.Client().
		ApplyURI(cfg.URL).
		SetAppName("insta").
		SetServerSelectionTimeout(cfg.ServerSelectionTimeout).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetTimeout(cfg.SocketTimeout)
	if cfg.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(cfg.MaxPoolSize)
	}

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("mongo %s client: %w", role, err)
	}

	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("mongo client initialized",
		zap.Stringer("role", role),
		zap.String("label", cfg.Label),
		zap.String("database", cfg.Database))

	return &MongoPool{
		client:   client,
		database: cfg.Database,
		role:     role,
		logger:   logger,
	}, nil
}

// Probe pings the server selected by the primary read preference
func (p *MongoPool) Probe(ctx context.Context) error {
	if err := p.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("mongo %s probe: %w", p.role, err)
	}
	return nil
}

// Checkout starts a session on the pool's database
func (p *MongoPool) Checkout(ctx context.Context) (*DocumentConn, error) {
	session, err := p.client.StartSession()
	if err != nil {
		return nil, fmt.Errorf("mongo %s session: %w", p.role, err)
	}
	return &DocumentConn{
		Client:   p.client,
		Database: p.client.Database(p.database),
		Session:  session,
	}, nil
}

// Checkin ends the connection's session
func (p *MongoPool) Checkin(conn *DocumentConn) error {
	ctx, cancel := context.WithTimeout(context.Background(), mongoDisconnectTimeout)
	defer cancel()
	conn.Session.EndSession(ctx)
	return nil
}

// Close disconnects the client
func (p *MongoPool) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), mongoDisconnectTimeout)
	defer cancel()
	return p.client.Disconnect(ctx)
}

// DatabaseName returns the database sessions are bound to
func (p *MongoPool) DatabaseName() string {
	return p.database
}
