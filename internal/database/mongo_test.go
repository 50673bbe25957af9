package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/InstaIntelli/insta/internal/config"
	"github.com/InstaIntelli/insta/internal/failover"
)

func TestNewMongoPool_NotConfigured(t *testing.T) {
	pool, err := NewMongoPool(failover.RolePrimary, config.MongoConfig{}, nil)
	assert.Nil(t, pool)
	assert.ErrorIs(t, err, failover.ErrNotConfigured)
}

func TestNewMongoPool_RequiresDatabase(t *testing.T) {
	_, err := NewMongoPool(failover.RolePrimary, config.MongoConfig{URL: "mongodb://localhost:27017"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database name")
}

func TestNewMongoPool_InvalidURL(t *testing.T) {
	_, err := NewMongoPool(failover.RoleFallback, config.MongoConfig{URL: "http://localhost", Database: "insta"}, nil)
	require.Error(t, err)
	assert.NotErrorIs(t, err, failover.ErrNotConfigured)
}

func TestMongoPool_ProbeUnreachable(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping network test in short mode")
	}

	cfg := config.Default().Document.Fallback
	cfg.URL = "mongodb://127.0.0.1:1/?directConnection=true"
	cfg.ServerSelectionTimeout = 200 * time.Millisecond
	cfg.ConnectTimeout = 200 * time.Millisecond

	pool, err := NewMongoPool(failover.RoleFallback, cfg, nil)
	require.NoError(t, err)
	defer pool.Close()
	assert.Equal(t, "instaintelli", pool.DatabaseName())

	res := failover.Probe(context.Background(), pool, time.Second)
	assert.False(t, res.Healthy)
	assert.Less(t, res.Latency, 2*time.Second)
	assert.Contains(t, res.Err.Error(), "mongo fallback probe")
}
