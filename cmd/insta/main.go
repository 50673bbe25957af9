// cmd/insta/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/thejerf/suture/v4"
	"go.uber.org/zap"

	"github.com/InstaIntelli/insta/internal/api"
	"github.com/InstaIntelli/insta/internal/cache"
	"github.com/InstaIntelli/insta/internal/config"
	"github.com/InstaIntelli/insta/internal/database"
	"github.com/InstaIntelli/insta/internal/failover"
	"github.com/InstaIntelli/insta/internal/logging"
)

func main() {
	printConfig := flag.Bool("print-config", false, "print the effective configuration and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	if *printConfig {
		if err := cfg.WriteYAML(os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "print config: %v\n", err)
			os.Exit(1)
		}
		return
	}

	logger, err := logging.New(logging.LoggerConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	onAccess := cfg.Failover.Mode == config.ModeOnAccess
	registry := database.NewRegistry(cfg, logger,
		failover.WithMetrics(failover.NewMetrics(reg)),
		failover.WithCheckInterval(cfg.Failover.CheckInterval),
		failover.WithProbeTimeout(cfg.Failover.ProbeTimeout),
		failover.WithCheckOnAccess(onAccess),
	)
	defer func() {
		if err := registry.Close(); err != nil {
			logger.Error("close pools", zap.Error(err))
		}
	}()

	logEvents := func(e failover.Event) {
		fields := []zap.Field{
			zap.String("backend", e.Backend),
			zap.String("event", e.Type.String()),
			zap.Stringer("from", e.From),
			zap.Stringer("to", e.To),
		}
		if e.Err != nil {
			fields = append(fields, zap.Error(e.Err))
		}
		logger.Warn("failover event", fields...)
	}
	registry.Postgres.Subscribe(logEvents)
	registry.Mongo.Subscribe(logEvents)
	registry.Redis.Subscribe(logEvents)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	initSchema(ctx, cfg, registry, logger)

	supervisor := suture.New("insta", suture.Spec{
		EventHook: func(e suture.Event) {
			logger.Warn("supervisor event", zap.String("event", e.String()))
		},
		Timeout: cfg.Server.ShutdownTimeout + time.Second,
	})

	responses := cache.New(registry.Redis,
		cache.WithDefaultTTL(cfg.Cache.DefaultTTL),
		cache.WithMetrics(cache.NewMetrics(reg)),
		cache.WithLogger(logger.Named("cache")))

	server := api.NewServer(cfg.Server, logger.Named("api"), registry, api.NewMetrics(reg),
		api.WithUsers(database.NewUserStore(registry.Postgres)),
		api.WithPosts(database.NewPostStore(registry.Mongo, cfg.Document.PostsCollection)),
		api.WithCache(responses))
	supervisor.Add(server)
	if !onAccess {
		supervisor.Add(failover.NewMonitor(cfg.Failover.CheckInterval, logger.Named("monitor"), registry.Checkers()...))
	}

	logger.Info("InstaIntelli API started",
		zap.Int("port", cfg.Server.Port),
		zap.String("version", cfg.Server.Version),
		zap.String("failover_mode", cfg.Failover.Mode))

	err := supervisor.Serve(ctx)
	logger.Info("shutting down")
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// initSchema creates the relational tables and document indexes on
// whichever pools are active. Failures are logged and do not stop startup.
func initSchema(ctx context.Context, cfg *config.Config, registry *database.Registry, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := database.NewUserStore(registry.Postgres).CreateTables(ctx); err != nil {
		logger.Warn("create relational tables", zap.Error(err))
	}
	posts := database.NewPostStore(registry.Mongo, cfg.Document.PostsCollection)
	if err := posts.EnsureIndexes(ctx); err != nil {
		logger.Warn("ensure document indexes", zap.Error(err))
	}
}
