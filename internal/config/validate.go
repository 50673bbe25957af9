package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// maxProbeTimeout mirrors failover.DefaultProbeTimeout
const maxProbeTimeout = 5 * time.Second

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validLogFormats = map[string]bool{
	"json":    true,
	"text":    true,
	"console": true,
}

// Validate checks the configuration and reports every problem found
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("server.shutdown_timeout must be positive"))
	}

	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Errorf("logging.level must be one of debug, info, warn, error, got %q", c.Logging.Level))
	}
	if !validLogFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Errorf("logging.format must be json, text or console, got %q", c.Logging.Format))
	}

	switch c.Failover.Mode {
	case ModeOnAccess, ModeBackground:
	default:
		errs = append(errs, fmt.Errorf("failover.mode must be %s or %s, got %q", ModeOnAccess, ModeBackground, c.Failover.Mode))
	}
	if c.Failover.ProbeTimeout <= 0 || c.Failover.ProbeTimeout > maxProbeTimeout {
		errs = append(errs, fmt.Errorf("failover.probe_timeout must be in (0, %s], got %s", maxProbeTimeout, c.Failover.ProbeTimeout))
	}
	// A check must be able to finish before the next one is due
	if c.Failover.CheckInterval < c.Failover.ProbeTimeout || c.Failover.CheckInterval <= 0 {
		errs = append(errs, fmt.Errorf("failover.check_interval must be at least failover.probe_timeout (%s), got %s",
			c.Failover.ProbeTimeout, c.Failover.CheckInterval))
	}

	for name, pg := range map[string]PostgresConfig{
		"relational.primary":  c.Relational.Primary,
		"relational.fallback": c.Relational.Fallback,
	} {
		if pg.PoolSize < 1 {
			errs = append(errs, fmt.Errorf("%s.pool_size must be at least 1", name))
		}
		if pg.MaxOverflow < 0 {
			errs = append(errs, fmt.Errorf("%s.max_overflow must not be negative", name))
		}
	}

	if c.Document.PostsCollection == "" {
		errs = append(errs, errors.New("document.posts_collection must be set"))
	}
	if c.Cache.DefaultTTL <= 0 {
		errs = append(errs, errors.New("cache.default_ttl must be positive"))
	}

	return errors.Join(errs...)
}
