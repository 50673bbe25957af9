package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar names the variable pointing at an optional YAML file
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultConfigPaths are searched when CONFIG_PATH is unset
var DefaultConfigPaths = []string{
	"config.yaml",
	"/etc/insta/config.yaml",
}

// envMappings maps environment variable names (lowercased) to config paths.
// Names follow the ones already used by the deployment.
var envMappings = map[string]string{
	"port":             "server.port",
	"shutdown_timeout": "server.shutdown_timeout",
	"app_version":      "server.version",

	"log_level":  "logging.level",
	"log_format": "logging.format",

	"failover_mode":           "failover.mode",
	"failover_check_interval": "failover.check_interval",
	"failover_probe_timeout":  "failover.probe_timeout",

	// Relational: Supabase primary, local PostgreSQL fallback
	"supabase_db_url":       "relational.primary.url",
	"supabase_pool_size":    "relational.primary.pool_size",
	"supabase_max_overflow": "relational.primary.max_overflow",
	"postgres_url":          "relational.fallback.url",
	"postgres_pool_size":    "relational.fallback.pool_size",
	"postgres_max_overflow": "relational.fallback.max_overflow",

	// Document: MongoDB Atlas primary, local MongoDB fallback
	"mongodb_atlas_url":        "document.primary.url",
	"mongodb_atlas_database":   "document.primary.database",
	"mongodb_url":              "document.fallback.url",
	"mongodb_database":         "document.fallback.database",
	"mongodb_posts_collection": "document.posts_collection",

	// Cache: Upstash primary, local Redis fallback
	"upstash_redis_url": "cache.primary.url",
	"redis_url":         "cache.fallback.url",
	"redis_host":        "cache.fallback.host",
	"redis_port":        "cache.fallback.port",
	"redis_password":    "cache.fallback.password",
	"redis_db":          "cache.fallback.db",
	"cache_default_ttl": "cache.default_ttl",
}

// Load builds the configuration from defaults, an optional YAML file and
// the environment, in increasing priority, then validates it.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns CONFIG_PATH if it exists, else the first default
// path that exists, else ""
func findConfigFile() string {
	if path := os.Getenv(ConfigPathEnvVar); path != "" {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envTransformFunc maps a known variable to its config path. Unknown
// variables map to "" and are skipped.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
