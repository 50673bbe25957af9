package config

import (
	"time"
)

// Failover modes
const (
	ModeOnAccess   = "on_access"
	ModeBackground = "background"
)

type Config struct {
	Server     ServerConfig     `koanf:"server" yaml:"server"`
	Logging    LoggingConfig    `koanf:"logging" yaml:"logging"`
	Failover   FailoverConfig   `koanf:"failover" yaml:"failover"`
	Relational RelationalConfig `koanf:"relational" yaml:"relational"`
	Document   DocumentConfig   `koanf:"document" yaml:"document"`
	Cache      CacheConfig      `koanf:"cache" yaml:"cache"`
}

type ServerConfig struct {
	Port            int           `koanf:"port" yaml:"port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" yaml:"shutdown_timeout"`
	Version         string        `koanf:"version" yaml:"version"`
}

type LoggingConfig struct {
	Level  string `koanf:"level" yaml:"level"`
	Format string `koanf:"format" yaml:"format"`
}

type FailoverConfig struct {
	Mode          string        `koanf:"mode" yaml:"mode"`                     // on_access or background
	CheckInterval time.Duration `koanf:"check_interval" yaml:"check_interval"` // 30s; at least ProbeTimeout
	ProbeTimeout  time.Duration `koanf:"probe_timeout" yaml:"probe_timeout"`   // at most 5s
}

type RelationalConfig struct {
	Primary  PostgresConfig `koanf:"primary" yaml:"primary"`   // Supabase
	Fallback PostgresConfig `koanf:"fallback" yaml:"fallback"` // local PostgreSQL
}

type PostgresConfig struct {
	URL            string        `koanf:"url" yaml:"url"`
	Label          string        `koanf:"label" yaml:"label"`
	PoolSize       int           `koanf:"pool_size" yaml:"pool_size"`
	MaxOverflow    int           `koanf:"max_overflow" yaml:"max_overflow"`
	Recycle        time.Duration `koanf:"recycle" yaml:"recycle"`
	ConnectTimeout time.Duration `koanf:"connect_timeout" yaml:"connect_timeout"`
}

type DocumentConfig struct {
	Primary         MongoConfig `koanf:"primary" yaml:"primary"`   // MongoDB Atlas
	Fallback        MongoConfig `koanf:"fallback" yaml:"fallback"` // local MongoDB
	PostsCollection string      `koanf:"posts_collection" yaml:"posts_collection"`
}

type MongoConfig struct {
	URL                    string        `koanf:"url" yaml:"url"`
	Database               string        `koanf:"database" yaml:"database"`
	Label                  string        `koanf:"label" yaml:"label"`
	MaxPoolSize            uint64        `koanf:"max_pool_size" yaml:"max_pool_size"`
	ServerSelectionTimeout time.Duration `koanf:"server_selection_timeout" yaml:"server_selection_timeout"`
	ConnectTimeout         time.Duration `koanf:"connect_timeout" yaml:"connect_timeout"`
	SocketTimeout          time.Duration `koanf:"socket_timeout" yaml:"socket_timeout"`
}

type CacheConfig struct {
	Primary    RedisConfig   `koanf:"primary" yaml:"primary"`   // Upstash
	Fallback   RedisConfig   `koanf:"fallback" yaml:"fallback"` // local Redis
	DefaultTTL time.Duration `koanf:"default_ttl" yaml:"default_ttl"`
}

// RedisConfig takes a URL, or for the fallback host and port
type RedisConfig struct {
	URL          string        `koanf:"url" yaml:"url"`
	Host         string        `koanf:"host" yaml:"host"`
	Port         int           `koanf:"port" yaml:"port"`
	Password     string        `koanf:"password" yaml:"password"`
	DB           int           `koanf:"db" yaml:"db"`
	Label        string        `koanf:"label" yaml:"label"`
	PoolSize     int           `koanf:"pool_size" yaml:"pool_size"`
	DialTimeout  time.Duration `koanf:"dial_timeout" yaml:"dial_timeout"`
	ReadTimeout  time.Duration `koanf:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout" yaml:"write_timeout"`
}

// Configured reports whether enough is set to build a client
func (c RedisConfig) Configured() bool {
	return c.URL != "" || c.Host != ""
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8000,
			ShutdownTimeout: 10 * time.Second,
			Version:         "0.1.0",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Failover: FailoverConfig{
			Mode:          ModeOnAccess,
			CheckInterval: 30 * time.Second,
			ProbeTimeout:  5 * time.Second,
		},
		Relational: RelationalConfig{
			Primary: PostgresConfig{
				Label:          "Supabase",
				PoolSize:       10,
				MaxOverflow:    20,
				Recycle:        time.Hour,
				ConnectTimeout: 5 * time.Second,
			},
			Fallback: PostgresConfig{
				Label:          "Local PostgreSQL",
				PoolSize:       20,
				MaxOverflow:    40,
				Recycle:        time.Hour,
				ConnectTimeout: 5 * time.Second,
			},
		},
		Document: DocumentConfig{
			Primary: MongoConfig{
				Database:               "instaintelli",
				Label:                  "MongoDB Atlas",
				MaxPoolSize:            100,
				ServerSelectionTimeout: 5 * time.Second,
				ConnectTimeout:         5 * time.Second,
				SocketTimeout:          5 * time.Second,
			},
			Fallback: MongoConfig{
				Database:               "instaintelli",
				Label:                  "Local MongoDB",
				MaxPoolSize:            100,
				ServerSelectionTimeout: 5 * time.Second,
				ConnectTimeout:         5 * time.Second,
				SocketTimeout:          5 * time.Second,
			},
			PostsCollection: "posts",
		},
		Cache: CacheConfig{
			Primary: RedisConfig{
				Label:        "Upstash",
				PoolSize:     10,
				DialTimeout:  5 * time.Second,
				ReadTimeout:  5 * time.Second,
				WriteTimeout: 5 * time.Second,
			},
			Fallback: RedisConfig{
				Host:         "localhost",
				Port:         6379,
				Label:        "Local Redis",
				PoolSize:     10,
				DialTimeout:  5 * time.Second,
				ReadTimeout:  5 * time.Second,
				WriteTimeout: 5 * time.Second,
			},
			DefaultTTL: time.Hour,
		},
	}
}
