package memory

import (
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache backends.
const (
	BackendNone  = ""
	BackendFile  = "file"
	BackendRedis = "redis"
)

// Config holds tool-result cache parameters.
type Config struct {
	Backend       string `json:"backend,omitempty"`
	Path          string `json:"path,omitempty"` // file backend root directory
	RedisAddr     string `json:"redis_addr,omitempty"`
	RedisPassword string `json:"redis_password,omitempty"`
	RedisDB       int    `json:"redis_db,omitempty"`
	TTLSeconds    int    `json:"ttl_seconds,omitempty"`
}

// DefaultConfig returns the default cache configuration (disabled).
func DefaultConfig() Config {
	return Config{}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Backend != "" {
		c.Backend = source.Backend
	}
	if source.Path != "" {
		c.Path = source.Path
	}
	if source.RedisAddr != "" {
		c.RedisAddr = source.RedisAddr
	}
	if source.RedisPassword != "" {
		c.RedisPassword = source.RedisPassword
	}
	if source.RedisDB != 0 {
		c.RedisDB = source.RedisDB
	}
	if source.TTLSeconds > 0 {
		c.TTLSeconds = source.TTLSeconds
	}
}

// NewStore creates a Store from configuration. Returns a nil Store when no
// backend is configured, indicating caching is disabled.
func NewStore(cfg *Config) (Store, error) {
	switch cfg.Backend {
	case BackendNone:
		return nil, nil
	case BackendFile:
		if cfg.Path == "" {
			return nil, fmt.Errorf("file cache backend requires a path")
		}
		return NewFileStore(cfg.Path), nil
	case BackendRedis:
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("redis cache backend requires redis_addr")
		}
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		return NewRedisStore(client, WithRedisTTL(time.Duration(cfg.TTLSeconds)*time.Second)), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
