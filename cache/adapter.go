package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kasuganosora/raiderdex/cache/local"
	cacheredis "github.com/kasuganosora/raiderdex/cache/redis"
	"github.com/kasuganosora/raiderdex/cache/sqlstore"
	"gorm.io/gorm"
)

// Cache defines the KV operations a store backend provides.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
	Keys(ctx context.Context, prefix string) ([]string, error)
}

const (
	BackendLocal = "local"
	BackendRedis = "redis"
	BackendSQL   = "sql"
)

// CacheConfig holds configuration for the cache backends and the store.
type CacheConfig struct {
	Backend         string        `mapstructure:"backend"`
	RedisAddr       string        `mapstructure:"redis_addr"`
	RedisPassword   string        `mapstructure:"redis_password"`
	RedisDB         int           `mapstructure:"redis_db"`
	LocalGCInterval time.Duration `mapstructure:"local_gc_interval"`
	KeyPrefix       string        `mapstructure:"key_prefix"`
	Retention       time.Duration `mapstructure:"retention"`
	MaxEntryBytes   int           `mapstructure:"max_entry_bytes"`
}

// ResolveBackend returns the backend name NewCache will use for cfg.
func ResolveBackend(cfg CacheConfig) string {
	if cfg.Backend != "" {
		return cfg.Backend
	}
	if cfg.RedisAddr != "" {
		return BackendRedis
	}
	return BackendLocal
}

// NewCache returns the primary backend selected by cfg. db is only used by
// the sql backend and may be nil otherwise.
func NewCache(cfg CacheConfig, db *gorm.DB) (Cache, error) {
	switch backend := ResolveBackend(cfg); backend {
	case BackendRedis:
		return cacheredis.NewCache(cacheredis.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
	case BackendSQL:
		if db == nil {
			return nil, errors.New("cache: sql backend requires a database")
		}
		return sqlstore.NewCache(db), nil
	case BackendLocal:
		return local.NewCache(local.Config{GCInterval: cfg.LocalGCInterval})
	default:
		return nil, fmt.Errorf("cache: unknown backend %q", backend)
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, local.ErrNotFound) ||
		errors.Is(err, cacheredis.ErrNotFound) ||
		errors.Is(err, sqlstore.ErrNotFound)
}
