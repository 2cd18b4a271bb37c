package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Upstream UpstreamConfig `mapstructure:"upstream"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Database DatabaseConfig `mapstructure:"database"`
	TTL      TTLConfig      `mapstructure:"ttl"`
	Search   SearchConfig   `mapstructure:"search"`
	Warmup   WarmupConfig   `mapstructure:"warmup"`
	Security SecurityConfig `mapstructure:"security"`
}

type ServerConfig struct {
	Port     int    `mapstructure:"port"`
	Debug    bool   `mapstructure:"debug"`
	AdminKey string `mapstructure:"admin_key"`
}

type UpstreamConfig struct {
	Primary   ProviderConfig `mapstructure:"primary"`
	Secondary ProviderConfig `mapstructure:"secondary"`
}

// ProviderConfig addresses one upstream provider through the same-origin proxy.
type ProviderConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	IconBaseURL  string        `mapstructure:"icon_base_url"`
	Timeout      time.Duration `mapstructure:"timeout"`
	RetryCount   int           `mapstructure:"retry_count"`
	RateLimitRPS float64       `mapstructure:"rate_limit_rps"` // 0 = unlimited
	PageLimit    int           `mapstructure:"page_limit"`
	MaxPages     int           `mapstructure:"max_pages"`
}

type CacheConfig struct {
	Backend         string        `mapstructure:"backend"` // local | redis | sql; empty = redis if redis_addr else local
	RedisAddr       string        `mapstructure:"redis_addr"`
	RedisPassword   string        `mapstructure:"redis_password"`
	RedisDB         int           `mapstructure:"redis_db"`
	LocalGCInterval time.Duration `mapstructure:"local_gc_interval"`
	KeyPrefix       string        `mapstructure:"key_prefix"`
	Retention       time.Duration `mapstructure:"retention"`
	MaxEntryBytes   int           `mapstructure:"max_entry_bytes"`
}

type DatabaseConfig struct {
	Mode         string        `mapstructure:"mode"` // sqlite | mysql
	SQLitePath   string        `mapstructure:"sqlite_path"`
	MySQLDSN     string        `mapstructure:"mysql_dsn"`
	MySQLMaxOpen int           `mapstructure:"mysql_max_open"`
	MySQLMaxIdle int           `mapstructure:"mysql_max_idle"`
	MySQLMaxLife time.Duration `mapstructure:"mysql_max_life"`
}

// TTLConfig is the staleness window of each cached dataset.
type TTLConfig struct {
	Items            time.Duration `mapstructure:"items"`
	Arcs             time.Duration `mapstructure:"arcs"`
	Quests           time.Duration `mapstructure:"quests"`
	Traders          time.Duration `mapstructure:"traders"`
	EventTimers      time.Duration `mapstructure:"event_timers"`
	SecondaryItems   time.Duration `mapstructure:"secondary_items"`
	SecondaryDetails time.Duration `mapstructure:"secondary_details"`
}

type SearchConfig struct {
	DefaultLimit int `mapstructure:"default_limit"`
}

type WarmupConfig struct {
	Interval     time.Duration `mapstructure:"interval"` // 0 disables warm-up tasks
	RebuildIndex bool          `mapstructure:"rebuild_index"`
	BootDelay    time.Duration `mapstructure:"boot_delay"` // one warm-up after startup; 0 disables it
}

type SecurityConfig struct {
	RateLimitRPS   float64 `mapstructure:"rate_limit_rps"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
	// AdminIPs restricts admin routes to these IPs or CIDR ranges.
	// An empty slice allows any address holding the admin key.
	AdminIPs []string `mapstructure:"admin_ips"`
}

// EnvPrefix prefixes environment overrides, e.g. RAIDERDEX_SERVER_PORT.
const EnvPrefix = "RAIDERDEX"

// Load reads config from the given YAML file path. An empty path uses only
// defaults and environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.debug", false)
	v.SetDefault("server.admin_key", "")

	v.SetDefault("upstream.primary.base_url", "http://localhost:3000/api/primary")
	v.SetDefault("upstream.primary.icon_base_url", "")
	v.SetDefault("upstream.primary.timeout", "15s")
	v.SetDefault("upstream.primary.retry_count", 0)
	v.SetDefault("upstream.primary.rate_limit_rps", 0)
	v.SetDefault("upstream.primary.page_limit", 100)
	v.SetDefault("upstream.primary.max_pages", 50)
	v.SetDefault("upstream.secondary.base_url", "http://localhost:3000/api/secondary")
	v.SetDefault("upstream.secondary.icon_base_url", "")
	v.SetDefault("upstream.secondary.timeout", "15s")
	v.SetDefault("upstream.secondary.retry_count", 0)
	v.SetDefault("upstream.secondary.rate_limit_rps", 0)

	v.SetDefault("cache.backend", "")
	v.SetDefault("cache.redis_addr", "")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.local_gc_interval", "30s")
	v.SetDefault("cache.key_prefix", "raiderdex:v1:")
	v.SetDefault("cache.retention", "24h")
	v.SetDefault("cache.max_entry_bytes", 0)

	v.SetDefault("database.mode", "sqlite")
	v.SetDefault("database.sqlite_path", "./data/cache.db")
	v.SetDefault("database.mysql_dsn", "")
	v.SetDefault("database.mysql_max_open", 10)
	v.SetDefault("database.mysql_max_idle", 5)
	v.SetDefault("database.mysql_max_life", "1h")

	v.SetDefault("ttl.items", "30m")
	v.SetDefault("ttl.arcs", "30m")
	v.SetDefault("ttl.quests", "30m")
	v.SetDefault("ttl.traders", "15m")
	v.SetDefault("ttl.event_timers", "5m")
	v.SetDefault("ttl.secondary_items", "30m")
	v.SetDefault("ttl.secondary_details", "60m")

	v.SetDefault("search.default_limit", 25)

	v.SetDefault("warmup.interval", "0s")
	v.SetDefault("warmup.rebuild_index", true)
	v.SetDefault("warmup.boot_delay", "2s")

	v.SetDefault("security.rate_limit_rps", 20)
	v.SetDefault("security.rate_limit_burst", 40)
	v.SetDefault("security.admin_ips", []string{})
}
