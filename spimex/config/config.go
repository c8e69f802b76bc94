package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	internal "github.com/ParfinovichOlga/spimex-trading-microservice/spimex"

	"github.com/spf13/viper"
)

// ErrMissingCutoff is returned when the daily cache cutoff is not configured.
var ErrMissingCutoff = errors.New("cache.storage_time (CACHE_STORAGE_TIME) is required")

// Config stores all configuration of the application.
// The values are read by viper from a config file or environment variables.
type Config struct {
	Mode     string         `mapstructure:"mode"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Log      LogConfig      `mapstructure:"log"`
}

// HTTPConfig stores the listener and request limits.
type HTTPConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	RateLimitEnabled    bool          `mapstructure:"rate_limit_enabled"`
	RateLimitCapacity   int           `mapstructure:"rate_limit_capacity"`    // Token bucket capacity per client
	RateLimitRefillRate time.Duration `mapstructure:"rate_limit_refill_rate"` // Time between token refills

	// TrustProxyHeaders takes the client IP from X-Forwarded-For when the
	// direct peer is a loopback or private address. Off means the socket peer.
	TrustProxyHeaders bool `mapstructure:"trust_proxy_headers"`
}

// DatabaseConfig stores database connection details.
type DatabaseConfig struct {
	URL            string `mapstructure:"url"`
	AuthToken      string `mapstructure:"auth_token"`
	MaxOpenConns   int    `mapstructure:"max_open_conns"`
	MaxIdleConns   int    `mapstructure:"max_idle_conns"`
	ConnMaxIdleSec int    `mapstructure:"conn_max_idle_sec"`
	ConnMaxLifeSec int    `mapstructure:"conn_max_life_sec"`
}

// RedisConfig addresses the key-value store backing the response cache.
type RedisConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Addr returns host:port for the redis client.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// CacheConfig controls the read-through response cache.
type CacheConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Backend string `mapstructure:"backend"` // "redis", "memory"

	// StorageTime is the daily cutoff in seconds since midnight. It has no
	// default and is parsed by LoadConfig itself.
	StorageTime int    `mapstructure:"-"`
	Timezone    string `mapstructure:"timezone"` // IANA name, "Local" or "UTC"

	Workers      int           `mapstructure:"workers"`    // Background writers
	QueueSize    int           `mapstructure:"queue_size"` // Pending writes before drops
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Location resolves Timezone, falling back to the process local zone.
func (c CacheConfig) Location() (*time.Location, error) {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// LogConfig stores logger settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json", "console"
}

// LoadConfig reads configuration from file or environment variables.
// A missing or malformed cache cutoff is an error: there is no sensible default.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("..")
		v.AddConfigPath(filepath.Join("etc", internal.DefaultAppName))
		v.AddConfigPath(internal.DefaultConfigPath)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetDefault("mode", "DEV")

	v.SetDefault("http.addr", internal.DefaultHTTPAddr)
	v.SetDefault("http.read_timeout", "10s")
	v.SetDefault("http.write_timeout", "30s")
	v.SetDefault("http.shutdown_timeout", "15s")
	v.SetDefault("http.rate_limit_enabled", false)
	v.SetDefault("http.rate_limit_capacity", 20)
	v.SetDefault("http.rate_limit_refill_rate", "100ms")
	v.SetDefault("http.trust_proxy_headers", false)

	v.SetDefault("database.url", internal.DefaultDatabaseURL)
	v.SetDefault("database.auth_token", "")
	v.SetDefault("database.max_open_conns", 0)
	v.SetDefault("database.max_idle_conns", 0)
	v.SetDefault("database.conn_max_idle_sec", 0)
	v.SetDefault("database.conn_max_life_sec", 0)

	v.SetDefault("redis.host", internal.DefaultRedisHost)
	v.SetDefault("redis.port", internal.DefaultRedisPort)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.dial_timeout", "2s")
	v.SetDefault("redis.read_timeout", "1s")
	v.SetDefault("redis.write_timeout", "1s")

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.backend", "redis")
	v.SetDefault("cache.timezone", "Local")
	v.SetDefault("cache.workers", 4)
	v.SetDefault("cache.queue_size", 256)
	v.SetDefault("cache.write_timeout", "2s")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.AutomaticEnv()
	// Replace dots with underscores in env var names e.g. cache.storage_time becomes CACHE_STORAGE_TIME
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	// No default exists for the cutoff, so AutomaticEnv alone would never surface it.
	if err := v.BindEnv("cache.storage_time", "CACHE_STORAGE_TIME"); err != nil {
		return nil, fmt.Errorf("failed to bind cache.storage_time: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	cutoff, err := ParseStorageTime(v.GetString("cache.storage_time"))
	if err != nil {
		return nil, err
	}
	cfg.Cache.StorageTime = cutoff

	if _, err := cfg.Cache.Location(); err != nil {
		return nil, fmt.Errorf("invalid cache.timezone %q: %w", cfg.Cache.Timezone, err)
	}

	return &cfg, nil
}

// ParseStorageTime parses the daily cache cutoff. It accepts seconds since
// midnight ("51060") or a wall-clock "HH:MM" ("14:11").
func ParseStorageTime(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, ErrMissingCutoff
	}

	var n int
	if strings.Contains(raw, ":") {
		t, err := time.Parse("15:04", raw)
		if err != nil {
			return 0, fmt.Errorf("cache.storage_time must be HH:MM or seconds since midnight, got %q: %w", raw, err)
		}
		n = t.Hour()*3600 + t.Minute()*60
	} else {
		var err error
		if n, err = strconv.Atoi(raw); err != nil {
			return 0, fmt.Errorf("cache.storage_time must be HH:MM or seconds since midnight, got %q: %w", raw, err)
		}
	}
	if n < 0 || n >= internal.SecondsPerDay {
		return 0, fmt.Errorf("cache.storage_time must be in [0, %d), got %d", internal.SecondsPerDay, n)
	}
	return n, nil
}
