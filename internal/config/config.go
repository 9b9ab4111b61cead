// Package config assembles runtime settings from defaults, an optional YAML
// file named by CONFIG_FILE and environment variables, in that order of
// precedence (environment wins).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every setting the Aurora binaries read at startup.
type Config struct {
	Environment string `yaml:"environment"`
	Port        string `yaml:"port"`
	LogLevel    string `yaml:"log_level"`
	DatabaseURL string `yaml:"database_url"`
	RedisURL    string `yaml:"redis_url"`
	SentryDSN   string `yaml:"sentry_dsn"`

	// FirebaseProjectID enables ID token checks on user sync when set.
	FirebaseProjectID string `yaml:"firebase_project_id"`

	ProxyURL   string `yaml:"proxy_url"`
	ProxyToken string `yaml:"proxy_token"`

	AllowedOrigins []string `yaml:"allowed_origins"`

	Catalog CatalogConfig `yaml:"catalog"`
	Users   UsersConfig   `yaml:"users"`
	Limits  LimitsConfig  `yaml:"limits"`
	Worker  WorkerConfig  `yaml:"worker"`
}

// CatalogConfig tunes catalog caching and genre filtering.
type CatalogConfig struct {
	// CacheMaxAge is N in "s-maxage=N, stale-while-revalidate=2N", in seconds.
	CacheMaxAge   int  `yaml:"cache_max_age"`
	GenreWindow   int  `yaml:"genre_window"`
	GroupedWindow int  `yaml:"grouped_window"`
	MaxGenres     int  `yaml:"max_genres"`
	GenrePushdown bool `yaml:"genre_pushdown"`
}

// UsersConfig bounds user sync and the cached profile copy.
type UsersConfig struct {
	SyncTimeoutSeconds int `yaml:"sync_timeout_seconds"`
	CacheTTLHours      int `yaml:"cache_ttl_hours"`
}

// LimitsConfig sets the write rate limiter.
type LimitsConfig struct {
	// WritesPerSecond and WriteBurst bound the global write limiter.
	WritesPerSecond float64 `yaml:"writes_per_second"`
	WriteBurst      int     `yaml:"write_burst"`
}

// WorkerConfig holds the worker cron schedules and metrics listener.
type WorkerConfig struct {
	WarmSchedule  string `yaml:"warm_schedule"`
	ProbeSchedule string `yaml:"probe_schedule"`
	// MetricsAddr is where the worker serves /metrics.
	MetricsAddr string `yaml:"metrics_addr"`
}

func defaults() *Config {
	return &Config{
		Environment:    "development",
		Port:           "8080",
		LogLevel:       "info",
		AllowedOrigins: []string{"https://*", "http://*"},
		Catalog: CatalogConfig{
			CacheMaxAge:   60,
			GenreWindow:   1000,
			GroupedWindow: 150,
			MaxGenres:     10,
			GenrePushdown: true,
		},
		Users: UsersConfig{
			SyncTimeoutSeconds: 10,
			CacheTTLHours:      168,
		},
		Limits: LimitsConfig{
			WritesPerSecond: 20,
			WriteBurst:      40,
		},
		Worker: WorkerConfig{
			WarmSchedule:  "@every 10m",
			ProbeSchedule: "@every 1m",
			MetricsAddr:   ":9102",
		},
	}
}

// Load builds the configuration. A missing DATABASE_URL is only tolerated in
// development, where the in-memory store is used.
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config file %s: %w", path, err)
	}
	defer file.Close()

	if err := yaml.NewDecoder(file).Decode(cfg); err != nil {
		return fmt.Errorf("failed to decode YAML config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.Environment, "ENV")
	setString(&cfg.Port, "PORT")
	setString(&cfg.LogLevel, "LOG_LEVEL")
	setString(&cfg.DatabaseURL, "DATABASE_URL")
	setString(&cfg.RedisURL, "REDIS_URL")
	setString(&cfg.SentryDSN, "SENTRY_DSN")
	setString(&cfg.FirebaseProjectID, "FIREBASE_PROJECT_ID")
	setString(&cfg.ProxyURL, "PROXY_URL")
	setString(&cfg.ProxyToken, "PROXY_TOKEN")
	setString(&cfg.Worker.WarmSchedule, "WORKER_WARM_SCHEDULE")
	setString(&cfg.Worker.ProbeSchedule, "WORKER_PROBE_SCHEDULE")
	setString(&cfg.Worker.MetricsAddr, "WORKER_METRICS_ADDR")

	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		cfg.AllowedOrigins = origins
	}

	return errors.Join(
		setInt(&cfg.Catalog.CacheMaxAge, "CACHE_MAX_AGE"),
		setInt(&cfg.Catalog.GenreWindow, "GENRE_WINDOW"),
		setInt(&cfg.Catalog.GroupedWindow, "GROUPED_WINDOW"),
		setInt(&cfg.Catalog.MaxGenres, "MAX_GENRES"),
		setBool(&cfg.Catalog.GenrePushdown, "GENRE_PUSHDOWN"),
		setInt(&cfg.Users.SyncTimeoutSeconds, "SYNC_TIMEOUT_SECONDS"),
		setInt(&cfg.Users.CacheTTLHours, "USER_CACHE_TTL_HOURS"),
		setFloat(&cfg.Limits.WritesPerSecond, "WRITE_RATE_LIMIT"),
		setInt(&cfg.Limits.WriteBurst, "WRITE_RATE_BURST"),
	)
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" && !c.IsDevelopment() {
		return errors.New("DATABASE_URL must be set outside development")
	}
	if c.Catalog.GenreWindow <= 0 || c.Catalog.GroupedWindow <= 0 {
		return errors.New("catalog windows must be positive")
	}
	if c.Users.SyncTimeoutSeconds <= 0 {
		return errors.New("SYNC_TIMEOUT_SECONDS must be positive")
	}
	return nil
}

// IsDevelopment reports whether ENV is development.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// SyncTimeout bounds a user sync round trip.
func (c *Config) SyncTimeout() time.Duration {
	return time.Duration(c.Users.SyncTimeoutSeconds) * time.Second
}

// UserCacheTTL is how long a synced profile stays cached.
func (c *Config) UserCacheTTL() time.Duration {
	return time.Duration(c.Users.CacheTTLHours) * time.Hour
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func setFloat(dst *float64, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = f
	return nil
}

func setBool(dst *bool, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = b
	return nil
}
