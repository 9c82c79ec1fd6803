package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"

	"Storefront/internal/kvstore"
)

type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	HTTPAddr string `env:"STOREFRONT_ADDR" envDefault:"127.0.0.1:8080"`

	CatalogURL     string        `env:"CATALOG_URL" envDefault:"https://fakestoreapi.com/products"`
	CatalogTimeout time.Duration `env:"CATALOG_TIMEOUT" envDefault:"10s"`

	StorageBackend string `env:"STORAGE_BACKEND" envDefault:"sqlite"`
	SQLitePath     string `env:"SQLITE_PATH" envDefault:"storefront.db"`
	PostgresDSN    string `env:"POSTGRES_DSN"`
	RedisAddr      string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword  string `env:"REDIS_PASSWORD"`
	RedisDB        int    `env:"REDIS_DB" envDefault:"0"`

	MetricsEnabled bool   `env:"METRICS_ENABLED" envDefault:"false"`
	MetricsToken   string `env:"METRICS_TOKEN"`

	NoticeTTL         time.Duration `env:"NOTICE_TTL" envDefault:"2s"`
	CheckoutNoticeTTL time.Duration `env:"CHECKOUT_NOTICE_TTL" envDefault:"3s"`

	ReloadLimitPerMin int `env:"RELOAD_LIMIT_PER_MIN" envDefault:"6"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) StorageOptions() kvstore.Options {
	return kvstore.Options{
		Backend:       c.StorageBackend,
		SQLitePath:    c.SQLitePath,
		PostgresDSN:   c.PostgresDSN,
		RedisAddr:     c.RedisAddr,
		RedisPassword: c.RedisPassword,
		RedisDB:       c.RedisDB,
	}
}

func (c *Config) validate() error {
	u, err := url.Parse(c.CatalogURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid CATALOG_URL: %q", c.CatalogURL)
	}
	if c.CatalogTimeout <= 0 {
		return fmt.Errorf("invalid CATALOG_TIMEOUT: %s", c.CatalogTimeout)
	}

	switch c.StorageBackend {
	case kvstore.BackendMemory, kvstore.BackendSQLite, kvstore.BackendRedis:
	case kvstore.BackendPostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("POSTGRES_DSN is required for the postgres backend")
		}
	default:
		return fmt.Errorf("invalid STORAGE_BACKEND: %q", c.StorageBackend)
	}

	if c.MetricsEnabled && c.MetricsToken == "" {
		return fmt.Errorf("METRICS_TOKEN is required when metrics are enabled")
	}
	if c.NoticeTTL <= 0 || c.CheckoutNoticeTTL <= 0 {
		return fmt.Errorf("notice durations must be positive")
	}
	if c.ReloadLimitPerMin < 1 {
		return fmt.Errorf("invalid RELOAD_LIMIT_PER_MIN: %d", c.ReloadLimitPerMin)
	}
	return nil
}
