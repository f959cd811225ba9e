// Package config loads the engine's configuration from a YAML file with
// environment-variable overrides for deployment secrets.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Database     DatabaseConfig     `yaml:"database"`
	Redis        RedisConfig        `yaml:"redis"`
	Pricing      PricingConfig      `yaml:"pricing"`
	RateLimit    RateLimitConfig    `yaml:"rate_limit"`
	Interactions InteractionsConfig `yaml:"interactions"`
	Webhooks     WebhooksConfig     `yaml:"webhooks"`
	Workers      WorkersConfig      `yaml:"workers"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// DatabaseConfig holds the PostgreSQL connection settings.
type DatabaseConfig struct {
	URL          string `yaml:"url"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

// RedisConfig holds the Redis connection settings. Redis backs the
// impression dedupe store, the lead rate limiter and distributed locks.
type RedisConfig struct {
	URL     string `yaml:"url"`
	Enabled bool   `yaml:"enabled"`
}

// PricingConfig holds the commission rates for revenue computation.
type PricingConfig struct {
	CPC      float64                 `yaml:"cpc"`
	CPA      float64                 `yaml:"cpa"`
	PerOffer map[string]OfferPricing `yaml:"per_offer"`
}

// OfferPricing overrides the default rates for one offer.
type OfferPricing struct {
	CPC float64 `yaml:"cpc"`
	CPA float64 `yaml:"cpa"`
}

// RateLimitConfig governs the public lead form.
type RateLimitConfig struct {
	LeadLimit         int `yaml:"lead_limit"`
	LeadWindowMinutes int `yaml:"lead_window_minutes"`
}

// Window returns the sliding window as a duration.
func (c RateLimitConfig) Window() time.Duration {
	return time.Duration(c.LeadWindowMinutes) * time.Minute
}

// InteractionsConfig tunes interaction recording.
type InteractionsConfig struct {
	DedupeWindowMinutes int `yaml:"dedupe_window_minutes"`
}

// DedupeWindow returns the impression dedupe horizon as a duration.
func (c InteractionsConfig) DedupeWindow() time.Duration {
	return time.Duration(c.DedupeWindowMinutes) * time.Minute
}

// WebhooksConfig tunes the partner conversion webhook endpoint.
type WebhooksConfig struct {
	TimeoutSeconds int     `yaml:"timeout_seconds"`
	MaxRPS         float64 `yaml:"max_rps"`
	Burst          int     `yaml:"burst"`
}

// Timeout returns the per-delivery processing deadline.
func (c WebhooksConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// WorkersConfig tunes the background jobs.
type WorkersConfig struct {
	RevenueIntervalMinutes int `yaml:"revenue_interval_minutes"`
	SweepIntervalMinutes   int `yaml:"sweep_interval_minutes"`
}

// RevenueInterval returns the revenue job cadence.
func (c WorkersConfig) RevenueInterval() time.Duration {
	return time.Duration(c.RevenueIntervalMinutes) * time.Minute
}

// SweepInterval returns the expiry sweep cadence.
func (c WorkersConfig) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalMinutes) * time.Minute
}

// Load reads and parses the YAML config at path, applying defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// LoadFromEnv loads the YAML config and applies environment overrides.
// A .env file in the working directory is honored if present.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if url := os.Getenv("DATABASE_URL"); url != "" {
		cfg.Database.URL = url
	}
	if url := os.Getenv("REDIS_URL"); url != "" {
		cfg.Redis.URL = url
		cfg.Redis.Enabled = true
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("invalid SERVER_PORT %q: %w", port, err)
		}
		cfg.Server.Port = p
	}

	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("database url is required (set database.url or DATABASE_URL)")
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 25
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Pricing.CPC == 0 {
		c.Pricing.CPC = 0.10
	}
	if c.Pricing.CPA == 0 {
		c.Pricing.CPA = 5.00
	}
	if c.RateLimit.LeadLimit == 0 {
		c.RateLimit.LeadLimit = 5
	}
	if c.RateLimit.LeadWindowMinutes == 0 {
		c.RateLimit.LeadWindowMinutes = 60
	}
	if c.Interactions.DedupeWindowMinutes == 0 {
		c.Interactions.DedupeWindowMinutes = 30
	}
	if c.Webhooks.TimeoutSeconds == 0 {
		c.Webhooks.TimeoutSeconds = 10
	}
	if c.Webhooks.MaxRPS == 0 {
		c.Webhooks.MaxRPS = 100
	}
	if c.Webhooks.Burst == 0 {
		c.Webhooks.Burst = 200
	}
	if c.Workers.RevenueIntervalMinutes == 0 {
		c.Workers.RevenueIntervalMinutes = 60
	}
	if c.Workers.SweepIntervalMinutes == 0 {
		c.Workers.SweepIntervalMinutes = 10
	}
}
