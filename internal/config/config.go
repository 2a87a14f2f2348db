// Package config provides configuration management for the Surebet Tool application.
package config

import (
	"fmt"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	App       AppConfig       `mapstructure:"app" validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	OddsAPI   OddsAPIConfig   `mapstructure:"odds_api"`
	Scrapers  []ScraperConfig `mapstructure:"scrapers" validate:"dive"`
	Detection DetectionConfig `mapstructure:"detection"`
	Ingestion IngestionConfig `mapstructure:"ingestion" validate:"required"`
	API       APIConfig       `mapstructure:"api" validate:"required"`
	Metrics   MetricsConfig   `mapstructure:"metrics" validate:"required"`
	Features  FeaturesConfig  `mapstructure:"features"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	Host               string `mapstructure:"host"`
	Port               int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	Name               string `mapstructure:"name"`
	User               string `mapstructure:"user"`
	Password           string `mapstructure:"password"`
	SSLMode            string `mapstructure:"ssl_mode" validate:"omitempty,oneof=disable require verify-full"`
	MaxConnections     int    `mapstructure:"max_connections" validate:"omitempty,gt=0"`
	MaxIdleConnections int    `mapstructure:"max_idle_connections" validate:"omitempty,gt=0"`
}

// RedisConfig represents the redis stream publisher configuration
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"gte=0"`
	Stream   string `mapstructure:"stream"`
}

// OddsAPIConfig represents the paid odds API adapter configuration
type OddsAPIConfig struct {
	Enabled            bool    `mapstructure:"enabled"`
	BaseURL            string  `mapstructure:"base_url" validate:"omitempty,url"`
	APIKey             string  `mapstructure:"api_key"`
	Regions            string  `mapstructure:"regions"`
	RateLimitPerSecond float64 `mapstructure:"rate_limit_per_second" validate:"omitempty,gt=0"`
}

// ScraperConfig represents one scraper feed configuration
type ScraperConfig struct {
	Name    string `mapstructure:"name" validate:"required"`
	FeedURL string `mapstructure:"feed_url" validate:"omitempty,url"`
	Enabled bool   `mapstructure:"enabled"`
}

// DetectionConfig represents surebet detection parameters. It is passed
// explicitly into detection calls, never read as ambient state.
type DetectionConfig struct {
	MinProfitThresholdPct float64 `mapstructure:"min_profit_threshold_pct"`
	// Stake plans with a rounding deviation above this value are flagged
	// as approximate in API responses.
	RoundingDeviationTolerance float64 `mapstructure:"rounding_deviation_tolerance" validate:"gte=0"`
}

// IngestionConfig represents ingestion cadence and staleness configuration
type IngestionConfig struct {
	PollIntervalSeconds  int `mapstructure:"poll_interval_seconds" validate:"required,gt=0"`
	SourceTimeoutSeconds int `mapstructure:"source_timeout_seconds" validate:"required,gt=0"`
	EventTTLMinutes      int `mapstructure:"event_ttl_minutes" validate:"required,gt=0"`
}

// APIConfig represents the HTTP API server configuration
type APIConfig struct {
	Port int `mapstructure:"port" validate:"required,min=1,max=65535"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Path    string `mapstructure:"path" validate:"required"`
}

// FeaturesConfig represents feature flags
type FeaturesConfig struct {
	PersistenceEnabled  bool `mapstructure:"persistence_enabled"`
	RedisPublishEnabled bool `mapstructure:"redis_publish_enabled"`
	PushEnabled         bool `mapstructure:"push_enabled"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// SourceTimeout returns the per-cycle fetch timeout
func (c *IngestionConfig) SourceTimeout() time.Duration {
	return time.Duration(c.SourceTimeoutSeconds) * time.Second
}

// EventTTL returns the staleness TTL after which unrefreshed events are pruned
func (c *IngestionConfig) EventTTL() time.Duration {
	return time.Duration(c.EventTTLMinutes) * time.Minute
}
