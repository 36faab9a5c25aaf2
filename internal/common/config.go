// Package common provides shared utilities for mystock
package common

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for mystock
type Config struct {
	Environment       string        `toml:"environment" env:"MYSTOCK_ENV"`
	ReportingCurrency string        `toml:"reporting_currency" env:"MYSTOCK_REPORTING_CURRENCY"`
	Server            ServerConfig  `toml:"server"`
	Storage           StorageConfig `toml:"storage"`
	AI                AIConfig      `toml:"ai"`
	Cache             CacheConfig   `toml:"cache"`
	Monitor           MonitorConfig `toml:"monitor"`
	Clients           ClientsConfig `toml:"clients"`
	Alerts            AlertsConfig  `toml:"alerts"`
	Logging           LoggingConfig `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host" env:"MYSTOCK_HOST"`
	Port int    `toml:"port" env:"MYSTOCK_PORT"`
}

// StorageConfig selects and configures the persistent store.
// Backend is one of "sqlite", "postgres" or "surrealdb".
type StorageConfig struct {
	Backend   string `toml:"backend" env:"MYSTOCK_STORAGE_BACKEND"`
	DSN       string `toml:"dsn" env:"MYSTOCK_STORAGE_DSN"` // sqlite file path or postgres URL
	Address   string `toml:"address" env:"MYSTOCK_SURREAL_ADDRESS"`
	Namespace string `toml:"namespace" env:"MYSTOCK_SURREAL_NAMESPACE"`
	Database  string `toml:"database" env:"MYSTOCK_SURREAL_DATABASE"`
	Username  string `toml:"username" env:"MYSTOCK_SURREAL_USER"`
	Password  string `toml:"password" env:"MYSTOCK_SURREAL_PASS"`
}

// ModelCatalog maps provider -> tier -> model id.
var ModelCatalog = map[string]map[string]string{
	"openai": {
		"economy": "gpt-4o-mini",
		"quality": "gpt-4o",
	},
	"anthropic": {
		"economy": "claude-haiku-4-5-20251001",
		"quality": "claude-sonnet-4-5-20250929",
	},
	"gemini": {
		"economy": "gemini-2.0-flash",
		"quality": "gemini-2.5-pro",
	},
	"ollama": {
		"economy": "llama3.1:8b",
		"quality": "llama3.1:70b",
	},
}

// AIConfig holds LLM provider configuration
type AIConfig struct {
	Provider         string  `toml:"provider" env:"AI_PROVIDER"`
	Tier             string  `toml:"tier" env:"AI_TIER"`
	APIKey           string  `toml:"api_key" env:"AI_API_KEY"`
	OllamaBaseURL    string  `toml:"ollama_base_url" env:"OLLAMA_BASE_URL"`
	MonthlyBudgetUSD float64 `toml:"monthly_budget_usd" env:"AI_MONTHLY_BUDGET"`
	InsightsOnLoad   bool    `toml:"insights_on_load" env:"AI_INSIGHTS_ON_LOAD"`
	Timeout          string  `toml:"timeout" env:"AI_TIMEOUT"`
}

// ModelID returns the model for the configured provider and tier, or "" when unknown.
func (c *AIConfig) ModelID() string {
	tiers, ok := ModelCatalog[c.Provider]
	if !ok {
		return ""
	}
	return tiers[c.Tier]
}

// IsConfigured reports whether the provider can be called.
// Ollama runs locally and needs no key.
func (c *AIConfig) IsConfigured() bool {
	if c.Provider == "ollama" {
		return true
	}
	return c.APIKey != ""
}

// GetTimeout parses and returns the LLM request timeout
func (c *AIConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 60 * time.Second
	}
	return d
}

// CacheConfig holds the cache TTLs in minutes
type CacheConfig struct {
	PriceTTLMinutes    int    `toml:"price_ttl_minutes" env:"MYSTOCK_PRICE_TTL"`
	ExtremesTTLMinutes int    `toml:"extremes_ttl_minutes" env:"MYSTOCK_EXTREMES_TTL"`
	FundTTLMinutes     int    `toml:"fund_ttl_minutes" env:"MYSTOCK_FUND_TTL"`
	MetalTTLMinutes    int    `toml:"metal_ttl_minutes" env:"MYSTOCK_METAL_TTL"`
	ForexTTLMinutes    int    `toml:"forex_ttl_minutes" env:"MYSTOCK_FOREX_TTL"`
	InsightsTTLMinutes int    `toml:"insights_ttl_minutes" env:"MYSTOCK_INSIGHTS_TTL"`
	FundSearchTTL      string `toml:"fund_search_ttl" env:"MYSTOCK_FUND_SEARCH_TTL"`
}

func minutes(n, fallback int) time.Duration {
	if n <= 0 {
		n = fallback
	}
	return time.Duration(n) * time.Minute
}

func (c CacheConfig) PriceTTL() time.Duration    { return minutes(c.PriceTTLMinutes, 15) }
func (c CacheConfig) ExtremesTTL() time.Duration { return minutes(c.ExtremesTTLMinutes, 1440) }
func (c CacheConfig) FundTTL() time.Duration     { return minutes(c.FundTTLMinutes, 30) }
func (c CacheConfig) MetalTTL() time.Duration    { return minutes(c.MetalTTLMinutes, 15) }
func (c CacheConfig) ForexTTL() time.Duration    { return minutes(c.ForexTTLMinutes, 60) }
func (c CacheConfig) InsightsTTL() time.Duration { return minutes(c.InsightsTTLMinutes, 1440) }

// GetFundSearchTTL parses the in-process fund search cache TTL
func (c CacheConfig) GetFundSearchTTL() time.Duration {
	d, err := time.ParseDuration(c.FundSearchTTL)
	if err != nil {
		return 10 * time.Minute
	}
	return d
}

// MonitorConfig holds background monitor settings
type MonitorConfig struct {
	Enabled          bool    `toml:"enabled" env:"MYSTOCK_MONITOR_ENABLED"`
	IntervalSeconds  int     `toml:"interval_seconds" env:"AI_MONITOR_INTERVAL"`
	AlertThreshold   float64 `toml:"alert_threshold_pct" env:"AI_PRICE_ALERT_PCT"`
	MaxAlerts        int     `toml:"max_alerts" env:"MYSTOCK_MAX_ALERTS"`
	RefreshInterval  string  `toml:"refresh_interval" env:"MYSTOCK_PRICE_REFRESH_INTERVAL"` // price warm-up, "" disables
	BatchConcurrency int     `toml:"batch_concurrency"`
}

// Interval returns the monitor tick interval
func (c *MonitorConfig) Interval() time.Duration {
	if c.IntervalSeconds <= 0 {
		return 300 * time.Second
	}
	return time.Duration(c.IntervalSeconds) * time.Second
}

// GetRefreshInterval returns the price warm-up interval; zero disables it.
func (c *MonitorConfig) GetRefreshInterval() time.Duration {
	d, err := time.ParseDuration(c.RefreshInterval)
	if err != nil {
		return 0
	}
	return d
}

// ClientsConfig holds market data API client configurations
type ClientsConfig struct {
	Yahoo       ClientConfig `toml:"yahoo" envPrefix:"YAHOO_"`
	MFAPI       ClientConfig `toml:"mfapi" envPrefix:"MFAPI_"`
	Frankfurter ClientConfig `toml:"frankfurter" envPrefix:"FRANKFURTER_"`
	EODHD       ClientConfig `toml:"eodhd" envPrefix:"EODHD_"`
}

// ClientConfig holds a single HTTP API client configuration
type ClientConfig struct {
	BaseURL   string `toml:"base_url" env:"BASE_URL"`
	APIKey    string `toml:"api_key" env:"API_KEY"`
	RateLimit int    `toml:"rate_limit" env:"RATE_LIMIT"`
	Timeout   string `toml:"timeout" env:"TIMEOUT"`
}

// GetTimeout parses and returns the timeout duration
func (c *ClientConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// AlertsConfig holds alert fan-out configuration
type AlertsConfig struct {
	Kafka KafkaConfig `toml:"kafka"`
}

// KafkaConfig enables publishing alerts to a Kafka topic when Brokers is set
type KafkaConfig struct {
	Brokers []string `toml:"brokers" env:"MYSTOCK_KAFKA_BROKERS" envSeparator:","`
	Topic   string   `toml:"topic" env:"MYSTOCK_KAFKA_TOPIC"`
}

// Enabled reports whether a broker list was configured
func (c *KafkaConfig) Enabled() bool {
	return len(c.Brokers) > 0 && c.Topic != ""
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `toml:"level" env:"MYSTOCK_LOG_LEVEL"`
	Format string `toml:"format" env:"MYSTOCK_LOG_FORMAT"` // "console" or "json"
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment:       "development",
		ReportingCurrency: "SGD",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8501,
		},
		Storage: StorageConfig{
			Backend:   "sqlite",
			DSN:       "data/portfolio.db",
			Address:   "ws://localhost:8000/rpc",
			Namespace: "mystock",
			Database:  "mystock",
			Username:  "root",
			Password:  "root",
		},
		AI: AIConfig{
			Provider:         "openai",
			Tier:             "economy",
			OllamaBaseURL:    "http://localhost:11434",
			MonthlyBudgetUSD: 5.0,
			InsightsOnLoad:   true,
			Timeout:          "60s",
		},
		Cache: CacheConfig{
			PriceTTLMinutes:    15,
			ExtremesTTLMinutes: 1440,
			FundTTLMinutes:     30,
			MetalTTLMinutes:    15,
			ForexTTLMinutes:    60,
			InsightsTTLMinutes: 1440,
			FundSearchTTL:      "10m",
		},
		Monitor: MonitorConfig{
			Enabled:          true,
			IntervalSeconds:  300,
			AlertThreshold:   5.0,
			MaxAlerts:        50,
			RefreshInterval:  "30m",
			BatchConcurrency: 5,
		},
		Clients: ClientsConfig{
			Yahoo: ClientConfig{
				BaseURL:   "https://query2.finance.yahoo.com",
				RateLimit: 5,
				Timeout:   "10s",
			},
			MFAPI: ClientConfig{
				BaseURL:   "https://api.mfapi.in",
				RateLimit: 5,
				Timeout:   "15s",
			},
			Frankfurter: ClientConfig{
				BaseURL:   "https://api.frankfurter.dev",
				RateLimit: 5,
				Timeout:   "10s",
			},
			EODHD: ClientConfig{
				BaseURL:   "https://eodhd.com/api",
				RateLimit: 10,
				Timeout:   "30s",
			},
		},
		Alerts: AlertsConfig{
			Kafka: KafkaConfig{Topic: "mystock.alerts"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides.
// Files are merged in order; missing files are skipped. A .env file in the
// working directory is loaded before environment overrides are applied.
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	// Existing environment variables win over .env entries
	_ = godotenv.Load()

	if err := applyEnvOverrides(config); err != nil {
		return nil, err
	}

	normalize(config)

	return config, nil
}

// applyEnvOverrides overlays environment variables onto config.
// Unset variables leave the file/default values untouched.
func applyEnvOverrides(config *Config) error {
	if err := env.Parse(config); err != nil {
		return fmt.Errorf("failed to parse environment overrides: %w", err)
	}
	return nil
}

// normalize fixes up values that would otherwise break the core.
func normalize(config *Config) {
	config.ReportingCurrency = strings.ToUpper(strings.TrimSpace(config.ReportingCurrency))
	if len(config.ReportingCurrency) != 3 {
		config.ReportingCurrency = "SGD"
	}

	config.AI.Provider = strings.ToLower(strings.TrimSpace(config.AI.Provider))
	if _, ok := ModelCatalog[config.AI.Provider]; !ok {
		config.AI.Provider = "openai"
	}
	config.AI.Tier = strings.ToLower(strings.TrimSpace(config.AI.Tier))
	if config.AI.Tier != "economy" && config.AI.Tier != "quality" {
		config.AI.Tier = "economy"
	}
	if config.AI.MonthlyBudgetUSD < 0 {
		config.AI.MonthlyBudgetUSD = 0
	}

	if config.Monitor.AlertThreshold <= 0 {
		config.Monitor.AlertThreshold = 5.0
	}
	if config.Monitor.MaxAlerts <= 0 {
		config.Monitor.MaxAlerts = 50
	}
	if config.Monitor.BatchConcurrency <= 0 {
		config.Monitor.BatchConcurrency = 5
	}

	defaults := NewDefaultConfig().Clients
	fillClient(&config.Clients.Yahoo, defaults.Yahoo)
	fillClient(&config.Clients.MFAPI, defaults.MFAPI)
	fillClient(&config.Clients.Frankfurter, defaults.Frankfurter)
	fillClient(&config.Clients.EODHD, defaults.EODHD)

	config.Storage.Backend = strings.ToLower(strings.TrimSpace(config.Storage.Backend))
	if config.Storage.Backend == "" {
		config.Storage.Backend = "sqlite"
	}
}

// fillClient restores the base URL and rate limit a config file blanked out
func fillClient(c *ClientConfig, def ClientConfig) {
	if strings.TrimSpace(c.BaseURL) == "" {
		c.BaseURL = def.BaseURL
	}
	if c.RateLimit <= 0 {
		c.RateLimit = def.RateLimit
	}
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
