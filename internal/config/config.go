// Package config defines the top-level configuration for the daily trader bot
// and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // schedule.timezone must resolve in minimal containers
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by DAILYTRADER_* environment variables.
type Config struct {
	Storage  StorageConfig  `toml:"storage"`
	Redis    RedisConfig    `toml:"redis"`
	Postgres PostgresConfig `toml:"postgres"`
	S3       S3Config       `toml:"s3"`
	Market   MarketConfig   `toml:"market"`
	Trader   TraderConfig   `toml:"trader"`
	Schedule ScheduleConfig `toml:"schedule"`
	Server   ServerConfig   `toml:"server"`
	Notify   NotifyConfig   `toml:"notify"`
	LogLevel string         `toml:"log_level"`
}

// StorageConfig selects the ledger backend.
type StorageConfig struct {
	// Backend is "redis" or "memory". The memory backend loses the ledger on
	// restart and is meant for local runs and dry experiments.
	Backend string `toml:"backend"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
	// KeyPrefix namespaces every ledger key, so several bots can share a database.
	KeyPrefix string `toml:"key_prefix"`
}

// PostgresConfig holds connection parameters for the trade journal.
type PostgresConfig struct {
	Enabled       bool   `toml:"enabled"`
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// S3Config holds S3-compatible object storage parameters for ledger snapshots.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
	SnapshotPrefix string `toml:"snapshot_prefix"`
}

// MarketConfig describes the HTTP quote provider. QuoteURL may contain the
// {ticker} and {api_key} placeholders. Fields maps descriptive metric names
// (currentPrice, shortName, sector, ...) to JSONPath expressions evaluated
// against the object selected by ResultPath.
type MarketConfig struct {
	QuoteURL   string            `toml:"quote_url"`
	APIKey     string            `toml:"api_key"`
	ResultPath string            `toml:"result_path"`
	Fields     map[string]string `toml:"fields"`
	Timeout    duration          `toml:"timeout"`
	PriceTTL   duration          `toml:"price_ttl"`
	UserAgent  string            `toml:"user_agent"`
}

// TraderConfig holds the trade simulator parameters.
type TraderConfig struct {
	// UniversePath is a file with one ticker per line. Empty uses the
	// embedded NASDAQ list.
	UniversePath   string   `toml:"universe_path"`
	MaxBuyAttempts int      `toml:"max_buy_attempts"`
	LockTTL        duration `toml:"lock_ttl"`
}

// ScheduleConfig controls when the daily trade fires.
type ScheduleConfig struct {
	Enabled  bool     `toml:"enabled"`
	Interval duration `toml:"interval"`
	// Timezone is an IANA location name used for the trading-day clock.
	Timezone string `toml:"timezone"`
	// DayBoundaryHour is the local hour before which the date still counts as
	// the previous trading day.
	DayBoundaryHour int `toml:"day_boundary_hour"`
	WindowStartHour int `toml:"window_start_hour"`
	WindowEndHour   int `toml:"window_end_hour"`
}

// duration is a wrapper around time.Duration that supports TOML string decoding
// (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Enabled     bool     `toml:"enabled"`
	Port        int      `toml:"port"`
	APIKey      string   `toml:"api_key"`
	CORSOrigins []string `toml:"cors_origins"`
	// RateLimit is the number of requests allowed per client per RateWindow.
	RateLimit  int      `toml:"rate_limit"`
	RateWindow duration `toml:"rate_window"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// Defaults returns a Config populated with reasonable default values.
func Defaults() Config {
	return Config{
		Storage: StorageConfig{
			Backend: "redis",
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   10,
			MaxRetries: 3,
			TLSEnabled: false,
		},
		Postgres: PostgresConfig{
			Enabled:       false,
			Host:          "localhost",
			Port:          5432,
			Database:      "postgres",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  4,
			PoolMinConns:  1,
			RunMigrations: true,
		},
		S3: S3Config{
			Enabled:        false,
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "dailytrader",
			UseSSL:         false,
			ForcePathStyle: true,
			SnapshotPrefix: "snapshots",
		},
		Market: MarketConfig{
			QuoteURL:   "https://query1.finance.yahoo.com/v7/finance/quote?symbols={ticker}",
			ResultPath: "$.quoteResponse.result[0]",
			Fields:     DefaultMarketFields(),
			Timeout:    duration{10 * time.Second},
			PriceTTL:   duration{5 * time.Minute},
			UserAgent:  "dailytrader/1.0",
		},
		Trader: TraderConfig{
			MaxBuyAttempts: 50,
			LockTTL:        duration{2 * time.Minute},
		},
		Schedule: ScheduleConfig{
			Enabled:         true,
			Interval:        duration{time.Hour},
			Timezone:        "UTC",
			DayBoundaryHour: 8,
			WindowStartHour: 15,
			WindowEndHour:   16,
		},
		Server: ServerConfig{
			Enabled:     true,
			Port:        8000,
			CORSOrigins: []string{"http://localhost:3000"},
			RateLimit:   60,
			RateWindow:  duration{time.Minute},
		},
		Notify: NotifyConfig{
			Events: []string{"daily_trade", "error"},
		},
		LogLevel: "info",
	}
}

// DefaultMarketFields maps each metric to its location in a Yahoo-style quote
// object.
func DefaultMarketFields() map[string]string {
	return map[string]string{
		"currentPrice":        "$.regularMarketPrice",
		"shortName":           "$.shortName",
		"sector":              "$.sector",
		"longBusinessSummary": "$.longBusinessSummary",
		"volume":              "$.regularMarketVolume",
		"trailingPE":          "$.trailingPE",
		"marketCap":           "$.marketCap",
		"fiftyTwoWeekHigh":    "$.fiftyTwoWeekHigh",
		"fiftyTwoWeekLow":     "$.fiftyTwoWeekLow",
		"averageVolume":       "$.averageDailyVolume3Month",
		"dividendYield":       "$.trailingAnnualDividendYield",
		"beta":                "$.beta",
		"trailingEps":         "$.epsTrailingTwelveMonths",
	}
}

// validBackends enumerates the accepted values for StorageConfig.Backend.
var validBackends = map[string]bool{
	"redis":  true,
	"memory": true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validBackends[strings.ToLower(c.Storage.Backend)] {
		errs = append(errs, fmt.Sprintf("storage: unknown backend %q (valid: redis, memory)", c.Storage.Backend))
	}

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Redis
	if strings.EqualFold(c.Storage.Backend, "redis") {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	// Postgres
	if c.Postgres.Enabled {
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			if c.Postgres.Host == "" {
				errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
			}
			if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
				errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
			}
			if c.Postgres.Database == "" {
				errs = append(errs, "postgres: database must not be empty")
			}
		}
		if c.Postgres.PoolMaxConns < 1 {
			errs = append(errs, "postgres: pool_max_conns must be >= 1")
		}
		if c.Postgres.PoolMinConns < 0 || c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
			errs = append(errs, "postgres: pool_min_conns must be between 0 and pool_max_conns")
		}
	}

	// S3
	if c.S3.Enabled {
		if c.S3.Endpoint == "" {
			errs = append(errs, "s3: endpoint must not be empty")
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty")
		}
	}

	// Market
	if c.Market.QuoteURL == "" {
		errs = append(errs, "market: quote_url must not be empty")
	} else if !strings.Contains(c.Market.QuoteURL, "{ticker}") {
		errs = append(errs, "market: quote_url must contain the {ticker} placeholder")
	}
	if c.Market.Fields["currentPrice"] == "" {
		errs = append(errs, "market: fields.currentPrice must be set")
	}
	if c.Market.Fields["shortName"] == "" {
		errs = append(errs, "market: fields.shortName must be set")
	}
	if c.Market.Timeout.Duration <= 0 {
		errs = append(errs, "market: timeout must be > 0")
	}
	if c.Market.PriceTTL.Duration < 0 {
		errs = append(errs, "market: price_ttl must be >= 0")
	}

	// Trader
	if c.Trader.MaxBuyAttempts < 1 {
		errs = append(errs, "trader: max_buy_attempts must be >= 1")
	}
	if c.Trader.LockTTL.Duration <= 0 {
		errs = append(errs, "trader: lock_ttl must be > 0")
	}

	// Schedule
	if c.Schedule.Enabled && c.Schedule.Interval.Duration <= 0 {
		errs = append(errs, "schedule: interval must be > 0")
	}
	if _, err := time.LoadLocation(c.Schedule.Timezone); err != nil {
		errs = append(errs, fmt.Sprintf("schedule: invalid timezone %q: %v", c.Schedule.Timezone, err))
	}
	if c.Schedule.DayBoundaryHour < 0 || c.Schedule.DayBoundaryHour > 23 {
		errs = append(errs, fmt.Sprintf("schedule: day_boundary_hour must be 0-23, got %d", c.Schedule.DayBoundaryHour))
	}
	if c.Schedule.WindowStartHour < 0 || c.Schedule.WindowStartHour > 23 {
		errs = append(errs, fmt.Sprintf("schedule: window_start_hour must be 0-23, got %d", c.Schedule.WindowStartHour))
	}
	if c.Schedule.WindowEndHour < 1 || c.Schedule.WindowEndHour > 24 {
		errs = append(errs, fmt.Sprintf("schedule: window_end_hour must be 1-24, got %d", c.Schedule.WindowEndHour))
	}
	if c.Schedule.WindowStartHour >= c.Schedule.WindowEndHour {
		errs = append(errs, "schedule: window_start_hour must be before window_end_hour")
	}

	// Server
	if c.Server.Enabled {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
		if c.Server.RateLimit < 0 {
			errs = append(errs, "server: rate_limit must be >= 0")
		}
		if c.Server.RateLimit > 0 && c.Server.RateWindow.Duration <= 0 {
			errs = append(errs, "server: rate_window must be > 0 when rate_limit is set")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// Location resolves the configured trading-day timezone. It falls back to
// UTC when the name cannot be loaded; Validate reports that case.
func (s ScheduleConfig) Location() *time.Location {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
