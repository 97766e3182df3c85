package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// EnvPrefix is prepended to every environment override.
const EnvPrefix = "DAILYTRADER_"

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies DAILYTRADER_* environment variable overrides, and
// returns the final Config. An empty path skips the file. The returned Config
// has NOT been validated; the caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known DAILYTRADER_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty).
func applyEnvOverrides(cfg *Config) {
	// ── Storage ──
	setStr(&cfg.Storage.Backend, EnvPrefix+"STORAGE_BACKEND")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, EnvPrefix+"REDIS_ADDR")
	setStr(&cfg.Redis.Password, EnvPrefix+"REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, EnvPrefix+"REDIS_DB")
	setInt(&cfg.Redis.PoolSize, EnvPrefix+"REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, EnvPrefix+"REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, EnvPrefix+"REDIS_TLS_ENABLED")
	setStr(&cfg.Redis.KeyPrefix, EnvPrefix+"REDIS_KEY_PREFIX")

	// ── Postgres ──
	setBool(&cfg.Postgres.Enabled, EnvPrefix+"POSTGRES_ENABLED")
	setStr(&cfg.Postgres.DSN, EnvPrefix+"POSTGRES_DSN")
	setStr(&cfg.Postgres.DSN, "DATABASE_URL") // compatibility alias
	setStr(&cfg.Postgres.Host, EnvPrefix+"POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, EnvPrefix+"POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, EnvPrefix+"POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, EnvPrefix+"POSTGRES_USER")
	setStr(&cfg.Postgres.Password, EnvPrefix+"POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, EnvPrefix+"POSTGRES_SSL_MODE")
	setInt(&cfg.Postgres.PoolMaxConns, EnvPrefix+"POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, EnvPrefix+"POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, EnvPrefix+"POSTGRES_RUN_MIGRATIONS")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, EnvPrefix+"S3_ENABLED")
	setStr(&cfg.S3.Endpoint, EnvPrefix+"S3_ENDPOINT")
	setStr(&cfg.S3.Region, EnvPrefix+"S3_REGION")
	setStr(&cfg.S3.Bucket, EnvPrefix+"S3_BUCKET")
	setStr(&cfg.S3.AccessKey, EnvPrefix+"S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, EnvPrefix+"S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, EnvPrefix+"S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, EnvPrefix+"S3_FORCE_PATH_STYLE")
	setStr(&cfg.S3.SnapshotPrefix, EnvPrefix+"S3_SNAPSHOT_PREFIX")

	// ── Market ──
	setStr(&cfg.Market.QuoteURL, EnvPrefix+"MARKET_QUOTE_URL")
	setStr(&cfg.Market.APIKey, EnvPrefix+"MARKET_API_KEY")
	setStr(&cfg.Market.ResultPath, EnvPrefix+"MARKET_RESULT_PATH")
	setDuration(&cfg.Market.Timeout, EnvPrefix+"MARKET_TIMEOUT")
	setDuration(&cfg.Market.PriceTTL, EnvPrefix+"MARKET_PRICE_TTL")
	setStr(&cfg.Market.UserAgent, EnvPrefix+"MARKET_USER_AGENT")

	// ── Trader ──
	setStr(&cfg.Trader.UniversePath, EnvPrefix+"TRADER_UNIVERSE_PATH")
	setInt(&cfg.Trader.MaxBuyAttempts, EnvPrefix+"TRADER_MAX_BUY_ATTEMPTS")
	setDuration(&cfg.Trader.LockTTL, EnvPrefix+"TRADER_LOCK_TTL")

	// ── Schedule ──
	setBool(&cfg.Schedule.Enabled, EnvPrefix+"SCHEDULE_ENABLED")
	setDuration(&cfg.Schedule.Interval, EnvPrefix+"SCHEDULE_INTERVAL")
	setStr(&cfg.Schedule.Timezone, EnvPrefix+"SCHEDULE_TIMEZONE")
	setInt(&cfg.Schedule.DayBoundaryHour, EnvPrefix+"SCHEDULE_DAY_BOUNDARY_HOUR")
	setInt(&cfg.Schedule.WindowStartHour, EnvPrefix+"SCHEDULE_WINDOW_START_HOUR")
	setInt(&cfg.Schedule.WindowEndHour, EnvPrefix+"SCHEDULE_WINDOW_END_HOUR")

	// ── Server ──
	setBool(&cfg.Server.Enabled, EnvPrefix+"SERVER_ENABLED")
	setInt(&cfg.Server.Port, EnvPrefix+"SERVER_PORT")
	setStr(&cfg.Server.APIKey, EnvPrefix+"SERVER_API_KEY")
	setStringSlice(&cfg.Server.CORSOrigins, EnvPrefix+"SERVER_CORS_ORIGINS")
	setInt(&cfg.Server.RateLimit, EnvPrefix+"SERVER_RATE_LIMIT")
	setDuration(&cfg.Server.RateWindow, EnvPrefix+"SERVER_RATE_WINDOW")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, EnvPrefix+"NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, EnvPrefix+"NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, EnvPrefix+"NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, EnvPrefix+"NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.LogLevel, EnvPrefix+"LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
