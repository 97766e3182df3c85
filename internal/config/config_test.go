package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := Defaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if cfg.Schedule.DayBoundaryHour != 8 {
		t.Errorf("day boundary = %d, want 8", cfg.Schedule.DayBoundaryHour)
	}
	if cfg.Schedule.WindowStartHour != 15 || cfg.Schedule.WindowEndHour != 16 {
		t.Errorf("window = [%d,%d), want [15,16)", cfg.Schedule.WindowStartHour, cfg.Schedule.WindowEndHour)
	}
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := `
log_level = "debug"

[storage]
backend = "memory"

[trader]
max_buy_attempts = 7

[schedule]
interval = "30m"
timezone = "America/Los_Angeles"
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("DAILYTRADER_SERVER_PORT", "9090")
	t.Setenv("DAILYTRADER_NOTIFY_EVENTS", "daily_trade, ,error")
	t.Setenv("DAILYTRADER_TRADER_LOCK_TTL", "45s")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("log_level = %q", cfg.LogLevel)
	}
	if cfg.Storage.Backend != "memory" {
		t.Errorf("backend = %q", cfg.Storage.Backend)
	}
	if cfg.Trader.MaxBuyAttempts != 7 {
		t.Errorf("max_buy_attempts = %d", cfg.Trader.MaxBuyAttempts)
	}
	if cfg.Schedule.Interval.Duration != 30*time.Minute {
		t.Errorf("interval = %s", cfg.Schedule.Interval.Duration)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if got := strings.Join(cfg.Notify.Events, ","); got != "daily_trade,error" {
		t.Errorf("events = %q", got)
	}
	if cfg.Trader.LockTTL.Duration != 45*time.Second {
		t.Errorf("lock ttl = %s", cfg.Trader.LockTTL.Duration)
	}
	// Defaults survive for keys the file does not mention.
	if cfg.Market.Fields["currentPrice"] == "" {
		t.Error("default market fields lost")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Redis.Addr == "" {
		t.Error("expected default redis addr")
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg := Defaults()
	cfg.Storage.Backend = "sqlite"
	cfg.LogLevel = "loud"
	cfg.Trader.MaxBuyAttempts = 0
	cfg.Schedule.WindowStartHour = 17
	cfg.Schedule.Timezone = "Mars/Olympus"
	cfg.Market.QuoteURL = "https://example.com/quote"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{
		"unknown backend",
		"unknown log_level",
		"max_buy_attempts",
		"window_start_hour must be before",
		"invalid timezone",
		"{ticker}",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error missing %q:\n%v", want, err)
		}
	}
}

func TestRedactedConfig(t *testing.T) {
	cfg := Defaults()
	cfg.Redis.Password = "hunter2"
	cfg.Postgres.DSN = "postgres://bot:s3cret@db:5432/trades"
	cfg.Market.QuoteURL = "https://api.example.com/q?symbol={ticker}&apikey=abc123"
	cfg.Notify.DiscordWebhookURL = "https://discord.com/api/webhooks/1/x"
	cfg.Server.APIKey = "k"

	out := RedactedConfig(&cfg)

	if out.Redis.Password != redacted || out.Server.APIKey != redacted || out.Notify.DiscordWebhookURL != redacted {
		t.Errorf("secrets not redacted: %+v", out)
	}
	if strings.Contains(out.Postgres.DSN, "s3cret") {
		t.Errorf("dsn not redacted: %s", out.Postgres.DSN)
	}
	if strings.Contains(out.Market.QuoteURL, "abc123") {
		t.Errorf("quote url not redacted: %s", out.Market.QuoteURL)
	}
	if !strings.Contains(out.Market.QuoteURL, "{ticker}") {
		t.Errorf("quote url placeholder lost: %s", out.Market.QuoteURL)
	}

	out.Market.Fields["currentPrice"] = "$.changed"
	if cfg.Market.Fields["currentPrice"] == "$.changed" {
		t.Error("redacted copy shares the fields map with the original")
	}
	if cfg.Redis.Password != "hunter2" {
		t.Error("original mutated")
	}
}
