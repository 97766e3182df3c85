package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	s3blob "github.com/alanyoungcy/dailytrader/internal/blob/s3"
	"github.com/alanyoungcy/dailytrader/internal/cache/redis"
	"github.com/alanyoungcy/dailytrader/internal/config"
	"github.com/alanyoungcy/dailytrader/internal/domain"
	"github.com/alanyoungcy/dailytrader/internal/notify"
	"github.com/alanyoungcy/dailytrader/internal/store/memory"
	"github.com/alanyoungcy/dailytrader/internal/store/postgres"
)

// memoryJournalSize bounds the in-process journal of the memory backend.
const memoryJournalSize = 500

// discordUsername is the display name of webhook posts.
const discordUsername = "DailyTrader"

// Dependencies bundles the storage, cache and notification implementations
// selected by the configuration. It is constructed by Wire and torn down by
// the returned cleanup function.
type Dependencies struct {
	// Backend is the ledger backend name, "redis" or "memory".
	Backend string

	LedgerStore domain.LedgerStore
	PriceCache  domain.PriceCache
	RateLimiter domain.RateLimiter
	LockManager domain.LockManager
	SignalBus   domain.SignalBus
	Journal     domain.TradeJournal

	// SnapshotWriter and SnapshotReader are nil unless s3.enabled is set.
	SnapshotWriter domain.BlobWriter
	SnapshotReader domain.BlobReader

	Notifier *notify.Notifier
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{Backend: strings.ToLower(cfg.Storage.Backend)}

	// --- Ledger, caches, locks and bus ---
	switch deps.Backend {
	case "redis":
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
			KeyPrefix:  cfg.Redis.KeyPrefix,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.LedgerStore = redis.NewLedgerStore(redisClient)
		deps.PriceCache = redis.NewPriceCache(redisClient, cfg.Market.PriceTTL.Duration)
		deps.RateLimiter = redis.NewRateLimiter(redisClient)
		deps.LockManager = redis.NewLockManager(redisClient)
		deps.SignalBus = redis.NewSignalBus(redisClient)
		deps.Journal = redis.NewTradeStream(redisClient)
	case "memory":
		deps.LedgerStore = memory.NewLedgerStore()
		deps.PriceCache = memory.NewPriceCache()
		deps.RateLimiter = memory.NewRateLimiter()
		deps.LockManager = memory.NewLockManager()
		deps.SignalBus = memory.NewSignalBus()
		deps.Journal = memory.NewTradeJournal(memoryJournalSize)
	default:
		return nil, nil, fmt.Errorf("wire: unknown storage backend %q", cfg.Storage.Backend)
	}

	// --- PostgreSQL trade journal ---
	if cfg.Postgres.Enabled {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}
		deps.Journal = postgres.NewTradeJournal(pgClient.Pool())
	}

	// --- S3 ledger snapshots ---
	if cfg.S3.Enabled {
		store, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		if err := store.Health(ctx); err != nil {
			logger.WarnContext(ctx, "snapshot bucket not reachable",
				slog.String("bucket", store.Bucket()),
				slog.String("error", err.Error()),
			)
		}
		deps.SnapshotWriter = store
		deps.SnapshotReader = store
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL, discordUsername))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	return deps, cleanup, nil
}
