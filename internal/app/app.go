// Package app provides the top-level application lifecycle management for the
// daily trader bot. It wires together storage, the quote provider, the trade
// simulator and notifications, and runs the scheduler and HTTP server.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/dailytrader/internal/config"
	"github.com/alanyoungcy/dailytrader/internal/market"
	"github.com/alanyoungcy/dailytrader/internal/portfolio"
	"github.com/alanyoungcy/dailytrader/internal/server"
	"github.com/alanyoungcy/dailytrader/internal/server/handler"
	"github.com/alanyoungcy/dailytrader/internal/server/ws"
	"github.com/alanyoungcy/dailytrader/internal/service"
)

// shutdownTimeout bounds the graceful HTTP shutdown.
const shutdownTimeout = 5 * time.Second

// App is the root application object. It owns the configuration, logger, and a
// list of cleanup functions that are called in reverse order on shutdown.
type App struct {
	cfg      *config.Config
	logger   *slog.Logger
	closers  []func()
	services *Services
}

// Services are the wired application services shared by the daemon and the
// one-shot CLI commands.
type Services struct {
	Deps      *Dependencies
	Ledger    *portfolio.Ledger
	Quotes    *market.CachedLookup
	Trades    *service.TradeService
	Market    *service.MarketService
	Portfolio *service.PortfolioService
}

// New creates a new App from the given configuration and logger.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
	}
}

// globalRand draws from the concurrency-safe math/rand/v2 source.
type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// Services wires the dependencies on first use and returns the services built
// on them.
func (a *App) Services(ctx context.Context) (*Services, error) {
	if a.services != nil {
		return a.services, nil
	}

	deps, cleanup, err := Wire(ctx, a.cfg, a.logger)
	if err != nil {
		return nil, fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)

	universe, err := market.LoadUniverse(a.cfg.Trader.UniversePath)
	if err != nil {
		return nil, fmt.Errorf("app: load universe: %w", err)
	}

	client := market.NewClient(market.ClientConfig{
		QuoteURL:   a.cfg.Market.QuoteURL,
		APIKey:     a.cfg.Market.APIKey,
		ResultPath: a.cfg.Market.ResultPath,
		Fields:     a.cfg.Market.Fields,
		Timeout:    a.cfg.Market.Timeout.Duration,
		UserAgent:  a.cfg.Market.UserAgent,
	}, nil)
	quotes := market.NewCachedLookup(client, deps.PriceCache, a.cfg.Market.PriceTTL.Duration, a.logger)

	clock := portfolio.NewClock(a.cfg.Schedule.Location(), a.cfg.Schedule.DayBoundaryHour)
	ledger := portfolio.NewLedger(deps.LedgerStore, clock)

	opts := []service.TradeOption{
		service.WithJournal(deps.Journal),
		service.WithSignalBus(deps.SignalBus),
		service.WithLocks(deps.LockManager),
		service.WithNotifier(deps.Notifier),
	}
	if deps.SnapshotWriter != nil {
		opts = append(opts, service.WithSnapshots(deps.SnapshotWriter))
	}
	trades := service.NewTradeService(ledger, quotes, universe, globalRand{}, service.TradeConfig{
		MaxBuyAttempts:  a.cfg.Trader.MaxBuyAttempts,
		LockTTL:         a.cfg.Trader.LockTTL.Duration,
		WindowStartHour: a.cfg.Schedule.WindowStartHour,
		WindowEndHour:   a.cfg.Schedule.WindowEndHour,
		SnapshotPrefix:  a.cfg.S3.SnapshotPrefix,
	}, a.logger, opts...)

	a.services = &Services{
		Deps:      deps,
		Ledger:    ledger,
		Quotes:    quotes,
		Trades:    trades,
		Market:    service.NewMarketService(quotes),
		Portfolio: service.NewPortfolioService(ledger, quotes.Price, deps.SnapshotReader, a.cfg.S3.SnapshotPrefix, a.logger),
	}
	a.logger.InfoContext(ctx, "services ready",
		slog.String("backend", deps.Backend),
		slog.Int("universe", universe.Len()),
		slog.Bool("journal_postgres", a.cfg.Postgres.Enabled),
		slog.Bool("snapshots", deps.SnapshotWriter != nil),
		slog.Bool("notifications", deps.Notifier.Enabled()),
	)
	return a.services, nil
}

// Run is the daemon entry point. It starts the daily-trade scheduler, the
// WebSocket hub and the HTTP server, and blocks until the context is
// cancelled or one of them fails.
func (a *App) Run(ctx context.Context) error {
	a.logger.InfoContext(ctx, "starting application",
		slog.String("backend", a.cfg.Storage.Backend),
		slog.String("log_level", a.cfg.LogLevel),
	)

	svc, err := a.Services(ctx)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	if a.cfg.Schedule.Enabled {
		sched := NewScheduler(svc.Trades, svc.Deps.Notifier, a.cfg.Schedule.Interval.Duration, a.logger)
		g.Go(func() error {
			return sched.Run(ctx)
		})
	} else {
		a.logger.InfoContext(ctx, "scheduler disabled; daily trade runs only on request")
	}

	if a.cfg.Server.Enabled {
		a.startHTTPServer(ctx, g, svc)
	}

	return g.Wait()
}

// startHTTPServer registers the hub and server goroutines on g.
func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, svc *Services) {
	hub := ws.NewHub(svc.Deps.SignalBus, a.logger)
	g.Go(func() error {
		return hub.Run(ctx)
	})

	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		APIKey:      a.cfg.Server.APIKey,
		RateLimit:   a.cfg.Server.RateLimit,
		RateWindow:  a.cfg.Server.RateWindow.Duration,
	}, server.Handlers{
		Health:    handler.NewHealthHandler(svc.Deps.Backend, time.Now().UTC(), a.logger),
		Portfolio: handler.NewPortfolioHandler(svc.Portfolio, a.logger),
		Market:    handler.NewMarketHandler(svc.Market, a.logger),
		Trade:     handler.NewTradeHandler(svc.Trades, svc.Deps.Journal, a.logger),
	}, hub, svc.Deps.RateLimiter, a.logger)

	g.Go(srv.Start)
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
}

// Close tears down all resources in reverse registration order. It is safe to
// call multiple times; subsequent calls are no-ops.
func (a *App) Close() {
	if len(a.closers) > 0 {
		a.logger.Info("shutting down application")
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
	a.services = nil
}
