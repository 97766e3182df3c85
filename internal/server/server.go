// Package server exposes the bot over HTTP: the keep-alive endpoint, the
// command API and the live trade websocket.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/dailytrader/internal/domain"
	"github.com/alanyoungcy/dailytrader/internal/server/handler"
	"github.com/alanyoungcy/dailytrader/internal/server/middleware"
	"github.com/alanyoungcy/dailytrader/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	// APIKey guards the mutating routes; empty disables auth.
	APIKey     string
	RateLimit  int
	RateWindow time.Duration
}

// Handlers aggregates the route handlers.
type Handlers struct {
	Health    *handler.HealthHandler
	Portfolio *handler.PortfolioHandler
	Market    *handler.MarketHandler
	Trade     *handler.TradeHandler
}

// Server is the bot's HTTP + WebSocket server.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer registers every route. limiter and hub may be nil.
func NewServer(cfg Config, handlers Handlers, hub *ws.Hub, limiter domain.RateLimiter, logger *slog.Logger) *Server {
	logger = logger.With(slog.String("component", "server"))
	auth := middleware.Auth(cfg.APIKey)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", handlers.Health.Ready)
	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	mux.HandleFunc("GET /api/portfolio", handlers.Portfolio.Portfolio)
	mux.HandleFunc("GET /api/portfolio/value", handlers.Portfolio.PortfolioValue)
	mux.HandleFunc("GET /api/cashflow", handlers.Portfolio.CashFlow)
	mux.Handle("POST /api/reset", auth(http.HandlerFunc(handlers.Portfolio.Reset)))

	mux.HandleFunc("GET /api/stocks/{ticker}", handlers.Market.Stock)
	mux.HandleFunc("GET /api/prices/{ticker}", handlers.Market.Price)

	mux.Handle("POST /api/trade", auth(http.HandlerFunc(handlers.Trade.Trigger)))
	mux.HandleFunc("GET /api/trades", handlers.Trade.Recent)

	if hub != nil {
		mux.HandleFunc("GET /ws", hub.HandleWS)
	}

	var h http.Handler = mux
	h = middleware.RateLimit(limiter, cfg.RateLimit, cfg.RateWindow, logger)(h)
	h = middleware.Logging(logger)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)

	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           h,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       15 * time.Second,
			// A forced trade may walk many quote lookups.
			WriteTimeout: 2 * time.Minute,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}
}

// Handler returns the root handler with middleware applied.
func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

// Start listens until Shutdown.
func (s *Server) Start() error {
	s.logger.Info("starting", slog.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown waits for in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
