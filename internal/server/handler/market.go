package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/dailytrader/internal/service"
)

// MarketService defines what the market handler requires.
type MarketService interface {
	StockInfo(ctx context.Context, ticker string) (string, error)
	PriceMessage(ctx context.Context, ticker string) (string, error)
}

// MarketHandler serves stock lookups.
type MarketHandler struct {
	market MarketService
	logger *slog.Logger
}

func NewMarketHandler(market MarketService, logger *slog.Logger) *MarketHandler {
	return &MarketHandler{market: market, logger: logger}
}

// Stock renders company info for a ticker.
// GET /api/stocks/{ticker}
func (h *MarketHandler) Stock(w http.ResponseWriter, r *http.Request) {
	h.lookup(w, r, h.market.StockInfo)
}

// Price renders the current price of a ticker.
// GET /api/prices/{ticker}
func (h *MarketHandler) Price(w http.ResponseWriter, r *http.Request) {
	h.lookup(w, r, h.market.PriceMessage)
}

func (h *MarketHandler) lookup(w http.ResponseWriter, r *http.Request, fn func(context.Context, string) (string, error)) {
	ticker := r.PathValue("ticker")
	msg, err := fn(r.Context(), ticker)
	switch {
	case errors.Is(err, service.ErrInvalidTicker):
		h.logger.DebugContext(r.Context(), "invalid ticker",
			slog.String("ticker", ticker),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusNotFound, service.InvalidTickerMessage)
	case err != nil:
		logFailure(h.logger, r, "stock lookup failed", err)
		writeError(w, http.StatusBadGateway, "market data unavailable")
	default:
		writeMessage(w, msg)
	}
}
