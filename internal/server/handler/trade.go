package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/dailytrader/internal/domain"
	"github.com/alanyoungcy/dailytrader/internal/service"
)

// TradeService defines what the trade handler requires.
type TradeService interface {
	TryDailyTrade(ctx context.Context, force bool) (service.DailyOutcome, error)
}

// TradeHandler triggers the daily trade and lists past trades.
type TradeHandler struct {
	trades  TradeService
	journal domain.TradeJournal
	logger  *slog.Logger
}

// NewTradeHandler creates a TradeHandler. journal may be nil.
func NewTradeHandler(trades TradeService, journal domain.TradeJournal, logger *slog.Logger) *TradeHandler {
	return &TradeHandler{trades: trades, journal: journal, logger: logger}
}

type tradeResponse struct {
	Traded  bool                `json:"traded"`
	Reason  string              `json:"reason,omitempty"`
	Message string              `json:"message,omitempty"`
	Trade   *domain.TradeRecord `json:"trade,omitempty"`
}

// Trigger runs the daily trade now.
// POST /api/trade?force=true
func (h *TradeHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	out, err := h.trades.TryDailyTrade(r.Context(), parseBool(r, "force"))
	switch {
	case errors.Is(err, domain.ErrNoValidTicker):
		writeError(w, http.StatusBadGateway, "no tradable ticker found")
		return
	case err != nil:
		logFailure(h.logger, r, "daily trade failed", err)
		writeError(w, http.StatusInternalServerError, "daily trade failed")
		return
	}

	resp := tradeResponse{Traded: out.Traded, Reason: out.Reason, Message: out.Message}
	if out.Trade != nil {
		rec := out.Trade.Record()
		resp.Trade = &rec
	}
	writeJSON(w, http.StatusOK, resp)
}

// Recent lists journaled trades, newest first.
// GET /api/trades?limit=20
func (h *TradeHandler) Recent(w http.ResponseWriter, r *http.Request) {
	if h.journal == nil {
		writeError(w, http.StatusNotImplemented, "trade journal disabled")
		return
	}
	recs, err := h.journal.Recent(r.Context(), parseLimit(r, 20, 500))
	if err != nil {
		logFailure(h.logger, r, "list trades failed", err)
		writeError(w, http.StatusInternalServerError, "failed to list trades")
		return
	}
	if recs == nil {
		recs = []domain.TradeRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"trades": recs})
}
