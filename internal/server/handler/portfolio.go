package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
)

// PortfolioService defines what the portfolio handler requires.
type PortfolioService interface {
	Portfolio(ctx context.Context) (string, error)
	PortfolioWithValue(ctx context.Context) (string, error)
	CashFlow(ctx context.Context) (string, error)
	Reset(ctx context.Context, confirmation string) (bool, error)
}

// PortfolioHandler serves the ledger reports.
type PortfolioHandler struct {
	portfolio PortfolioService
	logger    *slog.Logger
}

func NewPortfolioHandler(portfolio PortfolioService, logger *slog.Logger) *PortfolioHandler {
	return &PortfolioHandler{portfolio: portfolio, logger: logger}
}

// Portfolio renders the holdings.
// GET /api/portfolio
func (h *PortfolioHandler) Portfolio(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, h.portfolio.Portfolio)
}

// PortfolioValue renders the holdings at market prices.
// GET /api/portfolio/value
func (h *PortfolioHandler) PortfolioValue(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, h.portfolio.PortfolioWithValue)
}

// CashFlow renders the net cash flow.
// GET /api/cashflow
func (h *PortfolioHandler) CashFlow(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, h.portfolio.CashFlow)
}

func (h *PortfolioHandler) render(w http.ResponseWriter, r *http.Request, fn func(context.Context) (string, error)) {
	msg, err := fn(r.Context())
	if err != nil {
		logFailure(h.logger, r, "render portfolio failed", err)
		writeError(w, http.StatusInternalServerError, "failed to read portfolio")
		return
	}
	writeMessage(w, msg)
}

type resetRequest struct {
	Confirmation string `json:"confirmation"`
}

// Reset wipes the ledger when the body confirms with "YES".
// POST /api/reset
func (h *PortfolioHandler) Reset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<10)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	done, err := h.portfolio.Reset(r.Context(), req.Confirmation)
	if err != nil {
		logFailure(h.logger, r, "reset failed", err)
		writeError(w, http.StatusInternalServerError, "failed to reset portfolio")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"reset": done})
}
