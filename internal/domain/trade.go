package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// TradeAction is the direction of a simulated trade.
type TradeAction string

const (
	ActionBuy  TradeAction = "buy"
	ActionSell TradeAction = "sell"
)

// TradeRecord is one completed simulated trade. NetCash and DaysHeld are
// only meaningful for sells.
type TradeRecord struct {
	ID          string          `json:"id"`
	Action      TradeAction     `json:"action"`
	Ticker      string          `json:"ticker"`
	CompanyName string          `json:"company_name"`
	Price       decimal.Decimal `json:"price"`
	NetCash     decimal.Decimal `json:"net_cash"`
	DaysHeld    int             `json:"days_held"`
	CashFlow    decimal.Decimal `json:"cash_flow"`
	TradingDay  Date            `json:"trading_day"`
	ExecutedAt  time.Time       `json:"executed_at"`
}

// TradeJournal keeps an append-only history of completed trades.
type TradeJournal interface {
	Record(ctx context.Context, rec TradeRecord) error
	// Recent returns up to limit records, newest first.
	Recent(ctx context.Context, limit int) ([]TradeRecord, error)
}
