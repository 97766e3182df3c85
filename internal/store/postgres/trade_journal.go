package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/dailytrader/internal/domain"
)

// TradeJournal implements domain.TradeJournal on the trade_journal table.
type TradeJournal struct {
	pool *pgxpool.Pool
}

func NewTradeJournal(pool *pgxpool.Pool) *TradeJournal {
	return &TradeJournal{pool: pool}
}

// Record inserts rec. Re-recording the same ID is a no-op.
func (j *TradeJournal) Record(ctx context.Context, rec domain.TradeRecord) error {
	const q = `
		INSERT INTO trade_journal (
			id, action, ticker, company_name, price, net_cash,
			days_held, cash_flow, trading_day, executed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING`
	_, err := j.pool.Exec(ctx, q,
		rec.ID, string(rec.Action), rec.Ticker, rec.CompanyName, rec.Price, rec.NetCash,
		rec.DaysHeld, rec.CashFlow, rec.TradingDay.Time(), rec.ExecutedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: record trade %s: %w", rec.ID, err)
	}
	return nil
}

// Recent returns up to limit trades, newest first.
func (j *TradeJournal) Recent(ctx context.Context, limit int) ([]domain.TradeRecord, error) {
	const q = `
		SELECT id::text, action, ticker, company_name, price, net_cash,
		       days_held, cash_flow, trading_day, executed_at
		FROM trade_journal
		ORDER BY executed_at DESC, id
		LIMIT $1`
	rows, err := j.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: recent trades: %w", err)
	}
	recs, err := pgx.CollectRows(rows, scanTradeRecord)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan trades: %w", err)
	}
	return recs, nil
}

func scanTradeRecord(row pgx.CollectableRow) (domain.TradeRecord, error) {
	var (
		rec    domain.TradeRecord
		action string
		day    time.Time
	)
	err := row.Scan(
		&rec.ID, &action, &rec.Ticker, &rec.CompanyName, &rec.Price, &rec.NetCash,
		&rec.DaysHeld, &rec.CashFlow, &day, &rec.ExecutedAt,
	)
	if err != nil {
		return rec, err
	}
	rec.Action = domain.TradeAction(action)
	rec.TradingDay = domain.DateOf(day)
	return rec, nil
}

var _ domain.TradeJournal = (*TradeJournal)(nil)
