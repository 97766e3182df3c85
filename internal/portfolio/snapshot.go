package portfolio

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/dailytrader/internal/domain"
)

// Snapshot is a point-in-time copy of the whole ledger. Positions are keyed
// by ticker and use the persisted position layout.
type Snapshot struct {
	TakenAt   time.Time                  `json:"taken_at"`
	LastTrade domain.Date                `json:"last_trade"`
	CashFlow  decimal.Decimal            `json:"cash_flow"`
	Positions map[string]domain.Position `json:"positions"`
}

// Snapshot copies the ledger.
func (l *Ledger) Snapshot(ctx context.Context) (Snapshot, error) {
	last, err := l.LastTradeDate(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	cash, err := l.CashFlow(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	positions, err := l.Positions(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	snap := Snapshot{
		TakenAt:   l.clock.Time().UTC(),
		LastTrade: last,
		CashFlow:  cash,
		Positions: make(map[string]domain.Position, len(positions)),
	}
	for _, pos := range positions {
		snap.Positions[pos.Ticker] = pos
	}
	return snap, nil
}

// Restore replaces the ledger with snap. Positions not in snap are dropped.
func (l *Ledger) Restore(ctx context.Context, snap Snapshot) error {
	current, err := l.Tickers(ctx)
	if err != nil {
		return err
	}
	for _, t := range current {
		if _, keep := snap.Positions[t]; keep {
			continue
		}
		if err := l.store.DeletePosition(ctx, t); err != nil {
			return fmt.Errorf("portfolio: restore: drop %s: %w", t, err)
		}
	}
	for ticker, pos := range snap.Positions {
		if len(pos.Lots) == 0 {
			continue
		}
		pos.Ticker = NormalizeTicker(ticker)
		if err := l.store.PutPosition(ctx, pos); err != nil {
			return fmt.Errorf("portfolio: restore %s: %w", pos.Ticker, err)
		}
	}
	if err := l.store.SetScalar(ctx, domain.ScalarCashFlow, snap.CashFlow.String()); err != nil {
		return fmt.Errorf("portfolio: restore cash flow: %w", err)
	}
	return l.MarkTraded(ctx, snap.LastTrade)
}
