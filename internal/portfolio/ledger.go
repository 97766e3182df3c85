// Package portfolio keeps the simulated portfolio ledger: FIFO lots per
// ticker, the running cash flow and the date of the last trade.
package portfolio

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/dailytrader/internal/domain"
)

// PriceLookup returns the current unit price of a ticker.
type PriceLookup func(ctx context.Context, ticker string) (decimal.Decimal, error)

// Ledger is the single logical owner of the persisted portfolio state.
// Callers serialize mutations; the store offers no multi-key atomicity.
type Ledger struct {
	store domain.LedgerStore
	clock Clock
}

// NewLedger creates a Ledger over store.
func NewLedger(store domain.LedgerStore, clock Clock) *Ledger {
	return &Ledger{store: store, clock: clock}
}

// Clock returns the trading-day clock used for lot dates.
func (l *Ledger) Clock() Clock { return l.clock }

// Sale describes the lot consumed by RecordSale.
type Sale struct {
	Ticker      string
	CompanyName string
	Lot         domain.Lot
	SalePrice   decimal.Decimal
	NetCash     decimal.Decimal
	DaysHeld    int
	Remaining   int
}

// NormalizeTicker trims and upper-cases a symbol.
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// RecordPurchase appends a lot bought today at price. The company name is
// only stored when the position is opened.
func (l *Ledger) RecordPurchase(ctx context.Context, ticker string, price decimal.Decimal, companyName string) (domain.Position, error) {
	ticker = NormalizeTicker(ticker)

	pos, err := l.store.GetPosition(ctx, ticker)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		pos = domain.Position{CompanyName: companyName}
	case err != nil:
		return domain.Position{}, fmt.Errorf("portfolio: record purchase %s: %w", ticker, err)
	}
	pos.Ticker = ticker
	pos.Lots = append(pos.Lots, domain.Lot{Price: price, Date: l.clock.Today()})

	if err := l.store.PutPosition(ctx, pos); err != nil {
		return domain.Position{}, fmt.Errorf("portfolio: record purchase %s: %w", ticker, err)
	}
	return pos, nil
}

// RecordSale removes the oldest lot of ticker. It returns domain.ErrNotFound
// when the ticker is not held. The position is deleted with its last lot.
func (l *Ledger) RecordSale(ctx context.Context, ticker string, salePrice decimal.Decimal) (Sale, error) {
	ticker = NormalizeTicker(ticker)

	pos, err := l.store.GetPosition(ctx, ticker)
	if err != nil {
		return Sale{}, fmt.Errorf("portfolio: record sale %s: %w", ticker, err)
	}
	if len(pos.Lots) == 0 {
		// An empty record is residue, not a holding.
		if err := l.store.DeletePosition(ctx, ticker); err != nil {
			return Sale{}, fmt.Errorf("portfolio: record sale %s: %w", ticker, err)
		}
		return Sale{}, fmt.Errorf("portfolio: record sale %s: %w", ticker, domain.ErrNotFound)
	}

	oldest := pos.Lots[0]
	rest := slices.Clone(pos.Lots[1:])

	if len(rest) == 0 {
		err = l.store.DeletePosition(ctx, ticker)
	} else {
		pos.Ticker = ticker
		pos.Lots = rest
		err = l.store.PutPosition(ctx, pos)
	}
	if err != nil {
		return Sale{}, fmt.Errorf("portfolio: record sale %s: %w", ticker, err)
	}

	return Sale{
		Ticker:      ticker,
		CompanyName: pos.CompanyName,
		Lot:         oldest,
		SalePrice:   salePrice,
		NetCash:     salePrice.Sub(oldest.Price),
		DaysHeld:    oldest.Date.DaysUntil(l.clock.Today()),
		Remaining:   len(rest),
	}, nil
}

// UpdateCashFlow adds delta to the running cash flow and returns the new
// total. Purchases pass a negative delta.
func (l *Ledger) UpdateCashFlow(ctx context.Context, delta decimal.Decimal) (decimal.Decimal, error) {
	current, err := l.CashFlow(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	next := current.Add(delta)
	if err := l.store.SetScalar(ctx, domain.ScalarCashFlow, next.String()); err != nil {
		return decimal.Zero, fmt.Errorf("portfolio: update cash flow: %w", err)
	}
	return next, nil
}

// CashFlow returns the running cash flow; zero when never set.
func (l *Ledger) CashFlow(ctx context.Context) (decimal.Decimal, error) {
	raw, err := l.store.GetScalar(ctx, domain.ScalarCashFlow)
	if errors.Is(err, domain.ErrNotFound) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("portfolio: get cash flow: %w", err)
	}
	v, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("portfolio: parse cash flow %q: %w", raw, err)
	}
	return v, nil
}

// LastTradeDate returns the day of the last completed trade, or the zero
// Date when there was none.
func (l *Ledger) LastTradeDate(ctx context.Context) (domain.Date, error) {
	raw, err := l.store.GetScalar(ctx, domain.ScalarLastTrade)
	if errors.Is(err, domain.ErrNotFound) || (err == nil && raw == "") {
		return domain.Date{}, nil
	}
	if err != nil {
		return domain.Date{}, fmt.Errorf("portfolio: get last trade: %w", err)
	}
	d, err := domain.ParseDate(strings.TrimSpace(raw))
	if err != nil {
		return domain.Date{}, fmt.Errorf("portfolio: get last trade: %w", err)
	}
	return d, nil
}

// MarkTraded records day as the last trade date.
func (l *Ledger) MarkTraded(ctx context.Context, day domain.Date) error {
	if err := l.store.SetScalar(ctx, domain.ScalarLastTrade, day.String()); err != nil {
		return fmt.Errorf("portfolio: mark traded: %w", err)
	}
	return nil
}

// Tickers returns every held ticker, sorted.
func (l *Ledger) Tickers(ctx context.Context) ([]string, error) {
	tickers, err := l.store.ListTickers(ctx)
	if err != nil {
		return nil, fmt.Errorf("portfolio: list tickers: %w", err)
	}
	slices.Sort(tickers)
	return tickers, nil
}

// HasPositions reports whether anything is held.
func (l *Ledger) HasPositions(ctx context.Context) (bool, error) {
	tickers, err := l.Tickers(ctx)
	if err != nil {
		return false, err
	}
	return len(tickers) > 0, nil
}

// Position returns the position for ticker or domain.ErrNotFound.
func (l *Ledger) Position(ctx context.Context, ticker string) (domain.Position, error) {
	ticker = NormalizeTicker(ticker)
	pos, err := l.store.GetPosition(ctx, ticker)
	if err != nil {
		return domain.Position{}, fmt.Errorf("portfolio: get position %s: %w", ticker, err)
	}
	pos.Ticker = ticker
	return pos, nil
}

// Positions returns every held position ordered by ticker.
func (l *Ledger) Positions(ctx context.Context) ([]domain.Position, error) {
	tickers, err := l.Tickers(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Position, 0, len(tickers))
	for _, t := range tickers {
		pos, err := l.store.GetPosition(ctx, t)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("portfolio: get position %s: %w", t, err)
		}
		if len(pos.Lots) == 0 {
			continue
		}
		pos.Ticker = t
		out = append(out, pos)
	}
	return out, nil
}

// ValuedPosition is a position priced at the current market.
type ValuedPosition struct {
	domain.Position
	UnitPrice decimal.Decimal
	Value     decimal.Decimal
}

// Valuation is the ledger priced at the current market.
type Valuation struct {
	Positions  []ValuedPosition
	TotalValue decimal.Decimal
	CashFlow   decimal.Decimal
	NetWorth   decimal.Decimal
}

// Value prices every position with lookup. Lookup failures propagate.
func (l *Ledger) Value(ctx context.Context, lookup PriceLookup) (Valuation, error) {
	positions, err := l.Positions(ctx)
	if err != nil {
		return Valuation{}, err
	}
	cash, err := l.CashFlow(ctx)
	if err != nil {
		return Valuation{}, err
	}

	v := Valuation{Positions: make([]ValuedPosition, 0, len(positions)), CashFlow: cash}
	for _, pos := range positions {
		price, err := lookup(ctx, pos.Ticker)
		if err != nil {
			return Valuation{}, fmt.Errorf("portfolio: price %s: %w", pos.Ticker, err)
		}
		value := price.Mul(decimal.NewFromInt(int64(pos.Quantity())))
		v.Positions = append(v.Positions, ValuedPosition{Position: pos, UnitPrice: price, Value: value})
		v.TotalValue = v.TotalValue.Add(value)
	}
	v.NetWorth = v.TotalValue.Add(cash)
	return v, nil
}

// TotalValue sums price times quantity over every position.
func (l *Ledger) TotalValue(ctx context.Context, lookup PriceLookup) (decimal.Decimal, error) {
	v, err := l.Value(ctx, lookup)
	if err != nil {
		return decimal.Zero, err
	}
	return v.TotalValue, nil
}

// NetWorth is TotalValue plus the cash flow.
func (l *Ledger) NetWorth(ctx context.Context, lookup PriceLookup) (decimal.Decimal, error) {
	v, err := l.Value(ctx, lookup)
	if err != nil {
		return decimal.Zero, err
	}
	return v.NetWorth, nil
}

// Reset drops every position, zeroes the cash flow and sets the last trade
// date to today.
func (l *Ledger) Reset(ctx context.Context) error {
	tickers, err := l.Tickers(ctx)
	if err != nil {
		return err
	}
	for _, t := range tickers {
		if err := l.store.DeletePosition(ctx, t); err != nil {
			return fmt.Errorf("portfolio: reset %s: %w", t, err)
		}
	}
	if err := l.store.SetScalar(ctx, domain.ScalarCashFlow, decimal.Zero.String()); err != nil {
		return fmt.Errorf("portfolio: reset cash flow: %w", err)
	}
	return l.MarkTraded(ctx, l.clock.Today())
}
