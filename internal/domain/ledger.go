package domain

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Scalar ledger entries.
const (
	ScalarCashFlow  = "cashflow"
	ScalarLastTrade = "lastTrade"
)

// Lot is one purchased share.
type Lot struct {
	Price decimal.Decimal
	Date  Date
}

// Position holds every open lot of one ticker, oldest first. A stored
// Position always has at least one lot.
type Position struct {
	Ticker      string
	CompanyName string
	Lots        []Lot
}

// Quantity is the number of shares held.
func (p Position) Quantity() int { return len(p.Lots) }

// positionRecord is the persisted layout of a Position. The ticker lives in
// the key, not the value.
type positionRecord struct {
	Company  string            `json:"Company"`
	Quantity int               `json:"Quantity"`
	Prices   []json.RawMessage `json:"Prices"`
	Dates    []Date            `json:"Dates"`
}

// MarshalJSON encodes p as {"Company","Quantity","Prices","Dates"} with
// prices as plain JSON numbers.
func (p Position) MarshalJSON() ([]byte, error) {
	rec := positionRecord{
		Company:  p.CompanyName,
		Quantity: len(p.Lots),
		Prices:   make([]json.RawMessage, len(p.Lots)),
		Dates:    make([]Date, len(p.Lots)),
	}
	for i, lot := range p.Lots {
		rec.Prices[i] = json.RawMessage(lot.Price.String())
		rec.Dates[i] = lot.Date
	}
	return json.Marshal(rec)
}

// UnmarshalJSON decodes the persisted layout. Prices may be JSON numbers or
// strings. A record whose quantity disagrees with its lot lists is rejected
// with ErrCorruptPosition.
func (p *Position) UnmarshalJSON(b []byte) error {
	var rec positionRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptPosition, err)
	}
	if rec.Quantity != len(rec.Prices) || rec.Quantity != len(rec.Dates) {
		return fmt.Errorf("%w: quantity %d, %d prices, %d dates",
			ErrCorruptPosition, rec.Quantity, len(rec.Prices), len(rec.Dates))
	}
	lots := make([]Lot, rec.Quantity)
	for i := range lots {
		var price decimal.Decimal
		if err := price.UnmarshalJSON(rec.Prices[i]); err != nil {
			return fmt.Errorf("%w: price %d: %v", ErrCorruptPosition, i, err)
		}
		lots[i] = Lot{Price: price, Date: rec.Dates[i]}
	}
	p.CompanyName = rec.Company
	p.Lots = lots
	return nil
}

// LedgerStore is the key-value medium behind the portfolio ledger. It holds
// one entry per held ticker plus named scalar entries.
type LedgerStore interface {
	// GetPosition returns ErrNotFound when the ticker is not held.
	GetPosition(ctx context.Context, ticker string) (Position, error)
	PutPosition(ctx context.Context, pos Position) error
	// DeletePosition is a no-op for tickers that are not held.
	DeletePosition(ctx context.Context, ticker string) error
	// ListTickers returns every held ticker in ascending order.
	ListTickers(ctx context.Context) ([]string, error)
	// GetScalar returns ErrNotFound when the scalar was never set.
	GetScalar(ctx context.Context, name string) (string, error)
	SetScalar(ctx context.Context, name, value string) error
}
