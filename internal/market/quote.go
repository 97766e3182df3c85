// Package market looks up live quotes for the trade simulator and renders
// company details for chat output.
package market

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrNoPrice       = errors.New("market: no usable price")
	ErrNoCompanyName = errors.New("market: no company name")
)

// Metric names, as used in Quote.Details.
const (
	MetricPrice         = "currentPrice"
	MetricShortName     = "shortName"
	MetricSector        = "sector"
	MetricSummary       = "longBusinessSummary"
	MetricVolume        = "volume"
	MetricTrailingPE    = "trailingPE"
	MetricMarketCap     = "marketCap"
	MetricYearHigh      = "fiftyTwoWeekHigh"
	MetricYearLow       = "fiftyTwoWeekLow"
	MetricAverageVolume = "averageVolume"
	MetricDividendYield = "dividendYield"
	MetricBeta          = "beta"
	MetricTrailingEPS   = "trailingEps"
)

// Quote is one market-data lookup. Details holds every metric the provider
// returned; each is optional.
type Quote struct {
	Ticker      string
	CompanyName string
	Price       decimal.Decimal
	Details     map[string]any
}

// Lookup fetches quotes. Implementations return ErrNoPrice or
// ErrNoCompanyName when the provider answered without those fields, and
// domain.ErrNotFound for unknown tickers.
type Lookup interface {
	Quote(ctx context.Context, ticker string) (Quote, error)
}

// PriceSource fetches only the current unit price. A record without a
// company name is still a valid price.
type PriceSource interface {
	Price(ctx context.Context, ticker string) (decimal.Decimal, error)
}

// quoteFromDetails validates the mandatory fields.
func quoteFromDetails(ticker string, details map[string]any) (Quote, error) {
	q := Quote{Ticker: ticker, Details: details}

	price, err := priceFromDetails(details)
	if err != nil {
		return q, err
	}
	q.Price = price

	name, _ := details[MetricShortName].(string)
	name = strings.TrimSpace(name)
	if name == "" {
		return q, ErrNoCompanyName
	}
	q.CompanyName = name
	return q, nil
}

func priceFromDetails(details map[string]any) (decimal.Decimal, error) {
	price, ok := toDecimal(details[MetricPrice])
	if !ok || !price.IsPositive() {
		return decimal.Zero, ErrNoPrice
	}
	return price, nil
}

// toDecimal accepts the numeric shapes a JSON decoder produces.
func toDecimal(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat(n), true
	case int:
		return decimal.NewFromInt(int64(n)), true
	case int64:
		return decimal.NewFromInt(n), true
	case decimal.Decimal:
		return n, true
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(n))
		return d, err == nil
	default:
		return decimal.Zero, false
	}
}
