package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/alanyoungcy/dailytrader/internal/market"
	"github.com/alanyoungcy/dailytrader/internal/portfolio"
)

// ErrInvalidTicker is returned when a ticker cannot be quoted. Presenters
// show it as InvalidTickerMessage.
var ErrInvalidTicker = errors.New("invalid stock ticker")

const InvalidTickerMessage = "Invalid stock ticker"

// MarketService answers stock and price questions.
type MarketService struct {
	quotes market.Lookup
}

// NewMarketService creates a MarketService.
func NewMarketService(quotes market.Lookup) *MarketService {
	return &MarketService{quotes: quotes}
}

// StockInfo renders the ticker, its current price and the company info.
func (s *MarketService) StockInfo(ctx context.Context, ticker string) (string, error) {
	q, err := s.quote(ctx, ticker)
	if err != nil {
		return "", err
	}
	return "Ticker: " + q.Ticker + "\n" +
		"Current Price: " + portfolio.FormatNumber(q.Price, true, false) + "\n" +
		market.FormatDetails(q.Details), nil
}

// PriceMessage renders the current price of ticker.
func (s *MarketService) PriceMessage(ctx context.Context, ticker string) (string, error) {
	q, err := s.quote(ctx, ticker)
	if err != nil {
		return "", err
	}
	return "The current price of " + q.Ticker + " is " + portfolio.FormatNumber(q.Price, true, false) + "\n", nil
}

func (s *MarketService) quote(ctx context.Context, ticker string) (market.Quote, error) {
	ticker = portfolio.NormalizeTicker(ticker)
	q, err := s.quotes.Quote(ctx, ticker)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return q, ctxErr
		}
		return q, fmt.Errorf("%w: %s: %v", ErrInvalidTicker, ticker, err)
	}
	return q, nil
}
