package market

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/dailytrader/internal/domain"
	"github.com/alanyoungcy/dailytrader/internal/portfolio"
)

// CachedLookup decorates a Lookup with a price cache. Full quotes always go
// to the provider and refresh the cache; Price serves cached prices younger
// than ttl, which keeps whole-ledger valuations to one fetch per ticker.
type CachedLookup struct {
	next   Lookup
	cache  domain.PriceCache
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// NewCachedLookup wraps next. A zero ttl disables cached reads.
func NewCachedLookup(next Lookup, cache domain.PriceCache, ttl time.Duration, logger *slog.Logger) *CachedLookup {
	return &CachedLookup{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		now:    time.Now,
		logger: logger.With(slog.String("component", "price_cache")),
	}
}

// Quote fetches from the provider and stores the price.
func (c *CachedLookup) Quote(ctx context.Context, ticker string) (Quote, error) {
	q, err := c.next.Quote(ctx, ticker)
	if err != nil {
		return q, err
	}
	if err := c.cache.SetPrice(ctx, q.Ticker, q.Price, c.now()); err != nil {
		c.logger.WarnContext(ctx, "cache price failed",
			slog.String("ticker", q.Ticker),
			slog.String("error", err.Error()),
		)
	}
	return q, nil
}

// Price returns the current unit price of ticker, served from the cache
// while younger than ttl.
func (c *CachedLookup) Price(ctx context.Context, ticker string) (decimal.Decimal, error) {
	ticker = portfolio.NormalizeTicker(ticker)
	if c.ttl > 0 {
		price, ts, err := c.cache.GetPrice(ctx, ticker)
		switch {
		case err == nil && c.now().Sub(ts) < c.ttl:
			return price, nil
		case err != nil && !errors.Is(err, domain.ErrNotFound):
			c.logger.WarnContext(ctx, "read cached price failed",
				slog.String("ticker", ticker),
				slog.String("error", err.Error()),
			)
		}
	}
	return c.FreshPrice(ctx, ticker)
}

// FreshPrice asks the provider for the price of ticker, bypassing cached
// reads, and stores the answer. Only the price is required; a record
// without a company name still prices a holding.
func (c *CachedLookup) FreshPrice(ctx context.Context, ticker string) (decimal.Decimal, error) {
	ticker = portfolio.NormalizeTicker(ticker)

	var price decimal.Decimal
	if src, ok := c.next.(PriceSource); ok {
		p, err := src.Price(ctx, ticker)
		if err != nil {
			return decimal.Zero, err
		}
		price = p
	} else {
		q, err := c.next.Quote(ctx, ticker)
		if err != nil && !(errors.Is(err, ErrNoCompanyName) && q.Price.IsPositive()) {
			return decimal.Zero, err
		}
		price = q.Price
	}

	if err := c.cache.SetPrice(ctx, ticker, price, c.now()); err != nil {
		c.logger.WarnContext(ctx, "cache price failed",
			slog.String("ticker", ticker),
			slog.String("error", err.Error()),
		)
	}
	return price, nil
}

var _ Lookup = (*CachedLookup)(nil)
