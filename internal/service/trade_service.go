// Package service implements the trading bot's operations on top of the
// portfolio ledger and the market data client.
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/dailytrader/internal/domain"
	"github.com/alanyoungcy/dailytrader/internal/market"
	"github.com/alanyoungcy/dailytrader/internal/portfolio"
)

const (
	// LockDailyTrade guards the daily trade across bot processes.
	LockDailyTrade = "daily-trade"

	// EventDailyTrade and EventError are the notification event types.
	EventDailyTrade = "daily_trade"
	EventError      = "error"

	announcementHeader = "Hello fellow traders!\n\nAfter looking through infinitely many possible futures, for my daily trade today I have decided to "
)

// Reasons reported when TryDailyTrade declines to trade.
const (
	ReasonAlreadyTraded = "already traded today"
	ReasonOutsideWindow = "outside trading window"
	ReasonLocked        = "another daily trade is in progress"
)

// Quoter serves full quotes and plain prices. Price may answer from a
// cache; FreshPrice always asks the provider.
type Quoter interface {
	market.Lookup
	Price(ctx context.Context, ticker string) (decimal.Decimal, error)
	FreshPrice(ctx context.Context, ticker string) (decimal.Decimal, error)
}

// Rand picks a uniform integer in [0, n). *rand.Rand from math/rand/v2
// satisfies it.
type Rand interface {
	IntN(n int) int
}

// Notifier delivers chat announcements.
type Notifier interface {
	Notify(ctx context.Context, event, title, message string) error
}

// TradeConfig holds the trade simulator's tunables.
type TradeConfig struct {
	MaxBuyAttempts  int
	LockTTL         time.Duration
	WindowStartHour int
	WindowEndHour   int
	SnapshotPrefix  string
}

// TradeResult is one completed simulated trade.
type TradeResult struct {
	ID          string
	Action      domain.TradeAction
	Ticker      string
	CompanyName string
	Price       decimal.Decimal
	NetCash     decimal.Decimal
	DaysHeld    int
	CashFlow    decimal.Decimal
	TradingDay  domain.Date
	Message     string
	ExecutedAt  time.Time
}

// Record converts r to its journal form.
func (r TradeResult) Record() domain.TradeRecord {
	return domain.TradeRecord{
		ID:          r.ID,
		Action:      r.Action,
		Ticker:      r.Ticker,
		CompanyName: r.CompanyName,
		Price:       r.Price,
		NetCash:     r.NetCash,
		DaysHeld:    r.DaysHeld,
		CashFlow:    r.CashFlow,
		TradingDay:  r.TradingDay,
		ExecutedAt:  r.ExecutedAt,
	}
}

// DailyOutcome reports what TryDailyTrade did. Reason is set when Traded is
// false; Message is the full announcement when it is true.
type DailyOutcome struct {
	Traded  bool
	Reason  string
	Message string
	Trade   *TradeResult
}

// TradeService runs the simulated buy, sell and daily trade.
type TradeService struct {
	ledger   *portfolio.Ledger
	quotes   Quoter
	universe *market.Universe
	rng      Rand
	cfg      TradeConfig
	logger   *slog.Logger

	journal  domain.TradeJournal
	bus      domain.SignalBus
	locks    domain.LockManager
	blobs    domain.BlobWriter
	notifier Notifier
}

// TradeOption wires an optional collaborator.
type TradeOption func(*TradeService)

func WithJournal(j domain.TradeJournal) TradeOption { return func(s *TradeService) { s.journal = j } }
func WithSignalBus(b domain.SignalBus) TradeOption   { return func(s *TradeService) { s.bus = b } }
func WithLocks(l domain.LockManager) TradeOption     { return func(s *TradeService) { s.locks = l } }
func WithSnapshots(w domain.BlobWriter) TradeOption  { return func(s *TradeService) { s.blobs = w } }
func WithNotifier(n Notifier) TradeOption            { return func(s *TradeService) { s.notifier = n } }

// NewTradeService creates a TradeService with all required dependencies.
func NewTradeService(
	ledger *portfolio.Ledger,
	quotes Quoter,
	universe *market.Universe,
	rng Rand,
	cfg TradeConfig,
	logger *slog.Logger,
	opts ...TradeOption,
) *TradeService {
	if cfg.MaxBuyAttempts <= 0 {
		cfg.MaxBuyAttempts = 50
	}
	s := &TradeService{
		ledger:   ledger,
		quotes:   quotes,
		universe: universe,
		rng:      rng,
		cfg:      cfg,
		logger:   logger.With(slog.String("component", "trade_service")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Buy purchases one share of a random ticker and records it.
func (s *TradeService) Buy(ctx context.Context) (TradeResult, error) {
	res, err := s.buy(ctx)
	if err != nil {
		return res, err
	}
	s.record(ctx, res)
	return res, nil
}

// Sell sells the oldest share of a random held ticker and records it.
// It returns domain.ErrNoHoldings when nothing is held.
func (s *TradeService) Sell(ctx context.Context) (TradeResult, error) {
	res, err := s.sell(ctx)
	if err != nil {
		return res, err
	}
	s.record(ctx, res)
	return res, nil
}

// DailyTrade buys when nothing is held, otherwise buys with probability
// 1/3 and sells with probability 2/3.
func (s *TradeService) DailyTrade(ctx context.Context) (TradeResult, error) {
	held, err := s.ledger.HasPositions(ctx)
	if err != nil {
		return TradeResult{}, fmt.Errorf("trade_service: daily trade: %w", err)
	}
	if !held || s.rng.IntN(3) == 0 {
		return s.Buy(ctx)
	}
	return s.Sell(ctx)
}

// TryDailyTrade performs the daily trade unless one already happened today
// or the local hour is outside the trading window. force skips both checks.
func (s *TradeService) TryDailyTrade(ctx context.Context, force bool) (DailyOutcome, error) {
	clock := s.ledger.Clock()
	if !force {
		if h := clock.Hour(); h < s.cfg.WindowStartHour || h >= s.cfg.WindowEndHour {
			return DailyOutcome{Reason: ReasonOutsideWindow}, nil
		}
	}

	if s.locks != nil {
		unlock, err := s.locks.Acquire(ctx, LockDailyTrade, s.cfg.LockTTL)
		if errors.Is(err, domain.ErrLockHeld) {
			return DailyOutcome{Reason: ReasonLocked}, nil
		}
		if err != nil {
			return DailyOutcome{}, fmt.Errorf("trade_service: acquire lock: %w", err)
		}
		defer unlock()
	}

	today := clock.Today()
	if !force {
		last, err := s.ledger.LastTradeDate(ctx)
		if err != nil {
			return DailyOutcome{}, fmt.Errorf("trade_service: try daily trade: %w", err)
		}
		if last.Equal(today) {
			return DailyOutcome{Reason: ReasonAlreadyTraded}, nil
		}
	}

	res, err := s.DailyTrade(ctx)
	if err != nil {
		return DailyOutcome{}, err
	}
	if err := s.ledger.MarkTraded(ctx, today); err != nil {
		return DailyOutcome{}, fmt.Errorf("trade_service: try daily trade: %w", err)
	}

	msg := s.announce(ctx, res)
	s.snapshot(ctx, today)
	if s.notifier != nil {
		if err := s.notifier.Notify(ctx, EventDailyTrade, "Daily Trade", msg); err != nil {
			s.logger.WarnContext(ctx, "notify daily trade failed", slog.String("error", err.Error()))
		}
	}

	s.logger.InfoContext(ctx, "daily trade done",
		slog.String("action", string(res.Action)),
		slog.String("ticker", res.Ticker),
		slog.String("price", res.Price.String()),
		slog.Bool("forced", force),
	)
	return DailyOutcome{Traded: true, Message: msg, Trade: &res}, nil
}

func (s *TradeService) buy(ctx context.Context) (TradeResult, error) {
	if s.universe == nil || s.universe.Len() == 0 {
		return TradeResult{}, fmt.Errorf("trade_service: buy: %w", domain.ErrNoValidTicker)
	}

	var q market.Quote
	found := false
	for attempt := 0; attempt < s.cfg.MaxBuyAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return TradeResult{}, fmt.Errorf("trade_service: buy: %w", err)
		}
		ticker := s.universe.At(s.rng.IntN(s.universe.Len()))
		quote, err := s.quotes.Quote(ctx, ticker)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return TradeResult{}, fmt.Errorf("trade_service: buy: %w", ctxErr)
			}
			s.logger.DebugContext(ctx, "skipping ticker",
				slog.String("ticker", ticker),
				slog.String("error", err.Error()),
			)
			continue
		}
		q, found = quote, true
		break
	}
	if !found {
		return TradeResult{}, fmt.Errorf("trade_service: buy after %d attempts: %w",
			s.cfg.MaxBuyAttempts, domain.ErrNoValidTicker)
	}

	pos, err := s.ledger.RecordPurchase(ctx, q.Ticker, q.Price, q.CompanyName)
	if err != nil {
		return TradeResult{}, fmt.Errorf("trade_service: buy: %w", err)
	}
	cash, err := s.ledger.UpdateCashFlow(ctx, q.Price.Neg())
	if err != nil {
		return TradeResult{}, fmt.Errorf("trade_service: buy: %w", err)
	}

	msg := "buy one stock of " + q.CompanyName + " (" + q.Ticker + ") for " +
		portfolio.FormatNumber(q.Price, true, false) + "\n\n" +
		"Company Info:\n" + market.FormatDetails(q.Details)

	return TradeResult{
		ID:          uuid.NewString(),
		Action:      domain.ActionBuy,
		Ticker:      pos.Ticker,
		CompanyName: q.CompanyName,
		Price:       q.Price,
		CashFlow:    cash,
		TradingDay:  pos.Lots[len(pos.Lots)-1].Date,
		Message:     msg,
		ExecutedAt:  s.ledger.Clock().Time().UTC(),
	}, nil
}

func (s *TradeService) sell(ctx context.Context) (TradeResult, error) {
	tickers, err := s.ledger.Tickers(ctx)
	if err != nil {
		return TradeResult{}, fmt.Errorf("trade_service: sell: %w", err)
	}
	if len(tickers) == 0 {
		return TradeResult{}, fmt.Errorf("trade_service: sell: %w", domain.ErrNoHoldings)
	}
	ticker := tickers[s.rng.IntN(len(tickers))]

	price, err := s.quotes.FreshPrice(ctx, ticker)
	if err != nil {
		return TradeResult{}, fmt.Errorf("trade_service: sell %s: %w", ticker, err)
	}
	sale, err := s.ledger.RecordSale(ctx, ticker, price)
	if err != nil {
		return TradeResult{}, fmt.Errorf("trade_service: sell: %w", err)
	}
	cash, err := s.ledger.UpdateCashFlow(ctx, price)
	if err != nil {
		return TradeResult{}, fmt.Errorf("trade_service: sell: %w", err)
	}

	msg := "sell one stock of " + sale.CompanyName + " for " +
		portfolio.FormatNumber(price, true, false) + "\n\n" +
		fmt.Sprintf("I held the stock for %d days and net ", sale.DaysHeld) +
		portfolio.FormatNumber(sale.NetCash, true, true) + "\n"

	return TradeResult{
		ID:          uuid.NewString(),
		Action:      domain.ActionSell,
		Ticker:      sale.Ticker,
		CompanyName: sale.CompanyName,
		Price:       price,
		NetCash:     sale.NetCash,
		DaysHeld:    sale.DaysHeld,
		CashFlow:    cash,
		TradingDay:  s.ledger.Clock().Today(),
		Message:     msg,
		ExecutedAt:  s.ledger.Clock().Time().UTC(),
	}, nil
}

// record journals and publishes a completed trade. Failures are logged.
func (s *TradeService) record(ctx context.Context, res TradeResult) {
	rec := res.Record()
	if s.journal != nil {
		if err := s.journal.Record(ctx, rec); err != nil {
			s.logger.WarnContext(ctx, "journal trade failed",
				slog.String("trade_id", res.ID),
				slog.String("error", err.Error()),
			)
		}
	}
	if s.bus != nil {
		payload, err := json.Marshal(rec)
		if err == nil {
			err = s.bus.Publish(ctx, domain.ChannelTrades, payload)
		}
		if err != nil {
			s.logger.WarnContext(ctx, "publish trade failed",
				slog.String("trade_id", res.ID),
				slog.String("error", err.Error()),
			)
		}
	}
}

// announce composes the daily trade post. A failed valuation drops the
// value lines rather than the post.
func (s *TradeService) announce(ctx context.Context, res TradeResult) string {
	msg := announcementHeader + res.Message

	cashLine, err := s.ledger.CashFlowLine(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "render cash flow failed", slog.String("error", err.Error()))
	} else {
		msg += "\n" + cashLine
	}

	valueLines, err := s.ledger.ValueLines(ctx, s.quotes.Price)
	if err != nil {
		s.logger.WarnContext(ctx, "render portfolio value failed", slog.String("error", err.Error()))
	} else {
		msg += "\n" + valueLines
	}
	return msg
}

// snapshot uploads the ledger as <prefix>/<day>.json.
func (s *TradeService) snapshot(ctx context.Context, day domain.Date) {
	if s.blobs == nil {
		return
	}
	key := SnapshotKey(s.cfg.SnapshotPrefix, day)
	err := func() error {
		snap, err := s.ledger.Snapshot(ctx)
		if err != nil {
			return err
		}
		data, err := json.Marshal(snap)
		if err != nil {
			return err
		}
		return s.blobs.Put(ctx, key, bytes.NewReader(data), "application/json")
	}()
	if err != nil {
		s.logger.WarnContext(ctx, "upload snapshot failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
}

// SnapshotKey is the object key of the snapshot taken on day.
func SnapshotKey(prefix string, day domain.Date) string {
	return path.Join(prefix, day.String()+".json")
}
