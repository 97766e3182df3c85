package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/dailytrader/internal/domain"
)

func TestLedgerStore(t *testing.T) {
	ctx := context.Background()
	s := NewLedgerStore()

	if _, err := s.GetPosition(ctx, "AAPL"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("missing position err = %v", err)
	}
	if _, err := s.GetScalar(ctx, domain.ScalarCashFlow); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("missing scalar err = %v", err)
	}

	pos := domain.Position{
		Ticker:      "MSFT",
		CompanyName: "Microsoft",
		Lots:        []domain.Lot{{Price: decimal.NewFromInt(300), Date: domain.NewDate(2024, 1, 2)}},
	}
	for _, p := range []domain.Position{pos, {Ticker: "AAPL", CompanyName: "Apple", Lots: pos.Lots}} {
		if err := s.PutPosition(ctx, p); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.GetPosition(ctx, "MSFT")
	if err != nil {
		t.Fatal(err)
	}
	if got.Ticker != "MSFT" || got.CompanyName != "Microsoft" || got.Quantity() != 1 {
		t.Errorf("got %+v", got)
	}

	// Mutating the returned value must not leak into the store.
	got.Lots[0].Price = decimal.NewFromInt(1)
	again, _ := s.GetPosition(ctx, "MSFT")
	if !again.Lots[0].Price.Equal(decimal.NewFromInt(300)) {
		t.Error("store shares lot slice with callers")
	}

	tickers, _ := s.ListTickers(ctx)
	if len(tickers) != 2 || tickers[0] != "AAPL" || tickers[1] != "MSFT" {
		t.Errorf("tickers = %v", tickers)
	}

	if err := s.DeletePosition(ctx, "MSFT"); err != nil {
		t.Fatal(err)
	}
	if err := s.DeletePosition(ctx, "NOPE"); err != nil {
		t.Errorf("deleting missing ticker: %v", err)
	}
	if _, err := s.GetPosition(ctx, "MSFT"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("deleted position err = %v", err)
	}
}

func TestLockManager(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	lm := NewLockManager()
	lm.now = func() time.Time { return now }

	unlock, err := lm.Acquire(ctx, "daily-trade", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := lm.Acquire(ctx, "daily-trade", time.Minute); !errors.Is(err, domain.ErrLockHeld) {
		t.Fatalf("second acquire err = %v", err)
	}
	unlock()
	unlock()

	stale, err := lm.Acquire(ctx, "daily-trade", time.Minute)
	if err != nil {
		t.Fatalf("acquire after unlock: %v", err)
	}

	// An expired lease can be taken over, and the stale unlock must not
	// release the new holder.
	now = now.Add(2 * time.Minute)
	if _, err := lm.Acquire(ctx, "daily-trade", time.Minute); err != nil {
		t.Fatalf("acquire after expiry: %v", err)
	}
	stale()
	if _, err := lm.Acquire(ctx, "daily-trade", time.Minute); !errors.Is(err, domain.ErrLockHeld) {
		t.Errorf("stale unlock released the current holder: %v", err)
	}
}

func TestSignalBus(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	bus := NewSignalBus()

	ch, err := bus.Subscribe(ctx, domain.ChannelTrades)
	if err != nil {
		t.Fatal(err)
	}
	if err := bus.Publish(ctx, domain.ChannelTrades, []byte("hello")); err != nil {
		t.Fatal(err)
	}
	if err := bus.Publish(ctx, "other", []byte("ignored")); err != nil {
		t.Fatal(err)
	}

	select {
	case msg := <-ch:
		if string(msg) != "hello" {
			t.Errorf("msg = %q", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("no message")
	}

	cancel()
	select {
	case _, ok := <-ch:
		if ok {
			t.Error("unexpected extra message")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

func TestTradeJournalRecentNewestFirst(t *testing.T) {
	ctx := context.Background()
	j := NewTradeJournal(3)
	for _, id := range []string{"a", "b", "c", "d"} {
		if err := j.Record(ctx, domain.TradeRecord{ID: id}); err != nil {
			t.Fatal(err)
		}
	}
	recs, _ := j.Recent(ctx, 10)
	var ids string
	for _, r := range recs {
		ids += r.ID
	}
	if ids != "dcb" {
		t.Errorf("ids = %q, want dcb", ids)
	}
	recs, _ = j.Recent(ctx, 1)
	if len(recs) != 1 || recs[0].ID != "d" {
		t.Errorf("limit 1 = %+v", recs)
	}
}

func TestRateLimiter(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter()
	rl.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		if ok, _ := rl.Allow(ctx, "ip", 2, time.Minute); !ok {
			t.Fatalf("request %d denied", i)
		}
	}
	if ok, _ := rl.Allow(ctx, "ip", 2, time.Minute); ok {
		t.Fatal("third request allowed")
	}
	if ok, _ := rl.Allow(ctx, "other", 2, time.Minute); !ok {
		t.Fatal("keys are not independent")
	}
	now = now.Add(61 * time.Second)
	if ok, _ := rl.Allow(ctx, "ip", 2, time.Minute); !ok {
		t.Fatal("window did not slide")
	}
}
