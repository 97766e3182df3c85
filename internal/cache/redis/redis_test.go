package redis

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/alanyoungcy/dailytrader/internal/domain"
)

// newTestClient starts a throwaway Redis and returns a client on it.
func newTestClient(t *testing.T, prefix string) *Client {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	container, err := testcontainers.Run(ctx, "redis:7-alpine",
		testcontainers.WithExposedPorts("6379/tcp"),
		testcontainers.WithWaitStrategy(
			wait.ForListeningPort("6379/tcp").WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start redis: %v", err)
	}
	t.Cleanup(func() {
		cleanupCtx, cleanupCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cleanupCancel()
		_ = container.Terminate(cleanupCtx)
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("failed to get host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("failed to get mapped port: %v", err)
	}

	c, err := New(ctx, ClientConfig{
		Addr:      fmt.Sprintf("%s:%s", host, port.Port()),
		PoolSize:  4,
		KeyPrefix: prefix,
	})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestRedisBackends(t *testing.T) {
	c := newTestClient(t, "test:")
	ctx := context.Background()

	t.Run("ledger store", func(t *testing.T) {
		s := NewLedgerStore(c)

		if _, err := s.GetPosition(ctx, "AAPL"); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("missing position err = %v", err)
		}
		if _, err := s.GetScalar(ctx, domain.ScalarLastTrade); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("missing scalar err = %v", err)
		}

		for _, ticker := range []string{"MSFT", "AAPL", "BRK.B"} {
			pos := domain.Position{
				Ticker:      ticker,
				CompanyName: ticker + " Corp",
				Lots:        []domain.Lot{{Price: decimal.RequireFromString("12.34"), Date: domain.NewDate(2024, 2, 1)}},
			}
			if err := s.PutPosition(ctx, pos); err != nil {
				t.Fatal(err)
			}
		}
		// A scalar with a similar name must not show up as a position.
		if err := s.SetScalar(ctx, "stocks-count", "3"); err != nil {
			t.Fatal(err)
		}

		tickers, err := s.ListTickers(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if fmt.Sprint(tickers) != "[AAPL BRK.B MSFT]" {
			t.Errorf("tickers = %v", tickers)
		}

		raw, err := c.Underlying().Get(ctx, "test:stock:AAPL").Result()
		if err != nil {
			t.Fatal(err)
		}
		if raw != `{"Company":"AAPL Corp","Quantity":1,"Prices":[12.34],"Dates":["2024-02-01"]}` {
			t.Errorf("stored layout = %s", raw)
		}

		if err := s.DeletePosition(ctx, "AAPL"); err != nil {
			t.Fatal(err)
		}
		if _, err := s.GetPosition(ctx, "AAPL"); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("deleted position err = %v", err)
		}

		if err := s.SetScalar(ctx, domain.ScalarCashFlow, "-12.34"); err != nil {
			t.Fatal(err)
		}
		if v, _ := s.GetScalar(ctx, domain.ScalarCashFlow); v != "-12.34" {
			t.Errorf("scalar = %q", v)
		}
	})

	t.Run("price cache", func(t *testing.T) {
		pc := NewPriceCache(c, time.Minute)
		ts := time.Unix(1700000000, 0)
		if err := pc.SetPrice(ctx, "AAPL", decimal.RequireFromString("189.95"), ts); err != nil {
			t.Fatal(err)
		}
		price, got, err := pc.GetPrice(ctx, "AAPL")
		if err != nil {
			t.Fatal(err)
		}
		if price.String() != "189.95" || !got.Equal(ts) {
			t.Errorf("got %s at %s", price, got)
		}
		if _, _, err := pc.GetPrice(ctx, "NONE"); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("missing price err = %v", err)
		}
	})

	t.Run("lock", func(t *testing.T) {
		lm := NewLockManager(c)
		unlock, err := lm.Acquire(ctx, "daily-trade", time.Minute)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := lm.Acquire(ctx, "daily-trade", time.Minute); !errors.Is(err, domain.ErrLockHeld) {
			t.Fatalf("second acquire err = %v", err)
		}
		unlock()
		unlock()
		again, err := lm.Acquire(ctx, "daily-trade", time.Minute)
		if err != nil {
			t.Fatalf("acquire after unlock: %v", err)
		}
		again()
	})

	t.Run("trade stream", func(t *testing.T) {
		j := NewTradeStream(c)
		for i, action := range []domain.TradeAction{domain.ActionBuy, domain.ActionSell} {
			rec := domain.TradeRecord{
				ID:         fmt.Sprintf("t%d", i),
				Action:     action,
				Ticker:     "AAPL",
				Price:      decimal.NewFromInt(int64(100 + i)),
				TradingDay: domain.NewDate(2024, 2, 1+i),
			}
			if err := j.Record(ctx, rec); err != nil {
				t.Fatal(err)
			}
		}
		recs, err := j.Recent(ctx, 10)
		if err != nil {
			t.Fatal(err)
		}
		if len(recs) != 2 || recs[0].ID != "t1" || recs[1].Action != domain.ActionBuy {
			t.Errorf("recent = %+v", recs)
		}
	})

	t.Run("signal bus", func(t *testing.T) {
		bus := NewSignalBus(c)
		subCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		ch, err := bus.Subscribe(subCtx, domain.ChannelTrades)
		if err != nil {
			t.Fatal(err)
		}
		if err := bus.Publish(ctx, domain.ChannelTrades, []byte(`{"id":"x"}`)); err != nil {
			t.Fatal(err)
		}
		select {
		case msg := <-ch:
			if string(msg) != `{"id":"x"}` {
				t.Errorf("msg = %s", msg)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("no message")
		}
	})

	t.Run("rate limiter", func(t *testing.T) {
		rl := NewRateLimiter(c)
		for i := 0; i < 3; i++ {
			ok, err := rl.Allow(ctx, "client", 3, time.Minute)
			if err != nil || !ok {
				t.Fatalf("request %d: ok=%v err=%v", i, ok, err)
			}
		}
		if ok, _ := rl.Allow(ctx, "client", 3, time.Minute); ok {
			t.Error("fourth request allowed")
		}
	})
}

func TestEscapeGlob(t *testing.T) {
	if got := escapeGlob("bot[1]*:stock:"); got != `bot\[1\]\*:stock:` {
		t.Errorf("escapeGlob = %s", got)
	}
}
