package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/alanyoungcy/dailytrader/internal/domain"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	container, err := testcontainers.Run(ctx, "postgres:16-alpine",
		testcontainers.WithEnv(map[string]string{
			"POSTGRES_USER":     "trader",
			"POSTGRES_PASSWORD": "trader",
			"POSTGRES_DB":       "journal",
		}),
		testcontainers.WithExposedPorts("5432/tcp"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(90*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres: %v", err)
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
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("failed to get mapped port: %v", err)
	}

	c, err := New(ctx, ClientConfig{
		DSN: fmt.Sprintf("postgres://trader:trader@%s:%s/journal?sslmode=disable", host, port.Port()),
	})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(c.Close)

	if err := c.RunMigrations(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	// Applying twice is a no-op.
	if err := c.RunMigrations(ctx); err != nil {
		t.Fatalf("migrate again: %v", err)
	}
	return c
}

func TestTradeJournal(t *testing.T) {
	c := newTestClient(t)
	j := NewTradeJournal(c.Pool())
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC)
	buy := domain.TradeRecord{
		ID:          uuid.NewString(),
		Action:      domain.ActionBuy,
		Ticker:      "AAPL",
		CompanyName: "Apple Inc.",
		Price:       decimal.RequireFromString("189.123456"),
		CashFlow:    decimal.RequireFromString("-189.123456"),
		TradingDay:  domain.NewDate(2024, time.March, 1),
		ExecutedAt:  base,
	}
	sell := domain.TradeRecord{
		ID:          uuid.NewString(),
		Action:      domain.ActionSell,
		Ticker:      "AAPL",
		CompanyName: "Apple Inc.",
		Price:       decimal.RequireFromString("200"),
		NetCash:     decimal.RequireFromString("10.876544"),
		DaysHeld:    3,
		CashFlow:    decimal.RequireFromString("10.876544"),
		TradingDay:  domain.NewDate(2024, time.March, 4),
		ExecutedAt:  base.AddDate(0, 0, 3),
	}
	for _, rec := range []domain.TradeRecord{buy, sell, buy} {
		if err := j.Record(ctx, rec); err != nil {
			t.Fatal(err)
		}
	}

	recs, err := j.Recent(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2 (duplicate id ignored)", len(recs))
	}
	got := recs[0]
	if got.ID != sell.ID || got.Action != domain.ActionSell || got.DaysHeld != 3 {
		t.Errorf("newest = %+v", got)
	}
	if !got.NetCash.Equal(sell.NetCash) || !recs[1].Price.Equal(buy.Price) {
		t.Errorf("numeric round trip lost precision: %s, %s", got.NetCash, recs[1].Price)
	}
	if got.TradingDay.String() != "2024-03-04" || !got.ExecutedAt.Equal(sell.ExecutedAt) {
		t.Errorf("dates = %s, %s", got.TradingDay, got.ExecutedAt)
	}

	recs, err = j.Recent(ctx, 1)
	if err != nil || len(recs) != 1 {
		t.Errorf("limit ignored: %d, %v", len(recs), err)
	}
}

func TestDSN(t *testing.T) {
	got := DSN(ClientConfig{Host: "db", Database: "journal", User: "u", Password: "p"})
	if got != "postgres://u:p@db:5432/journal?sslmode=disable" {
		t.Errorf("DSN = %s", got)
	}
	if got := DSN(ClientConfig{DSN: " postgres://x ", Host: "ignored"}); got != "postgres://x" {
		t.Errorf("explicit DSN = %s", got)
	}
}
