package portfolio

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/dailytrader/internal/domain"
	"github.com/alanyoungcy/dailytrader/internal/store/memory"
)

// testLedger returns a ledger on a memory store whose clock reads *now.
func testLedger(now *time.Time) (*Ledger, *memory.LedgerStore) {
	store := memory.NewLedgerStore()
	clock := Clock{Now: func() time.Time { return *now }, Location: time.UTC, DayBoundaryHour: 8}
	return NewLedger(store, clock), store
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func fixedPrices(prices map[string]string) PriceLookup {
	return func(_ context.Context, ticker string) (decimal.Decimal, error) {
		p, ok := prices[ticker]
		if !ok {
			return decimal.Zero, domain.ErrNotFound
		}
		return dec(p), nil
	}
}

func TestRecordPurchaseAppendsLotsInOrder(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	l, _ := testLedger(&now)

	prices := []string{"10", "30", "20", "5"}
	for i, p := range prices {
		name := "Acme Corp"
		if i > 0 {
			name = "Renamed"
		}
		if _, err := l.RecordPurchase(ctx, " acme\n", dec(p), name); err != nil {
			t.Fatal(err)
		}
		now = now.Add(24 * time.Hour)
	}

	pos, err := l.Position(ctx, "ACME")
	if err != nil {
		t.Fatal(err)
	}
	if pos.Quantity() != len(prices) {
		t.Fatalf("quantity = %d, want %d", pos.Quantity(), len(prices))
	}
	if pos.CompanyName != "Acme Corp" {
		t.Errorf("company name changed to %q", pos.CompanyName)
	}
	for i, lot := range pos.Lots {
		if !lot.Price.Equal(dec(prices[i])) {
			t.Errorf("lot %d price = %s, want %s", i, lot.Price, prices[i])
		}
		want := domain.NewDate(2024, 5, 1).AddDays(i)
		if !lot.Date.Equal(want) {
			t.Errorf("lot %d date = %s, want %s", i, lot.Date, want)
		}
	}
}

func TestRecordSaleIsFIFONotCheapest(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	l, _ := testLedger(&now)

	// Oldest lot is the cheaper one here; the next test flips it.
	mustBuy(t, l, "XYZ", "10")
	now = now.Add(24 * time.Hour)
	mustBuy(t, l, "XYZ", "20")

	sale, err := l.RecordSale(ctx, "XYZ", dec("15"))
	if err != nil {
		t.Fatal(err)
	}
	if !sale.NetCash.Equal(dec("5")) {
		t.Errorf("net cash = %s, want 5", sale.NetCash)
	}
	if sale.Remaining != 1 {
		t.Errorf("remaining = %d", sale.Remaining)
	}
	pos, _ := l.Position(ctx, "XYZ")
	if !pos.Lots[0].Price.Equal(dec("20")) || !pos.Lots[0].Date.Equal(domain.NewDate(2024, 5, 2)) {
		t.Errorf("wrong lot left: %+v", pos.Lots)
	}
}

func TestRecordSaleOldestEvenWhenMoreExpensive(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	l, _ := testLedger(&now)

	mustBuy(t, l, "XYZ", "20")
	mustBuy(t, l, "XYZ", "10")

	sale, err := l.RecordSale(ctx, "XYZ", dec("15"))
	if err != nil {
		t.Fatal(err)
	}
	if !sale.NetCash.Equal(dec("-5")) || !sale.Lot.Price.Equal(dec("20")) {
		t.Errorf("sale = %+v, want the 20 lot sold for -5", sale)
	}
}

func TestRecordSaleLastLotDeletesPosition(t *testing.T) {
	ctx := context.Background()
	day := time.Date(2024, 6, 10, 16, 0, 0, 0, time.UTC)
	now := day
	l, store := testLedger(&now)

	mustBuy(t, l, "ABC", "100")
	now = day.AddDate(0, 0, 5)

	sale, err := l.RecordSale(ctx, "ABC", dec("120"))
	if err != nil {
		t.Fatal(err)
	}
	if !sale.NetCash.Equal(dec("20")) || sale.DaysHeld != 5 {
		t.Errorf("sale = (%s, %d), want (20, 5)", sale.NetCash, sale.DaysHeld)
	}
	if sale.Remaining != 0 {
		t.Errorf("remaining = %d", sale.Remaining)
	}
	if _, err := store.GetPosition(ctx, "ABC"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("position still stored: %v", err)
	}
	if has, _ := l.HasPositions(ctx); has {
		t.Error("ledger should be empty")
	}
}

func TestRecordSaleNotHeld(t *testing.T) {
	now := time.Date(2024, 6, 10, 16, 0, 0, 0, time.UTC)
	l, _ := testLedger(&now)
	_, err := l.RecordSale(context.Background(), "NOPE", dec("1"))
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestCashFlow(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 6, 10, 16, 0, 0, 0, time.UTC)
	l, store := testLedger(&now)

	cf, err := l.CashFlow(ctx)
	if err != nil || !cf.IsZero() {
		t.Fatalf("initial cash flow = %s, %v", cf, err)
	}
	if _, err := l.UpdateCashFlow(ctx, dec("-100.10")); err != nil {
		t.Fatal(err)
	}
	got, err := l.UpdateCashFlow(ctx, dec("120.35"))
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(dec("20.25")) {
		t.Errorf("cash flow = %s, want 20.25", got)
	}

	// Legacy float scalars still parse.
	_ = store.SetScalar(ctx, domain.ScalarCashFlow, "-12.5")
	if cf, _ := l.CashFlow(ctx); !cf.Equal(dec("-12.5")) {
		t.Errorf("cash flow = %s", cf)
	}
	_ = store.SetScalar(ctx, domain.ScalarCashFlow, "lots")
	if _, err := l.CashFlow(ctx); err == nil {
		t.Error("expected parse error")
	}
}

func TestNetWorthIsValuePlusCashFlow(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 6, 10, 16, 0, 0, 0, time.UTC)
	l, _ := testLedger(&now)
	lookup := fixedPrices(map[string]string{"AAA": "12.5", "BBB": "3"})

	check := func(wantValue, wantWorth string) {
		t.Helper()
		value, err := l.TotalValue(ctx, lookup)
		if err != nil {
			t.Fatal(err)
		}
		worth, err := l.NetWorth(ctx, lookup)
		if err != nil {
			t.Fatal(err)
		}
		cash, _ := l.CashFlow(ctx)
		if !worth.Equal(value.Add(cash)) {
			t.Errorf("net worth %s != value %s + cash %s", worth, value, cash)
		}
		if !value.Equal(dec(wantValue)) || !worth.Equal(dec(wantWorth)) {
			t.Errorf("value/worth = %s/%s, want %s/%s", value, worth, wantValue, wantWorth)
		}
	}

	check("0", "0")
	buyAndPay(t, l, "AAA", "10")
	buyAndPay(t, l, "AAA", "11")
	buyAndPay(t, l, "BBB", "4")
	check("28", "3")

	if _, err := l.RecordSale(ctx, "AAA", dec("12.5")); err != nil {
		t.Fatal(err)
	}
	if _, err := l.UpdateCashFlow(ctx, dec("12.5")); err != nil {
		t.Fatal(err)
	}
	check("15.5", "3")
}

func TestValueLookupErrorPropagates(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 6, 10, 16, 0, 0, 0, time.UTC)
	l, _ := testLedger(&now)
	mustBuy(t, l, "GONE", "1")

	_, err := l.TotalValue(ctx, fixedPrices(nil))
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestResetIsIdempotent(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 6, 10, 7, 0, 0, 0, time.UTC)
	l, _ := testLedger(&now)
	buyAndPay(t, l, "AAA", "10")
	buyAndPay(t, l, "BBB", "4")

	if err := l.Reset(ctx); err != nil {
		t.Fatal(err)
	}
	once, err := l.Snapshot(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if err := l.Reset(ctx); err != nil {
		t.Fatal(err)
	}
	twice, err := l.Snapshot(ctx)
	if err != nil {
		t.Fatal(err)
	}

	for _, s := range []Snapshot{once, twice} {
		if len(s.Positions) != 0 || !s.CashFlow.IsZero() {
			t.Errorf("not empty after reset: %+v", s)
		}
		// 07:00 UTC is still the previous trading day.
		if s.LastTrade.String() != "2024-06-09" {
			t.Errorf("last trade = %s", s.LastTrade)
		}
	}
}

func TestSummary(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 6, 10, 16, 0, 0, 0, time.UTC)
	l, _ := testLedger(&now)

	buyAndPay(t, l, "MSFT", "400")
	buyAndPay(t, l, "AAPL", "150.5")
	buyAndPay(t, l, "AAPL", "149.5")
	if err := l.MarkTraded(ctx, domain.NewDate(2024, 6, 10)); err != nil {
		t.Fatal(err)
	}

	got, err := l.Summary(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := "Last Trade: 2024-06-10\n" +
		"Net Cashflow: -$700.00\n" +
		"Stocks I own:\n" +
		"2 share(s) of AAPL Inc. (AAPL)\n" +
		"1 share(s) of MSFT Inc. (MSFT)\n"
	if got != want {
		t.Errorf("Summary:\n got %q\nwant %q", got, want)
	}

	lookup := fixedPrices(map[string]string{"AAPL": "160", "MSFT": "1410.333"})
	got, err = l.SummaryWithValue(ctx, lookup)
	if err != nil {
		t.Fatal(err)
	}
	want = "Last Trade:         2024-06-10\n" +
		"Net Cashflow:    -$700.00\n" +
		"Portfolio Value: +$1,730.33\n" +
		"Net Worth:        +$1,030.33\n" +
		"Stocks I own:\n" +
		"2 share(s) of AAPL Inc. (AAPL) currently valued at $160.00\n" +
		"1 share(s) of MSFT Inc. (MSFT) currently valued at $1,410.33\n"
	if got != want {
		t.Errorf("SummaryWithValue:\n got %q\nwant %q", got, want)
	}

	line, _ := l.CashFlowLine(ctx)
	if line != "My current Net Cash Flow is     -$700.00" {
		t.Errorf("CashFlowLine = %q", line)
	}
	lines, _ := l.ValueLines(ctx, lookup)
	if lines != "My current Portfolio's Value is +$1,730.33\nMy current Net Worth is            +$1,030.33" {
		t.Errorf("ValueLines = %q", lines)
	}
}

func TestSummaryNeverTraded(t *testing.T) {
	now := time.Date(2024, 6, 10, 16, 0, 0, 0, time.UTC)
	l, _ := testLedger(&now)
	got, err := l.Summary(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got != "Last Trade: \nNet Cashflow: +$0.00\nStocks I own:\n" {
		t.Errorf("got %q", got)
	}
}

func TestSnapshotRestore(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 6, 10, 16, 0, 0, 0, time.UTC)
	l, _ := testLedger(&now)
	buyAndPay(t, l, "AAA", "10")
	buyAndPay(t, l, "AAA", "11")
	_ = l.MarkTraded(ctx, domain.NewDate(2024, 6, 10))

	snap, err := l.Snapshot(ctx)
	if err != nil {
		t.Fatal(err)
	}

	buyAndPay(t, l, "ZZZ", "1")
	if _, err := l.RecordSale(ctx, "AAA", dec("12")); err != nil {
		t.Fatal(err)
	}

	if err := l.Restore(ctx, snap); err != nil {
		t.Fatal(err)
	}
	after, _ := l.Snapshot(ctx)
	if len(after.Positions) != 1 || after.Positions["AAA"].Quantity() != 2 {
		t.Errorf("positions after restore: %+v", after.Positions)
	}
	if !after.CashFlow.Equal(dec("-21")) || after.LastTrade.String() != "2024-06-10" {
		t.Errorf("scalars after restore: %s %s", after.CashFlow, after.LastTrade)
	}
}

func mustBuy(t *testing.T, l *Ledger, ticker, price string) {
	t.Helper()
	if _, err := l.RecordPurchase(context.Background(), ticker, dec(price), ticker+" Inc."); err != nil {
		t.Fatal(err)
	}
}

func buyAndPay(t *testing.T, l *Ledger, ticker, price string) {
	t.Helper()
	mustBuy(t, l, ticker, price)
	if _, err := l.UpdateCashFlow(context.Background(), dec(price).Neg()); err != nil {
		t.Fatal(err)
	}
}
