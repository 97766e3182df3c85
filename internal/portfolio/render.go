package portfolio

import (
	"context"
	"fmt"
	"strings"
)

// Summary renders the ledger without market prices:
//
//	Last Trade: 2024-03-01
//	Net Cashflow: +$12.34
//	Stocks I own:
//	2 share(s) of Apple Inc. (AAPL)
func (l *Ledger) Summary(ctx context.Context) (string, error) {
	last, err := l.LastTradeDate(ctx)
	if err != nil {
		return "", err
	}
	cash, err := l.CashFlow(ctx)
	if err != nil {
		return "", err
	}
	positions, err := l.Positions(ctx)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Last Trade: %s\n", last)
	fmt.Fprintf(&b, "Net Cashflow: %s\n", FormatNumber(cash, true, true))
	b.WriteString("Stocks I own:\n")
	for _, pos := range positions {
		fmt.Fprintf(&b, "%d share(s) of %s (%s)\n", pos.Quantity(), pos.CompanyName, pos.Ticker)
	}
	return b.String(), nil
}

// SummaryWithValue renders the ledger priced with lookup, including the
// portfolio value, net worth and each position's current unit price.
func (l *Ledger) SummaryWithValue(ctx context.Context, lookup PriceLookup) (string, error) {
	last, err := l.LastTradeDate(ctx)
	if err != nil {
		return "", err
	}
	v, err := l.Value(ctx, lookup)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Last Trade:         %s\n", last)
	fmt.Fprintf(&b, "Net Cashflow:    %s\n", FormatNumber(v.CashFlow, true, true))
	fmt.Fprintf(&b, "Portfolio Value: %s\n", FormatNumber(v.TotalValue, true, true))
	fmt.Fprintf(&b, "Net Worth:        %s\n", FormatNumber(v.NetWorth, true, true))
	b.WriteString("Stocks I own:\n")
	for _, pos := range v.Positions {
		fmt.Fprintf(&b, "%d share(s) of %s (%s) currently valued at %s\n",
			pos.Quantity(), pos.CompanyName, pos.Ticker, FormatNumber(pos.UnitPrice, true, false))
	}
	return b.String(), nil
}

// CashFlowLine renders the one-line cash flow report.
func (l *Ledger) CashFlowLine(ctx context.Context) (string, error) {
	cash, err := l.CashFlow(ctx)
	if err != nil {
		return "", err
	}
	return "My current Net Cash Flow is     " + FormatNumber(cash, true, true), nil
}

// ValueLines renders the portfolio value and net worth report.
func (l *Ledger) ValueLines(ctx context.Context, lookup PriceLookup) (string, error) {
	v, err := l.Value(ctx, lookup)
	if err != nil {
		return "", err
	}
	return "My current Portfolio's Value is " + FormatNumber(v.TotalValue, true, true) + "\n" +
		"My current Net Worth is            " + FormatNumber(v.NetWorth, true, true), nil
}
