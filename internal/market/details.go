package market

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/dailytrader/internal/portfolio"
)

const summaryMaxLen = 150

type detailFormat int

const (
	formatText detailFormat = iota
	formatDollars
	formatPlain
	formatPercent
	formatSummary
)

// detailRows fixes the order and labels of the company info block.
var detailRows = []struct {
	metric string
	label  string
	format detailFormat
}{
	{MetricShortName, "Company", formatText},
	{MetricSector, "Sector", formatText},
	{MetricSummary, "Business Summary", formatSummary},
	{MetricVolume, "Volume", formatPlain},
	{MetricTrailingPE, "Price-Earnings Ratio", formatDollars},
	{MetricMarketCap, "Market Cap", formatDollars},
	{MetricYearHigh, "52 Week High", formatDollars},
	{MetricYearLow, "52 Week Low", formatDollars},
	{MetricAverageVolume, "Average Volume", formatPlain},
	{MetricDividendYield, "Dividend Yield", formatPercent},
	{MetricBeta, "Beta", formatText},
	{MetricTrailingEPS, "Earnings Per Share", formatDollars},
}

// FormatDetails renders one "Label: value" line per available metric.
// Missing metrics and values of an unexpected type are skipped.
func FormatDetails(details map[string]any) string {
	var b strings.Builder
	for _, row := range detailRows {
		v, ok := details[row.metric]
		if !ok || v == nil {
			continue
		}
		s, ok := formatDetail(v, row.format)
		if !ok {
			continue
		}
		b.WriteString(row.label)
		b.WriteString(": ")
		b.WriteString(s)
		b.WriteByte('\n')
	}
	return b.String()
}

func formatDetail(v any, f detailFormat) (string, bool) {
	switch f {
	case formatSummary:
		s, ok := v.(string)
		if !ok || strings.TrimSpace(s) == "" {
			return "", false
		}
		return firstSentence(s), true
	case formatDollars, formatPlain:
		d, ok := toDecimal(v)
		if !ok {
			return "", false
		}
		return portfolio.FormatNumber(d, f == formatDollars, false), true
	case formatPercent:
		d, ok := toDecimal(v)
		if !ok {
			return "", false
		}
		return portfolio.FormatNumber(d.Mul(decimal.NewFromInt(100)), false, false) + "%", true
	default:
		switch t := v.(type) {
		case string:
			return t, true
		case float64:
			return strconv.FormatFloat(t, 'f', -1, 64), true
		case bool:
			return strconv.FormatBool(t), true
		default:
			return "", false
		}
	}
}

// firstSentence keeps the text up to the first period, capped at
// summaryMaxLen characters.
func firstSentence(s string) string {
	if i := strings.IndexByte(s, '.'); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSpace(s) + "."
	if r := []rune(s); len(r) > summaryMaxLen {
		s = string(r[:summaryMaxLen-3]) + "..."
	}
	return s
}
