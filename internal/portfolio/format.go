package portfolio

import (
	"math"
	"strconv"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

var (
	cent = decimal.New(1, -2)

	dollarFormatter = money.NewFormatter(2, ".", ",", "$", "$1")
	plainFormatter  = money.NewFormatter(2, ".", ",", "", "1")
)

// FormatNumber renders v for chat output. The sign comes first ("-" for
// negatives, "+" for non-negatives when plusSign is set), then an optional
// "$". Magnitudes of at least one cent, and zero, are rounded half away from
// zero to two decimals with thousands separators. Smaller non-zero
// magnitudes keep their full precision without separators, so
// FormatNumber(0.004, false, false) is "0.004".
func FormatNumber(v decimal.Decimal, dollar, plusSign bool) string {
	sign := ""
	switch {
	case v.IsNegative():
		sign = "-"
	case plusSign:
		sign = "+"
	}

	abs := v.Abs()
	if abs.IsZero() || abs.GreaterThanOrEqual(cent) {
		cents := abs.Round(2).Shift(2).IntPart()
		f := plainFormatter
		if dollar {
			f = dollarFormatter
		}
		return sign + f.Format(cents)
	}

	out := sign
	if dollar {
		out += "$"
	}
	return out + abs.String()
}

// FormatFloat is FormatNumber for float metrics coming straight from market
// data. NaN and infinities are rendered as-is.
func FormatFloat(v float64, dollar, plusSign bool) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return FormatNumber(decimal.NewFromFloat(v), dollar, plusSign)
}
