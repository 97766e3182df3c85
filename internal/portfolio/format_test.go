package portfolio

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
)

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in     string
		dollar bool
		plus   bool
		want   string
	}{
		{"1234.5", true, true, "+$1,234.50"},
		{"-0.5", false, true, "-0.50"},
		{"0", true, false, "$0.00"},
		{"0", true, true, "+$0.00"},
		{"-1234.5", true, true, "-$1,234.50"},
		{"100", true, false, "$100.00"},
		{"1234567.891", false, false, "1,234,567.89"},
		{"999.999", true, false, "$1,000.00"},
		{"0.01", false, false, "0.01"},
		{"0.125", false, false, "0.13"},
		{"-0.125", false, false, "-0.13"},
		// Sub-cent magnitudes keep full precision.
		{"0.004", false, false, "0.004"},
		{"0.009", false, false, "0.009"},
		{"-0.004", true, false, "-$0.004"},
		{"0.0000123", true, true, "+$0.0000123"},
		{"2950000000000", true, false, "$2,950,000,000,000.00"},
	}
	for _, tt := range tests {
		got := FormatNumber(decimal.RequireFromString(tt.in), tt.dollar, tt.plus)
		if got != tt.want {
			t.Errorf("FormatNumber(%s, %v, %v) = %q, want %q", tt.in, tt.dollar, tt.plus, got, tt.want)
		}
	}
}

func TestFormatFloat(t *testing.T) {
	if got := FormatFloat(1234.5, true, true); got != "+$1,234.50" {
		t.Errorf("got %q", got)
	}
	if got := FormatFloat(0.0042, false, false); got != "0.0042" {
		t.Errorf("got %q", got)
	}
	if got := FormatFloat(math.NaN(), true, false); got != "NaN" {
		t.Errorf("got %q", got)
	}
}
