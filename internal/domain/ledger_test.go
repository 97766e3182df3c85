package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestPositionJSONLayout(t *testing.T) {
	pos := Position{
		Ticker:      "AAPL",
		CompanyName: "Apple Inc.",
		Lots: []Lot{
			{Price: decimal.RequireFromString("150.25"), Date: NewDate(2024, time.March, 1)},
			{Price: decimal.RequireFromString("10"), Date: NewDate(2024, time.March, 4)},
		},
	}
	b, err := json.Marshal(pos)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"Company":"Apple Inc.","Quantity":2,"Prices":[150.25,10],"Dates":["2024-03-01","2024-03-04"]}`
	if string(b) != want {
		t.Fatalf("marshal:\n got %s\nwant %s", b, want)
	}

	var back Position
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatal(err)
	}
	if back.CompanyName != "Apple Inc." || back.Quantity() != 2 {
		t.Fatalf("unexpected position %+v", back)
	}
	if !back.Lots[0].Price.Equal(decimal.RequireFromString("150.25")) || back.Lots[1].Date.String() != "2024-03-04" {
		t.Errorf("lots not preserved in order: %+v", back.Lots)
	}
}

func TestPositionUnmarshalLegacyFloats(t *testing.T) {
	raw := `{"Company": "Tesla, Inc.", "Quantity": 1, "Prices": [712.1999816894531], "Dates": ["2021-06-01"]}`
	var pos Position
	if err := json.Unmarshal([]byte(raw), &pos); err != nil {
		t.Fatal(err)
	}
	if pos.Lots[0].Price.String() != "712.1999816894531" {
		t.Errorf("price = %s", pos.Lots[0].Price)
	}
}

func TestPositionUnmarshalRejectsMismatch(t *testing.T) {
	tests := []string{
		`{"Company":"X","Quantity":2,"Prices":[1],"Dates":["2024-01-01"]}`,
		`{"Company":"X","Quantity":1,"Prices":[1],"Dates":[]}`,
		`{"Company":"X","Quantity":1,"Prices":["abc"],"Dates":["2024-01-01"]}`,
		`{"Company":"X","Quantity":1,"Prices":[1],"Dates":["01/01/2024"]}`,
	}
	for _, raw := range tests {
		var pos Position
		err := json.Unmarshal([]byte(raw), &pos)
		if !errors.Is(err, ErrCorruptPosition) {
			t.Errorf("%s: err = %v, want ErrCorruptPosition", raw, err)
		}
	}
}

func TestDate(t *testing.T) {
	d := NewDate(2024, time.February, 27)
	if got := d.AddDays(5).String(); got != "2024-03-03" {
		t.Errorf("AddDays across leap day = %s", got)
	}
	if got := d.DaysUntil(d.AddDays(5)); got != 5 {
		t.Errorf("DaysUntil = %d, want 5", got)
	}
	if got := d.AddDays(5).DaysUntil(d); got != -5 {
		t.Errorf("DaysUntil backwards = %d, want -5", got)
	}

	loc := time.FixedZone("PST", -8*3600)
	if got := DateOf(time.Date(2024, 1, 2, 23, 0, 0, 0, loc)).String(); got != "2024-01-02" {
		t.Errorf("DateOf uses the time's own location, got %s", got)
	}

	var zero Date
	if zero.String() != "" || !zero.IsZero() {
		t.Error("zero date should render empty")
	}
	if _, err := ParseDate("2024-13-01"); err == nil {
		t.Error("expected parse error")
	}
}
