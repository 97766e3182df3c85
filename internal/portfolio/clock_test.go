package portfolio

import (
	"testing"
	"time"
)

func TestClockDayBoundary(t *testing.T) {
	pacific := time.FixedZone("PST", -8*3600)
	tests := []struct {
		name     string
		now      time.Time
		loc      *time.Location
		boundary int
		want     string
		hour     int
	}{
		{"before boundary is yesterday", time.Date(2024, 3, 10, 7, 59, 0, 0, time.UTC), time.UTC, 8, "2024-03-09", 7},
		{"at boundary is today", time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC), time.UTC, 8, "2024-03-10", 8},
		{"first of month rolls back", time.Date(2024, 3, 1, 3, 0, 0, 0, time.UTC), time.UTC, 8, "2024-02-29", 3},
		{"zero boundary is plain date", time.Date(2024, 3, 10, 0, 30, 0, 0, time.UTC), time.UTC, 0, "2024-03-10", 0},
		{"location applied first", time.Date(2024, 3, 10, 7, 0, 0, 0, time.UTC), pacific, 0, "2024-03-09", 23},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now := tt.now
			c := Clock{Now: func() time.Time { return now }, Location: tt.loc, DayBoundaryHour: tt.boundary}
			if got := c.Today().String(); got != tt.want {
				t.Errorf("Today() = %s, want %s", got, tt.want)
			}
			if got := c.Hour(); got != tt.hour {
				t.Errorf("Hour() = %d, want %d", got, tt.hour)
			}
		})
	}
}
