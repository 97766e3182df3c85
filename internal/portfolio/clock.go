package portfolio

import (
	"time"

	"github.com/alanyoungcy/dailytrader/internal/domain"
)

// Clock maps wall-clock time onto trading days. Before DayBoundaryHour the
// local date still belongs to the previous trading day; with the default of
// 8 in UTC that lines up with midnight US Pacific.
type Clock struct {
	Now             func() time.Time
	Location        *time.Location
	DayBoundaryHour int
}

// NewClock returns a Clock on the system time.
func NewClock(loc *time.Location, dayBoundaryHour int) Clock {
	if loc == nil {
		loc = time.UTC
	}
	return Clock{Now: time.Now, Location: loc, DayBoundaryHour: dayBoundaryHour}
}

func (c Clock) local() time.Time {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	loc := c.Location
	if loc == nil {
		loc = time.UTC
	}
	return now().In(loc)
}

// Today returns the current trading day.
func (c Clock) Today() domain.Date {
	t := c.local()
	d := domain.DateOf(t)
	if t.Hour() < c.DayBoundaryHour {
		d = d.AddDays(-1)
	}
	return d
}

// Hour returns the current local hour, 0-23.
func (c Clock) Hour() int { return c.local().Hour() }

// Time returns the current instant.
func (c Clock) Time() time.Time { return c.local() }
