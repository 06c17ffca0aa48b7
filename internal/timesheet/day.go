package timesheet

import (
	"fmt"
	"regexp"
	"time"
)

const dayLayout = "2006-01-02"

// Day is a calendar date in local wall-clock terms. The day an event
// belongs to is the date of its timestamp in the viewer's location.
type Day struct {
	Year  int
	Month time.Month
	Dom   int
}

// DayOf returns the calendar date of t in t's own location
func DayOf(t time.Time) Day {
	y, m, d := t.Date()
	return Day{Year: y, Month: m, Dom: d}
}

// Today returns the current date in loc
func Today(now time.Time, loc *time.Location) Day {
	return DayOf(now.In(locOrLocal(loc)))
}

// ParseDay parses YYYY-MM-DD
func ParseDay(s string) (Day, error) {
	t, err := time.Parse(dayLayout, s)
	if err != nil {
		return Day{}, fmt.Errorf("invalid day %q, expected YYYY-MM-DD", s)
	}
	return DayOf(t), nil
}

var dayKeyRegex = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)

// FindDay extracts the first YYYY-MM-DD found anywhere in key.
// Backend day keys carry the date as a substring ("2026-10-15T00:00:00Z", "Thu 2026-10-15").
func FindDay(key string) (Day, bool) {
	for _, m := range dayKeyRegex.FindAllString(key, -1) {
		if d, err := ParseDay(m); err == nil {
			return d, true
		}
	}
	return Day{}, false
}

// Start is 00:00:00.000 of the day in loc
func (d Day) Start(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Dom, 0, 0, 0, 0, locOrLocal(loc))
}

// End is 23:59:59.999 of the day in loc
func (d Day) End(loc *time.Location) time.Time {
	return d.Next().Start(loc).Add(-time.Millisecond)
}

// Contains reports whether t falls on this day in loc
func (d Day) Contains(t time.Time, loc *time.Location) bool {
	return DayOf(t.In(locOrLocal(loc))) == d
}

func (d Day) Next() Day {
	return DayOf(time.Date(d.Year, d.Month, d.Dom+1, 0, 0, 0, 0, time.UTC))
}

func (d Day) Prev() Day {
	return DayOf(time.Date(d.Year, d.Month, d.Dom-1, 0, 0, 0, 0, time.UTC))
}

func (d Day) Before(o Day) bool {
	if d.Year != o.Year {
		return d.Year < o.Year
	}
	if d.Month != o.Month {
		return d.Month < o.Month
	}
	return d.Dom < o.Dom
}

func (d Day) IsZero() bool {
	return d == Day{}
}

func (d Day) Weekday() time.Weekday {
	return time.Date(d.Year, d.Month, d.Dom, 12, 0, 0, 0, time.UTC).Weekday()
}

func (d Day) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Dom)
}

func (d Day) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Day) UnmarshalText(text []byte) error {
	parsed, err := ParseDay(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// WeekStart returns the Monday of d's calendar week
func WeekStart(d Day) Day {
	offset := int(d.Weekday() - time.Monday)
	if d.Weekday() == time.Sunday {
		offset = 6
	}
	return DayOf(time.Date(d.Year, d.Month, d.Dom-offset, 0, 0, 0, 0, time.UTC))
}

func locOrLocal(loc *time.Location) *time.Location {
	if loc == nil {
		return time.Local
	}
	return loc
}
