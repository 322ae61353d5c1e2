// Package calendar provides civil date handling and the merge engine that
// combines Lodgify availability periods and rate calendar items into a
// per-day bookability calendar.
package calendar

import (
	"fmt"
	"time"
)

// ISODate is the date layout used on the wire and as calendar map keys.
const ISODate = "2006-01-02"

// MaxRangeDays is the longest date range a caller may request (inclusive span).
const MaxRangeDays = 180

// ParseDate parses an ISO date string (YYYY-MM-DD) into a UTC civil date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(ISODate, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

// FormatDate renders a date in ISO format.
func FormatDate(t time.Time) string {
	return t.Format(ISODate)
}

// Midnight truncates a timestamp to its UTC civil date.
func Midnight(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateRange is an inclusive span of civil dates.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange builds a range from ISO date strings and validates it.
func NewDateRange(start, end string) (DateRange, error) {
	s, err := ParseDate(start)
	if err != nil {
		return DateRange{}, err
	}
	e, err := ParseDate(end)
	if err != nil {
		return DateRange{}, err
	}
	r := DateRange{Start: s, End: e}
	if err := r.Validate(); err != nil {
		return DateRange{}, err
	}
	return r, nil
}

// Validate checks the range invariants: end on or after start, span bounded.
func (r DateRange) Validate() error {
	if r.End.Before(r.Start) {
		return fmt.Errorf("end date %s before start date %s", FormatDate(r.End), FormatDate(r.Start))
	}
	if int(r.End.Sub(r.Start).Hours()/24) > MaxRangeDays {
		return fmt.Errorf("date range exceeds %d days", MaxRangeDays)
	}
	return nil
}

// Days returns the number of days in the range, inclusive of both ends.
func (r DateRange) Days() int {
	return int(r.End.Sub(r.Start).Hours()/24) + 1
}

// Contains reports whether the given date falls inside the range.
func (r DateRange) Contains(day time.Time) bool {
	return !day.Before(r.Start) && !day.After(r.End)
}
