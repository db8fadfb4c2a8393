/*
Package calendar provides the day-level time primitives of the fulfillment engine.

PURPOSE:
  Production work is scheduled in whole days. Everything in this package works
  at day granularity in UTC so that two dates parsed from different sources
  ("2025-03-10" from JSON, a time.Time from the database) always compare equal.

KEY CONCEPTS IN THIS FILE (date.go):
  - Date: A calendar day (no clock component)
  - HolidaySet: Fast membership lookup for declared holidays

SEE ALSO:
  - period.go: Inclusive date ranges
  - workdays.go: Working-day calculator
  - redistribute.go: Holiday load redistribution
*/
package calendar

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// ISOLayout is the wire and storage format for dates.
const ISOLayout = "2006-01-02"

// =============================================================================
// DATE - A calendar day
// =============================================================================

// Date is a calendar day normalized to midnight UTC.
type Date struct {
	Time time.Time
}

// NewDate returns the given calendar day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day (in t's own location).
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// Today returns the current calendar day.
func Today() Date {
	return DateOf(time.Now())
}

// ParseDate parses an ISO date (YYYY-MM-DD).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(ISOLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD): %w", s, err)
	}
	return DateOf(t), nil
}

// MustParseDate is ParseDate for literals in tests and fixtures.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Comparison
func (d Date) Before(other Date) bool        { return d.Time.Before(other.Time) }
func (d Date) After(other Date) bool         { return d.Time.After(other.Time) }
func (d Date) Equal(other Date) bool         { return d.Time.Equal(other.Time) }
func (d Date) BeforeOrEqual(other Date) bool { return !d.After(other) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.Before(other) }

// Arithmetic
func (d Date) AddDays(n int) Date { return DateOf(d.Time.AddDate(0, 0, n)) }

// Properties
func (d Date) Weekday() time.Weekday { return d.Time.Weekday() }
func (d Date) IsSunday() bool        { return d.Weekday() == time.Sunday }
func (d Date) IsZero() bool          { return d.Time.IsZero() }
func (d Date) String() string        { return d.Time.Format(ISOLayout) }

// MarshalJSON encodes the date as "YYYY-MM-DD".
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts "YYYY-MM-DD" or an empty string (zero date).
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// SortDates sorts dates ascending in place.
func SortDates(dates []Date) {
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
}

// =============================================================================
// HOLIDAY SET
// =============================================================================

// HolidaySet is a set of declared non-working days.
type HolidaySet map[string]struct{}

// NewHolidaySet builds a set from a list of dates. Duplicates collapse.
func NewHolidaySet(dates ...Date) HolidaySet {
	set := make(HolidaySet, len(dates))
	for _, d := range dates {
		set.Add(d)
	}
	return set
}

func (s HolidaySet) Add(d Date)           { s[d.String()] = struct{}{} }
func (s HolidaySet) Contains(d Date) bool { _, ok := s[d.String()]; return ok }
func (s HolidaySet) Len() int             { return len(s) }

// Dates returns the members in ascending order.
func (s HolidaySet) Dates() []Date {
	dates := make([]Date, 0, len(s))
	for k := range s {
		dates = append(dates, MustParseDate(k))
	}
	SortDates(dates)
	return dates
}
