package calendar

import (
	"context"
	"errors"
)

// ErrHolidayNotFound is returned when a referenced holiday doesn't exist.
var ErrHolidayNotFound = errors.New("holiday not found")

// =============================================================================
// WORKING-DAY CALCULATOR
// =============================================================================

// WorkingDays returns every day in [start, end] that is neither a Sunday nor a
// holiday, ascending. start > end yields an empty list, not an error.
func WorkingDays(start, end Date, holidays HolidaySet) []Date {
	var days []Date
	for _, d := range (Period{Start: start, End: end}).Days() {
		if d.IsSunday() || holidays.Contains(d) {
			continue
		}
		days = append(days, d)
	}
	return days
}

// ProductionDays returns the nominal schedule for [start, end]: every
// non-Sunday day, holidays included. Holidays in this list carry load that
// Redistribute moves onto the surrounding working days.
func ProductionDays(start, end Date) []Date {
	return WorkingDays(start, end, nil)
}

// HolidaysIn returns the holidays that fall on a production day of [start, end],
// ascending. Sunday holidays carry no load and are skipped.
func HolidaysIn(start, end Date, holidays HolidaySet) []Date {
	period := Period{Start: start, End: end}
	var in []Date
	for _, h := range holidays.Dates() {
		if period.Contains(h) && !h.IsSunday() {
			in = append(in, h)
		}
	}
	return in
}

// HolidayCalendar provides stored holiday lookup.
type HolidayCalendar interface {
	// HolidaysBetween returns declared holidays in [from, to], recurring ones
	// expanded into each year of the range.
	HolidaysBetween(ctx context.Context, from, to Date) ([]Holiday, error)
}

// Holiday is a declared company-wide non-working day.
type Holiday struct {
	ID        string
	Date      Date
	Name      string
	Recurring bool // true = same month/day every year
}

// OccursOn reports whether the holiday falls on d.
func (h Holiday) OccursOn(d Date) bool {
	if h.Recurring {
		return h.Date.Time.Month() == d.Time.Month() && h.Date.Time.Day() == d.Time.Day()
	}
	return h.Date.Equal(d)
}

// ExpandHolidays returns the dates in [from, to] on which any of the holidays occur.
func ExpandHolidays(holidays []Holiday, from, to Date) HolidaySet {
	set := NewHolidaySet()
	for _, d := range (Period{Start: from, End: to}).Days() {
		for _, h := range holidays {
			if h.OccursOn(d) {
				set.Add(d)
				break
			}
		}
	}
	return set
}
