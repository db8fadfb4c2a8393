package calendar

// =============================================================================
// PERIOD - Inclusive date range
// =============================================================================

// Period is the inclusive range [Start, End].
//
// Examples:
//   - A monthly retainer: Mar 1 - Mar 31
//   - A single production day: Start == End
type Period struct {
	Start Date
	End   Date
}

// IsValid reports whether Start <= End.
func (p Period) IsValid() bool {
	return p.Start.BeforeOrEqual(p.End)
}

// Contains returns true if the date is within the period [Start, End].
func (p Period) Contains(d Date) bool {
	return d.AfterOrEqual(p.Start) && d.BeforeOrEqual(p.End)
}

// Days returns every calendar day in the period. An inverted period has no days.
func (p Period) Days() []Date {
	var days []Date
	for current := p.Start; current.BeforeOrEqual(p.End); current = current.AddDays(1) {
		days = append(days, current)
	}
	return days
}

// String returns a string representation of the period.
func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// DaysBetween returns the number of whole days from -> to.
func DaysBetween(from, to Date) int {
	return int(to.Time.Sub(from.Time).Hours() / 24)
}
