package schedule

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/warp/fulfillment-engine/calendar"
)

// =============================================================================
// LINE-ITEM CONFIGURATION
// =============================================================================

// Method selects how production days are chosen for a line item.
type Method string

const (
	MethodDateRange    Method = "dateRange"
	MethodSpecificDays Method = "specificDays"
)

// LineItemConfig is the ephemeral allocation setup for one package line item.
// It lives in a Session until commit and is never persisted.
type LineItemConfig struct {
	LineItemIndex int
	Method        Method
	AssigneeID    string
	Priority      Priority
	Description   string

	// MethodDateRange
	StartDate calendar.Date
	EndDate   calendar.Date
	Holidays  []calendar.Date
	// UseCompanyHolidays merges the stored company holidays of the range
	// into Holidays each time the item is planned.
	UseCompanyHolidays bool

	// MethodSpecificDays
	Dates []calendar.Date
}

// ToggleDate adds d to the explicit date list, or removes it if present.
// Sundays cannot be selected; toggling one does nothing. The list is
// reallocated, so copies of c taken earlier keep their dates.
func (c *LineItemConfig) ToggleDate(d calendar.Date) {
	if d.IsSunday() {
		return
	}
	for i, existing := range c.Dates {
		if existing.Equal(d) {
			c.Dates = slices.Delete(slices.Clone(c.Dates), i, i+1)
			return
		}
	}
	c.Dates = append(slices.Clone(c.Dates), d)
	calendar.SortDates(c.Dates)
}

// clone returns a copy of c that shares no slices with it.
func (c LineItemConfig) clone() LineItemConfig {
	c.Holidays = slices.Clone(c.Holidays)
	c.Dates = slices.Clone(c.Dates)
	return c
}

// ResolveHolidays returns cfg with the company holidays stored in cal merged
// into Holidays when cfg.UseCompanyHolidays is set. cfg is not modified.
// Callers resolve right before planning so holidays declared after the
// item was queued are honoured.
func ResolveHolidays(ctx context.Context, cal calendar.HolidayCalendar, cfg LineItemConfig) (LineItemConfig, error) {
	cfg = cfg.clone()
	if !cfg.UseCompanyHolidays || cal == nil || cfg.Method != MethodDateRange ||
		cfg.StartDate.IsZero() || cfg.EndDate.IsZero() {
		return cfg, nil
	}

	stored, err := cal.HolidaysBetween(ctx, cfg.StartDate, cfg.EndDate)
	if err != nil {
		return cfg, fmt.Errorf("load company holidays for line item %d: %w", cfg.LineItemIndex, err)
	}
	merged := calendar.ExpandHolidays(stored, cfg.StartDate, cfg.EndDate)
	for _, d := range cfg.Holidays {
		merged.Add(d)
	}
	cfg.Holidays = merged.Dates()
	return cfg, nil
}

// =============================================================================
// PLAN - Day-by-day quota for one line item
// =============================================================================

// Plan is the computed allocation for one line item.
type Plan struct {
	LineItemIndex int
	Method        Method
	Days          []calendar.Date // days that receive units, ascending
	PerDay        int
	Extras        calendar.Extras
	Holidays      []calendar.Date // holidays whose load was redistributed
	Total         int
}

// CountOn returns the number of units scheduled on d.
func (p Plan) CountOn(d calendar.Date) int {
	return p.PerDay + p.Extras.Get(d)
}

// Units returns the number of units the plan emits.
func (p Plan) Units() int {
	units := 0
	for _, d := range p.Days {
		units += p.CountOn(d)
	}
	return units
}

// DayCount is one row of a plan.
type DayCount struct {
	Date  calendar.Date
	Units int
}

// Counts returns the per-day schedule, holidays excluded.
func (p Plan) Counts() []DayCount {
	rows := make([]DayCount, len(p.Days))
	for i, d := range p.Days {
		rows[i] = DayCount{Date: d, Units: p.CountOn(d)}
	}
	return rows
}

// =============================================================================
// PLANNING
// =============================================================================

// PlanLineItem validates cfg against the line item's quantity and computes the
// day-by-day plan. It always derives from the configuration; nothing is cached.
//
// For MethodDateRange the production days are every non-Sunday day of the
// range. Holidays among them keep their nominal share, which Redistribute moves
// to neighbouring working days, so the quantity must divide evenly by the
// production-day count and at least one non-holiday day must remain.
func PlanLineItem(cfg LineItemConfig, quantity int) (Plan, error) {
	idx := cfg.LineItemIndex
	if strings.TrimSpace(cfg.AssigneeID) == "" {
		return Plan{}, &ValidationError{LineItemIndex: idx, Field: "assignee", Reason: "an assignee is required"}
	}
	if quantity <= 0 {
		return Plan{}, &ValidationError{LineItemIndex: idx, Field: "quantity", Reason: "line item quantity must be positive"}
	}

	switch cfg.Method {
	case MethodDateRange:
		return planDateRange(cfg, quantity)
	case MethodSpecificDays:
		return planSpecificDays(cfg, quantity)
	default:
		return Plan{}, &ValidationError{LineItemIndex: idx, Field: "method", Reason: "unknown allocation method " + string(cfg.Method)}
	}
}

func planDateRange(cfg LineItemConfig, quantity int) (Plan, error) {
	idx := cfg.LineItemIndex
	if cfg.StartDate.IsZero() {
		return Plan{}, &ValidationError{LineItemIndex: idx, Field: "start_date", Reason: "a start date is required"}
	}
	if cfg.EndDate.IsZero() {
		return Plan{}, &ValidationError{LineItemIndex: idx, Field: "end_date", Reason: "an end date is required"}
	}

	holidays := calendar.NewHolidaySet(cfg.Holidays...)
	production := calendar.ProductionDays(cfg.StartDate, cfg.EndDate)
	working := calendar.WorkingDays(cfg.StartDate, cfg.EndDate, holidays)
	if len(working) == 0 {
		return Plan{}, &ValidationError{LineItemIndex: idx, Field: "end_date",
			Reason: "no working days between " + cfg.StartDate.String() + " and " + cfg.EndDate.String()}
	}

	inRange := calendar.HolidaysIn(cfg.StartDate, cfg.EndDate, holidays)
	if quantity < len(production) || quantity%len(production) != 0 {
		return Plan{}, &DivisionError{
			LineItemIndex:  idx,
			Quantity:       quantity,
			ProductionDays: len(production),
			Holidays:       len(inRange),
			PerDay:         decimal.NewFromInt(int64(quantity)).DivRound(decimal.NewFromInt(int64(len(production))), 4),
		}
	}

	perDay := quantity / len(production)
	return Plan{
		LineItemIndex: idx,
		Method:        MethodDateRange,
		Days:          working,
		PerDay:        perDay,
		Extras:        calendar.Redistribute(production, perDay, cfg.Holidays),
		Holidays:      inRange,
		Total:         quantity,
	}, nil
}

func planSpecificDays(cfg LineItemConfig, quantity int) (Plan, error) {
	seen := calendar.NewHolidaySet()
	var dates []calendar.Date
	for _, d := range cfg.Dates {
		if d.IsZero() || d.IsSunday() || seen.Contains(d) {
			continue
		}
		seen.Add(d)
		dates = append(dates, d)
	}
	if len(dates) == 0 {
		return Plan{}, &ValidationError{LineItemIndex: cfg.LineItemIndex, Field: "dates", Reason: "select at least one production day"}
	}
	calendar.SortDates(dates)

	// Spread the remainder over the earliest days so the total is exact.
	extras := calendar.Extras{}
	for i := 0; i < quantity%len(dates); i++ {
		extras[dates[i].String()] = 1
	}

	return Plan{
		LineItemIndex: cfg.LineItemIndex,
		Method:        MethodSpecificDays,
		Days:          dates,
		PerDay:        quantity / len(dates),
		Extras:        extras,
		Total:         quantity,
	}, nil
}
