package schedule

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is returned when a bulk configuration is incomplete or malformed.
	ErrValidation = errors.New("invalid bulk configuration")

	// ErrInexactDivision is returned when a line item's quantity does not split
	// into a whole number of units per production day.
	ErrInexactDivision = errors.New("quantity does not divide evenly across production days")

	// ErrEmptyQueue is returned when committing a session with nothing queued.
	ErrEmptyQueue = errors.New("no line items queued")

	// ErrCommitInProgress is returned when a session is changed or committed
	// while another commit of it is running.
	ErrCommitInProgress = errors.New("bulk commit already in progress")

	// ErrTaskNotFound is returned when a referenced task doesn't exist.
	ErrTaskNotFound = errors.New("task not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError names the offending field of a line-item configuration.
type ValidationError struct {
	LineItemIndex int
	Field         string
	Reason        string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("line item %d: %s: %s", e.LineItemIndex, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// DivisionError reports a quantity that leaves a fractional daily load.
type DivisionError struct {
	LineItemIndex  int
	Quantity       int
	ProductionDays int
	Holidays       int
	PerDay         decimal.Decimal
}

func (e *DivisionError) Error() string {
	return fmt.Sprintf(
		"line item %d: %d units over %d production days (%d holidays) is %s per day; adjust the dates or holidays so each day gets a whole number of units",
		e.LineItemIndex, e.Quantity, e.ProductionDays, e.Holidays, e.PerDay.String())
}

func (e *DivisionError) Unwrap() error {
	return ErrInexactDivision
}

// CommitError reports a bulk commit that stopped part-way. The first
// Committed tasks were persisted and are not rolled back.
type CommitError struct {
	Committed int
	Total     int
	Err       error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("bulk commit stopped after %d of %d tasks: %v", e.Committed, e.Total, e.Err)
}

func (e *CommitError) Unwrap() error {
	return e.Err
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInexactDivision) ||
		errors.Is(err, ErrEmptyQueue)
}
