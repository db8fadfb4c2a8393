package billing

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrPackageNotFound is returned when a referenced package doesn't exist.
	ErrPackageNotFound = errors.New("package not found")

	// ErrClientNotFound is returned when a referenced client doesn't exist.
	ErrClientNotFound = errors.New("client not found")

	// ErrInvalidPackage is returned when package input is incomplete or malformed.
	ErrInvalidPackage = errors.New("invalid package")

	// ErrInvalidMilestone is returned for a malformed milestone or an index
	// outside the package's milestone list.
	ErrInvalidMilestone = errors.New("invalid milestone")

	// ErrMilestoneTransition is returned when a milestone cannot move to the
	// requested status (for example it was already received).
	ErrMilestoneTransition = errors.New("milestone transition not allowed")

	// ErrDuplicateAlert is returned by stores when an alert with the same
	// idempotency key was already recorded. Emitters treat it as success.
	ErrDuplicateAlert = errors.New("duplicate payment alert")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// MilestoneError names the offending milestone.
type MilestoneError struct {
	Index  int
	Reason string
	Err    error
}

func (e *MilestoneError) Error() string {
	return fmt.Sprintf("milestone %d: %s", e.Index, e.Reason)
}

func (e *MilestoneError) Unwrap() error {
	return e.Err
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidPackage) ||
		errors.Is(err, ErrInvalidMilestone) ||
		errors.Is(err, ErrMilestoneTransition)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPackageNotFound) ||
		errors.Is(err, ErrClientNotFound)
}
