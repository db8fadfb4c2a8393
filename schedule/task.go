// Package schedule implements bulk production scheduling: turning a package
// line item, a date range and a holiday list into one task per production unit.
package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/warp/fulfillment-engine/calendar"
)

// =============================================================================
// PRIORITY
// =============================================================================

type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
	PriorityUrgent Priority = "Urgent"
)

// ParsePriority accepts the four priorities case-insensitively. Empty means Medium.
func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return PriorityMedium, nil
	case "low":
		return PriorityLow, nil
	case "medium":
		return PriorityMedium, nil
	case "high":
		return PriorityHigh, nil
	case "urgent":
		return PriorityUrgent, nil
	}
	return "", fmt.Errorf("unknown priority %q (want Low, Medium, High or Urgent)", s)
}

// =============================================================================
// TASK STATUS
// =============================================================================

// TaskStatus is the workflow state of a task. Values read from storage that
// match none of the known states become StatusUnknown so that a typo can never
// silently count as (or hide) a finished unit.
type TaskStatus string

const (
	StatusNotStarted TaskStatus = "Not Started"
	StatusInProgress TaskStatus = "In Progress"
	StatusOnHold     TaskStatus = "On Hold"
	StatusFinished   TaskStatus = "Finished"
	StatusCompleted  TaskStatus = "Completed"
	StatusClosed     TaskStatus = "Closed"
	StatusUnknown    TaskStatus = "Unknown"
)

var knownStatuses = []TaskStatus{
	StatusNotStarted, StatusInProgress, StatusOnHold,
	StatusFinished, StatusCompleted, StatusClosed,
}

// ParseTaskStatus maps a stored or submitted string onto the closed set.
func ParseTaskStatus(s string) TaskStatus {
	normalized := strings.ToLower(strings.Join(strings.Fields(s), " "))
	for _, st := range knownStatuses {
		if strings.ToLower(string(st)) == normalized {
			return st
		}
	}
	return StatusUnknown
}

// IsTerminal reports whether the unit counts as delivered.
func (s TaskStatus) IsTerminal() bool {
	return s == StatusFinished || s == StatusCompleted || s == StatusClosed
}

// =============================================================================
// TASK
// =============================================================================

// Task is one production unit. Bulk-generated tasks start and end on the same day.
type Task struct {
	ID                 string
	ClientID           string
	ServiceID          string
	Type               string
	Priority           Priority
	StartDate          calendar.Date
	Deadline           calendar.Date
	Description        string
	Status             TaskStatus
	Progress           int
	AssignedEmployeeID string

	// Amount is always zero for generated units; money lives on the package.
	Amount int64

	// Weak back-reference: the package may have been deleted since.
	PackageID            string
	PackageLineItemIndex *int

	CreatedAt time.Time
}

// LineItemIndex returns the back-referenced line item, or -1 when unlinked.
func (t Task) LineItemIndex() int {
	if t.PackageLineItemIndex == nil {
		return -1
	}
	return *t.PackageLineItemIndex
}

// IndexRef returns a fresh pointer to i.
func IndexRef(i int) *int {
	return &i
}
