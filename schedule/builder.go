package schedule

import (
	"fmt"
	"strings"

	"github.com/warp/fulfillment-engine/calendar"
)

// DefaultEntryText labels generated tasks when no description is given.
const DefaultEntryText = "Entry"

// Template carries the fields every generated task inherits.
type Template struct {
	ClientID      string
	ServiceID     string
	Type          string
	Priority      Priority
	AssigneeID    string
	PackageID     string
	LineItemIndex *int
}

// Build materializes one task per production unit. For each date in order it
// emits base + extras[date] tasks dated that day, numbered "<text> k/total"
// with k counting from 1 across the whole sequence. Nothing is persisted.
func Build(dates []calendar.Date, base int, extras calendar.Extras, tpl Template, total int, text string) []Task {
	label := strings.TrimSpace(text)
	if label == "" {
		label = DefaultEntryText
	}

	tasks := make([]Task, 0, total)
	k := 0
	for _, d := range dates {
		n := base + extras.Get(d)
		for i := 0; i < n; i++ {
			k++
			task := Task{
				ClientID:           tpl.ClientID,
				ServiceID:          tpl.ServiceID,
				Type:               tpl.Type,
				Priority:           tpl.Priority,
				StartDate:          d,
				Deadline:           d,
				Description:        fmt.Sprintf("%s %d/%d", label, k, total),
				Status:             StatusNotStarted,
				AssignedEmployeeID: tpl.AssigneeID,
				PackageID:          tpl.PackageID,
			}
			if tpl.LineItemIndex != nil {
				task.PackageLineItemIndex = IndexRef(*tpl.LineItemIndex)
			}
			tasks = append(tasks, task)
		}
	}
	return tasks
}
