/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Dates travel as
  "YYYY-MM-DD" strings, amounts as integer currency units and milestone
  percentages as decimal strings.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

TYPES:
  Clients & holidays:
    ClientDTO, CreateClientRequest, HolidayDTO, CreateHolidayRequest

  Packages:
    PackageDTO, PackageRequest, MilestoneRequest, SyncDTO

  Tasks:
    TaskDTO, UpdateTaskStatusRequest, TaskStatusResponse

  Bulk scheduling:
    CreateBulkSessionRequest, LineItemConfigRequest, PlanDTO,
    BulkSessionDTO, CommitResponse, PreviewRequest

VALIDATION:
  Validation is done in handlers and the domain packages, not in DTOs.

SEE ALSO:
  - handlers.go, bulk.go: Use these types
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/fulfillment-engine/billing"
	"github.com/warp/fulfillment-engine/calendar"
	"github.com/warp/fulfillment-engine/schedule"
)

// =============================================================================
// CLIENTS & HOLIDAYS
// =============================================================================

// ClientDTO represents a client in API responses.
type ClientDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// CreateClientRequest is the request to create a client.
type CreateClientRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func toClientDTO(c billing.Client) ClientDTO {
	return ClientDTO{ID: c.ID, Name: c.Name, Email: c.Email, CreatedAt: c.CreatedAt.Format(time.RFC3339)}
}

// HolidayDTO represents a company holiday.
type HolidayDTO struct {
	ID        string `json:"id"`
	Date      string `json:"date"`
	Name      string `json:"name"`
	Recurring bool   `json:"recurring"`
}

// CreateHolidayRequest is the request to declare a holiday.
type CreateHolidayRequest struct {
	Date      string `json:"date"`
	Name      string `json:"name"`
	Recurring bool   `json:"recurring"`
}

func toHolidayDTO(h calendar.Holiday) HolidayDTO {
	return HolidayDTO{ID: h.ID, Date: h.Date.String(), Name: h.Name, Recurring: h.Recurring}
}

// =============================================================================
// PACKAGES
// =============================================================================

// PackageDTO is a package with its derived totals.
type PackageDTO struct {
	billing.Package
	TotalQuantity int   `json:"total_quantity"`
	Balance       int64 `json:"balance"`
}

func toPackageDTO(p billing.Package) PackageDTO {
	if p.LineItems == nil {
		p.LineItems = []billing.LineItem{}
	}
	if p.Milestones == nil {
		p.Milestones = []billing.PaymentMilestone{}
	}
	return PackageDTO{Package: p, TotalQuantity: p.TotalQuantity(), Balance: p.Balance()}
}

// MilestoneRequest describes one payment milestone on create or edit.
type MilestoneRequest struct {
	Label             string          `json:"label"`
	Percentage        decimal.Decimal `json:"percentage"`
	TriggerAtQuantity int             `json:"trigger_at_quantity"`
	IsAdvance         bool            `json:"is_advance"`
}

// PackageRequest is the body of package create and edit. ClientID is only
// read on create.
type PackageRequest struct {
	ClientID    string             `json:"client_id"`
	Name        string             `json:"name"`
	Period      string             `json:"period"`
	TotalAmount int64              `json:"total_amount"`
	LineItems   []billing.LineItem `json:"line_items"`
	Milestones  []MilestoneRequest `json:"milestones"`
}

func (r PackageRequest) milestoneInputs() []billing.MilestoneInput {
	inputs := make([]billing.MilestoneInput, len(r.Milestones))
	for i, m := range r.Milestones {
		inputs[i] = billing.MilestoneInput{
			Label:             m.Label,
			Percentage:        m.Percentage,
			TriggerAtQuantity: m.TriggerAtQuantity,
			IsAdvance:         m.IsAdvance,
		}
	}
	return inputs
}

// SyncDTO reports the outcome of a milestone sync.
type SyncDTO struct {
	Package   PackageDTO `json:"package"`
	Triggered []int      `json:"triggered"`
	Completed int        `json:"completed"`
}

func toSyncDTO(r billing.SyncResult) SyncDTO {
	triggered := r.Triggered
	if triggered == nil {
		triggered = []int{}
	}
	return SyncDTO{Package: toPackageDTO(r.Package), Triggered: triggered, Completed: r.Completed}
}

// =============================================================================
// TASKS
// =============================================================================

// TaskDTO represents a task in API responses.
type TaskDTO struct {
	ID                   string `json:"id"`
	ClientID             string `json:"client_id"`
	ServiceID            string `json:"service_id"`
	Type                 string `json:"type,omitempty"`
	Priority             string `json:"priority"`
	StartDate            string `json:"start_date"`
	Deadline             string `json:"deadline"`
	Description          string `json:"description"`
	Status               string `json:"status"`
	Progress             int    `json:"progress"`
	AssignedEmployeeID   string `json:"assigned_employee_id"`
	Amount               int64  `json:"amount"`
	PackageID            string `json:"package_id,omitempty"`
	PackageLineItemIndex *int   `json:"package_line_item_index,omitempty"`
	CreatedAt            string `json:"created_at,omitempty"`
}

func toTaskDTO(t schedule.Task) TaskDTO {
	return TaskDTO{
		ID:                   t.ID,
		ClientID:             t.ClientID,
		ServiceID:            t.ServiceID,
		Type:                 t.Type,
		Priority:             string(t.Priority),
		StartDate:            t.StartDate.String(),
		Deadline:             t.Deadline.String(),
		Description:          t.Description,
		Status:               string(t.Status),
		Progress:             t.Progress,
		AssignedEmployeeID:   t.AssignedEmployeeID,
		Amount:               t.Amount,
		PackageID:            t.PackageID,
		PackageLineItemIndex: t.PackageLineItemIndex,
		CreatedAt:            t.CreatedAt.Format(time.RFC3339),
	}
}

// UpdateTaskStatusRequest moves a task through its workflow.
type UpdateTaskStatusRequest struct {
	Status string `json:"status"`
}

// TaskStatusResponse is the updated task plus the milestone sync it caused,
// if the task belongs to a live package.
type TaskStatusResponse struct {
	Task TaskDTO  `json:"task"`
	Sync *SyncDTO `json:"sync,omitempty"`
}

// =============================================================================
// BULK SCHEDULING
// =============================================================================

// CreateBulkSessionRequest opens a line-item queue for a package.
type CreateBulkSessionRequest struct {
	PackageID string `json:"package_id"`
	TaskType  string `json:"task_type"`
}

// LineItemConfigRequest configures one line item. Method is "dateRange"
// (start_date, end_date, holidays) or "specificDays" (dates). With
// use_company_holidays the stored holidays inside the range are added to
// the explicit list.
type LineItemConfigRequest struct {
	LineItemIndex      int      `json:"line_item_index"`
	Method             string   `json:"method"`
	AssigneeID         string   `json:"assignee_id"`
	Priority           string   `json:"priority"`
	Description        string   `json:"description"`
	StartDate          string   `json:"start_date,omitempty"`
	EndDate            string   `json:"end_date,omitempty"`
	Holidays           []string `json:"holidays,omitempty"`
	UseCompanyHolidays bool     `json:"use_company_holidays,omitempty"`
	Dates              []string `json:"dates,omitempty"`
}

// DayCountDTO is one row of a plan.
type DayCountDTO struct {
	Date  string `json:"date"`
	Units int    `json:"units"`
}

// PlanDTO is the day-by-day allocation of one line item.
type PlanDTO struct {
	LineItemIndex int           `json:"line_item_index"`
	Method        string        `json:"method"`
	PerDay        int           `json:"per_day"`
	Total         int           `json:"total"`
	Days          []DayCountDTO `json:"days"`
	Holidays      []string      `json:"holidays"`
}

func toPlanDTO(p schedule.Plan) PlanDTO {
	dto := PlanDTO{
		LineItemIndex: p.LineItemIndex,
		Method:        string(p.Method),
		PerDay:        p.PerDay,
		Total:         p.Total,
		Days:          make([]DayCountDTO, 0, len(p.Days)),
		Holidays:      dateStrings(p.Holidays),
	}
	for _, row := range p.Counts() {
		dto.Days = append(dto.Days, DayCountDTO{Date: row.Date.String(), Units: row.Units})
	}
	return dto
}

// LineItemConfigDTO is a queued configuration as stored in the session.
type LineItemConfigDTO struct {
	LineItemIndex int      `json:"line_item_index"`
	ServiceName   string   `json:"service_name"`
	Method        string   `json:"method"`
	AssigneeID    string   `json:"assignee_id"`
	Priority      string   `json:"priority"`
	Description   string   `json:"description,omitempty"`
	StartDate     string   `json:"start_date,omitempty"`
	EndDate       string   `json:"end_date,omitempty"`
	Holidays      []string `json:"holidays,omitempty"`
	Dates         []string `json:"dates,omitempty"`

	UseCompanyHolidays bool `json:"use_company_holidays,omitempty"`
}

// BulkSessionDTO is the state of a line-item queue.
type BulkSessionDTO struct {
	ID        string              `json:"id"`
	PackageID string              `json:"package_id"`
	Entries   []LineItemConfigDTO `json:"entries"`
	Plans     []PlanDTO           `json:"plans"`
}

// CommitResponse reports a finished bulk commit.
type CommitResponse struct {
	Created int       `json:"created"`
	TaskIDs []string  `json:"task_ids"`
	Plans   []PlanDTO `json:"plans"`
}

// PreviewRequest plans a single line item without a session.
type PreviewRequest struct {
	Quantity int `json:"quantity"`
	LineItemConfigRequest
}

func dateStrings(dates []calendar.Date) []string {
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = d.String()
	}
	return out
}

// =============================================================================
// SCENARIOS & ERRORS
// =============================================================================

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}
