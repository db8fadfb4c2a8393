/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the store with realistic
	data for demos. Each scenario creates clients, holidays, packages and
	scheduled tasks that show one part of the fulfillment flow.

AVAILABLE SCENARIOS:

	retainer-kickoff:  New package with an advance paid, nothing scheduled
	mid-delivery:      Scheduled package half delivered, a milestone due
	holiday-heavy:     Date-range schedule with holiday load redistributed
	dangling-tasks:    Package deleted after scheduling; tasks remain

HOW SCENARIOS WORK:
 1. Reset the store (clear all data)
 2. Create client and company holidays
 3. Create the package through billing.Service
 4. Optionally queue line items and commit them as tasks
 5. Optionally finish tasks and sync milestones

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "mid-delivery"}

NOTE:

	Scenarios reset the store. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Package and task handlers
  - bulk.go: Bulk scheduling sessions
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/warp/fulfillment-engine/billing"
	"github.com/warp/fulfillment-engine/calendar"
	"github.com/warp/fulfillment-engine/schedule"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "retainer-kickoff",
		Name:        "Retainer Kickoff",
		Description: "Quarterly social media package with a 25% advance received and nothing scheduled yet",
	},
	{
		ID:          "mid-delivery",
		Name:        "Mid Delivery",
		Description: "Posters scheduled over March, half delivered; the 50% milestone is due",
	},
	{
		ID:          "holiday-heavy",
		Name:        "Holiday Heavy",
		Description: "Date-range schedule where holiday load is moved onto neighbouring days",
	},
	{
		ID:          "dangling-tasks",
		Name:        "Dangling Tasks",
		Description: "Package deleted after scheduling; its tasks still reference it",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	for _, s := range scenarios {
		if s.ID == h.currentScenario {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ScenarioID string `json:"scenario_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	var load func(context.Context) error
	switch req.ScenarioID {
	case "retainer-kickoff":
		load = h.loadRetainerKickoffScenario
	case "mid-delivery":
		load = h.loadMidDeliveryScenario
	case "holiday-heavy":
		load = h.loadHolidayHeavyScenario
	case "dangling-tasks":
		load = h.loadDanglingTasksScenario
	default:
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	ctx := r.Context()
	if err := h.ResetStore(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset store", err)
		return
	}
	if err := load(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}

	h.currentScenario = req.ScenarioID
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// ResetDatabase clears all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.ResetStore(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset store", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// ResetStore clears the store and every open bulk session.
func (h *Handler) ResetStore(ctx context.Context) error {
	if err := h.Store.Reset(ctx); err != nil {
		return err
	}
	h.sessions.clear()
	h.currentScenario = ""
	return nil
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) loadRetainerKickoffScenario(ctx context.Context) error {
	client, err := h.seedClient(ctx, "Acme Bakery", "ops@acme.test")
	if err != nil {
		return err
	}

	_, err = h.Billing.Create(ctx, billing.CreateInput{
		ClientID:    client.ID,
		ClientName:  client.Name,
		Name:        "Social Media Q2",
		Period:      "Apr-Jun 2025",
		TotalAmount: 12000,
		LineItems: []billing.LineItem{
			{ServiceName: "Poster Design", Quantity: 24},
			{ServiceName: "Reel Editing", Quantity: 12},
		},
		Milestones: []billing.MilestoneInput{
			{Label: "Advance", Percentage: decimal.NewFromInt(25), IsAdvance: true},
			{Label: "Halfway", Percentage: decimal.NewFromInt(25), TriggerAtQuantity: 18},
			{Label: "Final", Percentage: decimal.NewFromInt(50), TriggerAtQuantity: 36},
		},
	})
	return err
}

func (h *Handler) loadMidDeliveryScenario(ctx context.Context) error {
	client, err := h.seedClient(ctx, "Northwind Studio", "hello@northwind.test")
	if err != nil {
		return err
	}

	// 2025-03-03 (Mon) .. 2025-03-15 (Sat): 12 production days.
	pkg, err := h.Billing.Create(ctx, billing.CreateInput{
		ClientID:    client.ID,
		ClientName:  client.Name,
		Name:        "March Posters",
		Period:      "Mar 2025",
		TotalAmount: 6000,
		LineItems:   []billing.LineItem{{ServiceName: "Poster Design", Quantity: 12}},
		Milestones: []billing.MilestoneInput{
			{Label: "Halfway", Percentage: decimal.NewFromInt(50), TriggerAtQuantity: 6},
			{Label: "Final", Percentage: decimal.NewFromInt(50), TriggerAtQuantity: 12},
		},
	})
	if err != nil {
		return err
	}

	ids, err := h.commitScenario(ctx, pkg, schedule.LineItemConfig{
		LineItemIndex: 0,
		Method:        schedule.MethodDateRange,
		AssigneeID:    "emp-designer",
		Priority:      schedule.PriorityHigh,
		Description:   "March poster",
		StartDate:     calendar.MustParseDate("2025-03-03"),
		EndDate:       calendar.MustParseDate("2025-03-15"),
	})
	if err != nil {
		return err
	}

	for _, id := range ids[:6] {
		if _, err := h.Store.UpdateTaskStatus(ctx, id, schedule.StatusFinished); err != nil {
			return err
		}
	}
	_, err = h.Billing.SyncMilestones(ctx, pkg.ID)
	return err
}

func (h *Handler) loadHolidayHeavyScenario(ctx context.Context) error {
	client, err := h.seedClient(ctx, "Blue Harbor Cafe", "")
	if err != nil {
		return err
	}

	founders := calendar.Holiday{Date: calendar.MustParseDate("2025-03-12"), Name: "Founders Day", Recurring: true}
	if _, err := h.Store.CreateHoliday(ctx, founders); err != nil {
		return err
	}

	pkg, err := h.Billing.Create(ctx, billing.CreateInput{
		ClientID:    client.ID,
		ClientName:  client.Name,
		Name:        "Spring Campaign",
		Period:      "Mar 2025",
		TotalAmount: 9000,
		LineItems:   []billing.LineItem{{ServiceName: "Story Design", Quantity: 24}},
		Milestones: []billing.MilestoneInput{
			{Label: "On delivery", Percentage: decimal.NewFromInt(100), TriggerAtQuantity: 24},
		},
	})
	if err != nil {
		return err
	}

	// 12 production days at 2 per day; the Wednesday and Friday loads move.
	_, err = h.commitScenario(ctx, pkg, schedule.LineItemConfig{
		LineItemIndex:      0,
		Method:             schedule.MethodDateRange,
		AssigneeID:         "emp-illustrator",
		Description:        "Story",
		StartDate:          calendar.MustParseDate("2025-03-10"),
		EndDate:            calendar.MustParseDate("2025-03-22"),
		Holidays:           []calendar.Date{calendar.MustParseDate("2025-03-14")},
		UseCompanyHolidays: true,
	})
	return err
}

func (h *Handler) loadDanglingTasksScenario(ctx context.Context) error {
	client, err := h.seedClient(ctx, "Old Mill Brewery", "")
	if err != nil {
		return err
	}

	pkg, err := h.Billing.Create(ctx, billing.CreateInput{
		ClientID:    client.ID,
		ClientName:  client.Name,
		Name:        "Cancelled Launch",
		TotalAmount: 3000,
		LineItems:   []billing.LineItem{{ServiceName: "Banner Design", Quantity: 3}},
	})
	if err != nil {
		return err
	}

	_, err = h.commitScenario(ctx, pkg, schedule.LineItemConfig{
		LineItemIndex: 0,
		Method:        schedule.MethodSpecificDays,
		AssigneeID:    "emp-designer",
		Dates: []calendar.Date{
			calendar.MustParseDate("2025-05-05"),
			calendar.MustParseDate("2025-05-07"),
			calendar.MustParseDate("2025-05-09"),
		},
	})
	if err != nil {
		return err
	}
	return h.Billing.Delete(ctx, pkg.ID)
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) seedClient(ctx context.Context, name, email string) (billing.Client, error) {
	c := billing.Client{Name: name, Email: email, CreatedAt: time.Now().UTC()}
	id, err := h.Store.CreateClient(ctx, c)
	if err != nil {
		return billing.Client{}, err
	}
	c.ID = id
	return c, nil
}

// commitScenario schedules cfgs for pkg through a throwaway session.
func (h *Handler) commitScenario(ctx context.Context, pkg billing.Package, cfgs ...schedule.LineItemConfig) ([]string, error) {
	target := schedule.Target{PackageID: pkg.ID, ClientID: pkg.ClientID}
	for _, item := range pkg.LineItems {
		target.LineItems = append(target.LineItems, schedule.LineItem{ServiceName: item.ServiceName, Quantity: item.Quantity})
	}

	session := schedule.NewSession(uuid.NewString(), target, h.log, schedule.WithCalendar(h.Store))
	for _, cfg := range cfgs {
		if _, err := session.AddOrReplace(ctx, cfg); err != nil {
			return nil, err
		}
	}
	result, err := session.CommitAll(ctx, h.Store, nil)
	if err != nil {
		return nil, err
	}
	h.recordCreated(result.Plans, len(result.TaskIDs))
	return result.TaskIDs, nil
}
