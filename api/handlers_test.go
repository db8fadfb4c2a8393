/*
handlers_test.go - HTTP flow tests for the API handlers

Tests for:
- Package lifecycle: create, bulk schedule, deliver, milestones, completion
- Bulk session validation and partial commit failures
- Dangling task references after package deletion
- Plan preview with stored company holidays
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/fulfillment-engine/billing"
	"github.com/warp/fulfillment-engine/metrics"
	"github.com/warp/fulfillment-engine/schedule"
	"github.com/warp/fulfillment-engine/store/memory"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

type testServer struct {
	handler *Handler
	router  http.Handler
}

func newTestServer(t *testing.T, store Store) *testServer {
	t.Helper()
	if store == nil {
		store = memory.New()
	}
	reg := prometheus.NewRegistry()
	h := NewHandler(store, nil, metrics.New(reg))
	return &testServer{handler: h, router: NewRouter(h, RouterOptions{Gatherer: reg})}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

// seedPackage creates a client and a 6-unit poster package worth 8000 with
// an advance, a halfway milestone at 3 units and a final one at 6.
func (s *testServer) seedPackage(t *testing.T) PackageDTO {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/clients", CreateClientRequest{Name: "Acme Bakery"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	client := decode[ClientDTO](t, rec)

	rec = s.do(t, http.MethodPost, "/api/packages", map[string]any{
		"client_id":    client.ID,
		"name":         "March Posters",
		"period":       "Mar 2025",
		"total_amount": 8000,
		"line_items":   []map[string]any{{"service_name": "Poster Design", "quantity": 6}},
		"milestones": []map[string]any{
			{"label": "Advance", "percentage": "25", "is_advance": true},
			{"label": "Halfway", "percentage": "25", "trigger_at_quantity": 3},
			{"label": "Final", "percentage": "50", "trigger_at_quantity": 6},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[PackageDTO](t, rec)
}

// marchWeek is one item over Mon 2025-03-03 .. Sat 2025-03-08 (6 production days).
func marchWeek() LineItemConfigRequest {
	return LineItemConfigRequest{
		LineItemIndex: 0,
		Method:        "dateRange",
		AssigneeID:    "emp-7",
		Priority:      "high",
		Description:   "Poster",
		StartDate:     "2025-03-03",
		EndDate:       "2025-03-08",
	}
}

func (s *testServer) openSession(t *testing.T, packageID string) BulkSessionDTO {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/bulk-sessions", CreateBulkSessionRequest{PackageID: packageID})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[BulkSessionDTO](t, rec)
}

func (s *testServer) scheduleWeek(t *testing.T, packageID string) CommitResponse {
	t.Helper()
	session := s.openSession(t, packageID)
	rec := s.do(t, http.MethodPut, "/api/bulk-sessions/"+session.ID+"/items", marchWeek())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = s.do(t, http.MethodPost, "/api/bulk-sessions/"+session.ID+"/commit", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[CommitResponse](t, rec)
}

func (s *testServer) finish(t *testing.T, taskID string) TaskStatusResponse {
	t.Helper()
	rec := s.do(t, http.MethodPatch, "/api/tasks/"+taskID+"/status", UpdateTaskStatusRequest{Status: "Finished"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[TaskStatusResponse](t, rec)
}

// =============================================================================
// PACKAGE LIFECYCLE
// =============================================================================

func TestPackageLifecycle(t *testing.T) {
	srv := newTestServer(t, nil)

	// GIVEN: A package with an advance paid up front
	pkg := srv.seedPackage(t)
	assert.Equal(t, int64(2000), pkg.ReceivedAmount)
	assert.Equal(t, int64(6000), pkg.Balance)
	assert.Equal(t, 6, pkg.TotalQuantity)
	assert.Equal(t, billing.MilestoneReceived, pkg.Milestones[0].Status)

	// WHEN: The week is scheduled
	commit := srv.scheduleWeek(t, pkg.ID)

	// THEN: One task per unit, numbered in date order
	assert.Equal(t, 6, commit.Created)
	rec := srv.do(t, http.MethodGet, "/api/tasks?package_id="+pkg.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	tasks := decode[[]TaskDTO](t, rec)
	require.Len(t, tasks, 6)
	for _, task := range tasks {
		assert.Equal(t, "Not Started", task.Status)
		assert.Equal(t, "High", task.Priority)
		assert.Equal(t, task.StartDate, task.Deadline)
		require.NotNil(t, task.PackageLineItemIndex)
		assert.Equal(t, 0, *task.PackageLineItemIndex)
	}

	// WHEN: Three units are delivered
	var last TaskStatusResponse
	for _, id := range commit.TaskIDs[:3] {
		last = srv.finish(t, id)
	}

	// THEN: The halfway milestone became due on the third
	require.NotNil(t, last.Sync)
	assert.Equal(t, []int{1}, last.Sync.Triggered)
	assert.Equal(t, billing.MilestoneDue, last.Sync.Package.Milestones[1].Status)

	rec = srv.do(t, http.MethodGet, "/api/packages/"+pkg.ID+"/progress", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	progress := decode[billing.PackageProgress](t, rec)
	assert.Equal(t, 3, progress.Completed)
	assert.Equal(t, 50, progress.Percent)

	// WHEN: Halfway is paid, twice
	rec = srv.do(t, http.MethodPost, "/api/packages/"+pkg.ID+"/milestones/1/receive", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, int64(4000), decode[PackageDTO](t, rec).ReceivedAmount)

	rec = srv.do(t, http.MethodPost, "/api/packages/"+pkg.ID+"/milestones/1/receive", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// WHEN: Everything is delivered and the final payment arrives
	for _, id := range commit.TaskIDs[3:] {
		last = srv.finish(t, id)
	}
	require.NotNil(t, last.Sync)
	assert.Equal(t, []int{2}, last.Sync.Triggered)

	rec = srv.do(t, http.MethodPost, "/api/packages/"+pkg.ID+"/milestones/2/receive", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	done := decode[PackageDTO](t, rec)

	// THEN: The package is complete and fully paid
	assert.Equal(t, billing.PackageCompleted, done.Status)
	assert.Equal(t, int64(0), done.Balance)

	rec = srv.do(t, http.MethodGet, "/api/packages/"+pkg.ID+"/alerts", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	alerts := decode[[]billing.PaymentAlert](t, rec)
	// advance received, halfway due+received, final due+received
	assert.Len(t, alerts, 5)
}

func TestUpdatePackage_LoweredTriggerSyncs(t *testing.T) {
	srv := newTestServer(t, nil)

	// GIVEN: A scheduled package with one unit delivered
	pkg := srv.seedPackage(t)
	commit := srv.scheduleWeek(t, pkg.ID)
	srv.finish(t, commit.TaskIDs[0])

	// WHEN: The halfway trigger is lowered to 1
	rec := srv.do(t, http.MethodPut, "/api/packages/"+pkg.ID, map[string]any{
		"name":         "March Posters",
		"period":       "Mar 2025",
		"total_amount": 8000,
		"line_items":   []map[string]any{{"service_name": "Poster Design", "quantity": 6}},
		"milestones": []map[string]any{
			{"label": "Advance", "percentage": "25", "is_advance": true},
			{"label": "Halfway", "percentage": "25", "trigger_at_quantity": 1},
			{"label": "Final", "percentage": "50", "trigger_at_quantity": 6},
		},
	})

	// THEN: It is due straight away
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[PackageDTO](t, rec)
	assert.Equal(t, billing.MilestoneDue, updated.Milestones[1].Status)
	assert.Equal(t, billing.MilestoneReceived, updated.Milestones[0].Status)
}

func TestCreatePackage_Validation(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := srv.do(t, http.MethodPost, "/api/packages", map[string]any{"client_id": "missing", "name": "X"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	client := decode[ClientDTO](t, srv.do(t, http.MethodPost, "/api/clients", CreateClientRequest{Name: "Acme"}))
	rec = srv.do(t, http.MethodPost, "/api/packages", map[string]any{
		"client_id":  client.ID,
		"name":       "Bad milestone",
		"line_items": []map[string]any{{"service_name": "Poster", "quantity": 1}},
		"milestones": []map[string]any{{"label": "Too much", "percentage": "120"}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_request", decode[ErrorResponse](t, rec).Code)
}

// =============================================================================
// BULK SESSIONS
// =============================================================================

func TestPutItem_InexactDivisionRejected(t *testing.T) {
	srv := newTestServer(t, nil)
	pkg := srv.seedPackage(t)
	session := srv.openSession(t, pkg.ID)

	// GIVEN: Six units over five production days
	cfg := marchWeek()
	cfg.EndDate = "2025-03-07"

	// WHEN: The item is queued
	rec := srv.do(t, http.MethodPut, "/api/bulk-sessions/"+session.ID+"/items", cfg)

	// THEN: It is rejected with the fractional load and the queue stays empty
	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decode[ErrorResponse](t, rec)
	assert.Equal(t, "inexact_division", resp.Code)
	details, ok := resp.Details.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "1.2", details["per_day"])

	rec = srv.do(t, http.MethodGet, "/api/bulk-sessions/"+session.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[BulkSessionDTO](t, rec).Entries)
}

func TestPutItem_InvalidInput(t *testing.T) {
	srv := newTestServer(t, nil)
	pkg := srv.seedPackage(t)
	session := srv.openSession(t, pkg.ID)

	tests := []struct {
		name   string
		mutate func(*LineItemConfigRequest)
	}{
		{"bad date", func(c *LineItemConfigRequest) { c.StartDate = "03/03/2025" }},
		{"bad priority", func(c *LineItemConfigRequest) { c.Priority = "whenever" }},
		{"no assignee", func(c *LineItemConfigRequest) { c.AssigneeID = "" }},
		{"unknown line item", func(c *LineItemConfigRequest) { c.LineItemIndex = 4 }},
		{"unknown method", func(c *LineItemConfigRequest) { c.Method = "weekly" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := marchWeek()
			tt.mutate(&cfg)
			rec := srv.do(t, http.MethodPut, "/api/bulk-sessions/"+session.ID+"/items", cfg)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func TestBulkSession_RemoveAndDiscard(t *testing.T) {
	srv := newTestServer(t, nil)
	pkg := srv.seedPackage(t)
	session := srv.openSession(t, pkg.ID)

	rec := srv.do(t, http.MethodPut, "/api/bulk-sessions/"+session.ID+"/items", marchWeek())
	require.Equal(t, http.StatusOK, rec.Code)

	rec = srv.do(t, http.MethodDelete, "/api/bulk-sessions/"+session.ID+"/items/0", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = srv.do(t, http.MethodDelete, "/api/bulk-sessions/"+session.ID+"/items/0", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Committing an empty queue is a client error.
	rec = srv.do(t, http.MethodPost, "/api/bulk-sessions/"+session.ID+"/commit", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = srv.do(t, http.MethodDelete, "/api/bulk-sessions/"+session.ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = srv.do(t, http.MethodGet, "/api/bulk-sessions/"+session.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// flakyStore fails every task write after the first failAfter.
type flakyStore struct {
	*memory.Store
	failAfter int
	created   int
}

func (f *flakyStore) CreateTask(ctx context.Context, task schedule.Task) (string, error) {
	if f.created >= f.failAfter {
		return "", errors.New("connection reset")
	}
	f.created++
	return f.Store.CreateTask(ctx, task)
}

func TestCommit_PartialFailure(t *testing.T) {
	// GIVEN: A store that drops the connection after two writes
	store := &flakyStore{Store: memory.New(), failAfter: 2}
	srv := newTestServer(t, store)
	pkg := srv.seedPackage(t)
	session := srv.openSession(t, pkg.ID)
	rec := srv.do(t, http.MethodPut, "/api/bulk-sessions/"+session.ID+"/items", marchWeek())
	require.Equal(t, http.StatusOK, rec.Code)

	// WHEN: The queue is committed
	rec = srv.do(t, http.MethodPost, "/api/bulk-sessions/"+session.ID+"/commit", nil)

	// THEN: The response reports the committed prefix
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decode[ErrorResponse](t, rec)
	assert.Equal(t, "partial_commit", resp.Code)
	details := resp.Details.(map[string]any)
	assert.Equal(t, float64(2), details["committed"])
	assert.Equal(t, float64(6), details["total"])

	// AND: The two tasks stay written and the session stays open
	tasks, err := store.ListTasksByPackage(context.Background(), pkg.ID)
	require.NoError(t, err)
	assert.Len(t, tasks, 2)

	rec = srv.do(t, http.MethodGet, "/api/bulk-sessions/"+session.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[BulkSessionDTO](t, rec).Entries, 1)

	rec = srv.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "fulfillment_bulk_commit_failures_total 1")
	assert.Contains(t, body, `fulfillment_tasks_created_total{method="dateRange"} 2`)
}

// gatedStore holds every task write until release is closed.
type gatedStore struct {
	*memory.Store
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *gatedStore) CreateTask(ctx context.Context, task schedule.Task) (string, error) {
	g.once.Do(func() { close(g.entered) })
	<-g.release
	return g.Store.CreateTask(ctx, task)
}

func TestCommit_DoubleSubmitRejected(t *testing.T) {
	// GIVEN: A queued week whose first task write is held open
	store := &gatedStore{Store: memory.New(), entered: make(chan struct{}), release: make(chan struct{})}
	srv := newTestServer(t, store)
	pkg := srv.seedPackage(t)
	session := srv.openSession(t, pkg.ID)
	rec := srv.do(t, http.MethodPut, "/api/bulk-sessions/"+session.ID+"/items", marchWeek())
	require.Equal(t, http.StatusOK, rec.Code)

	path := "/api/bulk-sessions/" + session.ID + "/commit"
	first := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		out := httptest.NewRecorder()
		srv.router.ServeHTTP(out, req)
		first <- out
	}()
	<-store.entered

	// WHEN: The commit is submitted again while the first one runs
	rec = srv.do(t, http.MethodPost, path, nil)

	// THEN: The second submit conflicts and the first creates each unit once
	assert.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
	assert.Equal(t, "conflict", decode[ErrorResponse](t, rec).Code)

	close(store.release)
	done := <-first
	require.Equal(t, http.StatusCreated, done.Code, done.Body.String())

	tasks, err := store.ListTasksByPackage(context.Background(), pkg.ID)
	require.NoError(t, err)
	assert.Len(t, tasks, 6)

	rec = srv.do(t, http.MethodPost, path, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCommit_UsesHolidaysDeclaredAfterQueueing(t *testing.T) {
	srv := newTestServer(t, nil)

	// GIVEN: A week queued against company holidays while none exist
	pkg := srv.seedPackage(t)
	session := srv.openSession(t, pkg.ID)
	item := marchWeek()
	item.UseCompanyHolidays = true
	rec := srv.do(t, http.MethodPut, "/api/bulk-sessions/"+session.ID+"/items", item)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Empty(t, decode[PlanDTO](t, rec).Holidays)

	// WHEN: Wednesday becomes a holiday before the commit
	rec = srv.do(t, http.MethodPost, "/api/holidays", CreateHolidayRequest{Date: "2025-03-05", Name: "Offsite"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = srv.do(t, http.MethodGet, "/api/bulk-sessions/"+session.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	preview := decode[BulkSessionDTO](t, rec)
	require.Len(t, preview.Plans, 1)
	assert.Equal(t, []string{"2025-03-05"}, preview.Plans[0].Holidays)
	assert.True(t, preview.Entries[0].UseCompanyHolidays)

	rec = srv.do(t, http.MethodPost, "/api/bulk-sessions/"+session.ID+"/commit", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// THEN: Nothing lands on Wednesday and Tuesday carries its unit
	tasks, err := srv.handler.Store.ListTasksByPackage(context.Background(), pkg.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 6)
	perDay := map[string]int{}
	for _, task := range tasks {
		perDay[task.StartDate.String()]++
	}
	assert.NotContains(t, perDay, "2025-03-05")
	assert.Equal(t, 2, perDay["2025-03-04"])
}

// =============================================================================
// DANGLING REFERENCES
// =============================================================================

func TestDeletePackage_TasksDangling(t *testing.T) {
	srv := newTestServer(t, nil)

	// GIVEN: A scheduled package
	pkg := srv.seedPackage(t)
	commit := srv.scheduleWeek(t, pkg.ID)

	// WHEN: The package is deleted
	rec := srv.do(t, http.MethodDelete, "/api/packages/"+pkg.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// THEN: Its tasks survive and still point at it
	rec = srv.do(t, http.MethodGet, "/api/tasks?package_id="+pkg.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]TaskDTO](t, rec), 6)

	// AND: Progress is gone but task updates still work
	rec = srv.do(t, http.MethodGet, "/api/packages/"+pkg.ID+"/progress", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	resp := srv.finish(t, commit.TaskIDs[0])
	assert.Nil(t, resp.Sync)
	assert.Equal(t, "Finished", resp.Task.Status)

	rec = srv.do(t, http.MethodDelete, "/api/packages/"+pkg.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateTaskStatus_Errors(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := srv.do(t, http.MethodPatch, "/api/tasks/missing/status", UpdateTaskStatusRequest{Status: "Finished"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = srv.do(t, http.MethodPatch, "/api/tasks/missing/status", UpdateTaskStatusRequest{Status: "Done-ish"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// PREVIEW & HOLIDAYS
// =============================================================================

func TestPreview_WithCompanyHolidays(t *testing.T) {
	srv := newTestServer(t, nil)

	// GIVEN: A stored holiday on Wednesday 2025-03-05
	rec := srv.do(t, http.MethodPost, "/api/holidays", CreateHolidayRequest{Date: "2025-03-05", Name: "Offsite"})
	require.Equal(t, http.StatusCreated, rec.Code)

	// WHEN: Twelve units are previewed over the week
	req := PreviewRequest{Quantity: 12, LineItemConfigRequest: marchWeek()}
	req.UseCompanyHolidays = true
	rec = srv.do(t, http.MethodPost, "/api/schedule/preview", req)

	// THEN: Wednesday's two units land on Tuesday
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	plan := decode[PlanDTO](t, rec)
	assert.Equal(t, 2, plan.PerDay)
	assert.Equal(t, []string{"2025-03-05"}, plan.Holidays)

	units := map[string]int{}
	total := 0
	for _, row := range plan.Days {
		units[row.Date] = row.Units
		total += row.Units
	}
	assert.Equal(t, 12, total)
	assert.Equal(t, 4, units["2025-03-04"])
	assert.NotContains(t, units, "2025-03-05")
}

func TestHolidays_CRUD(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := srv.do(t, http.MethodPost, "/api/holidays", CreateHolidayRequest{Date: "2025-12-25", Name: "Christmas", Recurring: true})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[HolidayDTO](t, rec)

	rec = srv.do(t, http.MethodPost, "/api/holidays", CreateHolidayRequest{Date: "25/12/2025", Name: "Christmas"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = srv.do(t, http.MethodGet, "/api/holidays", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Christmas")

	rec = srv.do(t, http.MethodDelete, "/api/holidays/"+created.ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = srv.do(t, http.MethodDelete, "/api/holidays/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// SESSION REGISTRY
// =============================================================================

func TestSessionRegistry_ExpiresIdleSessions(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	reg := newSessionRegistry(time.Hour)
	reg.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		reg.add(schedule.NewSession(fmt.Sprintf("s-%d", i), schedule.Target{}, nil))
	}

	// s-1 is touched after 40 minutes, s-0 is not.
	now = now.Add(40 * time.Minute)
	_, err := reg.get("s-1")
	require.NoError(t, err)

	now = now.Add(30 * time.Minute)
	_, err = reg.get("s-0")
	assert.ErrorIs(t, err, errSessionNotFound)
	_, err = reg.get("s-1")
	assert.NoError(t, err)
	assert.Equal(t, 1, reg.len())
}
