/*
handlers.go - HTTP API handlers for the fulfillment engine

PURPOSE:
  Exposes clients, holidays, packages, tasks and payment alerts via REST.
  Handles HTTP request/response and JSON serialization and delegates to
  billing.Service and the store.

ENDPOINTS:
  Clients:
    GET    /api/clients                      List clients
    POST   /api/clients                      Create client
    GET    /api/clients/{id}                 Get client

  Holidays:
    GET    /api/holidays                     List company holidays
    POST   /api/holidays                     Declare holiday
    DELETE /api/holidays/{id}                Delete holiday

  Packages:
    GET    /api/packages?client_id=          List packages
    POST   /api/packages                     Create package
    GET    /api/packages/{id}                Get package
    PUT    /api/packages/{id}                Edit package (then re-sync)
    DELETE /api/packages/{id}                Delete package (tasks stay)
    GET    /api/packages/{id}/progress       Live completion
    POST   /api/packages/{id}/sync           Re-evaluate milestones
    POST   /api/packages/{id}/milestones/{index}/receive
    GET    /api/packages/{id}/alerts         Payment alerts

  Tasks:
    GET    /api/tasks?package_id=            List tasks
    PATCH  /api/tasks/{id}/status            Change status (re-syncs package)

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, inexact division, invalid input
  - 404: Resource not found
  - 409: Milestone already received
  - 500: Store failures, partial bulk commits

SECURITY NOTE:
  No authentication or authorization. Assumed to be handled upstream.

SEE ALSO:
  - bulk.go: Bulk scheduling sessions
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/warp/fulfillment-engine/billing"
	"github.com/warp/fulfillment-engine/calendar"
	"github.com/warp/fulfillment-engine/metrics"
	"github.com/warp/fulfillment-engine/schedule"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Store is everything the API reads and writes. store/sqlite, store/memory
// and store/mongo all satisfy it.
type Store interface {
	billing.Store
	billing.TaskLister
	billing.AlertEmitter
	schedule.TaskCreator
	calendar.HolidayCalendar

	GetTask(ctx context.Context, id string) (schedule.Task, error)
	ListTasks(ctx context.Context) ([]schedule.Task, error)
	UpdateTaskStatus(ctx context.Context, id string, status schedule.TaskStatus) (schedule.Task, error)

	ListPackages(ctx context.Context, clientID string) ([]billing.Package, error)
	ListPaymentAlerts(ctx context.Context, packageID string) ([]billing.PaymentAlert, error)

	CreateClient(ctx context.Context, c billing.Client) (string, error)
	GetClient(ctx context.Context, id string) (billing.Client, error)
	ListClients(ctx context.Context) ([]billing.Client, error)

	CreateHoliday(ctx context.Context, h calendar.Holiday) (string, error)
	DeleteHoliday(ctx context.Context, id string) error
	ListHolidays(ctx context.Context) ([]calendar.Holiday, error)

	Reset(ctx context.Context) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   Store
	Billing *billing.Service

	log      *zap.Logger
	metrics  *metrics.Metrics
	sessions *sessionRegistry

	// Track currently loaded scenario
	currentScenario string
}

// NewHandler creates a handler. log and m may be nil.
func NewHandler(store Store, log *zap.Logger, m *metrics.Metrics) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		Store:    store,
		Billing:  billing.NewService(store, store, store, billing.WithLogger(log), billing.WithMetrics(m)),
		log:      log,
		metrics:  m,
		sessions: newSessionRegistry(defaultSessionTTL),
	}
}

// =============================================================================
// CLIENT HANDLERS
// =============================================================================

// ListClients returns all clients.
func (h *Handler) ListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.Store.ListClients(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list clients", err)
		return
	}

	dtos := make([]ClientDTO, len(clients))
	for i, c := range clients {
		dtos[i] = toClientDTO(c)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetClient returns a single client.
func (h *Handler) GetClient(w http.ResponseWriter, r *http.Request) {
	c, err := h.Store.GetClient(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, "Failed to get client", err)
		return
	}
	writeJSON(w, http.StatusOK, toClientDTO(c))
}

// CreateClient creates a new client.
func (h *Handler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var req CreateClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeError(w, http.StatusBadRequest, "Name is required", nil)
		return
	}

	c := billing.Client{Name: name, Email: strings.TrimSpace(req.Email), CreatedAt: time.Now().UTC()}
	id, err := h.Store.CreateClient(r.Context(), c)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create client", err)
		return
	}
	c.ID = id

	writeJSON(w, http.StatusCreated, toClientDTO(c))
}

// =============================================================================
// HOLIDAY HANDLERS
// =============================================================================

// ListHolidays returns all holidays.
// GET /api/holidays
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	holidays, err := h.Store.ListHolidays(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get holidays", err)
		return
	}

	dtos := make([]HolidayDTO, 0, len(holidays))
	for _, hol := range holidays {
		dtos = append(dtos, toHolidayDTO(hol))
	}
	writeJSON(w, http.StatusOK, map[string]any{"holidays": dtos})
}

// CreateHoliday declares a holiday. Saving the same date and name again
// updates the existing one.
// POST /api/holidays
func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	var req CreateHolidayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Date == "" || strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "Date and name are required", nil)
		return
	}

	date, err := calendar.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	holiday := calendar.Holiday{Date: date, Name: strings.TrimSpace(req.Name), Recurring: req.Recurring}
	id, err := h.Store.CreateHoliday(r.Context(), holiday)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create holiday", err)
		return
	}
	holiday.ID = id

	writeJSON(w, http.StatusCreated, toHolidayDTO(holiday))
}

// DeleteHoliday deletes a holiday.
// DELETE /api/holidays/{id}
func (h *Handler) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteHoliday(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, "Failed to delete holiday", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
}

// =============================================================================
// PACKAGE HANDLERS
// =============================================================================

// ListPackages returns packages, optionally for one client.
func (h *Handler) ListPackages(w http.ResponseWriter, r *http.Request) {
	packages, err := h.Store.ListPackages(r.Context(), r.URL.Query().Get("client_id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list packages", err)
		return
	}

	dtos := make([]PackageDTO, len(packages))
	for i, p := range packages {
		dtos[i] = toPackageDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetPackage returns a single package.
func (h *Handler) GetPackage(w http.ResponseWriter, r *http.Request) {
	pkg, err := h.Store.GetPackage(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, "Failed to get package", err)
		return
	}
	writeJSON(w, http.StatusOK, toPackageDTO(pkg))
}

// CreatePackage creates a package for an existing client.
func (h *Handler) CreatePackage(w http.ResponseWriter, r *http.Request) {
	var req PackageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	ctx := r.Context()

	client, err := h.Store.GetClient(ctx, req.ClientID)
	if err != nil {
		writeServiceError(w, "Failed to load client", err)
		return
	}

	pkg, err := h.Billing.Create(ctx, billing.CreateInput{
		ClientID:    client.ID,
		ClientName:  client.Name,
		Name:        req.Name,
		Period:      req.Period,
		TotalAmount: req.TotalAmount,
		LineItems:   req.LineItems,
		Milestones:  req.milestoneInputs(),
	})
	if err != nil {
		writeServiceError(w, "Failed to create package", err)
		return
	}
	writeJSON(w, http.StatusCreated, toPackageDTO(pkg))
}

// UpdatePackage edits a package and then re-evaluates its milestones against
// live progress, so a lowered trigger takes effect immediately.
func (h *Handler) UpdatePackage(w http.ResponseWriter, r *http.Request) {
	var req PackageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	pkg, err := h.Billing.Edit(ctx, id, billing.EditInput{
		Name:        req.Name,
		Period:      req.Period,
		TotalAmount: req.TotalAmount,
		LineItems:   req.LineItems,
		Milestones:  req.milestoneInputs(),
	})
	if err != nil {
		writeServiceError(w, "Failed to update package", err)
		return
	}

	synced, err := h.Billing.SyncMilestones(ctx, id)
	if err != nil {
		h.log.Warn("sync after edit failed", zap.String("package_id", id), zap.Error(err))
		writeJSON(w, http.StatusOK, toPackageDTO(pkg))
		return
	}
	writeJSON(w, http.StatusOK, toPackageDTO(synced.Package))
}

// DeletePackage removes a package. Its tasks are kept and still reference it.
func (h *Handler) DeletePackage(w http.ResponseWriter, r *http.Request) {
	if err := h.Billing.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, "Failed to delete package", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
}

// GetPackageProgress reports live completion and money received.
func (h *Handler) GetPackageProgress(w http.ResponseWriter, r *http.Request) {
	progress, err := h.Billing.Progress(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, "Failed to compute progress", err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

// SyncPackage moves milestones whose trigger is met to due.
func (h *Handler) SyncPackage(w http.ResponseWriter, r *http.Request) {
	result, err := h.Billing.SyncMilestones(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, "Failed to sync milestones", err)
		return
	}
	writeJSON(w, http.StatusOK, toSyncDTO(result))
}

// ReceiveMilestone records payment of one milestone.
func (h *Handler) ReceiveMilestone(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid milestone index", err)
		return
	}

	pkg, err := h.Billing.MarkReceived(r.Context(), chi.URLParam(r, "id"), index)
	if err != nil {
		writeServiceError(w, "Failed to mark milestone received", err)
		return
	}
	writeJSON(w, http.StatusOK, toPackageDTO(pkg))
}

// ListPackageAlerts returns the payment alerts recorded for a package.
func (h *Handler) ListPackageAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.Store.ListPaymentAlerts(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list alerts", err)
		return
	}
	if alerts == nil {
		alerts = []billing.PaymentAlert{}
	}
	writeJSON(w, http.StatusOK, alerts)
}

// =============================================================================
// TASK HANDLERS
// =============================================================================

// ListTasks returns all tasks, or those referencing ?package_id=. Tasks of a
// deleted package are still listed.
func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	var (
		tasks []schedule.Task
		err   error
	)
	if packageID := r.URL.Query().Get("package_id"); packageID != "" {
		tasks, err = h.Store.ListTasksByPackage(r.Context(), packageID)
	} else {
		tasks, err = h.Store.ListTasks(r.Context())
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list tasks", err)
		return
	}

	dtos := make([]TaskDTO, len(tasks))
	for i, t := range tasks {
		dtos[i] = toTaskDTO(t)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// UpdateTaskStatus changes a task's workflow status. When the task belongs
// to a package that still exists, the package's milestones are re-synced.
func (h *Handler) UpdateTaskStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateTaskStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	status := schedule.ParseTaskStatus(req.Status)
	if status == schedule.StatusUnknown {
		writeError(w, http.StatusBadRequest, "Unknown task status", nil)
		return
	}
	ctx := r.Context()

	task, err := h.Store.UpdateTaskStatus(ctx, chi.URLParam(r, "id"), status)
	if err != nil {
		writeServiceError(w, "Failed to update task", err)
		return
	}

	resp := TaskStatusResponse{Task: toTaskDTO(task)}
	if task.PackageID != "" {
		result, err := h.Billing.SyncMilestones(ctx, task.PackageID)
		switch {
		case errors.Is(err, billing.ErrPackageNotFound):
			// Dangling reference; the package was deleted.
		case err != nil:
			writeError(w, http.StatusInternalServerError, "Task updated but milestone sync failed", err)
			return
		default:
			dto := toSyncDTO(result)
			resp.Sync = &dto
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeServiceError maps domain errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, message string, err error) {
	var (
		commitErr   *schedule.CommitError
		divisionErr *schedule.DivisionError
	)
	switch {
	case errors.As(err, &commitErr):
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error: message,
			Code:  "partial_commit",
			Details: map[string]any{
				"committed": commitErr.Committed,
				"total":     commitErr.Total,
				"cause":     commitErr.Err.Error(),
			},
		})
	case errors.As(err, &divisionErr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: err.Error(),
			Code:  "inexact_division",
			Details: map[string]any{
				"line_item_index": divisionErr.LineItemIndex,
				"quantity":        divisionErr.Quantity,
				"production_days": divisionErr.ProductionDays,
				"holidays":        divisionErr.Holidays,
				"per_day":         divisionErr.PerDay.String(),
			},
		})
	case errors.Is(err, billing.ErrMilestoneTransition),
		errors.Is(err, schedule.ErrCommitInProgress):
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: err.Error(), Code: "conflict"})
	case schedule.IsClientError(err) || billing.IsClientError(err):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "invalid_request"})
	case billing.IsNotFound(err),
		errors.Is(err, schedule.ErrTaskNotFound),
		errors.Is(err, calendar.ErrHolidayNotFound),
		errors.Is(err, errSessionNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error(), Code: "not_found"})
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
