/*
bulk.go - Bulk scheduling sessions over HTTP

PURPOSE:
  Lets a client stage one allocation configuration per package line item,
  preview the resulting day-by-day plans, and commit them all as tasks.
  Each session owns one schedule.Session; nothing is global.

ENDPOINTS:
  POST   /api/bulk-sessions                    Open a queue for a package
  GET    /api/bulk-sessions/{id}               Queue + plans
  PUT    /api/bulk-sessions/{id}/items         Add or replace a line item
  DELETE /api/bulk-sessions/{id}/items/{index} Remove a line item
  POST   /api/bulk-sessions/{id}/commit        Create every task
  DELETE /api/bulk-sessions/{id}               Discard the queue
  POST   /api/schedule/preview                 Plan one line item, no session

LIFECYCLE:
  Sessions live in memory and are dropped after a successful commit, on
  DELETE, or once idle for longer than the session TTL. A failed commit
  keeps the session so the caller can inspect what was attempted.

COMMIT:
  Tasks are written one at a time. The commit runs detached from the
  request's cancellation: once started it goes to the end or to the first
  failed write.
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/warp/fulfillment-engine/calendar"
	"github.com/warp/fulfillment-engine/schedule"
)

const defaultSessionTTL = 2 * time.Hour

var errSessionNotFound = errors.New("bulk session not found")

// =============================================================================
// SESSION REGISTRY
// =============================================================================

type sessionEntry struct {
	session *schedule.Session
	touched time.Time
}

// sessionRegistry maps session IDs to open queues. Idle sessions are purged
// lazily whenever the registry is used.
type sessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]*sessionEntry
	ttl      time.Duration
	now      func() time.Time
}

func newSessionRegistry(ttl time.Duration) *sessionRegistry {
	return &sessionRegistry{
		sessions: make(map[string]*sessionEntry),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (r *sessionRegistry) add(s *schedule.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.purgeLocked()
	r.sessions[s.ID] = &sessionEntry{session: s, touched: r.now()}
}

func (r *sessionRegistry) get(id string) (*schedule.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.purgeLocked()

	entry, ok := r.sessions[id]
	if !ok {
		return nil, errSessionNotFound
	}
	entry.touched = r.now()
	return entry.session, nil
}

func (r *sessionRegistry) remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.sessions[id]
	delete(r.sessions, id)
	return ok
}

func (r *sessionRegistry) clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions = make(map[string]*sessionEntry)
}

func (r *sessionRegistry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.purgeLocked()
	return len(r.sessions)
}

func (r *sessionRegistry) purgeLocked() {
	if r.ttl <= 0 {
		return
	}
	cutoff := r.now().Add(-r.ttl)
	for id, entry := range r.sessions {
		if entry.touched.Before(cutoff) {
			delete(r.sessions, id)
		}
	}
}

// =============================================================================
// SESSION HANDLERS
// =============================================================================

// CreateBulkSession opens a line-item queue for a package.
func (h *Handler) CreateBulkSession(w http.ResponseWriter, r *http.Request) {
	var req CreateBulkSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	pkg, err := h.Store.GetPackage(r.Context(), req.PackageID)
	if err != nil {
		writeServiceError(w, "Failed to load package", err)
		return
	}

	target := schedule.Target{
		PackageID: pkg.ID,
		ClientID:  pkg.ClientID,
		TaskType:  req.TaskType,
		LineItems: make([]schedule.LineItem, len(pkg.LineItems)),
	}
	for i, item := range pkg.LineItems {
		target.LineItems[i] = schedule.LineItem{ServiceName: item.ServiceName, Quantity: item.Quantity}
	}

	session := schedule.NewSession(uuid.NewString(), target, h.log, schedule.WithCalendar(h.Store))
	h.sessions.add(session)

	writeJSON(w, http.StatusCreated, h.sessionDTO(session, nil))
}

// GetBulkSession returns the queue and the plans it would commit.
func (h *Handler) GetBulkSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessions.get(chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, "Failed to get session", err)
		return
	}

	plans, err := session.Preview(r.Context())
	if err != nil {
		writeServiceError(w, "Failed to plan session", err)
		return
	}
	writeJSON(w, http.StatusOK, h.sessionDTO(session, plans))
}

// PutBulkSessionItem validates a configuration and queues it, replacing any
// earlier entry for the same line item. An invalid configuration is rejected
// with 400 and the queue is left as it was.
func (h *Handler) PutBulkSessionItem(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessions.get(chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, "Failed to get session", err)
		return
	}

	var req LineItemConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	cfg, err := toLineItemConfig(req)
	if err != nil {
		writeServiceError(w, "Invalid line item configuration", err)
		return
	}

	plan, err := session.AddOrReplace(r.Context(), cfg)
	if err != nil {
		writeServiceError(w, "Invalid line item configuration", err)
		return
	}
	writeJSON(w, http.StatusOK, toPlanDTO(plan))
}

// DeleteBulkSessionItem removes one line item from the queue.
func (h *Handler) DeleteBulkSessionItem(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessions.get(chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, "Failed to get session", err)
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid line item index", err)
		return
	}

	if !session.Remove(index) {
		writeError(w, http.StatusNotFound, "Line item not queued", nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "removed", "queued": session.Len()})
}

// DeleteBulkSession discards a queue without committing it.
func (h *Handler) DeleteBulkSession(w http.ResponseWriter, r *http.Request) {
	if !h.sessions.remove(chi.URLParam(r, "id")) {
		writeServiceError(w, "Failed to delete session", errSessionNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
}

// CommitBulkSession creates every queued task in order. On success the
// session is closed. On a failed write the response carries how many tasks
// were created before the failure and the session stays open.
func (h *Handler) CommitBulkSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	session, err := h.sessions.get(id)
	if err != nil {
		writeServiceError(w, "Failed to get session", err)
		return
	}

	ctx := context.WithoutCancel(r.Context())
	log := h.log.With(zap.String("session_id", id))
	progress := func(current, total int) {
		log.Debug("bulk commit progress", zap.Int("current", current), zap.Int("total", total))
	}

	result, err := session.CommitAll(ctx, h.Store, progress)
	if result != nil {
		h.recordCreated(result.Plans, len(result.TaskIDs))
	}
	if err != nil {
		if errors.As(err, new(*schedule.CommitError)) {
			h.metrics.CommitFailed()
		}
		writeServiceError(w, "Bulk commit failed", err)
		return
	}
	h.sessions.remove(id)

	resp := CommitResponse{
		Created: len(result.TaskIDs),
		TaskIDs: result.TaskIDs,
		Plans:   make([]PlanDTO, len(result.Plans)),
	}
	for i, p := range result.Plans {
		resp.Plans[i] = toPlanDTO(p)
	}
	writeJSON(w, http.StatusCreated, resp)
}

// recordCreated attributes the first committed tasks to plans in commit order.
func (h *Handler) recordCreated(plans []schedule.Plan, committed int) {
	for _, p := range plans {
		if committed <= 0 {
			return
		}
		n := min(p.Total, committed)
		h.metrics.TasksCreated(string(p.Method), n)
		committed -= n
	}
}

// PreviewSchedule plans one line item for a given quantity without a session.
func (h *Handler) PreviewSchedule(w http.ResponseWriter, r *http.Request) {
	var req PreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	cfg, err := toLineItemConfig(req.LineItemConfigRequest)
	if err != nil {
		writeServiceError(w, "Invalid configuration", err)
		return
	}
	if cfg, err = schedule.ResolveHolidays(r.Context(), h.Store, cfg); err != nil {
		writeServiceError(w, "Failed to load company holidays", err)
		return
	}

	plan, err := schedule.PlanLineItem(cfg, req.Quantity)
	if err != nil {
		writeServiceError(w, "Invalid configuration", err)
		return
	}
	writeJSON(w, http.StatusOK, toPlanDTO(plan))
}

// =============================================================================
// CONVERSION
// =============================================================================

func toLineItemConfig(req LineItemConfigRequest) (schedule.LineItemConfig, error) {
	idx := req.LineItemIndex
	invalid := func(field, reason string) error {
		return &schedule.ValidationError{LineItemIndex: idx, Field: field, Reason: reason}
	}

	priority, err := schedule.ParsePriority(req.Priority)
	if err != nil {
		return schedule.LineItemConfig{}, invalid("priority", err.Error())
	}

	cfg := schedule.LineItemConfig{
		LineItemIndex:      idx,
		Method:             schedule.Method(req.Method),
		AssigneeID:         req.AssigneeID,
		Priority:           priority,
		Description:        req.Description,
		UseCompanyHolidays: req.UseCompanyHolidays,
	}

	parse := func(field, s string) (calendar.Date, error) {
		if s == "" {
			return calendar.Date{}, nil
		}
		d, err := calendar.ParseDate(s)
		if err != nil {
			return calendar.Date{}, invalid(field, err.Error())
		}
		return d, nil
	}

	if cfg.StartDate, err = parse("start_date", req.StartDate); err != nil {
		return cfg, err
	}
	if cfg.EndDate, err = parse("end_date", req.EndDate); err != nil {
		return cfg, err
	}
	for _, s := range req.Holidays {
		d, err := parse("holidays", s)
		if err != nil {
			return cfg, err
		}
		cfg.Holidays = append(cfg.Holidays, d)
	}
	for _, s := range req.Dates {
		d, err := parse("dates", s)
		if err != nil {
			return cfg, err
		}
		cfg.Dates = append(cfg.Dates, d)
	}
	return cfg, nil
}

func (h *Handler) sessionDTO(s *schedule.Session, plans []schedule.Plan) BulkSessionDTO {
	dto := BulkSessionDTO{
		ID:        s.ID,
		PackageID: s.Target.PackageID,
		Entries:   []LineItemConfigDTO{},
		Plans:     make([]PlanDTO, len(plans)),
	}
	for _, cfg := range s.Entries() {
		entry := LineItemConfigDTO{
			LineItemIndex:      cfg.LineItemIndex,
			Method:             string(cfg.Method),
			AssigneeID:         cfg.AssigneeID,
			Priority:           string(cfg.Priority),
			Description:        cfg.Description,
			Holidays:           dateStrings(cfg.Holidays),
			UseCompanyHolidays: cfg.UseCompanyHolidays,
			Dates:              dateStrings(cfg.Dates),
		}
		if cfg.LineItemIndex >= 0 && cfg.LineItemIndex < len(s.Target.LineItems) {
			entry.ServiceName = s.Target.LineItems[cfg.LineItemIndex].ServiceName
		}
		if !cfg.StartDate.IsZero() {
			entry.StartDate = cfg.StartDate.String()
		}
		if !cfg.EndDate.IsZero() {
			entry.EndDate = cfg.EndDate.String()
		}
		dto.Entries = append(dto.Entries, entry)
	}
	for i, p := range plans {
		dto.Plans[i] = toPlanDTO(p)
	}
	return dto
}
