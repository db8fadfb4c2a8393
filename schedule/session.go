package schedule

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/warp/fulfillment-engine/calendar"
)

// =============================================================================
// TASK CREATOR - Persistence collaborator for generated units
// =============================================================================

//go:generate mockgen -source=session.go -destination=task_creator_mock.go -package=schedule

// TaskCreator persists one task and returns its generated ID.
type TaskCreator interface {
	CreateTask(ctx context.Context, task Task) (string, error)
}

// ProgressFunc receives (current, total) after each persisted unit, counted
// across every queued line item.
type ProgressFunc func(current, total int)

// =============================================================================
// SESSION - The line-item queue
// =============================================================================

// LineItem is the part of a package line item the scheduler needs.
type LineItem struct {
	ServiceName string
	Quantity    int
}

// Target identifies the package whose line items are being scheduled.
type Target struct {
	PackageID string
	ClientID  string
	TaskType  string
	LineItems []LineItem
}

// Session stages one validated configuration per line item until commit.
// It is owned by whoever created it (typically one HTTP bulk session) and is
// discarded after a successful commit. Only one commit runs at a time.
type Session struct {
	ID     string
	Target Target

	mu         sync.Mutex
	entries    map[int]LineItemConfig
	committing bool
	calendar   calendar.HolidayCalendar
	log        *zap.Logger
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithCalendar sets where entries with UseCompanyHolidays look up the
// stored company holidays.
func WithCalendar(cal calendar.HolidayCalendar) SessionOption {
	return func(s *Session) { s.calendar = cal }
}

// NewSession creates an empty queue for target.
func NewSession(id string, target Target, log *zap.Logger, opts ...SessionOption) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Session{
		ID:      id,
		Target:  target,
		entries: make(map[int]LineItemConfig),
		log:     log.With(zap.String("session_id", id), zap.String("package_id", target.PackageID)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddOrReplace validates cfg and queues it, overwriting any entry for the same
// line item. An invalid configuration leaves the queue untouched. The queue
// keeps its own copy of cfg.
func (s *Session) AddOrReplace(ctx context.Context, cfg LineItemConfig) (Plan, error) {
	plan, err := s.plan(ctx, cfg)
	if err != nil {
		return Plan{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.committing {
		return Plan{}, ErrCommitInProgress
	}
	s.entries[cfg.LineItemIndex] = cfg.clone()
	return plan, nil
}

// Remove evicts the entry for a line item. It reports whether one existed.
func (s *Session) Remove(index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.entries[index]
	delete(s.entries, index)
	return ok
}

// Entries returns the queued configurations ordered by line item.
func (s *Session) Entries() []LineItemConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedLocked()
}

// Len returns the number of queued line items.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Clear drops every queued configuration.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[int]LineItemConfig)
}

// Preview computes the plan of every queued entry.
func (s *Session) Preview(ctx context.Context) ([]Plan, error) {
	return s.planAll(ctx, s.Entries())
}

// plan resolves company holidays for cfg and plans it against its line item.
func (s *Session) plan(ctx context.Context, cfg LineItemConfig) (Plan, error) {
	item, err := s.lineItem(cfg.LineItemIndex)
	if err != nil {
		return Plan{}, err
	}
	resolved, err := ResolveHolidays(ctx, s.calendar, cfg)
	if err != nil {
		return Plan{}, err
	}
	return PlanLineItem(resolved, item.Quantity)
}

func (s *Session) planAll(ctx context.Context, entries []LineItemConfig) ([]Plan, error) {
	plans := make([]Plan, 0, len(entries))
	for _, cfg := range entries {
		plan, err := s.plan(ctx, cfg)
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	return plans, nil
}

// CommitResult summarizes a finished bulk commit.
type CommitResult struct {
	TaskIDs []string
	Plans   []Plan
}

// CommitAll re-derives every queued plan, expands it into tasks and persists
// them one at a time: line items in index order, dates ascending. progress is
// called after every persisted unit. All plans are validated before the first
// write. A failed write stops the commit and returns a *CommitError; tasks
// already written stay written and the queue is kept so the caller can see
// what was attempted. On success the queue is cleared.
//
// A second CommitAll, or an AddOrReplace, issued while a commit is running
// fails with ErrCommitInProgress. Once a commit has succeeded the queue is
// empty and a repeated commit fails with ErrEmptyQueue.
func (s *Session) CommitAll(ctx context.Context, creator TaskCreator, progress ProgressFunc) (*CommitResult, error) {
	s.mu.Lock()
	if s.committing {
		s.mu.Unlock()
		return nil, ErrCommitInProgress
	}
	entries := s.sortedLocked()
	if len(entries) == 0 {
		s.mu.Unlock()
		return nil, ErrEmptyQueue
	}
	s.committing = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.committing = false
		s.mu.Unlock()
	}()

	plans, err := s.planAll(ctx, entries)
	if err != nil {
		return nil, err
	}

	batches := make([][]Task, len(plans))
	total := 0
	for i, plan := range plans {
		cfg := entries[i]
		item := s.Target.LineItems[cfg.LineItemIndex]
		tpl := Template{
			ClientID:      s.Target.ClientID,
			ServiceID:     item.ServiceName,
			Type:          s.Target.TaskType,
			Priority:      cfg.Priority,
			AssigneeID:    cfg.AssigneeID,
			PackageID:     s.Target.PackageID,
			LineItemIndex: IndexRef(cfg.LineItemIndex),
		}
		if tpl.Priority == "" {
			tpl.Priority = PriorityMedium
		}
		batches[i] = Build(plan.Days, plan.PerDay, plan.Extras, tpl, plan.Total, cfg.Description)
		total += len(batches[i])
	}

	s.log.Info("bulk commit started", zap.Int("line_items", len(plans)), zap.Int("tasks", total))

	result := &CommitResult{TaskIDs: make([]string, 0, total), Plans: plans}
	for i, batch := range batches {
		for _, task := range batch {
			id, err := creator.CreateTask(ctx, task)
			if err != nil {
				s.log.Error("bulk commit stopped",
					zap.Int("line_item", plans[i].LineItemIndex),
					zap.Int("committed", len(result.TaskIDs)),
					zap.Int("total", total),
					zap.Error(err))
				return result, &CommitError{Committed: len(result.TaskIDs), Total: total, Err: err}
			}
			result.TaskIDs = append(result.TaskIDs, id)
			if progress != nil {
				progress(len(result.TaskIDs), total)
			}
		}
	}

	s.Clear()
	s.log.Info("bulk commit finished", zap.Int("tasks", total))
	return result, nil
}

func (s *Session) lineItem(index int) (LineItem, error) {
	if index < 0 || index >= len(s.Target.LineItems) {
		return LineItem{}, &ValidationError{LineItemIndex: index, Field: "line_item", Reason: "no such line item in the package"}
	}
	return s.Target.LineItems[index], nil
}

func (s *Session) sortedLocked() []LineItemConfig {
	out := make([]LineItemConfig, 0, len(s.entries))
	for _, cfg := range s.entries {
		out = append(out, cfg.clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LineItemIndex < out[j].LineItemIndex })
	return out
}
