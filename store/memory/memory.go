// Package memory provides an in-memory document store (for testing/dev).
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/warp/fulfillment-engine/billing"
	"github.com/warp/fulfillment-engine/calendar"
	"github.com/warp/fulfillment-engine/schedule"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

// Store keeps every document in maps guarded by one RWMutex. IDs are
// random UUIDs; creation order is kept so listings are stable.
type Store struct {
	mu sync.RWMutex

	tasks     map[string]schedule.Task
	taskOrder []string

	packages     map[string]billing.Package
	packageOrder []string

	alerts      []billing.PaymentAlert
	idempotency map[string]bool

	clients  map[string]billing.Client
	holidays map[string]calendar.Holiday
}

// New creates an empty store.
func New() *Store {
	return &Store{
		tasks:       make(map[string]schedule.Task),
		packages:    make(map[string]billing.Package),
		idempotency: make(map[string]bool),
		clients:     make(map[string]billing.Client),
		holidays:    make(map[string]calendar.Holiday),
	}
}

// Close is a no-op.
func (m *Store) Close() error { return nil }

// Reset drops every document.
func (m *Store) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.tasks = make(map[string]schedule.Task)
	m.taskOrder = nil
	m.packages = make(map[string]billing.Package)
	m.packageOrder = nil
	m.alerts = nil
	m.idempotency = make(map[string]bool)
	m.clients = make(map[string]billing.Client)
	m.holidays = make(map[string]calendar.Holiday)
	return nil
}

// =============================================================================
// TASKS
// =============================================================================

// CreateTask stores a task and returns its generated ID.
func (m *Store) CreateTask(_ context.Context, task schedule.Task) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	task.ID = uuid.NewString()
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now().UTC()
	}
	m.tasks[task.ID] = cloneTask(task)
	m.taskOrder = append(m.taskOrder, task.ID)
	return task.ID, nil
}

// GetTask returns a task by ID.
func (m *Store) GetTask(_ context.Context, id string) (schedule.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	task, ok := m.tasks[id]
	if !ok {
		return schedule.Task{}, schedule.ErrTaskNotFound
	}
	return cloneTask(task), nil
}

// ListTasks returns every task in creation order.
func (m *Store) ListTasks(_ context.Context) ([]schedule.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]schedule.Task, 0, len(m.taskOrder))
	for _, id := range m.taskOrder {
		out = append(out, cloneTask(m.tasks[id]))
	}
	return out, nil
}

// ListTasksByPackage returns the tasks referencing packageID, whether or not
// the package still exists.
func (m *Store) ListTasksByPackage(_ context.Context, packageID string) ([]schedule.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []schedule.Task
	for _, id := range m.taskOrder {
		if t := m.tasks[id]; t.PackageID == packageID {
			out = append(out, cloneTask(t))
		}
	}
	return out, nil
}

// UpdateTaskStatus sets the workflow status of a task.
func (m *Store) UpdateTaskStatus(_ context.Context, id string, status schedule.TaskStatus) (schedule.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	task, ok := m.tasks[id]
	if !ok {
		return schedule.Task{}, schedule.ErrTaskNotFound
	}
	task.Status = status
	m.tasks[id] = task
	return cloneTask(task), nil
}

func cloneTask(t schedule.Task) schedule.Task {
	if t.PackageLineItemIndex != nil {
		t.PackageLineItemIndex = schedule.IndexRef(*t.PackageLineItemIndex)
	}
	return t
}

// =============================================================================
// PACKAGES
// =============================================================================

// CreatePackage stores a package and returns its generated ID.
func (m *Store) CreatePackage(_ context.Context, pkg billing.Package) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pkg.ID = uuid.NewString()
	m.packages[pkg.ID] = clonePackage(pkg)
	m.packageOrder = append(m.packageOrder, pkg.ID)
	return pkg.ID, nil
}

// GetPackage returns a package by ID.
func (m *Store) GetPackage(_ context.Context, id string) (billing.Package, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	pkg, ok := m.packages[id]
	if !ok {
		return billing.Package{}, billing.ErrPackageNotFound
	}
	return clonePackage(pkg), nil
}

// ListPackages returns every package, optionally limited to one client.
func (m *Store) ListPackages(_ context.Context, clientID string) ([]billing.Package, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []billing.Package
	for _, id := range m.packageOrder {
		pkg := m.packages[id]
		if clientID != "" && pkg.ClientID != clientID {
			continue
		}
		out = append(out, clonePackage(pkg))
	}
	return out, nil
}

// UpdatePackage applies a partial update. Last write wins.
func (m *Store) UpdatePackage(_ context.Context, id string, update billing.PackageUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	pkg, ok := m.packages[id]
	if !ok {
		return billing.ErrPackageNotFound
	}
	update.Apply(&pkg)
	m.packages[id] = clonePackage(pkg)
	return nil
}

// DeletePackage removes a package. Tasks referencing it are untouched.
func (m *Store) DeletePackage(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.packages[id]; !ok {
		return billing.ErrPackageNotFound
	}
	delete(m.packages, id)
	for i, pid := range m.packageOrder {
		if pid == id {
			m.packageOrder = append(m.packageOrder[:i], m.packageOrder[i+1:]...)
			break
		}
	}
	return nil
}

func clonePackage(p billing.Package) billing.Package {
	p.LineItems = append([]billing.LineItem(nil), p.LineItems...)
	p.Milestones = append([]billing.PaymentMilestone(nil), p.Milestones...)
	return p
}

// =============================================================================
// PAYMENT ALERTS
// =============================================================================

// CreatePaymentAlert records an alert. A repeated idempotency key returns
// billing.ErrDuplicateAlert and stores nothing.
func (m *Store) CreatePaymentAlert(_ context.Context, alert billing.PaymentAlert) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if alert.IdempotencyKey != "" && m.idempotency[alert.IdempotencyKey] {
		return billing.ErrDuplicateAlert
	}
	alert.ID = uuid.NewString()
	m.alerts = append(m.alerts, alert)
	if alert.IdempotencyKey != "" {
		m.idempotency[alert.IdempotencyKey] = true
	}
	return nil
}

// ListPaymentAlerts returns alerts in the order they were recorded,
// optionally limited to one package.
func (m *Store) ListPaymentAlerts(_ context.Context, packageID string) ([]billing.PaymentAlert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []billing.PaymentAlert
	for _, a := range m.alerts {
		if packageID == "" || a.PackageID == packageID {
			out = append(out, a)
		}
	}
	return out, nil
}

// =============================================================================
// CLIENTS
// =============================================================================

// CreateClient stores a client and returns its generated ID.
func (m *Store) CreateClient(_ context.Context, c billing.Client) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c.ID = uuid.NewString()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	m.clients[c.ID] = c
	return c.ID, nil
}

// GetClient returns a client by ID.
func (m *Store) GetClient(_ context.Context, id string) (billing.Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.clients[id]
	if !ok {
		return billing.Client{}, billing.ErrClientNotFound
	}
	return c, nil
}

// ListClients returns every client ordered by name.
func (m *Store) ListClients(_ context.Context) ([]billing.Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]billing.Client, 0, len(m.clients))
	for _, c := range m.clients {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// =============================================================================
// HOLIDAYS (calendar.HolidayCalendar)
// =============================================================================

// CreateHoliday stores a holiday and returns its generated ID.
func (m *Store) CreateHoliday(_ context.Context, h calendar.Holiday) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	h.ID = uuid.NewString()
	m.holidays[h.ID] = h
	return h.ID, nil
}

// DeleteHoliday removes a holiday.
func (m *Store) DeleteHoliday(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.holidays[id]; !ok {
		return calendar.ErrHolidayNotFound
	}
	delete(m.holidays, id)
	return nil
}

// ListHolidays returns every declared holiday ordered by date.
func (m *Store) ListHolidays(_ context.Context) ([]calendar.Holiday, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sortedHolidaysLocked(), nil
}

// HolidaysBetween returns the holidays occurring in [from, to].
func (m *Store) HolidaysBetween(_ context.Context, from, to calendar.Date) ([]calendar.Holiday, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []calendar.Holiday
	for _, h := range m.sortedHolidaysLocked() {
		if calendar.ExpandHolidays([]calendar.Holiday{h}, from, to).Len() > 0 {
			out = append(out, h)
		}
	}
	return out, nil
}

func (m *Store) sortedHolidaysLocked() []calendar.Holiday {
	out := make([]calendar.Holiday, 0, len(m.holidays))
	for _, h := range m.holidays {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}
