/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  The default production store. Implements every persistence contract the
  services consume: tasks (schedule.TaskCreator, billing.TaskLister),
  packages (billing.Store), payment alerts (billing.AlertEmitter), clients
  and the company holiday calendar (calendar.HolidayCalendar).

DOCUMENT LAYOUT:
  Packages are stored one row each; their line items and milestones are
  ordered lists kept as JSON columns, since they are always read and
  written with the package. Tasks are plain rows so they can be counted
  per package and line item.

KEY TABLES:
  clients:        Customers packages are sold to
  packages:       Package header plus line_items_json / milestones_json
  tasks:          One row per production unit, weak package reference
  payment_alerts: Milestone transitions, unique idempotency_key
  holidays:       Declared company holidays (optionally recurring)

NO CASCADE:
  tasks.package_id is deliberately not a foreign key. Deleting a package
  leaves its tasks pointing at an ID that no longer resolves.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. Package updates are
  read-modify-write inside one SQL transaction; concurrent editors get last
  write wins.

USAGE:
  store, err := sqlite.New("./data/fulfillment.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - store/memory: In-memory implementation for tests
  - store/mongo: Remote document store
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/warp/fulfillment-engine/billing"
	"github.com/warp/fulfillment-engine/calendar"
	"github.com/warp/fulfillment-engine/schedule"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Each connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS clients (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS packages (
		id TEXT PRIMARY KEY,
		client_id TEXT NOT NULL,
		client_name TEXT NOT NULL DEFAULT '',
		name TEXT NOT NULL,
		period TEXT NOT NULL DEFAULT '',
		line_items_json TEXT NOT NULL,
		total_amount INTEGER NOT NULL,
		received_amount INTEGER NOT NULL,
		milestones_json TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_packages_client
		ON packages(client_id);

	-- package_id is a weak reference: no foreign key, no cascade
	CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		client_id TEXT NOT NULL DEFAULT '',
		service_id TEXT NOT NULL DEFAULT '',
		type TEXT NOT NULL DEFAULT '',
		priority TEXT NOT NULL,
		start_date TEXT NOT NULL,
		deadline TEXT NOT NULL,
		description TEXT NOT NULL,
		status TEXT NOT NULL,
		progress INTEGER NOT NULL DEFAULT 0,
		assigned_employee_id TEXT NOT NULL DEFAULT '',
		amount INTEGER NOT NULL DEFAULT 0,
		package_id TEXT,
		package_line_item_index INTEGER,
		created_at TEXT NOT NULL
	);

	-- Completion counts are per package and line item (hot path)
	CREATE INDEX IF NOT EXISTS idx_tasks_package_line_item
		ON tasks(package_id, package_line_item_index)
		WHERE package_id IS NOT NULL;

	CREATE TABLE IF NOT EXISTS payment_alerts (
		id TEXT PRIMARY KEY,
		client_id TEXT NOT NULL,
		client_name TEXT NOT NULL,
		package_id TEXT NOT NULL,
		package_name TEXT NOT NULL,
		milestone_index INTEGER NOT NULL,
		milestone_label TEXT NOT NULL,
		amount INTEGER NOT NULL,
		status TEXT NOT NULL,
		triggered_at TEXT NOT NULL,
		resolved_at TEXT,
		idempotency_key TEXT UNIQUE
	);

	CREATE INDEX IF NOT EXISTS idx_payment_alerts_package
		ON payment_alerts(package_id, triggered_at);

	CREATE TABLE IF NOT EXISTS holidays (
		id TEXT PRIMARY KEY,
		date TEXT NOT NULL,
		name TEXT NOT NULL,
		recurring BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TEXT NOT NULL,
		UNIQUE(date, name)
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Reset deletes every row. Used by demo scenarios.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"payment_alerts", "tasks", "packages", "clients", "holidays"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to reset %s: %w", table, err)
		}
	}
	return nil
}

// =============================================================================
// TASKS (schedule.TaskCreator, billing.TaskLister)
// =============================================================================

const taskColumns = `id, client_id, service_id, type, priority, start_date, deadline, description,
	status, progress, assigned_employee_id, amount, package_id, package_line_item_index, created_at`

// CreateTask inserts a task and returns its generated ID.
func (s *Store) CreateTask(ctx context.Context, task schedule.Task) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task.ID = uuid.NewString()
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now().UTC()
	}

	var lineItem sql.NullInt64
	if task.PackageLineItemIndex != nil {
		lineItem = sql.NullInt64{Int64: int64(*task.PackageLineItemIndex), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `INSERT INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID,
		task.ClientID,
		task.ServiceID,
		task.Type,
		string(task.Priority),
		task.StartDate.String(),
		task.Deadline.String(),
		task.Description,
		string(task.Status),
		task.Progress,
		task.AssignedEmployeeID,
		task.Amount,
		nullString(task.PackageID),
		lineItem,
		task.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert task: %w", err)
	}
	return task.ID, nil
}

// GetTask retrieves a task by ID.
func (s *Store) GetTask(ctx context.Context, id string) (schedule.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tasks, err := s.queryTasks(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	if err != nil {
		return schedule.Task{}, err
	}
	if len(tasks) == 0 {
		return schedule.Task{}, schedule.ErrTaskNotFound
	}
	return tasks[0], nil
}

// ListTasks returns every task, oldest production date first.
func (s *Store) ListTasks(ctx context.Context) ([]schedule.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryTasks(ctx, `SELECT `+taskColumns+` FROM tasks ORDER BY start_date ASC, rowid ASC`)
}

// ListTasksByPackage returns the tasks referencing packageID.
func (s *Store) ListTasksByPackage(ctx context.Context, packageID string) ([]schedule.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryTasks(ctx, `SELECT `+taskColumns+` FROM tasks
		WHERE package_id = ?
		ORDER BY package_line_item_index ASC, start_date ASC, rowid ASC`, packageID)
}

// UpdateTaskStatus sets the workflow status of a task.
func (s *Store) UpdateTaskStatus(ctx context.Context, id string, status schedule.TaskStatus) (schedule.Task, error) {
	s.mu.Lock()
	res, err := s.db.ExecContext(ctx, "UPDATE tasks SET status = ? WHERE id = ?", string(status), id)
	s.mu.Unlock()
	if err != nil {
		return schedule.Task{}, fmt.Errorf("failed to update task: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return schedule.Task{}, schedule.ErrTaskNotFound
	}
	return s.GetTask(ctx, id)
}

func (s *Store) queryTasks(ctx context.Context, query string, args ...any) ([]schedule.Task, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []schedule.Task
	for rows.Next() {
		var (
			t                            schedule.Task
			priority, status             string
			startDate, deadline, created string
			packageID                    sql.NullString
			lineItem                     sql.NullInt64
		)
		if err := rows.Scan(&t.ID, &t.ClientID, &t.ServiceID, &t.Type, &priority, &startDate, &deadline,
			&t.Description, &status, &t.Progress, &t.AssignedEmployeeID, &t.Amount,
			&packageID, &lineItem, &created); err != nil {
			return nil, err
		}
		t.Priority = schedule.Priority(priority)
		t.Status = schedule.ParseTaskStatus(status)
		t.StartDate, _ = calendar.ParseDate(startDate)
		t.Deadline, _ = calendar.ParseDate(deadline)
		t.PackageID = packageID.String
		if lineItem.Valid {
			t.PackageLineItemIndex = schedule.IndexRef(int(lineItem.Int64))
		}
		t.CreatedAt, _ = time.Parse(time.RFC3339, created)
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// =============================================================================
// PACKAGES (billing.Store)
// =============================================================================

const packageColumns = `id, client_id, client_name, name, period, line_items_json, total_amount,
	received_amount, milestones_json, status, created_at, updated_at`

// CreatePackage inserts a package and returns its generated ID.
func (s *Store) CreatePackage(ctx context.Context, pkg billing.Package) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pkg.ID = uuid.NewString()
	if err := s.writePackage(ctx, s.db, pkg, true); err != nil {
		return "", err
	}
	return pkg.ID, nil
}

// GetPackage retrieves a package by ID.
func (s *Store) GetPackage(ctx context.Context, id string) (billing.Package, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.getPackage(ctx, s.db, id)
}

// ListPackages returns packages, newest first, optionally for one client.
func (s *Store) ListPackages(ctx context.Context, clientID string) ([]billing.Package, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT ` + packageColumns + ` FROM packages`
	var args []any
	if clientID != "" {
		query += ` WHERE client_id = ?`
		args = append(args, clientID)
	}
	query += ` ORDER BY created_at DESC, rowid DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query packages: %w", err)
	}
	defer rows.Close()

	var packages []billing.Package
	for rows.Next() {
		pkg, err := scanPackage(rows)
		if err != nil {
			return nil, err
		}
		packages = append(packages, pkg)
	}
	return packages, rows.Err()
}

// UpdatePackage applies a partial update inside one transaction.
func (s *Store) UpdatePackage(ctx context.Context, id string, update billing.PackageUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	pkg, err := s.getPackage(ctx, sqlTx, id)
	if err != nil {
		return err
	}
	update.Apply(&pkg)
	if err := s.writePackage(ctx, sqlTx, pkg, false); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// DeletePackage removes a package. Tasks referencing it are untouched.
func (s *Store) DeletePackage(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM packages WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete package: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return billing.ErrPackageNotFound
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Store) getPackage(ctx context.Context, db execer, id string) (billing.Package, error) {
	row := db.QueryRowContext(ctx, `SELECT `+packageColumns+` FROM packages WHERE id = ?`, id)
	pkg, err := scanPackage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return billing.Package{}, billing.ErrPackageNotFound
	}
	return pkg, err
}

func (s *Store) writePackage(ctx context.Context, db execer, pkg billing.Package, insert bool) error {
	itemsJSON, err := json.Marshal(orEmpty(pkg.LineItems))
	if err != nil {
		return fmt.Errorf("failed to marshal line items: %w", err)
	}
	milestonesJSON, err := json.Marshal(orEmpty(pkg.Milestones))
	if err != nil {
		return fmt.Errorf("failed to marshal milestones: %w", err)
	}

	if insert {
		_, err = db.ExecContext(ctx, `INSERT INTO packages (`+packageColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			pkg.ID, pkg.ClientID, pkg.ClientName, pkg.Name, pkg.Period,
			string(itemsJSON), pkg.TotalAmount, pkg.ReceivedAmount, string(milestonesJSON),
			string(pkg.Status),
			pkg.CreatedAt.UTC().Format(time.RFC3339),
			pkg.UpdatedAt.UTC().Format(time.RFC3339),
		)
	} else {
		_, err = db.ExecContext(ctx, `UPDATE packages SET
			name = ?, period = ?, line_items_json = ?, total_amount = ?, received_amount = ?,
			milestones_json = ?, status = ?, updated_at = ?
			WHERE id = ?`,
			pkg.Name, pkg.Period, string(itemsJSON), pkg.TotalAmount, pkg.ReceivedAmount,
			string(milestonesJSON), string(pkg.Status),
			pkg.UpdatedAt.UTC().Format(time.RFC3339),
			pkg.ID,
		)
	}
	if err != nil {
		return fmt.Errorf("failed to write package: %w", err)
	}
	return nil
}

func scanPackage(row rowScanner) (billing.Package, error) {
	var (
		pkg                       billing.Package
		itemsJSON, milestonesJSON string
		status, created, updated  string
	)
	err := row.Scan(&pkg.ID, &pkg.ClientID, &pkg.ClientName, &pkg.Name, &pkg.Period,
		&itemsJSON, &pkg.TotalAmount, &pkg.ReceivedAmount, &milestonesJSON,
		&status, &created, &updated)
	if err != nil {
		return billing.Package{}, err
	}
	if err := json.Unmarshal([]byte(itemsJSON), &pkg.LineItems); err != nil {
		return billing.Package{}, fmt.Errorf("package %s: corrupt line items: %w", pkg.ID, err)
	}
	if err := json.Unmarshal([]byte(milestonesJSON), &pkg.Milestones); err != nil {
		return billing.Package{}, fmt.Errorf("package %s: corrupt milestones: %w", pkg.ID, err)
	}
	pkg.Status = billing.PackageStatus(status)
	pkg.CreatedAt, _ = time.Parse(time.RFC3339, created)
	pkg.UpdatedAt, _ = time.Parse(time.RFC3339, updated)
	return pkg, nil
}

// =============================================================================
// PAYMENT ALERTS (billing.AlertEmitter)
// =============================================================================

// CreatePaymentAlert records an alert. A repeated idempotency key returns
// billing.ErrDuplicateAlert.
func (s *Store) CreatePaymentAlert(ctx context.Context, a billing.PaymentAlert) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var resolved sql.NullString
	if a.ResolvedAt != nil {
		resolved = sql.NullString{String: a.ResolvedAt.UTC().Format(time.RFC3339), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO payment_alerts
		(id, client_id, client_name, package_id, package_name, milestone_index, milestone_label,
		 amount, status, triggered_at, resolved_at, idempotency_key)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), a.ClientID, a.ClientName, a.PackageID, a.PackageName,
		a.MilestoneIndex, a.MilestoneLabel, a.Amount, string(a.Status),
		a.TriggeredAt.UTC().Format(time.RFC3339), resolved, nullString(a.IdempotencyKey),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return billing.ErrDuplicateAlert
		}
		return fmt.Errorf("failed to insert payment alert: %w", err)
	}
	return nil
}

// ListPaymentAlerts returns alerts oldest first, optionally for one package.
func (s *Store) ListPaymentAlerts(ctx context.Context, packageID string) ([]billing.PaymentAlert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, client_id, client_name, package_id, package_name, milestone_index,
		milestone_label, amount, status, triggered_at, resolved_at, idempotency_key
		FROM payment_alerts`
	var args []any
	if packageID != "" {
		query += ` WHERE package_id = ?`
		args = append(args, packageID)
	}
	query += ` ORDER BY triggered_at ASC, rowid ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query payment alerts: %w", err)
	}
	defer rows.Close()

	var alerts []billing.PaymentAlert
	for rows.Next() {
		var (
			a                 billing.PaymentAlert
			status, triggered string
			resolved, key     sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.ClientID, &a.ClientName, &a.PackageID, &a.PackageName,
			&a.MilestoneIndex, &a.MilestoneLabel, &a.Amount, &status, &triggered, &resolved, &key); err != nil {
			return nil, err
		}
		a.Status = billing.ParseMilestoneStatus(status)
		a.TriggeredAt, _ = time.Parse(time.RFC3339, triggered)
		if resolved.Valid {
			t, _ := time.Parse(time.RFC3339, resolved.String)
			a.ResolvedAt = &t
		}
		a.IdempotencyKey = key.String
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

// =============================================================================
// CLIENTS
// =============================================================================

// CreateClient inserts a client and returns its generated ID.
func (s *Store) CreateClient(ctx context.Context, c billing.Client) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c.ID = uuid.NewString()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO clients (id, name, email, created_at) VALUES (?, ?, ?, ?)",
		c.ID, c.Name, nullString(c.Email), c.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert client: %w", err)
	}
	return c.ID, nil
}

// GetClient retrieves a client by ID.
func (s *Store) GetClient(ctx context.Context, id string) (billing.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		c       billing.Client
		email   sql.NullString
		created string
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, email, created_at FROM clients WHERE id = ?", id,
	).Scan(&c.ID, &c.Name, &email, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return billing.Client{}, billing.ErrClientNotFound
	}
	if err != nil {
		return billing.Client{}, err
	}
	c.Email = email.String
	c.CreatedAt, _ = time.Parse(time.RFC3339, created)
	return c, nil
}

// ListClients returns all clients ordered by name.
func (s *Store) ListClients(ctx context.Context) ([]billing.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT id, name, email, created_at FROM clients ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clients []billing.Client
	for rows.Next() {
		var (
			c       billing.Client
			email   sql.NullString
			created string
		)
		if err := rows.Scan(&c.ID, &c.Name, &email, &created); err != nil {
			return nil, err
		}
		c.Email = email.String
		c.CreatedAt, _ = time.Parse(time.RFC3339, created)
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

// =============================================================================
// HOLIDAY CALENDAR IMPLEMENTATION
// =============================================================================

// CreateHoliday saves a holiday. Saving the same date and name again updates
// its recurring flag and returns the existing ID.
func (s *Store) CreateHoliday(ctx context.Context, h calendar.Holiday) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var id string
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO holidays (id, date, name, recurring, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(date, name) DO UPDATE SET
			recurring = excluded.recurring
		RETURNING id`,
		uuid.NewString(),
		h.Date.String(),
		h.Name,
		h.Recurring,
		time.Now().UTC().Format(time.RFC3339),
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to save holiday: %w", err)
	}
	return id, nil
}

// DeleteHoliday deletes a holiday by ID.
func (s *Store) DeleteHoliday(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM holidays WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return calendar.ErrHolidayNotFound
	}
	return nil
}

// ListHolidays returns all declared holidays ordered by date.
func (s *Store) ListHolidays(ctx context.Context) ([]calendar.Holiday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT id, date, name, recurring FROM holidays ORDER BY date ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var holidays []calendar.Holiday
	for rows.Next() {
		var h calendar.Holiday
		var dateStr string
		if err := rows.Scan(&h.ID, &dateStr, &h.Name, &h.Recurring); err != nil {
			return nil, err
		}
		h.Date, _ = calendar.ParseDate(dateStr)
		holidays = append(holidays, h)
	}
	return holidays, rows.Err()
}

// HolidaysBetween returns the holidays occurring in [from, to]. Recurring
// holidays match on month and day in any year.
func (s *Store) HolidaysBetween(ctx context.Context, from, to calendar.Date) ([]calendar.Holiday, error) {
	all, err := s.ListHolidays(ctx)
	if err != nil {
		return nil, err
	}

	var out []calendar.Holiday
	for _, h := range all {
		if calendar.ExpandHolidays([]calendar.Holiday{h}, from, to).Len() > 0 {
			out = append(out, h)
		}
	}
	return out, nil
}

// Helper functions

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func orEmpty[T any](xs []T) []T {
	if xs == nil {
		return []T{}
	}
	return xs
}

func isUniqueConstraintError(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}
