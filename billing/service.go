package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/warp/fulfillment-engine/metrics"
	"github.com/warp/fulfillment-engine/schedule"
)

// =============================================================================
// COLLABORATORS
// =============================================================================

//go:generate mockgen -source=service.go -destination=service_mock.go -package=billing

// Store persists packages.
type Store interface {
	CreatePackage(ctx context.Context, pkg Package) (string, error)
	GetPackage(ctx context.Context, id string) (Package, error)
	UpdatePackage(ctx context.Context, id string, update PackageUpdate) error
	DeletePackage(ctx context.Context, id string) error
}

// TaskLister returns the tasks that reference a package.
type TaskLister interface {
	ListTasksByPackage(ctx context.Context, packageID string) ([]schedule.Task, error)
}

// AlertEmitter records payment alerts. Emission is best effort: failures
// are logged and never undo the package change that caused them.
type AlertEmitter interface {
	CreatePaymentAlert(ctx context.Context, alert PaymentAlert) error
}

// =============================================================================
// SERVICE
// =============================================================================

// Service runs the package billing state machine.
type Service struct {
	store   Store
	tasks   TaskLister
	alerts  AlertEmitter
	log     *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger. The default discards everything.
func WithLogger(log *zap.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates a billing service.
func NewService(store Store, tasks TaskLister, alerts AlertEmitter, opts ...Option) *Service {
	s := &Service{
		store:  store,
		tasks:  tasks,
		alerts: alerts,
		log:    zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MilestoneInput declares a milestone on create or edit.
type MilestoneInput struct {
	Label             string
	Percentage        decimal.Decimal
	TriggerAtQuantity int
	IsAdvance         bool
}

// CreateInput is everything needed to open a package.
type CreateInput struct {
	ClientID    string
	ClientName  string
	Name        string
	Period      string
	TotalAmount int64
	LineItems   []LineItem
	Milestones  []MilestoneInput
}

// EditInput replaces the editable fields of a package.
type EditInput struct {
	Name        string
	Period      string
	TotalAmount int64
	LineItems   []LineItem
	Milestones  []MilestoneInput
}

// =============================================================================
// CREATE
// =============================================================================

// Create opens a package. Advance milestones start received and count
// toward ReceivedAmount, milestones triggered at zero units start due, and
// the rest start upcoming. Alerts for received and due milestones are
// emitted after the package is stored.
func (s *Service) Create(ctx context.Context, in CreateInput) (Package, error) {
	if strings.TrimSpace(in.ClientID) == "" {
		return Package{}, fmt.Errorf("%w: client is required", ErrInvalidPackage)
	}
	if err := validateHeader(in.Name, in.TotalAmount); err != nil {
		return Package{}, err
	}
	items, err := cleanLineItems(in.LineItems)
	if err != nil {
		return Package{}, err
	}
	if err := validateMilestones(in.Milestones); err != nil {
		return Package{}, err
	}

	now := s.now()
	milestones := make([]PaymentMilestone, len(in.Milestones))
	for i, m := range in.Milestones {
		milestones[i] = newMilestone(m, in.TotalAmount, now)
	}

	pkg := Package{
		ClientID:       in.ClientID,
		ClientName:     in.ClientName,
		Name:           strings.TrimSpace(in.Name),
		Period:         in.Period,
		LineItems:      items,
		TotalAmount:    in.TotalAmount,
		ReceivedAmount: RecalculateReceived(milestones),
		Milestones:     milestones,
		Status:         PackageActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	id, err := s.store.CreatePackage(ctx, pkg)
	if err != nil {
		return Package{}, fmt.Errorf("create package: %w", err)
	}
	pkg.ID = id

	s.log.Info("package created",
		zap.String("package_id", id),
		zap.String("client_id", pkg.ClientID),
		zap.Int64("total_amount", pkg.TotalAmount),
		zap.Int64("received_amount", pkg.ReceivedAmount))

	for i, m := range pkg.Milestones {
		if m.Status == MilestoneReceived || m.Status == MilestoneDue {
			s.metrics.MilestoneTransition(string(m.Status))
			s.emit(ctx, pkg, i, now)
		}
	}
	return pkg, nil
}

func newMilestone(in MilestoneInput, total int64, now time.Time) PaymentMilestone {
	m := PaymentMilestone{
		Label:             strings.TrimSpace(in.Label),
		Percentage:        in.Percentage,
		AmountDue:         AmountFor(total, in.Percentage),
		TriggerAtQuantity: in.TriggerAtQuantity,
		IsAdvance:         in.IsAdvance,
		Status:            MilestoneUpcoming,
	}
	switch {
	case in.IsAdvance:
		paid := now
		m.Status = MilestoneReceived
		m.PaidDate = &paid
	case in.TriggerAtQuantity == 0:
		m.Status = MilestoneDue
	}
	return m
}

// =============================================================================
// EDIT
// =============================================================================

// Edit replaces name, period, total, line items and milestones. Amounts are
// recomputed from the new total; status and paid date carry over by
// milestone position. Milestones appended beyond the old list start the way
// they would on create. Crossing trigger thresholds is left to SyncMilestones.
func (s *Service) Edit(ctx context.Context, id string, in EditInput) (Package, error) {
	if err := validateHeader(in.Name, in.TotalAmount); err != nil {
		return Package{}, err
	}
	items, err := cleanLineItems(in.LineItems)
	if err != nil {
		return Package{}, err
	}
	if err := validateMilestones(in.Milestones); err != nil {
		return Package{}, err
	}

	pkg, err := s.store.GetPackage(ctx, id)
	if err != nil {
		return Package{}, err
	}

	now := s.now()
	milestones := make([]PaymentMilestone, len(in.Milestones))
	var appended []int
	for i, m := range in.Milestones {
		if i < len(pkg.Milestones) {
			prev := pkg.Milestones[i]
			milestones[i] = PaymentMilestone{
				Label:             strings.TrimSpace(m.Label),
				Percentage:        m.Percentage,
				AmountDue:         AmountFor(in.TotalAmount, m.Percentage),
				TriggerAtQuantity: m.TriggerAtQuantity,
				IsAdvance:         prev.IsAdvance,
				Status:            prev.Status,
				PaidDate:          prev.PaidDate,
			}
			continue
		}
		milestones[i] = newMilestone(m, in.TotalAmount, now)
		if milestones[i].Status != MilestoneUpcoming {
			appended = append(appended, i)
		}
	}

	name := strings.TrimSpace(in.Name)
	received := RecalculateReceived(milestones)
	update := PackageUpdate{
		Name:           &name,
		Period:         &in.Period,
		LineItems:      &items,
		TotalAmount:    &in.TotalAmount,
		ReceivedAmount: &received,
		Milestones:     &milestones,
		UpdatedAt:      now,
	}
	if err := s.store.UpdatePackage(ctx, id, update); err != nil {
		return Package{}, fmt.Errorf("update package %s: %w", id, err)
	}
	update.Apply(&pkg)

	s.log.Info("package edited",
		zap.String("package_id", id),
		zap.Int64("total_amount", pkg.TotalAmount),
		zap.Int64("received_amount", pkg.ReceivedAmount),
		zap.Int("appended_milestones", len(appended)))

	for _, i := range appended {
		s.metrics.MilestoneTransition(string(pkg.Milestones[i].Status))
		s.emit(ctx, pkg, i, now)
	}
	return pkg, nil
}

// RecalculateReceived sums AmountDue over received milestones. Because
// amounts follow the current total and percentage, editing a package also
// changes what its already-paid milestones count for.
func RecalculateReceived(milestones []PaymentMilestone) int64 {
	var sum int64
	for _, m := range milestones {
		if m.Status == MilestoneReceived {
			sum += m.AmountDue
		}
	}
	return sum
}

// =============================================================================
// TRIGGERING
// =============================================================================

// SyncResult reports what SyncMilestones changed.
type SyncResult struct {
	Package   Package
	Triggered []int
	Completed int
}

// SyncMilestones moves every awaiting milestone whose trigger is met by the
// package's live completed count to due, emitting one alert per transition.
// It also marks the package completed once every unit is delivered and every
// milestone received. Transitions never go backwards.
func (s *Service) SyncMilestones(ctx context.Context, id string) (SyncResult, error) {
	pkg, err := s.store.GetPackage(ctx, id)
	if err != nil {
		return SyncResult{}, err
	}
	tasks, err := s.tasks.ListTasksByPackage(ctx, id)
	if err != nil {
		return SyncResult{}, fmt.Errorf("list tasks of package %s: %w", id, err)
	}

	done := PackageCompletedTotal(pkg, tasks)
	result := SyncResult{Completed: done}

	milestones := append([]PaymentMilestone(nil), pkg.Milestones...)
	for i, m := range milestones {
		if m.Status.IsAwaiting() && done >= m.TriggerAtQuantity {
			milestones[i].Status = MilestoneDue
			result.Triggered = append(result.Triggered, i)
		}
	}
	status := nextStatus(pkg, milestones, done)

	if len(result.Triggered) == 0 && status == pkg.Status {
		result.Package = pkg
		return result, nil
	}

	now := s.now()
	update := PackageUpdate{Milestones: &milestones, Status: &status, UpdatedAt: now}
	if err := s.store.UpdatePackage(ctx, id, update); err != nil {
		return SyncResult{}, fmt.Errorf("update package %s: %w", id, err)
	}
	update.Apply(&pkg)
	result.Package = pkg

	s.log.Info("milestones synced",
		zap.String("package_id", id),
		zap.Int("completed_units", done),
		zap.Ints("triggered", result.Triggered),
		zap.String("status", string(pkg.Status)))

	for _, i := range result.Triggered {
		s.metrics.MilestoneTransition(string(MilestoneDue))
		s.emit(ctx, pkg, i, now)
	}
	return result, nil
}

// MarkReceived records payment of milestone index. The milestone must not
// already be received.
func (s *Service) MarkReceived(ctx context.Context, id string, index int) (Package, error) {
	pkg, err := s.store.GetPackage(ctx, id)
	if err != nil {
		return Package{}, err
	}
	if index < 0 || index >= len(pkg.Milestones) {
		return Package{}, &MilestoneError{Index: index, Reason: "no such milestone", Err: ErrInvalidMilestone}
	}
	if pkg.Milestones[index].Status == MilestoneReceived {
		return Package{}, &MilestoneError{Index: index, Reason: "already received", Err: ErrMilestoneTransition}
	}

	tasks, err := s.tasks.ListTasksByPackage(ctx, id)
	if err != nil {
		return Package{}, fmt.Errorf("list tasks of package %s: %w", id, err)
	}

	now := s.now()
	paid := now
	milestones := append([]PaymentMilestone(nil), pkg.Milestones...)
	milestones[index].Status = MilestoneReceived
	milestones[index].PaidDate = &paid

	received := RecalculateReceived(milestones)
	status := nextStatus(pkg, milestones, PackageCompletedTotal(pkg, tasks))
	update := PackageUpdate{
		Milestones:     &milestones,
		ReceivedAmount: &received,
		Status:         &status,
		UpdatedAt:      now,
	}
	if err := s.store.UpdatePackage(ctx, id, update); err != nil {
		return Package{}, fmt.Errorf("update package %s: %w", id, err)
	}
	update.Apply(&pkg)

	s.log.Info("milestone received",
		zap.String("package_id", id),
		zap.Int("milestone", index),
		zap.Int64("amount", pkg.Milestones[index].AmountDue),
		zap.Int64("received_amount", pkg.ReceivedAmount))

	s.metrics.MilestoneTransition(string(MilestoneReceived))
	s.emit(ctx, pkg, index, now)
	return pkg, nil
}

// nextStatus never reverts a completed package.
func nextStatus(pkg Package, milestones []PaymentMilestone, done int) PackageStatus {
	if pkg.Status == PackageCompleted {
		return PackageCompleted
	}
	quantity := pkg.TotalQuantity()
	if quantity == 0 || done < quantity {
		return PackageActive
	}
	for _, m := range milestones {
		if m.Status != MilestoneReceived {
			return PackageActive
		}
	}
	return PackageCompleted
}

// =============================================================================
// READ & DELETE
// =============================================================================

// Progress reports live completion of a package.
func (s *Service) Progress(ctx context.Context, id string) (PackageProgress, error) {
	pkg, err := s.store.GetPackage(ctx, id)
	if err != nil {
		return PackageProgress{}, err
	}
	tasks, err := s.tasks.ListTasksByPackage(ctx, id)
	if err != nil {
		return PackageProgress{}, fmt.Errorf("list tasks of package %s: %w", id, err)
	}
	return ProgressOf(pkg, tasks), nil
}

// Delete removes a package. Linked tasks are left in place and keep their
// package reference.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.DeletePackage(ctx, id); err != nil {
		return err
	}
	s.log.Info("package deleted", zap.String("package_id", id))
	return nil
}

// =============================================================================
// ALERTS
// =============================================================================

func (s *Service) emit(ctx context.Context, pkg Package, index int, at time.Time) {
	m := pkg.Milestones[index]
	alert := PaymentAlert{
		ClientID:       pkg.ClientID,
		ClientName:     pkg.ClientName,
		PackageID:      pkg.ID,
		PackageName:    pkg.Name,
		MilestoneIndex: index,
		MilestoneLabel: m.Label,
		Amount:         m.AmountDue,
		Status:         m.Status,
		TriggeredAt:    at,
		IdempotencyKey: AlertKey(pkg.ID, index, m.Status),
	}
	if m.Status == MilestoneReceived {
		resolved := at
		if m.PaidDate != nil {
			resolved = *m.PaidDate
		}
		alert.ResolvedAt = &resolved
	}

	if s.alerts == nil {
		return
	}
	err := s.alerts.CreatePaymentAlert(ctx, alert)
	switch {
	case err == nil:
		s.metrics.AlertRecorded(string(alert.Status))
	case errors.Is(err, ErrDuplicateAlert):
		s.log.Debug("payment alert already recorded", zap.String("key", alert.IdempotencyKey))
	default:
		s.metrics.AlertDropped(string(alert.Status))
		s.log.Warn("payment alert dropped",
			zap.String("package_id", pkg.ID),
			zap.Int("milestone", index),
			zap.String("status", string(alert.Status)),
			zap.Error(err))
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

func validateHeader(name string, total int64) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidPackage)
	}
	if total < 0 {
		return fmt.Errorf("%w: total amount cannot be negative", ErrInvalidPackage)
	}
	return nil
}

// cleanLineItems drops rows without a service name.
func cleanLineItems(items []LineItem) ([]LineItem, error) {
	out := make([]LineItem, 0, len(items))
	for _, item := range items {
		name := strings.TrimSpace(item.ServiceName)
		if name == "" {
			continue
		}
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: line item %q needs a positive quantity", ErrInvalidPackage, name)
		}
		out = append(out, LineItem{ServiceName: name, Quantity: item.Quantity})
	}
	return out, nil
}

func validateMilestones(milestones []MilestoneInput) error {
	for i, m := range milestones {
		if strings.TrimSpace(m.Label) == "" {
			return &MilestoneError{Index: i, Reason: "label is required", Err: ErrInvalidMilestone}
		}
		if m.Percentage.IsNegative() || m.Percentage.GreaterThan(hundred) {
			return &MilestoneError{Index: i, Reason: "percentage must be between 0 and 100", Err: ErrInvalidMilestone}
		}
		if m.TriggerAtQuantity < 0 {
			return &MilestoneError{Index: i, Reason: "trigger quantity cannot be negative", Err: ErrInvalidMilestone}
		}
	}
	return nil
}
