/*
Package billing tracks service packages and their staged payment plans.

PURPOSE:
  A package bundles line-item service quantities sold to a client with a
  list of payment milestones. Each milestone is a percentage of the package
  total that becomes due once enough units are delivered. This package owns
  the milestone state machine and the derived completion figures.

KEY CONCEPTS:
  - Milestone status only moves forward: upcoming -> due -> received
  - Amounts are always recomputed from the current total and percentage
  - ReceivedAmount is a cached sum of received milestone amounts
  - Completion is never stored; it is counted from linked tasks on demand

MILESTONE LIFECYCLE:

    created as advance           -> received (paid at creation)
    created with trigger 0       -> due
    created otherwise            -> upcoming
    completed units >= trigger   -> due       (SyncMilestones)
    payment recorded             -> received  (MarkReceived)

SEE ALSO:
  - service.go: Create, Edit, SyncMilestones, MarkReceived, Delete
  - progress.go: derived completion counts
  - schedule/task.go: terminal task statuses
*/
package billing

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// STATUSES
// =============================================================================

// PackageStatus is the lifecycle state of a package.
type PackageStatus string

const (
	PackageActive    PackageStatus = "active"
	PackageCompleted PackageStatus = "completed"
)

// MilestoneStatus is the payment state of a milestone.
type MilestoneStatus string

const (
	MilestoneUpcoming MilestoneStatus = "upcoming"
	MilestoneDue      MilestoneStatus = "due"
	MilestoneReceived MilestoneStatus = "received"

	// MilestoneLegacy covers stored values from older records ("pending",
	// "waiting") and anything unrecognised. It is treated as upcoming.
	MilestoneLegacy MilestoneStatus = "legacy"
)

// ParseMilestoneStatus maps a stored status string onto the closed set.
func ParseMilestoneStatus(s string) MilestoneStatus {
	switch MilestoneStatus(strings.ToLower(strings.TrimSpace(s))) {
	case MilestoneUpcoming:
		return MilestoneUpcoming
	case MilestoneDue:
		return MilestoneDue
	case MilestoneReceived:
		return MilestoneReceived
	default:
		return MilestoneLegacy
	}
}

// IsAwaiting reports whether the milestone has not been triggered yet.
func (s MilestoneStatus) IsAwaiting() bool {
	return s == MilestoneUpcoming || s == MilestoneLegacy
}

// UnmarshalText normalizes legacy values when decoding stored documents.
func (s *MilestoneStatus) UnmarshalText(text []byte) error {
	*s = ParseMilestoneStatus(string(text))
	return nil
}

// =============================================================================
// PACKAGE MODEL
// =============================================================================

// LineItem is one service type within a package.
type LineItem struct {
	ServiceName string `json:"service_name"`
	Quantity    int    `json:"quantity"`
}

// PaymentMilestone is a payment checkpoint tied to a share of the package
// total and a cumulative completion threshold.
type PaymentMilestone struct {
	Label             string          `json:"label"`
	Percentage        decimal.Decimal `json:"percentage"`
	AmountDue         int64           `json:"amount_due"`
	TriggerAtQuantity int             `json:"trigger_at_quantity"`
	IsAdvance         bool            `json:"is_advance"`
	Status            MilestoneStatus `json:"status"`
	PaidDate          *time.Time      `json:"paid_date,omitempty"`
}

// Package is a bundle of service units sold under one payment plan.
type Package struct {
	ID             string             `json:"id"`
	ClientID       string             `json:"client_id"`
	ClientName     string             `json:"client_name"`
	Name           string             `json:"name"`
	Period         string             `json:"period"`
	LineItems      []LineItem         `json:"line_items"`
	TotalAmount    int64              `json:"total_amount"`
	ReceivedAmount int64              `json:"received_amount"`
	Milestones     []PaymentMilestone `json:"milestones"`
	Status         PackageStatus      `json:"status"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

// TotalQuantity is the number of units the package requires.
func (p Package) TotalQuantity() int {
	total := 0
	for _, item := range p.LineItems {
		total += item.Quantity
	}
	return total
}

// Balance is the part of the total not yet received.
func (p Package) Balance() int64 {
	return p.TotalAmount - p.ReceivedAmount
}

// PackageUpdate carries the fields to change on a stored package. Nil
// fields are left untouched.
type PackageUpdate struct {
	Name           *string
	Period         *string
	LineItems      *[]LineItem
	TotalAmount    *int64
	ReceivedAmount *int64
	Milestones     *[]PaymentMilestone
	Status         *PackageStatus
	UpdatedAt      time.Time
}

// Apply writes the set fields of u onto p.
func (u PackageUpdate) Apply(p *Package) {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Period != nil {
		p.Period = *u.Period
	}
	if u.LineItems != nil {
		p.LineItems = append([]LineItem(nil), (*u.LineItems)...)
	}
	if u.TotalAmount != nil {
		p.TotalAmount = *u.TotalAmount
	}
	if u.ReceivedAmount != nil {
		p.ReceivedAmount = *u.ReceivedAmount
	}
	if u.Milestones != nil {
		p.Milestones = append([]PaymentMilestone(nil), (*u.Milestones)...)
	}
	if u.Status != nil {
		p.Status = *u.Status
	}
	if !u.UpdatedAt.IsZero() {
		p.UpdatedAt = u.UpdatedAt
	}
}

// =============================================================================
// CLIENTS & ALERTS
// =============================================================================

// Client is the customer a package is sold to.
type Client struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// PaymentAlert records a milestone becoming due or being received.
type PaymentAlert struct {
	ID             string          `json:"id"`
	ClientID       string          `json:"client_id"`
	ClientName     string          `json:"client_name"`
	PackageID      string          `json:"package_id"`
	PackageName    string          `json:"package_name"`
	MilestoneIndex int             `json:"milestone_index"`
	MilestoneLabel string          `json:"milestone_label"`
	Amount         int64           `json:"amount"`
	Status         MilestoneStatus `json:"status"`
	TriggeredAt    time.Time       `json:"triggered_at"`
	ResolvedAt     *time.Time      `json:"resolved_at,omitempty"`
	IdempotencyKey string          `json:"idempotency_key"`
}

// AlertKey identifies one milestone transition. Stores reject a second
// alert with the same key.
func AlertKey(packageID string, index int, status MilestoneStatus) string {
	return fmt.Sprintf("%s:%d:%s", packageID, index, status)
}

// =============================================================================
// AMOUNTS
// =============================================================================

var hundred = decimal.NewFromInt(100)

// AmountFor returns round(percentage/100 * total), rounding half away from zero.
func AmountFor(total int64, percentage decimal.Decimal) int64 {
	return decimal.NewFromInt(total).Mul(percentage).Div(hundred).Round(0).IntPart()
}
