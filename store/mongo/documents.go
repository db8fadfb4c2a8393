package mongo

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/warp/fulfillment-engine/billing"
	"github.com/warp/fulfillment-engine/calendar"
	"github.com/warp/fulfillment-engine/schedule"
)

// =============================================================================
// DOCUMENT SHAPES - bson mirrors of the domain types
// =============================================================================

// Dates are stored as "2006-01-02" strings and percentages as decimal
// strings so documents sort and compare without float drift.

type taskDoc struct {
	ID                   string    `bson:"_id"`
	ClientID             string    `bson:"client_id"`
	ServiceID            string    `bson:"service_id"`
	Type                 string    `bson:"type"`
	Priority             string    `bson:"priority"`
	StartDate            string    `bson:"start_date"`
	Deadline             string    `bson:"deadline"`
	Description          string    `bson:"description"`
	Status               string    `bson:"status"`
	Progress             int       `bson:"progress"`
	AssignedEmployeeID   string    `bson:"assigned_employee_id"`
	Amount               int64     `bson:"amount"`
	PackageID            string    `bson:"package_id,omitempty"`
	PackageLineItemIndex *int      `bson:"package_line_item_index,omitempty"`
	CreatedAt            time.Time `bson:"created_at"`
}

func toTaskDoc(t schedule.Task) taskDoc {
	return taskDoc{
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
		CreatedAt:            t.CreatedAt,
	}
}

func (d taskDoc) toTask() schedule.Task {
	t := schedule.Task{
		ID:                 d.ID,
		ClientID:           d.ClientID,
		ServiceID:          d.ServiceID,
		Type:               d.Type,
		Priority:           schedule.Priority(d.Priority),
		Description:        d.Description,
		Status:             schedule.ParseTaskStatus(d.Status),
		Progress:           d.Progress,
		AssignedEmployeeID: d.AssignedEmployeeID,
		Amount:             d.Amount,
		PackageID:          d.PackageID,
		CreatedAt:          d.CreatedAt,
	}
	t.StartDate, _ = calendar.ParseDate(d.StartDate)
	t.Deadline, _ = calendar.ParseDate(d.Deadline)
	if d.PackageLineItemIndex != nil {
		t.PackageLineItemIndex = schedule.IndexRef(*d.PackageLineItemIndex)
	}
	return t
}

type lineItemDoc struct {
	ServiceName string `bson:"service_name"`
	Quantity    int    `bson:"quantity"`
}

type milestoneDoc struct {
	Label             string     `bson:"label"`
	Percentage        string     `bson:"percentage"`
	AmountDue         int64      `bson:"amount_due"`
	TriggerAtQuantity int        `bson:"trigger_at_quantity"`
	IsAdvance         bool       `bson:"is_advance"`
	Status            string     `bson:"status"`
	PaidDate          *time.Time `bson:"paid_date,omitempty"`
}

type packageDoc struct {
	ID             string         `bson:"_id"`
	ClientID       string         `bson:"client_id"`
	ClientName     string         `bson:"client_name"`
	Name           string         `bson:"name"`
	Period         string         `bson:"period"`
	LineItems      []lineItemDoc  `bson:"line_items"`
	TotalAmount    int64          `bson:"total_amount"`
	ReceivedAmount int64          `bson:"received_amount"`
	Milestones     []milestoneDoc `bson:"milestones"`
	Status         string         `bson:"status"`
	CreatedAt      time.Time      `bson:"created_at"`
	UpdatedAt      time.Time      `bson:"updated_at"`
}

func toLineItemDocs(items []billing.LineItem) []lineItemDoc {
	docs := make([]lineItemDoc, len(items))
	for i, item := range items {
		docs[i] = lineItemDoc{ServiceName: item.ServiceName, Quantity: item.Quantity}
	}
	return docs
}

func toMilestoneDocs(milestones []billing.PaymentMilestone) []milestoneDoc {
	docs := make([]milestoneDoc, len(milestones))
	for i, m := range milestones {
		docs[i] = milestoneDoc{
			Label:             m.Label,
			Percentage:        m.Percentage.String(),
			AmountDue:         m.AmountDue,
			TriggerAtQuantity: m.TriggerAtQuantity,
			IsAdvance:         m.IsAdvance,
			Status:            string(m.Status),
			PaidDate:          m.PaidDate,
		}
	}
	return docs
}

func toPackageDoc(p billing.Package) packageDoc {
	return packageDoc{
		ID:             p.ID,
		ClientID:       p.ClientID,
		ClientName:     p.ClientName,
		Name:           p.Name,
		Period:         p.Period,
		LineItems:      toLineItemDocs(p.LineItems),
		TotalAmount:    p.TotalAmount,
		ReceivedAmount: p.ReceivedAmount,
		Milestones:     toMilestoneDocs(p.Milestones),
		Status:         string(p.Status),
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func (d packageDoc) toPackage() billing.Package {
	p := billing.Package{
		ID:             d.ID,
		ClientID:       d.ClientID,
		ClientName:     d.ClientName,
		Name:           d.Name,
		Period:         d.Period,
		LineItems:      make([]billing.LineItem, len(d.LineItems)),
		TotalAmount:    d.TotalAmount,
		ReceivedAmount: d.ReceivedAmount,
		Milestones:     make([]billing.PaymentMilestone, len(d.Milestones)),
		Status:         billing.PackageStatus(d.Status),
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
	for i, item := range d.LineItems {
		p.LineItems[i] = billing.LineItem{ServiceName: item.ServiceName, Quantity: item.Quantity}
	}
	for i, m := range d.Milestones {
		pct, err := decimal.NewFromString(m.Percentage)
		if err != nil {
			pct = decimal.Zero
		}
		p.Milestones[i] = billing.PaymentMilestone{
			Label:             m.Label,
			Percentage:        pct,
			AmountDue:         m.AmountDue,
			TriggerAtQuantity: m.TriggerAtQuantity,
			IsAdvance:         m.IsAdvance,
			Status:            billing.ParseMilestoneStatus(m.Status),
			PaidDate:          m.PaidDate,
		}
	}
	return p
}

// updateDoc builds the $set document for the fields present in u.
func updateDoc(u billing.PackageUpdate) bson.M {
	set := bson.M{}
	if u.Name != nil {
		set["name"] = *u.Name
	}
	if u.Period != nil {
		set["period"] = *u.Period
	}
	if u.LineItems != nil {
		set["line_items"] = toLineItemDocs(*u.LineItems)
	}
	if u.TotalAmount != nil {
		set["total_amount"] = *u.TotalAmount
	}
	if u.ReceivedAmount != nil {
		set["received_amount"] = *u.ReceivedAmount
	}
	if u.Milestones != nil {
		set["milestones"] = toMilestoneDocs(*u.Milestones)
	}
	if u.Status != nil {
		set["status"] = string(*u.Status)
	}
	if !u.UpdatedAt.IsZero() {
		set["updated_at"] = u.UpdatedAt
	}
	return set
}

type alertDoc struct {
	ID             string     `bson:"_id"`
	ClientID       string     `bson:"client_id"`
	ClientName     string     `bson:"client_name"`
	PackageID      string     `bson:"package_id"`
	PackageName    string     `bson:"package_name"`
	MilestoneIndex int        `bson:"milestone_index"`
	MilestoneLabel string     `bson:"milestone_label"`
	Amount         int64      `bson:"amount"`
	Status         string     `bson:"status"`
	TriggeredAt    time.Time  `bson:"triggered_at"`
	ResolvedAt     *time.Time `bson:"resolved_at,omitempty"`
	IdempotencyKey string     `bson:"idempotency_key,omitempty"`
}

func toAlertDoc(a billing.PaymentAlert) alertDoc {
	return alertDoc{
		ID:             a.ID,
		ClientID:       a.ClientID,
		ClientName:     a.ClientName,
		PackageID:      a.PackageID,
		PackageName:    a.PackageName,
		MilestoneIndex: a.MilestoneIndex,
		MilestoneLabel: a.MilestoneLabel,
		Amount:         a.Amount,
		Status:         string(a.Status),
		TriggeredAt:    a.TriggeredAt,
		ResolvedAt:     a.ResolvedAt,
		IdempotencyKey: a.IdempotencyKey,
	}
}

func (d alertDoc) toAlert() billing.PaymentAlert {
	return billing.PaymentAlert{
		ID:             d.ID,
		ClientID:       d.ClientID,
		ClientName:     d.ClientName,
		PackageID:      d.PackageID,
		PackageName:    d.PackageName,
		MilestoneIndex: d.MilestoneIndex,
		MilestoneLabel: d.MilestoneLabel,
		Amount:         d.Amount,
		Status:         billing.ParseMilestoneStatus(d.Status),
		TriggeredAt:    d.TriggeredAt,
		ResolvedAt:     d.ResolvedAt,
		IdempotencyKey: d.IdempotencyKey,
	}
}

type clientDoc struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"name"`
	Email     string    `bson:"email,omitempty"`
	CreatedAt time.Time `bson:"created_at"`
}

func (d clientDoc) toClient() billing.Client {
	return billing.Client{ID: d.ID, Name: d.Name, Email: d.Email, CreatedAt: d.CreatedAt}
}

type holidayDoc struct {
	ID        string    `bson:"_id"`
	Date      string    `bson:"date"`
	Name      string    `bson:"name"`
	Recurring bool      `bson:"recurring"`
	CreatedAt time.Time `bson:"created_at"`
}

func (d holidayDoc) toHoliday() calendar.Holiday {
	date, _ := calendar.ParseDate(d.Date)
	return calendar.Holiday{ID: d.ID, Date: date, Name: d.Name, Recurring: d.Recurring}
}
