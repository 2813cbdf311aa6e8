package core

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

type DistributionStatus string

const (
	StatusPending   DistributionStatus = "pending"
	StatusActive    DistributionStatus = "active"
	StatusPartial   DistributionStatus = "partial"
	StatusPaid      DistributionStatus = "paid"
	StatusOverdue   DistributionStatus = "overdue"
	StatusCancelled DistributionStatus = "cancelled"
)

type ReminderUrgency string

const (
	UrgencyPending  ReminderUrgency = "pending"
	UrgencyUpcoming ReminderUrgency = "upcoming"
	UrgencyDueToday ReminderUrgency = "due_today"
	UrgencyOverdue  ReminderUrgency = "overdue"
)

// Caterer carries a denormalized balance projection (total_billed, total_paid,
// balance_due, total_orders) over its non-cancelled distributions and payments.
// The projection may drift from ledger truth and is repaired by the sync job.
type Caterer struct {
	ID            int             `json:"id"`
	Name          string          `json:"name"`
	ContactPerson *string         `json:"contact_person,omitempty"`
	Phone         *string         `json:"phone,omitempty"`
	Email         *string         `json:"email,omitempty"`
	Address       *string         `json:"address,omitempty"`
	GSTIN         *string         `json:"gstin,omitempty"`
	TotalBilled   decimal.Decimal `json:"total_billed"`
	TotalPaid     decimal.Decimal `json:"total_paid"`
	BalanceDue    decimal.Decimal `json:"balance_due"`
	TotalOrders   int             `json:"total_orders"`
	IsActive      bool            `json:"is_active"`
	CreatedAt     time.Time       `json:"created_at"`
}

// DistributionItem is a single billed line. Amount and GSTAmount are always
// recomputed server-side from quantity, rate and gst_percentage.
type DistributionItem struct {
	ID             int             `json:"id"`
	DistributionID int             `json:"distribution_id"`
	SpiceID        *int            `json:"spice_id,omitempty"`
	ItemName       string          `json:"item_name"`
	Quantity       decimal.Decimal `json:"quantity"`
	Unit           string          `json:"unit"`
	Rate           decimal.Decimal `json:"rate"`
	GSTPercentage  decimal.Decimal `json:"gst_percentage"`
	GSTAmount      decimal.Decimal `json:"gst_amount"`
	Amount         decimal.Decimal `json:"amount"`
}

// Distribution is a caterer bill with line items and its payment ledger.
// GrandTotal = TotalAmount + TotalGSTAmount, BalanceDue = GrandTotal - AmountPaid
// (never negative), and status paid implies a zero balance.
type Distribution struct {
	ID               int                `json:"id"`
	BillNo           string             `json:"bill_no"`
	CatererID        int                `json:"caterer_id"`
	DistributionDate time.Time          `json:"distribution_date"`
	Items            []DistributionItem `json:"items"`
	TotalAmount      decimal.Decimal    `json:"total_amount"`
	TotalGSTAmount   decimal.Decimal    `json:"total_gst_amount"`
	GrandTotal       decimal.Decimal    `json:"grand_total"`
	AmountPaid       decimal.Decimal    `json:"amount_paid"`
	BalanceDue       decimal.Decimal    `json:"balance_due"`
	Status           DistributionStatus `json:"status"`
	PaymentMode      *string            `json:"payment_mode,omitempty"`
	Notes            *string            `json:"notes,omitempty"`
	CreatedAt        time.Time          `json:"created_at"`
}

// CatererPayment is an append-only payment record. It references either
// exactly one distribution or, with a nil DistributionID, the caterer account
// as a whole. There is no update or void path; corrections are new entries.
type CatererPayment struct {
	ID             int             `json:"id"`
	CatererID      int             `json:"caterer_id"`
	DistributionID *int            `json:"distribution_id,omitempty"`
	Amount         decimal.Decimal `json:"amount"`
	PaymentDate    time.Time       `json:"payment_date"`
	PaymentMode    string          `json:"payment_mode"`
	ReferenceNo    *string         `json:"reference_no,omitempty"`
	Notes          *string         `json:"notes,omitempty"`
	ReceiptImage   *string         `json:"receipt_image,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// PaymentReminder is a materialized reminder row. At most one row may exist
// per distribution, enforced by a partial unique index.
type PaymentReminder struct {
	ID               int             `json:"id"`
	CatererID        int             `json:"caterer_id"`
	DistributionID   *int            `json:"distribution_id,omitempty"`
	Amount           decimal.Decimal `json:"amount"`
	OriginalDueDate  time.Time       `json:"original_due_date"`
	ReminderDate     time.Time       `json:"reminder_date"`
	NextReminderDate *time.Time      `json:"next_reminder_date,omitempty"`
	Urgency          ReminderUrgency `json:"urgency"`
	IsRead           bool            `json:"is_read"`
	IsAcknowledged   bool            `json:"is_acknowledged"`
	AcknowledgedAt   *time.Time      `json:"acknowledged_at,omitempty"`
	Notes            *string         `json:"notes,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

type ReminderSource string

const (
	// SourcePersisted marks a reminder backed by a payment_reminders row.
	SourcePersisted ReminderSource = "persisted"
	// SourceSynthesized marks a reminder derived on the fly from a
	// distribution with an outstanding balance. It has no row of its own
	// until promoted via SetNextReminderDate.
	SourceSynthesized ReminderSource = "synthesized"
)

// Reminder is the scheduler's unified view over persisted rows and
// distribution-derived entries. Source is the explicit discriminant;
// DistributionID identifies the underlying bill for either source.
type Reminder struct {
	Source           ReminderSource  `json:"source"`
	PersistedID      int             `json:"persisted_id,omitempty"` // zero for synthesized
	CatererID        int             `json:"caterer_id"`
	DistributionID   *int            `json:"distribution_id,omitempty"`
	Amount           decimal.Decimal `json:"amount"`
	ReminderDate     time.Time       `json:"reminder_date"`
	NextReminderDate *time.Time      `json:"next_reminder_date,omitempty"`
	Urgency          ReminderUrgency `json:"urgency"`
	IsRead           bool            `json:"is_read"`
	IsAcknowledged   bool            `json:"is_acknowledged"`
	Notes            *string         `json:"notes,omitempty"`
}

// Key returns a stable identity for notification dedup: persisted reminders
// key on their row ID, synthesized ones on the distribution they shadow.
func (r Reminder) Key() string {
	if r.Source == SourcePersisted {
		return "reminder:" + strconv.Itoa(r.PersistedID)
	}
	if r.DistributionID != nil {
		return "distribution:" + strconv.Itoa(*r.DistributionID)
	}
	return "caterer:" + strconv.Itoa(r.CatererID)
}

// CatererBalance is the projection recomputed by the sync job.
type CatererBalance struct {
	CatererID   int             `json:"caterer_id"`
	TotalBilled decimal.Decimal `json:"total_billed"`
	TotalPaid   decimal.Decimal `json:"total_paid"`
	BalanceDue  decimal.Decimal `json:"balance_due"`
	TotalOrders int             `json:"total_orders"`
}

// SyncReport is the per-caterer tally returned by SyncAllCatererBalances.
type SyncReport struct {
	Synced int            `json:"synced"`
	Failed int            `json:"failed"`
	Errors map[int]string `json:"errors,omitempty"` // caterer ID -> failure message
}
