package app

import (
	"context"
	"time"

	"caterer-billing/internal/core"
)

// ApplicationService is the single interface all UI adapters call. It
// decouples presentation from business logic. Implementations must contain
// no display logic of any kind.
type ApplicationService interface {
	// ListCaterers returns all active caterers with their balance projections.
	ListCaterers(ctx context.Context) (*CatererListResult, error)

	// GetCaterer returns one caterer by ID.
	GetCaterer(ctx context.Context, id int) (*CatererResult, error)

	// CreateCaterer registers a new caterer with a zeroed balance.
	CreateCaterer(ctx context.Context, req CatererRequest) (*CatererResult, error)

	// UpdateCaterer rewrites a caterer's contact fields.
	UpdateCaterer(ctx context.Context, id int, req CatererRequest) (*CatererResult, error)

	// DeleteCaterer soft-deletes a caterer. Refused while bills or payments
	// reference it.
	DeleteCaterer(ctx context.Context, id int) error

	// SyncCatererBalance recomputes one caterer's aggregate from its
	// distributions and payments, repairing any drift.
	SyncCatererBalance(ctx context.Context, id int) (*BalanceResult, error)

	// SyncAllCatererBalances recomputes every caterer's aggregate and
	// reports a per-caterer success/failure tally.
	SyncAllCatererBalances(ctx context.Context) (*core.SyncReport, error)

	// ListDistributions returns bills, optionally filtered by caterer and status.
	ListDistributions(ctx context.Context, catererID *int, status string) (*DistributionListResult, error)

	// GetDistribution returns one bill including its line items.
	GetDistribution(ctx context.Context, id int) (*DistributionResult, error)

	// CreateDistribution creates a bill from raw line inputs. Amounts, GST
	// and totals are computed server-side.
	CreateDistribution(ctx context.Context, req CreateDistributionRequest) (*DistributionResult, error)

	// ApplyPayment records a payment against a distribution and advances its
	// ledger. Overpayments are rejected, as are payments against paid or
	// cancelled bills and payments carrying a stale balance precondition.
	ApplyPayment(ctx context.Context, req ApplyPaymentRequest) (*DistributionResult, error)

	// CancelDistribution moves a bill to the terminal cancelled state.
	CancelDistribution(ctx context.Context, id int) (*DistributionResult, error)

	// DeleteDistribution removes a bill and its lines. Refused while
	// payments reference it.
	DeleteDistribution(ctx context.Context, id int) error

	// ListPayments returns payment records, optionally filtered.
	ListPayments(ctx context.Context, catererID, distributionID *int) (*PaymentListResult, error)

	// RecordCatererPayment records a payment at the caterer level, not tied
	// to any distribution.
	RecordCatererPayment(ctx context.Context, req CatererPaymentRequest) (*PaymentResult, error)

	// ListReminders returns all materialized payment reminders with urgency
	// computed against today.
	ListReminders(ctx context.Context) (*ReminderListResult, error)

	// GetReminderSchedule returns the merged view: materialized reminders
	// plus synthesized ones for open distributions without a reminder row.
	GetReminderSchedule(ctx context.Context) (*ScheduleResult, error)

	// CreateReminder materializes a reminder. At most one may exist per
	// distribution.
	CreateReminder(ctx context.Context, req CreateReminderRequest) (*ReminderResult, error)

	// MarkReminderRead flags a reminder as read.
	MarkReminderRead(ctx context.Context, id int) (*ReminderResult, error)

	// AcknowledgeReminder marks a reminder acknowledged (and read).
	AcknowledgeReminder(ctx context.Context, id int) (*ReminderResult, error)

	// DeleteReminder removes a reminder row, never the underlying bill.
	DeleteReminder(ctx context.Context, id int) error

	// SetNextReminderDate sets the follow-up date. On a synthesized
	// reminder this promotes it to a persisted row.
	SetNextReminderDate(ctx context.Context, req SetNextReminderRequest) (*ReminderResult, error)
}

// Clock returns "now" for urgency and status derivation. Swapped in tests.
type Clock func() time.Time
