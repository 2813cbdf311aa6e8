package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type ReminderService interface {
	ListReminders(ctx context.Context, today time.Time) ([]PaymentReminder, error)
	GetSchedule(ctx context.Context, today time.Time) ([]Reminder, error)
	CreateReminder(ctx context.Context, input CreateReminderInput) (*PaymentReminder, error)
	MarkAsRead(ctx context.Context, id int) (*PaymentReminder, error)
	Acknowledge(ctx context.Context, id int) (*PaymentReminder, error)
	DeleteReminder(ctx context.Context, id int) error
	SetNextReminderDate(ctx context.Context, ref ReminderRef, next time.Time) (*PaymentReminder, error)
}

type CreateReminderInput struct {
	CatererID       int
	DistributionID  *int
	Amount          decimal.Decimal
	OriginalDueDate time.Time
	ReminderDate    time.Time
	Notes           *string
}

// ReminderRef addresses a reminder in either form of the sum type:
// a persisted row by ID, or a synthesized reminder by its distribution.
type ReminderRef struct {
	Source         ReminderSource
	PersistedID    int
	DistributionID int
}

type reminderService struct {
	pool *pgxpool.Pool
}

// NewReminderService constructs a ReminderService backed by PostgreSQL.
func NewReminderService(pool *pgxpool.Pool) ReminderService {
	return &reminderService{pool: pool}
}

const reminderColumns = `id, caterer_id, distribution_id, amount, original_due_date,
	reminder_date, next_reminder_date, is_read, is_acknowledged, acknowledged_at, notes, created_at`

func scanReminder(row pgx.Row, today time.Time) (*PaymentReminder, error) {
	r := &PaymentReminder{}
	err := row.Scan(
		&r.ID, &r.CatererID, &r.DistributionID, &r.Amount, &r.OriginalDueDate,
		&r.ReminderDate, &r.NextReminderDate, &r.IsRead, &r.IsAcknowledged,
		&r.AcknowledgedAt, &r.Notes, &r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	// Urgency is derived, never stored.
	r.Urgency = UrgencyFor(r.ReminderDate, today)
	return r, nil
}

// ListReminders returns all materialized reminders, most urgent first, with
// urgency computed against today.
func (s *reminderService) ListReminders(ctx context.Context, today time.Time) ([]PaymentReminder, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT "+reminderColumns+" FROM payment_reminders ORDER BY reminder_date, id",
	)
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	defer rows.Close()

	var reminders []PaymentReminder
	for rows.Next() {
		var r PaymentReminder
		if err := rows.Scan(
			&r.ID, &r.CatererID, &r.DistributionID, &r.Amount, &r.OriginalDueDate,
			&r.ReminderDate, &r.NextReminderDate, &r.IsRead, &r.IsAcknowledged,
			&r.AcknowledgedAt, &r.Notes, &r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan reminder: %w", err)
		}
		r.Urgency = UrgencyFor(r.ReminderDate, today)
		reminders = append(reminders, r)
	}
	return reminders, rows.Err()
}

// GetSchedule returns the merged reminder view: every materialized reminder
// plus a synthesized entry for each open distribution that has no reminder
// row yet.
func (s *reminderService) GetSchedule(ctx context.Context, today time.Time) ([]Reminder, error) {
	persisted, err := s.ListReminders(ctx, today)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, bill_no, caterer_id, distribution_date,
		       total_amount, total_gst_amount, grand_total,
		       amount_paid, balance_due, status, payment_mode, notes, created_at
		FROM distributions
		WHERE status NOT IN ('cancelled', 'paid') AND balance_due > 0
		ORDER BY distribution_date`,
	)
	if err != nil {
		return nil, fmt.Errorf("list open distributions: %w", err)
	}
	defer rows.Close()

	var open []Distribution
	for rows.Next() {
		var d Distribution
		if err := rows.Scan(
			&d.ID, &d.BillNo, &d.CatererID, &d.DistributionDate,
			&d.TotalAmount, &d.TotalGSTAmount, &d.GrandTotal,
			&d.AmountPaid, &d.BalanceDue, &d.Status, &d.PaymentMode, &d.Notes, &d.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan distribution: %w", err)
		}
		open = append(open, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate distributions: %w", err)
	}

	return BuildSchedule(open, persisted, today), nil
}

// CreateReminder materializes a reminder row. At most one reminder may exist
// per distribution; a duplicate is rejected.
func (s *reminderService) CreateReminder(ctx context.Context, input CreateReminderInput) (*PaymentReminder, error) {
	if !input.Amount.IsPositive() {
		return nil, validationf("amount", "must be > 0, got %s", input.Amount)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	if err := tx.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM caterers WHERE id = $1)", input.CatererID,
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check caterer %d: %w", input.CatererID, err)
	}
	if !exists {
		return nil, &NotFoundError{Entity: "caterer", ID: input.CatererID}
	}

	if input.DistributionID != nil {
		var distCaterer int
		if err := tx.QueryRow(ctx,
			"SELECT caterer_id FROM distributions WHERE id = $1", *input.DistributionID,
		).Scan(&distCaterer); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, &NotFoundError{Entity: "distribution", ID: *input.DistributionID}
			}
			return nil, fmt.Errorf("fetch distribution %d: %w", *input.DistributionID, err)
		}
		if distCaterer != input.CatererID {
			return nil, validationf("distribution_id",
				"distribution %d does not belong to caterer %d", *input.DistributionID, input.CatererID)
		}
	}

	r, err := scanReminder(tx.QueryRow(ctx, `
		INSERT INTO payment_reminders
		            (caterer_id, distribution_id, amount, original_due_date, reminder_date, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (distribution_id) WHERE distribution_id IS NOT NULL DO NOTHING
		RETURNING `+reminderColumns,
		input.CatererID, input.DistributionID, input.Amount,
		input.OriginalDueDate.Format("2006-01-02"), input.ReminderDate.Format("2006-01-02"),
		input.Notes,
	), time.Now())
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, validationf("distribution_id",
				"a reminder already exists for distribution %d", *input.DistributionID)
		}
		return nil, fmt.Errorf("insert reminder: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit reminder: %w", err)
	}
	return r, nil
}

// MarkAsRead flags a reminder as read, removing it from the urgent set.
func (s *reminderService) MarkAsRead(ctx context.Context, id int) (*PaymentReminder, error) {
	r, err := scanReminder(s.pool.QueryRow(ctx,
		"UPDATE payment_reminders SET is_read = true WHERE id = $1 RETURNING "+reminderColumns, id,
	), time.Now())
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "reminder", ID: id}
		}
		return nil, fmt.Errorf("mark reminder %d read: %w", id, err)
	}
	return r, nil
}

// Acknowledge marks a reminder acknowledged (and read) with a timestamp.
func (s *reminderService) Acknowledge(ctx context.Context, id int) (*PaymentReminder, error) {
	r, err := scanReminder(s.pool.QueryRow(ctx, `
		UPDATE payment_reminders
		SET is_acknowledged = true, is_read = true, acknowledged_at = NOW()
		WHERE id = $1
		RETURNING `+reminderColumns, id,
	), time.Now())
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "reminder", ID: id}
		}
		return nil, fmt.Errorf("acknowledge reminder %d: %w", id, err)
	}
	return r, nil
}

// DeleteReminder removes a reminder row. The underlying distribution is
// untouched; deletion never cascades.
func (s *reminderService) DeleteReminder(ctx context.Context, id int) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM payment_reminders WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete reminder %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return &NotFoundError{Entity: "reminder", ID: id}
	}
	return nil
}

// SetNextReminderDate updates the follow-up date on a persisted reminder, or
// promotes a synthesized reminder into a persisted row carrying the date.
// Promotion keeps the one-reminder-per-distribution invariant: if a row
// appeared concurrently, the promotion is refused.
func (s *reminderService) SetNextReminderDate(ctx context.Context, ref ReminderRef, next time.Time) (*PaymentReminder, error) {
	switch ref.Source {
	case SourcePersisted:
		r, err := scanReminder(s.pool.QueryRow(ctx, `
			UPDATE payment_reminders SET next_reminder_date = $1
			WHERE id = $2
			RETURNING `+reminderColumns,
			next.Format("2006-01-02"), ref.PersistedID,
		), time.Now())
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, &NotFoundError{Entity: "reminder", ID: ref.PersistedID}
			}
			return nil, fmt.Errorf("set next reminder date on %d: %w", ref.PersistedID, err)
		}
		return r, nil

	case SourceSynthesized:
		return s.promote(ctx, ref.DistributionID, next)

	default:
		return nil, validationf("source", "unknown reminder source %q", ref.Source)
	}
}

// promote materializes a distribution-derived reminder as a payment_reminders
// row, copying the distribution's date and outstanding balance.
func (s *reminderService) promote(ctx context.Context, distributionID int, next time.Time) (*PaymentReminder, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var (
		catererID        int
		balanceDue       decimal.Decimal
		status           DistributionStatus
		distributionDate time.Time
	)
	if err := tx.QueryRow(ctx, `
		SELECT caterer_id, balance_due, status, distribution_date
		FROM distributions WHERE id = $1`,
		distributionID,
	).Scan(&catererID, &balanceDue, &status, &distributionDate); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "distribution", ID: distributionID}
		}
		return nil, fmt.Errorf("fetch distribution %d: %w", distributionID, err)
	}

	if status == StatusCancelled || status == StatusPaid {
		return nil, validationf("distribution_id",
			"distribution %d is %s and has no reminder to promote", distributionID, status)
	}
	if !balanceDue.IsPositive() {
		return nil, validationf("distribution_id",
			"distribution %d has no outstanding balance", distributionID)
	}

	r, err := scanReminder(tx.QueryRow(ctx, `
		INSERT INTO payment_reminders
		            (caterer_id, distribution_id, amount, original_due_date, reminder_date, next_reminder_date)
		VALUES ($1, $2, $3, $4, $4, $5)
		ON CONFLICT (distribution_id) WHERE distribution_id IS NOT NULL DO NOTHING
		RETURNING `+reminderColumns,
		catererID, distributionID, balanceDue,
		distributionDate.Format("2006-01-02"), next.Format("2006-01-02"),
	), time.Now())
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, validationf("distribution_id",
				"a reminder already exists for distribution %d", distributionID)
		}
		return nil, fmt.Errorf("promote reminder for distribution %d: %w", distributionID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit promotion: %w", err)
	}
	return r, nil
}
