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

type BillingService interface {
	CreateDistribution(ctx context.Context, input CreateDistributionInput) (*Distribution, error)
	GetDistribution(ctx context.Context, id int) (*Distribution, error)
	ListDistributions(ctx context.Context, filter DistributionFilter) ([]Distribution, error)
	ApplyPayment(ctx context.Context, input ApplyPaymentInput) (*Distribution, error)
	RecordCatererPayment(ctx context.Context, input CatererPaymentInput) (*CatererPayment, error)
	CancelDistribution(ctx context.Context, id int) (*Distribution, error)
	DeleteDistribution(ctx context.Context, id int) error
	ListPayments(ctx context.Context, filter PaymentFilter) ([]CatererPayment, error)
}

// DistributionItemInput is one line of a new distribution. Amounts are never
// accepted from the caller; the calculator derives them.
type DistributionItemInput struct {
	SpiceID       *int
	ItemName      string
	Quantity      decimal.Decimal
	Unit          string
	Rate          decimal.Decimal
	GSTPercentage decimal.Decimal
}

type CreateDistributionInput struct {
	CatererID        int
	BillNo           string
	DistributionDate time.Time
	Items            []DistributionItemInput
	PaymentMode      *string
	Notes            *string
}

// ApplyPaymentInput records a payment against one distribution.
// ExpectedBalanceDue, when set, is an optimistic-concurrency precondition:
// the payment is refused with StaleStateError if the stored balance differs.
type ApplyPaymentInput struct {
	DistributionID     int
	Amount             decimal.Decimal
	PaymentDate        time.Time
	PaymentMode        string
	ReferenceNo        *string
	Notes              *string
	ReceiptImage       *string
	ExpectedBalanceDue *decimal.Decimal
}

// CatererPaymentInput records a caterer-level payment with no distribution link.
type CatererPaymentInput struct {
	CatererID    int
	Amount       decimal.Decimal
	PaymentDate  time.Time
	PaymentMode  string
	ReferenceNo  *string
	Notes        *string
	ReceiptImage *string
}

type DistributionFilter struct {
	CatererID *int
	Status    *DistributionStatus
}

type PaymentFilter struct {
	CatererID      *int
	DistributionID *int
}

type billingService struct {
	pool *pgxpool.Pool
}

// NewBillingService constructs a BillingService backed by PostgreSQL.
func NewBillingService(pool *pgxpool.Pool) BillingService {
	return &billingService{pool: pool}
}

// CreateDistribution inserts a bill header plus its lines in one transaction.
// Line amounts, GST and header totals are computed server-side; the initial
// status is derived from the ledger state (zero paid) and the bill date.
func (s *billingService) CreateDistribution(ctx context.Context, input CreateDistributionInput) (*Distribution, error) {
	if len(input.Items) == 0 {
		return nil, validationf("items", "distribution must have at least one item")
	}
	if input.BillNo == "" {
		return nil, validationf("bill_no", "must not be empty")
	}

	items := make([]DistributionItem, len(input.Items))
	for i, in := range input.Items {
		if in.ItemName == "" {
			return nil, validationf("items", "line %d: item name must not be empty", i+1)
		}
		amounts, err := ComputeLine(in.Quantity, in.Rate, in.GSTPercentage)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		items[i] = DistributionItem{
			SpiceID:       in.SpiceID,
			ItemName:      in.ItemName,
			Quantity:      in.Quantity,
			Unit:          in.Unit,
			Rate:          in.Rate,
			GSTPercentage: in.GSTPercentage,
			GSTAmount:     amounts.GSTAmount,
			Amount:        amounts.Amount,
		}
	}
	totals := ComputeTotals(items)
	status := DeriveStatus(totals.GrandTotal, decimal.Zero, input.DistributionDate, time.Now(), false)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var catererActive bool
	if err := tx.QueryRow(ctx,
		"SELECT is_active FROM caterers WHERE id = $1", input.CatererID,
	).Scan(&catererActive); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "caterer", ID: input.CatererID}
		}
		return nil, fmt.Errorf("fetch caterer %d: %w", input.CatererID, err)
	}
	if !catererActive {
		return nil, validationf("caterer_id", "caterer %d is inactive", input.CatererID)
	}

	var distID int
	if err := tx.QueryRow(ctx, `
		INSERT INTO distributions (bill_no, caterer_id, distribution_date,
		                           total_amount, total_gst_amount, grand_total,
		                           amount_paid, balance_due, status, payment_mode, notes)
		VALUES ($1, $2, $3, $4, $5, $6, 0, $6, $7, $8, $9)
		RETURNING id`,
		input.BillNo, input.CatererID, input.DistributionDate.Format("2006-01-02"),
		totals.TotalAmount, totals.TotalGSTAmount, totals.GrandTotal,
		status, input.PaymentMode, input.Notes,
	).Scan(&distID); err != nil {
		return nil, fmt.Errorf("insert distribution %q: %w", input.BillNo, err)
	}

	for i, it := range items {
		if _, err := tx.Exec(ctx, `
			INSERT INTO distribution_items
			            (distribution_id, spice_id, item_name, quantity, unit,
			             rate, gst_percentage, gst_amount, amount)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			distID, it.SpiceID, it.ItemName, it.Quantity, it.Unit,
			it.Rate, it.GSTPercentage, it.GSTAmount, it.Amount,
		); err != nil {
			return nil, fmt.Errorf("insert distribution line %d: %w", i+1, err)
		}
	}

	if err := recomputeCatererBalanceTx(ctx, tx, input.CatererID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit distribution: %w", err)
	}

	return s.GetDistribution(ctx, distID)
}

// ApplyPayment records a payment against a distribution and advances the
// ledger under a row lock. The payment record, the ledger update and the
// caterer aggregate refresh commit atomically.
func (s *billingService) ApplyPayment(ctx context.Context, input ApplyPaymentInput) (*Distribution, error) {
	if !input.Amount.IsPositive() {
		return nil, validationf("amount", "must be > 0, got %s", input.Amount)
	}
	if input.PaymentMode == "" {
		return nil, validationf("payment_mode", "must not be empty")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var (
		catererID        int
		grandTotal       decimal.Decimal
		amountPaid       decimal.Decimal
		balanceDue       decimal.Decimal
		status           DistributionStatus
		distributionDate time.Time
	)
	if err := tx.QueryRow(ctx, `
		SELECT caterer_id, grand_total, amount_paid, balance_due, status, distribution_date
		FROM distributions WHERE id = $1
		FOR UPDATE`,
		input.DistributionID,
	).Scan(&catererID, &grandTotal, &amountPaid, &balanceDue, &status, &distributionDate); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "distribution", ID: input.DistributionID}
		}
		return nil, fmt.Errorf("fetch distribution %d: %w", input.DistributionID, err)
	}

	if status == StatusPaid || status == StatusCancelled {
		return nil, validationf("status", "cannot apply payment to a %s distribution", status)
	}
	if input.ExpectedBalanceDue != nil && !input.ExpectedBalanceDue.Equal(balanceDue) {
		return nil, &StaleStateError{
			DistributionID:  input.DistributionID,
			ExpectedBalance: input.ExpectedBalanceDue.StringFixed(2),
			ActualBalance:   balanceDue.StringFixed(2),
		}
	}
	if input.Amount.GreaterThan(balanceDue) {
		return nil, &OverpaymentError{
			DistributionID: input.DistributionID,
			BalanceDue:     balanceDue.StringFixed(2),
			Attempted:      input.Amount.StringFixed(2),
		}
	}

	newPaid := amountPaid.Add(input.Amount)
	newBalance := grandTotal.Sub(newPaid)
	if newBalance.IsNegative() {
		newBalance = decimal.Zero
	}
	newStatus := DeriveStatus(grandTotal, newPaid, distributionDate, time.Now(), false)

	if _, err := tx.Exec(ctx, `
		INSERT INTO caterer_payments
		            (caterer_id, distribution_id, amount, payment_date, payment_mode,
		             reference_no, notes, receipt_image)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		catererID, input.DistributionID, input.Amount, input.PaymentDate.Format("2006-01-02"),
		input.PaymentMode, input.ReferenceNo, input.Notes, input.ReceiptImage,
	); err != nil {
		return nil, fmt.Errorf("insert payment: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE distributions
		SET amount_paid = $1, balance_due = $2, status = $3, payment_mode = $4
		WHERE id = $5`,
		newPaid, newBalance, newStatus, input.PaymentMode, input.DistributionID,
	); err != nil {
		return nil, fmt.Errorf("update distribution %d ledger: %w", input.DistributionID, err)
	}

	if err := recomputeCatererBalanceTx(ctx, tx, catererID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit payment: %w", err)
	}

	return s.GetDistribution(ctx, input.DistributionID)
}

// RecordCatererPayment appends a payment that is not tied to any
// distribution. Only the caterer aggregate moves.
func (s *billingService) RecordCatererPayment(ctx context.Context, input CatererPaymentInput) (*CatererPayment, error) {
	if !input.Amount.IsPositive() {
		return nil, validationf("amount", "must be > 0, got %s", input.Amount)
	}
	if input.PaymentMode == "" {
		return nil, validationf("payment_mode", "must not be empty")
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

	p := &CatererPayment{}
	if err := tx.QueryRow(ctx, `
		INSERT INTO caterer_payments
		            (caterer_id, amount, payment_date, payment_mode, reference_no, notes, receipt_image)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, caterer_id, distribution_id, amount, payment_date, payment_mode,
		          reference_no, notes, receipt_image, created_at`,
		input.CatererID, input.Amount, input.PaymentDate.Format("2006-01-02"),
		input.PaymentMode, input.ReferenceNo, input.Notes, input.ReceiptImage,
	).Scan(
		&p.ID, &p.CatererID, &p.DistributionID, &p.Amount, &p.PaymentDate,
		&p.PaymentMode, &p.ReferenceNo, &p.Notes, &p.ReceiptImage, &p.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("insert caterer payment: %w", err)
	}

	if err := recomputeCatererBalanceTx(ctx, tx, input.CatererID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit caterer payment: %w", err)
	}
	return p, nil
}

// CancelDistribution moves a bill to cancelled. Paid bills cannot be
// cancelled and cancelled is terminal; both are rejected by the transition
// guard. The caterer aggregate is refreshed because cancelled bills drop out
// of it.
func (s *billingService) CancelDistribution(ctx context.Context, id int) (*Distribution, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var catererID int
	var status DistributionStatus
	if err := tx.QueryRow(ctx,
		"SELECT caterer_id, status FROM distributions WHERE id = $1 FOR UPDATE", id,
	).Scan(&catererID, &status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "distribution", ID: id}
		}
		return nil, fmt.Errorf("fetch distribution %d: %w", id, err)
	}

	if err := ValidateTransition(status, StatusCancelled); err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx,
		"UPDATE distributions SET status = $1 WHERE id = $2", StatusCancelled, id,
	); err != nil {
		return nil, fmt.Errorf("cancel distribution %d: %w", id, err)
	}

	if err := recomputeCatererBalanceTx(ctx, tx, catererID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit cancellation: %w", err)
	}
	return s.GetDistribution(ctx, id)
}

// DeleteDistribution removes a bill and its lines. Deletion is refused with
// RelatedRecordsError while payments reference the bill; the caller must
// resolve those first (payments are append-only and never cascade-deleted).
func (s *billingService) DeleteDistribution(ctx context.Context, id int) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var catererID int
	if err := tx.QueryRow(ctx,
		"SELECT caterer_id FROM distributions WHERE id = $1 FOR UPDATE", id,
	).Scan(&catererID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &NotFoundError{Entity: "distribution", ID: id}
		}
		return fmt.Errorf("fetch distribution %d: %w", id, err)
	}

	var paymentCount int
	if err := tx.QueryRow(ctx,
		"SELECT count(*) FROM caterer_payments WHERE distribution_id = $1", id,
	).Scan(&paymentCount); err != nil {
		return fmt.Errorf("count payments for distribution %d: %w", id, err)
	}
	if paymentCount > 0 {
		return &RelatedRecordsError{Entity: "distribution", ID: id, Payments: paymentCount}
	}

	if _, err := tx.Exec(ctx, "DELETE FROM distribution_items WHERE distribution_id = $1", id); err != nil {
		return fmt.Errorf("delete items for distribution %d: %w", id, err)
	}
	if _, err := tx.Exec(ctx, "DELETE FROM distributions WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete distribution %d: %w", id, err)
	}

	if err := recomputeCatererBalanceTx(ctx, tx, catererID); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit deletion: %w", err)
	}
	return nil
}

// GetDistribution returns a bill by ID including all lines.
func (s *billingService) GetDistribution(ctx context.Context, id int) (*Distribution, error) {
	d := &Distribution{}
	if err := s.pool.QueryRow(ctx, `
		SELECT id, bill_no, caterer_id, distribution_date,
		       total_amount, total_gst_amount, grand_total,
		       amount_paid, balance_due, status, payment_mode, notes, created_at
		FROM distributions WHERE id = $1`,
		id,
	).Scan(
		&d.ID, &d.BillNo, &d.CatererID, &d.DistributionDate,
		&d.TotalAmount, &d.TotalGSTAmount, &d.GrandTotal,
		&d.AmountPaid, &d.BalanceDue, &d.Status, &d.PaymentMode, &d.Notes, &d.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "distribution", ID: id}
		}
		return nil, fmt.Errorf("get distribution %d: %w", id, err)
	}

	items, err := s.fetchItems(ctx, id)
	if err != nil {
		return nil, err
	}
	d.Items = items
	return d, nil
}

// ListDistributions returns bills newest first, optionally filtered by
// caterer and status. Lines are included.
func (s *billingService) ListDistributions(ctx context.Context, filter DistributionFilter) ([]Distribution, error) {
	query := `
		SELECT id, bill_no, caterer_id, distribution_date,
		       total_amount, total_gst_amount, grand_total,
		       amount_paid, balance_due, status, payment_mode, notes, created_at
		FROM distributions
		WHERE 1=1`
	var args []any
	if filter.CatererID != nil {
		args = append(args, *filter.CatererID)
		query += fmt.Sprintf(" AND caterer_id = $%d", len(args))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += " ORDER BY distribution_date DESC, id DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list distributions: %w", err)
	}
	defer rows.Close()

	var dists []Distribution
	for rows.Next() {
		var d Distribution
		if err := rows.Scan(
			&d.ID, &d.BillNo, &d.CatererID, &d.DistributionDate,
			&d.TotalAmount, &d.TotalGSTAmount, &d.GrandTotal,
			&d.AmountPaid, &d.BalanceDue, &d.Status, &d.PaymentMode, &d.Notes, &d.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan distribution: %w", err)
		}
		dists = append(dists, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate distributions: %w", err)
	}

	for i := range dists {
		items, err := s.fetchItems(ctx, dists[i].ID)
		if err != nil {
			return nil, err
		}
		dists[i].Items = items
	}
	return dists, nil
}

// ListPayments returns payments newest first, optionally filtered.
func (s *billingService) ListPayments(ctx context.Context, filter PaymentFilter) ([]CatererPayment, error) {
	query := `
		SELECT id, caterer_id, distribution_id, amount, payment_date, payment_mode,
		       reference_no, notes, receipt_image, created_at
		FROM caterer_payments
		WHERE 1=1`
	var args []any
	if filter.CatererID != nil {
		args = append(args, *filter.CatererID)
		query += fmt.Sprintf(" AND caterer_id = $%d", len(args))
	}
	if filter.DistributionID != nil {
		args = append(args, *filter.DistributionID)
		query += fmt.Sprintf(" AND distribution_id = $%d", len(args))
	}
	query += " ORDER BY payment_date DESC, id DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var payments []CatererPayment
	for rows.Next() {
		var p CatererPayment
		if err := rows.Scan(
			&p.ID, &p.CatererID, &p.DistributionID, &p.Amount, &p.PaymentDate,
			&p.PaymentMode, &p.ReferenceNo, &p.Notes, &p.ReceiptImage, &p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func (s *billingService) fetchItems(ctx context.Context, distributionID int) ([]DistributionItem, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, distribution_id, spice_id, item_name, quantity, unit,
		       rate, gst_percentage, gst_amount, amount
		FROM distribution_items
		WHERE distribution_id = $1
		ORDER BY id`,
		distributionID,
	)
	if err != nil {
		return nil, fmt.Errorf("fetch items for distribution %d: %w", distributionID, err)
	}
	defer rows.Close()

	var items []DistributionItem
	for rows.Next() {
		var it DistributionItem
		if err := rows.Scan(
			&it.ID, &it.DistributionID, &it.SpiceID, &it.ItemName, &it.Quantity, &it.Unit,
			&it.Rate, &it.GSTPercentage, &it.GSTAmount, &it.Amount,
		); err != nil {
			return nil, fmt.Errorf("scan distribution item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
