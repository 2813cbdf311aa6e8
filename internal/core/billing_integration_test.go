package core_test

import (
	"context"
	"errors"
	"os"
	"sort"
	"testing"
	"time"

	"caterer-billing/internal/core"
	"caterer-billing/migrations"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	_ = godotenv.Load("../../.env")

	// Use a dedicated TEST database to avoid wiping the live app database.
	// Set TEST_DATABASE_URL in your .env or environment to run integration tests.
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set — skipping integration test to protect live database")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	// Apply the schema (idempotent) and clean all tables.
	entries, err := migrations.Files.ReadDir(".")
	if err != nil {
		t.Fatalf("Failed to read migrations: %v", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	for _, name := range names {
		sqlBytes, err := migrations.Files.ReadFile(name)
		if err != nil {
			t.Fatalf("Failed to read migration %s: %v", name, err)
		}
		if _, err := pool.Exec(ctx, string(sqlBytes)); err != nil {
			t.Fatalf("Failed to apply migration %s: %v", name, err)
		}
	}

	_, err = pool.Exec(ctx, `
		TRUNCATE TABLE payment_reminders, caterer_payments, distribution_items, distributions, caterers CASCADE;
	`)
	if err != nil {
		t.Fatalf("Failed to clean test database: %v", err)
	}

	return pool
}

func seedCaterer(t *testing.T, pool *pgxpool.Pool, name string) int {
	t.Helper()
	var id int
	err := pool.QueryRow(context.Background(),
		"INSERT INTO caterers (name) VALUES ($1) RETURNING id", name,
	).Scan(&id)
	if err != nil {
		t.Fatalf("Failed to seed caterer: %v", err)
	}
	return id
}

// makeDistribution creates a bill with a single zero-GST line whose amount
// equals the given total.
func makeDistribution(t *testing.T, svc core.BillingService, catererID int, total string, date time.Time) *core.Distribution {
	t.Helper()
	d, err := svc.CreateDistribution(context.Background(), core.CreateDistributionInput{
		CatererID:        catererID,
		BillNo:           uuid.NewString(),
		DistributionDate: date,
		Items: []core.DistributionItemInput{
			{ItemName: "Turmeric Powder", Quantity: decimal.NewFromInt(1), Unit: "kg",
				Rate: dec(total), GSTPercentage: decimal.Zero},
		},
	})
	if err != nil {
		t.Fatalf("CreateDistribution failed: %v", err)
	}
	return d
}

func TestBilling_CreateDistribution_ComputesTotals(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	svc := core.NewBillingService(pool)
	catererID := seedCaterer(t, pool, "Annapurna Caterers")
	ctx := context.Background()

	d, err := svc.CreateDistribution(ctx, core.CreateDistributionInput{
		CatererID:        catererID,
		BillNo:           uuid.NewString(),
		DistributionDate: time.Now(),
		Items: []core.DistributionItemInput{
			{ItemName: "Cardamom", Quantity: dec("2"), Unit: "kg", Rate: dec("100"), GSTPercentage: dec("5")},
			{ItemName: "Clove", Quantity: dec("1"), Unit: "kg", Rate: dec("250.50"), GSTPercentage: dec("12")},
		},
	})
	if err != nil {
		t.Fatalf("CreateDistribution failed: %v", err)
	}

	if got := d.Items[0].Amount.StringFixed(2); got != "200.00" {
		t.Errorf("line 1 amount: got %s, want 200.00", got)
	}
	if got := d.Items[0].GSTAmount.StringFixed(2); got != "10.00" {
		t.Errorf("line 1 gst: got %s, want 10.00", got)
	}
	if got := d.TotalAmount.StringFixed(2); got != "450.50" {
		t.Errorf("total amount: got %s, want 450.50", got)
	}
	if got := d.TotalGSTAmount.StringFixed(2); got != "40.06" {
		t.Errorf("total gst: got %s, want 40.06", got)
	}
	if got := d.GrandTotal.StringFixed(2); got != "490.56" {
		t.Errorf("grand total: got %s, want 490.56", got)
	}
	if !d.BalanceDue.Equal(d.GrandTotal) {
		t.Errorf("balance due %s should equal grand total %s", d.BalanceDue, d.GrandTotal)
	}
	if d.Status != core.StatusPending {
		t.Errorf("status: got %s, want pending", d.Status)
	}
}

func TestBilling_CreateDistribution_RequiresItems(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	svc := core.NewBillingService(pool)
	catererID := seedCaterer(t, pool, "Annapurna Caterers")

	_, err := svc.CreateDistribution(context.Background(), core.CreateDistributionInput{
		CatererID:        catererID,
		BillNo:           uuid.NewString(),
		DistributionDate: time.Now(),
	})
	var ve *core.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError for empty items, got %v", err)
	}
}

func TestBilling_ApplyPayment_PartialThenFull(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	svc := core.NewBillingService(pool)
	catererID := seedCaterer(t, pool, "Annapurna Caterers")
	ctx := context.Background()

	d := makeDistribution(t, svc, catererID, "1000", time.Now())

	d, err := svc.ApplyPayment(ctx, core.ApplyPaymentInput{
		DistributionID: d.ID,
		Amount:         dec("400"),
		PaymentDate:    time.Now(),
		PaymentMode:    "upi",
	})
	if err != nil {
		t.Fatalf("ApplyPayment failed: %v", err)
	}
	if got := d.AmountPaid.StringFixed(2); got != "400.00" {
		t.Errorf("amount paid: got %s, want 400.00", got)
	}
	if got := d.BalanceDue.StringFixed(2); got != "600.00" {
		t.Errorf("balance due: got %s, want 600.00", got)
	}
	if d.Status != core.StatusPartial {
		t.Errorf("status: got %s, want partial", d.Status)
	}

	d, err = svc.ApplyPayment(ctx, core.ApplyPaymentInput{
		DistributionID: d.ID,
		Amount:         dec("600"),
		PaymentDate:    time.Now(),
		PaymentMode:    "cash",
	})
	if err != nil {
		t.Fatalf("second ApplyPayment failed: %v", err)
	}
	if got := d.BalanceDue.StringFixed(2); got != "0.00" {
		t.Errorf("balance due: got %s, want 0.00", got)
	}
	if d.Status != core.StatusPaid {
		t.Errorf("status: got %s, want paid", d.Status)
	}

	// Paid bills accept no further payments.
	_, err = svc.ApplyPayment(ctx, core.ApplyPaymentInput{
		DistributionID: d.ID,
		Amount:         dec("1"),
		PaymentDate:    time.Now(),
		PaymentMode:    "cash",
	})
	var ve *core.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError on paying a paid bill, got %v", err)
	}
}

func TestBilling_ApplyPayment_FullInOneGo(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	svc := core.NewBillingService(pool)
	catererID := seedCaterer(t, pool, "Annapurna Caterers")

	d := makeDistribution(t, svc, catererID, "500", time.Now())
	d, err := svc.ApplyPayment(context.Background(), core.ApplyPaymentInput{
		DistributionID: d.ID,
		Amount:         dec("500"),
		PaymentDate:    time.Now(),
		PaymentMode:    "bank_transfer",
	})
	if err != nil {
		t.Fatalf("ApplyPayment failed: %v", err)
	}
	if got := d.BalanceDue.StringFixed(2); got != "0.00" {
		t.Errorf("balance due: got %s, want 0.00", got)
	}
	if d.Status != core.StatusPaid {
		t.Errorf("status: got %s, want paid", d.Status)
	}
}

func TestBilling_ApplyPayment_OverpaymentRejected(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	svc := core.NewBillingService(pool)
	catererID := seedCaterer(t, pool, "Annapurna Caterers")

	d := makeDistribution(t, svc, catererID, "300", time.Now())
	_, err := svc.ApplyPayment(context.Background(), core.ApplyPaymentInput{
		DistributionID: d.ID,
		Amount:         dec("300.01"),
		PaymentDate:    time.Now(),
		PaymentMode:    "cash",
	})

	var ope *core.OverpaymentError
	if !errors.As(err, &ope) {
		t.Fatalf("expected OverpaymentError, got %v", err)
	}
	if ope.BalanceDue != "300.00" || ope.Attempted != "300.01" {
		t.Errorf("unexpected error detail: %+v", ope)
	}

	// Ledger untouched.
	d, err = svc.GetDistribution(context.Background(), d.ID)
	if err != nil {
		t.Fatalf("GetDistribution failed: %v", err)
	}
	if got := d.AmountPaid.StringFixed(2); got != "0.00" {
		t.Errorf("amount paid after rejected overpayment: got %s, want 0.00", got)
	}
}

func TestBilling_ApplyPayment_StalePrecondition(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	svc := core.NewBillingService(pool)
	catererID := seedCaterer(t, pool, "Annapurna Caterers")
	ctx := context.Background()

	d := makeDistribution(t, svc, catererID, "1000", time.Now())

	// A second session pays 400 after we read the bill.
	if _, err := svc.ApplyPayment(ctx, core.ApplyPaymentInput{
		DistributionID: d.ID,
		Amount:         dec("400"),
		PaymentDate:    time.Now(),
		PaymentMode:    "upi",
	}); err != nil {
		t.Fatalf("setup payment failed: %v", err)
	}

	// Our payment still carries the original balance as its precondition.
	staleBalance := dec("1000.00")
	_, err := svc.ApplyPayment(ctx, core.ApplyPaymentInput{
		DistributionID:     d.ID,
		Amount:             dec("600"),
		PaymentDate:        time.Now(),
		PaymentMode:        "upi",
		ExpectedBalanceDue: &staleBalance,
	})

	var sse *core.StaleStateError
	if !errors.As(err, &sse) {
		t.Fatalf("expected StaleStateError, got %v", err)
	}
	if sse.ActualBalance != "600.00" {
		t.Errorf("actual balance in error: got %s, want 600.00", sse.ActualBalance)
	}

	// With the fresh balance the same payment goes through.
	freshBalance := dec("600.00")
	if _, err := svc.ApplyPayment(ctx, core.ApplyPaymentInput{
		DistributionID:     d.ID,
		Amount:             dec("600"),
		PaymentDate:        time.Now(),
		PaymentMode:        "upi",
		ExpectedBalanceDue: &freshBalance,
	}); err != nil {
		t.Fatalf("retry with fresh precondition failed: %v", err)
	}
}

func TestBilling_CancelDistribution(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	billingSvc := core.NewBillingService(pool)
	catererSvc := core.NewCatererService(pool)
	catererID := seedCaterer(t, pool, "Annapurna Caterers")
	ctx := context.Background()

	d := makeDistribution(t, billingSvc, catererID, "800", time.Now())

	d, err := billingSvc.CancelDistribution(ctx, d.ID)
	if err != nil {
		t.Fatalf("CancelDistribution failed: %v", err)
	}
	if d.Status != core.StatusCancelled {
		t.Errorf("status: got %s, want cancelled", d.Status)
	}

	// Cancelled bills drop out of the caterer aggregate.
	c, err := catererSvc.GetCaterer(ctx, catererID)
	if err != nil {
		t.Fatalf("GetCaterer failed: %v", err)
	}
	if got := c.TotalBilled.StringFixed(2); got != "0.00" {
		t.Errorf("total billed after cancel: got %s, want 0.00", got)
	}
	if c.TotalOrders != 0 {
		t.Errorf("total orders after cancel: got %d, want 0", c.TotalOrders)
	}

	// Cancelled is terminal.
	if _, err := billingSvc.CancelDistribution(ctx, d.ID); err == nil {
		t.Error("expected second cancel to fail")
	}

	// Paid bills cannot be cancelled.
	paid := makeDistribution(t, billingSvc, catererID, "100", time.Now())
	if _, err := billingSvc.ApplyPayment(ctx, core.ApplyPaymentInput{
		DistributionID: paid.ID, Amount: dec("100"), PaymentDate: time.Now(), PaymentMode: "cash",
	}); err != nil {
		t.Fatalf("payment failed: %v", err)
	}
	if _, err := billingSvc.CancelDistribution(ctx, paid.ID); err == nil {
		t.Error("expected cancelling a paid bill to fail")
	}
}

func TestBilling_DeleteDistribution_BlockedByPayments(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	svc := core.NewBillingService(pool)
	catererID := seedCaterer(t, pool, "Annapurna Caterers")
	ctx := context.Background()

	d := makeDistribution(t, svc, catererID, "500", time.Now())
	if _, err := svc.ApplyPayment(ctx, core.ApplyPaymentInput{
		DistributionID: d.ID, Amount: dec("200"), PaymentDate: time.Now(), PaymentMode: "cash",
	}); err != nil {
		t.Fatalf("payment failed: %v", err)
	}

	err := svc.DeleteDistribution(ctx, d.ID)
	var rre *core.RelatedRecordsError
	if !errors.As(err, &rre) {
		t.Fatalf("expected RelatedRecordsError, got %v", err)
	}
	if rre.Payments != 1 {
		t.Errorf("payment count in error: got %d, want 1", rre.Payments)
	}

	// A bill without payments deletes cleanly.
	clean := makeDistribution(t, svc, catererID, "200", time.Now())
	if err := svc.DeleteDistribution(ctx, clean.ID); err != nil {
		t.Fatalf("DeleteDistribution failed: %v", err)
	}
	if _, err := svc.GetDistribution(ctx, clean.ID); err == nil {
		t.Error("expected deleted distribution to be gone")
	}
}

func TestBilling_CatererLevelPayment(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	billingSvc := core.NewBillingService(pool)
	catererSvc := core.NewCatererService(pool)
	catererID := seedCaterer(t, pool, "Annapurna Caterers")
	ctx := context.Background()

	makeDistribution(t, billingSvc, catererID, "1000", time.Now())

	p, err := billingSvc.RecordCatererPayment(ctx, core.CatererPaymentInput{
		CatererID:   catererID,
		Amount:      dec("250"),
		PaymentDate: time.Now(),
		PaymentMode: "cheque",
	})
	if err != nil {
		t.Fatalf("RecordCatererPayment failed: %v", err)
	}
	if p.DistributionID != nil {
		t.Error("caterer-level payment must not reference a distribution")
	}

	c, err := catererSvc.GetCaterer(ctx, catererID)
	if err != nil {
		t.Fatalf("GetCaterer failed: %v", err)
	}
	if got := c.TotalPaid.StringFixed(2); got != "250.00" {
		t.Errorf("total paid: got %s, want 250.00", got)
	}
	if got := c.BalanceDue.StringFixed(2); got != "750.00" {
		t.Errorf("balance due: got %s, want 750.00", got)
	}
}
