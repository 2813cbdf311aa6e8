package app

import (
	"context"
	"time"

	"caterer-billing/internal/core"

	"github.com/shopspring/decimal"
)

type appService struct {
	billingService  core.BillingService
	catererService  core.CatererService
	reminderService core.ReminderService
	syncService     core.SyncService
	clock           Clock
}

// NewAppService constructs an appService that satisfies ApplicationService.
// clock may be nil, in which case time.Now is used.
func NewAppService(
	billingService core.BillingService,
	catererService core.CatererService,
	reminderService core.ReminderService,
	syncService core.SyncService,
	clock Clock,
) ApplicationService {
	if clock == nil {
		clock = time.Now
	}
	return &appService{
		billingService:  billingService,
		catererService:  catererService,
		reminderService: reminderService,
		syncService:     syncService,
		clock:           clock,
	}
}

func toPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// parseDate parses a YYYY-MM-DD wire date. An empty value falls back to the
// provided default when allowed, otherwise it is a validation failure.
func parseDate(field, s string, fallback *time.Time) (time.Time, error) {
	if s == "" {
		if fallback != nil {
			return *fallback, nil
		}
		return time.Time{}, &core.ValidationError{Field: field, Message: "must not be empty"}
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, &core.ValidationError{Field: field, Message: "invalid date " + s + ", want YYYY-MM-DD"}
	}
	return t, nil
}

func (s *appService) ListCaterers(ctx context.Context) (*CatererListResult, error) {
	caterers, err := s.catererService.ListCaterers(ctx)
	if err != nil {
		return nil, err
	}
	return &CatererListResult{Caterers: caterers}, nil
}

func (s *appService) GetCaterer(ctx context.Context, id int) (*CatererResult, error) {
	c, err := s.catererService.GetCaterer(ctx, id)
	if err != nil {
		return nil, err
	}
	return &CatererResult{Caterer: c}, nil
}

func (s *appService) CreateCaterer(ctx context.Context, req CatererRequest) (*CatererResult, error) {
	c, err := s.catererService.CreateCaterer(ctx, core.CatererInput{
		Name:          req.Name,
		ContactPerson: req.ContactPerson,
		Phone:         req.Phone,
		Email:         req.Email,
		Address:       req.Address,
		GSTIN:         req.GSTIN,
	})
	if err != nil {
		return nil, err
	}
	return &CatererResult{Caterer: c}, nil
}

func (s *appService) UpdateCaterer(ctx context.Context, id int, req CatererRequest) (*CatererResult, error) {
	c, err := s.catererService.UpdateCaterer(ctx, id, core.CatererInput{
		Name:          req.Name,
		ContactPerson: req.ContactPerson,
		Phone:         req.Phone,
		Email:         req.Email,
		Address:       req.Address,
		GSTIN:         req.GSTIN,
	})
	if err != nil {
		return nil, err
	}
	return &CatererResult{Caterer: c}, nil
}

func (s *appService) DeleteCaterer(ctx context.Context, id int) error {
	return s.catererService.DeleteCaterer(ctx, id)
}

func (s *appService) SyncCatererBalance(ctx context.Context, id int) (*BalanceResult, error) {
	balance, err := s.syncService.SyncCatererBalance(ctx, id)
	if err != nil {
		return nil, err
	}
	return &BalanceResult{Balance: balance}, nil
}

func (s *appService) SyncAllCatererBalances(ctx context.Context) (*core.SyncReport, error) {
	return s.syncService.SyncAllCatererBalances(ctx)
}

func (s *appService) ListDistributions(ctx context.Context, catererID *int, status string) (*DistributionListResult, error) {
	filter := core.DistributionFilter{CatererID: catererID}
	if status != "" {
		st := core.DistributionStatus(status)
		filter.Status = &st
	}
	dists, err := s.billingService.ListDistributions(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &DistributionListResult{Distributions: dists}, nil
}

func (s *appService) GetDistribution(ctx context.Context, id int) (*DistributionResult, error) {
	d, err := s.billingService.GetDistribution(ctx, id)
	if err != nil {
		return nil, err
	}
	return &DistributionResult{Distribution: d}, nil
}

func (s *appService) CreateDistribution(ctx context.Context, req CreateDistributionRequest) (*DistributionResult, error) {
	now := s.clock()
	date, err := parseDate("distribution_date", req.DistributionDate, &now)
	if err != nil {
		return nil, err
	}

	items := make([]core.DistributionItemInput, len(req.Items))
	for i, it := range req.Items {
		quantity, err := core.ParseAmount("quantity", it.Quantity)
		if err != nil {
			return nil, err
		}
		rate, err := core.ParseAmount("rate", it.Rate)
		if err != nil {
			return nil, err
		}
		gstPct := decimal.Zero
		if it.GSTPercentage != "" {
			if gstPct, err = core.ParseAmount("gst_percentage", it.GSTPercentage); err != nil {
				return nil, err
			}
		}
		items[i] = core.DistributionItemInput{
			SpiceID:       it.SpiceID,
			ItemName:      it.ItemName,
			Quantity:      quantity,
			Unit:          it.Unit,
			Rate:          rate,
			GSTPercentage: gstPct,
		}
	}

	d, err := s.billingService.CreateDistribution(ctx, core.CreateDistributionInput{
		CatererID:        req.CatererID,
		BillNo:           req.BillNo,
		DistributionDate: date,
		Items:            items,
		PaymentMode:      toPtr(req.PaymentMode),
		Notes:            toPtr(req.Notes),
	})
	if err != nil {
		return nil, err
	}
	return &DistributionResult{Distribution: d}, nil
}

func (s *appService) ApplyPayment(ctx context.Context, req ApplyPaymentRequest) (*DistributionResult, error) {
	amount, err := core.ParseAmount("amount", req.Amount)
	if err != nil {
		return nil, err
	}
	now := s.clock()
	date, err := parseDate("payment_date", req.PaymentDate, &now)
	if err != nil {
		return nil, err
	}

	var expected *decimal.Decimal
	if req.ExpectedBalanceDue != "" {
		e, err := core.ParseAmount("expected_balance_due", req.ExpectedBalanceDue)
		if err != nil {
			return nil, err
		}
		expected = &e
	}

	d, err := s.billingService.ApplyPayment(ctx, core.ApplyPaymentInput{
		DistributionID:     req.DistributionID,
		Amount:             amount,
		PaymentDate:        date,
		PaymentMode:        req.PaymentMode,
		ReferenceNo:        toPtr(req.ReferenceNo),
		Notes:              toPtr(req.Notes),
		ReceiptImage:       toPtr(req.ReceiptImage),
		ExpectedBalanceDue: expected,
	})
	if err != nil {
		return nil, err
	}
	return &DistributionResult{Distribution: d}, nil
}

func (s *appService) CancelDistribution(ctx context.Context, id int) (*DistributionResult, error) {
	d, err := s.billingService.CancelDistribution(ctx, id)
	if err != nil {
		return nil, err
	}
	return &DistributionResult{Distribution: d}, nil
}

func (s *appService) DeleteDistribution(ctx context.Context, id int) error {
	return s.billingService.DeleteDistribution(ctx, id)
}

func (s *appService) ListPayments(ctx context.Context, catererID, distributionID *int) (*PaymentListResult, error) {
	payments, err := s.billingService.ListPayments(ctx, core.PaymentFilter{
		CatererID:      catererID,
		DistributionID: distributionID,
	})
	if err != nil {
		return nil, err
	}
	return &PaymentListResult{Payments: payments}, nil
}

func (s *appService) RecordCatererPayment(ctx context.Context, req CatererPaymentRequest) (*PaymentResult, error) {
	amount, err := core.ParseAmount("amount", req.Amount)
	if err != nil {
		return nil, err
	}
	now := s.clock()
	date, err := parseDate("payment_date", req.PaymentDate, &now)
	if err != nil {
		return nil, err
	}

	p, err := s.billingService.RecordCatererPayment(ctx, core.CatererPaymentInput{
		CatererID:    req.CatererID,
		Amount:       amount,
		PaymentDate:  date,
		PaymentMode:  req.PaymentMode,
		ReferenceNo:  toPtr(req.ReferenceNo),
		Notes:        toPtr(req.Notes),
		ReceiptImage: toPtr(req.ReceiptImage),
	})
	if err != nil {
		return nil, err
	}
	return &PaymentResult{Payment: p}, nil
}

func (s *appService) ListReminders(ctx context.Context) (*ReminderListResult, error) {
	reminders, err := s.reminderService.ListReminders(ctx, s.clock())
	if err != nil {
		return nil, err
	}
	return &ReminderListResult{Reminders: reminders}, nil
}

func (s *appService) GetReminderSchedule(ctx context.Context) (*ScheduleResult, error) {
	schedule, err := s.reminderService.GetSchedule(ctx, s.clock())
	if err != nil {
		return nil, err
	}
	return &ScheduleResult{Reminders: schedule}, nil
}

func (s *appService) CreateReminder(ctx context.Context, req CreateReminderRequest) (*ReminderResult, error) {
	amount, err := core.ParseAmount("amount", req.Amount)
	if err != nil {
		return nil, err
	}
	dueDate, err := parseDate("original_due_date", req.OriginalDueDate, nil)
	if err != nil {
		return nil, err
	}
	now := s.clock()
	reminderDate, err := parseDate("reminder_date", req.ReminderDate, &now)
	if err != nil {
		return nil, err
	}

	r, err := s.reminderService.CreateReminder(ctx, core.CreateReminderInput{
		CatererID:       req.CatererID,
		DistributionID:  req.DistributionID,
		Amount:          amount,
		OriginalDueDate: dueDate,
		ReminderDate:    reminderDate,
		Notes:           toPtr(req.Notes),
	})
	if err != nil {
		return nil, err
	}
	return &ReminderResult{Reminder: r}, nil
}

func (s *appService) MarkReminderRead(ctx context.Context, id int) (*ReminderResult, error) {
	r, err := s.reminderService.MarkAsRead(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ReminderResult{Reminder: r}, nil
}

func (s *appService) AcknowledgeReminder(ctx context.Context, id int) (*ReminderResult, error) {
	r, err := s.reminderService.Acknowledge(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ReminderResult{Reminder: r}, nil
}

func (s *appService) DeleteReminder(ctx context.Context, id int) error {
	return s.reminderService.DeleteReminder(ctx, id)
}

func (s *appService) SetNextReminderDate(ctx context.Context, req SetNextReminderRequest) (*ReminderResult, error) {
	next, err := parseDate("next_reminder_date", req.NextReminderDate, nil)
	if err != nil {
		return nil, err
	}

	ref := core.ReminderRef{
		Source:         core.ReminderSource(req.Source),
		PersistedID:    req.ReminderID,
		DistributionID: req.DistributionID,
	}
	if req.Source == "" {
		// Default to the persisted form when addressed by row ID.
		ref.Source = core.SourcePersisted
	}

	r, err := s.reminderService.SetNextReminderDate(ctx, ref, next)
	if err != nil {
		return nil, err
	}
	return &ReminderResult{Reminder: r}, nil
}
