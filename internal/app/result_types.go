package app

import "caterer-billing/internal/core"

// CatererResult is returned by single-caterer operations.
type CatererResult struct {
	Caterer *core.Caterer
}

// CatererListResult is returned by ListCaterers.
type CatererListResult struct {
	Caterers []core.Caterer
}

// BalanceResult is returned by SyncCatererBalance.
type BalanceResult struct {
	Balance *core.CatererBalance
}

// DistributionResult is returned by distribution lifecycle operations.
type DistributionResult struct {
	Distribution *core.Distribution
}

// DistributionListResult is returned by ListDistributions.
type DistributionListResult struct {
	Distributions []core.Distribution
}

// PaymentResult is returned by RecordCatererPayment.
type PaymentResult struct {
	Payment *core.CatererPayment
}

// PaymentListResult is returned by ListPayments.
type PaymentListResult struct {
	Payments []core.CatererPayment
}

// ReminderResult is returned by reminder mutations.
type ReminderResult struct {
	Reminder *core.PaymentReminder
}

// ReminderListResult is returned by ListReminders.
type ReminderListResult struct {
	Reminders []core.PaymentReminder
}

// ScheduleResult is returned by GetReminderSchedule.
type ScheduleResult struct {
	Reminders []core.Reminder
}
