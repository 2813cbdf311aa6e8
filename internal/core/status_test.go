package core_test

import (
	"testing"
	"time"

	"caterer-billing/internal/core"
)

func day(offset int) time.Time {
	base := time.Date(2025, 6, 15, 0, 0, 0, 0, time.Local)
	return base.AddDate(0, 0, offset)
}

func TestDeriveStatus(t *testing.T) {
	today := day(0)

	tests := []struct {
		name       string
		grandTotal string
		amountPaid string
		dueDate    time.Time
		cancelled  bool
		want       core.DistributionStatus
	}{
		{
			name:       "Cancelled short-circuits everything",
			grandTotal: "1000", amountPaid: "1000", dueDate: day(-10), cancelled: true,
			want: core.StatusCancelled,
		},
		{
			name:       "Fully paid",
			grandTotal: "500.00", amountPaid: "500",
			dueDate: day(-10),
			want:    core.StatusPaid,
		},
		{
			name:       "Paid beats overdue",
			grandTotal: "500.00", amountPaid: "600",
			dueDate: day(-10),
			want:    core.StatusPaid,
		},
		{
			name:       "Partial payment not yet due",
			grandTotal: "1000.00", amountPaid: "400",
			dueDate: day(2),
			want:    core.StatusPartial,
		},
		{
			name:       "Partial payment past due is overdue",
			grandTotal: "1000.00", amountPaid: "400",
			dueDate: day(-1),
			want:    core.StatusOverdue,
		},
		{
			name:       "Unpaid past due is overdue",
			grandTotal: "300.00", amountPaid: "0",
			dueDate: day(-10),
			want:    core.StatusOverdue,
		},
		{
			name:       "Unpaid due today is not overdue",
			grandTotal: "300.00", amountPaid: "0",
			dueDate: today,
			want:    core.StatusPending,
		},
		{
			name:       "Unpaid future bill is pending",
			grandTotal: "300.00", amountPaid: "0",
			dueDate: day(5),
			want:    core.StatusPending,
		},
		{
			name:       "Time of day ignored on due date",
			grandTotal: "300.00", amountPaid: "0",
			// 23:59 today is still "today", not past
			dueDate: day(0).Add(23*time.Hour + 59*time.Minute),
			want:    core.StatusPending,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := core.DeriveStatus(dec(tt.grandTotal), dec(tt.amountPaid), tt.dueDate, today, tt.cancelled)
			if got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestValidateTransition(t *testing.T) {
	tests := []struct {
		name      string
		from      core.DistributionStatus
		to        core.DistributionStatus
		expectErr bool
	}{
		{name: "Pending to cancelled", from: core.StatusPending, to: core.StatusCancelled},
		{name: "Partial to cancelled", from: core.StatusPartial, to: core.StatusCancelled},
		{name: "Overdue to cancelled", from: core.StatusOverdue, to: core.StatusCancelled},
		{name: "Partial to paid", from: core.StatusPartial, to: core.StatusPaid},
		{name: "Paid to cancelled rejected", from: core.StatusPaid, to: core.StatusCancelled, expectErr: true},
		{name: "Paid to partial rejected", from: core.StatusPaid, to: core.StatusPartial, expectErr: true},
		{name: "Cancelled is terminal", from: core.StatusCancelled, to: core.StatusPending, expectErr: true},
		{name: "Cancelled to paid rejected", from: core.StatusCancelled, to: core.StatusPaid, expectErr: true},
		{name: "Same status rejected", from: core.StatusCancelled, to: core.StatusCancelled, expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := core.ValidateTransition(tt.from, tt.to)
			if tt.expectErr && err == nil {
				t.Errorf("expected error, got nil")
			}
			if !tt.expectErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
