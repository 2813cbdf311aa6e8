package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Midnight truncates t to local midnight. Due-date comparisons ignore
// time of day entirely.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DeriveStatus computes a distribution's lifecycle status from ledger state.
// Precedence: cancelled short-circuits everything; paid beats partial;
// overdue applies while a balance remains and the due date is strictly in
// the past. Decimal comparison is exact (amounts are rounded to 2dp on
// entry), so no epsilon is needed.
func DeriveStatus(grandTotal, amountPaid decimal.Decimal, dueDate, today time.Time, cancelled bool) DistributionStatus {
	if cancelled {
		return StatusCancelled
	}
	if amountPaid.GreaterThanOrEqual(grandTotal) {
		return StatusPaid
	}
	if Midnight(dueDate).Before(Midnight(today)) {
		return StatusOverdue
	}
	if amountPaid.IsPositive() {
		return StatusPartial
	}
	return StatusPending
}

// ValidateTransition guards explicit status changes. Cancelled is terminal,
// paid bills cannot be cancelled or demoted, and nothing re-enters from
// cancelled.
func ValidateTransition(from, to DistributionStatus) error {
	if from == to {
		return validationf("status", "distribution is already %s", from)
	}
	if from == StatusCancelled {
		return validationf("status", "cancelled is terminal")
	}
	if from == StatusPaid {
		return validationf("status", "paid distribution cannot transition to %s", to)
	}
	return nil
}
