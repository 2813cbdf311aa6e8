package core

import "fmt"

// ValidationError reports malformed or rule-violating input (bad quantity,
// negative rate, illegal state transition). Maps to HTTP 400 at the boundary.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
	}
	return "validation failed: " + e.Message
}

func validationf(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// OverpaymentError is returned when a payment would exceed the outstanding
// balance of a distribution. Payments are never silently clamped.
type OverpaymentError struct {
	DistributionID int
	BalanceDue     string
	Attempted      string
}

func (e *OverpaymentError) Error() string {
	return fmt.Sprintf("payment %s exceeds balance due %s on distribution %d",
		e.Attempted, e.BalanceDue, e.DistributionID)
}

// StaleStateError is returned when a mutation carries a precondition on the
// distribution's balance that no longer holds. The caller must re-read and retry.
type StaleStateError struct {
	DistributionID  int
	ExpectedBalance string
	ActualBalance   string
}

func (e *StaleStateError) Error() string {
	return fmt.Sprintf("distribution %d balance changed: expected %s, found %s",
		e.DistributionID, e.ExpectedBalance, e.ActualBalance)
}

// NotFoundError reports a missing caterer, distribution, payment or reminder.
type NotFoundError struct {
	Entity string
	ID     int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// RelatedRecordsError blocks a deletion because dependent records exist.
// The counts are surfaced so the caller can present a resolution path.
type RelatedRecordsError struct {
	Entity        string
	ID            int
	Distributions int
	Payments      int
}

func (e *RelatedRecordsError) Error() string {
	return fmt.Sprintf("%s %d has related records (%d distributions, %d payments)",
		e.Entity, e.ID, e.Distributions, e.Payments)
}
