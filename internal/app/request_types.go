package app

// Monetary amounts and dates arrive as strings on the wire (decimal-safe
// fixed-point and YYYY-MM-DD). The app service parses and validates them
// before anything reaches the core.

// CatererRequest creates or updates a caterer's contact fields.
type CatererRequest struct {
	Name          string `json:"name"`
	ContactPerson string `json:"contact_person"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
	Address       string `json:"address"`
	GSTIN         string `json:"gstin"`
}

// DistributionItemRequest is one raw line of a new bill. Amount and GST are
// computed server-side; any client-sent totals are ignored.
type DistributionItemRequest struct {
	SpiceID       *int   `json:"spice_id,omitempty"`
	ItemName      string `json:"item_name"`
	Quantity      string `json:"quantity"`
	Unit          string `json:"unit"`
	Rate          string `json:"rate"`
	GSTPercentage string `json:"gst_percentage"`
}

// CreateDistributionRequest creates a bill with at least one line.
type CreateDistributionRequest struct {
	CatererID        int                       `json:"caterer_id"`
	BillNo           string                    `json:"bill_no"`
	DistributionDate string                    `json:"distribution_date"` // YYYY-MM-DD
	Items            []DistributionItemRequest `json:"items"`
	PaymentMode      string                    `json:"payment_mode"`
	Notes            string                    `json:"notes"`
}

// ApplyPaymentRequest records a payment against one distribution.
// ExpectedBalanceDue, when non-empty, is the balance the caller last read;
// the payment is refused if the stored balance differs.
type ApplyPaymentRequest struct {
	DistributionID     int    `json:"distribution_id"`
	Amount             string `json:"amount"`
	PaymentDate        string `json:"payment_date"` // YYYY-MM-DD, defaults to today
	PaymentMode        string `json:"payment_mode"`
	ReferenceNo        string `json:"reference_no"`
	Notes              string `json:"notes"`
	ReceiptImage       string `json:"receipt_image"`
	ExpectedBalanceDue string `json:"expected_balance_due"`
}

// CatererPaymentRequest records a caterer-level payment with no bill link.
type CatererPaymentRequest struct {
	CatererID    int    `json:"caterer_id"`
	Amount       string `json:"amount"`
	PaymentDate  string `json:"payment_date"`
	PaymentMode  string `json:"payment_mode"`
	ReferenceNo  string `json:"reference_no"`
	Notes        string `json:"notes"`
	ReceiptImage string `json:"receipt_image"`
}

// CreateReminderRequest materializes a payment reminder.
type CreateReminderRequest struct {
	CatererID       int    `json:"caterer_id"`
	DistributionID  *int   `json:"distribution_id,omitempty"`
	Amount          string `json:"amount"`
	OriginalDueDate string `json:"original_due_date"`
	ReminderDate    string `json:"reminder_date"`
	Notes           string `json:"notes"`
}

// SetNextReminderRequest sets a follow-up date. Source selects the reminder
// form: "persisted" addresses a row by ReminderID, "synthesized" addresses a
// distribution-derived reminder by DistributionID and promotes it.
type SetNextReminderRequest struct {
	Source           string `json:"source"`
	ReminderID       int    `json:"reminder_id,omitempty"`
	DistributionID   int    `json:"distribution_id,omitempty"`
	NextReminderDate string `json:"next_reminder_date"`
}
