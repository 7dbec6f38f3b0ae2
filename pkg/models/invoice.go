package models

import "fmt"

// InvoiceStatus is the processing state of an invoice. The set is closed:
// every switch over it must handle all five values.
type InvoiceStatus string

const (
	// StatusPending marks an invoice awaiting its first charge attempt.
	StatusPending InvoiceStatus = "PENDING"
	// StatusPaid is terminal: a paid invoice is never reprocessed.
	StatusPaid InvoiceStatus = "PAID"
	// StatusNetworkError marks a transient gateway failure, eligible for one
	// same-pass retry and for future passes.
	StatusNetworkError InvoiceStatus = "NETWORK_ERROR"
	// StatusMissingFunds marks a declined charge. The charge was really
	// attempted against the customer, so it is never retried automatically.
	StatusMissingFunds InvoiceStatus = "MISSING_FUNDS"
	// StatusError marks a classification failure (currency mismatch, unknown
	// customer) that needs manual handling.
	StatusError InvoiceStatus = "ERROR"
)

// InvoiceStatuses returns every invoice status.
func InvoiceStatuses() []InvoiceStatus {
	return []InvoiceStatus{StatusPending, StatusPaid, StatusNetworkError, StatusMissingFunds, StatusError}
}

// Valid reports whether s is one of the five invoice statuses.
func (s InvoiceStatus) Valid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusNetworkError, StatusMissingFunds, StatusError:
		return true
	}
	return false
}

func (s InvoiceStatus) String() string {
	return string(s)
}

// ParseInvoiceStatus converts a string into an InvoiceStatus.
func ParseInvoiceStatus(s string) (InvoiceStatus, error) {
	status := InvoiceStatus(s)
	if !status.Valid() {
		return "", fmt.Errorf("unknown invoice status %q", s)
	}
	return status, nil
}

// Invoice is a charge owed by a customer. ID and CustomerID never change
// after creation; updates replace the full record keyed by ID.
type Invoice struct {
	ID         int64         `json:"id"`
	CustomerID int64         `json:"customer_id"`
	Amount     Money         `json:"amount"`
	Status     InvoiceStatus `json:"status"`
}

// WithStatus returns a copy of the invoice with the given status.
func (i Invoice) WithStatus(status InvoiceStatus) Invoice {
	i.Status = status
	return i
}

// Customer is the owner of invoices. Read-only from the billing engine's
// perspective.
type Customer struct {
	ID       int64    `json:"id"`
	Currency Currency `json:"currency"`
}
