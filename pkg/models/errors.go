package models

import "errors"

// Sentinel errors shared across the storage and billing layers. Callers
// classify with errors.Is so wrapped variants still match.
var (
	ErrInvoiceNotFound  = errors.New("invoice not found")
	ErrCustomerNotFound = errors.New("customer not found")
)
