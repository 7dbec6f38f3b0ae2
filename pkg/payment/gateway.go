// Package payment defines the external payment provider contract and a
// mocked implementation used until a real provider is wired in.
package payment

import (
	"context"
	"errors"

	"github.com/unip1801/antaeus/pkg/models"
)

// Failure modes of the charge operation. The billing engine classifies them
// with errors.Is; anything else is treated as an unexpected provider fault.
var (
	// ErrNetwork signals a transient network failure. The charge may or may
	// not have reached the provider; the engine retries it once per pass.
	ErrNetwork = errors.New("payment provider network error")
	// ErrCurrencyMismatch signals that the invoice currency does not match
	// the customer's account currency on the provider side.
	ErrCurrencyMismatch = errors.New("invoice currency does not match customer currency")
	// ErrCustomerNotFound signals that the provider has no account for the
	// invoice's customer.
	ErrCustomerNotFound = errors.New("customer not found at payment provider")
)

// Gateway charges invoices through the external payment provider.
//
// Charge returns true when the customer account was successfully charged,
// false when the account balance did not allow the charge. The operation is
// not idempotent: a second call for the same invoice is a second charge.
type Gateway interface {
	Charge(ctx context.Context, invoice models.Invoice) (bool, error)
}
