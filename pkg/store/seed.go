package store

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/shopspring/decimal"

	"github.com/unip1801/antaeus/pkg/models"
)

// Seed fills the store with demo data: customers in random currencies, each
// with one pending invoice and a tail of already-paid history. Roughly one
// invoice in nine is issued in a currency that differs from its customer's,
// to exercise the conversion path during billing.
func (s *SQLStore) Seed(ctx context.Context, customers, invoicesPerCustomer int, rnd *rand.Rand) error {
	currencies := models.Currencies()

	for i := 0; i < customers; i++ {
		customer, err := s.CreateCustomer(ctx, currencies[rnd.Intn(len(currencies))])
		if err != nil {
			return fmt.Errorf("failed to seed customer: %w", err)
		}

		for j := 0; j < invoicesPerCustomer; j++ {
			currency := customer.Currency
			if (rnd.Intn(9)+1)%7 == 0 {
				currency = currencies[rnd.Intn(len(currencies))]
			}

			amount := models.Money{
				Amount:   decimal.NewFromFloat(10 + rnd.Float64()*490).Round(2),
				Currency: currency,
			}

			status := models.StatusPaid
			if j == 0 {
				status = models.StatusPending
			}

			if _, err := s.CreateInvoice(ctx, customer.ID, amount, status); err != nil {
				return fmt.Errorf("failed to seed invoice for customer %d: %w", customer.ID, err)
			}
		}
	}
	return nil
}
