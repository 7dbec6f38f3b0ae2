package payment

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"

	"github.com/unip1801/antaeus/pkg/models"
)

// CustomerFetcher is the slice of the customer store the provider needs to
// validate invoice currencies.
type CustomerFetcher interface {
	GetCustomer(ctx context.Context, id int64) (models.Customer, error)
}

// ExternalProvider is a mocked payment provider. It validates the invoice
// currency against the customer record, then simulates the flakiness of a
// real provider: occasional network errors and occasional declines.
type ExternalProvider struct {
	customers CustomerFetcher

	mu  sync.Mutex
	rnd *rand.Rand
}

var _ Gateway = (*ExternalProvider)(nil)

// NewExternalProvider creates the mocked provider. rnd controls the
// simulated failures; pass a seeded source in tests for determinism, or nil
// for a time-seeded one.
func NewExternalProvider(customers CustomerFetcher, rnd *rand.Rand) *ExternalProvider {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(rand.Int63()))
	}
	return &ExternalProvider{customers: customers, rnd: rnd}
}

// Charge implements Gateway.
func (p *ExternalProvider) Charge(ctx context.Context, invoice models.Invoice) (bool, error) {
	customer, err := p.customers.GetCustomer(ctx, invoice.CustomerID)
	if err != nil {
		if errors.Is(err, models.ErrCustomerNotFound) {
			return false, fmt.Errorf("invoice %d: %w", invoice.ID, ErrCustomerNotFound)
		}
		return false, fmt.Errorf("invoice %d: customer lookup: %w", invoice.ID, err)
	}

	if customer.Currency != invoice.Amount.Currency {
		return false, fmt.Errorf("invoice %d is in %s, customer %d pays in %s: %w",
			invoice.ID, invoice.Amount.Currency, customer.ID, customer.Currency, ErrCurrencyMismatch)
	}

	if p.oneInNine() {
		return false, fmt.Errorf("invoice %d: %w", invoice.ID, ErrNetwork)
	}

	// Success or decline, at the same odds as the simulated network faults.
	return !p.oneInNine(), nil
}

func (p *ExternalProvider) oneInNine() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return (p.rnd.Intn(9)+1)%7 == 0
}
