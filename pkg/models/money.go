package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is a monetary amount in a specific currency. Amounts use exact
// decimal arithmetic; converting the same value through the same rates is
// reproducible across runs, which binary floats cannot guarantee.
type Money struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency Currency        `json:"currency"`
}

// NewMoney builds a Money value, rejecting negative amounts and unknown
// currencies.
func NewMoney(amount decimal.Decimal, currency Currency) (Money, error) {
	if amount.IsNegative() {
		return Money{}, fmt.Errorf("money amount cannot be negative, got %s", amount)
	}
	if !currency.Valid() {
		return Money{}, fmt.Errorf("unknown currency %q", currency)
	}
	return Money{Amount: amount, Currency: currency}, nil
}

// Equal reports whether two Money values have the same currency and the same
// numeric amount (1.10 equals 1.1).
func (m Money) Equal(other Money) bool {
	return m.Currency == other.Currency && m.Amount.Equal(other.Amount)
}

func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.Amount, m.Currency)
}
