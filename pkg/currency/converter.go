// Package currency converts monetary amounts between the supported
// currencies using a fixed cross-rate table pivoted through USD.
package currency

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/unip1801/antaeus/pkg/models"
)

// Rates to USD for every non-reference currency, as exact decimals. One unit
// of the currency buys this many USD.
var usdRates = map[models.Currency]decimal.Decimal{
	models.EUR: decimal.RequireFromString("1.13"),
	models.DKK: decimal.RequireFromString("0.15"),
	models.SEK: decimal.RequireFromString("0.11"),
	models.GBP: decimal.RequireFromString("1.33"),
}

// Converter converts Money values between currencies. It is stateless and
// safe for concurrent use.
type Converter struct {
	rates map[models.Currency]decimal.Decimal
}

// NewConverter returns a Converter backed by the static rate table.
func NewConverter() *Converter {
	return &Converter{rates: usdRates}
}

// Convert returns amount expressed in target. When the currencies already
// match, the input is returned unchanged. Otherwise the amount goes through
// two hops: source currency to USD, then USD to target. All arithmetic is
// exact decimal.
func (c *Converter) Convert(amount models.Money, target models.Currency) models.Money {
	if amount.Currency == target {
		return amount
	}

	usd := c.toUSD(amount.Amount, amount.Currency)
	return models.Money{
		Amount:   c.fromUSD(usd, target),
		Currency: target,
	}
}

// ConvertInvoice returns a copy of the invoice with its amount expressed in
// target. The copy is not persisted; callers own the write.
func (c *Converter) ConvertInvoice(invoice models.Invoice, target models.Currency) models.Invoice {
	invoice.Amount = c.Convert(invoice.Amount, target)
	return invoice
}

func (c *Converter) toUSD(value decimal.Decimal, from models.Currency) decimal.Decimal {
	switch from {
	case models.USD:
		return value
	case models.EUR, models.DKK, models.SEK, models.GBP:
		return value.Mul(c.rates[from])
	default:
		// The currency enumeration is closed; an unknown value is a broken
		// caller contract, not a runtime condition.
		panic(fmt.Sprintf("currency: no rate for %q", from))
	}
}

func (c *Converter) fromUSD(value decimal.Decimal, to models.Currency) decimal.Decimal {
	switch to {
	case models.USD:
		return value
	case models.EUR, models.DKK, models.SEK, models.GBP:
		return value.Div(c.rates[to])
	default:
		panic(fmt.Sprintf("currency: no rate for %q", to))
	}
}
