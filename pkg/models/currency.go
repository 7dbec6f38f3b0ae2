package models

import "fmt"

// Currency is a supported billing currency.
type Currency string

const (
	USD Currency = "USD"
	EUR Currency = "EUR"
	DKK Currency = "DKK"
	SEK Currency = "SEK"
	GBP Currency = "GBP"
)

// Currencies returns every supported currency. USD is the reference currency
// used as the pivot for conversions.
func Currencies() []Currency {
	return []Currency{USD, EUR, DKK, SEK, GBP}
}

// Valid reports whether c is one of the supported currencies.
func (c Currency) Valid() bool {
	switch c {
	case USD, EUR, DKK, SEK, GBP:
		return true
	}
	return false
}

func (c Currency) String() string {
	return string(c)
}

// ParseCurrency converts a string into a Currency.
func ParseCurrency(s string) (Currency, error) {
	c := Currency(s)
	if !c.Valid() {
		return "", fmt.Errorf("unknown currency %q", s)
	}
	return c, nil
}
