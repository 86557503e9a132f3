// Package types provides common types used across Mint.
package types

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Money is an amount in the smallest unit of its currency (cents, pence,
// yen). Claim payments, collection balances and royalty amounts all use
// integer arithmetic; nothing in the engine touches floating point.
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"` // lowercase ISO 4217: "usd", "eur"
}

// USD creates a Money value in US cents.
func USD(cents int64) Money { return Money{Amount: cents, Currency: "usd"} }

// EUR creates a Money value in Euro cents.
func EUR(cents int64) Money { return Money{Amount: cents, Currency: "eur"} }

// GBP creates a Money value in pence.
func GBP(pence int64) Money { return Money{Amount: pence, Currency: "gbp"} }

// JPY creates a Money value in yen.
func JPY(yen int64) Money { return Money{Amount: yen, Currency: "jpy"} }

// Zero returns the zero amount of the given currency.
func Zero(currency string) Money {
	return Money{Currency: strings.ToLower(currency)}
}

// Add returns m + other. Panics on a currency mismatch.
func (m Money) Add(other Money) Money {
	m.assertSameCurrency(other)
	m.Amount += other.Amount
	return m
}

// Subtract returns m - other. Panics on a currency mismatch.
func (m Money) Subtract(other Money) Money {
	m.assertSameCurrency(other)
	m.Amount -= other.Amount
	return m
}

// Multiply scales the amount by qty. Claims use this to derive the total
// owed from the unit price.
func (m Money) Multiply(qty int64) Money {
	m.Amount *= qty
	return m
}

// Share returns rate/denominator of the amount, truncated toward zero.
// Royalties pass basis points with a denominator of 10000.
func (m Money) Share(rate, denominator int64) Money {
	if denominator == 0 {
		panic("money: zero denominator")
	}
	m.Amount = m.Amount * rate / denominator
	return m
}

func (m Money) IsZero() bool { return m.Amount == 0 }

func (m Money) IsPositive() bool { return m.Amount > 0 }

func (m Money) IsNegative() bool { return m.Amount < 0 }

// Equal reports whether amount and currency both match. Unlike the
// ordering comparisons it never panics, so it is safe for validating
// untrusted payments against a price.
func (m Money) Equal(other Money) bool {
	return m.Amount == other.Amount && m.Currency == other.Currency
}

// LessThan panics on a currency mismatch.
func (m Money) LessThan(other Money) bool {
	m.assertSameCurrency(other)
	return m.Amount < other.Amount
}

// GreaterThan panics on a currency mismatch.
func (m Money) GreaterThan(other Money) bool {
	m.assertSameCurrency(other)
	return m.Amount > other.Amount
}

// FormatMajor renders the amount in major units without a symbol:
// USD(4900) -> "49.00", JPY(100) -> "100".
func (m Money) FormatMajor() string {
	decimals := currencyDecimals(m.Currency)
	if decimals == 0 {
		return strconv.FormatInt(m.Amount, 10)
	}

	divisor := int64(1)
	for i := 0; i < decimals; i++ {
		divisor *= 10
	}

	abs := m.Amount
	sign := ""
	if abs < 0 {
		abs = -abs
		sign = "-"
	}

	return fmt.Sprintf("%s%d.%0*d", sign, abs/divisor, decimals, abs%divisor)
}

// String renders the amount with its currency symbol: "$49.00", "¥100".
func (m Money) String() string {
	return currencySymbol(m.Currency) + m.FormatMajor()
}

// MarshalJSON adds a display string alongside the raw fields.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
		Display  string `json:"display"`
	}{m.Amount, m.Currency, m.String()})
}

// Sum adds up all values; they must share a currency.
func Sum(values ...Money) Money {
	if len(values) == 0 {
		return Zero("usd")
	}
	total := values[0]
	for _, v := range values[1:] {
		total = total.Add(v)
	}
	return total
}

func (m Money) assertSameCurrency(other Money) {
	if m.Currency != other.Currency {
		panic(fmt.Sprintf("money: currency mismatch: %s != %s", m.Currency, other.Currency))
	}
}

func currencySymbol(currency string) string {
	switch strings.ToLower(currency) {
	case "usd":
		return "$"
	case "eur":
		return "€"
	case "gbp":
		return "£"
	case "jpy":
		return "¥"
	default:
		return strings.ToUpper(currency) + " "
	}
}

func currencyDecimals(currency string) int {
	switch strings.ToLower(currency) {
	case "jpy", "krw", "vnd":
		return 0
	default:
		return 2
	}
}
