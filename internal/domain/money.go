package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Balances and fees are decimals with exactly two fractional digits, matching
// the NUMERIC(10,2) columns. All arithmetic goes through shopspring/decimal to
// avoid floating point drift; Round is half-up away from zero.

// Round2 normalizes d to two fractional digits using half-up rounding.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// RequiredTotal returns the amount the sender must cover for a transfer:
// amount * (1 + rate), rounded to two decimal places.
func RequiredTotal(amount, rate decimal.Decimal) decimal.Decimal {
	return Round2(amount.Mul(decimal.NewFromInt(1).Add(rate)))
}

// ParseAmount parses a positive monetary amount with at most two fractional
// digits. Anything else is rejected.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("amount must be positive, got %s", d)
	}
	if d.Exponent() < -2 {
		return decimal.Zero, fmt.Errorf("amount %s has more than two decimal places", d)
	}
	return Round2(d), nil
}
