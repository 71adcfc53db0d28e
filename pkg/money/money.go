// Package money converts between decimal amount strings and integer cents.
//
// The ledger stores and computes in cents only; decimals exist at the
// request boundary.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	hundred  = decimal.NewFromInt(100)
	maxCents = decimal.NewFromInt(1 << 62)
)

// ParseCents parses a decimal amount such as "12.34" into cents, rounding
// half-up past the second decimal place. Zero and negative amounts are rejected.
func ParseCents(s string) (int64, error) {
	cents, err := ParseSignedCents(s)
	if err != nil {
		return 0, err
	}
	if cents <= 0 {
		return 0, fmt.Errorf("amount must be positive, got %s", strings.TrimSpace(s))
	}
	return cents, nil
}

// ParseSignedCents is ParseCents for deltas and statement balances, where
// zero and negative values are meaningful.
func ParseSignedCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	cents := d.Mul(hundred).Round(0)
	if cents.Abs().GreaterThan(maxCents) {
		return 0, fmt.Errorf("amount out of range: %s", s)
	}
	return cents.IntPart(), nil
}

// FormatCents renders cents with two decimal places, e.g. -1050 -> "-10.50".
func FormatCents(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}
