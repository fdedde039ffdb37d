package cli

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const currencySymbol = "£"

// FormatPence renders an amount in pence as pounds, e.g. 1250 -> "£12.50".
func FormatPence(pence int64) string {
	return currencySymbol + decimal.New(pence, -2).StringFixed(2)
}

// FormatPrice renders an optional unit price; nil means the record is unpriced.
func FormatPrice(pence *int64) string {
	if pence == nil {
		return "unpriced"
	}
	return FormatPence(*pence)
}

// ParsePounds converts a decimal amount of pounds such as "12.5" into pence.
// Fractions of a penny are rejected. Negative amounts are passed through so
// the store can reject them with its own error.
func ParsePounds(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	pence := d.Shift(2)
	if !pence.Equal(pence.Truncate(0)) {
		return 0, fmt.Errorf("invalid amount %q: fractions of a penny", s)
	}
	if !pence.Abs().LessThanOrEqual(decimal.NewFromInt(1 << 53)) {
		return 0, fmt.Errorf("invalid amount %q: too large", s)
	}
	return pence.IntPart(), nil
}
