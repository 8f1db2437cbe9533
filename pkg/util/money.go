package util

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParsePrice parses a catalog decimal string. Absent or non-numeric input is
// treated as zero.
func ParsePrice(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// FirstPrice parses the first non-empty candidate, so an empty "price" falls
// through to "regular_price".
func FirstPrice(candidates ...string) decimal.Decimal {
	for _, c := range candidates {
		if strings.TrimSpace(c) != "" {
			return ParsePrice(c)
		}
	}
	return decimal.Zero
}

// ToMinorUnits converts a major-unit amount to integer minor units, rounding
// half away from zero.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

// FromMinorUnits converts integer minor units back to a major-unit amount.
func FromMinorUnits(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}

// FormatAmount renders an amount rounded to cents, e.g. "$129.58".
func FormatAmount(amount decimal.Decimal) string {
	return "$" + amount.StringFixed(2)
}
