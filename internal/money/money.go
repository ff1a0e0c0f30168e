// Package money provides arithmetic helpers for currency amounts.
//
// Amounts are plain float64 dollars. Rounding to two decimals happens only at
// presentation boundaries, never mid-computation, so proportional splits
// don't compound rounding error.
package money

import (
	"fmt"
	"math"
)

// Epsilon is the settlement tolerance. Proportional splits of tax and tip
// across several claimants leave binary-fraction residues, so any balance
// within a cent counts as settled.
const Epsilon = 0.01

// Round2 rounds an amount to two decimal places. Presentation only.
func Round2(amount float64) float64 {
	return math.Round(amount*100) / 100
}

// Scale returns the given proportion of an amount, unrounded.
func Scale(amount, proportion float64) float64 {
	return amount * proportion
}

// IsZero reports whether an amount is settled, i.e. within Epsilon of zero.
func IsZero(amount float64) bool {
	return math.Abs(amount) <= Epsilon
}

// Format renders an amount as a dollar string, e.g. "$24.17".
func Format(amount float64) string {
	return fmt.Sprintf("$%.2f", Round2(amount))
}
