// Package money implements the scaled-integer encoding used for every
// monetary amount in the ledger. An amount is stored as
// value × 10^decimal_places, so integer arithmetic is exact and summing
// transactions never drifts the way float math would.
package money

import (
	"github.com/shopspring/decimal"
)

// MainCurrencyPlaces is the precision used for amounts normalized to the
// user's main currency.
const MainCurrencyPlaces = 2

// Scale converts a decimal value to its scaled-integer form, rounding
// half away from zero to the nearest integer.
func Scale(v decimal.Decimal, places int) int64 {
	return v.Shift(int32(places)).Round(0).IntPart()
}

// ScaleFloat is a convenience wrapper for callers holding a float64.
func ScaleFloat(v float64, places int) int64 {
	return Scale(decimal.NewFromFloat(v), places)
}

// Render formats a scaled amount back to its decimal string with exactly
// places fractional digits. Render(40000, 8) == "0.00040000".
func Render(amount int64, places int) string {
	return decimal.New(amount, -int32(places)).StringFixed(int32(places))
}

// Decimal returns the scaled amount as a decimal value.
func Decimal(amount int64, places int) decimal.Decimal {
	return decimal.New(amount, -int32(places))
}

// Rescale re-expresses a scaled amount in a different precision. Moving to
// a coarser precision rounds half away from zero.
func Rescale(amount int64, fromPlaces, toPlaces int) int64 {
	if fromPlaces == toPlaces {
		return amount
	}
	return Scale(decimal.New(amount, -int32(fromPlaces)), toPlaces)
}
