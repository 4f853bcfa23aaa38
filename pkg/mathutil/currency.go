// Package mathutil provides common mathematical utility functions.
package mathutil

import (
	"math"

	"github.com/iwvelando/take-home-pay/pkg/constants"
)

// Round rounds a value to two decimals, i.e. to represent real currency.
// Halves round away from zero.
func Round(val float64) float64 {
	return math.Round(val*constants.DecimalPrecision) / constants.DecimalPrecision
}

// RoundTo rounds a value to the given number of decimal places, halves away from zero.
func RoundTo(val float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(val*scale) / scale
}

// IsFinite reports whether val is neither NaN nor an infinity.
func IsFinite(val float64) bool {
	return !math.IsNaN(val) && !math.IsInf(val, 0)
}

// WithinTolerance checks if two values are within a specified tolerance
func WithinTolerance(val1, val2, tolerance float64) bool {
	return math.Abs(val1-val2) <= tolerance
}
