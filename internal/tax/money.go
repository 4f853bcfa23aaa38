package tax

import (
	"math"

	"github.com/iwvelando/take-home-pay/pkg/constants"
	"github.com/shopspring/decimal"
)

// money converts a float amount to a decimal. Callers guard against
// non-finite values before converting.
func money(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

// cents rounds a decimal amount to whole cents, halves away from zero.
func cents(d decimal.Decimal) float64 {
	return d.Round(constants.CurrencyPlaces).InexactFloat64()
}

// unbounded reports whether an upper bound means "no limit".
func unbounded(upper float64) bool {
	return upper <= 0 || math.IsInf(upper, 1)
}
