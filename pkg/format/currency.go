// Package format renders breakdown figures for display.
package format

import (
	"math"
	"strconv"

	"github.com/iwvelando/take-home-pay/pkg/constants"
	"github.com/iwvelando/take-home-pay/pkg/mathutil"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.AmericanEnglish)

// Currency returns a currency string with a dollar sign, thousands separators
// and cents (e.g., "-$1,234.56").
func Currency(amount float64) string {
	return signed(amount, printer.Sprintf("%.2f", mathutil.Round(math.Abs(amount))))
}

// WholeCurrency returns a currency string rounded to whole dollars
// (e.g., "$100,000", "$1,235"). Non-finite amounts render as "$0".
func WholeCurrency(amount float64) string {
	if !mathutil.IsFinite(amount) {
		amount = 0
	}
	rounded := mathutil.RoundTo(amount, 0)
	return signed(rounded, printer.Sprintf("%.0f", math.Abs(rounded)))
}

// Percentage renders a percentage with one decimal place (e.g., "15.0").
func Percentage(value float64) string {
	return strconv.FormatFloat(mathutil.RoundTo(value, constants.PercentagePlaces), 'f', constants.PercentagePlaces, 64)
}

func signed(amount float64, formatted string) string {
	if amount < 0 && formatted != "0" && formatted != "0.00" {
		return "-$" + formatted
	}
	return "$" + formatted
}
