package tax

import (
	"fmt"
	"math"

	"github.com/iwvelando/take-home-pay/pkg/mathutil"
	"github.com/shopspring/decimal"
)

// Bracket is a contiguous income range [Lower, Upper) taxed at one marginal rate.
// An Upper of zero or +Inf marks the open-ended top bracket.
type Bracket struct {
	Lower float64 `mapstructure:"lower" yaml:"lower" json:"lower"`
	Upper float64 `mapstructure:"upper" yaml:"upper" json:"upper"`
	Rate  float64 `mapstructure:"rate" yaml:"rate" json:"rate"`
}

// Unbounded reports whether the bracket has no upper limit.
func (b Bracket) Unbounded() bool {
	return unbounded(b.Upper)
}

// BracketTable is an ordered sequence of brackets, lowest first.
type BracketTable []Bracket

// Validate checks that the table starts at zero, is sorted and contiguous,
// ends with the only unbounded bracket, and carries rates within [0, 1].
func (t BracketTable) Validate() error {
	if len(t) == 0 {
		return fmt.Errorf("bracket table is empty")
	}
	if t[0].Lower != 0 {
		return fmt.Errorf("first bracket must start at 0, got %.2f", t[0].Lower)
	}

	for i, b := range t {
		if math.IsNaN(b.Rate) || b.Rate < 0 || b.Rate > 1 {
			return fmt.Errorf("bracket %d rate %v outside [0, 1]", i, b.Rate)
		}
		last := i == len(t)-1
		if b.Unbounded() {
			if !last {
				return fmt.Errorf("bracket %d is unbounded but is not the last bracket", i)
			}
			continue
		}
		if last {
			return fmt.Errorf("last bracket must be unbounded, got upper bound %.2f", b.Upper)
		}
		if b.Upper <= b.Lower {
			return fmt.Errorf("bracket %d upper bound %.2f does not exceed lower bound %.2f", i, b.Upper, b.Lower)
		}
		if next := t[i+1]; next.Lower != b.Upper {
			return fmt.Errorf("bracket %d ends at %.2f but bracket %d starts at %.2f", i, b.Upper, i+1, next.Lower)
		}
	}
	return nil
}

// MarginalRate returns the rate applied to the next unit of taxable income.
func (t BracketTable) MarginalRate(taxable float64) float64 {
	for _, b := range t {
		if taxable >= b.Lower && (b.Unbounded() || taxable < b.Upper) {
			return b.Rate
		}
	}
	if len(t) > 0 {
		return t[len(t)-1].Rate
	}
	return 0
}

// ComputeBracketTax applies the graduated brackets to income after the
// deduction and returns the tax rounded to cents. Income at a boundary is taxed
// entirely in the lower bracket. Negative or non-finite input yields zero.
func ComputeBracketTax(income, deduction float64, brackets BracketTable) float64 {
	if !mathutil.IsFinite(income) || !mathutil.IsFinite(deduction) {
		return 0
	}

	taxable := decimal.Max(decimal.Zero, money(income).Sub(money(deduction)))
	if !taxable.IsPositive() {
		return 0
	}

	total := decimal.Zero
	for _, b := range brackets {
		lower := money(b.Lower)
		if taxable.LessThanOrEqual(lower) {
			break
		}
		top := taxable
		if !b.Unbounded() {
			top = decimal.Min(taxable, money(b.Upper))
		}
		total = total.Add(top.Sub(lower).Mul(money(b.Rate)))
	}

	return cents(total)
}
