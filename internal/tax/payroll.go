package tax

import (
	"fmt"
	"math"

	"github.com/iwvelando/take-home-pay/pkg/mathutil"
	"github.com/shopspring/decimal"
)

// PayrollTaxRule is a flat rate applied to gross wages, optionally capped at a
// wage base. A WageBase of zero means the rule is uncapped.
type PayrollTaxRule struct {
	Name     string  `mapstructure:"name" yaml:"name" json:"name"`
	Rate     float64 `mapstructure:"rate" yaml:"rate" json:"rate"`
	WageBase float64 `mapstructure:"wageBase" yaml:"wageBase" json:"wageBase,omitempty"`
}

// Capped reports whether the rule stops applying above a wage base.
func (r PayrollTaxRule) Capped() bool {
	return r.WageBase > 0
}

// Validate checks the rate and wage base of the rule.
func (r PayrollTaxRule) Validate() error {
	if math.IsNaN(r.Rate) || r.Rate < 0 || r.Rate > 1 {
		return fmt.Errorf("payroll rule %q rate %v outside [0, 1]", r.Name, r.Rate)
	}
	if math.IsNaN(r.WageBase) || math.IsInf(r.WageBase, 0) || r.WageBase < 0 {
		return fmt.Errorf("payroll rule %q wage base %v must be a non-negative amount", r.Name, r.WageBase)
	}
	return nil
}

// ComputeFlatTax applies the rule to gross wages and rounds to cents.
func ComputeFlatTax(gross float64, rule PayrollTaxRule) float64 {
	if !mathutil.IsFinite(gross) || gross <= 0 {
		return 0
	}

	wages := money(gross)
	if rule.Capped() {
		wages = decimal.Min(wages, money(rule.WageBase))
	}
	return cents(wages.Mul(money(rule.Rate)))
}
