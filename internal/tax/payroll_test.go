package tax

import (
	"math"
	"testing"
)

func TestComputeFlatTax(t *testing.T) {
	socialSecurity := PayrollTaxRule{Name: "social security", Rate: 0.062, WageBase: 160200}
	medicare := PayrollTaxRule{Name: "medicare", Rate: 0.0145}

	tests := []struct {
		name     string
		gross    float64
		rule     PayrollTaxRule
		expected float64
	}{
		{"Capped rule below wage base", 100000, socialSecurity, 6200},
		{"Capped rule at wage base", 160200, socialSecurity, 9932.40},
		{"Capped rule above wage base", 500000, socialSecurity, 9932.40},
		{"Uncapped rule", 100000, medicare, 1450},
		{"Uncapped rule on large salary", 1000000, medicare, 14500},
		{"Rounds half away from zero", 50, PayrollTaxRule{Rate: 0.0145}, 0.73},
		{"Zero gross", 0, medicare, 0},
		{"Negative gross", -100, medicare, 0},
		{"NaN gross", math.NaN(), medicare, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeFlatTax(tt.gross, tt.rule)
			if got != tt.expected {
				t.Errorf("ComputeFlatTax(%v) = %v, expected %v", tt.gross, got, tt.expected)
			}
		})
	}
}

func TestPayrollTaxRuleValidate(t *testing.T) {
	tests := []struct {
		name    string
		rule    PayrollTaxRule
		wantErr bool
	}{
		{"Capped", PayrollTaxRule{Rate: 0.062, WageBase: 160200}, false},
		{"Uncapped", PayrollTaxRule{Rate: 0.0145}, false},
		{"Rate above one", PayrollTaxRule{Rate: 2}, true},
		{"Negative rate", PayrollTaxRule{Rate: -0.01}, true},
		{"Negative wage base", PayrollTaxRule{Rate: 0.01, WageBase: -1}, true},
		{"Infinite wage base", PayrollTaxRule{Rate: 0.01, WageBase: math.Inf(1)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rule.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
