package tax

import (
	"math"
	"testing"
)

// tolerance for floating point comparisons (1 cent)
const moneyTolerance = 0.01

func assertMoneyEquals(t *testing.T, expected, actual float64, description string) {
	t.Helper()
	if math.Abs(expected-actual) > moneyTolerance {
		t.Errorf("%s: expected $%.2f, got $%.2f (diff: $%.2f)",
			description, expected, actual, actual-expected)
	}
}

var simpleTable = BracketTable{
	{Lower: 0, Upper: 11000, Rate: 0.10},
	{Lower: 11000, Upper: 44725, Rate: 0.12},
	{Lower: 44725, Upper: 95375, Rate: 0.22},
	{Lower: 95375, Rate: 0.24},
}

func TestComputeBracketTax(t *testing.T) {
	tests := []struct {
		name      string
		income    float64
		deduction float64
		expected  float64
	}{
		{"Zero income", 0, 0, 0},
		{"Income below deduction", 10000, 13850, 0},
		{"Income equal to deduction", 13850, 13850, 0},
		{"First bracket only", 5000, 0, 500},
		{"Exactly at first boundary", 11000, 0, 1100},
		{"One cent past first boundary", 11000.01, 0, 1100},
		{"Into second bracket", 20000, 0, 2180},
		{"With deduction", 100000, 13850, 14260.50},
		{"Top bracket", 200000, 0, 1100 + 4047 + 11143 + 25110},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeBracketTax(tt.income, tt.deduction, simpleTable)
			assertMoneyEquals(t, tt.expected, got, tt.name)
		})
	}
}

func TestComputeBracketTaxBoundaryExactness(t *testing.T) {
	atBoundary := ComputeBracketTax(11000, 0, simpleTable)
	if atBoundary != 1100.00 {
		t.Fatalf("ComputeBracketTax(11000) = %.4f, expected exactly 1100.00", atBoundary)
	}

	// 11000.01 taxes the full first tier plus one cent at 12%, which rounds to 1100.00.
	pastBoundary := ComputeBracketTax(11000.01, 0, simpleTable)
	if pastBoundary != 1100.00 {
		t.Fatalf("ComputeBracketTax(11000.01) = %.4f, expected 1100.00", pastBoundary)
	}

	// A larger sliver makes the second tier visible: 1100 + 100 * 0.12.
	sliver := ComputeBracketTax(11100, 0, simpleTable)
	if sliver != 1112.00 {
		t.Fatalf("ComputeBracketTax(11100) = %.4f, expected 1112.00", sliver)
	}
}

func TestComputeBracketTaxMonotonic(t *testing.T) {
	table := DefaultSchedule().Brackets
	previous := 0.0
	for income := 0.0; income <= 1000000; income += 997.37 {
		got := ComputeBracketTax(income, 13850, table)
		if got < previous {
			t.Fatalf("tax decreased from %.2f to %.2f at income %.2f", previous, got, income)
		}
		previous = got
	}
}

func TestComputeBracketTaxInvalidInput(t *testing.T) {
	inputs := []float64{-5000, math.NaN(), math.Inf(1), math.Inf(-1)}
	for _, income := range inputs {
		if got := ComputeBracketTax(income, 0, simpleTable); got != 0 {
			t.Errorf("ComputeBracketTax(%v) = %v, expected 0", income, got)
		}
	}
}

func TestComputeBracketTaxDefaultTable(t *testing.T) {
	table := DefaultSchedule().Brackets
	tests := []struct {
		taxable  float64
		expected float64
	}{
		{182100, 1100 + 4047 + 11143 + 20814},
		{231250, 1100 + 4047 + 11143 + 20814 + 15728},
		{578125, 1100 + 4047 + 11143 + 20814 + 15728 + 121406.25},
		{1000000, 1100 + 4047 + 11143 + 20814 + 15728 + 121406.25 + 156093.75},
	}

	for _, tt := range tests {
		got := ComputeBracketTax(tt.taxable, 0, table)
		assertMoneyEquals(t, tt.expected, got, "default table")
	}
}

func TestBracketTableValidate(t *testing.T) {
	tests := []struct {
		name    string
		table   BracketTable
		wantErr bool
	}{
		{"Default table", DefaultSchedule().Brackets, false},
		{"Single unbounded bracket", BracketTable{{Lower: 0, Rate: 0.1}}, false},
		{"Infinite upper bound", BracketTable{{Lower: 0, Upper: 100, Rate: 0.1}, {Lower: 100, Upper: math.Inf(1), Rate: 0.2}}, false},
		{"Empty", BracketTable{}, true},
		{"Does not start at zero", BracketTable{{Lower: 10, Rate: 0.1}}, true},
		{"Gap", BracketTable{{Lower: 0, Upper: 100, Rate: 0.1}, {Lower: 200, Rate: 0.2}}, true},
		{"Overlap", BracketTable{{Lower: 0, Upper: 100, Rate: 0.1}, {Lower: 50, Rate: 0.2}}, true},
		{"Last bracket bounded", BracketTable{{Lower: 0, Upper: 100, Rate: 0.1}}, true},
		{"Unbounded in the middle", BracketTable{{Lower: 0, Rate: 0.1}, {Lower: 100, Rate: 0.2}}, true},
		{"Rate above one", BracketTable{{Lower: 0, Rate: 1.5}}, true},
		{"Negative rate", BracketTable{{Lower: 0, Rate: -0.1}}, true},
		{"Inverted bounds", BracketTable{{Lower: 0, Upper: 100, Rate: 0.1}, {Lower: 100, Upper: 50, Rate: 0.2}, {Lower: 50, Rate: 0.3}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.table.Validate()
			if tt.wantErr && err == nil {
				t.Errorf("Validate() expected error but got none")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Validate() unexpected error = %v", err)
			}
		})
	}
}

func TestMarginalRate(t *testing.T) {
	tests := []struct {
		taxable  float64
		expected float64
	}{
		{0, 0.10},
		{10999.99, 0.10},
		{11000, 0.12},
		{95375, 0.24},
		{5000000, 0.24},
	}
	for _, tt := range tests {
		if got := simpleTable.MarginalRate(tt.taxable); got != tt.expected {
			t.Errorf("MarginalRate(%v) = %v, expected %v", tt.taxable, got, tt.expected)
		}
	}
	if got := (BracketTable{}).MarginalRate(100); got != 0 {
		t.Errorf("MarginalRate on empty table = %v, expected 0", got)
	}
}
