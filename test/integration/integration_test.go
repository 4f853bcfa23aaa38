package integration

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/iwvelando/take-home-pay/internal/authority"
	"github.com/iwvelando/take-home-pay/internal/calculator"
	"github.com/iwvelando/take-home-pay/internal/config"
	"github.com/iwvelando/take-home-pay/internal/tax"
	"github.com/iwvelando/take-home-pay/pkg/constants"
	"github.com/iwvelando/take-home-pay/pkg/output"
	"github.com/iwvelando/take-home-pay/pkg/testutil"
	"go.uber.org/zap"
)

// baselineSalaries covers bracket edges, the wage base and both ends of the range.
var baselineSalaries = []float64{0, 13850, 24850, 58575, 100000, 160200, 195950, 245100, 592000, 1000000}

// loadBaseline loads the shared test configuration and calculates every
// baseline salary locally, exactly as the calculate command does.
func loadBaseline(t *testing.T) (*config.Configuration, []tax.Breakdown) {
	t.Helper()

	conf, err := config.LoadConfiguration("../test_config.yaml")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	if err := conf.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	calc := calculator.New(zap.NewNop(), conf.Schedule)
	results := make([]tax.Breakdown, 0, len(baselineSalaries))
	for _, salary := range baselineSalaries {
		result, err := calc.Calculate(context.Background(), salary, calculator.ModeLocal)
		if err != nil {
			t.Fatalf("Calculate(%v) error = %v", salary, err)
		}
		results = append(results, result.Breakdown)
	}
	return conf, results
}

// TestMainIntegrationBaseline checks key figures against hand-computed values.
func TestMainIntegrationBaseline(t *testing.T) {
	_, results := loadBaseline(t)

	tests := []struct {
		salary         float64
		federalTax     float64
		socialSecurity float64
		medicare       float64
		takeHome       float64
	}{
		{salary: 0},
		{salary: 13850, socialSecurity: 858.7, medicare: 200.83, takeHome: 12790.47},
		{salary: 24850, federalTax: 1100, socialSecurity: 1540.7, medicare: 360.33, takeHome: 21848.97},
		{salary: 100000, federalTax: 14260.5, socialSecurity: 6200, medicare: 1450, takeHome: 78089.5},
		{salary: 160200, federalTax: 28524, socialSecurity: 9932.4, medicare: 2322.9, takeHome: 119420.7},
		{salary: 195950, federalTax: 37104, socialSecurity: 9932.4, medicare: 2841.28, takeHome: 146072.32},
	}

	for _, tt := range tests {
		b := testutil.FindBreakdown(results, tt.salary)
		if b == nil {
			t.Errorf("missing breakdown for salary %v", tt.salary)
			continue
		}
		expected := tax.Breakdown{
			Salary:            tt.salary,
			FederalTax:        tt.federalTax,
			SocialSecurityTax: tt.socialSecurity,
			MedicareTax:       tt.medicare,
			TotalTax:          b.TotalTax,
			TakeHomeYearly:    tt.takeHome,
			TakeHomeMonthly:   b.TakeHomeMonthly,
			TakeHomeBiWeekly:  b.TakeHomeBiWeekly,
			TakeHomeWeekly:    b.TakeHomeWeekly,
		}
		if field := testutil.BreakdownDiff(*b, expected, constants.CurrencyTolerance); field != "" {
			t.Errorf("salary %v: %s differs: got %+v", tt.salary, field, *b)
		}
	}
}

// TestBreakdownInvariants checks the relationships every breakdown must hold.
func TestBreakdownInvariants(t *testing.T) {
	_, results := loadBaseline(t)

	for _, b := range results {
		total := b.FederalTax + b.SocialSecurityTax + b.MedicareTax
		if diff := total - b.TotalTax; diff > constants.CurrencyTolerance || diff < -constants.CurrencyTolerance {
			t.Errorf("salary %v: total tax %v does not match components %v", b.Salary, b.TotalTax, total)
		}
		if diff := b.Salary - b.TotalTax - b.TakeHomeYearly; diff > constants.CurrencyTolerance || diff < -constants.CurrencyTolerance {
			t.Errorf("salary %v: take-home %v is not salary minus tax", b.Salary, b.TakeHomeYearly)
		}
		if b.SocialSecurityTax > 160200*0.062+constants.CurrencyTolerance {
			t.Errorf("salary %v: social security %v exceeds the wage base cap", b.Salary, b.SocialSecurityTax)
		}
		if b.TakeHomeYearly < 0 {
			t.Errorf("salary %v: negative take-home %v", b.Salary, b.TakeHomeYearly)
		}
	}
}

// TestCSVOutputFormat tests the CSV rendering of the baseline results
func TestCSVOutputFormat(t *testing.T) {
	_, results := loadBaseline(t)

	csv := output.CsvString(results)
	lines := strings.Split(strings.TrimSpace(csv), "\n")
	if len(lines) != len(results)+1 {
		t.Fatalf("expected %d lines, got %d", len(results)+1, len(lines))
	}
	if !strings.HasPrefix(lines[0], `"salary"`) {
		t.Errorf("unexpected header: %s", lines[0])
	}
	for i, line := range lines[1:] {
		if fields := strings.Count(line, ",") + 1; fields != 13 {
			t.Errorf("row %d has %d fields, expected 13", i, fields)
		}
	}
	expected := `"100000.00","14260.50","14.3","6200.00","6.2","1450.00","1.5","21910.50","21.9","78089.50","6507.46","3003.44","1501.72"`
	if lines[5] != expected {
		t.Errorf("row for 100000 = %s\nexpected %s", lines[5], expected)
	}
}

// TestPrettyOutputFormat checks the summary text.
func TestPrettyOutputFormat(t *testing.T) {
	_, results := loadBaseline(t)

	var buf bytes.Buffer
	if err := output.PrettyFormat(&buf, results); err != nil {
		t.Fatalf("PrettyFormat() error = %v", err)
	}
	text := buf.String()

	if got := strings.Count(text, "--- Take-home pay for "); got != len(results) {
		t.Errorf("expected %d sections, got %d", len(results), got)
	}
	if !strings.Contains(text, "--- Take-home pay for $100,000 ---") {
		t.Error("missing section for $100,000")
	}
}

// TestPdfOutputFormat checks that every breakdown renders into the PDF.
func TestPdfOutputFormat(t *testing.T) {
	conf, results := loadBaseline(t)

	data, err := output.PdfSummary(results, conf.Schedule.Name, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("PdfSummary() error = %v", err)
	}
	if !strings.HasPrefix(string(data), "%PDF") {
		t.Error("output is not a PDF")
	}
}

// TestDelegatedEndToEnd runs the delegated path against a live authority and
// checks it against the local path for every baseline salary.
func TestDelegatedEndToEnd(t *testing.T) {
	conf, local := loadBaseline(t)
	srv := testutil.NewAuthorityServer(t, conf.Schedule)

	client := authority.NewHTTPClient(zap.NewNop(), srv.URL, conf.Delegation.Timeout())
	calc := calculator.New(zap.NewNop(), conf.Schedule, calculator.WithAuthority(client))

	for _, salary := range baselineSalaries {
		result, err := calc.Calculate(context.Background(), salary, calculator.ModeDelegated)
		if err != nil {
			t.Fatalf("Calculate(%v) error = %v", salary, err)
		}
		expected := testutil.FindBreakdown(local, salary)
		if field := testutil.BreakdownDiff(result.Breakdown, *expected, constants.CurrencyTolerance); field != "" {
			t.Errorf("salary %v: delegated %s differs: %+v vs %+v", salary, field, result.Breakdown, *expected)
		}
	}
}

// TestConfigurationValidation tests validation of different configuration scenarios
func TestConfigurationValidation(t *testing.T) {
	tests := []struct {
		name        string
		setupConfig func() *config.Configuration
		expectError bool
		warning     string
	}{
		{
			name: "Shared test configuration",
			setupConfig: func() *config.Configuration {
				c, _ := config.LoadConfiguration("../test_config.yaml")
				return c
			},
		},
		{
			name: "Divergent 24% boundary",
			setupConfig: func() *config.Configuration {
				c := config.Default()
				c.Schedule.Brackets[3].Upper = 182050
				c.Schedule.Brackets[4].Lower = 182050
				return c
			},
			warning: "182050",
		},
		{
			name: "Overlapping brackets",
			setupConfig: func() *config.Configuration {
				c := config.Default()
				c.Schedule.Brackets[2].Lower = 40000
				return c
			},
			expectError: true,
		},
		{
			name: "Unknown mode",
			setupConfig: func() *config.Configuration {
				c := config.Default()
				c.Calculation.Mode = "remote"
				return c
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := tt.setupConfig()
			if c == nil {
				t.Fatal("configuration failed to load")
			}
			err := c.Validate()
			if tt.expectError {
				if err == nil {
					t.Error("expected validation error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected validation error: %v", err)
			}
			if tt.warning == "" {
				return
			}
			found := false
			for _, w := range c.ValidateConfiguration() {
				if strings.Contains(w, tt.warning) {
					found = true
				}
			}
			if !found {
				t.Errorf("expected a warning mentioning %s, got %v", tt.warning, c.ValidateConfiguration())
			}
		})
	}
}
