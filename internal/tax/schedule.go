package tax

import (
	"fmt"
	"math"
	"strings"

	"github.com/iwvelando/take-home-pay/pkg/constants"
)

// Policy decides how an unusually high salary is treated.
type Policy string

const (
	// PolicyReject refuses to calculate salaries above the threshold.
	PolicyReject Policy = "reject"
	// PolicyWarn calculates the breakdown and reports the threshold breach as a warning.
	PolicyWarn Policy = "warn"
)

// ParsePolicy converts a configuration value into a Policy. Empty means reject.
func ParsePolicy(value string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(value))) {
	case "", PolicyReject:
		return PolicyReject, nil
	case PolicyWarn:
		return PolicyWarn, nil
	default:
		return "", fmt.Errorf("expected high salary policy of %s or %s, got %s", PolicyReject, PolicyWarn, value)
	}
}

// Schedule holds every rate and threshold the breakdown aggregator needs.
type Schedule struct {
	Name                string         `mapstructure:"name" yaml:"name" json:"name"`
	Year                int            `mapstructure:"year" yaml:"year" json:"year"`
	StandardDeduction   float64        `mapstructure:"standardDeduction" yaml:"standardDeduction" json:"standardDeduction"`
	Brackets            BracketTable   `mapstructure:"brackets" yaml:"brackets" json:"brackets"`
	SocialSecurity      PayrollTaxRule `mapstructure:"socialSecurity" yaml:"socialSecurity" json:"socialSecurity"`
	Medicare            PayrollTaxRule `mapstructure:"medicare" yaml:"medicare" json:"medicare"`
	HighSalaryThreshold float64        `mapstructure:"highSalaryThreshold" yaml:"highSalaryThreshold" json:"highSalaryThreshold"`
	HighSalaryPolicy    Policy         `mapstructure:"highSalaryPolicy" yaml:"highSalaryPolicy" json:"highSalaryPolicy"`
}

// DefaultSchedule returns the 2023 single-filer federal schedule.
func DefaultSchedule() Schedule {
	return Schedule{
		Name:              "us-federal-2023-single",
		Year:              2023,
		StandardDeduction: 13850,
		Brackets: BracketTable{
			{Lower: 0, Upper: 11000, Rate: 0.10},
			{Lower: 11000, Upper: 44725, Rate: 0.12},
			{Lower: 44725, Upper: 95375, Rate: 0.22},
			{Lower: 95375, Upper: 182100, Rate: 0.24},
			{Lower: 182100, Upper: 231250, Rate: 0.32},
			{Lower: 231250, Upper: 578125, Rate: 0.35},
			{Lower: 578125, Rate: 0.37},
		},
		SocialSecurity:      PayrollTaxRule{Name: "social security", Rate: 0.062, WageBase: 160200},
		Medicare:            PayrollTaxRule{Name: "medicare", Rate: 0.0145},
		HighSalaryThreshold: constants.DefaultHighSalaryThreshold,
		HighSalaryPolicy:    PolicyReject,
	}
}

// Validate checks the schedule for internal consistency.
func (s Schedule) Validate() error {
	if err := s.Brackets.Validate(); err != nil {
		return fmt.Errorf("schedule %q: %w", s.Name, err)
	}
	if math.IsNaN(s.StandardDeduction) || math.IsInf(s.StandardDeduction, 0) || s.StandardDeduction < 0 {
		return fmt.Errorf("schedule %q: standard deduction must be a non-negative amount, got %v", s.Name, s.StandardDeduction)
	}
	if err := s.SocialSecurity.Validate(); err != nil {
		return fmt.Errorf("schedule %q: %w", s.Name, err)
	}
	if err := s.Medicare.Validate(); err != nil {
		return fmt.Errorf("schedule %q: %w", s.Name, err)
	}
	if math.IsNaN(s.HighSalaryThreshold) || s.HighSalaryThreshold <= 0 {
		return fmt.Errorf("schedule %q: high salary threshold must be positive, got %v", s.Name, s.HighSalaryThreshold)
	}
	if _, err := ParsePolicy(string(s.HighSalaryPolicy)); err != nil {
		return fmt.Errorf("schedule %q: %w", s.Name, err)
	}
	return nil
}

// Normalize fills zero-valued thresholds and policies with their defaults.
// An infinite top bound is stored as zero so the schedule stays JSON-encodable.
func (s Schedule) Normalize() Schedule {
	if s.HighSalaryThreshold == 0 {
		s.HighSalaryThreshold = constants.DefaultHighSalaryThreshold
	}
	if policy, err := ParsePolicy(string(s.HighSalaryPolicy)); err == nil {
		s.HighSalaryPolicy = policy
	}
	if n := len(s.Brackets); n > 0 {
		brackets := make(BracketTable, n)
		copy(brackets, s.Brackets)
		if brackets[n-1].Unbounded() {
			brackets[n-1].Upper = 0
		}
		s.Brackets = brackets
	}
	return s
}
