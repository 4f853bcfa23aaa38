package tax

import (
	"math"

	"github.com/iwvelando/take-home-pay/pkg/constants"
	"github.com/iwvelando/take-home-pay/pkg/mathutil"
	"github.com/shopspring/decimal"
)

// Breakdown is the take-home-pay result for one gross annual salary.
// Tax fields are rounded to cents; the per-period take-home figures are plain
// divisions of TakeHomeYearly and are only rounded for display.
type Breakdown struct {
	Salary            float64 `json:"salary"`
	FederalTax        float64 `json:"federalTax"`
	SocialSecurityTax float64 `json:"socialSecurityTax"`
	MedicareTax       float64 `json:"medicareTax"`
	TotalTax          float64 `json:"totalTax"`
	TakeHomeYearly    float64 `json:"takeHomeYearly"`
	TakeHomeMonthly   float64 `json:"takeHomeMonthly"`
	TakeHomeBiWeekly  float64 `json:"takeHomeBiWeekly"`
	TakeHomeWeekly    float64 `json:"takeHomeWeekly"`
}

// Percentages expresses each tax as a share of salary, to one decimal place.
type Percentages struct {
	FederalTax     float64 `json:"federalTax"`
	SocialSecurity float64 `json:"socialSecurity"`
	Medicare       float64 `json:"medicare"`
	Total          float64 `json:"total"`
}

// Percentages computes the share of salary taken by each tax. A zero salary
// yields zero for every share.
func (b Breakdown) Percentages() Percentages {
	if b.Salary <= 0 || !mathutil.IsFinite(b.Salary) {
		return Percentages{}
	}
	return Percentages{
		FederalTax:     share(b.FederalTax, b.Salary),
		SocialSecurity: share(b.SocialSecurityTax, b.Salary),
		Medicare:       share(b.MedicareTax, b.Salary),
		Total:          share(b.TotalTax, b.Salary),
	}
}

// WithPeriods derives the per-period take-home figures from TakeHomeYearly.
func (b Breakdown) WithPeriods() Breakdown {
	b.TakeHomeMonthly = b.TakeHomeYearly / constants.MonthsPerYear
	b.TakeHomeBiWeekly = b.TakeHomeYearly / constants.BiWeeklyPeriodsPerYear
	b.TakeHomeWeekly = b.TakeHomeYearly / constants.WeeksPerYear
	return b
}

// TakeHomeSixMonth is half of TakeHomeYearly. It is derived on demand rather
// than stored so the wire format stays the authority's.
func (b Breakdown) TakeHomeSixMonth() float64 {
	return b.TakeHomeYearly / constants.HalfYearsPerYear
}

// LargestDifference returns the field in which b and other differ most, and
// by how much.
func (b Breakdown) LargestDifference(other Breakdown) (string, float64) {
	fields := []struct {
		name string
		a, b float64
	}{
		{"salary", b.Salary, other.Salary},
		{"federalTax", b.FederalTax, other.FederalTax},
		{"socialSecurityTax", b.SocialSecurityTax, other.SocialSecurityTax},
		{"medicareTax", b.MedicareTax, other.MedicareTax},
		{"totalTax", b.TotalTax, other.TotalTax},
		{"takeHomeYearly", b.TakeHomeYearly, other.TakeHomeYearly},
		{"takeHomeMonthly", b.TakeHomeMonthly, other.TakeHomeMonthly},
		{"takeHomeBiWeekly", b.TakeHomeBiWeekly, other.TakeHomeBiWeekly},
		{"takeHomeWeekly", b.TakeHomeWeekly, other.TakeHomeWeekly},
	}

	field, largest := "", 0.0
	for _, f := range fields {
		if d := math.Abs(f.a - f.b); d > largest || field == "" {
			field, largest = f.name, d
		}
	}
	return field, largest
}

// ValidateSalary checks a salary against the schedule. Under the warn policy a
// salary above the threshold still returns an *UnusuallyHighSalaryError; use
// IsWarning to tell it apart from a rejection.
func ValidateSalary(salary float64, schedule Schedule) error {
	if !mathutil.IsFinite(salary) {
		return &InvalidSalaryError{Salary: salary}
	}
	if salary < 0 {
		return &NegativeSalaryError{Salary: salary}
	}

	threshold := schedule.HighSalaryThreshold
	if threshold <= 0 {
		threshold = constants.DefaultHighSalaryThreshold
	}
	if salary > threshold {
		policy, err := ParsePolicy(string(schedule.HighSalaryPolicy))
		if err != nil {
			policy = PolicyReject
		}
		return &UnusuallyHighSalaryError{Salary: salary, Threshold: threshold, Policy: policy}
	}
	return nil
}

// CalculateBreakdown computes the full take-home breakdown for salary. When the
// returned error satisfies IsWarning the breakdown is populated and usable;
// any other error means no breakdown was computed.
func CalculateBreakdown(salary float64, schedule Schedule) (Breakdown, error) {
	validationErr := ValidateSalary(salary, schedule)
	if validationErr != nil && !IsWarning(validationErr) {
		return Breakdown{}, validationErr
	}

	if salary == 0 {
		return Breakdown{}, nil
	}

	federal := ComputeBracketTax(salary, schedule.StandardDeduction, schedule.Brackets)
	socialSecurity := ComputeFlatTax(salary, schedule.SocialSecurity)
	medicare := ComputeFlatTax(salary, schedule.Medicare)

	total := money(federal).Add(money(socialSecurity)).Add(money(medicare))
	yearly := money(salary).Sub(total)

	b := Breakdown{
		Salary:            salary,
		FederalTax:        federal,
		SocialSecurityTax: socialSecurity,
		MedicareTax:       medicare,
		TotalTax:          total.InexactFloat64(),
		TakeHomeYearly:    yearly.InexactFloat64(),
	}
	return b.WithPeriods(), validationErr
}

func share(amount, salary float64) float64 {
	if !mathutil.IsFinite(amount) {
		return 0
	}
	pct := money(amount).Div(money(salary)).Mul(decimal.NewFromInt(constants.PercentageMultiplier))
	return pct.Round(constants.PercentagePlaces).InexactFloat64()
}
