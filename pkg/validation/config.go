// Package validation provides configuration validation utilities.
package validation

import (
	"fmt"

	"github.com/iwvelando/take-home-pay/pkg/constants"
)

// ValidateBoundaries flags bracket boundaries that match a known mistyped
// copy of a published boundary.
func ValidateBoundaries(scheduleName string, boundaries []float64) []string {
	var warnings []string
	for _, b := range boundaries {
		if b == constants.DivergentUpperBoundary {
			warnings = append(warnings, fmt.Sprintf("Schedule '%s' uses bracket boundary %.0f; the published boundary is %.0f",
				scheduleName, b, constants.PublishedUpperBoundary))
		}
	}
	return warnings
}

// ValidatePayrollCaps checks that social security is capped and medicare is not.
func ValidatePayrollCaps(scheduleName string, socialSecurityCap, medicareCap float64) []string {
	var warnings []string

	if socialSecurityCap == 0 {
		warnings = append(warnings, fmt.Sprintf("Schedule '%s' has no social security wage base; the tax will apply to the whole salary",
			scheduleName))
	}

	if medicareCap != 0 {
		warnings = append(warnings, fmt.Sprintf("Schedule '%s' caps medicare wages at %.2f; medicare is normally uncapped",
			scheduleName, medicareCap))
	}

	return warnings
}

// ConfigValidator performs comprehensive configuration validation
type ConfigValidator struct {
	Schedule        ScheduleConfig
	Mode            string
	DelegationURL   string
	DelegationLimit int
	CacheEnabled    bool
	CacheAddress    string
}

// ScheduleConfig carries the schedule fields worth a sanity check.
type ScheduleConfig struct {
	Name              string
	StandardDeduction float64
	Boundaries        []float64
	SocialSecurityCap float64
	MedicareCap       float64
}

// ValidateAll validates the entire configuration and returns warnings
func (cv *ConfigValidator) ValidateAll() []string {
	var warnings []string

	warnings = append(warnings, ValidateBoundaries(cv.Schedule.Name, cv.Schedule.Boundaries)...)
	warnings = append(warnings, ValidatePayrollCaps(cv.Schedule.Name, cv.Schedule.SocialSecurityCap, cv.Schedule.MedicareCap)...)

	if cv.Schedule.StandardDeduction == 0 {
		warnings = append(warnings, fmt.Sprintf("Schedule '%s' has no standard deduction", cv.Schedule.Name))
	}

	mode, err := NormalizeMode(cv.Mode)
	if err == nil && mode == constants.ModeDelegated && cv.DelegationURL == "" {
		warnings = append(warnings, "Calculation mode is delegated but no delegation baseURL is set")
	}

	if cv.DelegationURL != "" && cv.DelegationLimit == 0 {
		warnings = append(warnings, "Delegation timeout is 0; delegated calls will not be bounded")
	}

	if cv.CacheEnabled && cv.CacheAddress == "" {
		warnings = append(warnings, "Cache is enabled but no address is set; the in-memory cache will be used")
	}

	return warnings
}
