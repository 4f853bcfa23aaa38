package tax

import (
	"errors"
	"fmt"
	"time"

	"github.com/iwvelando/take-home-pay/pkg/format"
)

// Error codes returned by Code() on every calculation error.
const (
	CodeInvalidSalary       = "invalid_salary"
	CodeNegativeSalary      = "negative_salary"
	CodeUnusuallyHighSalary = "unusually_high_salary"
	CodeDelegationFailure   = "delegation_failure"
	CodeDelegationTimeout   = "delegation_timeout"
)

// InvalidSalaryError is returned for NaN or infinite salaries.
type InvalidSalaryError struct {
	Salary float64
}

func (e *InvalidSalaryError) Error() string {
	return fmt.Sprintf("Salary must be a finite amount, got %v", e.Salary)
}

// Code returns the stable error code.
func (e *InvalidSalaryError) Code() string { return CodeInvalidSalary }

// NegativeSalaryError is returned for salaries below zero. It is always a hard rejection.
type NegativeSalaryError struct {
	Salary float64
}

func (e *NegativeSalaryError) Error() string {
	return "Salary cannot be negative"
}

// Code returns the stable error code.
func (e *NegativeSalaryError) Code() string { return CodeNegativeSalary }

// UnusuallyHighSalaryError flags salaries above the schedule's sanity ceiling.
// Whether it rejects the calculation depends on the schedule's HighSalaryPolicy.
type UnusuallyHighSalaryError struct {
	Salary    float64
	Threshold float64
	Policy    Policy
}

func (e *UnusuallyHighSalaryError) Error() string {
	if e.Threshold <= 0 {
		return "Salary amount seems unusually high"
	}
	return fmt.Sprintf("Salary amount seems unusually high (%s exceeds %s)",
		format.WholeCurrency(e.Salary), format.WholeCurrency(e.Threshold))
}

// Code returns the stable error code.
func (e *UnusuallyHighSalaryError) Code() string { return CodeUnusuallyHighSalary }

// DelegationFailureError reports a failed or malformed response from the tax authority.
type DelegationFailureError struct {
	Status int
	Err    error
}

func (e *DelegationFailureError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("tax authority returned status %d: %v", e.Status, e.Err)
	}
	return fmt.Sprintf("tax authority request failed: %v", e.Err)
}

func (e *DelegationFailureError) Unwrap() error { return e.Err }

// Code returns the stable error code.
func (e *DelegationFailureError) Code() string { return CodeDelegationFailure }

// DelegationTimeoutError reports a tax authority call that exceeded its allotted time.
type DelegationTimeoutError struct {
	Timeout time.Duration
	Err     error
}

func (e *DelegationTimeoutError) Error() string {
	if e.Timeout > 0 {
		return fmt.Sprintf("tax authority did not respond within %s", e.Timeout)
	}
	return "tax authority did not respond before the deadline"
}

func (e *DelegationTimeoutError) Unwrap() error { return e.Err }

// Code returns the stable error code.
func (e *DelegationTimeoutError) Code() string { return CodeDelegationTimeout }

// IsWarning reports whether err only flags the input and a breakdown was
// still produced, i.e. an UnusuallyHighSalaryError under the warn policy.
func IsWarning(err error) bool {
	var high *UnusuallyHighSalaryError
	return errors.As(err, &high) && high.Policy == PolicyWarn
}

// ErrorCode extracts the code of a calculation error, or "" for other errors.
func ErrorCode(err error) string {
	var coded interface{ Code() string }
	if errors.As(err, &coded) {
		return coded.Code()
	}
	return ""
}
