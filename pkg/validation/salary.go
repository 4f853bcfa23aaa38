package validation

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseSalary reads a salary typed by a user. A leading dollar sign,
// thousands separators, underscores and surrounding whitespace are ignored.
// Range checks are left to the calculator.
func ParseSalary(input string) (float64, error) {
	cleaned := strings.TrimSpace(input)
	cleaned = strings.TrimPrefix(cleaned, "$")
	if strings.HasPrefix(cleaned, "-$") {
		cleaned = "-" + cleaned[2:]
	}
	cleaned = strings.NewReplacer(",", "", "_", "", " ", "").Replace(cleaned)
	if cleaned == "" {
		return 0, fmt.Errorf("salary is required")
	}

	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("salary %q is not a number", input)
	}
	return value, nil
}
