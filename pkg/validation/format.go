// Package validation provides common validation utilities.
package validation

import (
	"fmt"
	"strings"

	"github.com/iwvelando/take-home-pay/pkg/constants"
)

// ValidateOutputFormat checks if the output format is one of the supported formats.
func ValidateOutputFormat(format string) error {
	switch format {
	case constants.OutputFormatPretty, constants.OutputFormatCSV, constants.OutputFormatPDF:
		return nil
	}
	return fmt.Errorf("expected output format of %s, %s or %s, got %s",
		constants.OutputFormatPretty, constants.OutputFormatCSV, constants.OutputFormatPDF, format)
}

// NormalizeMode maps a calculation mode, including the client and server
// aliases, onto local or delegated.
func NormalizeMode(mode string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case constants.ModeLocal, "client":
		return constants.ModeLocal, nil
	case constants.ModeDelegated, "server":
		return constants.ModeDelegated, nil
	}
	return "", fmt.Errorf("expected calculation mode of %s or %s, got %s",
		constants.ModeLocal, constants.ModeDelegated, mode)
}

// ValidateMode checks if the calculation mode is supported.
func ValidateMode(mode string) error {
	_, err := NormalizeMode(mode)
	return err
}
