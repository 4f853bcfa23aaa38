// Package constants provides shared constants for the take-home-pay application.
package constants

// Financial constants
const (
	// MonthsPerYear is the number of monthly pay periods in a year
	MonthsPerYear = 12

	// HalfYearsPerYear is the number of six-month periods in a year
	HalfYearsPerYear = 2

	// BiWeeklyPeriodsPerYear is the number of bi-weekly pay periods in a year
	BiWeeklyPeriodsPerYear = 26

	// WeeksPerYear is the number of weekly pay periods in a year
	WeeksPerYear = 52

	// DecimalPrecision is the precision for currency rounding (2 decimal places)
	DecimalPrecision = 100

	// CurrencyPlaces is the number of decimal places kept for tax amounts
	CurrencyPlaces = 2

	// PercentagePlaces is the number of decimal places kept for percentages
	PercentagePlaces = 1

	// DefaultHighSalaryThreshold is the salary above which input is flagged as unusual
	DefaultHighSalaryThreshold = 10000000.0
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatPDF is the PDF summary output format
	OutputFormatPDF = "pdf"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"

	// EnvPrefix is the prefix for environment overrides of configuration keys
	EnvPrefix = "TAKEHOME"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address
	DefaultServerAddress = ":8080"

	// DefaultMaxBodySizeBytes is the default maximum request body size (64 KB)
	DefaultMaxBodySizeBytes int64 = 64 * 1024

	// DefaultRequestsPerSecond is the default per-client request rate
	DefaultRequestsPerSecond = 20.0

	// DefaultBurst is the default per-client request burst
	DefaultBurst = 40

	// AuthorityPath is the path of the delegated tax-calculation endpoint
	AuthorityPath = "/api/v1/salary-breakdown"
)

// Delegation, cache and debounce defaults
const (
	// DefaultDelegationTimeoutSeconds bounds a delegated calculation
	DefaultDelegationTimeoutSeconds = 10

	// DefaultCacheTTLSeconds is how long delegated breakdowns are cached
	DefaultCacheTTLSeconds = 300

	// DefaultDebounceMillis is the input coalescing delay for interactive use
	DefaultDebounceMillis = 300

	// DefaultKafkaTopic is the topic breakdown events are published to
	DefaultKafkaTopic = "salary-breakdowns"
)

// Validation constants
const (
	// CurrencyTolerance is the tolerance for currency comparisons (1 cent)
	CurrencyTolerance = 0.01

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0
)

// Calculation modes
const (
	// ModeLocal computes the breakdown in-process
	ModeLocal = "local"

	// ModeDelegated asks the tax-calculation authority for the breakdown
	ModeDelegated = "delegated"

	// PublishedUpperBoundary is the published 2023 single-filer 24%/32% boundary
	PublishedUpperBoundary = 182100.0

	// DivergentUpperBoundary is a mistyped copy of the 24%/32% boundary seen in the wild
	DivergentUpperBoundary = 182050.0
)
