// Package config defines the data structures related to configuration and
// includes functions for loading and validating it.
package config

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/iwvelando/take-home-pay/internal/tax"
	"github.com/iwvelando/take-home-pay/pkg/constants"
	"github.com/iwvelando/take-home-pay/pkg/validation"
	"github.com/spf13/viper"
)

// Configuration holds all configuration for take-home-pay.
type Configuration struct {
	Schedule    tax.Schedule      `mapstructure:"schedule" yaml:"schedule"`
	Calculation CalculationConfig `mapstructure:"calculation" yaml:"calculation"`
	Delegation  DelegationConfig  `mapstructure:"delegation" yaml:"delegation"`
	Cache       CacheConfig       `mapstructure:"cache" yaml:"cache"`
	Database    DatabaseConfig    `mapstructure:"database" yaml:"database"`
	Kafka       KafkaConfig       `mapstructure:"kafka" yaml:"kafka"`
	Logging     LoggingConfig     `mapstructure:"logging" yaml:"logging,omitempty"`
	Output      OutputConfig      `mapstructure:"output" yaml:"output,omitempty"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `mapstructure:"level" yaml:"level,omitempty"`           // debug, info, warn, error
	Format     string `mapstructure:"format" yaml:"format,omitempty"`         // json, console
	OutputFile string `mapstructure:"outputFile" yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format,omitempty"` // pretty, csv, pdf
}

// CalculationConfig selects the default computation path.
type CalculationConfig struct {
	Mode           string `mapstructure:"mode" yaml:"mode"` // local, delegated
	DebounceMillis int    `mapstructure:"debounceMillis" yaml:"debounceMillis"`
}

// DelegationConfig points at the external tax-calculation authority.
type DelegationConfig struct {
	BaseURL        string `mapstructure:"baseURL" yaml:"baseURL"`
	APIKey         string `mapstructure:"apiKey" yaml:"apiKey,omitempty"`
	TimeoutSeconds int    `mapstructure:"timeoutSeconds" yaml:"timeoutSeconds"`
}

// CacheConfig configures the Redis cache for delegated breakdowns.
type CacheConfig struct {
	Enabled    bool   `mapstructure:"enabled" yaml:"enabled"`
	Address    string `mapstructure:"address" yaml:"address"`
	Password   string `mapstructure:"password" yaml:"password,omitempty"`
	DB         int    `mapstructure:"db" yaml:"db"`
	TTLSeconds int    `mapstructure:"ttlSeconds" yaml:"ttlSeconds"`
}

// DatabaseConfig configures the PostgreSQL record store. An empty DSN keeps
// records in memory.
type DatabaseConfig struct {
	DSN          string `mapstructure:"dsn" yaml:"dsn,omitempty"`
	MaxOpenConns int    `mapstructure:"maxOpenConns" yaml:"maxOpenConns"`
}

// KafkaConfig configures breakdown event publishing. No brokers disables publishing.
type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers" yaml:"brokers,omitempty"`
	Topic   string   `mapstructure:"topic" yaml:"topic"`
}

// Timeout returns the delegation timeout as a duration.
func (d DelegationConfig) Timeout() time.Duration {
	return time.Duration(d.TimeoutSeconds) * time.Second
}

// TTL returns the cache TTL as a duration.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// Debounce returns the interactive input coalescing delay.
func (c CalculationConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMillis) * time.Millisecond
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}

	return decode(v)
}

// LoadConfigurationFromReader loads a YAML-formatted configuration from r.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := newViper()

	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config data, %s", err)
	}

	return decode(v)
}

// Default returns the configuration used when no file is supplied.
func Default() *Configuration {
	conf, err := decode(newViper())
	if err != nil {
		// Defaults are static and always decode.
		panic(err)
	}
	return conf
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yml")
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("calculation.mode", "local")
	v.SetDefault("calculation.debounceMillis", constants.DefaultDebounceMillis)
	v.SetDefault("delegation.timeoutSeconds", constants.DefaultDelegationTimeoutSeconds)
	v.SetDefault("cache.ttlSeconds", constants.DefaultCacheTTLSeconds)
	v.SetDefault("database.maxOpenConns", 5)
	v.SetDefault("kafka.topic", constants.DefaultKafkaTopic)
	v.SetDefault("output.format", constants.OutputFormatPretty)
	setScheduleDefaults(v, tax.DefaultSchedule())
	return v
}

// setScheduleDefaults registers every scalar schedule key so a partial
// schedule section is layered over the default instead of replacing it.
// Brackets are a list and are filled in by decode when absent.
func setScheduleDefaults(v *viper.Viper, s tax.Schedule) {
	v.SetDefault("schedule.name", s.Name)
	v.SetDefault("schedule.year", s.Year)
	v.SetDefault("schedule.standardDeduction", s.StandardDeduction)
	v.SetDefault("schedule.highSalaryThreshold", s.HighSalaryThreshold)
	v.SetDefault("schedule.highSalaryPolicy", string(s.HighSalaryPolicy))
	for key, rule := range map[string]tax.PayrollTaxRule{
		"schedule.socialSecurity": s.SocialSecurity,
		"schedule.medicare":       s.Medicare,
	} {
		v.SetDefault(key+".name", rule.Name)
		v.SetDefault(key+".rate", rule.Rate)
		v.SetDefault(key+".wageBase", rule.WageBase)
	}
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}

	if len(configuration.Schedule.Brackets) == 0 {
		configuration.Schedule.Brackets = tax.DefaultSchedule().Brackets
	}
	configuration.Schedule = configuration.Schedule.Normalize()

	return &configuration, nil
}

// Validate returns an error for configuration that cannot be used.
func (c *Configuration) Validate() error {
	if err := c.Schedule.Validate(); err != nil {
		return err
	}
	if err := validation.ValidateOutputFormat(c.Output.Format); err != nil {
		return err
	}
	if err := validation.ValidateMode(c.Calculation.Mode); err != nil {
		return err
	}
	if c.Delegation.TimeoutSeconds < 0 {
		return fmt.Errorf("delegation timeout must not be negative, got %d", c.Delegation.TimeoutSeconds)
	}
	return nil
}

// ValidateConfiguration performs general validation of the configuration and returns warnings
func (c *Configuration) ValidateConfiguration() []string {
	validator := validation.ConfigValidator{
		Schedule: validation.ScheduleConfig{
			Name:              c.Schedule.Name,
			StandardDeduction: c.Schedule.StandardDeduction,
			SocialSecurityCap: c.Schedule.SocialSecurity.WageBase,
			MedicareCap:       c.Schedule.Medicare.WageBase,
		},
		Mode:            c.Calculation.Mode,
		DelegationURL:   c.Delegation.BaseURL,
		CacheEnabled:    c.Cache.Enabled,
		CacheAddress:    c.Cache.Address,
		DelegationLimit: c.Delegation.TimeoutSeconds,
	}
	for _, b := range c.Schedule.Brackets {
		validator.Schedule.Boundaries = append(validator.Schedule.Boundaries, b.Lower)
	}
	return validator.ValidateAll()
}
