// Package calculator runs one salary calculation through validation and the
// chosen computation path.
package calculator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iwvelando/take-home-pay/internal/authority"
	"github.com/iwvelando/take-home-pay/internal/cache"
	"github.com/iwvelando/take-home-pay/internal/metrics"
	"github.com/iwvelando/take-home-pay/internal/tax"
	"github.com/iwvelando/take-home-pay/pkg/constants"
	"github.com/iwvelando/take-home-pay/pkg/validation"
	"go.uber.org/zap"
)

// State is a step of a single calculation.
type State int

// Calculation states, in the order a successful run passes through them.
// Rejected and Failed end a run early.
const (
	Idle State = iota
	Validating
	Rejected
	Computing
	Failed
	Done
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Validating:
		return "validating"
	case Rejected:
		return "rejected"
	case Computing:
		return "computing"
	case Failed:
		return "failed"
	case Done:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Mode selects the computation path.
type Mode string

// Supported modes.
const (
	ModeLocal     Mode = constants.ModeLocal
	ModeDelegated Mode = constants.ModeDelegated
)

// ParseMode accepts local and delegated, and the client and server aliases.
func ParseMode(value string) (Mode, error) {
	mode, err := validation.NormalizeMode(value)
	if err != nil {
		return "", err
	}
	return Mode(mode), nil
}

// ErrNoAuthority is wrapped in the failure returned when delegated mode is
// requested from a calculator without an authority.
var ErrNoAuthority = errors.New("no tax authority configured")

// Result is a completed calculation.
type Result struct {
	Breakdown   tax.Breakdown   `json:"breakdown"`
	Percentages tax.Percentages `json:"percentages"`
	Mode        Mode            `json:"mode"`
	Warnings    []string        `json:"warnings,omitempty"`
	Cached      bool            `json:"cached"`
	Duration    time.Duration   `json:"duration"`
	Trace       []State         `json:"-"`
}

// Calculator computes breakdowns locally or through an authority.
// It holds no per-call state and is safe for concurrent use.
type Calculator struct {
	logger    *zap.Logger
	schedule  tax.Schedule
	authority authority.Authority
	cache     cache.Cache
	metrics   *metrics.Metrics
	now       func() time.Time
}

// Option configures a Calculator.
type Option func(*Calculator)

// WithAuthority enables delegated mode.
func WithAuthority(a authority.Authority) Option {
	return func(c *Calculator) { c.authority = a }
}

// WithCache caches delegated breakdowns.
func WithCache(store cache.Cache) Option {
	return func(c *Calculator) { c.cache = store }
}

// WithMetrics records calculation metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Calculator) { c.metrics = m }
}

// WithClock replaces time.Now for duration measurement.
func WithClock(now func() time.Time) Option {
	return func(c *Calculator) {
		if now != nil {
			c.now = now
		}
	}
}

// New creates a Calculator for the given schedule.
func New(logger *zap.Logger, schedule tax.Schedule, opts ...Option) *Calculator {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Calculator{
		logger:   logger,
		schedule: schedule.Normalize(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Schedule returns the schedule used for local computation and validation.
func (c *Calculator) Schedule() tax.Schedule {
	return c.schedule
}

// CanDelegate reports whether delegated mode is available.
func (c *Calculator) CanDelegate() bool {
	return c.authority != nil
}

// run tracks the state transitions of one calculation.
type run struct {
	logger *zap.Logger
	trace  []State
}

func (r *run) enter(s State) {
	r.trace = append(r.trace, s)
	r.logger.Debug("calculation state",
		zap.String("op", "calculator.Calculate"),
		zap.Stringer("state", s),
	)
}

// Calculate validates salary and computes its breakdown with the given mode.
// A salary above the threshold under the warn policy yields a result whose
// Warnings carry the message; every other validation failure is returned as
// an error with no result.
func (c *Calculator) Calculate(ctx context.Context, salary float64, mode Mode) (*Result, error) {
	start := c.now()
	r := &run{logger: c.logger.With(zap.String("mode", string(mode)), zap.Float64("salary", salary))}
	r.enter(Idle)

	if mode != ModeLocal && mode != ModeDelegated {
		return nil, fmt.Errorf("unsupported calculation mode %q", mode)
	}

	r.enter(Validating)
	var warnings []string
	if err := tax.ValidateSalary(salary, c.schedule); err != nil {
		if !tax.IsWarning(err) {
			r.enter(Rejected)
			c.metrics.ObserveCalculation(string(mode), metrics.OutcomeRejected, c.now().Sub(start))
			c.logger.Info("salary rejected",
				zap.String("op", "calculator.Calculate"),
				zap.Float64("salary", salary),
				zap.String("code", tax.ErrorCode(err)),
			)
			return nil, err
		}
		warnings = append(warnings, err.Error())
		c.logger.Warn("salary flagged",
			zap.String("op", "calculator.Calculate"),
			zap.Float64("salary", salary),
			zap.Error(err),
		)
	}

	r.enter(Computing)
	var (
		b      tax.Breakdown
		cached bool
		err    error
	)
	switch mode {
	case ModeLocal:
		b, err = tax.CalculateBreakdown(salary, c.schedule)
		if tax.IsWarning(err) {
			err = nil
		}
	case ModeDelegated:
		b, cached, err = c.delegate(ctx, salary)
	}
	if err != nil {
		r.enter(Failed)
		c.metrics.ObserveCalculation(string(mode), metrics.OutcomeFailed, c.now().Sub(start))
		return nil, err
	}

	r.enter(Done)
	elapsed := c.now().Sub(start)
	outcome := metrics.OutcomeOK
	if len(warnings) > 0 {
		outcome = metrics.OutcomeWarning
	}
	c.metrics.ObserveCalculation(string(mode), outcome, elapsed)

	return &Result{
		Breakdown:   b,
		Percentages: b.Percentages(),
		Mode:        mode,
		Warnings:    warnings,
		Cached:      cached,
		Duration:    elapsed,
		Trace:       r.trace,
	}, nil
}

// delegate asks the authority, going through the cache when one is set.
// Cache failures are logged and otherwise ignored.
func (c *Calculator) delegate(ctx context.Context, salary float64) (tax.Breakdown, bool, error) {
	if c.authority == nil {
		return tax.Breakdown{}, false, &tax.DelegationFailureError{Err: ErrNoAuthority}
	}

	key := cache.Key(c.schedule.Name, salary)
	if c.cache != nil {
		b, ok, err := c.cache.Get(ctx, key)
		switch {
		case err != nil:
			c.logger.Warn("cache lookup failed",
				zap.String("op", "calculator.delegate"),
				zap.String("key", key),
				zap.Error(err),
			)
		case ok:
			c.metrics.ObserveCacheLookup(true)
			return b, true, nil
		default:
			c.metrics.ObserveCacheLookup(false)
		}
	}

	b, err := c.authority.Calculate(ctx, salary)
	if err != nil {
		return tax.Breakdown{}, false, err
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, key, b); err != nil {
			c.logger.Warn("cache store failed",
				zap.String("op", "calculator.delegate"),
				zap.String("key", key),
				zap.Error(err),
			)
		}
	}
	return b, false, nil
}

// Comparison holds the local and delegated breakdowns for one salary.
type Comparison struct {
	Local         tax.Breakdown `json:"local"`
	Delegated     tax.Breakdown `json:"delegated"`
	Field         string        `json:"field"`
	MaxDifference float64       `json:"maxDifference"`
	Tolerance     float64       `json:"tolerance"`
}

// Equivalent reports whether every field agrees within the tolerance.
func (c Comparison) Equivalent() bool {
	return c.MaxDifference <= c.Tolerance
}

// Compare computes salary both ways and reports the largest field difference.
func (c *Calculator) Compare(ctx context.Context, salary float64) (*Comparison, error) {
	local, err := c.Calculate(ctx, salary, ModeLocal)
	if err != nil {
		return nil, err
	}
	delegated, err := c.Calculate(ctx, salary, ModeDelegated)
	if err != nil {
		return nil, err
	}

	cmp := &Comparison{
		Local:     local.Breakdown,
		Delegated: delegated.Breakdown,
		Tolerance: constants.CurrencyTolerance,
	}
	cmp.Field, cmp.MaxDifference = local.Breakdown.LargestDifference(delegated.Breakdown)

	if !cmp.Equivalent() {
		c.logger.Warn("local and delegated breakdowns disagree",
			zap.String("op", "calculator.Compare"),
			zap.Float64("salary", salary),
			zap.String("field", cmp.Field),
			zap.Float64("difference", cmp.MaxDifference),
		)
	}
	return cmp, nil
}
