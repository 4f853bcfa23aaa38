// Package authority implements the delegated path: it asks an external
// tax-calculation authority for a salary breakdown over HTTP.
package authority

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/iwvelando/take-home-pay/internal/tax"
	"github.com/iwvelando/take-home-pay/pkg/constants"
	"go.uber.org/zap"
)

// maxResponseBytes bounds how much of an authority response is read.
const maxResponseBytes = 1 << 20

// Authority computes a breakdown for a salary somewhere other than in-process.
type Authority interface {
	Calculate(ctx context.Context, salary float64) (tax.Breakdown, error)
}

// Request is the body posted to the authority.
type Request struct {
	Salary float64 `json:"salary"`
}

// Response is the authority's breakdown. Absent fields decode as nil and are
// read as zero.
type Response struct {
	FederalTax        *float64 `json:"federalTax"`
	SocialSecurityTax *float64 `json:"socialSecurityTax"`
	MedicareTax       *float64 `json:"medicareTax"`
	TotalTax          *float64 `json:"totalTax"`
	TakeHomeYearly    *float64 `json:"takeHomeYearly"`
	TakeHomeMonthly   *float64 `json:"takeHomeMonthly"`
	TakeHomeBiWeekly  *float64 `json:"takeHomeBiWeekly"`
	TakeHomeWeekly    *float64 `json:"takeHomeWeekly"`
}

// Breakdown converts the response into a breakdown for salary.
func (r Response) Breakdown(salary float64) tax.Breakdown {
	return tax.Breakdown{
		Salary:            salary,
		FederalTax:        orZero(r.FederalTax),
		SocialSecurityTax: orZero(r.SocialSecurityTax),
		MedicareTax:       orZero(r.MedicareTax),
		TotalTax:          orZero(r.TotalTax),
		TakeHomeYearly:    orZero(r.TakeHomeYearly),
		TakeHomeMonthly:   orZero(r.TakeHomeMonthly),
		TakeHomeBiWeekly:  orZero(r.TakeHomeBiWeekly),
		TakeHomeWeekly:    orZero(r.TakeHomeWeekly),
	}
}

// NewResponse wraps a breakdown in the wire shape.
func NewResponse(b tax.Breakdown) Response {
	return Response{
		FederalTax:        &b.FederalTax,
		SocialSecurityTax: &b.SocialSecurityTax,
		MedicareTax:       &b.MedicareTax,
		TotalTax:          &b.TotalTax,
		TakeHomeYearly:    &b.TakeHomeYearly,
		TakeHomeMonthly:   &b.TakeHomeMonthly,
		TakeHomeBiWeekly:  &b.TakeHomeBiWeekly,
		TakeHomeWeekly:    &b.TakeHomeWeekly,
	}
}

func orZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// errorBody is the JSON error shape returned by the authority endpoint.
type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HTTPClient calls the authority endpoint over HTTP. It is safe for concurrent use.
type HTTPClient struct {
	logger   *zap.Logger
	endpoint string
	apiKey   string
	timeout  time.Duration
	client   *http.Client
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *HTTPClient) {
		if client != nil {
			c.client = client
		}
	}
}

// WithAPIKey sends key as a bearer token on every request.
func WithAPIKey(key string) Option {
	return func(c *HTTPClient) { c.apiKey = key }
}

// NewHTTPClient builds a client for the authority at baseURL. A zero timeout
// leaves calls bounded only by the caller's context.
func NewHTTPClient(logger *zap.Logger, baseURL string, timeout time.Duration, opts ...Option) *HTTPClient {
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &HTTPClient{
		logger:   logger,
		endpoint: strings.TrimRight(baseURL, "/") + constants.AuthorityPath,
		timeout:  timeout,
		client:   &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the URL requests are posted to.
func (c *HTTPClient) Endpoint() string {
	return c.endpoint
}

// Calculate posts the salary to the authority and decodes its breakdown.
// No retries are attempted.
func (c *HTTPClient) Calculate(ctx context.Context, salary float64) (tax.Breakdown, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	body, err := json.Marshal(Request{Salary: salary})
	if err != nil {
		return tax.Breakdown{}, &tax.DelegationFailureError{Err: fmt.Errorf("encoding request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return tax.Breakdown{}, &tax.DelegationFailureError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return tax.Breakdown{}, c.classify(ctx, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Warn("failed to close authority response body",
				zap.String("op", "authority.Calculate"),
				zap.Error(closeErr),
			)
		}
	}()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return tax.Breakdown{}, c.classify(ctx, err)
	}

	c.logger.Debug("authority responded",
		zap.String("op", "authority.Calculate"),
		zap.String("endpoint", c.endpoint),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return tax.Breakdown{}, statusError(resp.StatusCode, data, salary)
	}

	var decoded Response
	if err := json.Unmarshal(data, &decoded); err != nil {
		return tax.Breakdown{}, &tax.DelegationFailureError{
			Status: resp.StatusCode,
			Err:    fmt.Errorf("malformed response: %w", err),
		}
	}

	return decoded.Breakdown(salary), nil
}

// classify maps a transport error onto a timeout or a failure.
func (c *HTTPClient) classify(ctx context.Context, err error) error {
	var netErr net.Error
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) ||
		(errors.As(err, &netErr) && netErr.Timeout()) {
		c.logger.Warn("authority call timed out",
			zap.String("op", "authority.Calculate"),
			zap.String("endpoint", c.endpoint),
			zap.Duration("timeout", c.timeout),
		)
		return &tax.DelegationTimeoutError{Timeout: c.timeout, Err: err}
	}

	c.logger.Warn("authority call failed",
		zap.String("op", "authority.Calculate"),
		zap.String("endpoint", c.endpoint),
		zap.Error(err),
	)
	return &tax.DelegationFailureError{Err: err}
}

// statusError rebuilds the authority's validation errors so both paths reject
// the same input the same way. Everything else is a delegation failure.
func statusError(status int, data []byte, salary float64) error {
	var body errorBody
	if err := json.Unmarshal(data, &body); err != nil || body.Error == "" {
		text := strings.TrimSpace(string(data))
		if text == "" {
			text = http.StatusText(status)
		}
		return &tax.DelegationFailureError{Status: status, Err: errors.New(text)}
	}

	switch body.Code {
	case tax.CodeNegativeSalary:
		return &tax.NegativeSalaryError{Salary: salary}
	case tax.CodeInvalidSalary:
		return &tax.InvalidSalaryError{Salary: salary}
	case tax.CodeUnusuallyHighSalary:
		return &tax.UnusuallyHighSalaryError{Salary: salary, Policy: tax.PolicyReject}
	}
	return &tax.DelegationFailureError{Status: status, Err: errors.New(body.Error)}
}
