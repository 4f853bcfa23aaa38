// Package server exposes the calculator over HTTP, including the tax
// authority endpoint that delegated calculators call.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/iwvelando/take-home-pay/internal/authority"
	"github.com/iwvelando/take-home-pay/internal/calculator"
	"github.com/iwvelando/take-home-pay/internal/metrics"
	"github.com/iwvelando/take-home-pay/internal/record"
	"github.com/iwvelando/take-home-pay/internal/tax"
	"github.com/iwvelando/take-home-pay/pkg/constants"
	"github.com/iwvelando/take-home-pay/pkg/format"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Error codes for failures that are not calculation errors.
const (
	codeBadRequest  = "bad_request"
	codeNotFound    = "not_found"
	codeInternal    = "internal"
	codeRateLimited = "rate_limited"
)

type handler struct {
	logger      *zap.Logger
	svc         *calculator.Service
	maxBodySize int64
	version     string
	metrics     *metrics.Metrics
	limiters    *limiterStore
}

// Options tunes the HTTP handler.
type Options struct {
	MaxBodySize       int64
	Version           string
	Metrics           *metrics.Metrics
	RequestsPerSecond float64 // 0 disables rate limiting
	Burst             int
}

// NewHandler constructs the HTTP handler that serves the calculation API.
func NewHandler(logger *zap.Logger, svc *calculator.Service, opts Options) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	maxBodySize := opts.MaxBodySize
	if maxBodySize <= 0 {
		maxBodySize = constants.DefaultMaxBodySizeBytes
	}

	trimmedVersion := strings.TrimSpace(opts.Version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	h := &handler{
		logger:      logger,
		svc:         svc,
		maxBodySize: maxBodySize,
		version:     trimmedVersion,
		metrics:     opts.Metrics,
	}
	if opts.RequestsPerSecond > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = constants.DefaultBurst
		}
		h.limiters = newLimiterStore(opts.RequestsPerSecond, burst)
	}

	mux := http.NewServeMux()

	// Authority endpoint used by delegated calculators
	mux.Handle(constants.AuthorityPath, h.instrument(constants.AuthorityPath, h.handleAuthority))

	// Calculation endpoint for interactive clients
	mux.Handle("/api/calculate", h.instrument("/api/calculate", h.handleCalculate))

	// Active schedule, as JSON or YAML
	mux.Handle("/api/schedule", h.instrument("/api/schedule", h.handleSchedule))

	// Stored job application records
	mux.Handle("/api/records/{id}", h.instrument("/api/records/{id}", h.handleRecord))

	// Version endpoint for client metadata
	mux.HandleFunc("/api/version", h.handleVersion)

	mux.HandleFunc("/healthz", h.handleHealth)

	if h.metrics != nil {
		mux.Handle("/metrics", h.metrics.Handler())
	}

	return h.rateLimit(mux)
}

type salaryRequest struct {
	Salary *float64 `json:"salary"`
	Mode   string   `json:"mode,omitempty"`
}

type calculateResponse struct {
	Breakdown   tax.Breakdown      `json:"breakdown"`
	Percentages tax.Percentages    `json:"percentages"`
	Formatted   formattedBreakdown `json:"formatted"`
	Mode        calculator.Mode    `json:"mode"`
	Warnings    []string           `json:"warnings,omitempty"`
	Cached      bool               `json:"cached"`
	Duration    string             `json:"duration"`
}

// formattedBreakdown carries display strings: whole dollars and one-place percentages.
type formattedBreakdown struct {
	Salary                string `json:"salary"`
	FederalTax            string `json:"federalTax"`
	SocialSecurityTax     string `json:"socialSecurityTax"`
	MedicareTax           string `json:"medicareTax"`
	TotalTax              string `json:"totalTax"`
	TakeHomeYearly        string `json:"takeHomeYearly"`
	TakeHomeSixMonth      string `json:"takeHomeSixMonth"`
	TakeHomeMonthly       string `json:"takeHomeMonthly"`
	TakeHomeBiWeekly      string `json:"takeHomeBiWeekly"`
	TakeHomeWeekly        string `json:"takeHomeWeekly"`
	FederalTaxPercent     string `json:"federalTaxPercent"`
	SocialSecurityPercent string `json:"socialSecurityPercent"`
	MedicarePercent       string `json:"medicarePercent"`
	TotalPercent          string `json:"totalPercent"`
}

func formatBreakdown(b tax.Breakdown, p tax.Percentages) formattedBreakdown {
	return formattedBreakdown{
		Salary:                format.WholeCurrency(b.Salary),
		FederalTax:            format.WholeCurrency(b.FederalTax),
		SocialSecurityTax:     format.WholeCurrency(b.SocialSecurityTax),
		MedicareTax:           format.WholeCurrency(b.MedicareTax),
		TotalTax:              format.WholeCurrency(b.TotalTax),
		TakeHomeYearly:        format.WholeCurrency(b.TakeHomeYearly),
		TakeHomeSixMonth:      format.WholeCurrency(b.TakeHomeSixMonth()),
		TakeHomeMonthly:       format.WholeCurrency(b.TakeHomeMonthly),
		TakeHomeBiWeekly:      format.WholeCurrency(b.TakeHomeBiWeekly),
		TakeHomeWeekly:        format.WholeCurrency(b.TakeHomeWeekly),
		FederalTaxPercent:     format.Percentage(p.FederalTax),
		SocialSecurityPercent: format.Percentage(p.SocialSecurity),
		MedicarePercent:       format.Percentage(p.Medicare),
		TotalPercent:          format.Percentage(p.Total),
	}
}

func newCalculateResponse(result *calculator.Result) calculateResponse {
	return calculateResponse{
		Breakdown:   result.Breakdown,
		Percentages: result.Percentages,
		Formatted:   formatBreakdown(result.Breakdown, result.Percentages),
		Mode:        result.Mode,
		Warnings:    result.Warnings,
		Cached:      result.Cached,
		Duration:    result.Duration.String(),
	}
}

// recordResponse carries a stored record. Formatted is rebuilt from the stored
// figures when a fetched record already has a breakdown.
type recordResponse struct {
	Record    record.Record       `json:"record"`
	Updated   bool                `json:"updated"`
	Result    *calculateResponse  `json:"result,omitempty"`
	Formatted *formattedBreakdown `json:"formatted,omitempty"`
}

// handleAuthority computes the breakdown locally and returns it in the wire
// shape delegated calculators decode.
func (h *handler) handleAuthority(w http.ResponseWriter, r *http.Request) int {
	const op = "server.handleAuthority"
	if r.Method != http.MethodPost {
		return h.methodNotAllowed(w)
	}

	req, status := h.decodeSalary(w, r, op)
	if status != 0 {
		return status
	}

	result, err := h.svc.Calculator().Calculate(r.Context(), *req.Salary, calculator.ModeLocal)
	if err != nil {
		return h.respondCalculationError(w, err, op)
	}

	h.logger.Debug("authority breakdown served",
		zap.String("op", op),
		zap.Float64("salary", *req.Salary),
	)
	return h.writeJSON(w, http.StatusOK, authority.NewResponse(result.Breakdown))
}

func (h *handler) handleCalculate(w http.ResponseWriter, r *http.Request) int {
	const op = "server.handleCalculate"
	if r.Method != http.MethodPost {
		return h.methodNotAllowed(w)
	}

	req, status := h.decodeSalary(w, r, op)
	if status != 0 {
		return status
	}

	mode, err := h.resolveMode(req.Mode)
	if err != nil {
		return h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), codeBadRequest, op)
	}

	result, err := h.svc.Calculator().Calculate(r.Context(), *req.Salary, mode)
	if err != nil {
		return h.respondCalculationError(w, err, op)
	}

	h.logger.Info("breakdown computed",
		zap.String("op", op),
		zap.String("mode", string(result.Mode)),
		zap.Bool("cached", result.Cached),
		zap.Duration("duration", result.Duration),
	)
	return h.writeJSON(w, http.StatusOK, newCalculateResponse(result))
}

func (h *handler) handleSchedule(w http.ResponseWriter, r *http.Request) int {
	const op = "server.handleSchedule"
	if r.Method != http.MethodGet {
		return h.methodNotAllowed(w)
	}

	schedule := h.svc.Calculator().Schedule()
	if strings.EqualFold(r.URL.Query().Get("format"), "yaml") {
		data, err := yaml.Marshal(schedule)
		if err != nil {
			return h.respondErrorWithOp(w, http.StatusInternalServerError,
				fmt.Sprintf("failed to encode schedule: %v", err), codeInternal, op)
		}
		w.Header().Set("Content-Type", "application/yaml")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(data); err != nil {
			h.logger.Error("failed to write YAML response", zap.String("op", op), zap.Error(err))
		}
		return http.StatusOK
	}

	return h.writeJSON(w, http.StatusOK, schedule)
}

func (h *handler) handleRecord(w http.ResponseWriter, r *http.Request) int {
	const op = "server.handleRecord"
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		return h.respondErrorWithOp(w, http.StatusBadRequest, "record ID is required", codeBadRequest, op)
	}

	switch r.Method {
	case http.MethodGet:
		rec, updated, err := h.svc.SyncRecord(r.Context(), id)
		if err != nil {
			return h.respondCalculationError(w, err, op)
		}
		resp := recordResponse{Record: rec, Updated: updated}
		if rec.Salary > 0 && !rec.NeedsBreakdown() {
			b := rec.Breakdown()
			formatted := formatBreakdown(b, b.Percentages())
			resp.Formatted = &formatted
		}
		return h.writeJSON(w, http.StatusOK, resp)

	case http.MethodPut:
		req, status := h.decodeSalary(w, r, op)
		if status != 0 {
			return status
		}
		var mode calculator.Mode
		if req.Mode != "" {
			parsed, err := calculator.ParseMode(req.Mode)
			if err != nil {
				return h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), codeBadRequest, op)
			}
			mode = parsed
		}

		rec, result, err := h.svc.SaveRecord(r.Context(), id, *req.Salary, mode)
		if err != nil {
			return h.respondCalculationError(w, err, op)
		}
		resp := newCalculateResponse(result)
		return h.writeJSON(w, http.StatusOK, recordResponse{Record: rec, Updated: true, Result: &resp})

	default:
		return h.methodNotAllowed(w)
	}
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"status":   "healthy",
		"schedule": h.svc.Calculator().Schedule().Name,
	})
}

// instrument adapts a status-returning handler and records its outcome.
func (h *handler) instrument(path string, fn func(http.ResponseWriter, *http.Request) int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		status := fn(w, r)
		h.metrics.ObserveRequest(path, status)
		h.logger.Debug("request served",
			zap.String("op", "server.instrument"),
			zap.String("path", path),
			zap.String("method", r.Method),
			zap.Int("status", status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

// decodeSalary reads a salary request body. A non-zero status means an error
// response has already been written.
func (h *handler) decodeSalary(w http.ResponseWriter, r *http.Request, op string) (salaryRequest, int) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)

	var req salaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return req, h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request exceeds limit of %d bytes", h.maxBodySize), codeBadRequest, op)
		}
		return req, h.respondErrorWithOp(w, http.StatusBadRequest,
			fmt.Sprintf("failed to decode request: %v", err), codeBadRequest, op)
	}
	if req.Salary == nil {
		return req, h.respondErrorWithOp(w, http.StatusBadRequest, "salary is required", codeBadRequest, op)
	}
	return req, 0
}

func (h *handler) resolveMode(value string) (calculator.Mode, error) {
	if strings.TrimSpace(value) == "" {
		return h.svc.Mode(), nil
	}
	return calculator.ParseMode(value)
}

// statusFor maps an error onto an HTTP status and error code.
func statusFor(err error) (int, string) {
	var (
		invalid  *tax.InvalidSalaryError
		negative *tax.NegativeSalaryError
		high     *tax.UnusuallyHighSalaryError
		failure  *tax.DelegationFailureError
		timeout  *tax.DelegationTimeoutError
	)
	switch {
	case errors.As(err, &invalid), errors.As(err, &negative):
		return http.StatusBadRequest, tax.ErrorCode(err)
	case errors.As(err, &high):
		return http.StatusUnprocessableEntity, tax.CodeUnusuallyHighSalary
	case errors.As(err, &timeout):
		return http.StatusGatewayTimeout, tax.CodeDelegationTimeout
	case errors.As(err, &failure):
		return http.StatusBadGateway, tax.CodeDelegationFailure
	case errors.Is(err, record.ErrNotFound):
		return http.StatusNotFound, codeNotFound
	default:
		return http.StatusInternalServerError, codeInternal
	}
}

func (h *handler) respondCalculationError(w http.ResponseWriter, err error, op string) int {
	status, code := statusFor(err)
	return h.respondErrorWithOp(w, status, err.Error(), code, op)
}

func (h *handler) methodNotAllowed(w http.ResponseWriter) int {
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	return http.StatusMethodNotAllowed
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, status int, msg, code, op string) int {
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("op", op),
			zap.Int("status", status),
			zap.String("code", code),
			zap.String("error", msg),
		)
	} else {
		h.logger.Info("request rejected",
			zap.String("op", op),
			zap.Int("status", status),
			zap.String("code", code),
			zap.String("error", msg),
		)
	}

	return h.writeJSON(w, status, map[string]string{"error": msg, "code": code})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) int {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
	return status
}
