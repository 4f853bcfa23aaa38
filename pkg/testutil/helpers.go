// Package testutil provides common utility functions for testing.
package testutil

import (
	"net/http/httptest"
	"testing"

	"github.com/iwvelando/take-home-pay/internal/calculator"
	"github.com/iwvelando/take-home-pay/internal/record"
	"github.com/iwvelando/take-home-pay/internal/server"
	"github.com/iwvelando/take-home-pay/internal/tax"
	"github.com/iwvelando/take-home-pay/pkg/constants"
	"github.com/iwvelando/take-home-pay/pkg/mathutil"
	"go.uber.org/zap"
)

// FindBreakdown finds the breakdown for salary in the results slice.
// Returns a pointer to the breakdown if found, nil otherwise.
func FindBreakdown(results []tax.Breakdown, salary float64) *tax.Breakdown {
	for i := range results {
		if mathutil.WithinTolerance(results[i].Salary, salary, constants.CurrencyTolerance) {
			return &results[i]
		}
	}
	return nil
}

// BreakdownDiff returns the name of the field in which a and b differ most
// when that difference exceeds tolerance, or "" when they agree.
func BreakdownDiff(a, b tax.Breakdown, tolerance float64) string {
	field, difference := a.LargestDifference(b)
	if difference <= tolerance {
		return ""
	}
	return field
}

// NewAuthorityServer starts an HTTP server whose authority endpoint computes
// breakdowns in-process with schedule. The server is closed when the test ends.
func NewAuthorityServer(t testing.TB, schedule tax.Schedule) *httptest.Server {
	t.Helper()
	calc := calculator.New(zap.NewNop(), schedule)
	svc := calculator.NewService(zap.NewNop(), calc, record.NewMemoryStore(), nil, calculator.ModeLocal)
	srv := httptest.NewServer(server.NewHandler(zap.NewNop(), svc, server.Options{}))
	t.Cleanup(srv.Close)
	return srv
}
