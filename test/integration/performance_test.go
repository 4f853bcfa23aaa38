package integration

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/iwvelando/take-home-pay/internal/authority"
	"github.com/iwvelando/take-home-pay/internal/cache"
	"github.com/iwvelando/take-home-pay/internal/calculator"
	"github.com/iwvelando/take-home-pay/internal/config"
	"github.com/iwvelando/take-home-pay/internal/tax"
	"github.com/iwvelando/take-home-pay/pkg/constants"
	"github.com/iwvelando/take-home-pay/pkg/testutil"
	"go.uber.org/zap"
)

// TestRunner is a simple test runner for debugging
func TestMain(m *testing.M) {
	code := m.Run()
	os.Exit(code)
}

// TestPerformance sweeps the salary range in $50 steps on the local path.
func TestPerformance(t *testing.T) {
	conf, err := config.LoadConfiguration("../test_config.yaml")
	if err != nil {
		t.Fatalf("LoadConfiguration failed: %v", err)
	}
	calc := calculator.New(zap.NewNop(), conf.Schedule)

	start := time.Now()
	count := 0
	for salary := 0.0; salary <= 1000000; salary += 50 {
		if _, err := calc.Calculate(context.Background(), salary, calculator.ModeLocal); err != nil {
			t.Fatalf("Calculate(%v) failed: %v", salary, err)
		}
		count++
	}
	elapsed := time.Since(start)

	t.Logf("Performance metrics:")
	t.Logf("  Breakdowns: %d", count)
	t.Logf("  Total time: %v", elapsed)
	t.Logf("  Per breakdown: %v", elapsed/time.Duration(count))

	if elapsed > 10*time.Second {
		t.Errorf("Total processing time %v exceeds 10 second threshold", elapsed)
	}
}

// TestDataConsistency validates that multiple runs produce identical results
func TestDataConsistency(t *testing.T) {
	_, first := loadBaseline(t)

	for i := 0; i < 5; i++ {
		_, again := loadBaseline(t)
		for j := range first {
			if first[j] != again[j] {
				t.Fatalf("run %d: salary %v changed from %+v to %+v", i, first[j].Salary, first[j], again[j])
			}
		}
	}
}

// TestTakeHomeIsMonotonic checks that a raise never lowers take-home pay.
func TestTakeHomeIsMonotonic(t *testing.T) {
	schedule := tax.DefaultSchedule()

	previous := -1.0
	for salary := 0.0; salary <= 700000; salary += 25 {
		b, err := tax.CalculateBreakdown(salary, schedule)
		if err != nil {
			t.Fatalf("CalculateBreakdown(%v) failed: %v", salary, err)
		}
		if b.TakeHomeYearly+constants.CurrencyTolerance < previous {
			t.Fatalf("take-home fell from %v to %v at salary %v", previous, b.TakeHomeYearly, salary)
		}
		previous = b.TakeHomeYearly
	}
}

// TestConcurrentDelegation runs many delegated calculations at once through a
// shared cache and checks each against the local path.
func TestConcurrentDelegation(t *testing.T) {
	schedule := tax.DefaultSchedule()
	srv := testutil.NewAuthorityServer(t, schedule)

	client := authority.NewHTTPClient(zap.NewNop(), srv.URL, 5*time.Second)
	calc := calculator.New(zap.NewNop(), schedule,
		calculator.WithAuthority(client),
		calculator.WithCache(cache.NewMemoryCache(time.Minute)),
	)

	const workers = 16
	var wg sync.WaitGroup
	errs := make(chan string, workers*10)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				// Workers overlap on salaries so some lookups hit the cache.
				salary := float64(25000 + (w%4)*10000 + i*1000)
				delegated, err := calc.Calculate(context.Background(), salary, calculator.ModeDelegated)
				if err != nil {
					errs <- err.Error()
					continue
				}
				local, err := tax.CalculateBreakdown(salary, schedule)
				if err != nil {
					errs <- err.Error()
					continue
				}
				if field := testutil.BreakdownDiff(delegated.Breakdown, local, constants.CurrencyTolerance); field != "" {
					errs <- "salary mismatch on " + field
				}
			}
		}(w)
	}

	wg.Wait()
	close(errs)
	for msg := range errs {
		t.Error(msg)
	}
}
