package main

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/iwvelando/take-home-pay/internal/calculator"
	"github.com/iwvelando/take-home-pay/pkg/debounce"
	"github.com/iwvelando/take-home-pay/pkg/format"
	"github.com/iwvelando/take-home-pay/pkg/validation"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func (c *cli) interactiveCmd() *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "interactive",
		Short: "Read salaries from standard input and print breakdowns as you type",
		Long: "Reads one salary per line. Lines entered in quick succession are coalesced " +
			"so only the latest is calculated. Enter quit or exit to stop.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			calcMode, err := c.resolveMode(mode)
			if err != nil {
				return err
			}

			calc, cleanup := c.newCalculator(cmd.Context())
			defer cleanup()

			return c.runInteractive(cmd.Context(), calc, calcMode)
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "", "calculation mode override: local, delegated")
	return cmd
}

// runInteractive debounces input lines and prints a summary for the latest
// one. Each line gets a sequence number and a summary is printed at most once
// per line, never for a line older than one already shown.
func (c *cli) runInteractive(ctx context.Context, calc *calculator.Calculator, mode calculator.Mode) error {
	d := debounce.New(c.conf.Calculation.Debounce())

	var (
		mu    sync.Mutex
		shown uint64
	)
	show := func(seq uint64, input string) {
		mu.Lock()
		defer mu.Unlock()
		if seq <= shown {
			return
		}
		shown = seq
		fmt.Fprintln(c.out, c.summarize(ctx, calc, mode, input))
	}

	var (
		seq  uint64
		last string
	)
	scanner := bufio.NewScanner(c.in)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			// Cancelled; drop whatever is still waiting.
			d.Stop()
			return err
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			break
		}
		seq++
		n, input := seq, line
		last = line
		d.Trigger(func() { show(n, input) })
	}

	// Input is done; show the latest line now rather than waiting out the delay.
	// A timer that already fired may still be printing, so show again under the
	// guard to make sure nothing is written after we return.
	if !d.Flush() && seq > 0 {
		show(seq, last)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	return nil
}

func (c *cli) summarize(ctx context.Context, calc *calculator.Calculator, mode calculator.Mode, input string) string {
	salary, err := validation.ParseSalary(input)
	if err != nil {
		return "error: " + err.Error()
	}

	result, err := calc.Calculate(ctx, salary, mode)
	if err != nil {
		c.logger.Debug("interactive calculation failed",
			zap.String("op", "main.summarize"),
			zap.String("input", input),
			zap.Error(err),
		)
		return "error: " + err.Error()
	}
	return describe(salary, result)
}

// describe renders a one-line summary of a calculation for interactive use.
func describe(salary float64, result *calculator.Result) string {
	b, p := result.Breakdown, result.Percentages
	line := fmt.Sprintf("%s: take-home %s/yr, %s/mo, %s/wk (federal %s%%, total tax %s%%)",
		format.WholeCurrency(salary),
		format.WholeCurrency(b.TakeHomeYearly),
		format.WholeCurrency(b.TakeHomeMonthly),
		format.WholeCurrency(b.TakeHomeWeekly),
		format.Percentage(p.FederalTax),
		format.Percentage(p.Total),
	)
	for _, warning := range result.Warnings {
		line += " [warning: " + warning + "]"
	}
	return line
}
