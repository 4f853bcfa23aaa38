package main

import (
	"fmt"
	"os"
	"time"

	"github.com/iwvelando/take-home-pay/internal/tax"
	"github.com/iwvelando/take-home-pay/pkg/constants"
	"github.com/iwvelando/take-home-pay/pkg/output"
	"github.com/iwvelando/take-home-pay/pkg/validation"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

func (c *cli) calculateCmd() *cobra.Command {
	var (
		mode         string
		outputFormat string
		outPath      string
	)

	cmd := &cobra.Command{
		Use:   "calculate SALARY...",
		Short: "Print the take-home pay breakdown for one or more salaries",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// CLI override takes precedence over config
			selected := c.conf.Output.Format
			if outputFormat != "" {
				selected = outputFormat
			}
			if selected == "" {
				selected = constants.OutputFormatPretty
			}
			if err := validation.ValidateOutputFormat(selected); err != nil {
				return err
			}

			calcMode, err := c.resolveMode(mode)
			if err != nil {
				return err
			}

			calc, cleanup := c.newCalculator(cmd.Context())
			defer cleanup()

			results := make([]tax.Breakdown, 0, len(args))
			for _, arg := range args {
				salary, err := validation.ParseSalary(arg)
				if err != nil {
					return err
				}

				result, err := calc.Calculate(cmd.Context(), salary, calcMode)
				if err != nil {
					c.logger.Error("failed to calculate breakdown",
						zap.String("op", "main.calculate"),
						zap.String("salary", arg),
						zap.Error(err),
					)
					return fmt.Errorf("salary %s: %w", arg, err)
				}
				for _, warning := range result.Warnings {
					c.logger.Warn(warning,
						zap.String("op", "main.calculate"),
						zap.String("salary", arg),
					)
				}
				results = append(results, result.Breakdown)
			}

			switch selected {
			case constants.OutputFormatPretty:
				return output.PrettyFormat(c.out, results)
			case constants.OutputFormatCSV:
				return output.CsvFormat(c.out, results)
			case constants.OutputFormatPDF:
				data, err := output.PdfSummary(results, c.conf.Schedule.Name, time.Now())
				if err != nil {
					return err
				}
				if err := os.WriteFile(outPath, data, 0644); err != nil {
					return fmt.Errorf("failed to write PDF: %w", err)
				}
				c.logger.Info("wrote PDF summary",
					zap.String("op", "main.calculate"),
					zap.String("path", outPath),
				)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "", "calculation mode override: local, delegated")
	cmd.Flags().StringVar(&outputFormat, "output-format", "", "type of output override: pretty, csv, pdf")
	cmd.Flags().StringVar(&outPath, "out", "take-home-pay.pdf", "file the PDF summary is written to")
	return cmd
}

func (c *cli) compareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compare SALARY...",
		Short: "Check that the local and delegated paths agree",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			calc, cleanup := c.newCalculator(cmd.Context())
			defer cleanup()
			if !calc.CanDelegate() {
				return fmt.Errorf("compare needs delegation.baseURL to be configured")
			}

			mismatches := 0
			for _, arg := range args {
				salary, err := validation.ParseSalary(arg)
				if err != nil {
					return err
				}
				cmp, err := calc.Compare(cmd.Context(), salary)
				if err != nil {
					return fmt.Errorf("salary %s: %w", arg, err)
				}

				status := "match"
				if !cmp.Equivalent() {
					status = "MISMATCH"
					mismatches++
				}
				fmt.Fprintf(c.out, "%.2f | local %.2f | delegated %.2f | max diff %.2f (%s) | %s\n",
					salary, cmp.Local.TakeHomeYearly, cmp.Delegated.TakeHomeYearly,
					cmp.MaxDifference, cmp.Field, status)
			}

			if mismatches > 0 {
				return fmt.Errorf("%d of %d salaries differ between local and delegated paths", mismatches, len(args))
			}
			return nil
		},
	}
}

func (c *cli) scheduleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Print the active tax schedule as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			encoder := yaml.NewEncoder(c.out)
			encoder.SetIndent(2)
			if err := encoder.Encode(c.conf.Schedule); err != nil {
				return fmt.Errorf("failed to encode schedule: %w", err)
			}
			return encoder.Close()
		},
	}
}
