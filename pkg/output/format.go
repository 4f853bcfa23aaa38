// Package output provides utilities for formatting and displaying breakdowns.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/iwvelando/take-home-pay/internal/tax"
	"github.com/iwvelando/take-home-pay/pkg/format"
)

// line is one labelled row of a breakdown table.
type line struct {
	label   string
	amount  float64
	percent *float64
}

func lines(b tax.Breakdown) []line {
	p := b.Percentages()
	return []line{
		{"Gross salary", b.Salary, nil},
		{"Federal income tax", b.FederalTax, &p.FederalTax},
		{"Social security tax", b.SocialSecurityTax, &p.SocialSecurity},
		{"Medicare tax", b.MedicareTax, &p.Medicare},
		{"Total tax", b.TotalTax, &p.Total},
		{"Take-home (yearly)", b.TakeHomeYearly, nil},
		{"Take-home (six months)", b.TakeHomeSixMonth(), nil},
		{"Take-home (monthly)", b.TakeHomeMonthly, nil},
		{"Take-home (bi-weekly)", b.TakeHomeBiWeekly, nil},
		{"Take-home (weekly)", b.TakeHomeWeekly, nil},
	}
}

// PrettyFormat writes a human-readable rather than machine-readable table to w.
func PrettyFormat(w io.Writer, results []tax.Breakdown) error {
	var sb strings.Builder
	for i, b := range results {
		fmt.Fprintf(&sb, "--- Take-home pay for %s ---\n", format.WholeCurrency(b.Salary))
		fmt.Fprintf(&sb, "%-22s | %-12s | %s\n", "Item", "Amount", "% of salary")
		fmt.Fprintf(&sb, "%-22s | %-12s | %s\n", "____", "______", "___________")
		for _, l := range lines(b) {
			pct := ""
			if l.percent != nil {
				pct = format.Percentage(*l.percent) + "%"
			}
			fmt.Fprintf(&sb, "%-22s | %-12s | %s\n", l.label, format.WholeCurrency(l.amount), pct)
		}
		if i < len(results)-1 {
			sb.WriteString("\n")
		}
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

var csvHeader = []string{
	"salary",
	"federal tax",
	"federal tax %",
	"social security tax",
	"social security tax %",
	"medicare tax",
	"medicare tax %",
	"total tax",
	"total tax %",
	"take-home yearly",
	"take-home monthly",
	"take-home bi-weekly",
	"take-home weekly",
}

// CsvString renders the breakdowns in comma-separated value format.
func CsvString(results []tax.Breakdown) string {
	var sb strings.Builder
	for i, h := range csvHeader {
		if i > 0 {
			sb.WriteString(",")
		}
		fmt.Fprintf(&sb, `"%s"`, h)
	}
	sb.WriteString("\n")

	for _, b := range results {
		p := b.Percentages()
		fmt.Fprintf(&sb, `"%.2f","%.2f","%s","%.2f","%s","%.2f","%s","%.2f","%s","%.2f","%.2f","%.2f","%.2f"`,
			b.Salary,
			b.FederalTax, format.Percentage(p.FederalTax),
			b.SocialSecurityTax, format.Percentage(p.SocialSecurity),
			b.MedicareTax, format.Percentage(p.Medicare),
			b.TotalTax, format.Percentage(p.Total),
			b.TakeHomeYearly,
			b.TakeHomeMonthly,
			b.TakeHomeBiWeekly,
			b.TakeHomeWeekly,
		)
		sb.WriteString("\n")
	}
	return sb.String()
}

// CsvFormat writes the breakdowns to w in comma-separated value format.
func CsvFormat(w io.Writer, results []tax.Breakdown) error {
	_, err := io.WriteString(w, CsvString(results))
	return err
}
