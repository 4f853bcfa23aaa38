package output

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/iwvelando/take-home-pay/internal/tax"
)

func referenceBreakdown(t *testing.T) tax.Breakdown {
	t.Helper()
	b, err := tax.CalculateBreakdown(100000, tax.DefaultSchedule())
	if err != nil {
		t.Fatalf("CalculateBreakdown() error = %v", err)
	}
	return b
}

func prettyString(t *testing.T, results []tax.Breakdown) string {
	t.Helper()
	var buf bytes.Buffer
	if err := PrettyFormat(&buf, results); err != nil {
		t.Fatalf("PrettyFormat() error = %v", err)
	}
	return buf.String()
}

func TestPrettyFormat(t *testing.T) {
	output := prettyString(t, []tax.Breakdown{referenceBreakdown(t)})

	expected := []string{
		"--- Take-home pay for $100,000 ---",
		"Item",
		"% of salary",
		"$14,261",
		"14.3%",
		"$6,200",
		"6.2%",
		"$1,450",
		"1.5%",
		"$21,911",
		"21.9%",
		"$78,090",
		"Take-home (six months)",
		"$39,045",
		"$6,507",
	}
	for _, want := range expected {
		if !strings.Contains(output, want) {
			t.Errorf("PrettyFormat output missing %q\n%s", want, output)
		}
	}
}

func TestPrettyFormatMultiple(t *testing.T) {
	zero, _ := tax.CalculateBreakdown(0, tax.DefaultSchedule())
	output := prettyString(t, []tax.Breakdown{referenceBreakdown(t), zero})

	if strings.Count(output, "--- Take-home pay for") != 2 {
		t.Errorf("expected two sections, got\n%s", output)
	}
	if !strings.Contains(output, "--- Take-home pay for $0 ---") {
		t.Errorf("expected zero salary section, got\n%s", output)
	}
}

func TestCsvString(t *testing.T) {
	csv := CsvString([]tax.Breakdown{referenceBreakdown(t)})
	rows := strings.Split(strings.TrimSpace(csv), "\n")
	if len(rows) != 2 {
		t.Fatalf("expected header and 1 row, got %d rows", len(rows))
	}

	if !strings.HasPrefix(rows[0], `"salary","federal tax","federal tax %"`) {
		t.Errorf("unexpected header %q", rows[0])
	}
	if strings.Count(rows[0], ",") != strings.Count(rows[1], ",") {
		t.Errorf("header and row column counts differ")
	}

	expected := `"100000.00","14260.50","14.3","6200.00","6.2","1450.00","1.5","21910.50","21.9","78089.50","6507.46","3003.44","1501.72"`
	if rows[1] != expected {
		t.Errorf("row = %s\nexpected %s", rows[1], expected)
	}
}

func TestCsvFormat(t *testing.T) {
	results := []tax.Breakdown{referenceBreakdown(t)}
	var buf bytes.Buffer
	if err := CsvFormat(&buf, results); err != nil {
		t.Fatalf("CsvFormat() error = %v", err)
	}
	if buf.String() != CsvString(results) {
		t.Errorf("CsvFormat output differs from CsvString")
	}
}

func TestPdfSummary(t *testing.T) {
	generated := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		results []tax.Breakdown
	}{
		{"Single breakdown", []tax.Breakdown{referenceBreakdown(t)}},
		{"No breakdowns", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := PdfSummary(tt.results, "us-federal-2023-single", generated)
			if err != nil {
				t.Fatalf("PdfSummary() error = %v", err)
			}
			if !bytes.HasPrefix(data, []byte("%PDF-")) {
				t.Errorf("output is not a PDF document")
			}
		})
	}
}
