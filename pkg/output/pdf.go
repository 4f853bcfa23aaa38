package output

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/iwvelando/take-home-pay/internal/tax"
	"github.com/iwvelando/take-home-pay/pkg/format"
)

const (
	pageWidth    = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 20.0
	contentWidth = pageWidth - marginLeft - marginRight

	labelWidth   = 90.0
	amountWidth  = 50.0
	percentWidth = contentWidth - labelWidth - amountWidth
)

// PdfSummary renders one page per breakdown and returns the PDF document.
func PdfSummary(results []tax.Breakdown, scheduleName string, generated time.Time) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(marginLeft, marginTop, marginRight)
	pdf.SetAutoPageBreak(true, marginBottom)
	pdf.SetTitle("Take-home pay summary", true)

	if len(results) == 0 {
		pdf.AddPage()
		pdf.SetFont("Arial", "", 12)
		pdf.CellFormat(contentWidth, 10, "No salaries to report.", "", 1, "L", false, 0, "")
	}

	for _, b := range results {
		addBreakdownPage(pdf, b, scheduleName, generated)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func addBreakdownPage(pdf *fpdf.Fpdf, b tax.Breakdown, scheduleName string, generated time.Time) {
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 20)
	pdf.SetTextColor(0, 51, 102)
	pdf.CellFormat(contentWidth, 12, "Take-Home Pay Summary", "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "", 12)
	pdf.SetTextColor(80, 80, 80)
	pdf.CellFormat(contentWidth, 8, fmt.Sprintf("Gross salary %s", format.WholeCurrency(b.Salary)), "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "I", 10)
	pdf.CellFormat(contentWidth, 6, fmt.Sprintf("Schedule: %s", scheduleName), "", 1, "C", false, 0, "")
	pdf.CellFormat(contentWidth, 6, fmt.Sprintf("Generated: %s", generated.Format("2 January 2006")), "", 1, "C", false, 0, "")
	pdf.Ln(10)

	pdf.SetFillColor(245, 247, 250)
	pdf.SetFont("Arial", "B", 11)
	pdf.SetTextColor(0, 51, 102)
	pdf.CellFormat(labelWidth, 8, "Item", "1", 0, "L", true, 0, "")
	pdf.CellFormat(amountWidth, 8, "Amount", "1", 0, "R", true, 0, "")
	pdf.CellFormat(percentWidth, 8, "% of salary", "1", 1, "R", true, 0, "")

	pdf.SetFont("Arial", "", 11)
	pdf.SetTextColor(50, 50, 50)
	for i, l := range lines(b) {
		fill := i%2 == 1
		pct := ""
		if l.percent != nil {
			pct = format.Percentage(*l.percent) + "%"
		}
		pdf.CellFormat(labelWidth, 7, l.label, "LR", 0, "L", fill, 0, "")
		pdf.CellFormat(amountWidth, 7, format.Currency(l.amount), "LR", 0, "R", fill, 0, "")
		pdf.CellFormat(percentWidth, 7, pct, "LR", 1, "R", fill, 0, "")
	}
	pdf.CellFormat(contentWidth, 0, "", "T", 1, "", false, 0, "")
}
