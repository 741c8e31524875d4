package docgen

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
)

// PDFRenderer renders documents on A4 with a fixed clinical layout: centered
// title, right-aligned prescriber block, rule line, patient block, body
// sections in order, and a dated footer with a signature line.
type PDFRenderer struct{}

// NewPDFRenderer returns the standard A4 renderer.
func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{}
}

func (r *PDFRenderer) Render(doc Document) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 25)
	pdf.AddPage()

	// Title
	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, doc.Title, "", 1, "C", false, 0, "")
	pdf.Ln(4)

	// Prescriber block, right aligned
	pdf.SetFont("Helvetica", "", 10)
	for _, line := range doc.Prescriber.Lines {
		pdf.CellFormat(0, 5, line, "", 1, "R", false, 0, "")
	}
	pdf.Ln(2)

	// Rule line
	pdf.SetDrawColor(60, 60, 60)
	x, y := pdf.GetXY()
	pageW, _ := pdf.GetPageSize()
	pdf.Line(x, y, pageW-20, y)
	pdf.Ln(4)

	// Patient block
	pdf.SetFont("Helvetica", "", 11)
	for _, line := range doc.Patient.Lines {
		pdf.CellFormat(0, 6, line, "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	for _, sec := range doc.Sections {
		r.renderSection(pdf, sec)
	}

	// Footer: date on the left, signature line on the right.
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(90, 6, "Date: "+doc.FooterDate.Format("02 Jan 2006"), "", 0, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Doctor's Signature: ____________________", "", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *PDFRenderer) renderSection(pdf *fpdf.Fpdf, sec Section) {
	if sec.Heading != "" {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 7, sec.Heading, "", 1, "L", false, 0, "")
	}
	pdf.SetFont("Helvetica", "", 11)
	for _, line := range sec.Lines {
		pdf.MultiCell(0, 6, line, "", "L", false)
	}
	for i, item := range sec.Items {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(0, 6, fmt.Sprintf("%d. %s", i+1, item.Name), "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		for _, d := range item.Details {
			pdf.CellFormat(6, 5, "", "", 0, "L", false, 0, "")
			pdf.MultiCell(0, 5, d, "", "L", false)
		}
	}
	pdf.Ln(3)
}
