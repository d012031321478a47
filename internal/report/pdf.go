package report

import (
	"io"

	"github.com/go-pdf/fpdf"

	"github.com/mind-engage/scholaroute/internal/allocation"
)

const (
	pageMargin = 10.0
	rowHeight  = 6.0
)

// column widths in mm for TableColumns on landscape A4 (277mm usable)
var tableWidths = []float64{22, 26, 26, 16, 18, 20, 26, 26, 26, 38, 33}

type pdfDoc struct {
	*fpdf.Fpdf
	tr func(string) string
}

func newPDF(title string) *pdfDoc {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(false, pageMargin)
	pdf.SetTitle(title, true)
	pdf.SetCreator("ScholaRoute", true)
	pdf.AddPage()
	return &pdfDoc{Fpdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
}

func (d *pdfDoc) heading(text string) {
	d.SetFont("Helvetica", "B", 16)
	d.SetTextColor(44, 62, 80)
	d.CellFormat(0, 10, d.tr(text), "", 1, "C", false, 0, "")
}

func (d *pdfDoc) note(text string) {
	d.SetFont("Helvetica", "", 8)
	d.SetTextColor(86, 101, 115)
	d.MultiCell(0, 4, d.tr(text), "", "L", false)
	d.Ln(2)
}

// fit trims s with an ellipsis until it fits width w at the current font.
func (d *pdfDoc) fit(s string, w float64) string {
	s = d.tr(s)
	limit := w - 2
	if d.GetStringWidth(s) <= limit {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && d.GetStringWidth(string(r)+"...") > limit {
		r = r[:len(r)-1]
	}
	return string(r) + "..."
}

func (d *pdfDoc) headerRow(cols []string, widths []float64) {
	d.SetFont("Helvetica", "B", 8)
	d.SetFillColor(52, 152, 219)
	d.SetTextColor(255, 255, 255)
	d.SetDrawColor(204, 204, 204)
	for i, c := range cols {
		d.CellFormat(widths[i], rowHeight, d.fit(c, widths[i]), "1", 0, "C", true, 0, "")
	}
	d.Ln(-1)
	d.SetFont("Helvetica", "", 7)
	d.SetTextColor(44, 62, 80)
}

func (d *pdfDoc) bodyRow(cells []string, widths []float64) {
	for i, c := range cells {
		d.CellFormat(widths[i], rowHeight, d.fit(c, widths[i]), "1", 0, "C", false, 0, "")
	}
	d.Ln(-1)
}

// WriteFullPDF renders every row as a paginated table, repeating the header on each page.
func WriteFullPDF(w io.Writer, rows []allocation.Row) error {
	d := newPDF("ScholaRoute: Full Allocations")
	d.heading("ScholaRoute: Full Allocations")
	d.note("This report summarizes student allocations based on aggregate and subject-specific eligibility, prioritizing choices 1-3 with fallback to best-fit courses.")

	_, pageH := d.GetPageSize()
	d.headerRow(TableColumns, tableWidths)
	for _, r := range rows {
		if d.GetY()+rowHeight > pageH-pageMargin {
			d.AddPage()
			d.headerRow(TableColumns, tableWidths)
		}
		d.bodyRow(tableCells(r), tableWidths)
	}
	return d.Output(w)
}

// WriteStudentPDF renders a single student's allocation card.
func WriteStudentPDF(w io.Writer, row allocation.Row) error {
	d := newPDF("ScholaRoute: Student Allocation " + row.StudentID)
	d.heading("ScholaRoute: Student Allocation")

	fields := [][2]string{
		{"Student ID", row.StudentID},
		{"Name", row.FullName()},
		{"Gender", row.Gender},
		{"Section", row.Section},
		{"Aggregate", FormatAggregate(row.Aggregate)},
		{"Choices", row.Choices[0] + " | " + row.Choices[1] + " | " + row.Choices[2]},
		{"Allocated University", row.University},
		{"Allocated Course", row.Course},
	}
	d.SetFillColor(249, 249, 249)
	d.SetDrawColor(204, 204, 204)
	for _, f := range fields {
		d.SetFont("Helvetica", "B", 10)
		d.CellFormat(55, 7, d.tr(f[0]+":"), "1", 0, "L", true, 0, "")
		d.SetFont("Helvetica", "", 10)
		d.CellFormat(0, 7, d.tr(f[1]), "1", 1, "L", true, 0, "")
	}
	d.Ln(4)

	d.SetFont("Helvetica", "B", 12)
	d.CellFormat(0, 8, "Subject breakdown", "", 1, "L", false, 0, "")

	pageW, _ := d.GetPageSize()
	width := (pageW - 2*pageMargin) / float64(len(allocation.Subjects))
	widths := make([]float64, len(allocation.Subjects))
	scores := make([]string, len(allocation.Subjects))
	for i, subj := range allocation.Subjects {
		widths[i] = width
		scores[i] = FormatScore(row.Scores.Get(subj))
	}
	d.headerRow(allocation.Subjects, widths)
	d.bodyRow(scores, widths)
	d.Ln(4)
	d.note(Disclaimer)
	return d.Output(w)
}
