package report

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
)

const (
	pdfMargin    = 15.0
	pdfRowHeight = 7.0
)

// detailWidths sum to the A4 content width (210mm less both margins).
var detailWidths = []float64{60, 36, 28, 28, 28}

// PDFRenderer writes an A4 portrait PDF. The equipment table header repeats
// on every page and each page carries a "Page N of M" footer.
type PDFRenderer struct{}

func (PDFRenderer) Render(w io.Writer, doc Document) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin+5)
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(doc.Created)
	pdf.SetModificationDate(doc.Created)
	pdf.SetTitle(doc.Title, false)
	pdf.SetCreator("equipment-visualiser", false)
	pdf.AliasNbPages("")

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	inTable := false

	tableHeader := func() {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetFillColor(230, 236, 245)
		for i, col := range DetailColumns {
			align := "L"
			if i >= 2 {
				align = "R"
			}
			pdf.CellFormat(detailWidths[i], pdfRowHeight, tr(col), "1", 0, align, true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 9)
	}

	pdf.SetHeaderFunc(func() {
		if pdf.PageNo() > 1 {
			pdf.SetFont("Helvetica", "I", 8)
			pdf.CellFormat(0, 6, tr(fmt.Sprintf("%s - Batch #%d", doc.Title, doc.BatchID)), "", 1, "L", false, 0, "")
			pdf.Ln(2)
		}
		if inTable {
			tableHeader()
		}
	})
	pdf.SetFooterFunc(func() {
		pdf.SetY(-pdfMargin)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, tr(doc.Title), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Batch #%d  %s", doc.BatchID, doc.FileName)), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, tr("Generated "+doc.GeneratedAt), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	section := func(title string) {
		pdf.SetFont("Helvetica", "B", 13)
		pdf.CellFormat(0, 8, tr(title), "", 1, "L", false, 0, "")
	}
	pairs := func(rows []Row) {
		pdf.SetFont("Helvetica", "", 10)
		for _, r := range rows {
			pdf.CellFormat(70, pdfRowHeight, tr(r.Label), "1", 0, "L", false, 0, "")
			pdf.CellFormat(50, pdfRowHeight, tr(r.Value), "1", 1, "R", false, 0, "")
		}
		pdf.Ln(4)
	}

	section("Summary")
	pairs(doc.Summary)

	section("Equipment Type Distribution")
	pairs(doc.Types)

	section("Equipment Details")
	tableHeader()
	inTable = true
	for _, row := range doc.Details {
		for i, cell := range row {
			align := "L"
			if i >= 2 {
				align = "R"
			}
			pdf.CellFormat(detailWidths[i], pdfRowHeight, tr(cell), "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}
	inTable = false

	if doc.Notice != "" {
		pdf.Ln(3)
		pdf.SetFont("Helvetica", "I", 9)
		pdf.CellFormat(0, 6, tr(doc.Notice), "", 1, "L", false, 0, "")
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return pdf.Output(w)
}
