package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/furniscan/furniscan-backend/internal/projects"
)

// RenderPDF lays out a project as a single document: title heading, the
// extracted text, then the three reviewed sections. Materials and
// measurements are bulleted, steps are numbered.
func RenderPDF(p *projects.Project) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(p.Title, true)
	pdf.AddPage()

	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 18)
	pdf.MultiCell(0, 10, tr(p.Title), "", "L", false)
	pdf.Ln(4)

	if p.FullText != "" {
		writePDFHeading(pdf, tr, "Extracted Text")
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 6, tr(p.FullText), "", "L", false)
		pdf.Ln(4)
	}

	writePDFList(pdf, tr, "Materials", p.Materials, false)
	writePDFList(pdf, tr, "Measurements", p.Measurements, false)
	writePDFList(pdf, tr, "Steps", p.Instructions, true)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf write: %w", err)
	}
	return buf.Bytes(), nil
}

func writePDFHeading(pdf *gofpdf.Fpdf, tr func(string) string, text string) {
	pdf.SetFont("Helvetica", "B", 13)
	pdf.MultiCell(0, 8, tr(text), "", "L", false)
	pdf.Ln(1)
}

func writePDFList(pdf *gofpdf.Fpdf, tr func(string) string, heading string, items []string, numbered bool) {
	if len(items) == 0 {
		return
	}
	writePDFHeading(pdf, tr, heading)
	pdf.SetFont("Helvetica", "", 11)
	for i, item := range items {
		marker := "- "
		if numbered {
			marker = fmt.Sprintf("%d. ", i+1)
		}
		pdf.MultiCell(0, 6, tr(marker+item), "", "L", false)
	}
	pdf.Ln(4)
}
