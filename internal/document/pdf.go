package document

import (
	"strings"

	"github.com/go-pdf/fpdf"

	"batchscribe/internal/transcript"
)

const pdfTitle = "Generated Transcript"

// emitPDF renders the transcript as a paginated letter-size document with a
// title header and a justified body paragraph.
func emitPDF(tr transcript.Transcript, outputPath string) error {
	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	// Core fonts are cp1252; translate so accented text survives.
	translate := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, translate(pdfTitle), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 11)
	body := strings.ReplaceAll(tr.PlainText(), "\n", " ")
	pdf.MultiCell(0, 5.5, translate(strings.TrimSpace(body)), "", "J", false)

	if err := pdf.OutputFileAndClose(outputPath); err != nil {
		return &EmitError{Path: outputPath, Format: FormatPDF, Err: err}
	}
	return nil
}
