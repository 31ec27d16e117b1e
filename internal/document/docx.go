package document

import (
	"os"

	"github.com/fumiama/go-docx"

	"batchscribe/internal/transcript"
)

// emitDOCX writes the flattened transcript as a single paragraph.
func emitDOCX(tr transcript.Transcript, outputPath string) error {
	doc := docx.New().WithDefaultTheme()
	doc.AddParagraph().AddText(tr.PlainText())

	f, err := os.Create(outputPath)
	if err != nil {
		return &EmitError{Path: outputPath, Format: FormatDOCX, Err: err}
	}
	defer f.Close()

	if _, err := doc.WriteTo(f); err != nil {
		return &EmitError{Path: outputPath, Format: FormatDOCX, Err: err}
	}
	if err := f.Close(); err != nil {
		return &EmitError{Path: outputPath, Format: FormatDOCX, Err: err}
	}
	return nil
}
