package document

import (
	"os"

	"batchscribe/internal/transcript"
)

// emitText writes the flattened transcript verbatim, with no added framing,
// so reading the file back yields exactly PlainText().
func emitText(tr transcript.Transcript, outputPath string) error {
	if err := os.WriteFile(outputPath, []byte(tr.PlainText()), 0o644); err != nil {
		return &EmitError{Path: outputPath, Format: FormatTXT, Err: err}
	}
	return nil
}
