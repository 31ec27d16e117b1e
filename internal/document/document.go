// Package document serializes an assembled transcript into one of the
// supported output containers.
package document

import (
	"fmt"
	"path/filepath"
	"strings"

	"batchscribe/internal/transcript"
)

// Format is an output container format.
type Format string

const (
	FormatTXT  Format = "txt"
	FormatDOCX Format = "docx"
	FormatPDF  Format = "pdf"
)

// Formats lists the supported formats in the order they are offered.
func Formats() []Format {
	return []Format{FormatTXT, FormatDOCX, FormatPDF}
}

// ParseFormat accepts a format name in any case.
func ParseFormat(raw string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "txt", "text":
		return FormatTXT, nil
	case "docx":
		return FormatDOCX, nil
	case "pdf":
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("unknown output format %q (supported: txt, docx, pdf)", raw)
	}
}

// EmitError reports a failed document write. It propagates to the job as a
// terminal error; it is never swallowed.
type EmitError struct {
	Path   string
	Format Format
	Err    error
}

func (e *EmitError) Error() string {
	return fmt.Sprintf("emit %s document to %s: %v", e.Format, e.Path, e.Err)
}

func (e *EmitError) Unwrap() error { return e.Err }

// OutputFileName derives the artifact name for a source file, e.g.
// "lecture.mp4" -> "lecture.pdf".
func OutputFileName(sourceName string, format Format) string {
	base := strings.TrimSuffix(sourceName, filepath.Ext(sourceName))
	return base + "." + string(format)
}

// Emit writes the transcript to outputPath in the requested format.
func Emit(tr transcript.Transcript, format Format, outputPath string) error {
	switch format {
	case FormatTXT:
		return emitText(tr, outputPath)
	case FormatDOCX:
		return emitDOCX(tr, outputPath)
	case FormatPDF:
		return emitPDF(tr, outputPath)
	default:
		return &EmitError{Path: outputPath, Format: format, Err: fmt.Errorf("unknown format %q", format)}
	}
}
