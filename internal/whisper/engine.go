package whisper

import (
	"context"
	"fmt"

	"batchscribe/internal/transcript"
)

// Request describes one segment transcription.
type Request struct {
	AudioPath string
	ModelPath string
	Language  string
	// Device is "auto" or "cpu". The contract is identical either way;
	// only latency differs.
	Device string
}

// Engine turns one audio segment into timed spans. Span offsets are
// relative to the segment's own timeline, starting at zero.
type Engine interface {
	Transcribe(ctx context.Context, req Request) ([]transcript.Span, error)
}

// TranscriptionError reports an engine failure. It aborts the whole file's
// job; there is no per-segment retry.
type TranscriptionError struct {
	AudioPath string
	Err       error
}

func (e *TranscriptionError) Error() string {
	return fmt.Sprintf("transcribe %s: %v", e.AudioPath, e.Err)
}

func (e *TranscriptionError) Unwrap() error { return e.Err }
