// Package audio turns arbitrary input media into transcription-ready
// segments: one ffmpeg pass normalizes to mono 16 kHz PCM, a second cuts
// the result into bounded-length chunks.
package audio

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"go.uber.org/zap"
)

// DefaultSegmentSeconds is the chunk length used when none is configured.
const DefaultSegmentSeconds = 1800

// Segment is one bounded-duration chunk of normalized audio. Index is the
// chunk's position in the source file and defines reassembly order.
type Segment struct {
	Index int
	Path  string
}

// ConversionError reports a failed normalization pass, carrying the tool's
// diagnostic output.
type ConversionError struct {
	Source     string
	Diagnostic string
	Err        error
}

func (e *ConversionError) Error() string {
	if e.Diagnostic != "" {
		return fmt.Sprintf("convert %s to wav: %v (%s)", e.Source, e.Err, e.Diagnostic)
	}
	return fmt.Sprintf("convert %s to wav: %v", e.Source, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }

// SegmentationError reports a failed or empty split pass.
type SegmentationError struct {
	Source     string
	Diagnostic string
	Err        error
}

func (e *SegmentationError) Error() string {
	if e.Diagnostic != "" {
		return fmt.Sprintf("split %s into segments: %v (%s)", e.Source, e.Err, e.Diagnostic)
	}
	return fmt.Sprintf("split %s into segments: %v", e.Source, e.Err)
}

func (e *SegmentationError) Unwrap() error { return e.Err }

// Segmenter shells out to ffmpeg for both passes.
type Segmenter struct {
	FFmpegPath string
	Logger     *zap.Logger
}

func NewSegmenter(ffmpegPath string, logger *zap.Logger) *Segmenter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Segmenter{FFmpegPath: ffmpegPath, Logger: logger}
}

// Normalize converts any input media to a mono 16 kHz 16-bit PCM WAV file
// placed in workDir.
func (s *Segmenter) Normalize(ctx context.Context, sourcePath, workDir string) (string, error) {
	if _, err := os.Stat(sourcePath); err != nil {
		return "", &ConversionError{Source: sourcePath, Err: err}
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return "", &ConversionError{Source: sourcePath, Err: err}
	}

	base := baseWithoutExt(sourcePath)
	wavPath := filepath.Join(workDir, base+".wav")

	args := []string{
		"-nostdin", "-hide_banner", "-y",
		"-i", sourcePath,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-sample_fmt", "s16",
		wavPath,
	}

	s.Logger.Debug("normalizing audio", zap.String("source", sourcePath), zap.String("output", wavPath))
	if diagnostic, err := s.runFFmpeg(ctx, args); err != nil {
		return "", &ConversionError{Source: sourcePath, Diagnostic: diagnostic, Err: err}
	}
	return wavPath, nil
}

// Split cuts the normalized stream into non-overlapping chunks of at most
// segmentSeconds; the last chunk may be shorter. The returned segments are
// sorted by their numeric index, never by directory listing order. Zero
// produced segments is a failure, not an empty success.
func (s *Segmenter) Split(ctx context.Context, wavPath string, segmentSeconds int) ([]Segment, error) {
	if segmentSeconds <= 0 {
		segmentSeconds = DefaultSegmentSeconds
	}

	segmentDir := filepath.Join(filepath.Dir(wavPath), baseWithoutExt(wavPath)+"_segments")
	if err := os.MkdirAll(segmentDir, 0o755); err != nil {
		return nil, &SegmentationError{Source: wavPath, Err: err}
	}

	args := []string{
		"-nostdin", "-hide_banner", "-y",
		"-i", wavPath,
		"-f", "segment",
		"-segment_time", strconv.Itoa(segmentSeconds),
		"-c", "pcm_s16le",
		filepath.Join(segmentDir, "segment_%03d.wav"),
	}

	s.Logger.Debug("splitting audio", zap.String("source", wavPath), zap.Int("segment_seconds", segmentSeconds))
	if diagnostic, err := s.runFFmpeg(ctx, args); err != nil {
		return nil, &SegmentationError{Source: wavPath, Diagnostic: diagnostic, Err: err}
	}

	segments, err := CollectSegments(segmentDir)
	if err != nil {
		return nil, &SegmentationError{Source: wavPath, Err: err}
	}
	if len(segments) == 0 {
		return nil, &SegmentationError{Source: wavPath, Err: fmt.Errorf("no segments produced in %s", segmentDir)}
	}
	return segments, nil
}

func (s *Segmenter) runFFmpeg(ctx context.Context, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, s.FFmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stdout = &stderr
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return lastDiagnosticLine(stderr.String()), err
	}
	return "", nil
}

var segmentNamePattern = regexp.MustCompile(`^segment_(\d+)\.wav$`)

// CollectSegments lists segment files in dir and tags each with the numeric
// index parsed from its name. Directory listings are unordered and a
// lexicographic sort misplaces segment_10 before segment_9 once the padding
// width overflows, so the index drives the ordering.
func CollectSegments(dir string) ([]Segment, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list segment directory: %w", err)
	}

	segments := make([]Segment, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		match := segmentNamePattern.FindStringSubmatch(entry.Name())
		if match == nil {
			continue
		}
		index, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		segments = append(segments, Segment{Index: index, Path: filepath.Join(dir, entry.Name())})
	}

	sort.Slice(segments, func(i, j int) bool {
		return segments[i].Index < segments[j].Index
	})
	return segments, nil
}

func baseWithoutExt(path string) string {
	base := filepath.Base(path)
	return base[:len(base)-len(filepath.Ext(base))]
}

func lastDiagnosticLine(output string) string {
	lines := bytes.Split(bytes.TrimSpace([]byte(output)), []byte("\n"))
	for i := len(lines) - 1; i >= 0; i-- {
		line := bytes.TrimSpace(lines[i])
		if len(line) > 0 {
			return string(line)
		}
	}
	return ""
}
