package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"go.uber.org/zap"

	"batchscribe/internal/transcript"
)

// CLIEngine runs the whisper-cli binary and reads its JSON output, which
// carries millisecond offsets per emitted line.
type CLIEngine struct {
	Executable string
	Logger     *zap.Logger
}

// NewCLIEngine locates the whisper engine binary. The explicit path wins,
// then the BATCHSCRIBE_WHISPER_PATH override, then a PATH lookup.
func NewCLIEngine(executable string, logger *zap.Logger) (*CLIEngine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if strings.TrimSpace(executable) != "" {
		if err := ensureExecutable(executable); err != nil {
			return nil, fmt.Errorf("configured whisper engine is not executable: %w", err)
		}
		return &CLIEngine{Executable: executable, Logger: logger}, nil
	}

	if override := strings.TrimSpace(os.Getenv("BATCHSCRIBE_WHISPER_PATH")); override != "" {
		if err := ensureExecutable(override); err != nil {
			return nil, fmt.Errorf("BATCHSCRIBE_WHISPER_PATH is not executable: %w", err)
		}
		return &CLIEngine{Executable: override, Logger: logger}, nil
	}

	found, err := exec.LookPath("whisper-cli")
	if err != nil {
		return nil, fmt.Errorf("whisper-cli not found on PATH; install whisper.cpp or set BATCHSCRIBE_WHISPER_PATH: %w", err)
	}
	return &CLIEngine{Executable: found, Logger: logger}, nil
}

// engineOutput is the shape of whisper-cli -oj output; only the parts the
// pipeline consumes are declared.
type engineOutput struct {
	Transcription []struct {
		Offsets struct {
			From int64 `json:"from"`
			To   int64 `json:"to"`
		} `json:"offsets"`
		Text string `json:"text"`
	} `json:"transcription"`
}

func (e *CLIEngine) Transcribe(ctx context.Context, req Request) ([]transcript.Span, error) {
	if strings.TrimSpace(req.AudioPath) == "" {
		return nil, &TranscriptionError{Err: errors.New("audio path is required")}
	}
	if strings.TrimSpace(req.ModelPath) == "" {
		return nil, &TranscriptionError{AudioPath: req.AudioPath, Err: errors.New("model path is required")}
	}

	outBase := filepath.Join(os.TempDir(), fmt.Sprintf("batchscribe-%d", time.Now().UnixNano()))
	jsonOut := outBase + ".json"

	args := []string{"-m", req.ModelPath, "-f", req.AudioPath, "-oj", "-of", outBase}
	lang := strings.TrimSpace(req.Language)
	if lang != "" && lang != "auto" {
		args = append(args, "-l", lang)
	}
	if req.Device == "cpu" {
		args = append(args, "-ng")
	}

	cmd := exec.CommandContext(ctx, e.Executable, args...)
	var stderr bytes.Buffer
	cmd.Stdout = io.Discard
	cmd.Stderr = &stderr

	e.Logger.Debug("running whisper engine", zap.String("engine", e.Executable), zap.Strings("args", args))
	if err := cmd.Run(); err != nil {
		return nil, &TranscriptionError{AudioPath: req.AudioPath, Err: classifyEngineFailure(e.Executable, err, stderr.String())}
	}

	defer os.Remove(jsonOut)
	content, err := os.ReadFile(jsonOut)
	if err != nil {
		return nil, &TranscriptionError{AudioPath: req.AudioPath, Err: fmt.Errorf("read engine output: %w", err)}
	}

	spans, err := ParseEngineOutput(content)
	if err != nil {
		return nil, &TranscriptionError{AudioPath: req.AudioPath, Err: err}
	}
	return spans, nil
}

// ParseEngineOutput decodes whisper-cli JSON into spans with second-based
// offsets, preserving the engine's emitted order.
func ParseEngineOutput(data []byte) ([]transcript.Span, error) {
	var parsed engineOutput
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("decode engine output: %w", err)
	}

	spans := make([]transcript.Span, 0, len(parsed.Transcription))
	for _, line := range parsed.Transcription {
		text := strings.TrimSpace(line.Text)
		if text == "" {
			continue
		}
		spans = append(spans, transcript.Span{
			Start: float64(line.Offsets.From) / 1000.0,
			End:   float64(line.Offsets.To) / 1000.0,
			Text:  text,
		})
	}
	return spans, nil
}

func classifyEngineFailure(executable string, err error, stderrText string) error {
	diagnostic := strings.TrimSpace(stderrText)
	if isMissingSharedLibraryError(diagnostic) {
		return fmt.Errorf("whisper engine at %s is missing required shared libraries (%s)", executable, diagnostic)
	}
	if isIllegalInstructionError(diagnostic) || isIllegalInstructionError(err.Error()) {
		return fmt.Errorf("whisper engine crashed with an illegal CPU instruction; point BATCHSCRIBE_WHISPER_PATH at a build for this CPU")
	}
	if diagnostic != "" {
		return fmt.Errorf("whisper engine failed: %w (%s)", err, diagnostic)
	}
	return fmt.Errorf("whisper engine failed: %w", err)
}

func ensureExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	if runtime.GOOS != "windows" && info.Mode()&0o111 == 0 {
		return fmt.Errorf("%s is not executable", path)
	}
	return nil
}

func isMissingSharedLibraryError(stderrText string) bool {
	value := strings.ToLower(strings.TrimSpace(stderrText))
	if value == "" {
		return false
	}

	patterns := []string{
		"error while loading shared libraries",
		"cannot open shared object file",
		"dyld: library not loaded",
		"image not found",
	}
	for _, pattern := range patterns {
		if strings.Contains(value, pattern) {
			return true
		}
	}
	return false
}

func isIllegalInstructionError(stderrText string) bool {
	return strings.Contains(strings.ToLower(stderrText), "illegal instruction")
}
