package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"batchscribe/internal/audio"
	"batchscribe/internal/document"
	"batchscribe/internal/download"
	"batchscribe/internal/pipeline"
	"batchscribe/internal/registry"
	"batchscribe/internal/whisper"
)

func newTranscribeCmd(app *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transcribe <media-file>...",
		Short: "Transcribe a batch of media files",
		Long: "Transcribe converts each file to normalized audio, splits it into " +
			"bounded segments, runs each segment through the speech model and " +
			"writes one document per file. Files already finished or failed in " +
			"the registry are skipped.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.transcribeFn(cmd, args)
		},
	}

	cmd.Flags().StringVar(&app.format, "format", "", "Output format: txt|docx|pdf (default from config)")
	bindTranscriptionFlags(cmd, app)
	bindSegmenterFlags(cmd, app)
	return cmd
}

func (a *appState) runBatch(cmd *cobra.Command, sourcePaths []string) error {
	ctx := cmd.Context()

	format, err := a.resolveFormat()
	if err != nil {
		return err
	}

	for _, sourcePath := range sourcePaths {
		if _, err := os.Stat(sourcePath); err != nil {
			return fmt.Errorf("media file not found: %s", sourcePath)
		}
	}

	if err := a.cfg.EnsureDirectories(); err != nil {
		return err
	}

	reg, closeStore, err := a.openRegistry()
	if err != nil {
		return err
	}
	defer closeStore()

	model, err := a.ensureModelAvailable(ctx)
	if err != nil {
		return err
	}

	engine, err := whisper.NewCLIEngine(a.cfg.Transcription.EnginePath, a.log())
	if err != nil {
		return err
	}

	orch := pipeline.New(
		reg,
		audio.NewSegmenter(a.cfg.Segmenter.FFmpegPath, a.log()),
		engine,
		pipeline.Options{
			WorkDir:          a.cfg.Paths.WorkDir,
			OutputDir:        a.cfg.Paths.OutputDir,
			SegmentSeconds:   a.cfg.Segmenter.SegmentSeconds,
			KeepSegments:     a.cfg.Segmenter.KeepSegments,
			OffsetTimestamps: a.cfg.Output.OffsetTimestamps,
			SilenceGate:      a.cfg.Segmenter.SilenceGate,
			SilenceDBFS:      a.cfg.Segmenter.SilenceDBFS,
			ModelPath:        model.Path,
			Language:         a.cfg.Transcription.Language,
			Device:           a.cfg.Transcription.Device,
		},
		a.log(),
	)

	progress := newBatchProgress(a.progressEnabled())
	orch.OnProgress = func(event pipeline.Event) {
		progress.Observe(event)
		a.log().Debug("progress",
			zap.String("file", event.FileName),
			zap.String("status", event.Status.String()))
	}

	runErr := orch.Run(ctx, sourcePaths, format)
	progress.Stop()
	if runErr != nil {
		return runErr
	}

	fmt.Fprintln(a.outWriter(), renderJobTable(reg.Snapshot(), a.colorEnabled()))
	return nil
}

func (a *appState) resolveFormat() (document.Format, error) {
	raw := a.format
	if raw == "" {
		raw = a.cfg.Output.DefaultFormat
	}
	return document.ParseFormat(raw)
}

// openRegistry builds the registry on the configured backing store.
func (a *appState) openRegistry() (*registry.Registry, func(), error) {
	switch a.cfg.Registry.Backend {
	case "sqlite":
		store, err := registry.OpenSQLiteStore(a.cfg.Paths.RegistryPath)
		if err != nil {
			return nil, nil, err
		}
		return registry.New(store, a.log()), func() { _ = store.Close() }, nil
	default:
		store, err := registry.NewFileStore(a.cfg.Paths.RegistryPath)
		if err != nil {
			return nil, nil, err
		}
		return registry.New(store, a.log()), func() {}, nil
	}
}

func (a *appState) ensureModelAvailable(ctx context.Context) (whisper.ResolvedModel, error) {
	modelDir := a.cfg.Transcription.ModelDir
	if err := os.MkdirAll(modelDir, 0o755); err != nil {
		return whisper.ResolvedModel{}, fmt.Errorf("create model directory %s: %w", modelDir, err)
	}

	resolved, err := whisper.ResolveModel(a.cfg.Transcription.Model, modelDir)
	if err != nil {
		return whisper.ResolvedModel{}, err
	}

	if !resolved.NeedsDownload {
		return resolved, nil
	}

	if !a.cfg.Transcription.AutoDownload {
		return whisper.ResolvedModel{}, fmt.Errorf("model %q is missing at %s; download it or set transcription.auto_download", resolved.Name, resolved.Path)
	}

	a.log().Info("model not found, downloading",
		zap.String("model", resolved.Name),
		zap.String("destination", filepath.Dir(resolved.Path)))
	if err := download.DownloadFile(ctx, download.Options{
		URL:            resolved.URL,
		Destination:    resolved.Path,
		ExpectedSHA256: resolved.SHA256,
		NoProgress:     a.noProgress,
		Logger:         a.log(),
	}); err != nil {
		return whisper.ResolvedModel{}, fmt.Errorf("download model %q: %w", resolved.Name, err)
	}

	resolved.NeedsDownload = false
	return resolved, nil
}
