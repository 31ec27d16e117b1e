package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"batchscribe/internal/config"
	"batchscribe/internal/logging"
	"batchscribe/internal/platform"
	"batchscribe/internal/version"
)

type appState struct {
	verbose    bool
	jsonLogs   bool
	noProgress bool
	noColor    bool
	configPath string

	format         string
	model          string
	modelDir       string
	language       string
	device         string
	segmentSeconds int
	keepSegments   bool
	autoDownload   bool

	cfg    config.Config
	logger *zap.Logger
	out    io.Writer

	transcribeFn func(cmd *cobra.Command, sourcePaths []string) error
	statusFn     func(cmd *cobra.Command) error
}

func NewRootCmd() *cobra.Command {
	app := &appState{out: os.Stdout}
	app.transcribeFn = app.runBatch
	app.statusFn = app.renderStatus

	cmd := &cobra.Command{
		Use:           "batchscribe",
		Short:         "Transcribe batches of media files into timestamped documents",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version.Resolve(),
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := logging.New(logging.Options{Verbose: app.verbose, JSON: app.jsonLogs, NoColor: app.noColor})
			if err != nil {
				return fmt.Errorf("initialize logger: %w", err)
			}
			app.logger = logger

			if err := app.loadConfig(cmd); err != nil {
				return err
			}
			return nil
		},
	}

	cmd.SetVersionTemplate("{{.Name}} v{{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&app.verbose, "verbose", false, "Enable verbose logs")
	cmd.PersistentFlags().BoolVar(&app.jsonLogs, "json", false, "Enable JSON logging")
	cmd.PersistentFlags().BoolVar(&app.noProgress, "no-progress", false, "Disable progress indicators")
	cmd.PersistentFlags().BoolVar(&app.noColor, "no-color", false, "Disable colored status output")
	cmd.PersistentFlags().StringVar(&app.configPath, "config", "", "Config file path (default: user config dir)")

	cmd.AddCommand(newTranscribeCmd(app))
	cmd.AddCommand(newStatusCmd(app))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// loadConfig layers defaults, the config file and any changed flags.
func (a *appState) loadConfig(cmd *cobra.Command) error {
	configPath := a.configPath
	if configPath == "" {
		resolved, err := config.DefaultPath()
		if err != nil {
			a.log().Debug("no user config dir; using defaults", zap.Error(err))
		} else {
			configPath = resolved
		}
	}

	dataDir, err := platform.ResolveDataDir()
	if err != nil {
		return err
	}

	cfg, err := config.Load(configPath, dataDir)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.applyFlagOverrides(cmd)
	return nil
}

func (a *appState) applyFlagOverrides(cmd *cobra.Command) {
	flags := cmd.Flags()
	if flags.Changed("model") {
		a.cfg.Transcription.Model = a.model
	}
	if flags.Changed("model-dir") {
		a.cfg.Transcription.ModelDir = a.modelDir
	}
	if flags.Changed("language") {
		a.cfg.Transcription.Language = sanitizeLanguage(a.language)
	}
	if flags.Changed("device") {
		a.cfg.Transcription.Device = a.device
	}
	if flags.Changed("segment-seconds") {
		a.cfg.Segmenter.SegmentSeconds = a.segmentSeconds
	}
	if flags.Changed("keep-segments") {
		a.cfg.Segmenter.KeepSegments = a.keepSegments
	}
	if flags.Changed("auto-download") {
		a.cfg.Transcription.AutoDownload = a.autoDownload
	}
}

func bindTranscriptionFlags(cmd *cobra.Command, app *appState) {
	cmd.Flags().StringVar(&app.model, "model", "small", "Model name or model file path")
	cmd.Flags().StringVar(&app.modelDir, "model-dir", "", "Directory where models are stored")
	cmd.Flags().StringVar(&app.language, "language", "auto", "Language code (auto|en|es|...) for transcription")
	cmd.Flags().StringVar(&app.device, "device", "auto", "Compute device: auto|cpu")
	cmd.Flags().BoolVar(&app.autoDownload, "auto-download", true, "Automatically download missing models")
}

func bindSegmenterFlags(cmd *cobra.Command, app *appState) {
	cmd.Flags().IntVar(&app.segmentSeconds, "segment-seconds", 1800, "Maximum segment duration in seconds")
	cmd.Flags().BoolVar(&app.keepSegments, "keep-segments", false, "Keep intermediate audio segments on disk")
}

func (a *appState) log() *zap.Logger {
	if a.logger == nil {
		return zap.NewNop()
	}
	return a.logger
}

func (a *appState) outWriter() io.Writer {
	if a.out == nil {
		return os.Stdout
	}
	return a.out
}

func (a *appState) colorEnabled() bool {
	if a.noColor {
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd())
}

func (a *appState) progressEnabled() bool {
	if a.noProgress {
		return false
	}
	return term.IsTerminal(int(os.Stderr.Fd()))
}

func sanitizeLanguage(input string) string {
	trimmed := strings.TrimSpace(strings.ToLower(input))
	if trimmed == "" {
		return "auto"
	}
	return trimmed
}
