// Package config loads the batchscribe configuration from a TOML file,
// layering file values over repository defaults and validating the result.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Paths contains directory and registry location configuration.
type Paths struct {
	WorkDir      string `toml:"work_dir"`
	OutputDir    string `toml:"output_dir"`
	RegistryPath string `toml:"registry_path"`
}

// Transcription configures the speech-to-text engine.
type Transcription struct {
	Model        string `toml:"model"`
	ModelDir     string `toml:"model_dir"`
	Language     string `toml:"language"`
	Device       string `toml:"device"`
	AutoDownload bool   `toml:"auto_download"`
	EnginePath   string `toml:"engine_path"`
}

// Segmenter configures audio normalization and splitting.
type Segmenter struct {
	FFmpegPath     string  `toml:"ffmpeg_path"`
	SegmentSeconds int     `toml:"segment_seconds"`
	KeepSegments   bool    `toml:"keep_segments"`
	SilenceGate    bool    `toml:"silence_gate"`
	SilenceDBFS    float64 `toml:"silence_threshold_dbfs"`
}

// Registry selects the job registry backend.
type Registry struct {
	Backend string `toml:"backend"` // json or sqlite
}

// Output configures document generation.
type Output struct {
	DefaultFormat    string `toml:"default_format"`
	OffsetTimestamps bool   `toml:"offset_timestamps"`
}

type Config struct {
	Paths         Paths         `toml:"paths"`
	Transcription Transcription `toml:"transcription"`
	Segmenter     Segmenter     `toml:"segmenter"`
	Registry      Registry      `toml:"registry"`
	Output        Output        `toml:"output"`
}

const (
	defaultLanguage       = "auto"
	defaultDevice         = "auto"
	defaultSegmentSeconds = 1800
	defaultSilenceDBFS    = -65
	defaultFormat         = "pdf"
	defaultBackend        = "json"
	registryFileName      = "file_registry.json"
	registryDBName        = "file_registry.db"
)

// Default returns a Config populated with repository defaults. Directory
// fields stay empty until resolved against the user's data dir in Load.
func Default() Config {
	return Config{
		Transcription: Transcription{
			Model:        "small",
			Language:     defaultLanguage,
			Device:       defaultDevice,
			AutoDownload: true,
		},
		Segmenter: Segmenter{
			SegmentSeconds: defaultSegmentSeconds,
			SilenceGate:    true,
			SilenceDBFS:    defaultSilenceDBFS,
		},
		Registry: Registry{Backend: defaultBackend},
		Output: Output{
			DefaultFormat:    defaultFormat,
			OffsetTimestamps: true,
		},
	}
}

// DefaultPath returns the conventional config file location.
func DefaultPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(configDir, "batchscribe", "config.toml"), nil
}

// Load reads the file at path when it exists, fills unset fields with
// defaults and resolves relative/home-based directories. A missing file is
// not an error; the defaults apply.
func Load(path string, dataDir string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := toml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		case errors.Is(err, fs.ErrNotExist):
			// defaults only
		default:
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg.applyDataDir(dataDir)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyDataDir(dataDir string) {
	if c.Paths.WorkDir == "" {
		c.Paths.WorkDir = filepath.Join(dataDir, "work")
	}
	if c.Paths.OutputDir == "" {
		c.Paths.OutputDir = filepath.Join(dataDir, "transcripts")
	}
	if c.Paths.RegistryPath == "" {
		name := registryFileName
		if c.Registry.Backend == "sqlite" {
			name = registryDBName
		}
		c.Paths.RegistryPath = filepath.Join(dataDir, name)
	}
	if c.Transcription.ModelDir == "" {
		c.Transcription.ModelDir = filepath.Join(dataDir, "models")
	}
}

func (c *Config) Validate() error {
	if c.Segmenter.SegmentSeconds <= 0 {
		return fmt.Errorf("segmenter.segment_seconds must be positive, got %d", c.Segmenter.SegmentSeconds)
	}

	switch strings.ToLower(c.Registry.Backend) {
	case "json", "sqlite":
		c.Registry.Backend = strings.ToLower(c.Registry.Backend)
	default:
		return fmt.Errorf("registry.backend must be json or sqlite, got %q", c.Registry.Backend)
	}

	switch strings.ToLower(c.Transcription.Device) {
	case "auto", "cpu":
		c.Transcription.Device = strings.ToLower(c.Transcription.Device)
	default:
		return fmt.Errorf("transcription.device must be auto or cpu, got %q", c.Transcription.Device)
	}

	return nil
}

// EnsureDirectories creates the work, output and model directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.WorkDir, c.Paths.OutputDir, c.Transcription.ModelDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}
