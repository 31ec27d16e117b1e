// Package pipeline drives one submitted file from Pending through
// conversion, segmentation, per-segment transcription, document generation
// and terminal Finished/Error, recording every transition in the job
// registry before any observer hears about it.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"batchscribe/internal/audio"
	"batchscribe/internal/document"
	"batchscribe/internal/registry"
	"batchscribe/internal/transcript"
	"batchscribe/internal/whisper"
)

// Segmenter is the audio preparation stage.
type Segmenter interface {
	Normalize(ctx context.Context, sourcePath, workDir string) (string, error)
	Split(ctx context.Context, wavPath string, segmentSeconds int) ([]audio.Segment, error)
}

// EmitFunc serializes an assembled transcript into a document.
type EmitFunc func(tr transcript.Transcript, format document.Format, outputPath string) error

// Event is one observed status transition of one file.
type Event struct {
	FileName string
	Status   registry.Status
}

// Options carries the per-run pipeline configuration.
type Options struct {
	WorkDir          string
	OutputDir        string
	SegmentSeconds   int
	KeepSegments     bool
	OffsetTimestamps bool
	SilenceGate      bool
	SilenceDBFS      float64
	ModelPath        string
	Language         string
	Device           string
}

// Orchestrator runs batches sequentially: one file at a time in submission
// order, one segment at a time in index order.
type Orchestrator struct {
	Registry  *registry.Registry
	Segmenter Segmenter
	Engine    whisper.Engine
	Emit      EmitFunc
	Options   Options
	Logger    *zap.Logger

	// OnProgress, when set, fires after each status transition has been
	// persisted. The persisted registry never lags what observers see.
	OnProgress func(Event)

	now      func() time.Time
	silentFn func(path string, thresholdDBFS float64) (bool, audio.GateMetrics, error)
}

func New(reg *registry.Registry, segmenter Segmenter, engine whisper.Engine, opts Options, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.SegmentSeconds <= 0 {
		opts.SegmentSeconds = audio.DefaultSegmentSeconds
	}
	return &Orchestrator{
		Registry:  reg,
		Segmenter: segmenter,
		Engine:    engine,
		Emit:      document.Emit,
		Options:   opts,
		Logger:    logger,
		now:       time.Now,
		silentFn:  audio.IsSilentSegment,
	}
}

// Run registers every file in the batch and processes the Pending ones in
// order. A stage failure marks that file's job as a terminal error and the
// batch moves on; one bad file never aborts the rest. Cancellation is the
// exception: it stops the batch.
func (o *Orchestrator) Run(ctx context.Context, sourcePaths []string, format document.Format) error {
	if len(sourcePaths) == 0 {
		return errors.New("no files submitted")
	}

	for _, sourcePath := range sourcePaths {
		o.Registry.Register(filepath.Base(sourcePath))
	}

	for _, sourcePath := range sourcePaths {
		fileName := filepath.Base(sourcePath)

		job, ok := o.Registry.Get(fileName)
		if ok && job.Status.Phase != registry.PhasePending {
			o.Logger.Info("skipping already-processed file",
				zap.String("file", fileName),
				zap.String("status", job.Status.String()))
			continue
		}

		if err := o.processFile(ctx, sourcePath, fileName, format); err != nil {
			o.setStatus(fileName, registry.Failed(shortMessage(err)))
			o.Logger.Warn("file failed", zap.String("file", fileName), zap.Error(err))

			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
		}
	}
	return nil
}

func (o *Orchestrator) processFile(ctx context.Context, sourcePath, fileName string, format document.Format) error {
	start := o.clock()()

	o.setStatus(fileName, registry.Processing())

	// Each job works in its own directory so identical basenames from
	// different runs never clobber each other on disk.
	workDir := filepath.Join(o.Options.WorkDir, jobDirName(fileName))
	if !o.Options.KeepSegments {
		defer func() {
			if err := os.RemoveAll(workDir); err != nil {
				o.Logger.Warn("failed to remove work directory", zap.String("dir", workDir), zap.Error(err))
			}
		}()
	}

	wavPath, err := o.Segmenter.Normalize(ctx, sourcePath, workDir)
	if err != nil {
		return err
	}

	o.setStatus(fileName, registry.Fragmenting())

	segments, err := o.Segmenter.Split(ctx, wavPath, o.Options.SegmentSeconds)
	if err != nil {
		return err
	}

	o.setStatus(fileName, registry.Transcribing(0))

	spanLists := make([][]transcript.Span, 0, len(segments))
	for done, segment := range segments {
		if err := ctx.Err(); err != nil {
			return err
		}

		spans, err := o.transcribeSegment(ctx, segment)
		if err != nil {
			return err
		}
		spanLists = append(spanLists, spans)

		progress := (done + 1) * 100 / len(segments)
		o.setStatus(fileName, registry.Transcribing(progress))
	}

	var assembleOpts []transcript.Option
	if o.Options.OffsetTimestamps {
		assembleOpts = append(assembleOpts, transcript.OffsetBySegment(float64(o.Options.SegmentSeconds)))
	}
	assembled := transcript.Assemble(spanLists, assembleOpts...)

	o.setStatus(fileName, registry.GeneratingDocument())

	if err := os.MkdirAll(o.Options.OutputDir, 0o755); err != nil {
		return &document.EmitError{Path: o.Options.OutputDir, Format: format, Err: err}
	}
	outputPath := filepath.Join(o.Options.OutputDir, document.OutputFileName(fileName, format))
	if err := o.emit(assembled, format, outputPath); err != nil {
		return err
	}

	elapsed := registry.ElapsedSeconds(o.clock()().Sub(start).Seconds())
	o.setStatus(fileName, registry.Finished(),
		registry.WithElapsed(elapsed),
		registry.WithDownloadLink(outputPath))

	o.Logger.Info("file finished",
		zap.String("file", fileName),
		zap.String("output", outputPath),
		zap.String("elapsed", elapsed.String()))
	return nil
}

func (o *Orchestrator) transcribeSegment(ctx context.Context, segment audio.Segment) ([]transcript.Span, error) {
	if o.Options.SilenceGate {
		silent, metrics, err := o.silenceCheck()(segment.Path, o.Options.SilenceDBFS)
		if err != nil {
			o.Logger.Warn("silence gate analysis failed; transcribing anyway",
				zap.String("segment", segment.Path), zap.Error(err))
		} else if silent {
			o.Logger.Info("segment considered silent; skipping transcription",
				zap.String("segment", segment.Path),
				zap.Float64("rms_dbfs", metrics.RMSdBFS))
			return nil, nil
		}
	}

	return o.Engine.Transcribe(ctx, whisper.Request{
		AudioPath: segment.Path,
		ModelPath: o.Options.ModelPath,
		Language:  o.Options.Language,
		Device:    o.Options.Device,
	})
}

// setStatus persists the transition, then reports it.
func (o *Orchestrator) setStatus(fileName string, status registry.Status, opts ...registry.UpdateOption) {
	o.Registry.UpdateStatus(fileName, status, opts...)
	if o.OnProgress != nil {
		o.OnProgress(Event{FileName: fileName, Status: status})
	}
}

func (o *Orchestrator) emit(tr transcript.Transcript, format document.Format, outputPath string) error {
	if o.Emit == nil {
		return document.Emit(tr, format, outputPath)
	}
	return o.Emit(tr, format, outputPath)
}

func (o *Orchestrator) clock() func() time.Time {
	if o.now == nil {
		return time.Now
	}
	return o.now
}

func (o *Orchestrator) silenceCheck() func(string, float64) (bool, audio.GateMetrics, error) {
	if o.silentFn == nil {
		return audio.IsSilentSegment
	}
	return o.silentFn
}

func jobDirName(fileName string) string {
	base := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	return fmt.Sprintf("%s-%s", base, uuid.NewString()[:8])
}

// shortMessage condenses a stage error into the one-line diagnostic shown
// in the status table.
func shortMessage(err error) string {
	message := strings.Join(strings.Fields(err.Error()), " ")
	const limit = 200
	if len(message) > limit {
		message = message[:limit] + "..."
	}
	return message
}
