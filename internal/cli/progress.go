package cli

import (
	"os"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"

	"batchscribe/internal/pipeline"
	"batchscribe/internal/registry"
)

// batchProgress turns pipeline events into a single terminal bar: a
// spinner while a file is being prepared, a percent bar while its
// segments are transcribed.
type batchProgress struct {
	enabled bool

	mu       sync.Mutex
	fileName string
	percent  bool
	bar      *progressbar.ProgressBar
	stopCh   chan struct{}
	doneCh   chan struct{}
}

func newBatchProgress(enabled bool) *batchProgress {
	return &batchProgress{enabled: enabled}
}

func (p *batchProgress) Observe(event pipeline.Event) {
	if !p.enabled {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	switch event.Status.Phase {
	case registry.PhaseTranscribing:
		if p.bar == nil || !p.percent || p.fileName != event.FileName {
			p.replaceLocked(event.FileName, true)
		}
		_ = p.bar.Set(event.Status.Percent)
	case registry.PhaseFinished, registry.PhaseError:
		p.closeLocked()
	default:
		if p.bar == nil || p.percent || p.fileName != event.FileName {
			p.replaceLocked(event.FileName, false)
		}
		p.bar.Describe(event.Status.String() + " " + event.FileName)
	}
}

func (p *batchProgress) Stop() {
	if !p.enabled {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closeLocked()
}

func (p *batchProgress) replaceLocked(fileName string, percent bool) {
	p.closeLocked()

	p.fileName = fileName
	p.percent = percent

	if percent {
		p.bar = progressbar.NewOptions(
			100,
			progressbar.OptionSetDescription("Transcribing "+fileName),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetWidth(20),
			progressbar.OptionSetPredictTime(false),
			progressbar.OptionThrottle(65*time.Millisecond),
			progressbar.OptionClearOnFinish(),
		)
		return
	}

	p.bar = progressbar.NewOptions(
		-1,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionThrottle(80*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)

	// Spinners only animate on Add; tick them between events.
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	go func(bar *progressbar.ProgressBar, stopCh, doneCh chan struct{}) {
		defer close(doneCh)
		ticker := time.NewTicker(120 * time.Millisecond)
		defer ticker.Stop()

		for {
			select {
			case <-stopCh:
				return
			case <-ticker.C:
				_ = bar.Add(1)
			}
		}
	}(p.bar, p.stopCh, p.doneCh)
}

func (p *batchProgress) closeLocked() {
	if p.stopCh != nil {
		close(p.stopCh)
		<-p.doneCh
		p.stopCh = nil
		p.doneCh = nil
	}
	if p.bar != nil {
		_ = p.bar.Finish()
		_ = p.bar.Clear()
		p.bar = nil
	}
	p.fileName = ""
	p.percent = false
}
