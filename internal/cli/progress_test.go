package cli

import (
	"testing"

	"github.com/stretchr/testify/require"

	"batchscribe/internal/pipeline"
	"batchscribe/internal/registry"
)

func TestBatchProgressDisabledIgnoresEvents(t *testing.T) {
	t.Parallel()

	progress := newBatchProgress(false)
	progress.Observe(pipeline.Event{FileName: "a.mp4", Status: registry.Processing()})
	progress.Observe(pipeline.Event{FileName: "a.mp4", Status: registry.Transcribing(50)})
	progress.Stop()

	require.Nil(t, progress.bar)
}

func TestBatchProgressSwitchesBetweenSpinnerAndBar(t *testing.T) {
	t.Parallel()

	progress := newBatchProgress(true)

	progress.Observe(pipeline.Event{FileName: "a.mp4", Status: registry.Processing()})
	require.NotNil(t, progress.bar)
	require.False(t, progress.percent)

	progress.Observe(pipeline.Event{FileName: "a.mp4", Status: registry.Transcribing(40)})
	require.NotNil(t, progress.bar)
	require.True(t, progress.percent)
	require.Equal(t, "a.mp4", progress.fileName)

	progress.Observe(pipeline.Event{FileName: "a.mp4", Status: registry.Finished()})
	require.Nil(t, progress.bar)

	progress.Stop()
}

func TestBatchProgressStopIsIdempotent(t *testing.T) {
	t.Parallel()

	progress := newBatchProgress(true)
	progress.Observe(pipeline.Event{FileName: "a.mp4", Status: registry.Fragmenting()})
	progress.Stop()
	progress.Stop()
}
