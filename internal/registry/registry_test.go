package registry

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRegisterSetsPendingWithEmptyFields(t *testing.T) {
	t.Parallel()

	reg := New(NewMemoryStore(), zap.NewNop())
	job := reg.Register("lecture.mp4")

	require.Equal(t, Pending(), job.Status)
	require.False(t, job.Elapsed.Valid)
	require.Equal(t, "-", job.Elapsed.String())
	require.Empty(t, job.DownloadLink)
}

func TestRegisterIsIdempotentForTerminalJobs(t *testing.T) {
	t.Parallel()

	reg := New(NewMemoryStore(), zap.NewNop())
	reg.Register("done.mp4")
	reg.UpdateStatus("done.mp4", Finished(), WithElapsed(ElapsedSeconds(12.34)), WithDownloadLink("/out/done.pdf"))
	reg.Register("failed.mp4")
	reg.UpdateStatus("failed.mp4", Failed("conversion failed"))

	done := reg.Register("done.mp4")
	require.Equal(t, Finished(), done.Status)
	require.Equal(t, 12.34, done.Elapsed.Seconds)
	require.Equal(t, "/out/done.pdf", done.DownloadLink)

	failed := reg.Register("failed.mp4")
	require.Equal(t, Failed("conversion failed"), failed.Status)
	require.False(t, failed.Elapsed.Valid)
	require.Empty(t, failed.DownloadLink)
}

func TestUpdateStatusSurvivesReload(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "file_registry.json")
	store, err := NewFileStore(path)
	require.NoError(t, err)

	reg := New(store, zap.NewNop())
	reg.Register("talk.mkv")
	reg.UpdateStatus("talk.mkv", Transcribing(50))

	// A fresh load simulates a process restart.
	store2, err := NewFileStore(path)
	require.NoError(t, err)
	reg2 := New(store2, zap.NewNop())

	job, ok := reg2.Get("talk.mkv")
	require.True(t, ok)
	require.Equal(t, Transcribing(50), job.Status)
}

func TestNewRecoversFromCorruptDocument(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "file_registry.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	store, err := NewFileStore(path)
	require.NoError(t, err)

	reg := New(store, zap.NewNop())
	require.Empty(t, reg.Snapshot())
}

func TestNewRecoversFromMissingDocument(t *testing.T) {
	t.Parallel()

	store, err := NewFileStore(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)

	reg := New(store, zap.NewNop())
	require.Empty(t, reg.Snapshot())
}

func TestSnapshotSortedByFileName(t *testing.T) {
	t.Parallel()

	reg := New(NewMemoryStore(), zap.NewNop())
	reg.Register("c.mp4")
	reg.Register("a.mp4")
	reg.Register("b.mp4")

	snapshot := reg.Snapshot()
	require.Len(t, snapshot, 3)
	require.Equal(t, "a.mp4", snapshot[0].FileName)
	require.Equal(t, "b.mp4", snapshot[1].FileName)
	require.Equal(t, "c.mp4", snapshot[2].FileName)
}

type failingStore struct{}

func (failingStore) Load() (map[string]Job, error) { return map[string]Job{}, nil }
func (failingStore) Save(map[string]Job) error     { return errors.New("disk full") }

func TestPersistFailureKeepsMemoryAuthoritative(t *testing.T) {
	t.Parallel()

	reg := New(failingStore{}, zap.NewNop())
	reg.Register("talk.mp4")
	reg.UpdateStatus("talk.mp4", Processing())

	job, ok := reg.Get("talk.mp4")
	require.True(t, ok)
	require.Equal(t, Processing(), job.Status)
}

func TestJobRoundTripPreservesUnknownFields(t *testing.T) {
	t.Parallel()

	raw := []byte(`{"status":"Finished","time":3.5,"download_link":"/out/a.pdf","owner":"ops","priority":7}`)

	var job Job
	require.NoError(t, json.Unmarshal(raw, &job))
	require.Equal(t, Finished(), job.Status)
	require.Equal(t, 3.5, job.Elapsed.Seconds)

	out, err := json.Marshal(job)
	require.NoError(t, err)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(out, &doc))
	require.JSONEq(t, `"ops"`, string(doc["owner"]))
	require.JSONEq(t, `7`, string(doc["priority"]))
}

func TestElapsedMarshalsSentinelWhenUnset(t *testing.T) {
	t.Parallel()

	out, err := json.Marshal(Job{FileName: "x.mp4", Status: Pending()})
	require.NoError(t, err)
	require.JSONEq(t, `{"status":"Pending","time":"-","download_link":""}`, string(out))
}

func TestFileStoreDocumentShape(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "file_registry.json")
	store, err := NewFileStore(path)
	require.NoError(t, err)

	reg := New(store, zap.NewNop())
	reg.Register("talk.mp4")
	reg.UpdateStatus("talk.mp4", Finished(), WithElapsed(ElapsedSeconds(8.123)), WithDownloadLink("/out/talk.txt"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc map[string]map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	entry := doc["talk.mp4"]
	require.Equal(t, "Finished", entry["status"])
	require.Equal(t, 8.12, entry["time"])
	require.Equal(t, "/out/talk.txt", entry["download_link"])
}
