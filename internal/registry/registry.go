// Package registry tracks submitted files through the transcription
// pipeline. The canonical job map lives in one durable document owned by a
// Store; the Registry front-end serializes writes and persists the whole
// document on every mutation so observers never see a status the store has
// not recorded yet.
package registry

import (
	"sort"
	"sync"

	"go.uber.org/zap"
)

type Registry struct {
	mu     sync.Mutex
	store  Store
	jobs   map[string]Job
	logger *zap.Logger
}

// New loads the backing document into memory. A missing or corrupt document
// is recovered as an empty registry; callers never fail on load.
func New(store Store, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}

	jobs, err := store.Load()
	if err != nil {
		logger.Warn("registry document unreadable; starting empty", zap.Error(err))
		jobs = map[string]Job{}
	}
	if jobs == nil {
		jobs = map[string]Job{}
	}

	return &Registry{store: store, jobs: jobs, logger: logger}
}

// Register inserts a Pending entry for the file if it is not already known.
// Re-registering is a no-op regardless of the existing status, so finished
// or failed files keep their state on re-upload.
func (r *Registry) Register(fileName string) Job {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.jobs[fileName]; ok {
		return existing
	}

	job := Job{FileName: fileName, Status: Pending()}
	r.jobs[fileName] = job
	r.persistLocked()
	return job
}

// UpdateOption mutates fields alongside a status change.
type UpdateOption func(*Job)

func WithElapsed(elapsed Elapsed) UpdateOption {
	return func(j *Job) { j.Elapsed = elapsed }
}

func WithDownloadLink(link string) UpdateOption {
	return func(j *Job) { j.DownloadLink = link }
}

// UpdateStatus overwrites the job's status (plus any optional fields) and
// persists the whole document before returning, so the persisted state
// never lags what callers go on to report.
func (r *Registry) UpdateStatus(fileName string, status Status, opts ...UpdateOption) Job {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[fileName]
	if !ok {
		job = Job{FileName: fileName}
	}
	job.Status = status
	for _, opt := range opts {
		opt(&job)
	}
	r.jobs[fileName] = job
	r.persistLocked()
	return job
}

// Get returns the job for a file, if known.
func (r *Registry) Get(fileName string) (Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[fileName]
	return job, ok
}

// Snapshot returns a copy of every known job, sorted by file name. The
// backing store is a mapping, so submission order is not preserved.
func (r *Registry) Snapshot() []Job {
	r.mu.Lock()
	defer r.mu.Unlock()

	jobs := make([]Job, 0, len(r.jobs))
	for _, job := range r.jobs {
		jobs = append(jobs, job)
	}
	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].FileName < jobs[j].FileName
	})
	return jobs
}

// persistLocked writes the full document. A write failure is reported but
// does not roll back the in-memory state, which stays authoritative until
// the next successful persist.
func (r *Registry) persistLocked() {
	if err := r.store.Save(r.jobs); err != nil {
		r.logger.Error("persist registry document failed; in-memory state retained", zap.Error(err))
	}
}
