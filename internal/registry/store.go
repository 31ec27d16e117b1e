package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// Store persists the registry as one whole document. Load returns the full
// mapping; Save replaces it. There are no incremental writes.
type Store interface {
	Load() (map[string]Job, error)
	Save(jobs map[string]Job) error
}

// FileStore keeps the registry in a single JSON document on disk, guarded
// by a lock file so only one writer touches it at a time.
type FileStore struct {
	path string
	lock *flock.Flock
}

func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("registry path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create registry directory: %w", err)
	}
	return &FileStore{
		path: path,
		lock: flock.New(path + ".lock"),
	}, nil
}

func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Load() (map[string]Job, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]Job{}, nil
		}
		return nil, fmt.Errorf("read registry document: %w", err)
	}

	var doc map[string]Job
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode registry document: %w", err)
	}

	jobs := make(map[string]Job, len(doc))
	for name, job := range doc {
		job.FileName = name
		jobs[name] = job
	}
	return jobs, nil
}

func (s *FileStore) Save(jobs map[string]Job) error {
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("lock registry: %w", err)
	}
	defer func() {
		_ = s.lock.Unlock()
	}()

	data, err := json.MarshalIndent(jobs, "", "    ")
	if err != nil {
		return fmt.Errorf("encode registry document: %w", err)
	}

	tempPath := s.path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		return fmt.Errorf("write registry document: %w", err)
	}
	if err := os.Rename(tempPath, s.path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("replace registry document: %w", err)
	}
	return nil
}

// MemoryStore backs a registry with an in-process map. Used in tests and
// anywhere durability is not wanted.
type MemoryStore struct {
	jobs map[string]Job
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: map[string]Job{}}
}

func (s *MemoryStore) Load() (map[string]Job, error) {
	copied := make(map[string]Job, len(s.jobs))
	for name, job := range s.jobs {
		copied[name] = job
	}
	return copied, nil
}

func (s *MemoryStore) Save(jobs map[string]Job) error {
	copied := make(map[string]Job, len(jobs))
	for name, job := range jobs {
		copied[name] = job
	}
	s.jobs = copied
	return nil
}
