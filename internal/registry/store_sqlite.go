package registry

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLiteStore is an alternative registry backend for setups where a single
// JSON document is too fragile. It keeps the same whole-document load/save
// contract: Save replaces every row inside one transaction.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS jobs (
    file_name     TEXT PRIMARY KEY,
    status        TEXT NOT NULL,
    elapsed       REAL,
    download_link TEXT NOT NULL DEFAULT '',
    extra         TEXT NOT NULL DEFAULT '{}'
)`

func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("registry database path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create registry directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open registry database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create jobs table: %w", err)
	}

	return &SQLiteStore{db: db, path: path}, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) Load() (map[string]Job, error) {
	rows, err := s.db.Query(`SELECT file_name, status, elapsed, download_link, extra FROM jobs`)
	if err != nil {
		return nil, fmt.Errorf("query jobs: %w", err)
	}
	defer rows.Close()

	jobs := map[string]Job{}
	for rows.Next() {
		var (
			name    string
			status  string
			elapsed sql.NullFloat64
			link    string
			extra   string
		)
		if err := rows.Scan(&name, &status, &elapsed, &link, &extra); err != nil {
			return nil, fmt.Errorf("scan job row: %w", err)
		}

		job := Job{
			FileName:     name,
			Status:       ParseStatus(status),
			DownloadLink: link,
		}
		if elapsed.Valid {
			job.Elapsed = Elapsed{Seconds: elapsed.Float64, Valid: true}
		}
		if extra != "" && extra != "{}" {
			var fields map[string]json.RawMessage
			if err := json.Unmarshal([]byte(extra), &fields); err == nil && len(fields) > 0 {
				job.extra = fields
			}
		}
		jobs[name] = job
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate job rows: %w", err)
	}
	return jobs, nil
}

func (s *SQLiteStore) Save(jobs map[string]Job) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin registry transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.Exec(`DELETE FROM jobs`); err != nil {
		return fmt.Errorf("clear jobs: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO jobs (file_name, status, elapsed, download_link, extra) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare job insert: %w", err)
	}
	defer stmt.Close()

	for name, job := range jobs {
		var elapsed any
		if job.Elapsed.Valid {
			elapsed = job.Elapsed.Seconds
		}

		extra := "{}"
		if len(job.extra) > 0 {
			encoded, err := json.Marshal(job.extra)
			if err != nil {
				return fmt.Errorf("encode extra fields for %s: %w", name, err)
			}
			extra = string(encoded)
		}

		if _, err := stmt.Exec(name, job.Status.String(), elapsed, job.DownloadLink, extra); err != nil {
			return fmt.Errorf("insert job %s: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit registry transaction: %w", err)
	}
	return nil
}
