// Package journal records report runs in a SQLite database so an
// interrupted run can be resumed by appending to its report.
package journal

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

var (
	ErrNoRun    = errors.New("no run recorded for report")
	ErrMismatch = errors.New("run settings do not match the recorded run")
)

// Run describes one report run.
type Run struct {
	Report     string
	Root       string
	Algorithm  string
	Relative   bool
	StartAt    int
	Total      int
	StartedAt  time.Time
	FinishedAt time.Time // zero while the run is incomplete
}

func (r *Run) Finished() bool {
	return !r.FinishedAt.IsZero()
}

// Matches returns ErrMismatch when other was produced with different
// settings than r, which would make appending to r's report wrong.
func (r *Run) Matches(other *Run) error {
	switch {
	case r.Root != other.Root:
		return fmt.Errorf("%w: root %q, recorded %q", ErrMismatch, other.Root, r.Root)
	case r.Algorithm != other.Algorithm:
		return fmt.Errorf("%w: algorithm %q, recorded %q", ErrMismatch, other.Algorithm, r.Algorithm)
	case r.Relative != other.Relative:
		return fmt.Errorf("%w: relative paths %t, recorded %t", ErrMismatch, other.Relative, r.Relative)
	}
	return nil
}

type Journal struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    report TEXT PRIMARY KEY,
    root TEXT NOT NULL,
    algorithm TEXT NOT NULL,
    relative INTEGER NOT NULL,
    start_at INTEGER NOT NULL,
    total INTEGER NOT NULL,
    started_at INTEGER NOT NULL,
    finished_at INTEGER
);
`

// DefaultPath is the journal location under the user cache directory.
func DefaultPath() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, "hashreport", "journal.db"), nil
}

// Open opens or creates the journal database at path.
func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	db.Exec(`PRAGMA journal_mode=WAL;`)
	db.Exec(`PRAGMA synchronous=NORMAL;`)
	db.Exec(`PRAGMA busy_timeout=5000;`)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Journal{db: db}, nil
}

func (j *Journal) Close() error {
	if j.db != nil {
		return j.db.Close()
	}
	return nil
}

// Start records a new run, replacing any earlier run for the same report.
func (j *Journal) Start(run *Run) error {
	query := `
        INSERT INTO runs (report, root, algorithm, relative, start_at, total, started_at, finished_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, NULL)
        ON CONFLICT(report) DO UPDATE SET
            root = excluded.root,
            algorithm = excluded.algorithm,
            relative = excluded.relative,
            start_at = excluded.start_at,
            total = excluded.total,
            started_at = excluded.started_at,
            finished_at = NULL
    `
	_, err := j.db.Exec(query, run.Report, run.Root, run.Algorithm, run.Relative, run.StartAt, run.Total, run.StartedAt.Unix())
	return err
}

// Finish marks the run for report as complete.
func (j *Journal) Finish(report string, at time.Time) error {
	res, err := j.db.Exec("UPDATE runs SET finished_at = ? WHERE report = ?", at.Unix(), report)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNoRun, report)
	}
	return nil
}

// Get returns the run recorded for report, or ErrNoRun.
func (j *Journal) Get(report string) (*Run, error) {
	var (
		run         = Run{Report: report}
		startedUnix int64
		finished    sql.NullInt64
	)
	err := j.db.QueryRow(
		"SELECT root, algorithm, relative, start_at, total, started_at, finished_at FROM runs WHERE report = ?",
		report,
	).Scan(&run.Root, &run.Algorithm, &run.Relative, &run.StartAt, &run.Total, &startedUnix, &finished)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNoRun, report)
	}
	if err != nil {
		return nil, err
	}

	run.StartedAt = time.Unix(startedUnix, 0)
	if finished.Valid {
		run.FinishedAt = time.Unix(finished.Int64, 0)
	}
	return &run, nil
}
