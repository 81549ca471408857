// Package database records export-run history in SQLite.
package database

import (
	"database/sql"
	"fmt"
	"time"

	"kbdump/internal/database/migrations"
	"kbdump/internal/kb"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// ExportRun is one recorded export run.
type ExportRun struct {
	ID                    int64
	RunUID                string
	BaseURL               string
	StartedAt             time.Time
	FinishedAt            sql.NullTime
	Status                string
	Projects              int
	ArticlesExported      int
	ArticlesSkipped       int
	AttachmentsDownloaded int
	AttachmentsFailed     int
	Warnings              int
}

// SQLiteDatabase stores run history in a SQLite file (or in memory).
type SQLiteDatabase struct {
	db   *sql.DB
	path string
}

// NewSQLiteDatabase opens (creating and migrating if needed) the run
// history database. path can be a file path or ":memory:".
func NewSQLiteDatabase(path string) (*SQLiteDatabase, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating run history database: %w", err)
	}

	return &SQLiteDatabase{db: db, path: path}, nil
}

// OpenConnection opens and configures a SQLite connection with the
// PRAGMAs the tool relies on. Exported for tests that need a raw handle.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign key constraints (SQLite default is OFF for backward compatibility)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// CreateExportRun inserts a new run in "running" state and returns it with
// its assigned ID.
func (s *SQLiteDatabase) CreateExportRun(runUID, baseURL string, startedAt time.Time) (*ExportRun, error) {
	res, err := s.db.Exec(
		`INSERT INTO export_runs (run_uid, base_url, started_at, status) VALUES (?, ?, ?, 'running')`,
		runUID, baseURL, startedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting export run: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading export run id: %w", err)
	}

	return &ExportRun{
		ID:        id,
		RunUID:    runUID,
		BaseURL:   baseURL,
		StartedAt: startedAt,
		Status:    "running",
	}, nil
}

// FinishExportRun finalizes a run record with its status and summary
// counters.
func (s *SQLiteDatabase) FinishExportRun(id int64, status string, finishedAt time.Time, sum *kb.Summary) error {
	_, err := s.db.Exec(
		`UPDATE export_runs
		 SET finished_at = ?, status = ?, projects = ?,
		     articles_exported = ?, articles_skipped = ?,
		     attachments_downloaded = ?, attachments_failed = ?, warnings = ?
		 WHERE id = ?`,
		finishedAt, status, sum.Projects,
		sum.ArticlesExported, sum.ArticlesSkipped,
		sum.AttachmentsDownloaded, sum.AttachmentsFailed, sum.Warnings,
		id,
	)
	if err != nil {
		return fmt.Errorf("finishing export run: %w", err)
	}
	return nil
}

// ListExportRuns returns the most recent runs, newest first.
func (s *SQLiteDatabase) ListExportRuns(limit int) ([]*ExportRun, error) {
	rows, err := s.db.Query(
		`SELECT id, run_uid, base_url, started_at, finished_at, status,
		        projects, articles_exported, articles_skipped,
		        attachments_downloaded, attachments_failed, warnings
		 FROM export_runs
		 ORDER BY started_at DESC, id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing export runs: %w", err)
	}
	defer rows.Close()

	var runs []*ExportRun
	for rows.Next() {
		var run ExportRun
		if err := rows.Scan(
			&run.ID, &run.RunUID, &run.BaseURL, &run.StartedAt, &run.FinishedAt, &run.Status,
			&run.Projects, &run.ArticlesExported, &run.ArticlesSkipped,
			&run.AttachmentsDownloaded, &run.AttachmentsFailed, &run.Warnings,
		); err != nil {
			return nil, fmt.Errorf("scanning export run: %w", err)
		}
		runs = append(runs, &run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating export runs: %w", err)
	}

	return runs, nil
}

// Close closes the underlying connection.
func (s *SQLiteDatabase) Close() error {
	return s.db.Close()
}
