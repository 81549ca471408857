// Package app wires configuration into a ready-to-run export application:
// API client, destination, run logger, run-history database, exporter.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"kbdump/internal/api"
	"kbdump/internal/config"
	"kbdump/internal/database"
	"kbdump/internal/destination"
	"kbdump/internal/kb"

	"github.com/google/uuid"
)

// staticID hands a pre-generated run ID to the exporter so the app, the
// log, and the database row all agree on it.
type staticID string

func (s staticID) New() string { return string(s) }

// ExportApp is the application layer between the CLI and the Exporter.
// The caller must call Close when done.
type ExportApp struct {
	cfg      *config.Config
	dest     kb.Destination
	db       *database.SQLiteDatabase
	exporter *kb.Exporter
	clock    kb.Clock
	runUID   string
	logFile  *os.File
	logPath  string
	logName  string
	runID    int64
}

// NewExportApp creates a fully wired ExportApp from the given config.
// token is the bearer token already resolved by the CLI; outputDir is the
// resolved local output directory (filesystem destination only).
func NewExportApp(ctx context.Context, cfg *config.Config, token, outputDir string, verbose bool) (*ExportApp, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required (set base_url in the config or pass --base-url)")
	}
	if token == "" {
		return nil, fmt.Errorf("auth token is required")
	}

	clock := kb.RealClock{}
	runUID := uuid.New().String()

	dest, err := destination.NewDestinationFromConfig(ctx, cfg.Destination, outputDir)
	if err != nil {
		return nil, fmt.Errorf("creating destination: %w", err)
	}

	// The run log lives next to the exported tree when there is a local
	// tree; otherwise it goes to log_dir and is uploaded on Close.
	logDir := cfg.LogDir
	if fsDest, ok := dest.(*destination.FileSystemDestination); ok {
		logDir = fsDest.Root()
	}
	if logDir == "" {
		logDir = "."
	}

	logName := RunLogName(clock.Now())
	logPath := filepath.Join(logDir, logName)
	logger, logFile, err := newRunLogger(logPath, os.Stdout, verbose)
	if err != nil {
		return nil, fmt.Errorf("creating run logger: %w", err)
	}

	client, err := api.New(api.Options{
		BaseURL:  cfg.BaseURL,
		Token:    token,
		Timeout:  time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second,
		PageSize: cfg.HTTP.PageSize,
		MaxPages: cfg.HTTP.MaxPages,
		Logger:   &slogAdapter{l: logger},
	})
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("creating API client: %w", err)
	}

	db, err := database.NewDatabaseFromConfig(cfg.Database)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("creating run history database: %w", err)
	}

	exporter := kb.NewExporter(client, dest, &slogAdapter{l: logger}, clock, staticID(runUID), cfg.Export.MaxDepth)

	return &ExportApp{
		cfg:      cfg,
		dest:     dest,
		db:       db,
		exporter: exporter,
		clock:    clock,
		runUID:   runUID,
		logFile:  logFile,
		logPath:  logPath,
		logName:  logName,
	}, nil
}

// LogPath returns the local path of the run log.
func (a *ExportApp) LogPath() string { return a.logPath }

// Export validates the destination, records the run, and drives the
// exporter. The run record is finished with status "completed" or
// "failed" either way.
func (a *ExportApp) Export(ctx context.Context) (*kb.Summary, error) {
	if err := a.dest.ValidateSetup(); err != nil {
		return nil, fmt.Errorf("validating destination: %w", err)
	}

	run, err := a.db.CreateExportRun(a.runUID, a.cfg.BaseURL, a.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("recording export run: %w", err)
	}
	a.runID = run.ID

	sum, runErr := a.exporter.Run(ctx)

	status := "completed"
	if runErr != nil {
		status = "failed"
	}
	if sum != nil {
		if err := a.db.FinishExportRun(run.ID, status, a.clock.Now(), sum); err != nil {
			// The export itself already succeeded or failed on its own
			// terms; a bookkeeping failure must not mask that outcome.
			fmt.Fprintf(os.Stderr, "warning: finishing run record: %v\n", err)
		}
	}

	return sum, runErr
}

// Close flushes and closes resources. For destinations without a local
// tree, the run log is uploaded so it still sits alongside the output.
func (a *ExportApp) Close() error {
	var firstErr error

	if a.logFile != nil {
		if err := a.logFile.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing log file: %w", err)
		}
	}

	if _, isFS := a.dest.(*destination.FileSystemDestination); !isFS {
		if err := a.uploadLog(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if err := a.db.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("closing database: %w", err)
	}

	return firstErr
}

// uploadLog copies the local run log into the destination.
func (a *ExportApp) uploadLog() error {
	f, err := os.Open(a.logPath)
	if err != nil {
		return fmt.Errorf("opening run log for upload: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat run log: %w", err)
	}

	if err := a.dest.WriteFile(a.logName, f, info.Size()); err != nil {
		return fmt.Errorf("uploading run log to destination: %w", err)
	}
	return nil
}
