package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/gradscan/gradscan/internal/model"
)

// DatabaseFileName is the SQLite file created inside the database
// directory.
const DatabaseFileName = "gradscan.db"

// ApplicantDB provides SQLite-based storage for cleaned applicant rows
// and analysis snapshots.
//
// Design decision: We persist into a single database file per data
// directory rather than one per crawl because the loader is an upsert:
// repeated loads of overlapping data files converge on one row per
// applicant, which is exactly what the analysis queries want.
type ApplicantDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures ApplicantDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates an ApplicantDB inside the specified directory.
// If CreateIfNotExists is false and the database doesn't exist, an error
// is returned instead of silently creating an empty one.
func Open(dbDir string, opts Options) (*ApplicantDB, error) {
	dbPath := filepath.Join(dbDir, DatabaseFileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (run the load stage first)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite connection string: mode=rw prevents creating new
	// files, mode=rwc allows creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	adb := &ApplicantDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := adb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return adb, nil
}

// Close closes the database connection.
func (adb *ApplicantDB) Close() error {
	return adb.db.Close()
}

// Path returns the path of the SQLite database file.
func (adb *ApplicantDB) Path() string {
	return adb.dbPath
}

// DB exposes the underlying connection for read-only analysis queries.
func (adb *ApplicantDB) DB() *sql.DB {
	return adb.db
}

// createTables creates the database schema if it doesn't exist.
func (adb *ApplicantDB) createTables() error {
	schema := `
	-- One row per admissions result, keyed by the externally-assigned
	-- result identifier.
	CREATE TABLE IF NOT EXISTS applicants (
		p_id INTEGER PRIMARY KEY,
		university TEXT,
		program TEXT,
		comments TEXT,
		date_added TEXT,
		url TEXT,
		status TEXT,
		term TEXT,
		us_or_international TEXT,
		gpa REAL,
		gre REAL,
		gre_v REAL,
		gre_aw REAL,
		degree TEXT,
		llm_generated_program TEXT,
		llm_generated_university TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_applicants_term ON applicants(term);
	CREATE INDEX IF NOT EXISTS idx_applicants_status ON applicants(status);
	CREATE INDEX IF NOT EXISTS idx_applicants_date ON applicants(date_added);

	-- Analysis snapshots store complete analysis reports as JSON so past
	-- runs remain comparable after the applicant data moves on.
	CREATE TABLE IF NOT EXISTS analysis_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		row_count INTEGER NOT NULL,
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_analysis_runs_timestamp ON analysis_runs(timestamp);
	`

	_, err := adb.db.ExecContext(context.Background(), schema)
	return err
}

// UpsertApplicants inserts or updates a batch of applicant rows inside a
// single transaction. Rows sharing an identifier with an existing row
// replace that row's fields, so reloading an extended data file never
// produces duplicates. It returns the number of rows written.
func (adb *ApplicantDB) UpsertApplicants(ctx context.Context, applicants []Applicant) (int, error) {
	tx, err := adb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }() // no-op after commit

	query := `
	INSERT INTO applicants (
		p_id, university, program, comments, date_added, url, status, term,
		us_or_international, gpa, gre, gre_v, gre_aw, degree,
		llm_generated_program, llm_generated_university
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(p_id) DO UPDATE SET
		university = excluded.university,
		program = excluded.program,
		comments = excluded.comments,
		date_added = excluded.date_added,
		url = excluded.url,
		status = excluded.status,
		term = excluded.term,
		us_or_international = excluded.us_or_international,
		gpa = excluded.gpa,
		gre = excluded.gre,
		gre_v = excluded.gre_v,
		gre_aw = excluded.gre_aw,
		degree = excluded.degree,
		llm_generated_program = excluded.llm_generated_program,
		llm_generated_university = excluded.llm_generated_university
	`

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	written := 0
	for _, a := range applicants {
		if _, err := stmt.ExecContext(ctx,
			a.PID,
			a.University,
			a.Program,
			a.Comments,
			a.DateAdded,
			a.URL,
			a.Status,
			a.Term,
			a.Citizenship,
			a.GPA,
			a.GRE,
			a.GREVerbal,
			a.GREAW,
			a.Degree,
			a.LLMProgram,
			a.LLMUniversity,
		); err != nil {
			return written, fmt.Errorf("failed to upsert applicant %d: %w", a.PID, err)
		}
		written++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit upsert: %w", err)
	}
	return written, nil
}

// CountApplicants returns the number of stored applicant rows.
func (adb *ApplicantDB) CountApplicants(ctx context.Context) (int, error) {
	var count int
	err := adb.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM applicants").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count applicants: %w", err)
	}
	return count, nil
}

// SaveAnalysisRun stores a complete analysis report as a snapshot row.
func (adb *ApplicantDB) SaveAnalysisRun(ctx context.Context, report *model.AnalysisReport) (int64, error) {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize analysis report: %w", err)
	}

	result, err := adb.db.ExecContext(ctx,
		"INSERT INTO analysis_runs (row_count, report_json) VALUES (?, ?)",
		report.RowCount, string(reportJSON))
	if err != nil {
		return 0, fmt.Errorf("failed to save analysis run: %w", err)
	}
	return result.LastInsertId()
}

// LatestAnalysisRun retrieves the most recent analysis snapshot.
// Returns nil without error when no run has been stored yet.
func (adb *ApplicantDB) LatestAnalysisRun(ctx context.Context) (*model.AnalysisReport, error) {
	var reportJSON string
	err := adb.db.QueryRowContext(ctx,
		"SELECT report_json FROM analysis_runs ORDER BY id DESC LIMIT 1").Scan(&reportJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest analysis run: %w", err)
	}

	var report model.AnalysisReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse analysis report: %w", err)
	}
	return &report, nil
}
