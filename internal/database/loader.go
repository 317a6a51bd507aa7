package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/gradscan/gradscan/internal/checkpoint"
	"github.com/gradscan/gradscan/internal/model"
)

// ErrNoData is returned when neither the cleaned nor the raw data file
// exists.
var ErrNoData = errors.New("no data file to load")

// Loader moves a JSON data file into the applicant database.
//
// Design decision: The loader prefers the cleaned file and silently
// falls back to the raw scrape because the standardized columns are
// nullable: a database without them still answers most analysis
// questions, and demanding the cleaning stage first would make the
// pipeline needlessly rigid.
type Loader struct {
	db          *ApplicantDB
	cleanedFile string
	rawFile     string
	logger      *slog.Logger
}

// NewLoader creates a Loader reading cleanedFile (preferred) or rawFile
// into db.
func NewLoader(db *ApplicantDB, cleanedFile, rawFile string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		db:          db,
		cleanedFile: cleanedFile,
		rawFile:     rawFile,
		logger:      logger,
	}
}

// Load reads the data file, normalizes every record, and upserts the
// rows in one transaction. Records without a numeric identifier are
// counted as skipped, not fatal.
func (l *Loader) Load(ctx context.Context) (*model.LoadStats, error) {
	path, err := l.pickInput()
	if err != nil {
		return nil, err
	}

	records, err := checkpoint.NewStore(path).Load()
	if err != nil {
		return nil, fmt.Errorf("load data file: %w", err)
	}

	applicants, skipped := NormalizeRecords(records)
	if skipped > 0 {
		l.logger.Warn("records without identifiers skipped", "skipped", skipped)
	}

	written, err := l.db.UpsertApplicants(ctx, applicants)
	if err != nil {
		return nil, fmt.Errorf("upsert applicants: %w", err)
	}

	l.logger.Info("load complete",
		"file", path, "loaded", written, "skipped", skipped)
	return &model.LoadStats{Loaded: written, Skipped: skipped}, nil
}

// pickInput resolves which data file to load.
func (l *Loader) pickInput() (string, error) {
	if _, err := os.Stat(l.cleanedFile); err == nil {
		return l.cleanedFile, nil
	}
	if _, err := os.Stat(l.rawFile); err == nil {
		l.logger.Warn("cleaned data file missing, loading raw scrape", "file", l.rawFile)
		return l.rawFile, nil
	}
	return "", fmt.Errorf("%w: neither %s nor %s exists", ErrNoData, l.cleanedFile, l.rawFile)
}
