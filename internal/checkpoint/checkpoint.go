package checkpoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gradscan/gradscan/internal/model"
)

// RecordsPerPage is the approximate number of primary records the survey
// renders per listing page. The resume cursor divides the restored record
// count by this value; it is a heuristic, not an exact inverse of
// pagination, so a resumed crawl may re-fetch or skip a partial page's
// worth of records. This tolerance is deliberate and matches the behavior
// downstream consumers already expect.
const RecordsPerPage = 20

// ErrCorrupt is returned by Load when the checkpoint file exists but does
// not parse as a JSON record array. Callers recover by starting a fresh
// crawl; the corrupt file is overwritten at the next flush.
var ErrCorrupt = errors.New("checkpoint file is corrupt")

// Store persists the accumulated record set as a JSON array.
//
// Design decision: The checkpoint stays a plain JSON array (rather than a
// richer envelope with metadata) because the file doubles as the input of
// the cleaning and loading stages, which consume exactly this shape.
type Store struct {
	// path is the location of the checkpoint file.
	path string
}

// NewStore creates a Store persisting to the given path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the checkpoint file location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the checkpoint file and returns the records it holds.
// A missing file yields an empty slice and no error: a fresh crawl is the
// normal first-run case, not a failure. A file that fails to parse yields
// ErrCorrupt so the caller can log the discard before starting over.
func (s *Store) Load() ([]model.Record, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []model.Record{}, nil
		}
		return nil, fmt.Errorf("failed to read checkpoint: %w", err)
	}

	var records []model.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if records == nil {
		records = []model.Record{}
	}
	return records, nil
}

// Save writes the record set atomically: the JSON is written to a
// temporary file in the same directory and then renamed over the real
// path, so a reader can never observe a partially-written checkpoint.
func (s *Store) Save(records []model.Record) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}

	dir := filepath.Dir(s.path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create checkpoint directory: %w", err)
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		// Best effort cleanup; the stale temp file is harmless otherwise.
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace checkpoint: %w", err)
	}
	return nil
}

// ResumePage computes the one-based page number a resumed crawl should
// start from, given the number of restored records.
func ResumePage(recordCount int) int {
	return recordCount/RecordsPerPage + 1
}
