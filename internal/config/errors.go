package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages. Using errors.New() here rather than fmt.Errorf()
// because we don't need to include dynamic values in these messages.
var (
	// ErrInvalidWorkers is returned when the worker count is not positive.
	// Zero workers would mean no pages are ever fetched.
	ErrInvalidWorkers = errors.New("invalid worker count: must be positive")

	// ErrInvalidTimeout is returned when the per-attempt timeout is not
	// positive. A zero timeout would cause immediate fetch failures.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidRetries is returned when the retry count is negative.
	// Use 0 to disable retries entirely.
	ErrInvalidRetries = errors.New("invalid retry count: must be non-negative")

	// ErrInvalidSaveInterval is returned when the checkpoint interval is
	// not positive. Checkpointing cannot be disabled; an interrupted crawl
	// with no checkpoints would lose everything.
	ErrInvalidSaveInterval = errors.New("invalid save interval: must be positive")

	// ErrInvalidJitter is returned when the jitter bounds are negative or
	// inverted (max below min).
	ErrInvalidJitter = errors.New("invalid jitter bounds: min must be non-negative and max >= min")

	// ErrInvalidTarget is returned when the target record count is not
	// positive. A zero target would stop the crawl before it starts.
	ErrInvalidTarget = errors.New("invalid target count: must be positive")

	// ErrInvalidBatchSize is returned when the cleaning batch size is not
	// positive. A zero batch would make no progress.
	ErrInvalidBatchSize = errors.New("invalid clean batch size: must be positive")

	// ErrConflictingReportFormats is returned when both --json and
	// --markdown are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
)
