package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// These values match the knobs of the original pipeline iterations where
// applicable, so existing deployments behave the same after switching.
const (
	// DefaultBaseURL is the paginated survey listing endpoint.
	DefaultBaseURL = "https://www.thegradcafe.com/survey/index.php"

	// DefaultPerPage is the requested result-set size per listing page.
	// The server honors 50 but tends to render about 20 primary records,
	// which is why the resume heuristic divides by 20 rather than 50.
	DefaultPerPage = 50

	// DefaultPageToken is a required-but-otherwise-inert pagination token.
	// The endpoint rejects requests without it; its value never changes.
	DefaultPageToken = "52"

	// DefaultSortOrder requests newest-first listing order.
	DefaultSortOrder = "newest"

	// DefaultWorkers bounds concurrent in-flight page requests.
	// Four workers keeps the request rate polite while hiding most of the
	// per-request latency. Higher values risk rate limiting.
	DefaultWorkers = 4

	// DefaultTimeout is the per-attempt HTTP timeout. The survey endpoint
	// is slow under load; 12 seconds tolerates that without hanging a
	// worker slot for long on a dead connection.
	DefaultTimeout = 12 * time.Second

	// DefaultRetries is the maximum number of retry attempts per page
	// fetch, on top of the initial attempt.
	DefaultRetries = 4

	// DefaultSaveInterval is the number of completed pages between
	// checkpoint flushes. An abrupt stop loses at most this many pages
	// worth of records.
	DefaultSaveInterval = 10

	// DefaultJitterMin and DefaultJitterMax bound the random pre-request
	// delay. The jitter spreads requests out so the crawl never bursts.
	DefaultJitterMin = 100 * time.Millisecond
	DefaultJitterMax = 350 * time.Millisecond

	// DefaultTargetCount is the record count at which the crawl stops.
	DefaultTargetCount = 30000

	// DefaultOutputFile is the checkpoint file for raw scraped records.
	DefaultOutputFile = "applicant_data.json"

	// DefaultCleanedFile is the output of the cleaning stage.
	DefaultCleanedFile = "llm_extend_applicant_data.json"

	// DefaultStandardizerURL is the local standardizer API endpoint used
	// by the cleaning stage when it is reachable.
	DefaultStandardizerURL = "http://localhost:8000/standardize"

	// DefaultCleanBatchSize is the number of rows sent per standardizer
	// API call.
	DefaultCleanBatchSize = 50

	// DefaultCleanTimeout is the per-call timeout for the standardizer
	// API. Generous because the standardizer runs a local language model.
	DefaultCleanTimeout = 60 * time.Second

	// DefaultUserAgent identifies the scraper in HTTP requests.
	DefaultUserAgent = "Mozilla/5.0 (Windows) GradScan/1.0"

	// AppName is the application name used for XDG directory paths.
	AppName = "gradscan"
)

// Environment variable names honored as default overrides.
// These are the same knobs the earlier pipeline iterations read, kept so
// existing wrapper scripts keep working.
const (
	EnvTarget       = "TARGET"
	EnvWorkers      = "SCRAPE_WORKERS"
	EnvTimeout      = "SCRAPE_TIMEOUT"
	EnvRetries      = "SCRAPE_RETRIES"
	EnvSaveInterval = "SAVE_EVERY_PAGES"
	EnvJitterMin    = "JITTER_MIN"
	EnvJitterMax    = "JITTER_MAX"
)

// Config holds all configuration options for gradscan.
// This struct is designed to be populated from CLI flags and passed through
// the application via dependency injection rather than global state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., ScrapeConfig, CleanConfig) for simplicity. The number of options
// is manageable, and nesting would add complexity without significant benefit.
type Config struct {
	// BaseURL is the paginated survey listing endpoint.
	BaseURL string

	// PerPage is the requested result-set size per page.
	PerPage int

	// PageToken is the fixed pagination token the endpoint requires.
	PageToken string

	// SortOrder is the listing sort order query parameter.
	SortOrder string

	// Workers bounds concurrent in-flight page requests.
	Workers int

	// Timeout is the per-attempt HTTP timeout for page fetches.
	Timeout time.Duration

	// Retries is the maximum retry count per page fetch.
	Retries int

	// SaveInterval is the number of completed pages between checkpoint
	// flushes.
	SaveInterval int

	// JitterMin and JitterMax bound the random pre-request delay.
	JitterMin time.Duration
	JitterMax time.Duration

	// TargetCount is the unique-record count at which the crawl stops.
	TargetCount int

	// OutputFile is the checkpoint path for raw scraped records.
	OutputFile string

	// CleanedFile is the output path of the cleaning stage.
	CleanedFile string

	// StandardizerURL is the local standardizer API endpoint.
	StandardizerURL string

	// CleanBatchSize is the number of rows per standardizer API call.
	CleanBatchSize int

	// CleanTimeout is the per-call timeout for the standardizer API.
	CleanTimeout time.Duration

	// DBDir is the directory holding the SQLite database.
	// Defaults to the XDG data directory.
	DBDir string

	// UserAgent is the User-Agent header sent with page requests.
	UserAgent string

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// JSONReport enables JSON report output instead of the human-readable
	// format. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output instead of the
	// human-readable format. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the analysis report.
	// When empty, the report is written to stdout.
	ReportFile string

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .gradscan in the current directory
	// and then in the user's home directory.
	ConfigFilePath string
}

// NewConfig creates a new Config with default values.
// Environment variables from the original pipeline iterations (TARGET,
// SCRAPE_WORKERS, ...) override the compiled-in defaults; CLI flags
// override both.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (e.g., timeout, worker
// count). This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		BaseURL:         DefaultBaseURL,
		PerPage:         DefaultPerPage,
		PageToken:       DefaultPageToken,
		SortOrder:       DefaultSortOrder,
		Workers:         envInt(EnvWorkers, DefaultWorkers),
		Timeout:         envSeconds(EnvTimeout, DefaultTimeout),
		Retries:         envInt(EnvRetries, DefaultRetries),
		SaveInterval:    envInt(EnvSaveInterval, DefaultSaveInterval),
		JitterMin:       envSeconds(EnvJitterMin, DefaultJitterMin),
		JitterMax:       envSeconds(EnvJitterMax, DefaultJitterMax),
		TargetCount:     envInt(EnvTarget, DefaultTargetCount),
		OutputFile:      DefaultOutputFile,
		CleanedFile:     DefaultCleanedFile,
		StandardizerURL: DefaultStandardizerURL,
		CleanBatchSize:  DefaultCleanBatchSize,
		CleanTimeout:    DefaultCleanTimeout,
		DBDir:           XDGDataDir(),
		UserAgent:       DefaultUserAgent,
	}
}

// XDGDataDir returns the XDG data directory for gradscan.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.local/share/gradscan
// On macOS: ~/Library/Application Support/gradscan
// On Windows: %LOCALAPPDATA%\gradscan
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for gradscan.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// BadPageCeiling returns the consecutive-bad-page threshold that ends the
// crawl. It is a function of the worker count so that wider crawls, which
// overshoot the last page by more in-flight requests, do not stop before
// every worker has had a chance to observe the end of the data.
func (c *Config) BadPageCeiling() int {
	ceiling := 4 * c.Workers
	if ceiling < 12 {
		ceiling = 12
	}
	return ceiling
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// We return the first error found rather than collecting all errors
// because fixing one error often makes others irrelevant.
func (c *Config) Validate() error {
	if c.Workers <= 0 {
		return ErrInvalidWorkers
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.Retries < 0 {
		return ErrInvalidRetries
	}
	if c.SaveInterval <= 0 {
		return ErrInvalidSaveInterval
	}
	if c.JitterMin < 0 || c.JitterMax < c.JitterMin {
		return ErrInvalidJitter
	}
	if c.TargetCount <= 0 {
		return ErrInvalidTarget
	}
	if c.CleanBatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	return nil
}

// envInt reads an integer environment variable, falling back to def when
// the variable is unset or malformed.
func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// envSeconds reads a duration expressed as a float number of seconds,
// the unit the original pipeline used for its timing knobs.
func envSeconds(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		return def
	}
	return time.Duration(f * float64(time.Second))
}
