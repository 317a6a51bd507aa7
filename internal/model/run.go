package model

import "time"

// CrawlStats summarizes a finished (or interrupted) crawl.
type CrawlStats struct {
	// RecordCount is the total number of unique records accumulated,
	// including records restored from a prior checkpoint.
	RecordCount int `json:"record_count"`

	// NewRecords is the number of records added during this run.
	NewRecords int `json:"new_records"`

	// PagesFetched is the number of page tasks that completed.
	PagesFetched int `json:"pages_fetched"`

	// TargetReached is true when the crawl stopped because the configured
	// record target was met, false when it stopped because of the
	// consecutive-bad-page ceiling or cancellation.
	TargetReached bool `json:"target_reached"`

	// BadPageStreak is the consecutive-bad-page counter at stop time.
	BadPageStreak int `json:"bad_page_streak"`

	// Elapsed is the wall-clock duration of the run.
	Elapsed time.Duration `json:"elapsed"`
}

// CleanStats summarizes a cleaning run.
type CleanStats struct {
	// Rows is the number of records processed.
	Rows int `json:"rows"`

	// CacheHits counts records standardized from the program cache
	// rather than a standardizer call.
	CacheHits int `json:"cache_hits"`

	// UsedAPI is true when the HTTP standardizer served at least part
	// of the run, false when the in-process fallback handled everything.
	UsedAPI bool `json:"used_api"`
}

// LoadStats summarizes a database load.
type LoadStats struct {
	// Loaded is the number of rows upserted.
	Loaded int `json:"loaded"`

	// Skipped is the number of rows dropped for lack of a result id.
	Skipped int `json:"skipped"`
}

// RunReport is the shared artifact passed through the pipeline steps.
// Each step records its outcome here; later steps read what earlier
// steps produced. The zero value is usable.
type RunReport struct {
	// StartedAt is when the pipeline run began.
	StartedAt time.Time `json:"started_at"`

	// CheckpointFile is the path of the raw scrape output.
	CheckpointFile string `json:"checkpoint_file"`

	// CleanedFile is the path of the standardized output.
	CleanedFile string `json:"cleaned_file"`

	// Crawl holds the scrape step outcome, nil if the step did not run.
	Crawl *CrawlStats `json:"crawl,omitempty"`

	// Clean holds the clean step outcome, nil if the step did not run.
	Clean *CleanStats `json:"clean,omitempty"`

	// Load holds the load step outcome, nil if the step did not run.
	Load *LoadStats `json:"load,omitempty"`

	// Analysis holds the analysis step outcome, nil if the step did not run.
	Analysis *AnalysisReport `json:"analysis,omitempty"`

	// PerformedSteps lists the names of steps that executed, in order.
	PerformedSteps []string `json:"performed_steps,omitempty"`

	// Error holds the first step error when a step failed.
	// Not serialized; ErrorMessage carries the text.
	Error error `json:"-"`

	// ErrorMessage is the human-readable form of Error.
	ErrorMessage string `json:"error,omitempty"`
}

// NewRunReport creates a RunReport stamped with the current time.
func NewRunReport() *RunReport {
	return &RunReport{StartedAt: time.Now()}
}
