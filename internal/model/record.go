package model

import "regexp"

// resultIDRegex extracts the numeric result identifier from a detail URL.
// GradCafe detail links have the form "/result/12345".
var resultIDRegex = regexp.MustCompile(`/result/(\d+)`)

// Record represents one scraped admissions-result entry.
//
// The JSON field names deliberately use the source's native key spellings
// (including "US/International" and "GRE V Score") so that checkpoint files
// remain interchangeable with the files produced by earlier iterations of
// this pipeline. Downstream stages key on these exact spellings.
//
// Design decision: We keep every extracted field as a string rather than
// converting to numeric types at scrape time because:
//  1. The source data is free text and frequently malformed
//  2. Conversion failures should not discard an otherwise valid record
//  3. The loader owns normalization, keyed by what the database needs
type Record struct {
	// ResultID is the stable externally-assigned identifier extracted from
	// the per-record detail link. It is the deduplication key for the
	// whole crawl; a record with an empty ResultID is never retained.
	ResultID string `json:"result_id"`

	// URL is the absolute URL of the record's detail page.
	URL string `json:"url"`

	// University is the free-text name of the reporting institution.
	University string `json:"university"`

	// Program is the free-text program/major label.
	Program string `json:"program"`

	// Degree is the optional degree type label (e.g. "PhD", "Masters").
	// Present only when the program cell carries a second sub-label.
	Degree string `json:"Degree,omitempty"`

	// DateAdded is the date string exactly as shown by the source.
	// Not normalized to a calendar type at this layer.
	DateAdded string `json:"date_added"`

	// Status is the free-text decision/status string.
	Status string `json:"status"`

	// Comments is the free-text note attached to the record, possibly empty.
	Comments string `json:"comments"`

	// Term is the normalized admission term ("Fall 2025", "Spring 2026", ...)
	// pattern-matched from the record's detail rows. Empty if no match.
	Term string `json:"term,omitempty"`

	// Citizenship is "International" or "American", derived by keyword
	// search in the detail rows. Empty if neither keyword is present.
	Citizenship string `json:"US/International,omitempty"`

	// GPA is the reported GPA as text, e.g. "3.8". Empty if not matched.
	GPA string `json:"GPA,omitempty"`

	// GREQuant is the reported GRE quantitative score as text.
	GREQuant string `json:"GRE Score,omitempty"`

	// GREVerbal is the reported GRE verbal score as text.
	GREVerbal string `json:"GRE V Score,omitempty"`

	// GREAW is the reported GRE analytical writing score as text.
	GREAW string `json:"GRE AW,omitempty"`

	// LLMProgram is the standardized program name produced by the
	// cleaning stage. Empty until the record passes through the cleaner.
	LLMProgram string `json:"llm-generated-program,omitempty"`

	// LLMUniversity is the standardized university name produced by the
	// cleaning stage.
	LLMUniversity string `json:"llm-generated-university,omitempty"`
}

// HasID reports whether the record carries a usable deduplication key.
func (r *Record) HasID() bool {
	return r.ResultID != ""
}

// IDFromURL extracts the numeric result identifier from a detail URL.
// Returns an empty string if the URL does not contain a result link.
// This is the fallback used by the loader when ResultID is absent from
// older data files that only stored the URL.
func IDFromURL(url string) string {
	m := resultIDRegex.FindStringSubmatch(url)
	if m == nil {
		return ""
	}
	return m[1]
}
