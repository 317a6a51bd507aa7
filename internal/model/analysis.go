package model

import "time"

// AnalysisResult holds the outcome of one fixed analytical query.
// Each result is self-describing: it carries the question text, the
// formatted answer, the SQL that produced it, and a one-line explanation.
type AnalysisResult struct {
	// ID is the short stable identifier of the question (e.g. "q1").
	ID string `json:"id"`

	// Question is the plain-English question the query answers.
	Question string `json:"question"`

	// Answer is the formatted answer, possibly multi-line.
	Answer string `json:"answer"`

	// SQL is the display form of the executed statement.
	SQL string `json:"sql"`

	// Explanation describes how the query derives the answer.
	Explanation string `json:"explanation"`
}

// AnalysisReport is the full output of an analysis run.
// It is what the report writers consume and what gets snapshotted into
// the analysis_runs table.
type AnalysisReport struct {
	// GeneratedAt is when the analysis ran.
	GeneratedAt time.Time `json:"generated_at"`

	// RowCount is the number of applicant rows the queries ran against.
	RowCount int `json:"row_count"`

	// Results holds the query outcomes in question order.
	Results []AnalysisResult `json:"results"`
}

// NewAnalysisReport creates an empty report stamped with the current time.
func NewAnalysisReport(rowCount int) *AnalysisReport {
	return &AnalysisReport{
		GeneratedAt: time.Now(),
		RowCount:    rowCount,
		Results:     make([]AnalysisResult, 0),
	}
}
