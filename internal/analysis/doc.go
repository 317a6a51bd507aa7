// Package analysis answers a fixed set of admissions questions over the
// applicant database.
//
// The Analyzer runs each question's SQL in order and assembles a report
// pairing every answer with the query that produced it and a short
// explanation of its filters. Reports are plain model values so the
// report package can render them in any format.
package analysis
