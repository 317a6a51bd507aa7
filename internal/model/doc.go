// Package model defines the core data structures used throughout gradscan.
//
// This package contains the following main types:
//   - Record: One scraped admissions-result entry
//   - AnalysisReport: The output of the fixed analytical queries
//   - RunReport: The shared artifact passed through pipeline steps
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. Multiple packages (scraper, cleaner, database, report) need to
// use these types, so centralizing them prevents import cycles.
//
// Record serializes with the data source's native JSON key spellings so
// checkpoint files stay interchangeable with files produced by earlier
// iterations of this pipeline.
package model
