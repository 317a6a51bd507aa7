// Package database provides SQLite-based storage for applicant rows and
// analysis snapshots.
//
// # Architecture
//
// The package is built around ApplicantDB, which owns the connection to
// a single SQLite file. The Loader feeds it from the JSON data files,
// normalizing free-text fields into typed columns on the way in. All
// writes are upserts keyed by the external result identifier, so loading
// is idempotent.
//
// Design decision: We use modernc.org/sqlite rather than a CGO-based
// driver because:
//  1. Pure Go builds keep cross-compilation trivial
//  2. No system SQLite dependency for users of the binary
//  3. Performance is more than adequate for tens of thousands of rows
//
// # Schema
//
//   - applicants: one row per admissions result, p_id primary key
//   - analysis_runs: JSON snapshots of past analysis reports
package database
