// Package pipeline sequences the data stages into a single run.
//
// # Architecture
//
// A Pipeline holds an ordered list of Steps, each wrapping one stage
// (scrape, clean, load, analyze). Steps share a RunReport: every step
// records its statistics there, and later steps may read what earlier
// steps produced. The run command assembles the full sequence; the
// per-stage commands run one step each.
//
// # Error Handling
//
// By default the pipeline stops on the first failing step. With
// WithContinueOnError, failures are recorded in the report and the
// remaining steps still run, which lets a dead standardizer service
// degrade the run instead of killing it.
package pipeline
