// Package cleaner standardizes program and university names across the
// scraped data file.
//
// # Architecture
//
// The Cleaner walks the raw records in batches. Each batch is filled from
// an in-memory cache keyed by raw program text first; the remaining rows
// go to the local standardizer service (a language-model host speaking a
// small JSON batch protocol) or, when the service is unavailable, to a
// deterministic built-in rule set. Output is written atomically at fixed
// row intervals and once more at the end.
//
// # Degradation
//
// Service availability is probed once before the run. If the service
// fails mid-run, the cleaner demotes itself to the built-in rules for the
// remainder of the run instead of retrying per batch.
//
// # Usage
//
//	c := cleaner.NewCleaner(cfg)
//	stats, err := c.Run(ctx)
package cleaner
