// Package checkpoint persists the accumulated crawl state as an atomic
// JSON snapshot and computes the resume cursor for interrupted crawls.
//
// The checkpoint file is the contract between the scraping stage and the
// cleaning/loading stages: a JSON array of records using the source's
// native key spellings. Writes go through a temp-file-and-rename so a
// concurrent reader only ever sees a complete old or complete new file.
package checkpoint
