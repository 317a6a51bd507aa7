// Package report renders analysis reports in multiple output formats.
//
// # Formats
//
//   - SimpleWriter: human-readable text for terminal display
//   - JSONWriter: machine-readable output for tool integration
//   - MarkdownWriter: documentation-friendly output with tables
//
// All writers implement the Writer interface, and MultiWriter fans a
// single report out to several destinations at once.
package report
