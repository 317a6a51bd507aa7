// Package log provides structured logging helpers built on log/slog.
//
// The TruncatingHandler caps string attribute values so scraped free
// text (comments, program names) cannot flood log output. NewLogger and
// NewJSONLogger build ready-to-use loggers with the cap applied.
package log
