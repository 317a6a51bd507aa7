package log

import (
	"context"
	"io"
	"log/slog"
	"unicode/utf8"
)

// DefaultMaxAttrLen is the length at which string attribute values are
// truncated. Scraped rows carry free text (comments, program names) that
// can run to kilobytes; log lines should not.
const DefaultMaxAttrLen = 256

// truncationMarker is appended to truncated values so readers know the
// value continues.
const truncationMarker = "...(truncated)"

// TruncatingHandler wraps an slog.Handler to cap the length of string
// attribute values. Scraper and cleaner logs routinely include scraped
// free text, and a single pathological comment should not flood the log.
//
// Design decision: We use a handler wrapper rather than truncating at
// each call site because:
//  1. It integrates seamlessly with standard slog APIs
//  2. It works with any underlying handler (text, JSON, etc.)
//  3. Call sites stay readable; the policy lives in one place
type TruncatingHandler struct {
	// handler is the underlying slog handler that receives capped records.
	handler slog.Handler

	// maxLen is the maximum string attribute value length in bytes.
	maxLen int
}

// TruncatingHandlerOption configures a TruncatingHandler.
type TruncatingHandlerOption func(*TruncatingHandler)

// WithMaxAttrLen overrides the truncation length.
func WithMaxAttrLen(n int) TruncatingHandlerOption {
	return func(h *TruncatingHandler) {
		if n > 0 {
			h.maxLen = n
		}
	}
}

// NewTruncatingHandler creates a TruncatingHandler wrapping the given
// handler. If handler is nil, slog.Default().Handler() is used.
func NewTruncatingHandler(handler slog.Handler, opts ...TruncatingHandlerOption) *TruncatingHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	h := &TruncatingHandler{
		handler: handler,
		maxLen:  DefaultMaxAttrLen,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Enabled reports whether the handler handles records at the given level.
// It delegates to the underlying handler.
func (h *TruncatingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle caps the record's attributes and passes it on.
func (h *TruncatingHandler) Handle(ctx context.Context, r slog.Record) error {
	capped := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		capped.AddAttrs(h.truncateAttr(a))
		return true
	})
	return h.handler.Handle(ctx, capped)
}

// WithAttrs returns a new handler with the given attributes added,
// capped first.
func (h *TruncatingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	cappedAttrs := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		cappedAttrs[i] = h.truncateAttr(a)
	}
	return &TruncatingHandler{handler: h.handler.WithAttrs(cappedAttrs), maxLen: h.maxLen}
}

// WithGroup returns a new handler with the given group name.
func (h *TruncatingHandler) WithGroup(name string) slog.Handler {
	return &TruncatingHandler{handler: h.handler.WithGroup(name), maxLen: h.maxLen}
}

// truncateAttr caps a single attribute, recursively handling groups.
func (h *TruncatingHandler) truncateAttr(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		cappedAttrs := make([]slog.Attr, len(attrs))
		for i, groupAttr := range attrs {
			cappedAttrs[i] = h.truncateAttr(groupAttr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(cappedAttrs...)}
	}

	if a.Value.Kind() == slog.KindString {
		if s := a.Value.String(); len(s) > h.maxLen {
			return slog.String(a.Key, truncate(s, h.maxLen)+truncationMarker)
		}
	}
	return a
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// NewLogger creates a slog.Logger with attribute truncation over a text
// handler.
//
// Parameters:
//   - w: The io.Writer to write log output to (typically os.Stderr)
//   - verbose: If true, sets log level to Debug; otherwise Warn
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}
	return slog.New(NewTruncatingHandler(slog.NewTextHandler(w, opts)))
}

// NewJSONLogger creates a slog.Logger with attribute truncation over a
// JSON handler. Useful for structured log aggregation.
func NewJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}
	return slog.New(NewTruncatingHandler(slog.NewJSONHandler(w, opts)))
}
