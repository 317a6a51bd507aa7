package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestTruncatingHandler(t *testing.T) {
	t.Parallel()

	t.Run("short values pass through", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(NewTruncatingHandler(slog.NewTextHandler(&buf, nil)))
		logger.Info("fetched page", "url", "https://example.com/survey")

		if !strings.Contains(buf.String(), "https://example.com/survey") {
			t.Errorf("output %q missing the full short value", buf.String())
		}
		if strings.Contains(buf.String(), truncationMarker) {
			t.Error("short value was truncated")
		}
	})

	t.Run("long values are capped", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(NewTruncatingHandler(
			slog.NewTextHandler(&buf, nil), WithMaxAttrLen(16)))

		long := strings.Repeat("x", 500)
		logger.Info("record comment", "comment", long)

		out := buf.String()
		if !strings.Contains(out, truncationMarker) {
			t.Error("long value was not marked as truncated")
		}
		if strings.Contains(out, strings.Repeat("x", 100)) {
			t.Error("long value was not actually shortened")
		}
	})

	t.Run("multibyte runes are not split", func(t *testing.T) {
		t.Parallel()

		// 3-byte runes with a cap that lands mid-rune.
		got := truncate(strings.Repeat("日", 10), 8)
		if len(got) != 6 {
			t.Errorf("truncate() kept %d bytes, want 6 (two whole runes)", len(got))
		}
	})

	t.Run("group attributes are capped recursively", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(NewTruncatingHandler(
			slog.NewTextHandler(&buf, nil), WithMaxAttrLen(16)))

		logger.Info("row",
			slog.Group("record",
				slog.String("comments", strings.Repeat("y", 200)),
				slog.String("status", "Accepted"),
			))

		out := buf.String()
		if !strings.Contains(out, truncationMarker) {
			t.Error("grouped long value was not truncated")
		}
		if !strings.Contains(out, "Accepted") {
			t.Error("grouped short value was lost")
		}
	})

	t.Run("non-verbose logger suppresses info", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := NewLogger(&buf, false)
		logger.Info("hidden")
		logger.Warn("visible")

		if strings.Contains(buf.String(), "hidden") {
			t.Error("info line logged at warn level")
		}
		if !strings.Contains(buf.String(), "visible") {
			t.Error("warn line missing")
		}
	})

	t.Run("verbose logger emits debug", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := NewJSONLogger(&buf, true)
		logger.Debug("details", "page", 3)

		if !strings.Contains(buf.String(), "details") {
			t.Error("debug line missing in verbose mode")
		}
	})
}
