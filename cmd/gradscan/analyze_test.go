package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gradscan/gradscan/internal/config"
	"github.com/gradscan/gradscan/internal/model"
)

// TestNewAnalyzeCmd tests the analyze command creation.
func TestNewAnalyzeCmd(t *testing.T) {
	t.Parallel()

	cmd := NewAnalyzeCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "analyze" {
			t.Errorf("expected use 'analyze', got %q", cmd.Use)
		}
	})

	t.Run("has short description", func(t *testing.T) {
		t.Parallel()
		if cmd.Short == "" {
			t.Error("expected non-empty short description")
		}
	})

	t.Run("has report flags", func(t *testing.T) {
		t.Parallel()
		for _, name := range []string{"json", "markdown", "report-file", "db-dir"} {
			if cmd.Flags().Lookup(name) == nil {
				t.Errorf("expected %s flag", name)
			}
		}
	})
}

// analysisFixture returns a small report for rendering tests.
func analysisFixture() *model.AnalysisReport {
	return &model.AnalysisReport{
		GeneratedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		RowCount:    2,
		Results: []model.AnalysisResult{
			{
				ID:          "q1",
				Question:    "How many applicants applied for Fall 2025?",
				Answer:      "2 applications",
				SQL:         "SELECT COUNT(*) FROM applicants",
				Explanation: "Counts rows matching the term.",
			},
		},
	}
}

// TestRenderAnalysis tests report rendering in each configured format.
func TestRenderAnalysis(t *testing.T) {
	t.Parallel()

	t.Run("renders text by default", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		cfg := config.NewConfig()
		if err := renderAnalysis(&buf, cfg, analysisFixture()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		out := buf.String()
		if !strings.Contains(out, "GradScan Analysis Report") {
			t.Errorf("expected report header, got %q", out)
		}
		if !strings.Contains(out, "2 applications") {
			t.Errorf("expected answer in output, got %q", out)
		}
	})

	t.Run("renders JSON when configured", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		cfg := config.NewConfig()
		cfg.JSONReport = true
		if err := renderAnalysis(&buf, cfg, analysisFixture()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var decoded model.AnalysisReport
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("expected valid JSON output: %v", err)
		}
		if decoded.RowCount != 2 {
			t.Errorf("expected row count 2, got %d", decoded.RowCount)
		}
	})

	t.Run("renders Markdown when configured", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		cfg := config.NewConfig()
		cfg.MarkdownReport = true
		if err := renderAnalysis(&buf, cfg, analysisFixture()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(buf.String(), "# GradScan Analysis Report") {
			t.Errorf("expected Markdown heading, got %q", buf.String())
		}
	})

	t.Run("writes to the report file when set", func(t *testing.T) {
		t.Parallel()

		reportPath := filepath.Join(t.TempDir(), "report.md")
		var buf bytes.Buffer
		cfg := config.NewConfig()
		cfg.MarkdownReport = true
		cfg.ReportFile = reportPath

		if err := renderAnalysis(&buf, cfg, analysisFixture()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if buf.Len() != 0 {
			t.Errorf("expected nothing on stdout, got %q", buf.String())
		}

		content, err := os.ReadFile(reportPath)
		if err != nil {
			t.Fatalf("failed to read report file: %v", err)
		}
		if !strings.Contains(string(content), "# GradScan Analysis Report") {
			t.Error("expected Markdown report in file")
		}
	})
}
