package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/gradscan/gradscan/internal/model"
)

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// verbose additionally prints the SQL and the explanation of every
	// question instead of just its answer.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with SQL and explanations.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		verbose:    false,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the report in human-readable format.
func (w *SimpleWriter) Write(report *model.AnalysisReport) (int, error) {
	var sb strings.Builder

	sb.WriteString("GradScan Analysis Report\n")
	sb.WriteString(strings.Repeat("=", 60) + "\n")
	fmt.Fprintf(&sb, "Generated: %s\n", report.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&sb, "Applicant rows: %d\n\n", report.RowCount)

	for _, res := range report.Results {
		fmt.Fprintf(&sb, "Q: %s\n", res.Question)
		fmt.Fprintf(&sb, "A: %s\n", res.Answer)
		if w.verbose {
			fmt.Fprintf(&sb, "   SQL: %s\n", collapseSpace(res.SQL))
			fmt.Fprintf(&sb, "   Note: %s\n", res.Explanation)
		}
		sb.WriteString("\n")
	}

	return io.WriteString(w.output, sb.String())
}

// collapseSpace flattens a multi-line SQL statement onto one line.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
