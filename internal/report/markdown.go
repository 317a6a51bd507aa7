package report

import (
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"

	"github.com/gradscan/gradscan/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *model.AnalysisReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeAnswers(md, report)
	w.writeDetails(md, report)

	return len(md.String()), md.Build()
}

// writeHeader writes the report title and run information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.AnalysisReport) {
	md.H1("GradScan Analysis Report")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Generated", report.GeneratedAt.Format("2006-01-02 15:04:05 MST")},
			{"Applicant rows", strconv.Itoa(report.RowCount)},
			{"Questions", strconv.Itoa(len(report.Results))},
		},
	})
	md.PlainText("")
}

// writeAnswers writes the question and answer summary table.
func (w *MarkdownWriter) writeAnswers(md *markdown.Markdown, report *model.AnalysisReport) {
	md.H2("Answers")
	md.PlainText("")

	rows := make([][]string, 0, len(report.Results))
	for _, res := range report.Results {
		rows = append(rows, []string{res.ID, res.Question, res.Answer})
	}
	md.Table(markdown.TableSet{
		Header: []string{"ID", "Question", "Answer"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeDetails writes one section per question with its SQL and notes.
func (w *MarkdownWriter) writeDetails(md *markdown.Markdown, report *model.AnalysisReport) {
	md.H2("Details")
	md.PlainText("")

	for _, res := range report.Results {
		md.H3(res.ID + ": " + res.Question)
		md.PlainText(res.Explanation)
		md.PlainText("")
		md.CodeBlocks(markdown.SyntaxHighlightSQL, tidySQL(res.SQL))
		md.PlainText("")
	}
}

// tidySQL re-indents a query for display inside a code block.
func tidySQL(sqlText string) string {
	lines := strings.Split(sqlText, "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
