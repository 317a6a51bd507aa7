package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/gradscan/gradscan/internal/config"
	"github.com/gradscan/gradscan/internal/model"
	"github.com/gradscan/gradscan/internal/pipeline"
	"github.com/gradscan/gradscan/internal/report"
)

// NewAnalyzeCmd creates the analyze command.
func NewAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Answer the admissions questions over the applicant database",
		Long: `Analyze runs the fixed set of admissions questions against the applicant
database, stores a snapshot of the results, and renders the report.

The default output is human-readable text. With --json or --markdown the
report is rendered in that format instead, optionally into a file.

Examples:
  # Text report to the terminal
  gradscan analyze

  # Machine-readable report
  gradscan analyze --json

  # Markdown report written to a file
  gradscan analyze --markdown --report-file report.md`,
		RunE: runAnalyzeCmd,
	}

	addLoadFlags(cmd)
	addAnalyzeFlags(cmd)
	return cmd
}

// addAnalyzeFlags registers the report format flags. The run command
// shares them.
func addAnalyzeFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("json", false, "Render the report as JSON")
	cmd.Flags().Bool("markdown", false, "Render the report as Markdown")
	cmd.Flags().String("report-file", "", "Write the report to this file instead of stdout")
}

// applyAnalyzeFlags overlays set report flags onto the configuration.
func applyAnalyzeFlags(cmd *cobra.Command, cfg *config.Config) error {
	var err error
	if cfg.JSONReport, err = cmd.Flags().GetBool("json"); err != nil {
		return err
	}
	if cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown"); err != nil {
		return err
	}
	if cfg.ReportFile, err = cmd.Flags().GetString("report-file"); err != nil {
		return err
	}
	return nil
}

// runAnalyzeCmd executes the analyze command.
func runAnalyzeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := applyLoadFlags(cmd, cfg); err != nil {
		return err
	}
	if err := applyAnalyzeFlags(cmd, cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(cfg)
	runReport := model.NewRunReport()

	step := pipeline.NewAnalyzeStep(cfg, logger)
	if err := step.Do(cmd.Context(), runReport); err != nil {
		return err
	}

	return renderAnalysis(cmd.OutOrStdout(), cfg, runReport.Analysis)
}

// renderAnalysis writes the analysis report in the configured format and
// destination.
func renderAnalysis(stdout io.Writer, cfg *config.Config, analysisReport *model.AnalysisReport) error {
	dest := stdout
	if cfg.ReportFile != "" {
		f, err := os.Create(cfg.ReportFile)
		if err != nil {
			return fmt.Errorf("create report file: %w", err)
		}
		defer func() { _ = f.Close() }()
		dest = f
	}

	var w report.Writer
	switch {
	case cfg.JSONReport:
		w = report.NewJSONWriter(dest, report.WithPrettyPrint())
	case cfg.MarkdownReport:
		w = report.NewMarkdownWriter(dest)
	default:
		w = report.NewSimpleWriter(dest, report.WithVerbose(cfg.Verbose))
	}

	if _, err := w.Write(analysisReport); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
