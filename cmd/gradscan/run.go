package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gradscan/gradscan/internal/config"
	"github.com/gradscan/gradscan/internal/model"
	"github.com/gradscan/gradscan/internal/pipeline"
)

// NewRunCmd creates the run command.
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute the whole pipeline: scrape, clean, load, analyze",
		Long: `Run executes every pipeline stage in order: crawl the survey, standardize
the collected records, load them into the applicant database, and answer
the analysis questions.

With --continue-on-error a failing stage is recorded and the remaining
stages still run; this lets an unreachable standardizer service degrade
the run instead of aborting it.

Examples:
  # Full pipeline with defaults
  gradscan run

  # Small end-to-end run into a local directory
  gradscan run --target 1000 --db-dir ./data --continue-on-error`,
		RunE: runRunCmd,
	}

	addScrapeFlags(cmd)
	addCleanFlags(cmd)
	addLoadFlags(cmd)
	addAnalyzeFlags(cmd)
	cmd.Flags().Bool("continue-on-error", false,
		"Keep executing later stages when one fails")
	return cmd
}

// runRunCmd executes the run command.
func runRunCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	for _, apply := range []func(*cobra.Command, *config.Config) error{
		applyScrapeFlags, applyCleanFlags, applyLoadFlags, applyAnalyzeFlags,
	} {
		if err := apply(cmd, cfg); err != nil {
			return err
		}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	continueOnError, err := cmd.Flags().GetBool("continue-on-error")
	if err != nil {
		return err
	}

	logger := newLogger(cfg)
	stdout := cmd.OutOrStdout()

	p := pipeline.New(
		pipeline.WithLogger(logger),
		pipeline.WithContinueOnError(continueOnError),
	)
	p.AddSteps(
		pipeline.NewScrapeStep(cfg, logger, stdout),
		pipeline.NewCleanStep(cfg, logger, stdout),
		pipeline.NewLoadStep(cfg, logger),
		pipeline.NewAnalyzeStep(cfg, logger),
	)

	runReport := model.NewRunReport()
	if err := p.Execute(cmd.Context(), runReport); err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Pipeline finished: steps %v\n", runReport.PerformedSteps)
	if runReport.Error != nil {
		fmt.Fprintf(stdout, "Completed with a failed stage: %s\n", runReport.ErrorMessage)
	}
	if runReport.Analysis != nil {
		if err := renderAnalysis(stdout, cfg, runReport.Analysis); err != nil {
			return err
		}
	}
	return nil
}
