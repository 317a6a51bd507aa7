package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gradscan/gradscan/internal/config"
	"github.com/gradscan/gradscan/internal/model"
	"github.com/gradscan/gradscan/internal/pipeline"
)

// NewScrapeCmd creates the scrape command.
func NewScrapeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Crawl the admissions survey into a local JSON data file",
		Long: `Scrape crawls the GradCafe survey listing page by page with a pool of
concurrent workers, deduplicates records by their result identifier, and
checkpoints progress to the output file at a fixed page interval.

An interrupted crawl resumes from the checkpoint: already collected
records are kept and the crawl continues near where it stopped.

Examples:
  # Crawl with defaults until 30000 unique records
  gradscan scrape

  # Smaller crawl with more workers
  gradscan scrape --target 5000 --workers 8

  # Write to a custom data file
  gradscan scrape -o data/applicants.json`,
		RunE: runScrapeCmd,
	}

	addScrapeFlags(cmd)
	return cmd
}

// addScrapeFlags registers the crawl flags. The run command shares them.
func addScrapeFlags(cmd *cobra.Command) {
	cmd.Flags().IntP("target", "t", 0,
		fmt.Sprintf("Unique record count at which the crawl stops (default %d)", config.DefaultTargetCount))
	cmd.Flags().IntP("workers", "w", 0,
		fmt.Sprintf("Concurrent page workers (default %d)", config.DefaultWorkers))
	cmd.Flags().Int("retries", -1,
		fmt.Sprintf("Retry budget per page fetch (default %d)", config.DefaultRetries))
	cmd.Flags().Float64("timeout", 0,
		"Per-request timeout in seconds")
	cmd.Flags().Int("save-every", 0,
		fmt.Sprintf("Checkpoint interval in completed pages (default %d)", config.DefaultSaveInterval))
	cmd.Flags().StringP("output", "o", "",
		fmt.Sprintf("Data file path (default %s)", config.DefaultOutputFile))
}

// applyScrapeFlags overlays set crawl flags onto the configuration.
func applyScrapeFlags(cmd *cobra.Command, cfg *config.Config) error {
	flagInt := func(name string, dst *int) error {
		if !cmd.Flags().Changed(name) {
			return nil
		}
		v, err := cmd.Flags().GetInt(name)
		if err != nil {
			return err
		}
		*dst = v
		return nil
	}

	if err := flagInt("target", &cfg.TargetCount); err != nil {
		return err
	}
	if err := flagInt("workers", &cfg.Workers); err != nil {
		return err
	}
	if err := flagInt("retries", &cfg.Retries); err != nil {
		return err
	}
	if err := flagInt("save-every", &cfg.SaveInterval); err != nil {
		return err
	}

	if cmd.Flags().Changed("timeout") {
		seconds, err := cmd.Flags().GetFloat64("timeout")
		if err != nil {
			return err
		}
		cfg.Timeout = secondsToDuration(seconds)
	}
	if cmd.Flags().Changed("output") {
		output, err := cmd.Flags().GetString("output")
		if err != nil {
			return err
		}
		cfg.OutputFile = output
	}
	return nil
}

// runScrapeCmd executes the scrape command.
func runScrapeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := applyScrapeFlags(cmd, cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(cfg)
	report := model.NewRunReport()

	step := pipeline.NewScrapeStep(cfg, logger, cmd.OutOrStdout())
	if err := step.Do(cmd.Context(), report); err != nil {
		return err
	}

	stats := report.Crawl
	fmt.Fprintf(cmd.OutOrStdout(),
		"Scrape finished: %d records (%d new) across %d pages in %s\n",
		stats.RecordCount, stats.NewRecords, stats.PagesFetched, stats.Elapsed.Round(timeRound))
	if !stats.TargetReached {
		fmt.Fprintln(cmd.OutOrStdout(),
			"Stopped before the target: the survey ran out of new records.")
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Data file: %s\n", cfg.OutputFile)
	return nil
}
