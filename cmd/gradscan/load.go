package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gradscan/gradscan/internal/config"
	"github.com/gradscan/gradscan/internal/model"
	"github.com/gradscan/gradscan/internal/pipeline"
)

// NewLoadCmd creates the load command.
func NewLoadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load the data file into the applicant database",
		Long: `Load reads the cleaned data file (falling back to the raw scrape when no
cleaned file exists) and upserts every record into the SQLite applicant
database. Loading is idempotent: records are keyed by their result
identifier, so reloading an extended data file updates rows in place.

Examples:
  # Load into the default database location
  gradscan load

  # Keep the database next to the data
  gradscan load --db-dir ./data`,
		RunE: runLoadCmd,
	}

	addLoadFlags(cmd)
	return cmd
}

// addLoadFlags registers the load flags. The run command shares them.
func addLoadFlags(cmd *cobra.Command) {
	cmd.Flags().String("db-dir", "",
		"Directory holding the SQLite database (default: XDG data directory)")
}

// applyLoadFlags overlays set load flags onto the configuration.
func applyLoadFlags(cmd *cobra.Command, cfg *config.Config) error {
	if cmd.Flags().Changed("db-dir") {
		dir, err := cmd.Flags().GetString("db-dir")
		if err != nil {
			return err
		}
		cfg.DBDir = dir
	}
	return nil
}

// runLoadCmd executes the load command.
func runLoadCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := applyLoadFlags(cmd, cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(cfg)
	report := model.NewRunReport()

	step := pipeline.NewLoadStep(cfg, logger)
	if err := step.Do(cmd.Context(), report); err != nil {
		return err
	}

	stats := report.Load
	fmt.Fprintf(cmd.OutOrStdout(),
		"Load finished: %d rows upserted, %d skipped\n", stats.Loaded, stats.Skipped)
	fmt.Fprintf(cmd.OutOrStdout(), "Database directory: %s\n", cfg.DBDir)
	return nil
}
