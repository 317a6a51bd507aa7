package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gradscan/gradscan/internal/config"
	"github.com/gradscan/gradscan/internal/model"
	"github.com/gradscan/gradscan/internal/pipeline"
)

// NewCleanCmd creates the clean command.
func NewCleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Standardize program and university names in the scraped data",
		Long: `Clean reads the scraped data file and adds standardized program and
university names to every record.

Standardization prefers the local standardizer service; when the service
is unreachable it falls back to a built-in rule set. Repeated program
names are standardized once and served from a cache afterwards.

Examples:
  # Clean with defaults
  gradscan clean

  # Use a standardizer on a different port
  gradscan clean --api-url http://localhost:9000/standardize`,
		RunE: runCleanCmd,
	}

	addCleanFlags(cmd)
	return cmd
}

// addCleanFlags registers the cleaning flags. The run command shares them.
func addCleanFlags(cmd *cobra.Command) {
	cmd.Flags().String("api-url", "",
		fmt.Sprintf("Standardizer service endpoint (default %s)", config.DefaultStandardizerURL))
	cmd.Flags().Int("batch-size", 0,
		fmt.Sprintf("Rows per standardizer call (default %d)", config.DefaultCleanBatchSize))
	cmd.Flags().String("input", "",
		fmt.Sprintf("Scraped data file to read (default %s)", config.DefaultOutputFile))
	cmd.Flags().String("cleaned-output", "",
		fmt.Sprintf("Cleaned data file to write (default %s)", config.DefaultCleanedFile))
}

// applyCleanFlags overlays set cleaning flags onto the configuration.
func applyCleanFlags(cmd *cobra.Command, cfg *config.Config) error {
	flagString := func(name string, dst *string) error {
		if !cmd.Flags().Changed(name) {
			return nil
		}
		v, err := cmd.Flags().GetString(name)
		if err != nil {
			return err
		}
		*dst = v
		return nil
	}

	if err := flagString("api-url", &cfg.StandardizerURL); err != nil {
		return err
	}
	if err := flagString("input", &cfg.OutputFile); err != nil {
		return err
	}
	if err := flagString("cleaned-output", &cfg.CleanedFile); err != nil {
		return err
	}

	if cmd.Flags().Changed("batch-size") {
		size, err := cmd.Flags().GetInt("batch-size")
		if err != nil {
			return err
		}
		cfg.CleanBatchSize = size
	}
	return nil
}

// runCleanCmd executes the clean command.
func runCleanCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := applyCleanFlags(cmd, cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(cfg)
	report := model.NewRunReport()

	step := pipeline.NewCleanStep(cfg, logger, cmd.OutOrStdout())
	if err := step.Do(cmd.Context(), report); err != nil {
		return err
	}

	stats := report.Clean
	mode := "standardizer service"
	if !stats.UsedAPI {
		mode = "built-in rules"
	}
	fmt.Fprintf(cmd.OutOrStdout(),
		"Clean finished: %d rows (%d cache hits) via %s\n", stats.Rows, stats.CacheHits, mode)
	fmt.Fprintf(cmd.OutOrStdout(), "Cleaned file: %s\n", cfg.CleanedFile)
	return nil
}
