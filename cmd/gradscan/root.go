package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/gradscan/gradscan/internal/config"
	"github.com/gradscan/gradscan/internal/log"
)

// NewRootCmd creates the root command for GradScan.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gradscan",
		Short: "Graduate admissions data pipeline for the GradCafe survey",
		Long: `GradScan crawls the GradCafe admissions survey, standardizes the collected
records, loads them into a local SQLite database, and answers a fixed set
of analysis questions about admissions outcomes.

Each stage is available as its own command (scrape, clean, load, analyze),
and the run command executes the whole pipeline in order.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringP("config", "c", "", "Path to configuration file (default: ./.gradscan, then ~/.gradscan)")

	// Add subcommands
	cmd.AddCommand(NewScrapeCmd())
	cmd.AddCommand(NewCleanCmd())
	cmd.AddCommand(NewLoadCmd())
	cmd.AddCommand(NewAnalyzeCmd())
	cmd.AddCommand(NewRunCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig assembles the effective configuration for a command:
// built-in defaults and environment overrides first, then the
// configuration file, with flag handling left to each command.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	if found := config.FindConfigFile(configPath); found != "" {
		file, err := config.LoadConfigFile(found)
		if err != nil && !errors.Is(err, config.ErrConfigNotFound) {
			return nil, fmt.Errorf("load configuration file: %w", err)
		}
		if file != nil {
			file.Apply(cfg)
			cfg.ConfigFilePath = found
		}
	} else if configPath != "" {
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, configPath)
	}

	cfg.Verbose, err = cmd.Flags().GetBool("verbose")
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger builds the process logger. Verbose mode lowers the level to
// debug; all scraped free text is length-capped before it reaches the
// output.
func newLogger(cfg *config.Config) *slog.Logger {
	return log.NewLogger(os.Stderr, cfg.Verbose)
}

// timeRound is the display granularity for elapsed durations.
const timeRound = 100 * time.Millisecond

// secondsToDuration converts a float seconds value, the unit all the
// timing knobs use, into a time.Duration.
func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}
