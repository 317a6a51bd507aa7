package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/gradscan/gradscan/internal/analysis"
	"github.com/gradscan/gradscan/internal/cleaner"
	"github.com/gradscan/gradscan/internal/config"
	"github.com/gradscan/gradscan/internal/database"
	"github.com/gradscan/gradscan/internal/model"
	"github.com/gradscan/gradscan/internal/scraper"
)

// ScrapeStep runs the concurrent crawl and records its statistics.
//
// Design decision: Each stage of the pipeline is its own step rather
// than one monolithic function because:
// 1. The run command composes them; the other commands run one each
// 2. Steps can be skipped or reordered without touching stage code
// 3. Failures attribute cleanly to a named stage in logs and reports
type ScrapeStep struct {
	cfg      *config.Config
	logger   *slog.Logger
	progress io.Writer
}

// NewScrapeStep creates a scrape step from the shared configuration.
func NewScrapeStep(cfg *config.Config, logger *slog.Logger, progress io.Writer) *ScrapeStep {
	return &ScrapeStep{cfg: cfg, logger: logger, progress: progress}
}

// Name returns the step name.
func (s *ScrapeStep) Name() string {
	return "scrape"
}

// Do executes the crawl.
func (s *ScrapeStep) Do(ctx context.Context, report *model.RunReport) error {
	sc, err := scraper.NewScraper(s.cfg,
		scraper.WithLogger(s.logger),
		scraper.WithProgress(s.progress))
	if err != nil {
		return fmt.Errorf("create scraper: %w", err)
	}

	stats, err := sc.Run(ctx)
	if stats != nil {
		report.Crawl = stats
		report.CheckpointFile = s.cfg.OutputFile
	}
	return err
}

// CleanStep standardizes the scraped data file.
type CleanStep struct {
	cfg      *config.Config
	logger   *slog.Logger
	progress io.Writer
}

// NewCleanStep creates a clean step from the shared configuration.
func NewCleanStep(cfg *config.Config, logger *slog.Logger, progress io.Writer) *CleanStep {
	return &CleanStep{cfg: cfg, logger: logger, progress: progress}
}

// Name returns the step name.
func (s *CleanStep) Name() string {
	return "clean"
}

// Do executes the cleaning stage.
func (s *CleanStep) Do(ctx context.Context, report *model.RunReport) error {
	c := cleaner.NewCleaner(s.cfg,
		cleaner.WithLogger(s.logger),
		cleaner.WithProgress(s.progress))

	stats, err := c.Run(ctx)
	if err != nil {
		return err
	}
	report.Clean = stats
	report.CleanedFile = s.cfg.CleanedFile
	return nil
}

// LoadStep moves the cleaned data into the applicant database.
type LoadStep struct {
	cfg    *config.Config
	logger *slog.Logger
}

// NewLoadStep creates a load step from the shared configuration.
func NewLoadStep(cfg *config.Config, logger *slog.Logger) *LoadStep {
	return &LoadStep{cfg: cfg, logger: logger}
}

// Name returns the step name.
func (s *LoadStep) Name() string {
	return "load"
}

// Do executes the database load.
func (s *LoadStep) Do(ctx context.Context, report *model.RunReport) error {
	db, err := database.Open(s.cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	stats, err := database.NewLoader(db, s.cfg.CleanedFile, s.cfg.OutputFile, s.logger).Load(ctx)
	if err != nil {
		return err
	}
	report.Load = stats
	return nil
}

// AnalyzeStep runs the fixed question set and snapshots the result.
type AnalyzeStep struct {
	cfg    *config.Config
	logger *slog.Logger
}

// NewAnalyzeStep creates an analyze step from the shared configuration.
func NewAnalyzeStep(cfg *config.Config, logger *slog.Logger) *AnalyzeStep {
	return &AnalyzeStep{cfg: cfg, logger: logger}
}

// Name returns the step name.
func (s *AnalyzeStep) Name() string {
	return "analyze"
}

// Do executes the analysis and stores a snapshot of the report.
func (s *AnalyzeStep) Do(ctx context.Context, report *model.RunReport) error {
	db, err := database.Open(s.cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	result, err := analysis.NewAnalyzer(db, analysis.WithLogger(s.logger)).Run(ctx)
	if err != nil {
		return err
	}
	if _, err := db.SaveAnalysisRun(ctx, result); err != nil {
		return err
	}
	report.Analysis = result
	return nil
}
