package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gradscan/gradscan/internal/checkpoint"
	"github.com/gradscan/gradscan/internal/config"
	"github.com/gradscan/gradscan/internal/model"
)

// pageResult carries the outcome of one fetched-and-parsed page from a
// worker back to the coordinator. Fetch failures travel in err rather
// than terminating the worker: a single bad page is counted, not fatal.
type pageResult struct {
	page    int
	records []model.Record
	outcome Outcome
	err     error
}

// Scraper coordinates the concurrent paginated crawl: a fixed pool of
// workers fetches and parses pages while a single coordinator goroutine
// owns the accumulated record set, the dedup index, and the checkpoint.
//
// Design decision: Workers never touch shared state. All merging happens
// in the coordinator over a results channel because:
//  1. No locks around the record slice or the seen-ID index
//  2. The consecutive-bad-page counter needs a single serial observer
//  3. Checkpoint writes stay strictly ordered with record merges
type Scraper struct {
	cfg      *config.Config
	fetcher  *Fetcher
	parser   *Parser
	store    *checkpoint.Store
	logger   *slog.Logger
	progress io.Writer
}

// Option configures a Scraper.
type Option func(*Scraper)

// WithFetcher replaces the default fetcher. Used by tests to point the
// crawl at a local server with retry timing disabled.
func WithFetcher(f *Fetcher) Option {
	return func(s *Scraper) { s.fetcher = f }
}

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Scraper) { s.logger = l }
}

// WithProgress sets the destination for the in-place progress line.
// Defaults to standard output; tests pass io.Discard.
func WithProgress(w io.Writer) Option {
	return func(s *Scraper) { s.progress = w }
}

// NewScraper creates a Scraper from the given configuration. The
// checkpoint store is rooted at cfg.OutputFile.
func NewScraper(cfg *config.Config, opts ...Option) (*Scraper, error) {
	parser, err := NewParser(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}

	client := &http.Client{Timeout: cfg.Timeout}
	s := &Scraper{
		cfg:    cfg,
		parser: parser,
		fetcher: NewFetcher(client,
			WithUserAgent(cfg.UserAgent),
			WithRetries(cfg.Retries),
			WithJitter(cfg.JitterMin, cfg.JitterMax)),
		store:    checkpoint.NewStore(cfg.OutputFile),
		logger:   slog.Default(),
		progress: os.Stdout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Run executes the crawl until the record target is reached, the
// consecutive-bad-page ceiling trips, or the context is cancelled.
// It resumes from the checkpoint file when one exists and flushes the
// checkpoint on every save interval and once more before returning, so
// an interrupted crawl never loses more than one interval of work.
func (s *Scraper) Run(ctx context.Context) (*model.CrawlStats, error) {
	start := time.Now()

	records, err := s.store.Load()
	if err != nil {
		if !errors.Is(err, checkpoint.ErrCorrupt) {
			return nil, fmt.Errorf("load checkpoint: %w", err)
		}
		// A corrupt file is discarded, not fatal: the crawl starts over
		// from page 1 and the next flush overwrites it.
		s.logger.Warn("discarding corrupt checkpoint",
			"file", s.store.Path(), "error", err)
		records = []model.Record{}
	}
	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		seen[r.ResultID] = struct{}{}
	}

	stats := &model.CrawlStats{RecordCount: len(records)}
	if len(records) >= s.cfg.TargetCount {
		stats.TargetReached = true
		stats.Elapsed = time.Since(start)
		s.logger.Info("target already satisfied by checkpoint",
			"records", len(records), "target", s.cfg.TargetCount)
		return stats, nil
	}

	startPage := checkpoint.ResumePage(len(records))
	s.logger.Info("starting crawl",
		"resume_page", startPage,
		"records", len(records),
		"target", s.cfg.TargetCount,
		"workers", s.cfg.Workers)

	// Buffered to the worker count so the coordinator's one-in-one-out
	// replacement sends can never block.
	pages := make(chan int, s.cfg.Workers)
	results := make(chan pageResult)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < s.cfg.Workers; i++ {
		g.Go(func() error {
			for page := range pages {
				res := s.fetchPage(gctx, page)
				select {
				case results <- res:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}

	nextPage := startPage
	inFlight := 0
	for i := 0; i < s.cfg.Workers; i++ {
		pages <- nextPage
		nextPage++
		inFlight++
	}

	ceiling := s.cfg.BadPageCeiling()
	badStreak := 0
	sinceFlush := 0
	stopping := false
	var runErr error

	// One-in-one-out scheduling: every completed page admits at most one
	// replacement, so at most Workers pages are in flight. Once a stop
	// condition trips we stop submitting and drain what remains, merging
	// late results before the final flush.
drain:
	for inFlight > 0 {
		select {
		case <-gctx.Done():
			runErr = gctx.Err()
			break drain
		case res := <-results:
			inFlight--
			stats.PagesFetched++

			newCount := s.merge(&records, seen, res)
			stats.NewRecords += newCount
			stats.RecordCount = len(records)

			switch {
			case newCount > 0:
				badStreak = 0
			case res.err != nil || res.outcome != OutcomeOK:
				badStreak++
			}

			sinceFlush++
			if sinceFlush >= s.cfg.SaveInterval {
				if err := s.store.Save(records); err != nil {
					runErr = fmt.Errorf("save checkpoint: %w", err)
					break drain
				}
				sinceFlush = 0
			}

			fmt.Fprintf(s.progress, "\rProgress: %d/%d records (%d pages, %d new) | Bad streak: %d",
				len(records), s.cfg.TargetCount, stats.PagesFetched, stats.NewRecords, badStreak)

			if !stopping {
				switch {
				case len(records) >= s.cfg.TargetCount:
					stats.TargetReached = true
					stopping = true
				case badStreak >= ceiling:
					s.logger.Warn("stopping: consecutive unproductive pages",
						"streak", badStreak, "ceiling", ceiling)
					stopping = true
				default:
					pages <- nextPage
					nextPage++
					inFlight++
				}
			}
		}
	}
	close(pages)
	if werr := g.Wait(); werr != nil && runErr == nil {
		runErr = werr
	}

	fmt.Fprintln(s.progress)
	if err := s.store.Save(records); err != nil && runErr == nil {
		runErr = fmt.Errorf("save checkpoint: %w", err)
	}

	stats.RecordCount = len(records)
	stats.BadPageStreak = badStreak
	stats.Elapsed = time.Since(start)

	switch {
	case runErr != nil:
		s.logger.Warn("crawl interrupted", "records", len(records), "error", runErr)
	case stats.TargetReached:
		s.logger.Info("crawl complete: target reached",
			"records", len(records), "pages", stats.PagesFetched, "elapsed", stats.Elapsed)
	default:
		s.logger.Info("crawl stopped before target: source exhausted",
			"records", len(records), "pages", stats.PagesFetched, "elapsed", stats.Elapsed)
	}
	return stats, runErr
}

// merge folds one page result into the accumulated set, returning how
// many records were new. Records without an identifier are dropped, and
// previously seen identifiers are skipped, so reprocessing overlapping
// pages after a resume is harmless.
func (s *Scraper) merge(records *[]model.Record, seen map[string]struct{}, res pageResult) int {
	if res.err != nil {
		s.logger.Warn("page failed", "page", res.page, "error", res.err)
		return 0
	}
	if res.outcome != OutcomeOK {
		s.logger.Debug("page yielded nothing", "page", res.page, "outcome", res.outcome.String())
		return 0
	}
	newCount := 0
	for _, rec := range res.records {
		if !rec.HasID() {
			continue
		}
		if _, dup := seen[rec.ResultID]; dup {
			continue
		}
		seen[rec.ResultID] = struct{}{}
		*records = append(*records, rec)
		newCount++
	}
	return newCount
}

// fetchPage retrieves and parses a single listing page. Failures are
// folded into the result rather than returned, because a failed page is
// a countable event for the coordinator, not a crawl-fatal error.
func (s *Scraper) fetchPage(ctx context.Context, page int) pageResult {
	pageURL := PageURL(s.cfg.BaseURL, s.cfg.PerPage, s.cfg.PageToken, s.cfg.SortOrder, page)
	body, err := s.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return pageResult{page: page, err: err, outcome: OutcomeError}
	}
	recs, outcome := s.parser.Parse(body)
	return pageResult{page: page, records: recs, outcome: outcome}
}
