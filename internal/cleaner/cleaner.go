package cleaner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gradscan/gradscan/internal/checkpoint"
	"github.com/gradscan/gradscan/internal/config"
	"github.com/gradscan/gradscan/internal/model"
)

// ErrNoInput is returned when the raw data file does not exist. Running
// the cleaner before the scraper is an operator mistake worth a distinct
// error.
var ErrNoInput = errors.New("no scraped data file to clean")

// saveEveryRows is how many processed rows may accumulate between
// intermediate atomic saves of the cleaned output.
const saveEveryRows = 1000

// batchPayload is the request and response envelope of the standardizer
// service: both directions carry a list of records under "rows".
type batchPayload struct {
	Rows []model.Record `json:"rows"`
}

// Cleaner standardizes program and university names across a scraped
// data file. It prefers the local standardizer service and degrades to
// the built-in rule set when the service is absent or starts failing.
//
// Design decision: Availability is probed once up front and demoted at
// most once mid-run rather than retried per batch because:
//  1. A dead service stays dead for the remainder of a batch run
//  2. Mixing sources within one run would make output cache-dependent
//  3. The demotion event is worth one log line, not hundreds
type Cleaner struct {
	client   *http.Client
	apiURL   string
	batch    int
	input    string
	output   string
	fallback FallbackStandardizer
	logger   *slog.Logger
	progress io.Writer

	// cache maps the lowercased raw program text to its standardized
	// pair, so repeated programs cost one standardization each.
	cache map[string]standardized
}

type standardized struct {
	program    string
	university string
}

// Option configures a Cleaner.
type Option func(*Cleaner)

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Cleaner) { c.logger = l }
}

// WithProgress sets the destination of the in-place progress line.
func WithProgress(w io.Writer) Option {
	return func(c *Cleaner) { c.progress = w }
}

// WithHTTPClient replaces the service client. Used by tests.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Cleaner) { c.client = client }
}

// NewCleaner creates a Cleaner reading cfg.OutputFile and writing
// cfg.CleanedFile.
func NewCleaner(cfg *config.Config, opts ...Option) *Cleaner {
	c := &Cleaner{
		client:   &http.Client{Timeout: cfg.CleanTimeout},
		apiURL:   cfg.StandardizerURL,
		batch:    cfg.CleanBatchSize,
		input:    cfg.OutputFile,
		output:   cfg.CleanedFile,
		logger:   slog.Default(),
		progress: os.Stdout,
		cache:    make(map[string]standardized),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run cleans the whole input file and writes the standardized output.
// The output file is written atomically, both at intermediate save
// points and at the end, so a crash never leaves a torn file behind.
func (c *Cleaner) Run(ctx context.Context) (*model.CleanStats, error) {
	records, err := c.loadInput()
	if err != nil {
		return nil, err
	}

	stats := &model.CleanStats{UsedAPI: c.available(ctx)}
	c.logger.Info("starting cleaning",
		"rows", len(records), "api_available", stats.UsedAPI)

	start := time.Now()
	out := checkpoint.NewStore(c.output)
	useAPI := stats.UsedAPI
	sinceSave := 0

	for i := 0; i < len(records); i += c.batch {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		end := i + c.batch
		if end > len(records) {
			end = len(records)
		}
		batch := records[i:end]

		hits, demoted, err := c.cleanBatch(ctx, batch, useAPI)
		if err != nil {
			return nil, err
		}
		stats.CacheHits += hits
		if demoted {
			c.logger.Warn("standardizer service failed, switching to built-in rules")
			useAPI = false
		}

		stats.Rows = end
		sinceSave += len(batch)
		if sinceSave >= saveEveryRows {
			if err := out.Save(records[:end]); err != nil {
				return nil, fmt.Errorf("save cleaned data: %w", err)
			}
			sinceSave = 0
		}

		fmt.Fprintf(c.progress, "\rCleaning: %6.2f%% | %d/%d | Hits: %d | Time: %.1fs",
			float64(end)/float64(len(records))*100, end, len(records),
			stats.CacheHits, time.Since(start).Seconds())
	}
	fmt.Fprintln(c.progress)

	if err := out.Save(records); err != nil {
		return nil, fmt.Errorf("save cleaned data: %w", err)
	}
	c.logger.Info("cleaning complete",
		"rows", stats.Rows, "cache_hits", stats.CacheHits, "elapsed", time.Since(start))
	return stats, nil
}

// cleanBatch standardizes one batch in place. Cached programs are filled
// locally; the rest go to the service or the fallback rules. It returns
// the cache hit count and whether the service failed and should be
// abandoned for the rest of the run. A cancelled context is the only
// error case.
func (c *Cleaner) cleanBatch(ctx context.Context, batch []model.Record, useAPI bool) (hits int, demoted bool, err error) {
	var misses []int
	for idx := range batch {
		key := cacheKey(batch[idx].Program)
		if key == "" {
			continue
		}
		if std, ok := c.cache[key]; ok {
			batch[idx].LLMProgram = std.program
			batch[idx].LLMUniversity = std.university
			hits++
			continue
		}
		misses = append(misses, idx)
	}
	if len(misses) == 0 {
		return hits, false, nil
	}

	if useAPI {
		if err := c.standardizeRemote(ctx, batch, misses); err == nil {
			return hits, false, nil
		} else if ctx.Err() != nil {
			return hits, false, ctx.Err()
		}
		demoted = true
	}
	c.standardizeLocal(batch, misses)
	return hits, demoted, nil
}

// standardizeRemote sends the uncached rows of a batch to the service and
// merges the standardized fields back by position.
func (c *Cleaner) standardizeRemote(ctx context.Context, batch []model.Record, misses []int) error {
	rows := make([]model.Record, 0, len(misses))
	for _, idx := range misses {
		rows = append(rows, batch[idx])
	}

	resp, err := c.post(ctx, batchPayload{Rows: rows})
	if err != nil {
		return err
	}
	if len(resp.Rows) != len(misses) {
		return fmt.Errorf("standardizer returned %d rows for %d sent", len(resp.Rows), len(misses))
	}

	for k, idx := range misses {
		batch[idx].LLMProgram = resp.Rows[k].LLMProgram
		batch[idx].LLMUniversity = resp.Rows[k].LLMUniversity
		c.remember(batch[idx])
	}
	return nil
}

// standardizeLocal applies the built-in rules to the uncached rows.
func (c *Cleaner) standardizeLocal(batch []model.Record, misses []int) {
	for _, idx := range misses {
		program, university := c.fallback.Standardize(batch[idx].Program)
		batch[idx].LLMProgram = program
		batch[idx].LLMUniversity = university
		c.remember(batch[idx])
	}
}

// remember stores a standardized pair under the record's raw program key.
func (c *Cleaner) remember(rec model.Record) {
	if key := cacheKey(rec.Program); key != "" {
		c.cache[key] = standardized{program: rec.LLMProgram, university: rec.LLMUniversity}
	}
}

// available probes the standardizer with a single known row.
func (c *Cleaner) available(ctx context.Context) bool {
	resp, err := c.post(ctx, batchPayload{
		Rows: []model.Record{{Program: "Information Studies, McGill University"}},
	})
	return err == nil && len(resp.Rows) == 1
}

// post sends one JSON request to the standardizer and decodes the reply.
func (c *Cleaner) post(ctx context.Context, payload batchPayload) (*batchPayload, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("standardizer request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("standardizer status %d", resp.StatusCode)
	}

	var decoded batchPayload
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &decoded, nil
}

// loadInput reads the scraped data file.
func (c *Cleaner) loadInput() ([]model.Record, error) {
	if _, err := os.Stat(c.input); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNoInput, c.input)
	}
	records, err := checkpoint.NewStore(c.input).Load()
	if err != nil {
		return nil, fmt.Errorf("load scraped data: %w", err)
	}
	return records, nil
}

// cacheKey normalizes a raw program text into its cache key.
func cacheKey(program string) string {
	return strings.ToLower(strings.TrimSpace(program))
}
