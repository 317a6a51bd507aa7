package scraper

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gradscan/gradscan/internal/checkpoint"
	"github.com/gradscan/gradscan/internal/config"
	"github.com/gradscan/gradscan/internal/model"
)

// listingServer serves synthetic survey pages: pages 1..dataPages carry
// recordsPerPage records each with globally unique identifiers, every
// later page has no result rows. It records which page numbers were
// requested.
type listingServer struct {
	*httptest.Server

	dataPages      int
	recordsPerPage int

	mu        sync.Mutex
	requested []int
}

func newListingServer(t *testing.T, dataPages, recordsPerPage int) *listingServer {
	t.Helper()

	ls := &listingServer{dataPages: dataPages, recordsPerPage: recordsPerPage}
	ls.Server = httptest.NewServer(http.HandlerFunc(ls.handle))
	t.Cleanup(ls.Close)
	return ls
}

func (ls *listingServer) handle(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))

	ls.mu.Lock()
	ls.requested = append(ls.requested, page)
	ls.mu.Unlock()

	if page < 1 || page > ls.dataPages {
		fmt.Fprint(w, `<html><body><div>No results found.</div></body></html>`)
		return
	}

	var b strings.Builder
	b.WriteString("<html><body><table><tbody>")
	for i := 0; i < ls.recordsPerPage; i++ {
		id := (page-1)*ls.recordsPerPage + i + 1
		fmt.Fprintf(&b, `<tr>
			<td>University %d</td>
			<td><span>Program %d</span><span>PhD</span></td>
			<td>January %d, 2025</td>
			<td>Accepted</td>
			<td><a href="/result/%d">details</a></td>
		</tr>
		<tr><td colspan="5">Fall 2025 GPA 3.5</td></tr>`, id, id, i%28+1, id)
	}
	b.WriteString("</tbody></table></body></html>")
	fmt.Fprint(w, b.String())
}

func (ls *listingServer) requestedPages() []int {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return append([]int(nil), ls.requested...)
}

// testConfig builds a crawl configuration pointed at the test server with
// all politeness delays disabled.
func testConfig(t *testing.T, serverURL string, target int) *config.Config {
	t.Helper()

	cfg := config.NewConfig()
	cfg.BaseURL = serverURL
	cfg.Workers = 2
	cfg.Timeout = 5 * time.Second
	cfg.Retries = 0
	cfg.SaveInterval = 2
	cfg.JitterMin = 0
	cfg.JitterMax = 0
	cfg.TargetCount = target
	cfg.OutputFile = filepath.Join(t.TempDir(), "applicant_data.json")
	return cfg
}

func newTestScraper(t *testing.T, cfg *config.Config) *Scraper {
	t.Helper()

	s, err := NewScraper(cfg,
		WithProgress(io.Discard),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if err != nil {
		t.Fatalf("NewScraper() error = %v", err)
	}
	return s
}

func TestScraperRun(t *testing.T) {
	t.Parallel()

	t.Run("crawls until target with unique records", func(t *testing.T) {
		t.Parallel()

		server := newListingServer(t, 10, 10)
		cfg := testConfig(t, server.URL, 30)

		stats, err := newTestScraper(t, cfg).Run(context.Background())
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if !stats.TargetReached {
			t.Error("TargetReached = false, want true")
		}
		if stats.RecordCount < 30 {
			t.Errorf("RecordCount = %d, want >= 30", stats.RecordCount)
		}

		records, err := checkpoint.NewStore(cfg.OutputFile).Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if len(records) != stats.RecordCount {
			t.Errorf("checkpoint holds %d records, stats say %d", len(records), stats.RecordCount)
		}
		assertUniqueIDs(t, records)
	})

	t.Run("stops when the source is exhausted", func(t *testing.T) {
		t.Parallel()

		server := newListingServer(t, 2, 5)
		cfg := testConfig(t, server.URL, 1000)

		stats, err := newTestScraper(t, cfg).Run(context.Background())
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if stats.TargetReached {
			t.Error("TargetReached = true, want false")
		}
		if stats.RecordCount != 10 {
			t.Errorf("RecordCount = %d, want 10", stats.RecordCount)
		}
		if stats.BadPageStreak < cfg.BadPageCeiling() {
			t.Errorf("BadPageStreak = %d, want >= ceiling %d",
				stats.BadPageStreak, cfg.BadPageCeiling())
		}
	})

	t.Run("resumes past checkpointed records", func(t *testing.T) {
		t.Parallel()

		server := newListingServer(t, 10, 10)
		cfg := testConfig(t, server.URL, 50)

		// Seed a checkpoint equivalent to two full listing pages so the
		// crawl should begin at the resume heuristic's page, not page 1.
		seed := make([]model.Record, 0, 2*checkpoint.RecordsPerPage)
		for i := 1; i <= 2*checkpoint.RecordsPerPage; i++ {
			seed = append(seed, model.Record{
				ResultID: strconv.Itoa(i),
				URL:      fmt.Sprintf("%s/result/%d", server.URL, i),
			})
		}
		if err := checkpoint.NewStore(cfg.OutputFile).Save(seed); err != nil {
			t.Fatalf("Save() error = %v", err)
		}

		stats, err := newTestScraper(t, cfg).Run(context.Background())
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if !stats.TargetReached {
			t.Error("TargetReached = false, want true")
		}

		wantStart := checkpoint.ResumePage(len(seed))
		for _, page := range server.requestedPages() {
			if page < wantStart {
				t.Errorf("requested page %d, want none earlier than %d", page, wantStart)
			}
		}

		records, err := checkpoint.NewStore(cfg.OutputFile).Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		assertUniqueIDs(t, records)
	})

	t.Run("second run over a satisfied checkpoint fetches nothing", func(t *testing.T) {
		t.Parallel()

		server := newListingServer(t, 10, 10)
		cfg := testConfig(t, server.URL, 30)

		if _, err := newTestScraper(t, cfg).Run(context.Background()); err != nil {
			t.Fatalf("first Run() error = %v", err)
		}
		fetchedBefore := len(server.requestedPages())

		stats, err := newTestScraper(t, cfg).Run(context.Background())
		if err != nil {
			t.Fatalf("second Run() error = %v", err)
		}
		if !stats.TargetReached {
			t.Error("TargetReached = false, want true")
		}
		if stats.PagesFetched != 0 {
			t.Errorf("PagesFetched = %d, want 0", stats.PagesFetched)
		}
		if got := len(server.requestedPages()); got != fetchedBefore {
			t.Errorf("server requests grew from %d to %d on the second run", fetchedBefore, got)
		}
	})

	t.Run("discards a corrupt checkpoint and crawls fresh", func(t *testing.T) {
		t.Parallel()

		server := newListingServer(t, 10, 10)
		cfg := testConfig(t, server.URL, 30)

		if err := os.WriteFile(cfg.OutputFile, []byte(`{not valid json`), 0600); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}

		stats, err := newTestScraper(t, cfg).Run(context.Background())
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if !stats.TargetReached {
			t.Error("TargetReached = false, want true")
		}

		// The discarded file means no resume position, so page 1 is fetched.
		requestedFirst := false
		for _, page := range server.requestedPages() {
			if page == 1 {
				requestedFirst = true
				break
			}
		}
		if !requestedFirst {
			t.Errorf("requested pages %v, want page 1 among them", server.requestedPages())
		}

		records, err := checkpoint.NewStore(cfg.OutputFile).Load()
		if err != nil {
			t.Fatalf("Load() after crawl error = %v", err)
		}
		if len(records) != stats.RecordCount {
			t.Errorf("checkpoint holds %d records, stats say %d", len(records), stats.RecordCount)
		}
		assertUniqueIDs(t, records)
	})

	t.Run("progress line reports the bad-page streak", func(t *testing.T) {
		t.Parallel()

		server := newListingServer(t, 1, 5)
		cfg := testConfig(t, server.URL, 1000)

		var progress bytes.Buffer
		s, err := NewScraper(cfg,
			WithProgress(&progress),
			WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
		if err != nil {
			t.Fatalf("NewScraper() error = %v", err)
		}

		if _, err := s.Run(context.Background()); err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if !strings.Contains(progress.String(), "Bad streak:") {
			t.Errorf("progress output %q does not report the bad-page streak", progress.String())
		}
	})

	t.Run("cancelled context interrupts the crawl", func(t *testing.T) {
		t.Parallel()

		server := newListingServer(t, 1000, 10)
		cfg := testConfig(t, server.URL, 100000)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := newTestScraper(t, cfg).Run(ctx)
		if err == nil {
			t.Fatal("Run() error = nil, want context error")
		}
	})
}

func assertUniqueIDs(t *testing.T, records []model.Record) {
	t.Helper()

	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		if r.ResultID == "" {
			t.Error("record with empty ResultID retained")
			continue
		}
		if _, dup := seen[r.ResultID]; dup {
			t.Errorf("duplicate ResultID %q", r.ResultID)
		}
		seen[r.ResultID] = struct{}{}
	}
}
