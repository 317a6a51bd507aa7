package cleaner

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/gradscan/gradscan/internal/checkpoint"
	"github.com/gradscan/gradscan/internal/config"
	"github.com/gradscan/gradscan/internal/model"
)

// standardizerServer emulates the local standardizer: it upper-cases the
// program text before the last comma and echoes the remainder as the
// university, which makes service-produced values distinguishable from
// fallback-produced ones in assertions.
func standardizerServer(t *testing.T, calls *atomic.Int32) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)

		var payload struct {
			Rows []model.Record `json:"rows"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode request: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		for i := range payload.Rows {
			payload.Rows[i].LLMProgram = "SVC " + payload.Rows[i].Program
			payload.Rows[i].LLMUniversity = "SVC University"
		}
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			t.Errorf("encode response: %v", err)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

// writeInput seeds a raw data file with n records cycling through the
// given program names.
func writeInput(t *testing.T, path string, n int, programs ...string) {
	t.Helper()

	records := make([]model.Record, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, model.Record{
			ResultID: strconv.Itoa(i + 1),
			Program:  programs[i%len(programs)],
		})
	}
	if err := checkpoint.NewStore(path).Save(records); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
}

func testCleanConfig(t *testing.T, apiURL string) *config.Config {
	t.Helper()

	dir := t.TempDir()
	cfg := config.NewConfig()
	cfg.OutputFile = filepath.Join(dir, "applicant_data.json")
	cfg.CleanedFile = filepath.Join(dir, "llm_extend_applicant_data.json")
	cfg.StandardizerURL = apiURL
	cfg.CleanBatchSize = 3
	return cfg
}

func newTestCleaner(t *testing.T, cfg *config.Config) *Cleaner {
	t.Helper()
	return NewCleaner(cfg,
		WithProgress(io.Discard),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func TestCleanerRun(t *testing.T) {
	t.Parallel()

	t.Run("standardizes via service and caches repeats", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		server := standardizerServer(t, &calls)
		cfg := testCleanConfig(t, server.URL+"/standardize")
		writeInput(t, cfg.OutputFile, 9, "CS, MIT", "Math, CMU", "CS, MIT")

		stats, err := newTestCleaner(t, cfg).Run(context.Background())
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if !stats.UsedAPI {
			t.Error("UsedAPI = false, want true")
		}
		if stats.Rows != 9 {
			t.Errorf("Rows = %d, want 9", stats.Rows)
		}
		// The first batch of three goes to the service before anything is
		// cached; the remaining six rows all repeat known programs.
		if stats.CacheHits != 6 {
			t.Errorf("CacheHits = %d, want 6", stats.CacheHits)
		}

		cleaned, err := checkpoint.NewStore(cfg.CleanedFile).Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if len(cleaned) != 9 {
			t.Fatalf("len(cleaned) = %d, want 9", len(cleaned))
		}
		for _, rec := range cleaned {
			if rec.LLMProgram != "SVC "+rec.Program {
				t.Errorf("LLMProgram = %q, want %q", rec.LLMProgram, "SVC "+rec.Program)
			}
			if rec.LLMUniversity != "SVC University" {
				t.Errorf("LLMUniversity = %q, want %q", rec.LLMUniversity, "SVC University")
			}
		}
	})

	t.Run("falls back to rules when service is unreachable", func(t *testing.T) {
		t.Parallel()

		cfg := testCleanConfig(t, "http://127.0.0.1:1/standardize")
		writeInput(t, cfg.OutputFile, 2, "Computer Science, mcgill")

		stats, err := newTestCleaner(t, cfg).Run(context.Background())
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if stats.UsedAPI {
			t.Error("UsedAPI = true, want false")
		}

		cleaned, err := checkpoint.NewStore(cfg.CleanedFile).Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cleaned[0].LLMProgram != "Computer Science" {
			t.Errorf("LLMProgram = %q, want %q", cleaned[0].LLMProgram, "Computer Science")
		}
		if cleaned[0].LLMUniversity != "McGill University" {
			t.Errorf("LLMUniversity = %q, want %q", cleaned[0].LLMUniversity, "McGill University")
		}
	})

	t.Run("demotes to rules when service dies mid-run", func(t *testing.T) {
		t.Parallel()

		// Healthy for the probe and the first batch, dead afterwards.
		var calls atomic.Int32
		inner := standardizerServer(t, &calls)
		flaky := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Load() >= 2 {
				w.WriteHeader(http.StatusInternalServerError)
				calls.Add(1)
				return
			}
			inner.Config.Handler.ServeHTTP(w, r)
		}))
		t.Cleanup(flaky.Close)

		cfg := testCleanConfig(t, flaky.URL+"/standardize")
		// Six distinct programs so no batch is fully cached.
		writeInput(t, cfg.OutputFile, 6,
			"A, MIT", "B, MIT", "C, MIT", "D, MIT", "E, MIT", "F, MIT")

		stats, err := newTestCleaner(t, cfg).Run(context.Background())
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if !stats.UsedAPI {
			t.Error("UsedAPI = false, want true (probe succeeded)")
		}

		cleaned, err := checkpoint.NewStore(cfg.CleanedFile).Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		// First batch came from the service, second from the rules.
		if got := cleaned[0].LLMProgram; got != "SVC A, MIT" {
			t.Errorf("cleaned[0].LLMProgram = %q, want service output", got)
		}
		if got := cleaned[5].LLMUniversity; got != "Massachusetts Institute of Technology" {
			t.Errorf("cleaned[5].LLMUniversity = %q, want fallback output", got)
		}
	})

	t.Run("missing input file", func(t *testing.T) {
		t.Parallel()

		cfg := testCleanConfig(t, "http://127.0.0.1:1/standardize")
		_, err := newTestCleaner(t, cfg).Run(context.Background())
		if !errors.Is(err, ErrNoInput) {
			t.Errorf("Run() error = %v, want ErrNoInput", err)
		}
	})
}

func TestFallbackStandardize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		input          string
		wantProgram    string
		wantUniversity string
	}{
		{
			name:           "program comma university",
			input:          "computer science, university of toronto",
			wantProgram:    "Computer Science",
			wantUniversity: "University of Toronto",
		},
		{
			name:           "university alias",
			input:          "Electrical Engineering, gatech",
			wantProgram:    "Electrical Engineering",
			wantUniversity: "Georgia Institute of Technology",
		},
		{
			name:           "multiple commas split on the last",
			input:          "Ecology, Evolution, UCLA",
			wantProgram:    "Ecology, Evolution",
			wantUniversity: "University of California, Los Angeles",
		},
		{
			name:           "acronym preserved",
			input:          "ECE, CMU",
			wantProgram:    "ECE",
			wantUniversity: "Carnegie Mellon University",
		},
		{
			name:           "no comma means no university",
			input:          "mathematics",
			wantProgram:    "Mathematics",
			wantUniversity: "",
		},
		{
			name:           "empty input",
			input:          "   ",
			wantProgram:    "",
			wantUniversity: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			program, university := FallbackStandardizer{}.Standardize(tt.input)
			if program != tt.wantProgram {
				t.Errorf("program = %q, want %q", program, tt.wantProgram)
			}
			if university != tt.wantUniversity {
				t.Errorf("university = %q, want %q", university, tt.wantUniversity)
			}
		})
	}
}
