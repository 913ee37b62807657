package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Sternrassler/bibharvest/internal/testutil"
	"github.com/Sternrassler/bibharvest/pkg/config"
)

func testConfig(t *testing.T, scopusURL, crossrefURL string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Institution:      "University of West Bohemia",
		PageSize:         25,
		OutputPath:       filepath.Join(dir, "articles.json"),
		DiagnosticPath:   filepath.Join(dir, "raw_citing_articles.json"),
		UserAgent:        "bibharvest-test",
		ReferenceTimeout: 2 * time.Second,
		Enrich:           config.EnrichConfig{References: true, Citations: true},
		Scopus:           config.ScopusConfig{BaseURL: scopusURL, APIKey: "test-key"},
		Crossref:         config.CrossrefConfig{BaseURL: crossrefURL},
		Log:              config.LogConfig{Level: "info"},
	}
}

func readRecords(t *testing.T, path string) []map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	var records []map[string]any
	if err := json.Unmarshal(data, &records); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	return records
}

func TestRun_WritesRecords(t *testing.T) {
	sc := testutil.NewMockScopus()
	defer sc.Close()
	cr := testutil.NewMockCrossref()
	defer cr.Close()

	sc.SetPage(0, 2,
		testutil.EntryFixture{ScopusID: "1", Title: "First", Creator: "Novak J.", DOI: "10.1000/1", CoverDate: "2021-05-01", CitedByCount: 1},
		testutil.EntryFixture{ScopusID: "2", Title: "Second", Creator: "Svoboda P.", DOI: "10.1000/2"},
	)
	sc.SetCiting("1", testutil.EntryFixture{Title: "Citing", DOI: "10.1000/c", CoverDate: "2023-01-01"})
	cr.SetWork("10.1000/1", []testutil.AuthorFixture{{Given: "Jan", Family: "Novak"}}, "Ref A")

	cfg := testConfig(t, sc.URL(), cr.URL())
	if err := run(context.Background(), cfg); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	records := readRecords(t, cfg.OutputPath)
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if got := records[0]["authors"].([]any); len(got) != 1 || got[0] != "Novak Jan" {
		t.Errorf("authors = %v, want [Novak Jan]", got)
	}
	if got := records[1]["authors"].([]any); len(got) != 1 || got[0] != "Svoboda P." {
		t.Errorf("authors = %v, want creator fallback", got)
	}
	if got := records[0]["citedby_articles"].([]any); len(got) != 1 {
		t.Errorf("citedby_articles = %v, want 1 entry", got)
	}
	if sc.GetCitingRequests("2") != 0 {
		t.Error("uncited record should not be looked up")
	}
	if _, err := os.Stat(cfg.DiagnosticPath); err != nil {
		t.Errorf("diagnostic file: %v", err)
	}
	if got := sc.GetLastRequestHeader().Get("X-ELS-APIKey"); got != "test-key" {
		t.Errorf("api key header = %q", got)
	}
}

func TestRun_DisabledEnrichment(t *testing.T) {
	sc := testutil.NewMockScopus()
	defer sc.Close()
	cr := testutil.NewMockCrossref()
	defer cr.Close()

	sc.SetPage(0, 1, testutil.EntryFixture{ScopusID: "1", DOI: "10.1000/1", CitedByCount: 3})

	cfg := testConfig(t, sc.URL(), cr.URL())
	cfg.Enrich = config.EnrichConfig{}
	if err := run(context.Background(), cfg); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	if cr.GetRequestCount() != 0 || sc.GetTotalCitingRequests() != 0 {
		t.Errorf("lookups made with enrichment disabled: crossref=%d citing=%d",
			cr.GetRequestCount(), sc.GetTotalCitingRequests())
	}
}

func TestRun_NoRecords(t *testing.T) {
	sc := testutil.NewMockScopus()
	defer sc.Close()

	cfg := testConfig(t, sc.URL(), "http://127.0.0.1:1")
	if err := run(context.Background(), cfg); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	if _, err := os.Stat(cfg.OutputPath); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("no output file expected, stat err = %v", err)
	}
}

func TestRun_WriteFailure(t *testing.T) {
	sc := testutil.NewMockScopus()
	defer sc.Close()
	sc.SetPage(0, 1, testutil.EntryFixture{Title: "Only"})

	cfg := testConfig(t, sc.URL(), "http://127.0.0.1:1")
	cfg.OutputPath = filepath.Join(t.TempDir(), "missing", "articles.json")

	if err := run(context.Background(), cfg); err == nil {
		t.Fatal("run() should fail when the output cannot be written")
	}
}

func TestRun_PageErrorKeepsPartialResults(t *testing.T) {
	sc := testutil.NewMockScopus()
	defer sc.Close()

	entries := make([]testutil.EntryFixture, 2)
	for i := range entries {
		entries[i] = testutil.EntryFixture{Title: "Article"}
	}
	sc.SetPage(0, 10, entries...)
	sc.SetPageResponse(2, testutil.NewServerErrorResponse())

	cfg := testConfig(t, sc.URL(), "http://127.0.0.1:1")
	cfg.PageSize = 2
	if err := run(context.Background(), cfg); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	if got := len(readRecords(t, cfg.OutputPath)); got != 2 {
		t.Errorf("got %d records, want 2", got)
	}
}

func TestRun_RedisUnavailableContinues(t *testing.T) {
	sc := testutil.NewMockScopus()
	defer sc.Close()
	sc.SetPage(0, 1, testutil.EntryFixture{Title: "Only"})

	cfg := testConfig(t, sc.URL(), "http://127.0.0.1:1")
	cfg.Redis.Addr = "127.0.0.1:1"

	if err := run(context.Background(), cfg); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if got := len(readRecords(t, cfg.OutputPath)); got != 1 {
		t.Errorf("got %d records, want 1", got)
	}
}

func TestRun_MissingAPIKey(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1", "http://127.0.0.1:1")
	cfg.Scopus.APIKey = ""

	if err := run(context.Background(), cfg); err == nil {
		t.Fatal("run() should fail without an API key")
	}
}
