package enrich

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/Sternrassler/bibharvest/pkg/client"
	"github.com/Sternrassler/bibharvest/pkg/record"
	"github.com/Sternrassler/bibharvest/pkg/scopus"
)

type fakeSearcher struct {
	calls []string
	page  *scopus.Page
	err   error
}

func (f *fakeSearcher) CitingDocuments(_ context.Context, scopusID string) (*scopus.Page, error) {
	f.calls = append(f.calls, scopusID)
	if f.err != nil {
		return nil, f.err
	}
	return f.page, nil
}

func parsePage(t *testing.T, body string) *scopus.Page {
	t.Helper()
	page, err := scopus.ParsePage([]byte(body))
	if err != nil {
		t.Fatalf("ParsePage: %v", err)
	}
	return page
}

func TestCitations_MapsEntries(t *testing.T) {
	diag := filepath.Join(t.TempDir(), DefaultDiagnosticPath)
	search := &fakeSearcher{page: parsePage(t, `{"search-results": {"entry": [
		{"dc:title": "Citing one", "prism:doi": "10.1000/c1", "prism:coverDate": "2023-02-01"},
		{"dc:title": "Citing two"}
	]}}`)}

	got := NewCitations(search, diag).Enrich(context.Background(), "85100000001")

	if !reflect.DeepEqual(search.calls, []string{"85100000001"}) {
		t.Errorf("calls = %v", search.calls)
	}
	want := []record.CitingArticle{
		{Title: "Citing one", DOI: "10.1000/c1", Year: "2023"},
		{Title: "Citing two", DOI: record.Sentinel, Year: record.Sentinel},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Enrich() = %#v, want %#v", got, want)
	}

	data, err := os.ReadFile(diag)
	if err != nil {
		t.Fatalf("diagnostic file: %v", err)
	}
	var raw []map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("diagnostic is not a JSON array: %v", err)
	}
	if len(raw) != 2 || raw[0]["dc:title"] != "Citing one" {
		t.Errorf("diagnostic = %s", data)
	}
	if !strings.Contains(string(data), "\n        \"dc:title\"") {
		t.Errorf("diagnostic should use 4-space indent:\n%s", data)
	}
}

func TestCitations_OverwritesDiagnostic(t *testing.T) {
	diag := filepath.Join(t.TempDir(), DefaultDiagnosticPath)
	search := &fakeSearcher{page: parsePage(t, `{"search-results": {"entry": [{"dc:title": "first"}]}}`)}
	c := NewCitations(search, diag)

	c.Enrich(context.Background(), "1")
	search.page = parsePage(t, `{"search-results": {}}`)
	c.Enrich(context.Background(), "2")

	data, _ := os.ReadFile(diag)
	if strings.TrimSpace(string(data)) != "[]" {
		t.Errorf("diagnostic = %q, want []", data)
	}
}

func TestCitations_Failure(t *testing.T) {
	diag := filepath.Join(t.TempDir(), DefaultDiagnosticPath)
	search := &fakeSearcher{err: &client.APIError{API: "scopus", StatusCode: 500, ErrorClass: client.ErrorClassServer}}

	got := NewCitations(search, diag).Enrich(context.Background(), "85100000001")

	if got == nil || len(got) != 0 {
		t.Errorf("Enrich() = %#v, want empty list", got)
	}
	if _, err := os.Stat(diag); err == nil {
		t.Error("diagnostic file should not be written on failure")
	}
}

func TestCitations_EmptyIDSkipsLookup(t *testing.T) {
	search := &fakeSearcher{}

	got := NewCitations(search, "").Enrich(context.Background(), "")

	if len(search.calls) != 0 {
		t.Errorf("lookup called %d times, want 0", len(search.calls))
	}
	if got == nil || len(got) != 0 {
		t.Errorf("Enrich() = %#v, want empty list", got)
	}
}

func TestCitations_DiagnosticWriteFailureIsLogged(t *testing.T) {
	diag := filepath.Join(t.TempDir(), "missing", DefaultDiagnosticPath)
	search := &fakeSearcher{page: parsePage(t, `{"search-results": {"entry": [{"dc:title": "x"}]}}`)}

	got := NewCitations(search, diag).Enrich(context.Background(), "1")

	if len(got) != 1 {
		t.Errorf("Enrich() = %#v, want one article", got)
	}
}
