package output

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Sternrassler/bibharvest/pkg/record"
	"github.com/Sternrassler/bibharvest/pkg/scopus"
)

func sampleRecords() []record.Record {
	a := record.Normalize(scopus.Entry{Title: scopus.NewText("A & B"), DOI: scopus.NewText("10.1000/a")})
	b := record.Normalize(scopus.Entry{Title: scopus.NewText("Second")})
	return []record.Record{a, b}
}

func TestPersist_WritesIndentedArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "articles.json")

	ok, err := Persist(sampleRecords(), path)
	if err != nil {
		t.Fatalf("Persist() error = %v", err)
	}
	if !ok {
		t.Fatal("Persist() = false, want true")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.HasPrefix(string(data), "[\n    {\n        \"title\": \"A & B\",") {
		t.Errorf("unexpected layout:\n%s", data)
	}

	var got []map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("output is not a JSON array: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("got %d records, want 2", len(got))
	}
}

func TestPersist_NoRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "articles.json")

	ok, err := Persist(nil, path)
	if err != nil {
		t.Fatalf("Persist() error = %v", err)
	}
	if ok {
		t.Error("Persist() = true, want false")
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("no file should be written, stat err = %v", err)
	}
}

func TestPersist_OverwritesPreviousRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "articles.json")
	if err := os.WriteFile(path, []byte(strings.Repeat("x", 10000)), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Persist(sampleRecords()[:1], path); err != nil {
		t.Fatalf("Persist() error = %v", err)
	}

	data, _ := os.ReadFile(path)
	var got []map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("stale content left behind: %v", err)
	}
}

func TestPersist_WriteFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "articles.json")

	ok, err := Persist(sampleRecords(), path)
	if err == nil {
		t.Fatal("expected write error")
	}
	if !ok {
		t.Error("records were present, Persist() should report true")
	}
}

func TestWriteJSON_EmptySlice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw.json")

	if err := WriteJSON(path, []json.RawMessage{}); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}

	data, _ := os.ReadFile(path)
	if strings.TrimSpace(string(data)) != "[]" {
		t.Errorf("got %q, want []", data)
	}
}
