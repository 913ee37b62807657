package cache

import (
	"bytes"
	"io"
	"net/http"
	"testing"
	"time"
)

func TestResponseToEntry(t *testing.T) {
	resp := &http.Response{
		StatusCode: 200,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(bytes.NewReader([]byte(`{"message":{}}`))),
	}

	entry, err := ResponseToEntry(resp, time.Hour)
	if err != nil {
		t.Fatalf("ResponseToEntry() error = %v", err)
	}

	if string(entry.Data) != `{"message":{}}` {
		t.Errorf("Data = %s", entry.Data)
	}
	if entry.ContentType != "application/json" {
		t.Errorf("ContentType = %q", entry.ContentType)
	}
	if ttl := entry.TTL(); ttl < 59*time.Minute {
		t.Errorf("TTL = %v, want ~1h", ttl)
	}

	// Body must still be readable by the caller.
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading restored body: %v", err)
	}
	if string(body) != `{"message":{}}` {
		t.Errorf("restored body = %s", body)
	}
}

func TestResponseToEntry_DefaultTTL(t *testing.T) {
	resp := &http.Response{
		StatusCode: 200,
		Header:     http.Header{},
		Body:       io.NopCloser(bytes.NewReader(nil)),
	}

	entry, err := ResponseToEntry(resp, 0)
	if err != nil {
		t.Fatalf("ResponseToEntry() error = %v", err)
	}
	if ttl := entry.TTL(); ttl < DefaultTTL-time.Minute {
		t.Errorf("TTL = %v, want ~%v", ttl, DefaultTTL)
	}
}

func TestResponseToEntry_Nil(t *testing.T) {
	if _, err := ResponseToEntry(nil, time.Hour); err == nil {
		t.Error("expected error for nil response")
	}
}

func TestEntryToResponse(t *testing.T) {
	entry := &Entry{
		Data:        []byte(`{"ok":true}`),
		StatusCode:  200,
		ContentType: "application/json",
		CachedAt:    time.Now().Add(-10 * time.Second),
		Expires:     time.Now().Add(time.Hour),
	}
	req, _ := http.NewRequest(http.MethodGet, "https://api.crossref.org/works/10.1/x", nil)

	resp := EntryToResponse(entry, req)
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("StatusCode = %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Harvest-Cache") != "hit" {
		t.Error("missing cache marker header")
	}
	if resp.Header.Get("Content-Type") != "application/json" {
		t.Errorf("Content-Type = %q", resp.Header.Get("Content-Type"))
	}
	if resp.Request != req {
		t.Error("Request not attached")
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != `{"ok":true}` {
		t.Errorf("body = %s", body)
	}
}
