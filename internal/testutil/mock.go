// Package testutil provides mock Scopus and Crossref servers for tests.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// MockResponse defines the behavior of one mock endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

func (resp MockResponse) write(w http.ResponseWriter) {
	if resp.Delay > 0 {
		time.Sleep(resp.Delay)
	}
	w.Header().Set("Content-Type", "application/json;charset=UTF-8")
	for key, value := range resp.Headers {
		w.Header().Set(key, value)
	}
	status := resp.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if resp.Body != "" {
		w.Write([]byte(resp.Body))
	}
}

// NewJSONResponse creates a 200 OK response carrying body.
func NewJSONResponse(body string) MockResponse {
	return MockResponse{StatusCode: http.StatusOK, Body: body}
}

// NewRateLimitResponse creates a 429 response with an exhausted quota.
func NewRateLimitResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"service-error":{"status":{"statusCode":"TOO_MANY_REQUESTS","statusText":"Quota Exceeded"}}}`,
		Headers: map[string]string{
			"X-RateLimit-Limit":     "20000",
			"X-RateLimit-Remaining": "0",
			"X-RateLimit-Reset":     fmt.Sprint(time.Now().Add(time.Hour).Unix()),
		},
	}
}

// NewServerErrorResponse creates a 500 response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"error": "Internal server error"}`,
	}
}

// NewNotFoundResponse creates a 404 response in Crossref's plain-text style.
func NewNotFoundResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusNotFound,
		Body:       "Resource not found.",
		Headers:    map[string]string{"Content-Type": "text/plain"},
	}
}

// EntryFixture describes a Scopus search entry. Zero-valued fields are left
// out of the generated JSON.
type EntryFixture struct {
	ScopusID     string
	Title        string
	Creator      string
	DOI          string
	CoverDate    string
	CitedByCount int
	Affiliations []string
}

// JSON renders the fixture as a Scopus entry object.
func (e EntryFixture) JSON() string {
	m := map[string]any{"citedby-count": fmt.Sprint(e.CitedByCount)}
	set := func(key, value string) {
		if value != "" {
			m[key] = value
		}
	}
	if e.ScopusID != "" {
		m["dc:identifier"] = "SCOPUS_ID:" + e.ScopusID
	}
	set("dc:title", e.Title)
	set("dc:creator", e.Creator)
	set("prism:doi", e.DOI)
	set("prism:coverDate", e.CoverDate)
	if len(e.Affiliations) > 0 {
		affs := make([]map[string]string, 0, len(e.Affiliations))
		for _, name := range e.Affiliations {
			affs = append(affs, map[string]string{"affilname": name})
		}
		m["affiliation"] = affs
	}
	data, _ := json.Marshal(m)
	return string(data)
}

// SearchBody renders a search response holding entries. No entries yields
// the placeholder Scopus sends for empty result sets.
func SearchBody(total int, entries ...EntryFixture) string {
	items := make([]string, 0, len(entries))
	for _, e := range entries {
		items = append(items, e.JSON())
	}
	if len(items) == 0 {
		items = append(items, `{"@_fa": "true", "error": "Result set was empty"}`)
	}
	return fmt.Sprintf(`{"search-results": {"opensearch:totalResults": "%d", "entry": [%s]}}`,
		total, strings.Join(items, ","))
}

// AuthorFixture is a Crossref author.
type AuthorFixture struct {
	Given, Family, Name string
}

// WorkBody renders a Crossref works response.
func WorkBody(doi string, authors []AuthorFixture, references ...string) string {
	authorList := make([]map[string]string, 0, len(authors))
	for _, a := range authors {
		m := map[string]string{}
		if a.Given != "" {
			m["given"] = a.Given
		}
		if a.Family != "" {
			m["family"] = a.Family
		}
		if a.Name != "" {
			m["name"] = a.Name
		}
		authorList = append(authorList, m)
	}

	refs := make([]map[string]string, 0, len(references))
	for i, unstructured := range references {
		refs = append(refs, map[string]string{
			"key":          fmt.Sprintf("ref%d", i+1),
			"unstructured": unstructured,
		})
	}

	message := map[string]any{"DOI": doi, "author": authorList}
	if len(refs) > 0 {
		message["reference"] = refs
	}
	data, _ := json.Marshal(map[string]any{
		"status":       "ok",
		"message-type": "work",
		"message":      message,
	})
	return string(data)
}
