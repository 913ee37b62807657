// Package scopus wraps the Scopus Search API: affiliation queries for the
// harvest itself and REF queries for citing documents.
package scopus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/bibharvest/pkg/client"
	"github.com/Sternrassler/bibharvest/pkg/ratelimit"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultBaseURL is the Scopus Search API endpoint.
	DefaultBaseURL = "https://api.elsevier.com/content/search/scopus"

	// DefaultPageSize is the default number of entries per page.
	DefaultPageSize = 25

	// APIKeyHeader carries the Elsevier API key.
	APIKeyHeader = "X-ELS-APIKey"

	// IdentifierPrefix prefixes dc:identifier values.
	IdentifierPrefix = "SCOPUS_ID:"
)

// ErrMissingAPIKey is returned by New when no API key is configured.
var ErrMissingAPIKey = errors.New("scopus api key is required")

// Config holds configuration for the Scopus client.
type Config struct {
	BaseURL   string
	APIKey    string
	UserAgent string
	Timeout   time.Duration

	// Throttle is shared by every Scopus request (pages and citation lookups).
	Throttle *ratelimit.Throttle
	Tracker  *ratelimit.Tracker

	Cache    client.ResponseCache
	CacheTTL time.Duration
}

// Client queries the Scopus Search API.
type Client struct {
	http    *client.Client
	baseURL *url.URL
	logger  zerolog.Logger
}

// Page is one decoded search response.
type Page struct {
	// Entries are the decoded documents, placeholders removed.
	Entries []Entry

	// Raw holds the entries exactly as returned.
	Raw []json.RawMessage

	// Exhausted is set when the response has no search-results or no entry list.
	Exhausted bool

	// TotalResults is opensearch:totalResults, 0 if absent or malformed.
	TotalResults int
}

// New creates a Scopus client.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}

	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}

	hc, err := client.New(client.Config{
		API:       "scopus",
		UserAgent: cfg.UserAgent,
		Headers: map[string]string{
			APIKeyHeader: cfg.APIKey,
			"Accept":     "application/json",
		},
		Timeout:  cfg.Timeout,
		Throttle: cfg.Throttle,
		Tracker:  cfg.Tracker,
		Cache:    cfg.Cache,
		CacheTTL: cfg.CacheTTL,
	})
	if err != nil {
		return nil, err
	}

	return &Client{
		http:    hc,
		baseURL: base,
		logger:  log.With().Str("component", "scopus").Logger(),
	}, nil
}

// AffiliationQuery builds the search expression for an institution name.
func AffiliationQuery(institution string) string {
	return "AFFIL(" + institution + ")"
}

// ReferenceQuery builds the search expression for documents citing scopusID.
func ReferenceQuery(scopusID string) string {
	return "REF(" + scopusID + ")"
}

// StripIdentifier removes the SCOPUS_ID: prefix from a dc:identifier value.
func StripIdentifier(identifier string) string {
	return strings.ReplaceAll(identifier, IdentifierPrefix, "")
}

// SearchAffiliation fetches count entries starting at start for an institution.
func (c *Client) SearchAffiliation(ctx context.Context, institution string, start, count int) (*Page, error) {
	params := url.Values{}
	params.Set("start", strconv.Itoa(start))
	params.Set("count", strconv.Itoa(count))
	params.Set("query", AffiliationQuery(institution))
	params.Set("httpAccept", "application/json")

	return c.search(ctx, params)
}

// CitingDocuments fetches the documents whose reference list contains scopusID.
func (c *Client) CitingDocuments(ctx context.Context, scopusID string) (*Page, error) {
	params := url.Values{}
	params.Set("query", ReferenceQuery(scopusID))

	return c.search(ctx, params)
}

func (c *Client) search(ctx context.Context, params url.Values) (*Page, error) {
	u := *c.baseURL
	u.RawQuery = params.Encode()

	body, err := c.http.Get(ctx, u.String())
	if err != nil {
		return nil, fmt.Errorf("scopus search %q: %w", params.Get("query"), err)
	}

	page, err := ParsePage(body)
	if err != nil {
		return nil, fmt.Errorf("scopus search %q: %w", params.Get("query"), err)
	}

	c.logger.Debug().
		Str("query", params.Get("query")).
		Int("entries", len(page.Entries)).
		Int("total", page.TotalResults).
		Msg("Search page decoded")

	return page, nil
}

// ParsePage decodes a search response body.
func ParsePage(body []byte) (*Page, error) {
	var resp SearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if resp.SearchResults == nil || resp.SearchResults.Entries == nil {
		return &Page{Exhausted: true}, nil
	}

	total, _ := strconv.Atoi(resp.SearchResults.TotalResults)
	page := &Page{
		Raw:          resp.SearchResults.Entries,
		Entries:      make([]Entry, 0, len(resp.SearchResults.Entries)),
		TotalResults: total,
	}

	for _, raw := range resp.SearchResults.Entries {
		var entry Entry
		if err := json.Unmarshal(raw, &entry); err != nil {
			// A non-object entry still counts as a returned document; it
			// normalizes to an all-default record.
			entry = Entry{}
		}
		if entry.IsPlaceholder() {
			continue
		}
		page.Entries = append(page.Entries, entry)
	}

	return page, nil
}
