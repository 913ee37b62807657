// Package crossref looks up works in the Crossref REST API by DOI.
package crossref

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Sternrassler/bibharvest/pkg/client"
	"github.com/Sternrassler/bibharvest/pkg/ratelimit"
)

const (
	// DefaultBaseURL is the Crossref REST API root.
	DefaultBaseURL = "https://api.crossref.org"

	// DefaultTimeout bounds each works lookup.
	DefaultTimeout = 10 * time.Second
)

// ErrEmptyDOI is returned when Work is called without a DOI.
var ErrEmptyDOI = errors.New("doi is required")

// Config holds configuration for the Crossref client.
type Config struct {
	BaseURL   string
	UserAgent string

	// Mailto enables the Crossref polite pool when set.
	Mailto string

	Timeout  time.Duration
	Throttle *ratelimit.Throttle

	Cache    client.ResponseCache
	CacheTTL time.Duration
}

// Client queries the Crossref works endpoint.
type Client struct {
	http    *client.Client
	baseURL *url.URL
	mailto  string
}

// New creates a Crossref client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}

	hc, err := client.New(client.Config{
		API:       "crossref",
		UserAgent: cfg.UserAgent,
		Headers:   map[string]string{"Accept": "application/json"},
		Timeout:   cfg.Timeout,
		Throttle:  cfg.Throttle,
		Cache:     cfg.Cache,
		CacheTTL:  cfg.CacheTTL,
	})
	if err != nil {
		return nil, err
	}

	return &Client{http: hc, baseURL: base, mailto: cfg.Mailto}, nil
}

// WorkURL returns the lookup URL for doi. The DOI is appended verbatim and
// escaped by URL.String, so "%", "?", "#" and repeated or dot segments
// survive unchanged.
func (c *Client) WorkURL(doi string) string {
	u := *c.baseURL
	u.Path = strings.TrimSuffix(u.Path, "/") + "/works/" + strings.TrimSpace(doi)
	u.RawPath = ""
	u.RawQuery = ""
	if c.mailto != "" {
		q := url.Values{}
		q.Set("mailto", c.mailto)
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// Work fetches the work registered under doi. A response without a message
// object yields an empty Work.
func (c *Client) Work(ctx context.Context, doi string) (*Work, error) {
	if strings.TrimSpace(doi) == "" {
		return nil, ErrEmptyDOI
	}

	body, err := c.http.Get(ctx, c.WorkURL(doi))
	if err != nil {
		return nil, fmt.Errorf("crossref work %s: %w", doi, err)
	}

	var resp WorkResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("crossref work %s: decoding response: %w", doi, err)
	}
	if resp.Message == nil {
		return &Work{}, nil
	}

	return resp.Message, nil
}
