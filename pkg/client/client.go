// Package client provides the HTTP client shared by the metadata API
// wrappers: request spacing, optional response caching, quota tracking,
// metrics and error classification.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/Sternrassler/bibharvest/pkg/cache"
	"github.com/Sternrassler/bibharvest/pkg/metrics"
	"github.com/Sternrassler/bibharvest/pkg/ratelimit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for API requests.
var (
	requestsTotal = promauto.With(metrics.Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "harvest_requests_total",
		Help: "Total metadata API requests by api and status",
	}, []string{"api", "status"})

	requestDuration = promauto.With(metrics.Registry).NewHistogramVec(prometheus.HistogramOpts{
		Name:    "harvest_request_duration_seconds",
		Help:    "Metadata API request duration in seconds by api",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"api"})

	errorsTotal = promauto.With(metrics.Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "harvest_errors_total",
		Help: "Total metadata API errors by api and class",
	}, []string{"api", "class"})
)

// DefaultTimeout is used when Config.Timeout is zero.
const DefaultTimeout = 30 * time.Second

// ResponseCache is the subset of cache.Manager used by the client.
type ResponseCache interface {
	Get(ctx context.Context, key cache.Key) (*cache.Entry, error)
	Set(ctx context.Context, key cache.Key, entry *cache.Entry) error
}

// Config holds the client configuration.
type Config struct {
	// API labels logs and metrics, e.g. "scopus" or "crossref".
	API string

	// UserAgent header sent with every request.
	UserAgent string

	// Headers are added to every request (API keys, Accept).
	Headers map[string]string

	// Timeout bounds each request including reading the body.
	Timeout time.Duration

	// Throttle spaces requests; nil disables spacing.
	Throttle *ratelimit.Throttle

	// Tracker observes quota headers; nil disables tracking.
	Tracker *ratelimit.Tracker

	// Cache stores successful GET responses; nil disables caching.
	Cache ResponseCache

	// CacheTTL is the lifetime of cached entries.
	CacheTTL time.Duration
}

// Client performs GET requests against one metadata API.
type Client struct {
	httpClient *http.Client
	config     Config
	logger     zerolog.Logger
}

// New creates a client for one API.
func New(cfg Config) (*Client, error) {
	if cfg.API == "" {
		return nil, fmt.Errorf("api name is required")
	}
	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("timeout must not be negative (got %s)", cfg.Timeout)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		config:     cfg,
		logger:     log.With().Str("component", "client").Str("api", cfg.API).Logger(),
	}, nil
}

// Do performs req with caching, spacing and instrumentation. Non-success
// statuses are returned as responses; only transport failures are errors.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	api := c.config.API

	var key cache.Key
	cacheable := c.config.Cache != nil && req.Method == http.MethodGet
	if cacheable {
		key = cache.KeyFromURL(req.URL)
		entry, err := c.config.Cache.Get(ctx, key)
		switch {
		case err == nil:
			c.logger.Debug().Str("url", req.URL.String()).Msg("Serving response from cache")
			requestsTotal.WithLabelValues(api, "cache").Inc()
			return cache.EntryToResponse(entry, req), nil
		case !errors.Is(err, cache.ErrCacheMiss):
			c.logger.Warn().Err(err).Msg("Cache get error")
		}
	}

	if c.config.Throttle != nil {
		if err := c.config.Throttle.Wait(ctx); err != nil {
			return nil, err
		}
	}

	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}
	for name, value := range c.config.Headers {
		req.Header.Set(name, value)
	}

	c.logger.Debug().
		Str("method", req.Method).
		Str("url", req.URL.String()).
		Msg("Executing request")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	requestDuration.WithLabelValues(api).Observe(time.Since(start).Seconds())
	if err != nil {
		errorsTotal.WithLabelValues(api, string(ErrorClassNetwork)).Inc()
		requestsTotal.WithLabelValues(api, "network_error").Inc()
		return nil, &APIError{
			API:        api,
			ErrorClass: ErrorClassNetwork,
			Message:    "request failed",
			Err:        fmt.Errorf("%w: %v", ErrNetwork, err),
		}
	}

	requestsTotal.WithLabelValues(api, strconv.Itoa(resp.StatusCode)).Inc()

	if c.config.Tracker != nil {
		if err := c.config.Tracker.UpdateFromHeaders(resp.Header); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to parse quota headers")
		}
	}

	if class := classifyStatus(resp.StatusCode); class != "" {
		errorsTotal.WithLabelValues(api, string(class)).Inc()
		return resp, nil
	}

	if cacheable && resp.StatusCode == http.StatusOK {
		entry, err := cache.ResponseToEntry(resp, c.config.CacheTTL)
		if err != nil {
			resp.Body.Close()
			return nil, &APIError{
				API:        api,
				StatusCode: resp.StatusCode,
				ErrorClass: ErrorClassNetwork,
				Message:    "reading response body",
				Err:        fmt.Errorf("%w: %v", ErrNetwork, err),
			}
		}
		if err := c.config.Cache.Set(ctx, key, entry); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to cache response")
		}
	}

	return resp, nil
}

// Get fetches rawURL and returns the body of a 2xx response. Other statuses
// become an *APIError carrying the status and a bounded copy of the body.
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if class := classifyStatus(resp.StatusCode); class != "" {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &APIError{
			API:        c.config.API,
			StatusCode: resp.StatusCode,
			ErrorClass: class,
			Message:    resp.Status,
			Body:       string(body),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		errorsTotal.WithLabelValues(c.config.API, string(ErrorClassNetwork)).Inc()
		return nil, &APIError{
			API:        c.config.API,
			StatusCode: resp.StatusCode,
			ErrorClass: ErrorClassNetwork,
			Message:    "reading response body",
			Err:        fmt.Errorf("%w: %v", ErrNetwork, err),
		}
	}

	return body, nil
}
