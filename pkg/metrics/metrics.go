// Package metrics exposes the harvester's Prometheus metrics over HTTP.
// The metrics themselves are defined in their packages (client, cache,
// ratelimit, enrich, pagination) and registered on Registry via promauto.With.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Registry is the registerer every package's metrics are registered with.
var Registry = prometheus.DefaultRegisterer

// Gatherer serves the metrics registered with Registry.
var Gatherer = prometheus.DefaultGatherer

// shutdownTimeout bounds the graceful stop of the metrics server.
const shutdownTimeout = 5 * time.Second

// Handler returns the mux served by Serve: /metrics and /health.
func Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", healthHandler)
	return mux
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

// Serve listens on addr and serves Handler until ctx is done. It returns the
// bound address and a channel that is closed once the server has stopped,
// after delivering any serve error.
func Serve(ctx context.Context, addr string) (net.Addr, <-chan error, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, fmt.Errorf("metrics listener on %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:           Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	done := make(chan error, 1)
	go func() {
		defer close(done)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			done <- err
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("Metrics server shutdown failed")
		}
	}()

	log.Info().Str("addr", ln.Addr().String()).Msg("Serving metrics")

	return ln.Addr(), done, nil
}

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - harvest_requests_total{api, status} (Counter): requests by API and HTTP status ("cache" for cache hits)
//   - harvest_request_duration_seconds{api} (Histogram): request duration
//   - harvest_errors_total{api, class} (Counter): errors by class (client, server, rate_limit, network)
//
// Rate Limit Metrics (pkg/ratelimit):
//   - harvest_throttle_wait_seconds (Histogram): time spent waiting for the request throttle
//   - harvest_api_quota_remaining (Gauge): last X-RateLimit-Remaining value
//   - harvest_api_quota_exhausted_total (Counter): responses reporting an exhausted quota
//
// Cache Metrics (pkg/cache):
//   - harvest_cache_hits_total, harvest_cache_misses_total (Counter)
//   - harvest_cache_stored_bytes_total (Counter)
//   - harvest_cache_errors_total{operation} (Counter)
//
// Harvest Metrics (pkg/pagination, pkg/enrich):
//   - harvest_pages_fetched_total, harvest_records_total (Counter)
//   - harvest_runs_total{reason} (Counter): completed runs by stop reason
//   - harvest_enrichment_lookups_total{kind, outcome} (Counter)
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(harvest_cache_hits_total[5m])) /
//   (sum(rate(harvest_cache_hits_total[5m])) + sum(rate(harvest_cache_misses_total[5m])))
//
//   # Failed Crossref lookups
//   rate(harvest_enrichment_lookups_total{kind="references", outcome="failed"}[5m])
