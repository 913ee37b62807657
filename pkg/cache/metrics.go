package cache

import (
	"github.com/Sternrassler/bibharvest/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits counts responses served from Redis.
	CacheHits = promauto.With(metrics.Registry).NewCounter(
		prometheus.CounterOpts{
			Name: "harvest_cache_hits_total",
			Help: "Total number of API responses served from the cache",
		},
	)

	// CacheMisses counts lookups that found no usable entry.
	CacheMisses = promauto.With(metrics.Registry).NewCounter(
		prometheus.CounterOpts{
			Name: "harvest_cache_misses_total",
			Help: "Total number of cache misses",
		},
	)

	// CacheStoredBytes counts bytes written to the cache.
	CacheStoredBytes = promauto.With(metrics.Registry).NewCounter(
		prometheus.CounterOpts{
			Name: "harvest_cache_stored_bytes_total",
			Help: "Total bytes of response data written to the cache",
		},
	)

	// CacheErrors counts Redis failures by operation.
	CacheErrors = promauto.With(metrics.Registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "harvest_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"operation"}, // "get", "set", "delete"
	)
)
