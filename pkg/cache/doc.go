// Package cache stores successful API responses in Redis so that repeated
// harvests of the same institution do not re-issue identical lookups.
//
// Only GET responses with status 200 are cached. Entries carry a fixed TTL
// chosen by the caller (Crossref works and Scopus REF queries change slowly;
// affiliation pages are cached the same way). Keys are derived from the
// request host, path and sorted query parameters. Credentials travel in
// headers and never become part of a key.
//
// # Basic Usage
//
//	manager := cache.NewManager(redis.NewClient(&redis.Options{Addr: "localhost:6379"}))
//
//	key := cache.KeyFromURL(req.URL)
//	entry, err := manager.Get(ctx, key)
//	if errors.Is(err, cache.ErrCacheMiss) {
//		resp, _ := http.DefaultClient.Do(req)
//		entry, _ = cache.ResponseToEntry(resp, 24*time.Hour)
//		_ = manager.Set(ctx, key, entry)
//	}
//
// # Metrics
//
//   - harvest_cache_hits_total
//   - harvest_cache_misses_total
//   - harvest_cache_stored_bytes_total
//   - harvest_cache_errors_total{operation}
package cache
