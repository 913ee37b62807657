// Package pagination drives a harvest run: it walks the Scopus affiliation
// search page by page, normalizes every entry and enriches it with cited
// references and citing documents.
//
// The driver is strictly sequential. Request spacing is enforced by the
// throttle shared by the Scopus client, so the driver never sleeps itself.
//
// Example usage:
//
//	driver := pagination.NewDriver(scopusClient, references, citations, pagination.Config{})
//	records := driver.FetchAll(ctx, "University of West Bohemia", 25, 0)
//
// A run ends when:
//   - the response has no search-results or entry list (exhausted)
//   - a page holds fewer entries than requested, including zero (short_page)
//   - a page request fails with a non-success status (http_status)
//   - a page request fails in transport or decoding (transport_error)
//   - Config.MaxRecords records were collected (max_records)
//   - the context is cancelled (cancelled)
//
// Records gathered before the stop are always returned.
package pagination
