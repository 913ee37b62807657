package pagination

import (
	"context"
	"errors"
	"time"

	"github.com/Sternrassler/bibharvest/pkg/client"
	"github.com/Sternrassler/bibharvest/pkg/logging"
	"github.com/Sternrassler/bibharvest/pkg/record"
	"github.com/Sternrassler/bibharvest/pkg/scopus"
	"github.com/rs/zerolog"
)

// StopReason describes why a run ended.
type StopReason string

const (
	StopExhausted      StopReason = "exhausted"
	StopShortPage      StopReason = "short_page"
	StopHTTPStatus     StopReason = "http_status"
	StopTransportError StopReason = "transport_error"
	StopMaxRecords     StopReason = "max_records"
	StopCancelled      StopReason = "cancelled"
)

// PageSource returns one page of an affiliation search.
// *scopus.Client implements it.
type PageSource interface {
	SearchAffiliation(ctx context.Context, institution string, start, count int) (*scopus.Page, error)
}

// ReferenceEnricher derives cited references and authors from a DOI.
type ReferenceEnricher interface {
	Enrich(ctx context.Context, doi string) ([]record.CitedReference, []string)
}

// CitationEnricher finds the documents citing a Scopus ID.
type CitationEnricher interface {
	Enrich(ctx context.Context, scopusID string) []record.CitingArticle
}

// Config holds driver configuration.
type Config struct {
	// MaxRecords stops the run once this many records were collected.
	// 0 means unlimited.
	MaxRecords int
}

// Result is the outcome of a run.
type Result struct {
	Records []record.Record
	Reason  StopReason
	Pages   int

	// Err is the page error that ended the run, if any.
	Err error
}

// Driver walks the search result pages of one institution.
type Driver struct {
	pages      PageSource
	references ReferenceEnricher
	citations  CitationEnricher
	config     Config
	logger     zerolog.Logger
}

// NewDriver creates a driver. A nil enricher disables that enrichment step.
func NewDriver(pages PageSource, references ReferenceEnricher, citations CitationEnricher, config Config) *Driver {
	if pages == nil {
		panic("pagination: page source must not be nil")
	}
	return &Driver{
		pages:      pages,
		references: references,
		citations:  citations,
		config:     config,
		logger:     logging.NewLogger("pagination"),
	}
}

// FetchAll runs the harvest and returns the collected records. It never
// fails; errors end the run early and are logged.
func (d *Driver) FetchAll(ctx context.Context, affiliation string, pageSize, start int) []record.Record {
	return d.Run(ctx, affiliation, pageSize, start).Records
}

// Run harvests pages of pageSize entries starting at offset start until one
// of the stop conditions is met.
func (d *Driver) Run(ctx context.Context, affiliation string, pageSize, start int) Result {
	if pageSize <= 0 {
		pageSize = scopus.DefaultPageSize
	}
	if start < 0 {
		start = 0
	}

	began := time.Now()
	res := Result{Records: []record.Record{}}
	cursor := start

	for res.Reason == "" {
		if ctx.Err() != nil {
			res.Reason, res.Err = StopCancelled, ctx.Err()
			break
		}

		d.logger.Info().Int("start", cursor).Msg("Fetching articles from index")

		page, err := d.pages.SearchAffiliation(ctx, affiliation, cursor, pageSize)
		if err != nil {
			res.Reason, res.Err = d.pageFailure(ctx, cursor, err)
			break
		}
		res.Pages++
		pagesFetched.Inc()

		if page.Exhausted {
			d.logger.Info().Int("start", cursor).Msg("No more articles found")
			res.Reason = StopExhausted
			break
		}

		for _, entry := range page.Entries {
			if d.config.MaxRecords > 0 && len(res.Records) >= d.config.MaxRecords {
				res.Reason = StopMaxRecords
				break
			}
			res.Records = append(res.Records, d.build(ctx, entry))
			recordsHarvested.Inc()
		}
		if res.Reason != "" {
			break
		}
		if d.config.MaxRecords > 0 && len(res.Records) >= d.config.MaxRecords {
			res.Reason = StopMaxRecords
			break
		}

		if len(page.Entries) < pageSize {
			d.logger.Info().
				Int("count", len(page.Entries)).
				Msg("All available articles have been retrieved")
			res.Reason = StopShortPage
			break
		}

		cursor += pageSize
	}

	runsTotal.WithLabelValues(string(res.Reason)).Inc()
	d.logger.Info().
		Str("reason", string(res.Reason)).
		Int("pages", res.Pages).
		Int("count", len(res.Records)).
		Dur("duration", time.Since(began)).
		Msg("Harvest complete")

	return res
}

// build normalizes one entry and runs the enabled enrichments.
func (d *Driver) build(ctx context.Context, entry scopus.Entry) record.Record {
	r := record.Normalize(entry)

	if d.references != nil {
		refs, authors := d.references.Enrich(ctx, r.DOI)
		if refs != nil {
			r.References = refs
		}
		r.ApplyAuthors(authors)
	}

	if d.citations != nil && r.CitedByCount > 0 {
		if articles := d.citations.Enrich(ctx, r.ScopusID); articles != nil {
			r.CitedByArticles = articles
		}
	}

	return r
}

func (d *Driver) pageFailure(ctx context.Context, cursor int, err error) (StopReason, error) {
	if ctx.Err() != nil {
		d.logger.Warn().Int("start", cursor).Msg("Harvest cancelled")
		return StopCancelled, err
	}

	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode != 0 {
		d.logger.Error().
			Int("start", cursor).
			Int("status", apiErr.StatusCode).
			Str("body", apiErr.Body).
			Msg("API request failed")
		return StopHTTPStatus, err
	}

	d.logger.Error().
		Err(err).
		Int("start", cursor).
		Msg("Page request failed")
	return StopTransportError, err
}
