package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/Sternrassler/bibharvest/pkg/client"
	"github.com/Sternrassler/bibharvest/pkg/crossref"
	"github.com/Sternrassler/bibharvest/pkg/logging"
	"github.com/Sternrassler/bibharvest/pkg/record"
	"github.com/rs/zerolog"
)

// DefaultReferenceTimeout bounds a single works lookup.
const DefaultReferenceTimeout = 10 * time.Second

// WorkFetcher looks up a work by DOI. *crossref.Client implements it.
type WorkFetcher interface {
	Work(ctx context.Context, doi string) (*crossref.Work, error)
}

// References derives cited references and author names for a DOI.
type References struct {
	works   WorkFetcher
	timeout time.Duration
	logger  zerolog.Logger
}

// NewReferences creates a reference enricher. A zero timeout uses
// DefaultReferenceTimeout.
func NewReferences(works WorkFetcher, timeout time.Duration) *References {
	if timeout <= 0 {
		timeout = DefaultReferenceTimeout
	}
	return &References{
		works:   works,
		timeout: timeout,
		logger:  logging.NewLogger("enrich").With().Str("kind", "references").Logger(),
	}
}

// Enrich returns the cited references and rendered author names of the work
// registered under doi. An absent or sentinel DOI, and any failed lookup,
// yield two empty non-nil slices. Author fallback is left to the caller.
func (r *References) Enrich(ctx context.Context, doi string) ([]record.CitedReference, []string) {
	refs, authors := []record.CitedReference{}, []string{}

	if doi == "" || doi == record.Sentinel {
		lookupsTotal.WithLabelValues("references", "skipped").Inc()
		return refs, authors
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	work, err := r.works.Work(ctx, doi)
	if err != nil {
		lookupsTotal.WithLabelValues("references", "failed").Inc()
		r.logger.Warn().
			Err(err).
			Str("doi", doi).
			Int("status", client.StatusCode(err)).
			Msg("Reference lookup failed")
		return refs, authors
	}

	for _, a := range work.Author {
		authors = append(authors, AuthorName(a))
	}
	for _, ref := range work.Reference {
		refs = append(refs, record.CitedReference{
			Title:   ref.Unstructured.Or(record.Sentinel),
			Authors: referenceAuthors(ref.Author),
			DOI:     ref.DOI.Or(record.Sentinel),
			Year:    ref.Year.Or(record.Sentinel),
		})
	}

	lookupsTotal.WithLabelValues("references", "ok").Inc()
	r.logger.Debug().
		Str("doi", doi).
		Int("references", len(refs)).
		Int("authors", len(authors)).
		Msg("References enriched")

	return refs, authors
}

// AuthorName renders a Crossref author as "<family> <given>", falling back
// to the display name and then to the sentinel.
func AuthorName(a crossref.Author) string {
	if a.Family.Present && a.Given.Present {
		return a.Family.Value + " " + a.Given.Value
	}
	return a.Name.Or(record.Sentinel)
}

// referenceAuthors passes the reference's author value through in its own
// JSON shape. A missing or null value becomes the sentinel.
func referenceAuthors(raw json.RawMessage) any {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return record.Sentinel
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return record.Sentinel
	}
	return v
}
