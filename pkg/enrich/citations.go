package enrich

import (
	"context"
	"encoding/json"

	"github.com/Sternrassler/bibharvest/pkg/client"
	"github.com/Sternrassler/bibharvest/pkg/logging"
	"github.com/Sternrassler/bibharvest/pkg/output"
	"github.com/Sternrassler/bibharvest/pkg/record"
	"github.com/Sternrassler/bibharvest/pkg/scopus"
	"github.com/rs/zerolog"
)

// DefaultDiagnosticPath receives the raw entries of the latest citation lookup.
const DefaultDiagnosticPath = "raw_citing_articles.json"

// CitingSearcher finds documents that reference a Scopus ID.
// *scopus.Client implements it.
type CitingSearcher interface {
	CitingDocuments(ctx context.Context, scopusID string) (*scopus.Page, error)
}

// Citations looks up the documents citing a record.
type Citations struct {
	search         CitingSearcher
	diagnosticPath string
	logger         zerolog.Logger
}

// NewCitations creates a citation enricher. An empty diagnosticPath disables
// the diagnostic file.
func NewCitations(search CitingSearcher, diagnosticPath string) *Citations {
	return &Citations{
		search:         search,
		diagnosticPath: diagnosticPath,
		logger:         logging.NewLogger("enrich").With().Str("kind", "citations").Logger(),
	}
}

// Enrich returns summaries of the documents citing scopusID. Failed lookups
// yield an empty non-nil slice. Every completed lookup overwrites the
// diagnostic file with the raw response entries.
func (c *Citations) Enrich(ctx context.Context, scopusID string) []record.CitingArticle {
	articles := []record.CitingArticle{}

	if scopusID == "" {
		lookupsTotal.WithLabelValues("citations", "skipped").Inc()
		return articles
	}

	page, err := c.search.CitingDocuments(ctx, scopusID)
	if err != nil {
		lookupsTotal.WithLabelValues("citations", "failed").Inc()
		c.logger.Warn().
			Err(err).
			Str("scopus_id", scopusID).
			Int("status", client.StatusCode(err)).
			Msg("Failed to retrieve citing articles")
		return articles
	}

	c.writeDiagnostic(page.Raw)

	for _, e := range page.Entries {
		articles = append(articles, record.CitingArticle{
			Title: e.Title.Or(record.Sentinel),
			DOI:   e.DOI.Or(record.Sentinel),
			Year:  record.Year(e.CoverDate.Or(record.Sentinel)),
		})
	}

	lookupsTotal.WithLabelValues("citations", "ok").Inc()
	c.logger.Debug().
		Str("scopus_id", scopusID).
		Int("count", len(articles)).
		Msg("Citing articles retrieved")

	return articles
}

func (c *Citations) writeDiagnostic(raw []json.RawMessage) {
	if c.diagnosticPath == "" {
		return
	}
	if raw == nil {
		raw = []json.RawMessage{}
	}
	if err := output.WriteJSON(c.diagnosticPath, raw); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to write citation diagnostic file")
	}
}
