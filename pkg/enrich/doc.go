// Package enrich adds per-record data from secondary lookups: cited
// references and author names from Crossref, and citing documents from a
// Scopus REF query.
//
// Enrichment failures never escalate. A failed lookup is logged and yields
// empty results for that one record.
package enrich
