// Package record defines the canonical publication record written by the
// harvester and the pure mapping from Scopus search entries into it.
//
// Every field of a Record is always present in the JSON output. Absent
// source fields become the Sentinel string, an empty list, or zero.
package record

import (
	"strings"

	"github.com/Sternrassler/bibharvest/pkg/scopus"
)

// Sentinel marks a field the source API did not provide.
const Sentinel = "N/A"

// UnknownInstitution replaces an affiliation without a name.
const UnknownInstitution = "Unknown Institution"

// Record is one publication of the harvested institution.
type Record struct {
	Title              string           `json:"title"`
	Authors            []string         `json:"authors"`
	Year               string           `json:"year"`
	CoverDate          string           `json:"coverDate"`
	CoverDisplayDate   string           `json:"coverDisplayDate"`
	DOI                string           `json:"doi"`
	ScopusID           string           `json:"scopus_id"`
	TextType           string           `json:"textType"`
	PublicationName    string           `json:"publicationName"`
	PageRange          string           `json:"pageRange"`
	Institutions       []string         `json:"institutions"`
	AffiliationCity    string           `json:"affiliation-city"`
	AffiliationCountry string           `json:"affiliation-country"`
	CitedByCount       int              `json:"citedby-count"`
	CitedByArticles    []CitingArticle  `json:"citedby_articles"`
	References         []CitedReference `json:"references"`

	// creator is dc:creator, kept for the author fallback.
	creator string
}

// CitingArticle summarises a document that cites the record.
type CitingArticle struct {
	Title string `json:"title"`
	DOI   string `json:"doi"`
	Year  string `json:"year"`
}

// CitedReference summarises one entry of the record's reference list.
// Authors is passed through in whatever shape the reference API used.
type CitedReference struct {
	Title   string `json:"title"`
	Authors any    `json:"authors"`
	DOI     string `json:"doi"`
	Year    string `json:"year"`
}

// Year returns the part of a cover date before the first "-".
// Year("2021-05-01") is "2021"; Year(Sentinel) is Sentinel.
func Year(coverDate string) string {
	year, _, _ := strings.Cut(coverDate, "-")
	return year
}

// Normalize maps a search entry to a Record. It performs no I/O; enrichment
// lists start empty and authors hold dc:creator when present.
func Normalize(e scopus.Entry) Record {
	coverDate := e.CoverDate.Or(Sentinel)

	var first scopus.Affiliation
	institutions := []string{}
	if e.Affiliations.Present {
		for _, aff := range e.Affiliations.List {
			institutions = append(institutions, aff.Name.Or(UnknownInstitution))
		}
		if len(e.Affiliations.List) > 0 {
			first = e.Affiliations.List[0]
		}
	}

	r := Record{
		Title:              e.Title.Or(Sentinel),
		Year:               Year(coverDate),
		CoverDate:          coverDate,
		CoverDisplayDate:   e.CoverDisplayDate.Or(Sentinel),
		DOI:                e.DOI.Or(Sentinel),
		ScopusID:           scopus.StripIdentifier(e.Identifier.Or("")),
		TextType:           e.AggregationType.Or(Sentinel),
		PublicationName:    e.PublicationName.Or(Sentinel),
		PageRange:          e.PageRange.Or(Sentinel),
		Institutions:       institutions,
		AffiliationCity:    e.AffiliationCity.Or(first.City.Or(Sentinel)),
		AffiliationCountry: e.AffiliationCountry.Or(first.Country.Or(Sentinel)),
		CitedByCount:       int(e.CitedByCount),
		CitedByArticles:    []CitingArticle{},
		References:         []CitedReference{},
		creator:            e.Creator.Or(Sentinel),
	}
	r.Authors = FallbackAuthors(nil, r.creator)

	return r
}

// Creator returns the dc:creator value the record was normalized from.
func (r Record) Creator() string {
	return r.creator
}

// ApplyAuthors sets the record's authors to derived, falling back to the
// creator when derived is empty.
func (r *Record) ApplyAuthors(derived []string) {
	r.Authors = FallbackAuthors(derived, r.creator)
}

// FallbackAuthors returns derived if non-empty, else creator as a
// single-element list, else an empty list when creator is absent.
func FallbackAuthors(derived []string, creator string) []string {
	if len(derived) > 0 {
		return derived
	}
	if creator == "" || creator == Sentinel {
		return []string{}
	}
	return []string{creator}
}
