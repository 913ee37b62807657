package scopus

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// SearchResponse is the top-level Scopus Search API response.
type SearchResponse struct {
	SearchResults *SearchResults `json:"search-results"`
}

// SearchResults holds the result metadata and the raw entry list. Entries are
// kept raw so that callers can both decode them and write them out verbatim.
type SearchResults struct {
	TotalResults string            `json:"opensearch:totalResults"`
	StartIndex   string            `json:"opensearch:startIndex"`
	ItemsPerPage string            `json:"opensearch:itemsPerPage"`
	Entries      []json.RawMessage `json:"entry"`
}

// Entry is one document of a search response. Every field is optional.
type Entry struct {
	Identifier         Text         `json:"dc:identifier"` // "SCOPUS_ID:85012345678"
	EID                Text         `json:"eid"`
	DOI                Text         `json:"prism:doi"`
	Title              Text         `json:"dc:title"`
	Creator            Text         `json:"dc:creator"` // first author only in STANDARD view
	PublicationName    Text         `json:"prism:publicationName"`
	PageRange          Text         `json:"prism:pageRange"`
	CoverDate          Text         `json:"prism:coverDate"` // "2024-01-15"
	CoverDisplayDate   Text         `json:"prism:coverDisplayDate"`
	AggregationType    Text         `json:"prism:aggregationType"`
	CitedByCount       Count        `json:"citedby-count"`
	AffiliationCity    Text         `json:"affiliation-city"`
	AffiliationCountry Text         `json:"affiliation-country"`
	Affiliations       Affiliations `json:"affiliation"`

	// Error is set on the placeholder entry Scopus returns for empty result sets.
	Error Text `json:"error"`
}

// Affiliation is an institution attached to an entry.
type Affiliation struct {
	Name    Text `json:"affilname"`
	City    Text `json:"affiliation-city"`
	Country Text `json:"affiliation-country"`
}

// Text is an optional scalar field. JSON strings, numbers and booleans are
// present; null, objects and arrays count as absent.
type Text struct {
	Value   string
	Present bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*t = Text{}
	if len(data) == 0 {
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		*t = Text{Value: s, Present: true}
	case 'n', '{', '[':
		// null, object, array
	default:
		*t = Text{Value: string(data), Present: true}
	}
	return nil
}

// Or returns the value, or def when the field is absent.
func (t Text) Or(def string) string {
	if !t.Present {
		return def
	}
	return t.Value
}

// NewText returns a present Text holding s.
func NewText(s string) Text {
	return Text{Value: s, Present: true}
}

// Affiliations decodes the "affiliation" field. Only a JSON array yields
// affiliations; any other shape is treated as absent.
type Affiliations struct {
	List    []Affiliation
	Present bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *Affiliations) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '[' {
		*a = Affiliations{}
		return nil
	}
	var list []Affiliation
	if err := json.Unmarshal(data, &list); err != nil {
		// Malformed items are treated like a missing field.
		*a = Affiliations{}
		return nil
	}
	*a = Affiliations{List: list, Present: true}
	return nil
}

// Count decodes a non-negative count sent as either a JSON string or number.
// Unparseable or negative values decode to 0.
type Count int

// UnmarshalJSON implements json.Unmarshaler.
func (c *Count) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	n, err := strconv.Atoi(s)
	if err != nil {
		if f, ferr := strconv.ParseFloat(s, 64); ferr == nil {
			n = int(f)
		} else {
			n = 0
		}
	}
	if n < 0 {
		n = 0
	}
	*c = Count(n)
	return nil
}

// IsPlaceholder reports whether the entry is the error marker Scopus sends
// instead of an empty list.
func (e Entry) IsPlaceholder() bool {
	return e.Error.Present
}
