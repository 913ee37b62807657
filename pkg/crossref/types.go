package crossref

import (
	"encoding/json"

	"github.com/Sternrassler/bibharvest/pkg/scopus"
)

// Text is the optional scalar shared with the Scopus decoder.
type Text = scopus.Text

// WorkResponse is the envelope of GET /works/{doi}.
type WorkResponse struct {
	Status  string `json:"status"`
	Message *Work  `json:"message"`
}

// Work is the subset of a Crossref work used for enrichment.
type Work struct {
	DOI       Text        `json:"DOI"`
	Author    []Author    `json:"author"`
	Reference []Reference `json:"reference"`
}

// Author is a contributor of a work.
type Author struct {
	Given  Text `json:"given"`
	Family Text `json:"family"`
	Name   Text `json:"name"` // organisational authors carry only a name
}

// Reference is one entry of a work's reference list.
type Reference struct {
	Key          Text            `json:"key"`
	Unstructured Text            `json:"unstructured"`
	ArticleTitle Text            `json:"article-title"`
	DOI          Text            `json:"DOI"`
	Year         Text            `json:"year"`
	Author       json.RawMessage `json:"author"` // usually a string, shape not guaranteed
}
