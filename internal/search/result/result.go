// Package result defines the search data model shared by the pager, the
// renderer and the backend client, plus the wire shape of backend replies.
package result

import (
	"strings"
)

// AttributeDBpediaURI is rendered as a link instead of a flat value list.
const AttributeDBpediaURI = "dbpedia_uri"

// Source identifies which pane an item was fetched for.
type Source string

const (
	SourceLocal   Source = "local"
	SourceDBpedia Source = "dbpedia"
)

// SearchQuery identifies one logical search session.
type SearchQuery struct {
	Term     string
	Language string
}

// NewSearchQuery trims both fields.
func NewSearchQuery(term, language string) SearchQuery {
	return SearchQuery{
		Term:     strings.TrimSpace(term),
		Language: strings.TrimSpace(language),
	}
}

// Valid reports whether the query has a non-blank term.
func (q SearchQuery) Valid() bool {
	return strings.TrimSpace(q.Term) != ""
}

// Item is one result received from the backend. Items are rendered, never mutated.
type Item struct {
	Name           string
	ThumbnailURL   string
	Types          []string
	Description    string
	Ingredients    []string
	Tools          []string
	Techniques     []string
	Categories     []string
	Attributes     []Attribute
	SourceLanguage string
}

// Attribute is one key of the attribute mapping with its ordered values.
type Attribute struct {
	Key    string
	Values []string
}

// IsLink reports whether the attribute should render as a link.
func (a Attribute) IsLink() bool {
	return a.Key == AttributeDBpediaURI
}

// Page is one fetch's worth of items plus a continuation flag.
type Page struct {
	Items   []Item
	HasMore bool
}

// PageRequest is the body sent to the paginated backend endpoint.
type PageRequest struct {
	Term     string `json:"term"`
	Language string `json:"language"`
	Limit    int    `json:"limit"`
	Offset   int    `json:"offset"`
}
