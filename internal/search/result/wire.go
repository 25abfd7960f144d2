package result

import (
	"encoding/json"
	"sort"
	"strings"
)

// ErrorDBpediaDisabled is the error value the backend sends for gated languages.
const ErrorDBpediaDisabled = "dbpedia_disabled"

// WireItem is the JSON shape of one backend result.
type WireItem struct {
	Name        string              `json:"nombre"`
	Thumbnail   string              `json:"thumbnail,omitempty"`
	Classes     []string            `json:"clases,omitempty"`
	Description string              `json:"descripcion,omitempty"`
	Ingredients []string            `json:"ingredientes,omitempty"`
	Tools       []string            `json:"herramientas,omitempty"`
	Techniques  []string            `json:"tecnicas,omitempty"`
	Categories  []string            `json:"categorias,omitempty"`
	Attributes  map[string][]string `json:"atributos,omitempty"`
	Language    string              `json:"idioma,omitempty"`
}

// WirePage is the JSON shape of a backend reply. Error is set only when the
// backend refuses the request inside a successful response.
type WirePage struct {
	Results []WireItem `json:"results"`
	HasMore bool       `json:"has_more"`
	Error   string     `json:"error,omitempty"`
	Message string     `json:"message,omitempty"`
}

// DecodePage parses a backend reply body.
func DecodePage(body []byte) (WirePage, error) {
	var page WirePage
	if err := json.Unmarshal(body, &page); err != nil {
		return WirePage{}, err
	}
	return page, nil
}

// Page converts the wire reply into the domain page.
func (w WirePage) Page() Page {
	items := make([]Item, 0, len(w.Results))
	for _, wireItem := range w.Results {
		items = append(items, wireItem.Item())
	}
	return Page{Items: items, HasMore: w.HasMore}
}

// Item converts a wire item, dropping blank values and ordering attribute keys
// so rendering is deterministic. dbpedia_uri always sorts last.
func (w WireItem) Item() Item {
	attrs := make([]Attribute, 0, len(w.Attributes))
	for key, values := range w.Attributes {
		trimmedKey := strings.TrimSpace(key)
		cleaned := compact(values)
		if trimmedKey == "" || len(cleaned) == 0 {
			continue
		}
		attrs = append(attrs, Attribute{Key: trimmedKey, Values: cleaned})
	}
	sort.SliceStable(attrs, func(i, j int) bool {
		if attrs[i].IsLink() != attrs[j].IsLink() {
			return !attrs[i].IsLink()
		}
		return attrs[i].Key < attrs[j].Key
	})

	return Item{
		Name:           strings.TrimSpace(w.Name),
		ThumbnailURL:   strings.TrimSpace(w.Thumbnail),
		Types:          dedupe(compact(w.Classes)),
		Description:    strings.TrimSpace(w.Description),
		Ingredients:    compact(w.Ingredients),
		Tools:          compact(w.Tools),
		Techniques:     compact(w.Techniques),
		Categories:     compact(w.Categories),
		Attributes:     attrs,
		SourceLanguage: strings.TrimSpace(w.Language),
	}
}

func compact(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// dedupe keeps the first occurrence of each value; types are a set of tags.
func dedupe(values []string) []string {
	if len(values) < 2 {
		return values
	}
	seen := make(map[string]struct{}, len(values))
	out := values[:0]
	for _, value := range values {
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}
