// Package render turns search state into markup.
//
// Every function here is pure: data in, templ.Component out. Nothing reads
// request state, so components can be rendered into a buffer and asserted on
// without a browser.
package render

import (
	"html"
	"strings"

	"github.com/a-h/templ"
	"github.com/louisbranch/bakery.search/internal/search/result"
	"github.com/microcosm-cc/bluemonday"
)

// Element ids shared by the page layout and the out-of-band fragments.
const (
	ResultsGridID = "dbpedia-results-grid"
	CountID       = "dbpedia-count"
	MoreID        = "dbpedia-more"
)

// Localizer resolves translated copy.
type Localizer interface {
	Lookup(key string, lang string) string
	Sprintf(lang string, key string, args ...any) string
}

// Renderer builds localized components.
type Renderer struct {
	loc     Localizer
	moreURL string
}

// Option customizes a Renderer.
type Option func(*Renderer)

// WithLoadMoreURL sets the endpoint the load-more trigger posts to.
func WithLoadMoreURL(url string) Option {
	return func(r *Renderer) {
		if trimmed := strings.TrimSpace(url); trimmed != "" {
			r.moreURL = trimmed
		}
	}
}

// New builds a Renderer around loc.
func New(loc Localizer, opts ...Option) *Renderer {
	r := &Renderer{loc: loc, moreURL: "/dbpedia/more"}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// T returns the translated copy for key.
func (r *Renderer) T(lang, key string) string {
	if r == nil || r.loc == nil {
		return key
	}
	return r.loc.Lookup(key, lang)
}

// Tf returns the translated copy for key formatted with args.
func (r *Renderer) Tf(lang, key string, args ...any) string {
	if r == nil || r.loc == nil {
		return key
	}
	return r.loc.Sprintf(lang, key, args...)
}

// Waiting is the placeholder shown before any search.
func (r *Renderer) Waiting(lang string) templ.Component {
	return placeholderComponent("no-results waiting", "🔍", r.T(lang, "dbpedia.waiting"), r.T(lang, "dbpedia.waiting_hint"))
}

// Loading is the first-page placeholder.
func (r *Renderer) Loading(lang string) templ.Component {
	return loadingComponent(r.T(lang, "dbpedia.loading"), r.T(lang, "dbpedia.loading_hint"))
}

// NoResults is shown when the first page comes back empty.
func (r *Renderer) NoResults(lang string) templ.Component {
	return placeholderComponent("no-results empty", "🔍", r.T(lang, "dbpedia.no_results"), "")
}

// Failure is shown when the first page fails.
func (r *Renderer) Failure(lang string) templ.Component {
	return placeholderComponent("no-results error", "❌", r.T(lang, "dbpedia.error"), r.T(lang, "dbpedia.retry_hint"))
}

// Disabled warns that DBpedia is not served in lang and names the languages that are.
func (r *Renderer) Disabled(lang string) templ.Component {
	text := r.Tf(lang, "dbpedia.disabled", r.LanguageList(lang, result.EnabledLanguages()))
	return placeholderComponent("no-results disabled", "⚠️", text, "")
}

// LanguageList joins language names localized for lang, e.g. "Spanisch, Englisch und Französisch".
func (r *Renderer) LanguageList(lang string, codes []string) string {
	names := make([]string, 0, len(codes))
	for _, code := range codes {
		names = append(names, r.T(lang, "web.lang."+code))
	}
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	}
	return strings.Join(names[:len(names)-1], ", ") + " " + r.T(lang, "web.list.and") + " " + names[len(names)-1]
}

// CountLabel renders the result counter; hasMore adds a "+" suffix to the number.
func (r *Renderer) CountLabel(lang string, count int, hasMore bool) string {
	if hasMore {
		return r.Tf(lang, "dbpedia.count.more", count)
	}
	if count == 0 {
		return r.T(lang, "dbpedia.count.none")
	}
	return r.Tf(lang, "dbpedia.count.exact", count)
}

// StatusLabel renders a counter state that carries no number.
func (r *Renderer) StatusLabel(lang string, status Status) string {
	return r.T(lang, "dbpedia.count."+string(status))
}

// Status names the numberless counter states.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusLoading  Status = "loading"
	StatusError    Status = "error"
	StatusDisabled Status = "disabled"
)

var strictPolicy = bluemonday.StrictPolicy()

// plain strips any markup the backend let through and returns unescaped text.
func plain(value string) string {
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(value)))
}
