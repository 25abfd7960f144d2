package web

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"
	platformi18n "github.com/louisbranch/bakery.search/internal/platform/i18n"
	"github.com/louisbranch/bakery.search/internal/search/render"
	"github.com/louisbranch/bakery.search/internal/search/result"
	"github.com/louisbranch/bakery.search/internal/search/tabs"
	"github.com/louisbranch/bakery.search/internal/services/shared/htmx"
	"github.com/louisbranch/bakery.search/internal/services/shared/i18nhttp"
	"golang.org/x/text/language"
)

// Region ids swapped by fragment responses.
const (
	headerID    = "site-header"
	formID      = "search-form"
	tabBarID    = "tab-bar"
	localBodyID = "local-pane-body"
	loaderID    = "dbpedia-loader"
)

const htmxScriptURL = "https://unpkg.com/htmx.org@2.0.4"

// htmx does not swap 4xx bodies by default; validation messages are 400s.
const htmxConfig = `{"responseHandling":[{"code":"204","swap":false},{"code":"[23]..","swap":true},{"code":"400","swap":true},{"code":"[45]..","swap":false,"error":true}]}`

// pageData is everything the full search page renders.
type pageData struct {
	Lang       string
	Term       string
	Validation string
	Tabs       *tabs.Controller
	Local      localPane
	DBpedia    *fragmentView
	Loader     bool
}

// localPane is the local ontology tab content.
type localPane struct {
	Term   string
	Items  []result.Item
	Failed bool
}

func (h *handler) pageTitle(lang, term string) string {
	title := h.renderer.T(lang, "web.title")
	if term = strings.TrimSpace(term); term != "" {
		return term + " | " + title
	}
	return title
}

// page renders the full HTML document.
func (h *handler) page(data pageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<!DOCTYPE html><html lang="` + templ.EscapeString(data.Lang) + `"><head>`)
		b.WriteString(`<meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1">`)
		b.WriteString(`<meta name="htmx-config" content='` + htmxConfig + `'>`)
		b.WriteString(htmx.TitleTag(h.pageTitle(data.Lang, data.Term)))
		b.WriteString(`<link rel="stylesheet" href="/static/app.css">`)
		b.WriteString(`<script src="` + htmxScriptURL + `" defer></script>`)
		b.WriteString(`<script src="/static/app.js" defer></script>`)
		b.WriteString(`</head><body><main id="app-main">`)
		if _, err := io.WriteString(w, b.String()); err != nil {
			return err
		}
		if err := h.mainContent(data).Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</main></body></html>`)
		return err
	})
}

// mainContent renders everything inside <main>.
func (h *handler) mainContent(data pageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		parts := []templ.Component{
			region(headerID, "header", h.header(data.Lang)),
			region(formID, "search", h.searchForm(data.Lang, data.Term, data.Validation)),
			region(tabBarID, "", data.Tabs.Bar(h.catalog, data.Lang, "/tabs/")),
			h.localSection(data),
			h.dbpediaSection(data),
		}
		return group(parts).Render(ctx, w)
	})
}

// header renders the title block and the language switcher.
func (h *handler) header(lang string) templ.Component {
	options := i18nhttp.BuildLanguageOptions(platformi18n.SupportedTags(), lang, func(tag language.Tag) string {
		return h.renderer.T(lang, i18nhttp.LanguageKeyLabel(tag))
	})
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<h1>🥐 ` + templ.EscapeString(h.renderer.T(lang, "web.title")) + `</h1>`)
		b.WriteString(`<p class="subtitle">` + templ.EscapeString(h.renderer.T(lang, "web.subtitle")) + `</p>`)
		b.WriteString(`<nav class="language-switcher" aria-label="` + templ.EscapeString(h.renderer.T(lang, "web.language.label")) + `">`)
		for _, option := range options {
			class := "lang-button"
			if option.Active {
				class += " active"
			}
			b.WriteString(`<button type="button" class="` + class + `" hx-post="/lang/` + templ.EscapeString(option.Code) + `" hx-swap="none"`)
			b.WriteString(` lang="` + templ.EscapeString(option.Code) + `">` + templ.EscapeString(option.Label) + `</button>`)
		}
		b.WriteString(`</nav>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

// searchForm renders the term input. validation is shown under the field.
func (h *handler) searchForm(lang, term, validation string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<form id="searchForm" method="post" action="/" hx-post="/" hx-target="#app-main" hx-swap="innerHTML"`)
		b.WriteString(` data-empty-message="` + templ.EscapeString(h.renderer.T(lang, "web.search.empty_term")) + `">`)
		b.WriteString(`<input type="text" id="searchInput" name="term" autocomplete="off"`)
		b.WriteString(` value="` + templ.EscapeString(term) + `"`)
		b.WriteString(` placeholder="` + templ.EscapeString(h.renderer.T(lang, "web.search.placeholder")) + `">`)
		b.WriteString(`<button type="submit">` + templ.EscapeString(h.renderer.T(lang, "web.search.submit")) + `</button>`)
		if validation != "" {
			b.WriteString(`<p class="form-error" role="alert">` + templ.EscapeString(validation) + `</p>`)
		}
		b.WriteString(`</form>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

func (h *handler) localSection(data pageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		open := `<section id="` + tabs.PaneLocal + `" class="` + data.Tabs.PanelClass(tabs.PaneLocal) + `" role="tabpanel">`
		if _, err := io.WriteString(w, open); err != nil {
			return err
		}
		if err := region(localBodyID, "", h.localBody(data.Lang, data.Local)).Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</section>`)
		return err
	})
}

// localBody renders the local ontology count and cards.
func (h *handler) localBody(lang string, pane localPane) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var count, message string
		switch {
		case strings.TrimSpace(pane.Term) == "":
			message = h.renderer.T(lang, "web.local.waiting")
		case pane.Failed:
			message = h.renderer.T(lang, "web.local.error")
		case len(pane.Items) == 0:
			message = h.renderer.T(lang, "web.local.empty")
		default:
			count = h.renderer.Tf(lang, "web.local.count", len(pane.Items))
		}
		var b strings.Builder
		b.WriteString(`<div class="results-header"><span id="local-count" class="results-count">` + templ.EscapeString(count) + `</span></div>`)
		b.WriteString(`<div id="local-results-grid" class="results-grid">`)
		if message != "" {
			b.WriteString(`<div class="no-results">` + templ.EscapeString(message) + `</div>`)
		}
		if _, err := io.WriteString(w, b.String()); err != nil {
			return err
		}
		if message == "" {
			if err := group(h.renderer.Cards(pane.Items, result.SourceLocal, lang)).Render(ctx, w); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</div>`)
		return err
	})
}

func (h *handler) dbpediaSection(data pageData) templ.Component {
	view := data.DBpedia
	if view == nil {
		view = &fragmentView{}
	}
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<section id="` + tabs.PaneDBpedia + `" class="` + data.Tabs.PanelClass(tabs.PaneDBpedia) + `" role="tabpanel">`)
		b.WriteString(`<div class="results-header"><span id="` + render.CountID + `" class="results-count">`)
		b.WriteString(templ.EscapeString(view.countLabel()) + `</span></div>`)
		b.WriteString(`<div id="` + render.ResultsGridID + `" class="results-grid">`)
		if _, err := io.WriteString(w, b.String()); err != nil {
			return err
		}
		if err := view.inline().Render(ctx, w); err != nil {
			return err
		}
		if _, err := io.WriteString(w, `</div>`); err != nil {
			return err
		}
		if err := region(render.MoreID, "load-more", view.triggerComponent()).Render(ctx, w); err != nil {
			return err
		}
		var loader templ.Component = templ.NopComponent
		if data.Loader {
			loader = fetchLoader()
		}
		if err := region(loaderID, "", loader).Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</section>`)
		return err
	})
}

// fetchLoader posts the parked first-page ticket as soon as it is swapped in.
func fetchLoader() templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<div hx-post="/dbpedia/fetch" hx-trigger="load" hx-swap="none"></div>`)
		return err
	})
}

// region wraps content in a div with id so fragments can swap its children.
func region(id, class string, content templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		open := `<div id="` + id + `"`
		if class != "" {
			open += ` class="` + class + `"`
		}
		if _, err := io.WriteString(w, open+`>`); err != nil {
			return err
		}
		if content != nil {
			if err := content.Render(ctx, w); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</div>`)
		return err
	})
}
