package web

import (
	"context"
	"net/http"
	"strings"

	apperrors "github.com/louisbranch/bakery.search/internal/platform/errors"
	"github.com/louisbranch/bakery.search/internal/search/pager"
	"github.com/louisbranch/bakery.search/internal/search/result"
	"github.com/louisbranch/bakery.search/internal/services/shared/i18nhttp"
	"github.com/louisbranch/bakery.search/internal/services/web/platform/httpx"
)

// handleIndex renders the page. A term in the query string, or the term the
// session last searched, starts a fresh search.
func (h *handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	lang := i18nhttp.ResolveLanguage(w, r)
	sess := h.sessions.ensure(w, r)
	term := strings.TrimSpace(r.URL.Query().Get("term"))
	if term == "" {
		term, _, _ = sess.localResults()
	}
	h.renderSearch(w, r, sess, lang, term, http.StatusOK, "")
}

// handleSearch handles the search form submission.
func (h *handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	lang := i18nhttp.ResolveLanguage(w, r)
	sess := h.sessions.ensure(w, r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	term := strings.TrimSpace(r.PostForm.Get("term"))
	if term == "" {
		err := apperrors.New(apperrors.CodeEmptyTerm, "search term is required")
		h.renderSearch(w, r, sess, lang, "", err.Code.HTTPStatus(), h.renderer.T(lang, err.Code.MessageKey()))
		return
	}
	h.renderSearch(w, r, sess, lang, term, http.StatusOK, "")
}

// renderSearch runs the local search, starts the DBpedia pager and renders
// the page. The first DBpedia page is fetched by a follow-up request.
func (h *handler) renderSearch(w http.ResponseWriter, r *http.Request, sess *searchSession, lang, term string, status int, validation string) {
	ctx := httpx.RequestContext(r)
	h.searchLocal(ctx, sess, term, lang)

	view := &fragmentView{}
	ticket, fetch := sess.pager.StartSearch(view, term, lang)
	if fetch {
		sess.park(ticket)
	}
	h.sessions.save(ctx, sess)

	localTerm, items, failed := sess.localResults()
	h.renderPage(w, r, status, pageData{
		Lang:       lang,
		Term:       term,
		Validation: validation,
		Tabs:       sess.tabs,
		Local:      localPane{Term: localTerm, Items: items, Failed: failed},
		DBpedia:    view,
		Loader:     fetch,
	})
}

// searchLocal queries the local ontology and records the outcome on sess.
func (h *handler) searchLocal(ctx context.Context, sess *searchSession, term, lang string) {
	query := result.NewSearchQuery(term, lang)
	if !query.Valid() {
		sess.setLocal("", nil, false)
		return
	}
	items, err := h.backend.SearchLocal(ctx, query)
	if err != nil {
		h.logger.Warn("local search failed", "term", query.Term, "lang", query.Language, "error", err)
		sess.setLocal(query.Term, nil, true)
		return
	}
	sess.setLocal(query.Term, items, false)
}

// handleDBpediaSearch starts a DBpedia search for the posted term and
// fetches its first page.
func (h *handler) handleDBpediaSearch(w http.ResponseWriter, r *http.Request) {
	lang := i18nhttp.ResolveLanguage(w, r)
	sess := h.sessions.ensure(w, r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	term := strings.TrimSpace(r.PostForm.Get("term"))

	view := &fragmentView{}
	ticket, fetch := sess.pager.StartSearch(view, term, lang)
	if fetch {
		h.fetch(w, r, sess, view, ticket)
		return
	}
	h.sessions.save(r.Context(), sess)
	h.writeFragment(w, r, view)
}

// handleDBpediaFetch runs the first-page fetch parked by a page render.
func (h *handler) handleDBpediaFetch(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.lookup(r)
	if sess == nil {
		httpx.NoContent(w)
		return
	}
	ticket, ok := sess.takePending()
	if !ok {
		httpx.NoContent(w)
		return
	}
	h.fetch(w, r, sess, &fragmentView{}, ticket)
}

// handleDBpediaMore fetches the next page when the pager allows it.
func (h *handler) handleDBpediaMore(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.lookup(r)
	if sess == nil {
		httpx.NoContent(w)
		return
	}
	view := &fragmentView{}
	ticket, ok := sess.pager.LoadMore(view)
	if !ok {
		httpx.NoContent(w)
		return
	}
	h.fetch(w, r, sess, view, ticket)
}

// fetch runs ticket and writes the outcome. Stale outcomes write 204 so an
// older response never overwrites newer markup.
func (h *handler) fetch(w http.ResponseWriter, r *http.Request, sess *searchSession, view *fragmentView, ticket pager.Ticket) {
	ctx := r.Context()
	if !sess.pager.Fetch(ctx, view, h.backend, ticket) {
		httpx.NoContent(w)
		return
	}
	h.sessions.save(ctx, sess)
	h.writeFragment(w, r, view)
}
