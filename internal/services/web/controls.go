package web

import (
	"net/http"
	"strings"

	apperrors "github.com/louisbranch/bakery.search/internal/platform/errors"
	platformi18n "github.com/louisbranch/bakery.search/internal/platform/i18n"
	"github.com/louisbranch/bakery.search/internal/search/pager"
	"github.com/louisbranch/bakery.search/internal/search/result"
	"github.com/louisbranch/bakery.search/internal/search/tabs"
	"github.com/louisbranch/bakery.search/internal/services/shared/htmx"
	"github.com/louisbranch/bakery.search/internal/services/shared/i18nhttp"
	"github.com/louisbranch/bakery.search/internal/services/web/platform/weberror"
)

const (
	eventTabActivated   = "tab-activated"
	eventLanguageChange = "language-changed"
)

// handleTab activates a result pane and re-renders the tab bar. The browser
// toggles panel visibility on the tab-activated event. Opening the DBpedia
// pane retries a search its old language could not run.
func (h *handler) handleTab(w http.ResponseWriter, r *http.Request) {
	lang := i18nhttp.ResolveLanguage(w, r)
	sess := h.sessions.ensure(w, r)
	id := strings.TrimSpace(r.PathValue("id"))
	if err := sess.tabs.Activate(id); err != nil {
		h.writeClientError(w, r, lang, err)
		return
	}

	view := &fragmentView{}
	if sess.tabs.IsActive(tabs.PaneDBpedia) {
		h.retryDisabledSearch(view, sess, lang)
	}
	h.sessions.save(r.Context(), sess)

	view.add(htmx.OOB(tabBarID, htmx.SwapInner, sess.tabs.Bar(h.catalog, lang, "/tabs/")))
	if err := htmx.Trigger(w, eventTabActivated, map[string]string{"pane": sess.tabs.Active()}); err != nil {
		h.logger.Warn("set tab trigger", "error", err)
	}
	h.writeFragment(w, r, view)
}

// retryDisabledSearch restarts a search that was refused for its language
// once the UI language can query DBpedia. A refusal signaled by the server
// for an enabled language is left alone.
func (h *handler) retryDisabledSearch(view *fragmentView, sess *searchSession, lang string) {
	state := sess.pager.Snapshot()
	if state.Phase != pager.PhaseDisabled || state.Term == "" {
		return
	}
	if result.Enabled(state.Language) || !result.Enabled(lang) {
		return
	}
	if ticket, fetch := sess.pager.StartSearch(view, state.Term, lang); fetch {
		sess.park(ticket)
		view.add(htmx.OOB(loaderID, htmx.SwapInner, fetchLoader()))
	}
}

// handleLanguage switches the UI language, relabels the static page text and
// tells the pager. A search is re-run when the DBpedia pane is showing a term
// and the new language can query DBpedia.
func (h *handler) handleLanguage(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimSpace(r.PathValue("code"))
	tag, ok := platformi18n.ParseTag(code)
	if !ok {
		lang := i18nhttp.ResolveLanguage(w, r)
		h.writeClientError(w, r, lang, apperrors.WithMetadata(apperrors.CodeUnknownLanguage, "unsupported language", map[string]string{"language": code}))
		return
	}
	i18nhttp.SetLanguageCookie(w, tag)
	lang := platformi18n.Code(tag)
	sess := h.sessions.ensure(w, r)
	ctx := r.Context()

	term := sess.pager.Snapshot().Term
	localTerm, _, _ := sess.localResults()
	if localTerm != "" {
		h.searchLocal(ctx, sess, localTerm, lang)
	}
	localTerm, items, failed := sess.localResults()

	view := &fragmentView{}
	resultsActive := sess.tabs.IsActive(tabs.PaneDBpedia)
	swapped := sess.pager.LanguageChanged(view, lang, resultsActive)
	if !swapped && resultsActive && term != "" && result.Enabled(lang) {
		if ticket, fetch := sess.pager.StartSearch(view, term, lang); fetch {
			sess.park(ticket)
			view.add(htmx.OOB(loaderID, htmx.SwapInner, fetchLoader()))
		}
	}
	h.sessions.save(ctx, sess)

	view.add(htmx.OOB(headerID, htmx.SwapInner, h.header(lang)))
	view.add(htmx.OOB(formID, htmx.SwapInner, h.searchForm(lang, localTerm, "")))
	view.add(htmx.OOB(tabBarID, htmx.SwapInner, sess.tabs.Bar(h.catalog, lang, "/tabs/")))
	view.add(htmx.OOB(localBodyID, htmx.SwapInner, h.localBody(lang, localPane{Term: localTerm, Items: items, Failed: failed})))
	if err := htmx.Trigger(w, eventLanguageChange, map[string]string{
		"lang":  lang,
		"title": h.pageTitle(lang, localTerm),
	}); err != nil {
		h.logger.Warn("set language trigger", "error", err)
	}
	h.writeFragment(w, r, view)
}

// writeClientError writes a localized message with the status the error's
// code maps to.
func (h *handler) writeClientError(w http.ResponseWriter, r *http.Request, lang string, err error) {
	h.logger.Debug("rejected request", "code", string(apperrors.CodeOf(err)), "error", err)
	weberror.WriteError(w, r, h.catalog, lang, err)
}
