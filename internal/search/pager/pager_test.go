package pager

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/a-h/templ"
	apperrors "github.com/louisbranch/bakery.search/internal/platform/errors"
	"github.com/louisbranch/bakery.search/internal/platform/i18n/catalog"
	"github.com/louisbranch/bakery.search/internal/search/render"
	"github.com/louisbranch/bakery.search/internal/search/result"
)

// recordingView keeps the rendered DOM regions as strings.
type recordingView struct {
	t        *testing.T
	results  []string
	count    string
	trigger  string
	replaces int
	appends  int
}

func (v *recordingView) ReplaceResults(components ...templ.Component) {
	v.replaces++
	v.results = v.results[:0]
	for _, c := range components {
		v.results = append(v.results, renderComponent(v.t, c))
	}
}

func (v *recordingView) AppendResults(cards ...templ.Component) {
	v.appends++
	for _, c := range cards {
		v.results = append(v.results, renderComponent(v.t, c))
	}
}

func (v *recordingView) SetCount(label string) { v.count = label }

func (v *recordingView) SetTrigger(trigger templ.Component) {
	v.trigger = renderComponent(v.t, trigger)
}

func (v *recordingView) body() string { return strings.Join(v.results, "\n") }

func renderComponent(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	if err := c.Render(context.Background(), &buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	return buf.String()
}

func newTestPager(opts ...Option) *Pager {
	opts = append([]Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	return New(render.New(catalog.Default()), opts...)
}

func items(names ...string) []result.Item {
	out := make([]result.Item, 0, len(names))
	for _, name := range names {
		out = append(out, result.Item{Name: name})
	}
	return out
}

// scriptedFetcher serves queued pages and records every request it sees.
type scriptedFetcher struct {
	mu       sync.Mutex
	pages    []result.Page
	errs     []error
	requests []result.PageRequest
}

func (f *scriptedFetcher) FetchPage(_ context.Context, req result.PageRequest) (result.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	i := len(f.requests) - 1
	if i < len(f.errs) && f.errs[i] != nil {
		return result.Page{}, f.errs[i]
	}
	if i < len(f.pages) {
		return f.pages[i], nil
	}
	return result.Page{}, nil
}

func TestStartSearchEmptyTermShowsWaiting(t *testing.T) {
	t.Parallel()

	p := newTestPager()
	view := &recordingView{t: t}
	if _, ok := p.StartSearch(view, "   ", "en"); ok {
		t.Fatal("expected no fetch for blank term")
	}
	state := p.Snapshot()
	if state.Phase != PhaseIdle || state.Loading || state.Offset != 0 {
		t.Fatalf("state = %+v, want idle", state)
	}
	if !strings.Contains(view.body(), "Waiting for search...") {
		t.Fatalf("body = %q, want waiting placeholder", view.body())
	}
	if view.count != "Waiting for search..." {
		t.Fatalf("count = %q", view.count)
	}
	if view.trigger != "" {
		t.Fatalf("trigger = %q, want hidden", view.trigger)
	}
}

func TestStartSearchDisabledLanguageSkipsFetch(t *testing.T) {
	t.Parallel()

	p := newTestPager()
	view := &recordingView{t: t}
	fetcher := &scriptedFetcher{}
	ticket, ok := p.StartSearch(view, "cake", "de")
	if ok {
		t.Fatalf("expected no ticket, got %+v", ticket)
	}
	if got := len(fetcher.requests); got != 0 {
		t.Fatalf("requests = %d, want 0", got)
	}
	state := p.Snapshot()
	if state.Phase != PhaseDisabled || state.Loading {
		t.Fatalf("state = %+v, want disabled", state)
	}
	want := "Die DBpedia-Suche ist nur auf Spanisch, Englisch und Französisch verfügbar."
	if !strings.Contains(view.body(), want) {
		t.Fatalf("body = %q, want %q", view.body(), want)
	}
	if view.count != "Nicht verfügbar" {
		t.Fatalf("count = %q", view.count)
	}
}

func TestBrowsePagesUntilExhausted(t *testing.T) {
	t.Parallel()

	p := newTestPager(WithPageSize(3))
	view := &recordingView{t: t}
	fetcher := &scriptedFetcher{pages: []result.Page{
		{Items: items("Brownie", "Blondie", "Fudge brownie"), HasMore: true},
		{Items: items("Brookie", "Mug brownie"), HasMore: false},
	}}

	ticket, ok := p.StartSearch(view, "brownie", "es")
	if !ok {
		t.Fatal("expected first-page ticket")
	}
	if !p.Snapshot().Loading {
		t.Fatal("expected loading while first page is in flight")
	}
	if !strings.Contains(view.body(), "Buscando en DBpedia") {
		t.Fatalf("body = %q, want loading placeholder", view.body())
	}
	if ticket.Request != (result.PageRequest{Term: "brownie", Language: "es", Limit: 3, Offset: 0}) {
		t.Fatalf("request = %+v", ticket.Request)
	}
	if !p.Fetch(context.Background(), view, fetcher, ticket) {
		t.Fatal("expected first page to render")
	}

	state := p.Snapshot()
	if state.Offset != 3 || !state.HasMore || state.Loading || state.Phase != PhaseShowingResults {
		t.Fatalf("state after first page = %+v", state)
	}
	if len(view.results) != 3 {
		t.Fatalf("rendered %d cards, want 3", len(view.results))
	}
	if view.count != "3+ resultado(s)" {
		t.Fatalf("count = %q", view.count)
	}
	if !strings.Contains(view.trigger, "Cargar más") {
		t.Fatalf("trigger = %q, want ready button", view.trigger)
	}

	next, ok := p.LoadMore(view)
	if !ok {
		t.Fatal("expected next-page ticket")
	}
	if next.Request.Offset != 3 || !next.Append {
		t.Fatalf("next ticket = %+v", next)
	}
	if !strings.Contains(view.trigger, "disabled") {
		t.Fatalf("trigger = %q, want busy button", view.trigger)
	}
	if !p.Fetch(context.Background(), view, fetcher, next) {
		t.Fatal("expected second page to render")
	}

	state = p.Snapshot()
	if state.Offset != 5 || state.HasMore || state.Phase != PhaseExhausted {
		t.Fatalf("state after second page = %+v", state)
	}
	if len(view.results) != 5 || view.appends != 1 {
		t.Fatalf("results = %d appends = %d, want 5 and 1", len(view.results), view.appends)
	}
	if !strings.Contains(view.results[3], "Brookie") {
		t.Fatalf("fourth card = %q, want appended Brookie", view.results[3])
	}
	if view.count != "5 resultado(s)" {
		t.Fatalf("count = %q", view.count)
	}
	if view.trigger != "" {
		t.Fatalf("trigger = %q, want hidden", view.trigger)
	}
	if _, ok := p.LoadMore(view); ok {
		t.Fatal("expected no ticket once exhausted")
	}
}

func TestFirstPageEmptyShowsNoResults(t *testing.T) {
	t.Parallel()

	p := newTestPager()
	view := &recordingView{t: t}
	ticket, _ := p.StartSearch(view, "zzz", "en")
	p.Fetch(context.Background(), view, &scriptedFetcher{pages: []result.Page{{}}}, ticket)

	if !strings.Contains(view.body(), "No results found on DBpedia") {
		t.Fatalf("body = %q", view.body())
	}
	if view.count != "0 results" {
		t.Fatalf("count = %q", view.count)
	}
	if state := p.Snapshot(); state.Phase != PhaseExhausted || state.HasMore {
		t.Fatalf("state = %+v", state)
	}
}

func TestLoadMoreIgnoredWhileLoading(t *testing.T) {
	t.Parallel()

	p := newTestPager()
	view := &recordingView{t: t}
	first, _ := p.StartSearch(view, "pan", "es")
	p.Resolve(view, first, result.Page{Items: items("Pan"), HasMore: true})

	if _, ok := p.LoadMore(view); !ok {
		t.Fatal("expected first load more to issue")
	}
	if _, ok := p.LoadMore(view); ok {
		t.Fatal("expected second load more to be ignored while loading")
	}
}

func TestFirstPageFailureShowsError(t *testing.T) {
	t.Parallel()

	p := newTestPager()
	view := &recordingView{t: t}
	ticket, _ := p.StartSearch(view, "croissant", "es")
	fetcher := &scriptedFetcher{errs: []error{apperrors.Wrap(apperrors.CodeTransport, "backend unreachable", errors.New("dial tcp"))}}
	if !p.Fetch(context.Background(), view, fetcher, ticket) {
		t.Fatal("expected failure to render")
	}

	state := p.Snapshot()
	if state.Loading || state.Phase != PhaseFailed {
		t.Fatalf("state = %+v", state)
	}
	if !strings.Contains(view.body(), "Error al cargar resultados de DBpedia") {
		t.Fatalf("body = %q", view.body())
	}
	if view.count != "Error" {
		t.Fatalf("count = %q", view.count)
	}
}

func TestNextPageFailureKeepsItemsAndAllowsRetry(t *testing.T) {
	t.Parallel()

	p := newTestPager()
	view := &recordingView{t: t}
	first, _ := p.StartSearch(view, "pan", "es")
	p.Resolve(view, first, result.Page{Items: items("Pan", "Baguette"), HasMore: true})

	next, _ := p.LoadMore(view)
	if !p.Reject(view, next, apperrors.New(apperrors.CodeTransport, "timeout")) {
		t.Fatal("expected rejection to apply")
	}
	state := p.Snapshot()
	if state.Loading || state.Offset != 2 || !state.HasMore {
		t.Fatalf("state = %+v", state)
	}
	if len(view.results) != 2 {
		t.Fatalf("results = %d, want items kept", len(view.results))
	}
	if !strings.Contains(view.trigger, "Cargar más") {
		t.Fatalf("trigger = %q, want ready for retry", view.trigger)
	}
	if _, ok := p.LoadMore(view); !ok {
		t.Fatal("expected retry to issue a ticket")
	}
}

func TestServerSignaledDisabled(t *testing.T) {
	t.Parallel()

	disabled := apperrors.New(apperrors.CodeDBpediaDisabled, "dbpedia disabled")

	t.Run("first page", func(t *testing.T) {
		t.Parallel()
		p := newTestPager()
		view := &recordingView{t: t}
		ticket, _ := p.StartSearch(view, "tarte", "fr")
		p.Reject(view, ticket, disabled)
		if !strings.Contains(view.body(), "disponible") {
			t.Fatalf("body = %q, want disabled warning", view.body())
		}
		if state := p.Snapshot(); state.Phase != PhaseDisabled || state.Loading {
			t.Fatalf("state = %+v", state)
		}
	})

	t.Run("next page", func(t *testing.T) {
		t.Parallel()
		p := newTestPager()
		view := &recordingView{t: t}
		ticket, _ := p.StartSearch(view, "tarte", "fr")
		p.Resolve(view, ticket, result.Page{Items: items("Tarte Tatin"), HasMore: true})
		next, _ := p.LoadMore(view)
		p.Reject(view, next, disabled)
		if len(view.results) != 1 || !strings.Contains(view.results[0], "Tarte Tatin") {
			t.Fatalf("results = %v, want rendered items kept", view.results)
		}
		if view.trigger != "" {
			t.Fatalf("trigger = %q, want hidden", view.trigger)
		}
		if _, ok := p.LoadMore(view); ok {
			t.Fatal("expected no more pages once disabled")
		}

		replaces := view.replaces
		if p.LanguageChanged(view, "es", false) {
			t.Fatal("enabled language should not swap the pane")
		}
		if view.replaces != replaces || len(view.results) != 1 {
			t.Fatalf("results = %v, want rendered items kept after relabel", view.results)
		}
		if view.count != "No disponible" {
			t.Fatalf("count = %q, want disabled status", view.count)
		}
		if view.trigger != "" {
			t.Fatalf("trigger = %q, want hidden", view.trigger)
		}
	})
}

func TestRestartAfterPagingResetsOffset(t *testing.T) {
	t.Parallel()

	p := newTestPager(WithPageSize(3))
	view := &recordingView{t: t}
	first, _ := p.StartSearch(view, "brownie", "es")
	p.Resolve(view, first, result.Page{Items: items("Brownie", "Blondie", "Fudge"), HasMore: true})
	next, ok := p.LoadMore(view)
	if !ok {
		t.Fatal("expected next-page ticket")
	}
	p.Resolve(view, next, result.Page{Items: items("Lamington", "Sachertorte"), HasMore: true})
	if len(view.results) != 5 {
		t.Fatalf("results = %d, want 5 before restart", len(view.results))
	}

	restart, ok := p.StartSearch(view, "brownie", "es")
	if !ok {
		t.Fatal("expected restart ticket")
	}
	if restart.Request.Offset != 0 || restart.Append {
		t.Fatalf("restart ticket = %+v, want offset 0 replace", restart)
	}
	if !p.Resolve(view, restart, result.Page{Items: items("Brownie")}) {
		t.Fatal("expected restart to resolve")
	}
	if len(view.results) != 1 || !strings.Contains(view.results[0], "Brownie") {
		t.Fatalf("results = %v, want only the restarted page", view.results)
	}
	if state := p.Snapshot(); state.Offset != 1 || state.HasMore {
		t.Fatalf("state = %+v, want offset 1 exhausted", state)
	}
	if view.count != "1 resultado(s)" {
		t.Fatalf("count = %q", view.count)
	}
}

func TestNewSearchDropsStaleResponse(t *testing.T) {
	t.Parallel()

	p := newTestPager()
	view := &recordingView{t: t}
	slow, _ := p.StartSearch(view, "brownie", "es")
	fast, _ := p.StartSearch(view, "croissant", "es")

	if !p.Resolve(view, fast, result.Page{Items: items("Croissant")}) {
		t.Fatal("expected latest ticket to resolve")
	}
	if p.Resolve(view, slow, result.Page{Items: items("Brownie", "Blondie")}) {
		t.Fatal("expected stale ticket to be dropped")
	}
	if p.Reject(view, slow, errors.New("late failure")) {
		t.Fatal("expected stale failure to be dropped")
	}
	if state := p.Snapshot(); state.Term != "croissant" || state.Offset != 1 {
		t.Fatalf("state = %+v", state)
	}
	if len(view.results) != 1 || !strings.Contains(view.results[0], "Croissant") {
		t.Fatalf("results = %v", view.results)
	}
}

func TestTicketCannotResolveTwice(t *testing.T) {
	t.Parallel()

	p := newTestPager()
	view := &recordingView{t: t}
	ticket, _ := p.StartSearch(view, "pan", "es")
	if !p.Resolve(view, ticket, result.Page{Items: items("Pan"), HasMore: true}) {
		t.Fatal("expected first resolve")
	}
	if p.Resolve(view, ticket, result.Page{Items: items("Pan")}) {
		t.Fatal("expected duplicate resolve to be dropped")
	}
	if got := p.Snapshot().Offset; got != 1 {
		t.Fatalf("offset = %d, want 1", got)
	}
}

func TestOffsetMatchesRenderedItems(t *testing.T) {
	t.Parallel()

	p := newTestPager()
	view := &recordingView{t: t}
	ticket, _ := p.StartSearch(view, "galleta", "es")
	sizes := []int{10, 10, 4}
	for i, size := range sizes {
		names := make([]string, size)
		for j := range names {
			names[j] = fmt.Sprintf("item-%d-%d", i, j)
		}
		if !p.Resolve(view, ticket, result.Page{Items: items(names...), HasMore: i < len(sizes)-1}) {
			t.Fatalf("page %d not applied", i)
		}
		if got, want := p.Snapshot().Offset, len(view.results); got != want {
			t.Fatalf("offset = %d, rendered = %d", got, want)
		}
		if i < len(sizes)-1 {
			ticket, _ = p.LoadMore(view)
		}
	}
	if got := p.Snapshot().Offset; got != 24 {
		t.Fatalf("offset = %d, want 24", got)
	}
}

func TestFetchClearsLoadingOnPanic(t *testing.T) {
	t.Parallel()

	p := newTestPager()
	view := &recordingView{t: t}
	ticket, _ := p.StartSearch(view, "pan", "es")
	p.Fetch(context.Background(), view, panicFetcher{}, ticket)
	if state := p.Snapshot(); state.Loading || state.Phase != PhaseFailed {
		t.Fatalf("state = %+v", state)
	}
}

type panicFetcher struct{}

func (panicFetcher) FetchPage(context.Context, result.PageRequest) (result.Page, error) {
	panic("boom")
}

func TestLanguageChangedToDisabledReplacesPane(t *testing.T) {
	t.Parallel()

	p := newTestPager()
	view := &recordingView{t: t}
	ticket, _ := p.StartSearch(view, "pan", "es")

	if !p.LanguageChanged(view, "it", true) {
		t.Fatal("expected pane to switch to the disabled warning")
	}
	if !strings.Contains(view.body(), "DBpedia") || view.trigger != "" {
		t.Fatalf("body = %q trigger = %q", view.body(), view.trigger)
	}
	if p.Resolve(view, ticket, result.Page{Items: items("Pan")}) {
		t.Fatal("expected in-flight fetch to be dropped")
	}
	if state := p.Snapshot(); state.Phase != PhaseDisabled || state.Loading || state.Language != "it" {
		t.Fatalf("state = %+v", state)
	}
}

func TestLanguageChangedRelabels(t *testing.T) {
	t.Parallel()

	p := newTestPager()
	view := &recordingView{t: t}
	ticket, _ := p.StartSearch(view, "pan", "es")
	p.Resolve(view, ticket, result.Page{Items: items("Pan", "Bolillo"), HasMore: true})
	replaces := view.replaces

	if p.LanguageChanged(view, "en", true) {
		t.Fatal("enabled language should not swap the pane")
	}
	if view.count != "2+ result(s)" {
		t.Fatalf("count = %q", view.count)
	}
	if !strings.Contains(view.trigger, "Load more") {
		t.Fatalf("trigger = %q", view.trigger)
	}
	if view.replaces != replaces || len(view.results) != 2 {
		t.Fatal("results should be left in place")
	}

	if p.LanguageChanged(view, "de", false) {
		t.Fatal("inactive results pane should not swap")
	}
	if p.Snapshot().Phase != PhaseShowingResults {
		t.Fatalf("phase = %s", p.Snapshot().Phase)
	}
}

func TestRestoreDropsInFlightFetch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		in    State
		phase Phase
	}{
		{name: "zero", in: State{}, phase: PhaseIdle},
		{name: "first page", in: State{Term: "pan", Language: "es", Loading: true, Phase: PhaseFetchingFirstPage}, phase: PhaseFailed},
		{name: "next page", in: State{Term: "pan", Language: "es", Offset: 10, HasMore: true, Loading: true, Phase: PhaseFetchingNextPage}, phase: PhaseShowingResults},
		{name: "showing", in: State{Term: "pan", Language: "es", Offset: 10, HasMore: true, Phase: PhaseShowingResults}, phase: PhaseShowingResults},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			p := newTestPager()
			p.Restore(tc.in)
			state := p.Snapshot()
			if state.Loading {
				t.Fatal("restored state must not be loading")
			}
			if state.Phase != tc.phase {
				t.Fatalf("phase = %s, want %s", state.Phase, tc.phase)
			}
		})
	}
}

func TestRestoredPagerContinuesPaging(t *testing.T) {
	t.Parallel()

	p := newTestPager()
	p.Restore(State{Term: "pan", Language: "es", Offset: 10, HasMore: true, Phase: PhaseShowingResults})
	ticket, ok := p.LoadMore(&recordingView{t: t})
	if !ok {
		t.Fatal("expected load more after restore")
	}
	if ticket.Request.Offset != 10 || ticket.Request.Term != "pan" {
		t.Fatalf("request = %+v", ticket.Request)
	}
}
