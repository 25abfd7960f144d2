// Package pager implements the DBpedia result pager: an offset-based
// "load more" state machine that renders fetched pages into a View.
//
// A Pager owns its State; callers never mutate it directly. Every fetch is
// described by a Ticket carrying a token, and only the ticket issued last may
// complete. Starting a new search therefore makes any slower in-flight fetch
// stale, and its response is dropped instead of overwriting newer results.
package pager

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/a-h/templ"
	apperrors "github.com/louisbranch/bakery.search/internal/platform/errors"
	"github.com/louisbranch/bakery.search/internal/search/backend"
	"github.com/louisbranch/bakery.search/internal/search/render"
	"github.com/louisbranch/bakery.search/internal/search/result"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/louisbranch/bakery.search/internal/search/pager"

// View receives rendering instructions from the pager.
type View interface {
	// ReplaceResults replaces everything in the result container.
	ReplaceResults(components ...templ.Component)
	// AppendResults appends cards after the ones already rendered.
	AppendResults(cards ...templ.Component)
	// SetCount replaces the result counter label.
	SetCount(label string)
	// SetTrigger replaces the load-more slot; an empty component removes it.
	SetTrigger(trigger templ.Component)
}

// Fetcher retrieves one page of results.
type Fetcher interface {
	FetchPage(ctx context.Context, req result.PageRequest) (result.Page, error)
}

// Ticket describes one issued fetch.
type Ticket struct {
	Token   uint64
	Request result.PageRequest
	Append  bool
}

// Pager is the result pager for one search session. It is safe for
// concurrent use; transitions are serialized and fetches run outside the lock.
type Pager struct {
	mu      sync.Mutex
	state   State
	display string
	issued  uint64
	pending uint64

	renderer *render.Renderer
	pageSize int
	logger   *slog.Logger
	tracer   trace.Tracer
}

// Option customizes a Pager.
type Option func(*Pager)

// WithPageSize sets the limit sent with every fetch.
func WithPageSize(size int) Option {
	return func(p *Pager) {
		if size > 0 {
			p.pageSize = size
		}
	}
}

// WithLogger sets the logger used for fetch diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pager) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New builds an idle Pager.
func New(renderer *render.Renderer, opts ...Option) *Pager {
	p := &Pager{
		state:    State{Phase: PhaseIdle},
		renderer: renderer,
		pageSize: backend.DefaultPageSize,
		logger:   slog.Default(),
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// Snapshot returns a copy of the current state.
func (p *Pager) Snapshot() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Restore replaces the state with a persisted snapshot.
func (p *Pager) Restore(state State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = state.restored()
	p.display = p.state.Language
	p.issued++
	p.pending = 0
}

// StartSearch begins a fresh search for term in language.
//
// A blank term shows the waiting placeholder and a disabled language shows
// the language warning; neither issues a fetch. Otherwise pagination is reset
// and the returned ticket requests the first page. Any fetch still in flight
// becomes stale.
func (p *Pager) StartSearch(view View, term, language string) (Ticket, bool) {
	term = strings.TrimSpace(term)
	language = normalizeLanguage(language)

	p.mu.Lock()
	defer p.mu.Unlock()

	p.issued++
	p.pending = 0
	p.display = language
	r := p.renderer

	if term == "" {
		p.state = State{Language: language, Phase: PhaseIdle}
		view.ReplaceResults(r.Waiting(language))
		view.SetCount(r.StatusLabel(language, render.StatusWaiting))
		view.SetTrigger(r.LoadMore(language, render.TriggerHidden))
		return Ticket{}, false
	}

	if !result.Enabled(language) {
		p.state = State{Term: term, Language: language, Phase: PhaseDisabled}
		p.showDisabled(view)
		return Ticket{}, false
	}

	p.state = State{
		Term:     term,
		Language: language,
		Loading:  true,
		Phase:    PhaseFetchingFirstPage,
	}
	p.pending = p.issued
	view.ReplaceResults(r.Loading(language))
	view.SetCount(r.StatusLabel(language, render.StatusLoading))
	view.SetTrigger(r.LoadMore(language, render.TriggerHidden))

	return p.ticket(false), true
}

// LoadMore requests the page after the ones already rendered. It is a no-op
// while a fetch is in flight or when the last page reported no more results.
func (p *Pager) LoadMore(view View) (Ticket, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state.Loading || !p.state.HasMore || p.state.Term == "" {
		return Ticket{}, false
	}

	p.issued++
	p.pending = p.issued
	p.state.Loading = true
	p.state.Phase = PhaseFetchingNextPage
	view.SetTrigger(p.renderer.LoadMore(p.display, render.TriggerBusy))

	return p.ticket(true), true
}

// Resolve applies a successful fetch. It reports false when the ticket is
// stale, in which case nothing is rendered.
func (p *Pager) Resolve(view View, ticket Ticket, page result.Page) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.isCurrent(ticket) {
		p.logger.Debug("dropping stale page", "token", ticket.Token, "term", ticket.Request.Term, "offset", ticket.Request.Offset)
		return false
	}
	p.pending = 0
	p.state.Loading = false
	r := p.renderer
	lang := p.display

	if !ticket.Append && len(page.Items) == 0 {
		p.state.HasMore = false
		p.state.Phase = PhaseExhausted
		view.ReplaceResults(r.NoResults(lang))
		view.SetCount(r.CountLabel(lang, 0, false))
		view.SetTrigger(r.LoadMore(lang, render.TriggerHidden))
		return true
	}

	cards := r.Cards(page.Items, result.SourceDBpedia, lang)
	if ticket.Append {
		view.AppendResults(cards...)
	} else {
		view.ReplaceResults(cards...)
	}

	p.state.Offset += len(page.Items)
	// An empty follow-up page cannot advance the offset, so it ends pagination.
	p.state.HasMore = page.HasMore && len(page.Items) > 0
	if p.state.HasMore {
		p.state.Phase = PhaseShowingResults
	} else {
		p.state.Phase = PhaseExhausted
	}

	view.SetCount(r.CountLabel(lang, p.state.Offset, p.state.HasMore))
	view.SetTrigger(r.LoadMore(lang, triggerFor(p.state)))
	return true
}

// Reject applies a failed fetch. It reports false when the ticket is stale.
//
// A failed first page shows the error placeholder. A failed follow-up page
// leaves rendered items alone and re-enables the trigger for a retry.
func (p *Pager) Reject(view View, ticket Ticket, err error) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.isCurrent(ticket) {
		p.logger.Debug("dropping stale failure", "token", ticket.Token, "error", err)
		return false
	}
	p.pending = 0
	p.state.Loading = false
	r := p.renderer
	lang := p.display

	code := apperrors.CodeOf(err)
	if code == apperrors.CodeDBpediaDisabled || code == apperrors.CodeLanguageDisabled {
		p.logger.Info("dbpedia refused language", "language", ticket.Request.Language, "term", ticket.Request.Term)
		p.state.HasMore = false
		p.state.Phase = PhaseDisabled
		if !ticket.Append {
			view.ReplaceResults(r.Disabled(lang))
		}
		view.SetCount(r.StatusLabel(lang, render.StatusDisabled))
		view.SetTrigger(r.LoadMore(lang, render.TriggerHidden))
		return true
	}

	p.logger.Warn("dbpedia fetch failed",
		"term", ticket.Request.Term,
		"language", ticket.Request.Language,
		"offset", ticket.Request.Offset,
		"code", string(code),
		"error", err,
	)
	if !ticket.Append {
		p.state.HasMore = false
		p.state.Phase = PhaseFailed
		view.ReplaceResults(r.Failure(lang))
		view.SetCount(r.StatusLabel(lang, render.StatusError))
		view.SetTrigger(r.LoadMore(lang, render.TriggerHidden))
		return true
	}

	p.state.Phase = PhaseShowingResults
	view.SetTrigger(r.LoadMore(lang, render.TriggerReady))
	return true
}

// Fetch runs ticket against fetcher and applies the outcome. It reports
// whether the outcome was rendered; false means the ticket went stale.
func (p *Pager) Fetch(ctx context.Context, view View, fetcher Fetcher, ticket Ticket) (rendered bool) {
	ctx, span := p.tracer.Start(ctx, "pager.fetch", trace.WithAttributes(
		attribute.String("search.term", ticket.Request.Term),
		attribute.String("search.language", ticket.Request.Language),
		attribute.Int("search.offset", ticket.Request.Offset),
		attribute.Bool("search.append", ticket.Append),
	))
	defer span.End()

	if fetcher == nil {
		return p.Reject(view, ticket, fmt.Errorf("fetcher is not configured"))
	}

	defer func() {
		if recovered := recover(); recovered != nil {
			err := fmt.Errorf("fetch panicked: %v", recovered)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			rendered = p.Reject(view, ticket, err)
		}
	}()

	page, err := fetcher.FetchPage(ctx, ticket.Request)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return p.Reject(view, ticket, err)
	}
	span.SetAttributes(attribute.Int("search.items", len(page.Items)), attribute.Bool("search.has_more", page.HasMore))
	return p.Resolve(view, ticket, page)
}

// LanguageChanged re-renders the pager's translated text for language.
//
// When the results pane is active, a term is set and language is not served
// by DBpedia, the pane is replaced by the language warning right away and any
// in-flight fetch is dropped. It reports whether that happened. It never
// starts a search; re-searching in an enabled language is the caller's call.
func (p *Pager) LanguageChanged(view View, language string, resultsActive bool) bool {
	language = normalizeLanguage(language)

	p.mu.Lock()
	defer p.mu.Unlock()

	p.display = language
	r := p.renderer

	if resultsActive && p.state.Term != "" && !result.Enabled(language) {
		p.issued++
		p.pending = 0
		p.state = State{Term: p.state.Term, Language: language, Phase: PhaseDisabled}
		p.showDisabled(view)
		return true
	}

	switch p.state.Phase {
	case PhaseIdle:
		view.ReplaceResults(r.Waiting(language))
		view.SetCount(r.StatusLabel(language, render.StatusWaiting))
	case PhaseDisabled:
		// Pages rendered before the server refused a follow-up page stay.
		if p.state.Offset == 0 {
			view.ReplaceResults(r.Disabled(language))
		}
		view.SetCount(r.StatusLabel(language, render.StatusDisabled))
		view.SetTrigger(r.LoadMore(language, render.TriggerHidden))
	case PhaseFailed:
		view.ReplaceResults(r.Failure(language))
		view.SetCount(r.StatusLabel(language, render.StatusError))
	case PhaseFetchingFirstPage:
		view.SetCount(r.StatusLabel(language, render.StatusLoading))
	default:
		if p.state.Offset == 0 && !p.state.HasMore {
			view.ReplaceResults(r.NoResults(language))
		}
		view.SetCount(r.CountLabel(language, p.state.Offset, p.state.HasMore))
		view.SetTrigger(r.LoadMore(language, triggerFor(p.state)))
	}
	return false
}

func (p *Pager) showDisabled(view View) {
	lang := p.display
	view.ReplaceResults(p.renderer.Disabled(lang))
	view.SetCount(p.renderer.StatusLabel(lang, render.StatusDisabled))
	view.SetTrigger(p.renderer.LoadMore(lang, render.TriggerHidden))
}

func (p *Pager) ticket(appendPage bool) Ticket {
	return Ticket{
		Token: p.issued,
		Request: result.PageRequest{
			Term:     p.state.Term,
			Language: p.state.Language,
			Limit:    p.pageSize,
			Offset:   p.state.Offset,
		},
		Append: appendPage,
	}
}

func (p *Pager) isCurrent(ticket Ticket) bool {
	if ticket.Token == 0 || ticket.Token != p.pending {
		return false
	}
	req := ticket.Request
	return req.Term == p.state.Term && req.Language == p.state.Language && req.Offset == p.state.Offset
}

func triggerFor(state State) render.TriggerState {
	switch {
	case state.Loading:
		return render.TriggerBusy
	case state.HasMore:
		return render.TriggerReady
	default:
		return render.TriggerHidden
	}
}

func normalizeLanguage(language string) string {
	return strings.ToLower(strings.TrimSpace(language))
}
