package web

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/louisbranch/bakery.search/internal/platform/i18n/catalog"
	"github.com/louisbranch/bakery.search/internal/platform/timeouts"
	"github.com/louisbranch/bakery.search/internal/search/backend"
	"github.com/louisbranch/bakery.search/internal/search/pager"
	"github.com/louisbranch/bakery.search/internal/search/render"
	"github.com/louisbranch/bakery.search/internal/search/result"
	"github.com/louisbranch/bakery.search/internal/services/shared/htmx"
	"github.com/louisbranch/bakery.search/internal/services/shared/i18nhttp"
	"github.com/louisbranch/bakery.search/internal/services/shared/route"
	"github.com/louisbranch/bakery.search/internal/services/web/platform/httpx"
	"github.com/louisbranch/bakery.search/internal/services/web/platform/requestmeta"
	"github.com/louisbranch/bakery.search/internal/services/web/platform/weberror"
	"github.com/louisbranch/bakery.search/internal/services/web/static"
	webstorage "github.com/louisbranch/bakery.search/internal/services/web/storage"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// SearchBackend is the search service the web handlers call.
type SearchBackend interface {
	pager.Fetcher
	SearchLocal(ctx context.Context, query result.SearchQuery) ([]result.Item, error)
}

// HandlerConfig wires the web handler.
type HandlerConfig struct {
	Backend   SearchBackend
	Snapshots webstorage.Store
	Catalog   *catalog.Bundle
	Logger    *slog.Logger
	// PageSize is the DBpedia page size; zero uses backend.DefaultPageSize.
	PageSize int
	// SessionTTL is how long an idle browser session is kept.
	SessionTTL          time.Duration
	TrustForwardedProto bool
}

type handler struct {
	backend  SearchBackend
	catalog  *catalog.Bundle
	renderer *render.Renderer
	sessions *sessionStore
	logger   *slog.Logger
}

var subStaticFS = func() (fs.FS, error) {
	return static.FS, nil
}

// NewHandler builds the search page HTTP handler.
func NewHandler(cfg HandlerConfig) (http.Handler, error) {
	h, err := newHandler(cfg)
	if err != nil {
		return nil, err
	}
	return h.routes(cfg)
}

func newHandler(cfg HandlerConfig) (*handler, error) {
	if cfg.Backend == nil {
		return nil, fmt.Errorf("search backend is required")
	}
	bundle := cfg.Catalog
	if bundle == nil {
		bundle = catalog.Default()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = backend.DefaultPageSize
	}
	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = timeouts.SessionIdle
	}

	renderer := render.New(bundle)
	sessions := newSessionStore(cfg.Snapshots, renderer, pageSize, ttl, logger)
	policy := requestmeta.SchemePolicy{TrustForwardedProto: cfg.TrustForwardedProto}
	sessions.policy = policy

	return &handler{
		backend:  cfg.Backend,
		catalog:  bundle,
		renderer: renderer,
		sessions: sessions,
		logger:   logger,
	}, nil
}

func (h *handler) routes(cfg HandlerConfig) (http.Handler, error) {
	staticFS, err := subStaticFS()
	if err != nil {
		return nil, fmt.Errorf("resolve static assets: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))
	mux.HandleFunc("GET /healthz", h.handleHealth)
	mux.HandleFunc("GET /{$}", h.handleIndex)
	mux.HandleFunc("POST /{$}", h.handleSearch)
	mux.HandleFunc("POST /dbpedia/search", h.handleDBpediaSearch)
	mux.HandleFunc("POST /dbpedia/fetch", h.handleDBpediaFetch)
	mux.HandleFunc("POST /dbpedia/more", h.handleDBpediaMore)
	mux.HandleFunc("POST /tabs/{id}", h.handleTab)
	mux.HandleFunc("POST /lang/{code}", h.handleLanguage)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if route.RedirectTrailingSlash(w, r) {
			return
		}
		weberror.WriteNotFound(w, r, h.catalog, i18nhttp.ResolveLanguage(w, r))
	})

	policy := requestmeta.SchemePolicy{TrustForwardedProto: cfg.TrustForwardedProto}
	chained := httpx.Chain(mux,
		httpx.RequestID(),
		httpx.AccessLog(h.logger),
		httpx.RecoverPanic(h.logger),
		httpx.RequireSameOrigin(policy),
	)
	return otelhttp.NewHandler(chained, "bakery-search-web"), nil
}

func (h *handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	_ = httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeFragment sends view as out-of-band swaps.
func (h *handler) writeFragment(w http.ResponseWriter, r *http.Request, view *fragmentView) {
	view.write(w, r)
}

// renderPage writes the full page, or its <main> content for htmx requests.
func (h *handler) renderPage(w http.ResponseWriter, r *http.Request, status int, data pageData) {
	full := h.page(data)
	htmx.RenderPageStatus(w, r, status, nil, full, htmx.TitleTag(h.pageTitle(data.Lang, data.Term)))
}
