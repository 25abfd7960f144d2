// Package web parses search front end flags and launches the web server.
package web

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	entrypoint "github.com/louisbranch/bakery.search/internal/platform/cmd"
	"github.com/louisbranch/bakery.search/internal/platform/i18n/catalog"
	"github.com/louisbranch/bakery.search/internal/search/backend"
	"github.com/louisbranch/bakery.search/internal/services/web"
	webstorage "github.com/louisbranch/bakery.search/internal/services/web/storage"
	"github.com/louisbranch/bakery.search/internal/services/web/storage/memory"
	"github.com/louisbranch/bakery.search/internal/services/web/storage/sqlite"
)

// Config holds the web command configuration.
type Config struct {
	HTTPAddr            string        `env:"BAKERY_SEARCH_WEB_HTTP_ADDR" envDefault:"localhost:8080"`
	BackendURL          string        `env:"BAKERY_SEARCH_BACKEND_URL" envDefault:"http://localhost:5000"`
	PageSize            int           `env:"BAKERY_SEARCH_PAGE_SIZE" envDefault:"10"`
	BackendTimeout      time.Duration `env:"BAKERY_SEARCH_BACKEND_TIMEOUT" envDefault:"30s"`
	RateLimit           float64       `env:"BAKERY_SEARCH_BACKEND_RATE_LIMIT" envDefault:"0"`
	RateBurst           int           `env:"BAKERY_SEARCH_BACKEND_RATE_BURST" envDefault:"1"`
	SessionTTL          time.Duration `env:"BAKERY_SEARCH_SESSION_TTL" envDefault:"2h"`
	StateDB             string        `env:"BAKERY_SEARCH_STATE_DB"`
	LogLevel            string        `env:"BAKERY_SEARCH_LOG_LEVEL" envDefault:"info"`
	TrustForwardedProto bool          `env:"BAKERY_SEARCH_TRUST_FORWARDED_PROTO" envDefault:"false"`
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP listen address")
	fs.StringVar(&cfg.BackendURL, "backend-url", cfg.BackendURL, "Search backend base URL")
	fs.IntVar(&cfg.PageSize, "page-size", cfg.PageSize, "DBpedia results per page")
	fs.DurationVar(&cfg.BackendTimeout, "backend-timeout", cfg.BackendTimeout, "Timeout for one backend request")
	fs.StringVar(&cfg.StateDB, "state-db", cfg.StateDB, "SQLite file for session snapshots (empty keeps them in memory)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn or error")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	if cfg.PageSize <= 0 {
		return Config{}, fmt.Errorf("page size must be positive, got %d", cfg.PageSize)
	}
	return cfg, nil
}

// Run starts the search web server.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceWeb, func(ctx context.Context) error {
		logger, err := newLogger(cfg.LogLevel)
		if err != nil {
			return err
		}
		client, err := backend.New(backend.Config{
			BaseURL:   cfg.BackendURL,
			Timeout:   cfg.BackendTimeout,
			RateLimit: cfg.RateLimit,
			Burst:     cfg.RateBurst,
		})
		if err != nil {
			return fmt.Errorf("init backend client: %w", err)
		}
		snapshots, err := openSnapshots(ctx, cfg.StateDB)
		if err != nil {
			return err
		}
		bundle, err := catalog.LoadEmbedded()
		if err != nil {
			_ = snapshots.Close()
			return fmt.Errorf("load translations: %w", err)
		}

		server, err := web.NewServer(web.Config{
			HTTPAddr:            cfg.HTTPAddr,
			Backend:             client,
			Snapshots:           snapshots,
			Catalog:             bundle,
			Logger:              logger,
			PageSize:            cfg.PageSize,
			SessionTTL:          cfg.SessionTTL,
			TrustForwardedProto: cfg.TrustForwardedProto,
		})
		if err != nil {
			_ = snapshots.Close()
			return fmt.Errorf("init web server: %w", err)
		}
		defer server.Close()

		if err := server.ListenAndServe(ctx); err != nil {
			return fmt.Errorf("serve web: %w", err)
		}
		return nil
	})
}

func openSnapshots(ctx context.Context, path string) (webstorage.Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return memory.New(), nil
	}
	store, err := sqlite.Open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	return store, nil
}

func newLogger(level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", level, err)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})), nil
}
