package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/louisbranch/bakery.search/internal/platform/i18n/catalog"
	"github.com/louisbranch/bakery.search/internal/platform/timeouts"
	webstorage "github.com/louisbranch/bakery.search/internal/services/web/storage"
)

// Config defines the inputs for the search web server.
type Config struct {
	HTTPAddr string
	Backend  SearchBackend
	// Snapshots persists pager sessions; nil keeps sessions in memory only.
	Snapshots webstorage.Store
	Catalog   *catalog.Bundle
	Logger    *slog.Logger
	PageSize  int
	// SessionTTL is how long an idle browser session is kept.
	SessionTTL time.Duration
	// SweepInterval is how often idle sessions are dropped; zero uses SessionTTL/4.
	SweepInterval       time.Duration
	TrustForwardedProto bool
}

// Server hosts the search web HTTP server.
type Server struct {
	httpAddr      string
	httpServer    *http.Server
	handler       *handler
	snapshots     webstorage.Store
	sweepInterval time.Duration
	logger        *slog.Logger
}

// NewServer builds a configured web server.
func NewServer(config Config) (*Server, error) {
	httpAddr := strings.TrimSpace(config.HTTPAddr)
	if httpAddr == "" {
		return nil, errors.New("http address is required")
	}
	handlerConfig := HandlerConfig{
		Backend:             config.Backend,
		Snapshots:           config.Snapshots,
		Catalog:             config.Catalog,
		Logger:              config.Logger,
		PageSize:            config.PageSize,
		SessionTTL:          config.SessionTTL,
		TrustForwardedProto: config.TrustForwardedProto,
	}
	h, err := newHandler(handlerConfig)
	if err != nil {
		return nil, fmt.Errorf("init web handler: %w", err)
	}
	routes, err := h.routes(handlerConfig)
	if err != nil {
		return nil, fmt.Errorf("init web routes: %w", err)
	}

	sweepInterval := config.SweepInterval
	if sweepInterval <= 0 {
		sweepInterval = h.sessions.ttl / 4
	}
	return &Server{
		httpAddr: httpAddr,
		httpServer: &http.Server{
			Addr:              httpAddr,
			Handler:           routes,
			ReadHeaderTimeout: timeouts.ReadHeader,
		},
		handler:       h,
		snapshots:     config.Snapshots,
		sweepInterval: sweepInterval,
		logger:        h.logger,
	}, nil
}

// ListenAndServe runs the HTTP server until the context ends.
//
// On cancellation, it performs a bounded shutdown so in-flight requests
// are drained before hard close.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s == nil {
		return errors.New("web server is nil")
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go s.handler.sessions.runSweeper(sweepCtx, s.sweepInterval)

	serveErr := make(chan error, 1)
	s.logger.Info("web listening", "addr", s.httpAddr)
	go func() {
		serveErr <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		err := s.httpServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}

// Close releases the snapshot store.
func (s *Server) Close() {
	if s == nil || s.snapshots == nil {
		return
	}
	if err := s.snapshots.Close(); err != nil {
		s.logger.Warn("close session store", "error", err)
	}
}
