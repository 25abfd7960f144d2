// Package backend is the HTTP client for the external search backend.
//
// The backend owns ranking, ontology queries and DBpedia access; this package
// only speaks its JSON contract and classifies failures into the validation,
// transport and server-signaled families.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/louisbranch/bakery.search/internal/platform/errors"
	"github.com/louisbranch/bakery.search/internal/platform/timeouts"
	"github.com/louisbranch/bakery.search/internal/search/result"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"
)

const (
	// DBpediaSearchPath is the paginated DBpedia endpoint.
	DBpediaSearchPath = "/dbpedia_search"
	// LocalSearchPath is the local ontology endpoint.
	LocalSearchPath = "/local_search"

	// DefaultPageSize matches the page size the backend was designed around.
	DefaultPageSize = 10

	maxReplyBytes = 4 << 20
)

// Config configures a backend Client.
type Config struct {
	BaseURL string
	// Timeout bounds one request; zero uses timeouts.BackendRequest.
	Timeout time.Duration
	// RateLimit caps outgoing requests per second; zero disables throttling.
	RateLimit float64
	Burst     int
	// HTTPClient overrides the instrumented default client.
	HTTPClient *http.Client
}

// Client calls the search backend.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	limiter *rate.Limiter
	timeout time.Duration
}

// New validates cfg and builds a Client.
func New(cfg Config) (*Client, error) {
	raw := strings.TrimSpace(cfg.BaseURL)
	if raw == "" {
		return nil, fmt.Errorf("backend base url is required")
	}
	baseURL, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse backend base url: %w", err)
	}
	if baseURL.Scheme != "http" && baseURL.Scheme != "https" {
		return nil, fmt.Errorf("backend base url must be http or https: %q", raw)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = timeouts.BackendRequest
	}
	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	return &Client{
		baseURL: baseURL,
		http:    httpClient,
		limiter: limiter,
		timeout: timeout,
	}, nil
}

// FetchPage requests one page of DBpedia results.
//
// Blank terms and languages outside the enabled set are rejected without a
// network call.
func (c *Client) FetchPage(ctx context.Context, req result.PageRequest) (result.Page, error) {
	req.Term = strings.TrimSpace(req.Term)
	req.Language = strings.TrimSpace(req.Language)
	if req.Term == "" {
		return result.Page{}, apperrors.New(apperrors.CodeEmptyTerm, "search term is required")
	}
	if !result.Enabled(req.Language) {
		return result.Page{}, apperrors.WithMetadata(
			apperrors.CodeLanguageDisabled,
			"dbpedia search is not enabled for language "+req.Language,
			map[string]string{"language": req.Language},
		)
	}
	if req.Limit <= 0 {
		req.Limit = DefaultPageSize
	}
	if req.Offset < 0 {
		req.Offset = 0
	}

	wire, err := c.post(ctx, DBpediaSearchPath, req)
	if err != nil {
		return result.Page{}, err
	}
	return wire.Page(), nil
}

type localSearchRequest struct {
	Term     string `json:"term"`
	Language string `json:"language"`
}

// SearchLocal queries the local ontology. The local endpoint is not paginated.
func (c *Client) SearchLocal(ctx context.Context, query result.SearchQuery) ([]result.Item, error) {
	query = result.NewSearchQuery(query.Term, query.Language)
	if !query.Valid() {
		return nil, apperrors.New(apperrors.CodeEmptyTerm, "search term is required")
	}
	wire, err := c.post(ctx, LocalSearchPath, localSearchRequest{Term: query.Term, Language: query.Language})
	if err != nil {
		return nil, err
	}
	return wire.Page().Items, nil
}

func (c *Client) post(ctx context.Context, path string, payload any) (result.WirePage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return result.WirePage{}, fmt.Errorf("encode request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return result.WirePage{}, apperrors.Wrap(apperrors.CodeTransport, "wait for backend rate limit", err)
		}
	}

	endpoint := c.baseURL.JoinPath(path)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return result.WirePage{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return result.WirePage{}, apperrors.Wrap(apperrors.CodeTransport, "call backend "+path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes))
	if err != nil {
		return result.WirePage{}, apperrors.Wrap(apperrors.CodeTransport, "read backend reply", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return result.WirePage{}, apperrors.WithMetadata(
			apperrors.CodeBackendStatus,
			fmt.Sprintf("backend %s returned status %d", path, resp.StatusCode),
			map[string]string{"status": strconv.Itoa(resp.StatusCode)},
		)
	}

	wire, err := result.DecodePage(data)
	if err != nil {
		return result.WirePage{}, apperrors.Wrap(apperrors.CodeMalformedReply, "decode backend reply", err)
	}
	switch strings.TrimSpace(wire.Error) {
	case "":
		return wire, nil
	case result.ErrorDBpediaDisabled:
		return result.WirePage{}, apperrors.WithMetadata(
			apperrors.CodeDBpediaDisabled,
			"backend refused dbpedia search: "+wire.Message,
			map[string]string{"message": wire.Message},
		)
	default:
		return result.WirePage{}, apperrors.WithMetadata(
			apperrors.CodeBackendStatus,
			"backend reported error "+wire.Error,
			map[string]string{"error": wire.Error, "message": wire.Message},
		)
	}
}
