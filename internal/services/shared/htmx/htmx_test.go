package htmx

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type testComponent struct {
	body       string
	statusCode int
	headerKey  string
	headerVal  string
}

func (c testComponent) Render(_ context.Context, w io.Writer) error {
	if c.statusCode > 0 {
		if rw, ok := w.(http.ResponseWriter); ok {
			if c.headerKey != "" {
				rw.Header().Set(c.headerKey, c.headerVal)
			}
			rw.WriteHeader(c.statusCode)
		}
	}
	_, err := w.Write([]byte(c.body))
	return err
}

func TestIsHTMXRequest(t *testing.T) {
	t.Run("missing_request_is_not_htmx", func(t *testing.T) {
		t.Parallel()
		if got := IsHTMXRequest(nil); got {
			t.Fatalf("IsHTMXRequest(nil) = true, want false")
		}
	})

	t.Run("true_request_is_htmx", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set(ResponseHeaderKey, "true")
		if got := IsHTMXRequest(r); !got {
			t.Fatalf("IsHTMXRequest(request) = false, want true")
		}
	})
}

func TestTitleTag(t *testing.T) {
	t.Parallel()
	got := TitleTag(`Bakery <Search>`)
	want := "<title>Bakery &lt;Search&gt;</title>"
	if got != want {
		t.Fatalf("TitleTag(...) = %q, want %q", got, want)
	}
}

func TestRenderPageForNonHTMXUsesFullRender(t *testing.T) {
	t.Parallel()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	fragment := testComponent{body: "<div>fragment</div>"}
	full := testComponent{body: "<html><body>full</body></html>"}

	RenderPage(w, r, fragment, full, TitleTag("Provided"))
	if got := w.Body.String(); got != "<html><body>full</body></html>" {
		t.Fatalf("rendered body = %q, want full page body", got)
	}
}

func TestRenderPageForHTMXInjectsMissingTitle(t *testing.T) {
	t.Parallel()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set(ResponseHeaderKey, "true")
	w := httptest.NewRecorder()

	fragment := testComponent{body: "<main>fragment</main>"}
	RenderPage(w, r, fragment, nil, TitleTag("Brownie | Bakery Search"))

	got := w.Body.String()
	if !strings.HasPrefix(got, "<title>Brownie | Bakery Search</title>") {
		t.Fatalf("expected injected title prefix in HTMX response, got %q", got)
	}
	if !strings.HasSuffix(got, "<main>fragment</main>") {
		t.Fatalf("expected original fragment to remain, got %q", got)
	}
}

func TestRenderPageForHTMXPreservesExistingTitle(t *testing.T) {
	t.Parallel()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set(ResponseHeaderKey, "true")
	w := httptest.NewRecorder()

	fragment := testComponent{body: "<title>Already Set</title><main>fragment</main>"}
	RenderPage(w, r, fragment, nil, TitleTag("Injected Title"))

	got := w.Body.String()
	if !strings.Contains(got, "<title>Already Set</title>") {
		t.Fatalf("expected existing title preserved, got %q", got)
	}
	if !strings.Contains(got, "<main>fragment</main>") {
		t.Fatalf("expected fragment body preserved, got %q", got)
	}
}

func TestRenderPageForHTMXNoInjectedTitleWhenMissing(t *testing.T) {
	t.Parallel()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set(ResponseHeaderKey, "true")
	w := httptest.NewRecorder()

	fragment := testComponent{
		body: "<main>fragment</main>",
	}
	RenderPage(w, r, fragment, nil, "")

	got := w.Body.String()
	if got != "<main>fragment</main>" {
		t.Fatalf("rendered body = %q, want %q", got, "<main>fragment</main>")
	}
}

func TestCopyHeadersUsesSingleValueSemanticsForNonSetCookie(t *testing.T) {
	t.Parallel()
	dst := http.Header{}
	src := http.Header{}
	src.Add("Content-Type", "text/plain")
	src.Add("Content-Type", "text/html; charset=utf-8")
	src.Add("Set-Cookie", "id=1")
	src.Add("Set-Cookie", "token=abc")

	copyHeaders(dst, src)

	contentType := dst.Values("Content-Type")
	if len(contentType) != 1 {
		t.Fatalf("expected one Content-Type value, got %v", contentType)
	}
	if got := contentType[0]; got != "text/html; charset=utf-8" {
		t.Fatalf("content-type = %q, want %q", got, "text/html; charset=utf-8")
	}
	cookies := dst.Values("Set-Cookie")
	if len(cookies) != 2 {
		t.Fatalf("expected two Set-Cookie values, got %v", cookies)
	}
}

func renderString(t *testing.T, c interface {
	Render(context.Context, io.Writer) error
}) string {
	t.Helper()
	var buf bytes.Buffer
	if err := c.Render(context.Background(), &buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	return buf.String()
}

func TestOOB(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		id   string
		swap Swap
		want string
	}{
		{
			name: "inner",
			id:   "dbpedia-count",
			swap: SwapInner,
			want: `<div id="dbpedia-count" hx-swap-oob="innerHTML">3+ &lt;b&gt;</div>`,
		},
		{
			name: "before end",
			id:   "dbpedia-results-grid",
			swap: SwapBeforeEnd,
			want: `<div hx-swap-oob="beforeend:#dbpedia-results-grid">3+ &lt;b&gt;</div>`,
		},
		{
			name: "outer",
			id:   "tab-bar",
			swap: SwapOuter,
			want: `<div id="tab-bar" hx-swap-oob="true">3+ &lt;b&gt;</div>`,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := renderString(t, OOB(tc.id, tc.swap, Text("3+ <b>")))
			if got != tc.want {
				t.Fatalf("OOB = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestOOBWithoutContentRendersEmptyTarget(t *testing.T) {
	t.Parallel()
	got := renderString(t, OOB("dbpedia-more", SwapInner, nil))
	if got != `<div id="dbpedia-more" hx-swap-oob="innerHTML"></div>` {
		t.Fatalf("OOB = %q", got)
	}
}

func TestTriggerMergesEvents(t *testing.T) {
	t.Parallel()
	w := httptest.NewRecorder()
	if err := Trigger(w, "tab-activated", map[string]string{"pane": "dbpedia"}); err != nil {
		t.Fatalf("Trigger: %v", err)
	}
	if err := Trigger(w, "language-changed", "en"); err != nil {
		t.Fatalf("Trigger: %v", err)
	}

	var events map[string]any
	if err := json.Unmarshal([]byte(w.Header().Get(TriggerHeaderKey)), &events); err != nil {
		t.Fatalf("decode header: %v", err)
	}
	if events["language-changed"] != "en" {
		t.Fatalf("language-changed = %v", events["language-changed"])
	}
	detail, ok := events["tab-activated"].(map[string]any)
	if !ok || detail["pane"] != "dbpedia" {
		t.Fatalf("tab-activated = %v", events["tab-activated"])
	}
}

func TestTriggerKeepsPlainExistingEvent(t *testing.T) {
	t.Parallel()
	w := httptest.NewRecorder()
	w.Header().Set(TriggerHeaderKey, "refresh")
	if err := Trigger(w, "tab-activated", nil); err != nil {
		t.Fatalf("Trigger: %v", err)
	}
	got := w.Header().Get(TriggerHeaderKey)
	if !strings.Contains(got, `"refresh":null`) || !strings.Contains(got, `"tab-activated":null`) {
		t.Fatalf("header = %q", got)
	}
}

func TestRenderPageStatus(t *testing.T) {
	t.Parallel()

	full := testComponent{body: `<html><body><main id="m"><p>bad</p></main></body></html>`}

	t.Run("full_page", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodPost, "/", nil)
		w := httptest.NewRecorder()
		RenderPageStatus(w, r, http.StatusBadRequest, nil, full, "")
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})

	t.Run("htmx_fragment", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodPost, "/", nil)
		r.Header.Set(ResponseHeaderKey, "true")
		w := httptest.NewRecorder()
		RenderPageStatus(w, r, http.StatusBadRequest, nil, full, "")
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
		}
		if got := w.Body.String(); got != "<p>bad</p>" {
			t.Fatalf("body = %q, want main content", got)
		}
	})
}
