// Package htmx holds the request and response conventions shared by htmx
// handlers: request detection, page-or-fragment rendering, out-of-band swaps
// and client event triggers.
package htmx

import (
	"bytes"
	"context"
	"encoding/json"
	"html"
	"io"
	"net/http"
	"strings"

	"github.com/a-h/templ"
)

const (
	// ResponseHeaderKey is the HTMX request header used to detect partial updates.
	ResponseHeaderKey = "HX-Request"
	// TriggerHeaderKey carries client events raised after a response settles.
	TriggerHeaderKey = "HX-Trigger"
)

// Swap is an hx-swap-oob strategy.
type Swap string

const (
	SwapInner     Swap = "innerHTML"
	SwapOuter     Swap = "true"
	SwapBeforeEnd Swap = "beforeend"
)

// responseBuffer captures component rendering for HTMX responses.
type responseBuffer struct {
	header      http.Header
	statusCode  int
	body        bytes.Buffer
	headerWrote bool
}

func (w *responseBuffer) Header() http.Header {
	return w.header
}

func (w *responseBuffer) WriteHeader(status int) {
	if w.headerWrote {
		return
	}
	w.headerWrote = true
	w.statusCode = status
}

func (w *responseBuffer) Write(body []byte) (int, error) {
	return w.body.Write(body)
}

// IsHTMXRequest reports whether the request was initiated by HTMX.
func IsHTMXRequest(r *http.Request) bool {
	if r == nil {
		return false
	}
	return strings.EqualFold(r.Header.Get(ResponseHeaderKey), "true")
}

// TitleTag formats an escaped `<title>` element.
func TitleTag(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return ""
	}
	return "<title>" + html.EscapeString(title) + "</title>"
}

func newResponseBuffer() *responseBuffer {
	return &responseBuffer{
		header:     make(http.Header),
		statusCode: http.StatusOK,
	}
}

func addHTMXTitleIfMissing(responseBody []byte, title string) []byte {
	bodyLower := strings.ToLower(string(responseBody))
	if strings.Contains(bodyLower, "<title") {
		return responseBody
	}
	if strings.TrimSpace(title) == "" {
		return responseBody
	}
	return append([]byte(title), responseBody...)
}

func copyHeaders(dst, src http.Header) {
	for key, values := range src {
		if strings.EqualFold(key, "Set-Cookie") {
			for _, value := range values {
				dst.Add(key, value)
			}
			continue
		}
		// Single-valued headers should not accumulate duplicates when copied from
		// a temporary response buffer.
		for _, value := range values {
			dst.Set(key, value)
		}
	}
}

// RenderPage renders a page for normal or HTMX requests.
//
// fragment is used for HTMX responses while full is used for non-HTMX responses.
// If fragment is nil, full is used for both paths.
func RenderPage(w http.ResponseWriter, r *http.Request, fragment templ.Component, full templ.Component, htmxTitle string) {
	RenderPageStatus(w, r, http.StatusOK, fragment, full, htmxTitle)
}

// RenderPageStatus is RenderPage with an explicit response status.
func RenderPageStatus(w http.ResponseWriter, r *http.Request, status int, fragment templ.Component, full templ.Component, htmxTitle string) {
	if status <= 0 {
		status = http.StatusOK
	}
	if IsHTMXRequest(r) {
		target := fragment
		captureFromFull := full != nil
		if captureFromFull {
			target = full
		}
		if target == nil {
			return
		}
		capture := newResponseBuffer()
		templ.Handler(target).ServeHTTP(capture, r)

		body := capture.body.Bytes()
		if captureFromFull {
			if mainContent, ok := extractMainContent(body); ok {
				body = mainContent
			}
		}

		body = addHTMXTitleIfMissing(body, htmxTitle)
		copyHeaders(w.Header(), capture.Header())
		if !capture.headerWrote {
			capture.statusCode = status
		}
		if capture.statusCode != http.StatusOK {
			w.WriteHeader(capture.statusCode)
		}
		_, _ = w.Write(body)
		return
	}

	if full == nil {
		full = fragment
	}
	if full == nil {
		return
	}
	templ.Handler(full, templ.WithStatus(status)).ServeHTTP(w, r)
}

func extractMainContent(body []byte) ([]byte, bool) {
	start := bytes.Index(body, []byte("<main"))
	if start < 0 {
		return nil, false
	}
	openClose := bytes.Index(body[start:], []byte(">"))
	if openClose < 0 {
		return nil, false
	}
	contentStart := start + openClose + 1
	end := bytes.Index(body[contentStart:], []byte("</main>"))
	if end < 0 {
		return nil, false
	}
	return body[contentStart : contentStart+end], true
}

// OOB wraps content in an element that htmx swaps into the element with id.
//
// SwapInner and SwapBeforeEnd replace or extend the target's children.
// SwapOuter replaces the target with a div of the same id holding content.
func OOB(id string, swap Swap, content templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		id = strings.TrimSpace(id)
		if swap == SwapOuter {
			if _, err := io.WriteString(w, `<div id="`+html.EscapeString(id)+`" hx-swap-oob="true">`); err != nil {
				return err
			}
		} else {
			attr := string(swap)
			if swap == SwapBeforeEnd {
				attr += ":#" + id
				id = ""
			}
			open := `<div`
			if id != "" {
				open += ` id="` + html.EscapeString(id) + `"`
			}
			open += ` hx-swap-oob="` + html.EscapeString(attr) + `">`
			if _, err := io.WriteString(w, open); err != nil {
				return err
			}
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

// Text renders escaped text as a component.
func Text(value string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, templ.EscapeString(value))
		return err
	})
}

// Trigger adds client events to the HX-Trigger response header. Details may be
// nil for plain events; events already on the header are kept.
func Trigger(w http.ResponseWriter, event string, detail any) error {
	if w == nil || strings.TrimSpace(event) == "" {
		return nil
	}
	events := map[string]any{}
	if existing := strings.TrimSpace(w.Header().Get(TriggerHeaderKey)); existing != "" {
		if err := json.Unmarshal([]byte(existing), &events); err != nil {
			events = map[string]any{existing: nil}
		}
	}
	events[event] = detail
	encoded, err := json.Marshal(events)
	if err != nil {
		return err
	}
	w.Header().Set(TriggerHeaderKey, string(encoded))
	return nil
}
