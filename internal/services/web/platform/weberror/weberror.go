// Package weberror renders localized error responses for the web service.
package weberror

import (
	"net/http"
	"strings"

	"github.com/a-h/templ"
	apperrors "github.com/louisbranch/bakery.search/internal/platform/errors"
	weberrors "github.com/louisbranch/bakery.search/internal/services/web/platform/errors"
	"github.com/louisbranch/bakery.search/internal/services/web/platform/httpx"
)

// Localizer resolves translated copy.
type Localizer interface {
	Lookup(key string, lang string) string
}

// ShouldRenderPage reports whether status gets a full error page rather than
// an inline message.
func ShouldRenderPage(statusCode int) bool {
	return statusCode == http.StatusNotFound || statusCode >= http.StatusInternalServerError
}

// PublicMessage resolves a user-safe localized message for err. Raw error
// text never reaches the browser.
func PublicMessage(loc Localizer, lang string, err error) string {
	if err == nil {
		return ""
	}
	if loc != nil {
		if key := weberrors.LocalizationKey(err); key != "" {
			if localized := strings.TrimSpace(loc.Lookup(key, lang)); localized != "" && localized != key {
				return localized
			}
		}
	}
	statusCode := weberrors.HTTPStatus(err)
	if statusCode < http.StatusBadRequest {
		statusCode = http.StatusInternalServerError
	}
	return http.StatusText(statusCode)
}

// WriteError writes err as an inline alert, or as an error page when its
// status calls for one.
func WriteError(w http.ResponseWriter, r *http.Request, loc Localizer, lang string, err error) {
	if w == nil || err == nil {
		return
	}
	statusCode := weberrors.HTTPStatus(err)
	message := PublicMessage(loc, lang, err)
	if ShouldRenderPage(statusCode) {
		writePage(w, r, statusCode, lang, message)
		return
	}
	_ = httpx.WriteHTML(w, statusCode, `<p class="form-error" role="alert">`+templ.EscapeString(message)+`</p>`)
}

// WriteNotFound writes the localized not-found page.
func WriteNotFound(w http.ResponseWriter, r *http.Request, loc Localizer, lang string) {
	WriteError(w, r, loc, lang, apperrors.New(apperrors.CodeNotFound, "route not found"))
}

func writePage(w http.ResponseWriter, r *http.Request, statusCode int, lang, message string) {
	state := `<section id="app-error-state" class="error-page"><h1>` + templ.EscapeString(http.StatusText(statusCode)) +
		`</h1><p>` + templ.EscapeString(message) + `</p><p><a href="/">↩</a></p></section>`
	if r != nil && r.Header.Get("HX-Request") == "true" {
		_ = httpx.WriteHTML(w, statusCode, state)
		return
	}
	_ = httpx.WriteHTML(w, statusCode, `<!DOCTYPE html><html lang="`+templ.EscapeString(lang)+`"><head><meta charset="utf-8">`+
		`<title>`+templ.EscapeString(message)+`</title><link rel="stylesheet" href="/static/app.css"></head>`+
		`<body><main id="app-main">`+state+`</main></body></html>`)
}
