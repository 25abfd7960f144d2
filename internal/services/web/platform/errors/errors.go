// Package errors maps domain failures onto HTTP responses for the web service.
package errors

import (
	stderrors "errors"
	"net/http"

	apperrors "github.com/louisbranch/bakery.search/internal/platform/errors"
)

// HTTPStatus maps an error to an HTTP status code. Errors without a domain
// code map to 500.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var appErr *apperrors.Error
	if !stderrors.As(err, &appErr) {
		return http.StatusInternalServerError
	}
	return appErr.Code.HTTPStatus()
}

// LocalizationKey returns the catalog key describing err to a user.
func LocalizationKey(err error) string {
	if err == nil {
		return ""
	}
	return apperrors.CodeOf(err).MessageKey()
}

// IsClientError reports whether err was caused by the request itself.
func IsClientError(err error) bool {
	status := HTTPStatus(err)
	return status >= http.StatusBadRequest && status < http.StatusInternalServerError
}
