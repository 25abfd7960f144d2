// Package errors provides structured error handling with i18n support.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Validation errors are handled locally and never reach the backend.
	CodeEmptyTerm        Code = "VALIDATION_EMPTY_TERM"
	CodeLanguageDisabled Code = "VALIDATION_LANGUAGE_DISABLED"
	CodeUnknownLanguage  Code = "VALIDATION_UNKNOWN_LANGUAGE"
	CodeUnknownPane      Code = "VALIDATION_UNKNOWN_PANE"

	// Transport errors cover network failures, non-2xx replies and malformed bodies.
	CodeTransport      Code = "TRANSPORT"
	CodeBackendStatus  Code = "TRANSPORT_STATUS"
	CodeMalformedReply Code = "TRANSPORT_MALFORMED"

	// Server-signaled errors arrive inside a successful backend reply.
	CodeDBpediaDisabled Code = "DBPEDIA_DISABLED"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"
)

// HTTPStatus maps domain codes to the status a browser-facing handler writes.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeEmptyTerm,
		CodeLanguageDisabled,
		CodeUnknownLanguage,
		CodeUnknownPane:
		return http.StatusBadRequest

	case CodeTransport,
		CodeBackendStatus,
		CodeMalformedReply:
		return http.StatusBadGateway

	// The backend answered; the language gate is a user-visible state, not a failure.
	case CodeDBpediaDisabled:
		return http.StatusOK

	case CodeNotFound:
		return http.StatusNotFound

	default:
		return http.StatusInternalServerError
	}
}

// MessageKey returns the catalog key holding the user-facing copy for the code.
func (c Code) MessageKey() string {
	switch c {
	case CodeEmptyTerm:
		return "web.search.empty_term"
	case CodeLanguageDisabled, CodeDBpediaDisabled:
		return "dbpedia.disabled"
	case CodeUnknownLanguage:
		return "web.errors.unknown_language"
	case CodeUnknownPane:
		return "web.errors.unknown_pane"
	case CodeTransport, CodeBackendStatus, CodeMalformedReply:
		return "dbpedia.error"
	case CodeNotFound:
		return "web.errors.not_found"
	default:
		return "web.errors.unknown"
	}
}

// IsValidation reports whether the code belongs to the local validation family.
func (c Code) IsValidation() bool {
	switch c {
	case CodeEmptyTerm, CodeLanguageDisabled, CodeUnknownLanguage, CodeUnknownPane:
		return true
	default:
		return false
	}
}

// IsTransport reports whether the code belongs to the transport family.
func (c Code) IsTransport() bool {
	switch c {
	case CodeTransport, CodeBackendStatus, CodeMalformedReply:
		return true
	default:
		return false
	}
}
