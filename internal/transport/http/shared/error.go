package shared

import (
	"errors"
	"net/http"

	respond "medgate/internal/transport/http/json"
	dErrors "medgate/pkg/domain-errors"
)

// WriteError centralizes domain error translation to HTTP responses.
// It translates transport-agnostic domain errors into status codes and the
// shared response envelope, never leaking wrapped causes to the caller.
func WriteError(w http.ResponseWriter, err error) {
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		status := CodeToHTTPStatus(domainErr.Code)
		msg := domainErr.Message
		if msg == "" {
			msg = string(domainErr.Code)
		}
		respond.WriteMessage(w, status, msg)
		return
	}

	respond.WriteMessage(w, http.StatusInternalServerError, string(dErrors.CodeInternal))
}

// CodeToHTTPStatus translates domain error codes to HTTP status codes.
func CodeToHTTPStatus(code dErrors.Code) int {
	switch code {
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeBadRequest, dErrors.CodeValidation, dErrors.CodeInvariantViolation:
		return http.StatusBadRequest
	case dErrors.CodeConflict:
		return http.StatusConflict
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeForbidden:
		return http.StatusForbidden
	case dErrors.CodeTimeout, dErrors.CodeTransport:
		return http.StatusGatewayTimeout
	case dErrors.CodeStorage, dErrors.CodeAuditWrite, dErrors.CodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
