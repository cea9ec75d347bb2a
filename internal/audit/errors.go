package audit

import (
	"errors"
	"net/http"
)

// Domain errors for audit operations.
var (
	ErrNotFound      = errors.New("audit entry not found")
	ErrInvalidEntry  = errors.New("invalid audit entry")
	ErrNotReportable = errors.New("action cannot be reported by clients")
)

// MapHTTPStatus maps audit domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidEntry):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotReportable):
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}
