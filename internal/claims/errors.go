package claims

import (
	"errors"
	"net/http"
)

// Domain errors for claim operations.
var (
	ErrNotFound           = errors.New("claim not found")
	ErrInvalidID          = errors.New("invalid claim id")
	ErrIdentityRequired   = errors.New("imei or serial is required")
	ErrSerialRequired     = errors.New("serial number is required")
	ErrInvalidAmount      = errors.New("claim amount must not be negative")
	ErrInvalidOutcome     = errors.New("invalid claim outcome")
	ErrReferenceExhausted = errors.New("claim reference space exhausted")
)

// MapHTTPStatus maps claim domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidID),
		errors.Is(err, ErrIdentityRequired),
		errors.Is(err, ErrSerialRequired),
		errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrInvalidOutcome):
		return http.StatusBadRequest
	case errors.Is(err, ErrReferenceExhausted):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
