package evidence

import (
	"errors"
	"net/http"
)

// ErrNoEvidence is returned by the HTTP view when no claim matches an identity.
var ErrNoEvidence = errors.New("no evidence for device")

// MapHTTPStatus maps evidence errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNoEvidence) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
