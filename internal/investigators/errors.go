package investigators

import (
	"errors"
	"net/http"
)

// ErrNotFound is returned when no investigator has the requested id.
var ErrNotFound = errors.New("investigator not found")

// MapHTTPStatus maps investigator errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
