package export

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/cct/internal/cases"
)

// ErrUploadFailed indicates an artifact could not be persisted.
var ErrUploadFailed = errors.New("export upload failed")

// MapHTTPStatus maps export errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrUploadFailed) {
		return http.StatusBadGateway
	}
	return cases.MapHTTPStatus(err)
}
