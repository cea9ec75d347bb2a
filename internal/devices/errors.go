package devices

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/cct/internal/claims"
)

// Domain errors for device registry operations.
var (
	ErrNotFound              = errors.New("device not found")
	ErrDuplicate             = errors.New("device already exists")
	ErrSerialRequired        = errors.New("serial number is required")
	ErrDeviceDetailsRequired = errors.New("device category, brand, model, and age are required for new devices")
	ErrClaimFieldsRequired   = errors.New("insurer, loss type, date of loss, and outcome are required")
)

// MapHTTPStatus maps registry errors, and ledger errors surfaced by intake,
// to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrSerialRequired),
		errors.Is(err, ErrDeviceDetailsRequired),
		errors.Is(err, ErrClaimFieldsRequired):
		return http.StatusBadRequest
	}
	return claims.MapHTTPStatus(err)
}
