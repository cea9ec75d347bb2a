package cases

import (
	"errors"
	"net/http"
)

// Domain errors for case operations.
var (
	ErrNotFound              = errors.New("case not found")
	ErrNoteNotFound          = errors.New("note not found")
	ErrNoEvidence            = errors.New("no evidence for identity")
	ErrInvalidTransition     = errors.New("invalid status transition")
	ErrCaseClosed            = errors.New("case is closed")
	ErrForbidden             = errors.New("operation not permitted for role")
	ErrVersionConflict       = errors.New("case was modified concurrently")
	ErrIdentityRequired      = errors.New("device identity is required")
	ErrContentRequired       = errors.New("note content is required")
	ErrJustificationRequired = errors.New("justification is required")
	ErrOutcomeRequired       = errors.New("closure outcome is required")
	ErrReasonRequired        = errors.New("reopen reason is required")
	ErrInvalidStatus         = errors.New("invalid case status")
	ErrInvalidRiskLevel      = errors.New("invalid risk level")
	ErrUnknownInvestigator   = errors.New("unknown investigator")
	ErrUnknownClaim          = errors.New("unknown claim")
	ErrInvalidNoteID         = errors.New("invalid note id")
	ErrInvalidVersion        = errors.New("invalid expected version")
	ErrCloseViaStatus        = errors.New("cases are closed through the close endpoint")
)

// MapHTTPStatus maps case domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrNoteNotFound),
		errors.Is(err, ErrNoEvidence):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrCaseClosed),
		errors.Is(err, ErrVersionConflict):
		return http.StatusConflict
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrIdentityRequired),
		errors.Is(err, ErrContentRequired),
		errors.Is(err, ErrJustificationRequired),
		errors.Is(err, ErrOutcomeRequired),
		errors.Is(err, ErrReasonRequired),
		errors.Is(err, ErrInvalidStatus),
		errors.Is(err, ErrInvalidRiskLevel),
		errors.Is(err, ErrUnknownInvestigator),
		errors.Is(err, ErrUnknownClaim),
		errors.Is(err, ErrInvalidNoteID),
		errors.Is(err, ErrInvalidVersion),
		errors.Is(err, ErrCloseViaStatus):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
