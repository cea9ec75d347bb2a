package devices

import (
	"log/slog"
	"net/http"

	"github.com/JaimeStill/cct/pkg/handlers"
	"github.com/JaimeStill/cct/pkg/routes"
)

// Handler provides HTTP endpoints for the device registry.
type Handler struct {
	sys    System
	logger *slog.Logger
}

// NewHandler creates a Handler for sys.
func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "devices"),
	}
}

// Routes returns the route group definition for device endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/devices",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.Rows},
			{Method: "POST", Pattern: "", Handler: h.Create},
			{Method: "GET", Pattern: "/claim-reference", Handler: h.ClaimReference},
			{Method: "POST", Pattern: "/register", Handler: h.Register},
			{Method: "POST", Pattern: "/intake", Handler: h.Intake},
			{Method: "GET", Pattern: "/{serial}", Handler: h.Find},
		},
	}
}

// Rows returns the unified device view.
func (h *Handler) Rows(w http.ResponseWriter, r *http.Request) {
	handlers.RespondJSON(w, http.StatusOK, h.sys.Rows())
}

// Find returns a registered or claim-known device by serial.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	d, err := h.sys.Find(r.PathValue("serial"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, d)
}

// Register registers a serial, answering 201 when created and 200 when the
// device was already known.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var cmd RegisterCommand
	if err := handlers.DecodeJSON(r, &cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	res, err := h.sys.Register(r.Context(), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	status := http.StatusOK
	if res.Status == ResultCreated {
		status = http.StatusCreated
	}
	handlers.RespondJSON(w, status, res)
}

// Create strictly creates a device record.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var cmd CreateCommand
	if err := handlers.DecodeJSON(r, &cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	d, err := h.sys.Create(r.Context(), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusCreated, d)
}

// Intake submits a claim-device claim.
func (h *Handler) Intake(w http.ResponseWriter, r *http.Request) {
	var cmd IntakeCommand
	if err := handlers.DecodeJSON(r, &cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	res, err := h.sys.Intake(r.Context(), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusCreated, res)
}

// ClaimReference proposes an unused claim reference for the insurer parameter.
func (h *Handler) ClaimReference(w http.ResponseWriter, r *http.Request) {
	ref, err := h.sys.GenerateClaimReference(r.URL.Query().Get("insurer"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, map[string]string{"claim_reference": ref})
}
