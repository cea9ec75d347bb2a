package audit

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/JaimeStill/cct/internal/actor"
	"github.com/JaimeStill/cct/pkg/handlers"
	"github.com/JaimeStill/cct/pkg/pagination"
	"github.com/JaimeStill/cct/pkg/routes"
)

// Handler provides HTTP endpoints for reading the audit log and for
// client-reported events such as searches and sign-ins.
type Handler struct {
	sys        System
	logger     *slog.Logger
	pagination pagination.Config
}

// SearchRequest combines pagination and filter criteria for the search endpoint.
type SearchRequest struct {
	pagination.PageRequest
	Filters
}

// ReportRequest is the body of a client-reported audit event.
// The actor is always taken from the request identity, never from the body.
type ReportRequest struct {
	Action  Action         `json:"action"`
	Target  string         `json:"target"`
	Outcome Outcome        `json:"outcome"`
	Context string         `json:"context"`
	Details map[string]any `json:"details,omitempty"`
}

// NewHandler creates a Handler with the given system, logger, and pagination config.
func NewHandler(sys System, logger *slog.Logger, pagination pagination.Config) *Handler {
	return &Handler{
		sys:        sys,
		logger:     logger.With("handler", "audit"),
		pagination: pagination,
	}
}

// Routes returns the route group definition for audit endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/audit",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find},
			{Method: "POST", Pattern: "", Handler: h.Report},
			{Method: "POST", Pattern: "/search", Handler: h.Search},
		},
	}
}

// List returns a page of entries, newest first unless sort is given.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	filters := FiltersFromQuery(r.URL.Query())

	result, err := h.sys.List(r.Context(), page, filters)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Find returns a single entry by its UUID.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidEntry)
		return
	}

	e, err := h.sys.Find(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, e)
}

// Search accepts pagination and filters as a JSON body.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	req.PageRequest.Normalize(h.pagination)

	result, err := h.sys.List(r.Context(), req.PageRequest, req.Filters)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Report records a client-originated event.
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	var req ReportRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	if !req.Action.ClientReportable() {
		handlers.RespondError(w, h.logger, MapHTTPStatus(ErrNotReportable), ErrNotReportable)
		return
	}

	a := actor.FromContext(r.Context())
	e, err := h.sys.Write(r.Context(), WriteCommand{
		Action:    req.Action,
		Target:    req.Target,
		Outcome:   req.Outcome,
		Actor:     a.ID,
		ActorRole: string(a.Role),
		Context:   req.Context,
		Details:   req.Details,
	})
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusAccepted, e)
}
