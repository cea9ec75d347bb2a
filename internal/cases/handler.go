package cases

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/JaimeStill/cct/internal/actor"
	"github.com/JaimeStill/cct/internal/audit"
	"github.com/JaimeStill/cct/pkg/events"
	"github.com/JaimeStill/cct/pkg/handlers"
	"github.com/JaimeStill/cct/pkg/pagination"
	"github.com/JaimeStill/cct/pkg/routes"
)

// Handler provides HTTP endpoints for case management. Role-gated routes
// record a PERMISSION_DENIED audit entry when the actor's role is refused.
type Handler struct {
	sys        System
	bus        events.System
	logger     *slog.Logger
	pagination pagination.Config
}

// NewHandler creates a Handler with the given system, event bus, logger, and pagination config.
func NewHandler(sys System, bus events.System, logger *slog.Logger, pagination pagination.Config) *Handler {
	return &Handler{
		sys:        sys,
		bus:        bus,
		logger:     logger.With("handler", "cases"),
		pagination: pagination,
	}
}

func (h *Handler) require(allowed func(actor.Role) bool) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{actor.Require(allowed, audit.DeniedRecorder(h.bus))}
}

// Routes returns the route group definition for case endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/cases",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find},
			{Method: "GET", Pattern: "/{id}/capabilities", Handler: h.Capabilities},
		},
		Children: []routes.Group{
			{
				Middleware: h.require(actor.CanOpen),
				Routes: []routes.Route{
					{Method: "POST", Pattern: "", Handler: h.Create},
					{Method: "POST", Pattern: "/from-evidence", Handler: h.OpenFromEvidence},
				},
			},
			{
				Middleware: h.require(actor.CanNote),
				Routes: []routes.Route{
					{Method: "POST", Pattern: "/{id}/status", Handler: h.ChangeStatus},
					{Method: "POST", Pattern: "/{id}/notes", Handler: h.AddNote},
					{Method: "PUT", Pattern: "/{id}/notes/{noteId}", Handler: h.EditNote},
					{Method: "DELETE", Pattern: "/{id}/notes/{noteId}", Handler: h.DeleteNote},
					{Method: "POST", Pattern: "/{id}/risk", Handler: h.SetRiskLevel},
					{Method: "POST", Pattern: "/{id}/claims", Handler: h.LinkClaim},
					{Method: "POST", Pattern: "/{id}/devices", Handler: h.LinkDevice},
				},
			},
			{
				Middleware: h.require(actor.CanClose),
				Routes: []routes.Route{
					{Method: "POST", Pattern: "/{id}/close", Handler: h.Close},
				},
			},
			{
				Middleware: h.require(actor.CanAssign),
				Routes: []routes.Route{
					{Method: "POST", Pattern: "/{id}/assign", Handler: h.Assign},
				},
			},
			{
				Middleware: h.require(actor.CanReopen),
				Routes: []routes.Route{
					{Method: "POST", Pattern: "/{id}/reopen", Handler: h.Reopen},
				},
			},
		},
	}
}

// List returns a page of cases, newest first unless sort is given.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	filters := FiltersFromQuery(r.URL.Query())
	handlers.RespondJSON(w, http.StatusOK, h.sys.List(page, filters))
}

// Find returns a single case by id.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	c, err := h.sys.Find(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, c)
}

// Capabilities returns what the requesting actor may do with a case.
func (h *Handler) Capabilities(w http.ResponseWriter, r *http.Request) {
	role := actor.FromContext(r.Context()).Role
	caps, err := h.sys.Capabilities(role, r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, caps)
}

// Create opens a case manually.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var cmd CreateCommand
	if !h.decode(w, r, &cmd) {
		return
	}
	c, err := h.sys.Create(r.Context(), cmd)
	h.respond(w, http.StatusCreated, c, err)
}

// OpenFromEvidence opens a case with a frozen duplicate-evidence snapshot.
func (h *Handler) OpenFromEvidence(w http.ResponseWriter, r *http.Request) {
	var cmd OpenFromEvidenceCommand
	if !h.decode(w, r, &cmd) {
		return
	}
	c, err := h.sys.OpenFromEvidence(r.Context(), cmd)
	h.respond(w, http.StatusCreated, c, err)
}

// ChangeStatus moves a case along the status graph. Closing requires the
// close endpoint so an outcome and justification are always recorded.
func (h *Handler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	var cmd StatusCommand
	if !h.decode(w, r, &cmd) {
		return
	}
	if cmd.Status == StatusClosed {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrCloseViaStatus)
		return
	}
	c, err := h.sys.ChangeStatus(r.Context(), r.PathValue("id"), cmd)
	h.respond(w, http.StatusOK, c, err)
}

// Assign sets or clears the case investigator.
func (h *Handler) Assign(w http.ResponseWriter, r *http.Request) {
	var cmd AssignCommand
	if !h.decode(w, r, &cmd) {
		return
	}
	c, err := h.sys.Assign(r.Context(), r.PathValue("id"), cmd)
	h.respond(w, http.StatusOK, c, err)
}

// AddNote appends a note to an active case.
func (h *Handler) AddNote(w http.ResponseWriter, r *http.Request) {
	var cmd NoteCommand
	if !h.decode(w, r, &cmd) {
		return
	}
	c, err := h.sys.AddNote(r.Context(), r.PathValue("id"), cmd)
	h.respond(w, http.StatusCreated, c, err)
}

// EditNote replaces the content of a note.
func (h *Handler) EditNote(w http.ResponseWriter, r *http.Request) {
	noteID, ok := h.noteID(w, r)
	if !ok {
		return
	}
	var cmd NoteCommand
	if !h.decode(w, r, &cmd) {
		return
	}
	c, err := h.sys.EditNote(r.Context(), r.PathValue("id"), noteID, cmd)
	h.respond(w, http.StatusOK, c, err)
}

// DeleteNote removes a note. The expected version is read from the version
// query parameter.
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	noteID, ok := h.noteID(w, r)
	if !ok {
		return
	}

	version := 0
	if v := r.URL.Query().Get("version"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidVersion)
			return
		}
		version = n
	}

	c, err := h.sys.DeleteNote(r.Context(), r.PathValue("id"), noteID, version)
	h.respond(w, http.StatusOK, c, err)
}

// SetRiskLevel changes the case risk level.
func (h *Handler) SetRiskLevel(w http.ResponseWriter, r *http.Request) {
	var cmd RiskCommand
	if !h.decode(w, r, &cmd) {
		return
	}
	c, err := h.sys.SetRiskLevel(r.Context(), r.PathValue("id"), cmd)
	h.respond(w, http.StatusOK, c, err)
}

// LinkClaim links a ledger claim to the case.
func (h *Handler) LinkClaim(w http.ResponseWriter, r *http.Request) {
	var cmd LinkClaimCommand
	if !h.decode(w, r, &cmd) {
		return
	}
	c, err := h.sys.LinkClaim(r.Context(), r.PathValue("id"), cmd)
	h.respond(w, http.StatusOK, c, err)
}

// LinkDevice links a device identity to the case.
func (h *Handler) LinkDevice(w http.ResponseWriter, r *http.Request) {
	var cmd LinkDeviceCommand
	if !h.decode(w, r, &cmd) {
		return
	}
	c, err := h.sys.LinkDevice(r.Context(), r.PathValue("id"), cmd)
	h.respond(w, http.StatusOK, c, err)
}

// Close closes a case with an outcome and justification.
func (h *Handler) Close(w http.ResponseWriter, r *http.Request) {
	var cmd CloseCommand
	if !h.decode(w, r, &cmd) {
		return
	}
	c, err := h.sys.Close(r.Context(), r.PathValue("id"), cmd)
	h.respond(w, http.StatusOK, c, err)
}

// Reopen returns a closed case to review.
func (h *Handler) Reopen(w http.ResponseWriter, r *http.Request) {
	var cmd ReopenCommand
	if !h.decode(w, r, &cmd) {
		return
	}
	c, err := h.sys.Reopen(r.Context(), r.PathValue("id"), cmd)
	h.respond(w, http.StatusOK, c, err)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := handlers.DecodeJSON(r, v); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return false
	}
	return true
}

func (h *Handler) noteID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("noteId"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidNoteID)
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) respond(w http.ResponseWriter, status int, c *Case, err error) {
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, status, c)
}
