package export

import (
	"log/slog"
	"net/http"

	"github.com/JaimeStill/cct/internal/actor"
	"github.com/JaimeStill/cct/internal/audit"
	"github.com/JaimeStill/cct/pkg/events"
	"github.com/JaimeStill/cct/pkg/handlers"
	"github.com/JaimeStill/cct/pkg/routes"
)

// Handler provides HTTP endpoints for compliance exports.
type Handler struct {
	sys    System
	bus    events.System
	logger *slog.Logger
}

// NewHandler creates a Handler with the given system, event bus, and logger.
func NewHandler(sys System, bus events.System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		bus:    bus,
		logger: logger.With("handler", "export"),
	}
}

// Routes returns the route group definition for export endpoints. Every
// export requires a manager or admin.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/exports",
		Middleware: []func(http.Handler) http.Handler{
			actor.Require(actor.CanExport, audit.DeniedRecorder(h.bus)),
		},
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/cases/{id}", Handler: h.Case},
			{Method: "GET", Pattern: "/audit", Handler: h.Audit},
		},
	}
}

// Case returns the compliance bundle for a case. With format=csv only the
// audit trail is returned, as CSV.
func (h *Handler) Case(w http.ResponseWriter, r *http.Request) {
	report, err := h.sys.CaseReport(r.Context(), r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	if r.URL.Query().Get("format") == "csv" {
		h.respondCSV(w, report.Trail)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, report)
}

// Audit returns audit entries matching the query filters.
func (h *Handler) Audit(w http.ResponseWriter, r *http.Request) {
	report, err := h.sys.AuditReport(r.Context(), audit.FiltersFromQuery(r.URL.Query()))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	if r.URL.Query().Get("format") == "csv" {
		h.respondCSV(w, report.Entries)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, report)
}

func (h *Handler) respondCSV(w http.ResponseWriter, entries []audit.Entry) {
	w.Header().Set("Content-Type", "text/csv")
	w.WriteHeader(http.StatusOK)
	if err := WriteTrailCSV(w, entries); err != nil {
		h.logger.Error("write csv failed", "error", err)
	}
}
