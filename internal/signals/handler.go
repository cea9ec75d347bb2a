package signals

import (
	"log/slog"
	"net/http"

	"github.com/JaimeStill/cct/pkg/handlers"
	"github.com/JaimeStill/cct/pkg/routes"
)

// Handler provides the risk signal endpoints.
type Handler struct {
	sys    System
	logger *slog.Logger
}

// NewHandler creates a Handler for sys.
func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "signals"),
	}
}

// Routes returns the route group definition for signal endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/signals",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "GET", Pattern: "/summary", Handler: h.Summary},
		},
	}
}

// List returns the current triage queue.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	handlers.RespondJSON(w, http.StatusOK, h.sys.View(r.Context()))
}

// Summary returns signal counts per month.
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	handlers.RespondJSON(w, http.StatusOK, SummarizeByMonth(h.sys.Generate()))
}
