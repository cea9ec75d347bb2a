package evidence

import (
	"log/slog"
	"net/http"

	"github.com/JaimeStill/cct/pkg/handlers"
	"github.com/JaimeStill/cct/pkg/routes"
)

// Handler provides the evidence endpoint.
type Handler struct {
	sys    System
	logger *slog.Logger
}

// NewHandler creates a Handler for sys.
func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "evidence"),
	}
}

// Routes returns the route group definition for evidence endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/evidence",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/{identity}", Handler: h.View},
		},
	}
}

// View returns the live snapshot for an identity.
func (h *Handler) View(w http.ResponseWriter, r *http.Request) {
	s, err := h.sys.View(r.Context(), r.PathValue("identity"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, s)
}
