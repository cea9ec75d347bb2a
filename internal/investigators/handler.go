package investigators

import (
	"log/slog"
	"net/http"

	"github.com/JaimeStill/cct/pkg/handlers"
	"github.com/JaimeStill/cct/pkg/routes"
)

// Handler provides HTTP endpoints for the investigator directory.
type Handler struct {
	sys    System
	logger *slog.Logger
}

// NewHandler creates a Handler for sys.
func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "investigators"),
	}
}

// Routes returns the route group definition for investigator endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/investigators",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find},
		},
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	handlers.RespondJSON(w, http.StatusOK, h.sys.List())
}

func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	inv, err := h.sys.Find(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, inv)
}
