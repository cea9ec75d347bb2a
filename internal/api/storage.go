package api

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/JaimeStill/cct/internal/actor"
	"github.com/JaimeStill/cct/internal/audit"
	"github.com/JaimeStill/cct/pkg/events"
	"github.com/JaimeStill/cct/pkg/handlers"
	"github.com/JaimeStill/cct/pkg/routes"
	"github.com/JaimeStill/cct/pkg/storage"
)

// artifactHandler serves previously persisted export artifacts.
type artifactHandler struct {
	store  storage.System
	bus    events.System
	logger *slog.Logger
}

func newArtifactHandler(store storage.System, bus events.System, logger *slog.Logger) *artifactHandler {
	return &artifactHandler{
		store:  store,
		bus:    bus,
		logger: logger.With("handler", "artifacts"),
	}
}

func (h *artifactHandler) routes() routes.Group {
	return routes.Group{
		Prefix: "/artifacts",
		Middleware: []func(http.Handler) http.Handler{
			actor.Require(actor.CanExport, audit.DeniedRecorder(h.bus)),
		},
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/{key...}", Handler: h.download},
		},
	}
}

func (h *artifactHandler) download(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	body, err := h.store.Download(r.Context(), key)
	if err != nil {
		handlers.RespondError(w, h.logger, storage.MapHTTPStatus(err), err)
		return
	}
	defer body.Close()

	contentType := "application/json"
	if strings.HasSuffix(key, ".csv") {
		contentType = "text/csv"
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set(
		"Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", path.Base(key)),
	)
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		h.logger.Error("artifact stream failed", "key", key, "error", err)
	}
}
