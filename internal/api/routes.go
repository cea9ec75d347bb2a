package api

import (
	"net/http"

	"github.com/JaimeStill/cct/pkg/routes"
)

func registerRoutes(mux *http.ServeMux, domain *Domain, runtime *Runtime) {
	groups := []routes.Group{
		domain.Claims.Handler().Routes(),
		domain.Devices.Handler().Routes(),
		domain.Evidence.Handler().Routes(),
		domain.Signals.Handler().Routes(),
		domain.Cases.Handler().Routes(),
		domain.Investigators.Handler().Routes(),
		domain.Audit.Handler().Routes(),
		domain.Export.Handler().Routes(),
	}
	if runtime.Storage != nil {
		groups = append(groups, newArtifactHandler(runtime.Storage, runtime.Events, runtime.Logger).routes())
	}
	routes.Register(mux, groups...)
}
