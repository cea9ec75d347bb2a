// Package api assembles the API module with all domain systems and route registration.
package api

import (
	"net/http"

	"github.com/JaimeStill/cct/internal/actor"
	"github.com/JaimeStill/cct/internal/config"
	"github.com/JaimeStill/cct/internal/infrastructure"
	"github.com/JaimeStill/cct/pkg/middleware"
	"github.com/JaimeStill/cct/pkg/module"
)

// NewModule creates the API module with all domain handlers and middleware.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime := NewRuntime(cfg, infra)
	domain := NewDomain(runtime)

	mux := http.NewServeMux()
	registerRoutes(mux, domain, runtime)

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Logger(runtime.Logger))
	m.Use(runtime.Metrics.Middleware())
	m.Use(middleware.MaxBytes(cfg.API.MaxBodySizeBytes()))
	m.Use(actor.Middleware())

	return m, nil
}
