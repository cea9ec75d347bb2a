package api

import (
	"github.com/JaimeStill/cct/internal/config"
	"github.com/JaimeStill/cct/internal/infrastructure"
	"github.com/JaimeStill/cct/pkg/pagination"
	"github.com/JaimeStill/cct/pkg/storage"
)

// Runtime extends Infrastructure with API-specific configuration.
type Runtime struct {
	*infrastructure.Infrastructure
	Pagination    pagination.Config
	StorageConfig *storage.Config
	Schema        string
	FirstCaseID   int
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	return &Runtime{
		Infrastructure: &infrastructure.Infrastructure{
			Lifecycle: infra.Lifecycle,
			Logger:    infra.Logger.With("module", "api"),
			Events:    infra.Events,
			Metrics:   infra.Metrics,
			Database:  infra.Database,
			Storage:   infra.Storage,
		},
		Pagination:    cfg.API.Pagination,
		StorageConfig: &cfg.Storage,
		Schema:        cfg.Database.Schema,
		FirstCaseID:   cfg.Domain.FirstCaseID,
	}
}
