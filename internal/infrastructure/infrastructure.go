// Package infrastructure provides core service initialization for application startup.
// It assembles common dependencies (logging, events, metrics, database, storage)
// that domain systems require.
package infrastructure

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/JaimeStill/cct/internal/config"
	"github.com/JaimeStill/cct/internal/metrics"
	"github.com/JaimeStill/cct/pkg/database"
	"github.com/JaimeStill/cct/pkg/events"
	"github.com/JaimeStill/cct/pkg/lifecycle"
	"github.com/JaimeStill/cct/pkg/storage"
)

// Infrastructure holds the core systems required by all domain modules.
// Database is nil unless the audit log is durable. Storage is nil unless
// export persistence is enabled.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Events    events.System
	Metrics   *metrics.Collector
	Database  database.System
	Storage   storage.System
}

// New creates an Infrastructure from the application configuration.
// It initializes all systems but does not start them; call Start separately.
func New(cfg *config.Config) (*Infrastructure, error) {
	lc := lifecycle.New()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	collector := metrics.New()
	bus := events.New(logger)
	bus.Subscribe(collector.Subscriber())

	infra := &Infrastructure{
		Lifecycle: lc,
		Logger:    logger,
		Events:    bus,
		Metrics:   collector,
	}

	if cfg.Audit.Durable() {
		db, err := database.New(&cfg.Database, logger)
		if err != nil {
			return nil, fmt.Errorf("database init failed: %w", err)
		}
		infra.Database = db
	}

	if cfg.Storage.Enabled {
		store, err := storage.New(&cfg.Storage, logger)
		if err != nil {
			return nil, fmt.Errorf("storage init failed: %w", err)
		}
		infra.Storage = store
	}

	return infra, nil
}

// Start registers the configured systems with the lifecycle coordinator.
func (i *Infrastructure) Start() error {
	if i.Database != nil {
		if err := i.Database.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("database start failed: %w", err)
		}
	}
	if i.Storage != nil {
		if err := i.Storage.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("storage start failed: %w", err)
		}
	}
	return nil
}
