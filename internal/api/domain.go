package api

import (
	"github.com/JaimeStill/cct/internal/audit"
	"github.com/JaimeStill/cct/internal/cases"
	"github.com/JaimeStill/cct/internal/claims"
	"github.com/JaimeStill/cct/internal/devices"
	"github.com/JaimeStill/cct/internal/evidence"
	"github.com/JaimeStill/cct/internal/export"
	"github.com/JaimeStill/cct/internal/investigators"
	"github.com/JaimeStill/cct/internal/signals"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Audit         audit.System
	Claims        claims.System
	Devices       devices.System
	Evidence      evidence.System
	Signals       signals.System
	Cases         cases.System
	Investigators investigators.System
	Export        export.System
}

// NewDomain creates all domain systems from the API runtime and subscribes
// the audit log to the event bus.
func NewDomain(runtime *Runtime) *Domain {
	var trail audit.System
	if runtime.Database != nil {
		trail = audit.NewPostgres(runtime.Database.Connection(), runtime.Schema, runtime.Logger, runtime.Pagination)
	} else {
		trail = audit.NewMemory(runtime.Logger, runtime.Pagination)
	}
	runtime.Events.Subscribe(audit.Recorder(trail))

	bus := runtime.Events
	logger := runtime.Logger

	ledger := claims.New(bus, logger, claims.Options{Pagination: runtime.Pagination})
	registry := devices.New(ledger, bus, logger, nil)
	aggregator := evidence.New(ledger, bus, logger)
	generator := signals.New(registry, aggregator, bus, logger, nil)
	directory := investigators.New(investigators.Seed, logger)

	caseEngine := cases.New(bus, logger, cases.Options{
		Evidence:      aggregator,
		Claims:        ledger,
		Investigators: directory,
		Pagination:    runtime.Pagination,
		FirstID:       runtime.FirstCaseID,
	})

	exporter := export.New(caseEngine, ledger, trail, bus, logger, export.Options{
		Storage:       runtime.Storage,
		StorageConfig: runtime.StorageConfig,
	})

	return &Domain{
		Audit:         trail,
		Claims:        ledger,
		Devices:       registry,
		Evidence:      aggregator,
		Signals:       generator,
		Cases:         caseEngine,
		Investigators: directory,
		Export:        exporter,
	}
}
