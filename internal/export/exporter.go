package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/cct/internal/actor"
	"github.com/JaimeStill/cct/internal/audit"
	"github.com/JaimeStill/cct/internal/cases"
	"github.com/JaimeStill/cct/internal/claims"
	"github.com/JaimeStill/cct/pkg/events"
	"github.com/JaimeStill/cct/pkg/formatting"
	"github.com/JaimeStill/cct/pkg/storage"
)

const stampLayout = "20060102T150405Z"

// CaseSource reads cases.
type CaseSource interface {
	Find(id string) (*cases.Case, error)
}

// ClaimSource reads ledger claims by id.
type ClaimSource interface {
	ByIDs(ids []int64) []claims.Claim
}

// Options configures an exporter. A nil Storage keeps exports in memory.
type Options struct {
	Storage       storage.System
	StorageConfig *storage.Config
	Now           func() time.Time
}

type exporter struct {
	cases  CaseSource
	claims ClaimSource
	trail  audit.System
	store  storage.System
	keys   *storage.Config
	bus    events.System
	logger *slog.Logger
	now    func() time.Time
}

// New creates an exporter over the given read sources.
func New(cs CaseSource, cl ClaimSource, trail audit.System, bus events.System, logger *slog.Logger, opts Options) System {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.StorageConfig == nil {
		opts.StorageConfig = &storage.Config{}
	}
	return &exporter{
		cases:  cs,
		claims: cl,
		trail:  trail,
		store:  opts.Storage,
		keys:   opts.StorageConfig,
		bus:    bus,
		logger: logger.With("system", "export"),
		now:    opts.Now,
	}
}

func (e *exporter) Handler() *Handler {
	return NewHandler(e, e.bus, e.logger)
}

func (e *exporter) CaseReport(ctx context.Context, caseID string) (*CaseReport, error) {
	c, err := e.cases.Find(caseID)
	if err != nil {
		return nil, err
	}

	trail, err := e.trail.All(ctx, audit.Filters{Target: &c.ID})
	if err != nil {
		return nil, fmt.Errorf("read case trail: %w", err)
	}

	now := e.now().UTC()
	report := &CaseReport{
		GeneratedAt: now,
		GeneratedBy: actor.FromContext(ctx).ID,
		Case:        c,
		Claims:      e.claims.ByIDs(c.LinkedClaimIDs),
		Trail:       trail,
	}

	artifacts, err := e.persist(ctx, report, trail, "cases", c.ID, now.Format(stampLayout))
	if err != nil {
		e.bus.Publish(ctx, audit.NewEvent(ctx, audit.ActionCaseExported, audit.OutcomeFailure, c.ID, err.Error(), nil))
		return nil, err
	}
	report.Artifacts = artifacts

	e.logger.Info("case exported", "case_id", c.ID, "trail", len(trail), "artifacts", len(artifacts))
	e.bus.Publish(ctx, audit.NewEvent(ctx, audit.ActionCaseExported, audit.OutcomeSuccess, c.ID, "Case report exported", map[string]any{
		"claims":    len(report.Claims),
		"entries":   len(trail),
		"artifacts": artifacts,
	}))
	return report, nil
}

func (e *exporter) AuditReport(ctx context.Context, filters audit.Filters) (*AuditReport, error) {
	entries, err := e.trail.All(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("read audit log: %w", err)
	}

	now := e.now().UTC()
	report := &AuditReport{
		GeneratedAt: now,
		GeneratedBy: actor.FromContext(ctx).ID,
		Filters:     filters,
		Count:       len(entries),
		Entries:     entries,
	}

	stamp := now.Format(stampLayout)
	artifacts, err := e.persist(ctx, report, entries, "audit", stamp, stamp)
	if err != nil {
		e.bus.Publish(ctx, audit.NewEvent(ctx, audit.ActionAuditExported, audit.OutcomeFailure, "audit-log", err.Error(), nil))
		return nil, err
	}
	report.Artifacts = artifacts

	e.logger.Info("audit log exported", "entries", len(entries), "artifacts", len(artifacts))
	e.bus.Publish(ctx, audit.NewEvent(ctx, audit.ActionAuditExported, audit.OutcomeSuccess, "audit-log", "Audit log exported", map[string]any{
		"entries":   len(entries),
		"artifacts": artifacts,
	}))
	return report, nil
}

// persist uploads the JSON bundle and the CSV trail concurrently. It returns
// no keys when storage is disabled.
func (e *exporter) persist(ctx context.Context, report any, trail []audit.Entry, kind, id, stamp string) ([]string, error) {
	if e.store == nil {
		return nil, nil
	}

	body, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}
	var csvBody bytes.Buffer
	if err := WriteTrailCSV(&csvBody, trail); err != nil {
		return nil, fmt.Errorf("encode trail: %w", err)
	}

	base := e.keys.Key(kind, id, stamp)
	artifacts := []struct {
		key         string
		body        []byte
		contentType string
	}{
		{base + ".json", body, "application/json"},
		{base + ".csv", csvBody.Bytes(), "text/csv"},
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, a := range artifacts {
		g.Go(func() error {
			if err := e.store.Upload(gctx, a.key, bytes.NewReader(a.body), a.contentType); err != nil {
				return fmt.Errorf("%w: %s: %w", ErrUploadFailed, a.key, err)
			}
			e.logger.Info("artifact uploaded", "key", a.key, "size", formatting.FormatBytes(int64(len(a.body)), 1))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	keys := make([]string, len(artifacts))
	for i, a := range artifacts {
		keys[i] = a.key
	}
	return keys, nil
}
