package signals

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/cct/internal/audit"
	"github.com/JaimeStill/cct/internal/devices"
	"github.com/JaimeStill/cct/internal/evidence"
	"github.com/JaimeStill/cct/pkg/events"
)

// Registry supplies one row per known device.
type Registry interface {
	Rows() []devices.Row
}

// Evidence supplies live snapshots.
type Evidence interface {
	Snapshot(identity string) *evidence.Snapshot
}

// System generates risk signals.
type System interface {
	Handler() *Handler

	// Generate emits one DUPLICATE_DEVICE signal per device whose evidence
	// shows more than one claim, ordered by severity then recency.
	Generate() []Signal
	// View returns Generate and records the read.
	View(ctx context.Context) []Signal
}

type generator struct {
	registry Registry
	evidence Evidence
	bus      events.System
	logger   *slog.Logger
	now      func() time.Time
}

// New creates a generator. A nil now uses time.Now.
func New(registry Registry, ev Evidence, bus events.System, logger *slog.Logger, now func() time.Time) System {
	if now == nil {
		now = time.Now
	}
	return &generator{
		registry: registry,
		evidence: ev,
		bus:      bus,
		logger:   logger.With("system", "signals"),
		now:      now,
	}
}

func (g *generator) Handler() *Handler {
	return NewHandler(g, g.logger)
}

func (g *generator) Generate() []Signal {
	out := make([]Signal, 0)
	seen := make(map[string]struct{})

	for _, row := range g.registry.Rows() {
		identity, snap := g.strongest(row)
		if _, dup := seen[identity]; dup || !snap.Duplicate() {
			continue
		}
		seen[identity] = struct{}{}
		out = append(out, g.signal(identity, snap))
	}

	slices.SortStableFunc(out, func(a, b Signal) int {
		if d := b.Severity.rank() - a.Severity.rank(); d != 0 {
			return d
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out
}

// strongest returns the row identity whose snapshot carries the most claims.
// The IMEI wins ties; the serial covers claims recorded without one.
func (g *generator) strongest(row devices.Row) (string, *evidence.Snapshot) {
	identity := row.Identity()
	snap := g.evidence.Snapshot(identity)
	if row.Serial == identity {
		return identity, snap
	}
	if alt := g.evidence.Snapshot(row.Serial); alt != nil && (snap == nil || alt.ClaimCount > snap.ClaimCount) {
		return row.Serial, alt
	}
	return identity, snap
}

func (g *generator) signal(identity string, snap *evidence.Snapshot) Signal {
	severity, summary := SeverityMedium, "Duplicate device detected"
	if snap.CrossInsurer {
		severity, summary = SeverityHigh, "Cross-insurer duplicate device detected"
	}

	createdAt := g.now().UTC()
	if len(snap.Claims) > 0 {
		createdAt = snap.Claims[0].RecordedAt
	}

	return Signal{
		ID:           fmt.Sprintf("signal-%s-%s", identity, uuid.NewString()),
		Type:         TypeDuplicateDevice,
		Severity:     severity,
		Source:       SourceDuplicateDevices,
		LinkedEntity: LinkedEntity{Type: "DEVICE", ID: identity},
		Summary:      summary,
		CreatedAt:    createdAt,
	}
}

func (g *generator) View(ctx context.Context) []Signal {
	list := g.Generate()
	g.bus.Publish(ctx, audit.NewEvent(
		ctx,
		audit.ActionRiskSignalViewed,
		audit.OutcomeSuccess,
		"risk-queue",
		fmt.Sprintf("Risk queue viewed (%d signals)", len(list)),
		map[string]any{"signal_count": len(list)},
	))
	return list
}
