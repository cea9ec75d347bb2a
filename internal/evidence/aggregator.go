package evidence

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/JaimeStill/cct/internal/audit"
	"github.com/JaimeStill/cct/internal/claims"
	"github.com/JaimeStill/cct/pkg/events"
)

// Ledger is the read side of the claim ledger used by the aggregator.
type Ledger interface {
	All() []claims.Claim
}

// System derives evidence snapshots.
type System interface {
	Handler() *Handler

	// Snapshot aggregates every claim matching identity by IMEI or serial.
	// It returns nil when no claim matches.
	Snapshot(identity string) *Snapshot
	// View returns Snapshot and records the sensitive read.
	View(ctx context.Context, identity string) (*Snapshot, error)
}

type aggregator struct {
	ledger Ledger
	bus    events.System
	logger *slog.Logger
}

// New creates an aggregator over ledger.
func New(ledger Ledger, bus events.System, logger *slog.Logger) System {
	return &aggregator{
		ledger: ledger,
		bus:    bus,
		logger: logger.With("system", "evidence"),
	}
}

func (a *aggregator) Handler() *Handler {
	return NewHandler(a, a.logger)
}

func (a *aggregator) Snapshot(identity string) *Snapshot {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return nil
	}

	raw := make([]claims.Claim, 0)
	for _, c := range a.ledger.All() {
		if c.MatchesIdentity(identity) {
			raw = append(raw, c)
		}
	}
	if len(raw) == 0 {
		return nil
	}

	slices.SortStableFunc(raw, func(x, y claims.Claim) int {
		return y.RecordedAt.Compare(x.RecordedAt)
	})

	serial := identity
	if i := slices.IndexFunc(raw, func(c claims.Claim) bool { return c.Serial != "" }); i >= 0 {
		serial = raw[i].Serial
	}

	matched := make([]Claim, len(raw))
	for i, c := range raw {
		matched[i] = fromClaim(c)
	}

	head := matched[0]
	s := &Snapshot{
		Source:     SourceDuplicateDetection,
		Serial:     serial,
		IMEI:       head.IMEI,
		Brand:      head.Brand,
		Model:      head.Model,
		ClaimCount: len(matched),
		Insurers:   distinct(matched, func(c Claim) string { return c.Insurer }),
		Outcomes:   distinct(matched, func(c Claim) string { return c.Outcome }),
		Claims:     matched,
	}
	s.CrossInsurer = len(s.Insurers) > 1
	return s
}

func (a *aggregator) View(ctx context.Context, identity string) (*Snapshot, error) {
	identity = strings.TrimSpace(identity)
	s := a.Snapshot(identity)

	outcome, summary := audit.OutcomeSuccess, "Duplicate evidence viewed"
	details := map[string]any{}
	if s == nil {
		outcome, summary = audit.OutcomeFailure, "No evidence found"
	} else {
		details["claim_count"] = s.ClaimCount
		details["cross_insurer"] = s.CrossInsurer
	}
	a.bus.Publish(ctx, audit.NewEvent(ctx, audit.ActionDuplicateDeviceViewed, outcome, identity, summary, details))

	if s == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoEvidence, identity)
	}
	return s, nil
}

func fromClaim(c claims.Claim) Claim {
	insurer := c.Insurer
	if insurer == "" {
		insurer = unknown
	}
	return Claim{
		ID:         fmt.Sprintf("claim-%d", c.ID),
		Insurer:    insurer,
		Outcome:    normalizeOutcome(c.Outcome),
		RecordedAt: c.RecordedAt,
		IMEI:       c.IMEI,
		Brand:      c.Brand,
		Model:      c.Model,
	}
}

// normalizeOutcome maps ledger outcomes onto the claim-device vocabulary.
func normalizeOutcome(o claims.Outcome) string {
	switch o {
	case claims.OutcomeRejected:
		return string(claims.OutcomeDeviceReject)
	case claims.OutcomeApproved, claims.OutcomePending:
		return string(claims.OutcomePaidPartial)
	case "":
		return unknown
	}
	return string(o)
}

func distinct(list []Claim, key func(Claim) string) []string {
	out := make([]string, 0)
	for _, c := range list {
		if k := key(c); !slices.Contains(out, k) {
			out = append(out, k)
		}
	}
	return out
}
