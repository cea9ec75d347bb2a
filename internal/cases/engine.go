package cases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/cct/internal/actor"
	"github.com/JaimeStill/cct/internal/audit"
	"github.com/JaimeStill/cct/internal/claims"
	"github.com/JaimeStill/cct/internal/evidence"
	"github.com/JaimeStill/cct/internal/investigators"
	"github.com/JaimeStill/cct/pkg/events"
	"github.com/JaimeStill/cct/pkg/pagination"
)

// EvidenceSource supplies live evidence snapshots.
type EvidenceSource interface {
	Snapshot(identity string) *evidence.Snapshot
}

// ClaimSource supplies ledger reads used to validate and derive claim links.
type ClaimSource interface {
	Find(id int64) (*claims.Claim, error)
	ByIdentity(identity string) []claims.Claim
}

// Directory resolves investigator ids.
type Directory interface {
	Find(id string) (*investigators.Investigator, error)
}

// Options wires the engine's read-only collaborators. Nil collaborators
// disable the validation they provide.
type Options struct {
	Evidence      EvidenceSource
	Claims        ClaimSource
	Investigators Directory
	Pagination    pagination.Config
	Now           func() time.Time
	FirstID       int
}

type slot struct {
	mu sync.Mutex
	c  *Case
}

type engine struct {
	mu     sync.RWMutex
	cases  map[string]*slot
	order  []string
	nextID int

	evidence      EvidenceSource
	claims        ClaimSource
	investigators Directory
	bus           events.System
	logger        *slog.Logger
	pagination    pagination.Config
	now           func() time.Time
}

// New creates an empty case engine publishing to bus.
func New(bus events.System, logger *slog.Logger, opts Options) System {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.FirstID <= 0 {
		opts.FirstID = 1001
	}
	return &engine{
		cases:         make(map[string]*slot),
		order:         make([]string, 0),
		nextID:        opts.FirstID,
		evidence:      opts.Evidence,
		claims:        opts.Claims,
		investigators: opts.Investigators,
		bus:           bus,
		logger:        logger.With("system", "cases"),
		pagination:    opts.Pagination,
		now:           opts.Now,
	}
}

func (e *engine) Handler() *Handler {
	return NewHandler(e, e.bus, e.logger, e.pagination)
}

func (e *engine) Create(ctx context.Context, cmd CreateCommand) (*Case, error) {
	identity := strings.TrimSpace(cmd.Identity)
	if identity == "" {
		return nil, ErrIdentityRequired
	}

	risk := cmd.RiskLevel
	if risk == "" {
		risk = RiskLow
	}
	if !risk.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRiskLevel, risk)
	}

	origin := cmd.Origin
	if origin == "" {
		origin = OriginManual
	}

	assignee, err := e.resolveInvestigator(cmd.AssignedTo)
	if err != nil {
		return nil, err
	}

	claimIDs := make([]int64, 0, len(cmd.LinkedClaimIDs))
	for _, id := range cmd.LinkedClaimIDs {
		if err := e.checkClaim(id); err != nil {
			return nil, err
		}
		if !slices.Contains(claimIDs, id) {
			claimIDs = append(claimIDs, id)
		}
	}

	return e.open(ctx, identity, risk, origin, assignee, claimIDs, cmd.Evidence.Clone()), nil
}

func (e *engine) OpenFromEvidence(ctx context.Context, cmd OpenFromEvidenceCommand) (*Case, error) {
	identity := strings.TrimSpace(cmd.Identity)
	if identity == "" {
		return nil, ErrIdentityRequired
	}

	origin := cmd.Origin
	if origin == "" {
		origin = OriginDuplicateDevice
	}

	assignee, err := e.resolveInvestigator(cmd.AssignedTo)
	if err != nil {
		return nil, err
	}

	var snap *evidence.Snapshot
	if e.evidence != nil {
		snap = e.evidence.Snapshot(identity)
	}
	if snap == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoEvidence, identity)
	}

	risk := RiskLow
	if snap.Duplicate() {
		risk = RiskHigh
	}

	claimIDs := make([]int64, 0)
	if e.claims != nil {
		for _, c := range e.claims.ByIdentity(identity) {
			claimIDs = append(claimIDs, c.ID)
		}
		slices.Sort(claimIDs)
	}

	return e.open(ctx, identity, risk, origin, assignee, claimIDs, snap.Clone()), nil
}

func (e *engine) open(
	ctx context.Context,
	identity string,
	risk RiskLevel,
	origin Origin,
	assignee *string,
	claimIDs []int64,
	snap *evidence.Snapshot,
) *Case {
	a := actor.FromContext(ctx)
	now := e.now().UTC()

	c := &Case{
		Status:           StatusOpen,
		RiskLevel:        risk,
		AssignedTo:       assignee,
		Origin:           origin,
		LinkedIdentities: []string{identity},
		LinkedClaimIDs:   claimIDs,
		Notes:            make([]Note, 0),
		Evidence:         snap,
		CreatedAt:        now,
		UpdatedAt:        now,
		Version:          1,
	}
	if risk == RiskHigh {
		c.EscalatedAt = &now
	}

	e.mu.Lock()
	c.ID = fmt.Sprintf("CASE-%d", e.nextID)
	e.nextID++
	summary := fmt.Sprintf("Case created for %s", identity)
	c.History = []HistoryEntry{{Type: HistoryCreated, Summary: summary, Actor: a.ID, At: now}}
	s := &slot{c: c}
	e.cases[c.ID] = s
	e.order = append(e.order, c.ID)
	s.mu.Lock()
	e.mu.Unlock()
	defer s.mu.Unlock()

	action := audit.ActionCaseCreated
	switch origin {
	case OriginDuplicateDevice:
		action = audit.ActionCaseFromDuplicate
	case OriginRiskSignal:
		action = audit.ActionRiskSignalEscalated
	}

	e.logger.Info("case created", "case_id", c.ID, "identity", identity, "origin", origin)
	e.bus.Publish(ctx, audit.NewEvent(ctx, action, audit.OutcomeSuccess, c.ID, summary, map[string]any{
		"identity":     identity,
		"risk_level":   string(risk),
		"origin":       string(origin),
		"has_evidence": snap != nil,
	}))

	return c.clone()
}

// change describes a committed mutation.
type change struct {
	history HistoryType
	summary string
	action  audit.Action
	details map[string]any
}

// apply mutates a working copy of the case. A nil change with a nil error
// leaves the case untouched.
type apply func(c *Case, a actor.Actor, now time.Time) (*change, error)

// mutate runs fn against a copy of the case under the case lock and commits
// the copy only when fn succeeds.
func (e *engine) mutate(ctx context.Context, id string, expected int, action audit.Action, fn apply) (*Case, error) {
	s, err := e.slot(id)
	if err != nil {
		return nil, err
	}
	a := actor.FromContext(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if expected != 0 && expected != s.c.Version {
		return nil, fmt.Errorf("%w: expected version %d, current %d", ErrVersionConflict, expected, s.c.Version)
	}

	work := s.c.clone()
	now := e.now().UTC()

	ch, err := fn(work, a, now)
	if err != nil {
		if errors.Is(err, ErrInvalidTransition) || errors.Is(err, ErrForbidden) {
			e.bus.Publish(ctx, audit.NewEvent(ctx, action, audit.OutcomeFailure, id, err.Error(), nil))
		}
		return nil, err
	}
	if ch == nil {
		return s.c.clone(), nil
	}

	work.History = slices.Insert(work.History, 0, HistoryEntry{
		Type:    ch.history,
		Summary: ch.summary,
		Actor:   a.ID,
		At:      now,
	})
	work.Version++
	work.UpdatedAt = now
	s.c = work

	if ch.action != "" {
		action = ch.action
	}
	details := map[string]any{"version": work.Version}
	for k, v := range ch.details {
		details[k] = v
	}

	e.logger.Info("case updated", "case_id", id, "change", ch.history, "version", work.Version)
	e.bus.Publish(ctx, audit.NewEvent(ctx, action, audit.OutcomeSuccess, id, ch.summary, details))

	return work.clone(), nil
}

func (e *engine) ChangeStatus(ctx context.Context, id string, cmd StatusCommand) (*Case, error) {
	to := cmd.Status
	if !to.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, to)
	}

	return e.mutate(ctx, id, cmd.ExpectedVersion, audit.ActionCaseStatusChanged, func(c *Case, a actor.Actor, now time.Time) (*change, error) {
		from := c.Status
		if !CanTransition(from, to) {
			return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
		}
		if from == StatusClosed {
			return reopen(c, a, cmd.Reason)
		}

		c.Status = to
		if to == StatusClosed {
			c.ClosedAt = &now
			c.Closure = &Closure{ClosedBy: a.ID, ClosedAt: now}
		}
		return &change{
			history: HistoryStatusChanged,
			summary: fmt.Sprintf("Status changed from %s to %s", from, to),
			details: map[string]any{"from": string(from), "to": string(to)},
		}, nil
	})
}

func (e *engine) Reopen(ctx context.Context, id string, cmd ReopenCommand) (*Case, error) {
	return e.mutate(ctx, id, cmd.ExpectedVersion, audit.ActionCaseReopened, func(c *Case, a actor.Actor, now time.Time) (*change, error) {
		return reopen(c, a, cmd.Reason)
	})
}

func reopen(c *Case, a actor.Actor, reason string) (*change, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrReasonRequired
	}
	if !actor.CanReopen(a.Role) {
		return nil, fmt.Errorf("%w: reopen requires manager or admin, actor is %s", ErrForbidden, a.Role)
	}
	if c.Status != StatusClosed {
		return nil, fmt.Errorf("%w: %s -> %s, only closed cases can be reopened", ErrInvalidTransition, c.Status, StatusInReview)
	}

	c.Status = StatusInReview
	c.Closure = nil
	c.ClosedAt = nil
	return &change{
		history: HistoryReopened,
		summary: fmt.Sprintf("Case reopened: %s", reason),
		action:  audit.ActionCaseReopened,
		details: map[string]any{"reason": reason},
	}, nil
}

func (e *engine) Close(ctx context.Context, id string, cmd CloseCommand) (*Case, error) {
	outcome := strings.TrimSpace(cmd.Outcome)
	if outcome == "" {
		return nil, ErrOutcomeRequired
	}
	justification := strings.TrimSpace(cmd.Justification)
	if justification == "" {
		return nil, ErrJustificationRequired
	}

	return e.mutate(ctx, id, cmd.ExpectedVersion, audit.ActionCaseClosed, func(c *Case, a actor.Actor, now time.Time) (*change, error) {
		if !CanTransition(c.Status, StatusClosed) {
			return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, c.Status, StatusClosed)
		}

		c.Status = StatusClosed
		c.ClosedAt = &now
		c.Closure = &Closure{
			Outcome:       outcome,
			Justification: justification,
			ClosedBy:      a.ID,
			ClosedAt:      now,
		}
		return &change{
			history: HistoryClosed,
			summary: fmt.Sprintf("Case closed: %s", outcome),
			details: map[string]any{"outcome": outcome, "justification": justification},
		}, nil
	})
}

func (e *engine) Assign(ctx context.Context, id string, cmd AssignCommand) (*Case, error) {
	assignee, err := e.resolveInvestigator(cmd.InvestigatorID)
	if err != nil {
		return nil, err
	}

	return e.mutate(ctx, id, cmd.ExpectedVersion, audit.ActionCaseAssigned, func(c *Case, a actor.Actor, now time.Time) (*change, error) {
		correction := c.Status == StatusClosed
		if correction && !actor.CanCorrectClosed(a.Role) {
			return nil, fmt.Errorf("%w: closed case assignment requires manager or admin", ErrForbidden)
		}

		c.AssignedTo = clonePtr(assignee)

		ch := &change{details: map[string]any{"assigned_to": nil, "correction": correction}}
		switch {
		case assignee != nil:
			ch.history, ch.summary = HistoryAssigned, fmt.Sprintf("Assigned to %s", *assignee)
			ch.details["assigned_to"] = *assignee
		default:
			ch.history, ch.summary = HistoryUnassigned, "Assignment cleared"
		}
		if correction {
			ch.history = HistoryAssignmentCorrected
			ch.summary = "Correction: " + ch.summary
		}
		return ch, nil
	})
}

func (e *engine) AddNote(ctx context.Context, id string, cmd NoteCommand) (*Case, error) {
	content := strings.TrimSpace(cmd.Content)
	if content == "" {
		return nil, ErrContentRequired
	}

	return e.mutate(ctx, id, cmd.ExpectedVersion, audit.ActionCaseNoteAdded, func(c *Case, a actor.Actor, now time.Time) (*change, error) {
		if err := requireActive(c); err != nil {
			return nil, err
		}

		note := Note{ID: uuid.New(), Author: a.ID, Content: content, CreatedAt: now}
		c.Notes = slices.Insert(c.Notes, 0, note)
		return &change{
			history: HistoryNoteAdded,
			summary: "Note added",
			details: map[string]any{"note_id": note.ID.String()},
		}, nil
	})
}

func (e *engine) EditNote(ctx context.Context, id string, noteID uuid.UUID, cmd NoteCommand) (*Case, error) {
	content := strings.TrimSpace(cmd.Content)
	if content == "" {
		return nil, ErrContentRequired
	}

	return e.mutate(ctx, id, cmd.ExpectedVersion, audit.ActionCaseNoteUpdated, func(c *Case, a actor.Actor, now time.Time) (*change, error) {
		if err := requireActive(c); err != nil {
			return nil, err
		}
		i := c.noteIndex(noteID)
		if i < 0 {
			return nil, ErrNoteNotFound
		}

		c.Notes[i].Content = content
		c.Notes[i].UpdatedAt = &now
		return &change{
			history: HistoryNoteUpdated,
			summary: "Note updated",
			details: map[string]any{"note_id": noteID.String()},
		}, nil
	})
}

func (e *engine) DeleteNote(ctx context.Context, id string, noteID uuid.UUID, expectedVersion int) (*Case, error) {
	return e.mutate(ctx, id, expectedVersion, audit.ActionCaseNoteDeleted, func(c *Case, a actor.Actor, now time.Time) (*change, error) {
		if err := requireActive(c); err != nil {
			return nil, err
		}
		i := c.noteIndex(noteID)
		if i < 0 {
			return nil, ErrNoteNotFound
		}

		c.Notes = slices.Delete(c.Notes, i, i+1)
		return &change{
			history: HistoryNoteDeleted,
			summary: "Note deleted",
			details: map[string]any{"note_id": noteID.String()},
		}, nil
	})
}

func (e *engine) SetRiskLevel(ctx context.Context, id string, cmd RiskCommand) (*Case, error) {
	if !cmd.Level.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRiskLevel, cmd.Level)
	}
	justification := strings.TrimSpace(cmd.Justification)
	if justification == "" {
		return nil, ErrJustificationRequired
	}

	return e.mutate(ctx, id, cmd.ExpectedVersion, audit.ActionCaseRiskUpdated, func(c *Case, a actor.Actor, now time.Time) (*change, error) {
		if err := requireActive(c); err != nil {
			return nil, err
		}

		from := c.RiskLevel
		c.RiskLevel = cmd.Level
		if cmd.Level == RiskHigh && from != RiskHigh {
			c.EscalatedAt = &now
		}
		return &change{
			history: HistoryRiskUpdated,
			summary: fmt.Sprintf("Risk set to %s: %s", cmd.Level, justification),
			details: map[string]any{"from": string(from), "to": string(cmd.Level), "justification": justification},
		}, nil
	})
}

func (e *engine) LinkClaim(ctx context.Context, id string, cmd LinkClaimCommand) (*Case, error) {
	if err := e.checkClaim(cmd.ClaimID); err != nil {
		return nil, err
	}

	return e.mutate(ctx, id, cmd.ExpectedVersion, audit.ActionCaseLinkedClaim, func(c *Case, a actor.Actor, now time.Time) (*change, error) {
		if err := requireActive(c); err != nil {
			return nil, err
		}
		if slices.Contains(c.LinkedClaimIDs, cmd.ClaimID) {
			return nil, nil
		}

		c.LinkedClaimIDs = append(c.LinkedClaimIDs, cmd.ClaimID)
		return &change{
			history: HistoryClaimLinked,
			summary: fmt.Sprintf("Linked claim %d", cmd.ClaimID),
			details: map[string]any{"claim_id": cmd.ClaimID},
		}, nil
	})
}

func (e *engine) LinkDevice(ctx context.Context, id string, cmd LinkDeviceCommand) (*Case, error) {
	identity := strings.TrimSpace(cmd.Identity)
	if identity == "" {
		return nil, ErrIdentityRequired
	}

	return e.mutate(ctx, id, cmd.ExpectedVersion, audit.ActionCaseLinkedDevice, func(c *Case, a actor.Actor, now time.Time) (*change, error) {
		if err := requireActive(c); err != nil {
			return nil, err
		}
		if slices.Contains(c.LinkedIdentities, identity) {
			return nil, nil
		}

		c.LinkedIdentities = append(c.LinkedIdentities, identity)
		return &change{
			history: HistoryDeviceLinked,
			summary: fmt.Sprintf("Linked device %s", identity),
			details: map[string]any{"identity": identity},
		}, nil
	})
}

func (e *engine) Find(id string) (*Case, error) {
	s, err := e.slot(id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.clone(), nil
}

func (e *engine) List(page pagination.PageRequest, filters Filters) *pagination.PageResult[Case] {
	page.Normalize(e.pagination)

	matched := make([]Case, 0)
	for _, c := range e.snapshot() {
		if filters.Matches(c) && matchesSearch(c, page.Search) {
			matched = append(matched, c)
		}
	}

	sortCases(matched, page.Sort)
	result := pagination.Paginate(matched, page)
	return &result
}

func (e *engine) Capabilities(role actor.Role, id string) (*Capabilities, error) {
	c, err := e.Find(id)
	if err != nil {
		return nil, err
	}
	caps := CapabilitiesFor(role, c)
	return &caps, nil
}

func (e *engine) slot(id string) (*slot, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	s, ok := e.cases[strings.TrimSpace(id)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s, nil
}

func (e *engine) snapshot() []Case {
	e.mu.RLock()
	slots := make([]*slot, 0, len(e.order))
	for _, id := range e.order {
		slots = append(slots, e.cases[id])
	}
	e.mu.RUnlock()

	out := make([]Case, 0, len(slots))
	for _, s := range slots {
		s.mu.Lock()
		out = append(out, *s.c.clone())
		s.mu.Unlock()
	}
	return out
}

func (e *engine) resolveInvestigator(id *string) (*string, error) {
	if id == nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*id)
	if trimmed == "" {
		return nil, nil
	}
	if e.investigators != nil {
		if _, err := e.investigators.Find(trimmed); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrUnknownInvestigator, trimmed)
		}
	}
	return &trimmed, nil
}

func (e *engine) checkClaim(id int64) error {
	if e.claims == nil {
		return nil
	}
	if _, err := e.claims.Find(id); err != nil {
		return fmt.Errorf("%w: %d", ErrUnknownClaim, id)
	}
	return nil
}

// requireActive rejects mutations reserved for active cases.
func requireActive(c *Case) error {
	if c.Status == StatusClosed {
		return fmt.Errorf("%w: %s", ErrCaseClosed, c.ID)
	}
	return nil
}
