package claims

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/JaimeStill/cct/internal/audit"
	"github.com/JaimeStill/cct/pkg/events"
	"github.com/JaimeStill/cct/pkg/pagination"
)

// Options configures a ledger. Zero values select production defaults.
type Options struct {
	Now        func() time.Time
	References *References
	Pagination pagination.Config
}

type ledger struct {
	mu     sync.RWMutex
	claims []Claim
	nextID int64

	refs       *References
	bus        events.System
	logger     *slog.Logger
	pagination pagination.Config
	now        func() time.Time
}

// New creates an empty ledger publishing to bus.
func New(bus events.System, logger *slog.Logger, opts Options) System {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.References == nil {
		opts.References = NewReferences(opts.Now, nil)
	}
	return &ledger{
		claims:     make([]Claim, 0),
		nextID:     1,
		refs:       opts.References,
		bus:        bus,
		logger:     logger.With("system", "claims"),
		pagination: opts.Pagination,
		now:        opts.Now,
	}
}

func (l *ledger) Handler() *Handler {
	return NewHandler(l, l.logger, l.pagination)
}

func (l *ledger) References() *References {
	return l.refs
}

func (l *ledger) Record(ctx context.Context, cmd RecordCommand) (*Claim, error) {
	c := Claim{
		Source:  SourceLedger,
		IMEI:    strings.TrimSpace(cmd.IMEI),
		Serial:  strings.TrimSpace(cmd.Serial),
		Brand:   strings.TrimSpace(cmd.Brand),
		Model:   strings.TrimSpace(cmd.Model),
		Amount:  cmd.Amount,
		Insurer: strings.TrimSpace(cmd.Insurer),
	}
	if c.IMEI == "" && c.Serial == "" {
		return nil, ErrIdentityRequired
	}
	if c.Amount.IsNegative() {
		return nil, ErrInvalidAmount
	}

	l.mu.Lock()
	duplicate := slices.ContainsFunc(l.claims, c.sharesDevice)
	c.Outcome = OutcomeApproved
	if duplicate {
		c.Outcome = OutcomeRejected
	}
	l.append(&c)
	l.mu.Unlock()

	l.logger.Info("claim recorded", "claim_id", c.ID, "identity", c.Identity(), "outcome", c.Outcome)

	l.bus.Publish(ctx, audit.NewEvent(
		ctx,
		audit.ActionClaimRecorded,
		audit.OutcomeRecorded,
		c.Identity(),
		fmt.Sprintf("Claim recorded for %s (%s)", c.Identity(), c.Outcome),
		map[string]any{"claim_id": c.ID, "amount": c.Amount.String(), "outcome": string(c.Outcome)},
	))
	if duplicate {
		l.bus.Publish(ctx, audit.NewEvent(
			ctx,
			audit.ActionDuplicateDetected,
			audit.OutcomeAutoReject,
			c.Identity(),
			fmt.Sprintf("Duplicate device detected: %s", c.Identity()),
			map[string]any{"claim_id": c.ID},
		))
	}

	out := c
	return &out, nil
}

func (l *ledger) RecordDeviceClaim(ctx context.Context, cmd DeviceClaimCommand) (*Claim, error) {
	serial := strings.TrimSpace(cmd.Serial)
	if serial == "" {
		return nil, ErrSerialRequired
	}
	if !cmd.Outcome.DeviceOutcome() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidOutcome, cmd.Outcome)
	}
	if cmd.Amount.IsNegative() {
		return nil, ErrInvalidAmount
	}

	ref, err := l.refs.Ensure(cmd.ClaimReference, cmd.Insurer)
	if err != nil {
		return nil, err
	}

	deviceID := strings.TrimSpace(cmd.DeviceID)
	if deviceID == "" {
		deviceID = "device-" + serial
	}

	c := Claim{
		Source:         SourceClaimDevice,
		IMEI:           strings.TrimSpace(cmd.IMEI),
		Serial:         serial,
		Brand:          strings.TrimSpace(cmd.Brand),
		Model:          strings.TrimSpace(cmd.Model),
		Amount:         cmd.Amount,
		Outcome:        cmd.Outcome,
		Insurer:        strings.TrimSpace(cmd.Insurer),
		ClaimReference: ref,
		DeviceID:       deviceID,
		DeviceCategory: cmd.DeviceCategory,
		DeviceAge:      cmd.DeviceAge,
		LossType:       cmd.LossType,
		DateOfLoss:     cmd.DateOfLoss,
	}

	l.mu.Lock()
	l.append(&c)
	l.mu.Unlock()

	l.logger.Info("device claim submitted", "claim_id", c.ID, "serial", serial, "reference", ref)

	l.bus.Publish(ctx, audit.NewEvent(
		ctx,
		audit.ActionClaimSubmitted,
		audit.OutcomeSuccess,
		serial,
		fmt.Sprintf("Claim submitted (%s)", c.Outcome),
		map[string]any{"claim_id": c.ID, "claim_reference": ref, "insurer": c.Insurer},
	))

	out := c
	return &out, nil
}

// append assigns the next id and timestamp. The caller holds the write lock.
func (l *ledger) append(c *Claim) {
	c.ID = l.nextID
	c.RecordedAt = l.now().UTC()
	l.nextID++
	l.claims = append(l.claims, *c)
}

func (l *ledger) All() []Claim {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.claims)
}

func (l *ledger) List(page pagination.PageRequest, filters Filters) *pagination.PageResult[Claim] {
	page.Normalize(l.pagination)

	l.mu.RLock()
	matched := make([]Claim, 0, len(l.claims))
	for _, c := range l.claims {
		if filters.Matches(c) && matchesSearch(c, page.Search) {
			matched = append(matched, c)
		}
	}
	l.mu.RUnlock()

	sortClaims(matched, page.Sort)
	result := pagination.Paginate(matched, page)
	return &result
}

func (l *ledger) Find(id int64) (*Claim, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, c := range l.claims {
		if c.ID == id {
			out := c
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (l *ledger) ByIdentity(identity string) []Claim {
	l.mu.RLock()
	out := make([]Claim, 0)
	for _, c := range l.claims {
		if c.MatchesIdentity(identity) {
			out = append(out, c)
		}
	}
	l.mu.RUnlock()

	newestFirst(out)
	return out
}

func (l *ledger) GroupedByIdentity() map[string][]Claim {
	l.mu.RLock()
	defer l.mu.RUnlock()

	groups := make(map[string][]Claim)
	for _, c := range l.claims {
		id := c.Identity()
		groups[id] = append(groups[id], c)
	}
	return groups
}

func (l *ledger) ByIDs(ids []int64) []Claim {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Claim, 0, len(ids))
	for _, c := range l.claims {
		if slices.Contains(ids, c.ID) {
			out = append(out, c)
		}
	}
	return out
}

func (l *ledger) Stats() Stats {
	groups := l.GroupedByIdentity()

	var s Stats
	for _, group := range groups {
		s.TotalClaims += len(group)
		if len(group) > 1 {
			s.DuplicateDevices++
		}
		for _, c := range group {
			if c.Outcome.Rejected() {
				s.RejectedClaims++
				s.FraudPrevented = s.FraudPrevented.Add(c.Amount)
			}
		}
	}
	return s
}

func (l *ledger) Search(ctx context.Context, q string) (string, bool) {
	q = strings.TrimSpace(q)
	if q == "" {
		return "", false
	}

	identity, found := l.resolve(q)

	outcome := audit.OutcomeSuccess
	if !found {
		outcome = audit.OutcomeFailure
	}
	l.bus.Publish(ctx, audit.NewEvent(
		ctx,
		audit.ActionSearch,
		outcome,
		q,
		fmt.Sprintf("Search performed: %s", q),
		nil,
	))

	return identity, found
}

func (l *ledger) resolve(q string) (string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, c := range l.claims {
		if c.IMEI == q {
			return c.Identity(), true
		}
	}
	for _, c := range l.claims {
		if c.Serial == q {
			return c.Identity(), true
		}
	}
	return "", false
}

func (l *ledger) History(ctx context.Context, identity string) []Claim {
	identity = strings.TrimSpace(identity)
	list := l.ByIdentity(identity)

	l.bus.Publish(ctx, audit.NewEvent(
		ctx,
		audit.ActionDeviceViewed,
		audit.OutcomeSuccess,
		identity,
		fmt.Sprintf("Viewed claims for %s", identity),
		map[string]any{"claim_count": len(list)},
	))

	return list
}
