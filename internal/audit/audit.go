// Package audit is the append-only compliance log. Entries are written once
// and never updated or deleted; every domain mutation and sensitive read is
// recorded here through the event bus.
package audit

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Action names the operation an entry records.
type Action string

const (
	ActionClaimRecorded          Action = "CLAIM_RECORDED"
	ActionClaimApproved          Action = "CLAIM_APPROVED"
	ActionClaimRejected          Action = "CLAIM_REJECTED"
	ActionDuplicateDetected      Action = "DUPLICATE_DETECTED"
	ActionAuditExported          Action = "AUDIT_EXPORTED"
	ActionSearch                 Action = "SEARCH"
	ActionCaseViewed             Action = "CASE_VIEWED"
	ActionLogin                  Action = "LOGIN"
	ActionLogout                 Action = "LOGOUT"
	ActionCaseCreated            Action = "CASE_CREATED"
	ActionCaseNoteAdded          Action = "CASE_NOTE_ADDED"
	ActionCaseStatusChanged      Action = "CASE_STATUS_CHANGED"
	ActionCaseAssigned           Action = "CASE_ASSIGNED"
	ActionCaseLinkedClaim        Action = "CASE_LINKED_CLAIM"
	ActionCaseLinkedDevice       Action = "CASE_LINKED_DEVICE"
	ActionCaseNoteUpdated        Action = "CASE_NOTE_UPDATED"
	ActionCaseNoteDeleted        Action = "CASE_NOTE_DELETED"
	ActionCaseReopened           Action = "CASE_REOPENED"
	ActionCaseExported           Action = "CASE_EXPORTED"
	ActionCaseRiskUpdated        Action = "CASE_RISK_UPDATED"
	ActionCaseClosed             Action = "CASE_CLOSED"
	ActionDeviceRegistered       Action = "DEVICE_REGISTERED"
	ActionDeviceSerialExists     Action = "DEVICE_SERIAL_EXISTS"
	ActionClaimSubmitted         Action = "CLAIM_SUBMITTED"
	ActionDeviceCreated          Action = "DEVICE_CREATED"
	ActionDuplicateDevice        Action = "DUPLICATE_DEVICE_DETECTED"
	ActionDeviceViewed           Action = "DEVICE_VIEWED"
	ActionDuplicateDeviceViewed  Action = "DUPLICATE_DEVICE_VIEWED"
	ActionInvestigationInitiated Action = "INVESTIGATION_INITIATED_FROM_DUPLICATE"
	ActionCaseFromDuplicate      Action = "CASE_INITIATED_FROM_DUPLICATE_DEVICE"
	ActionCaseCloseInitiated     Action = "CASE_CLOSE_INITIATED"
	ActionRiskSignalViewed       Action = "RISK_SIGNAL_VIEWED"
	ActionRiskSignalEscalated    Action = "RISK_SIGNAL_ESCALATED"
	ActionRoleContextLoaded      Action = "ROLE_CONTEXT_LOADED"
	ActionPermissionDenied       Action = "PERMISSION_DENIED"
)

var actions = map[Action]bool{
	ActionClaimRecorded: false, ActionClaimApproved: false, ActionClaimRejected: false,
	ActionDuplicateDetected: false, ActionAuditExported: false, ActionSearch: true,
	ActionCaseViewed: true, ActionLogin: true, ActionLogout: true,
	ActionCaseCreated: false, ActionCaseNoteAdded: false, ActionCaseStatusChanged: false,
	ActionCaseAssigned: false, ActionCaseLinkedClaim: false, ActionCaseLinkedDevice: false,
	ActionCaseNoteUpdated: false, ActionCaseNoteDeleted: false, ActionCaseReopened: false,
	ActionCaseExported: false, ActionCaseRiskUpdated: false, ActionCaseClosed: false,
	ActionDeviceRegistered: false, ActionDeviceSerialExists: false, ActionClaimSubmitted: false,
	ActionDeviceCreated: false, ActionDuplicateDevice: false, ActionDeviceViewed: false,
	ActionDuplicateDeviceViewed: false, ActionInvestigationInitiated: true, ActionCaseFromDuplicate: false,
	ActionCaseCloseInitiated: true, ActionRiskSignalViewed: false, ActionRiskSignalEscalated: false,
	ActionRoleContextLoaded: true, ActionPermissionDenied: true,
}

// Valid reports whether a is a known action.
func (a Action) Valid() bool {
	_, ok := actions[a]
	return ok
}

// ClientReportable reports whether a may be written directly by the UI layer.
// Domain mutations are only ever recorded by the systems that perform them.
func (a Action) ClientReportable() bool {
	return actions[a]
}

// Outcome classifies the result of the recorded operation.
type Outcome string

const (
	OutcomeSuccess    Outcome = "SUCCESS"
	OutcomeFailure    Outcome = "FAILURE"
	OutcomeAutoReject Outcome = "AUTO_REJECT"
	OutcomeRecorded   Outcome = "RECORDED"
)

// Outcomes lists every known outcome. The audit_log outcome constraint in
// cmd/migrate must allow each of them.
var Outcomes = []Outcome{OutcomeSuccess, OutcomeFailure, OutcomeAutoReject, OutcomeRecorded}

// Valid reports whether o is a known outcome.
func (o Outcome) Valid() bool {
	return slices.Contains(Outcomes, o)
}

// Entry is a single immutable audit record.
type Entry struct {
	ID           uuid.UUID      `json:"id"`
	TimestampUTC time.Time      `json:"timestamp_utc"`
	Action       Action         `json:"action"`
	Target       string         `json:"target"`
	Outcome      Outcome        `json:"outcome"`
	Actor        string         `json:"actor"`
	ActorRole    string         `json:"actor_role"`
	Context      string         `json:"context"`
	Details      map[string]any `json:"details,omitempty"`
}

func (e Entry) clone() Entry {
	e.Details = maps.Clone(e.Details)
	return e
}

// WriteCommand carries the fields of a new entry. The store assigns ID and,
// when OccurredAt is zero, the timestamp.
type WriteCommand struct {
	Action     Action         `json:"action"`
	Target     string         `json:"target"`
	Outcome    Outcome        `json:"outcome"`
	Actor      string         `json:"actor"`
	ActorRole  string         `json:"actor_role"`
	Context    string         `json:"context"`
	Details    map[string]any `json:"details,omitempty"`
	OccurredAt time.Time      `json:"-"`
}

func (c *WriteCommand) validate() error {
	if !c.Action.Valid() {
		return fmt.Errorf("%w: unknown action %q", ErrInvalidEntry, c.Action)
	}
	if !c.Outcome.Valid() {
		return fmt.Errorf("%w: unknown outcome %q", ErrInvalidEntry, c.Outcome)
	}
	if strings.TrimSpace(c.Actor) == "" {
		c.Actor = "system"
	}
	if strings.TrimSpace(c.ActorRole) == "" {
		c.ActorRole = "system"
	}
	return nil
}

func (c WriteCommand) entry(now time.Time) Entry {
	ts := c.OccurredAt
	if ts.IsZero() {
		ts = now
	}
	return Entry{
		ID:           uuid.New(),
		TimestampUTC: ts.UTC(),
		Action:       c.Action,
		Target:       c.Target,
		Outcome:      c.Outcome,
		Actor:        c.Actor,
		ActorRole:    c.ActorRole,
		Context:      c.Context,
		Details:      maps.Clone(c.Details),
	}
}
