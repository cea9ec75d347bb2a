// Package cases implements the investigation case lifecycle: status
// transitions, assignment, notes, risk escalation, closure and reopening.
package cases

import (
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/cct/internal/evidence"
)

// Status is the lifecycle state of a case. ON_HOLD is a pause within the
// active phase, not a separate phase.
type Status string

const (
	StatusOpen     Status = "OPEN"
	StatusInReview Status = "IN_REVIEW"
	StatusOnHold   Status = "ON_HOLD"
	StatusClosed   Status = "CLOSED"
)

var transitions = map[Status][]Status{
	StatusOpen:     {StatusInReview, StatusOnHold, StatusClosed},
	StatusInReview: {StatusOpen, StatusOnHold, StatusClosed},
	StatusOnHold:   {StatusOpen, StatusInReview, StatusClosed},
	StatusClosed:   {StatusInReview},
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransition reports whether from -> to is a legal status change.
func CanTransition(from, to Status) bool {
	return slices.Contains(transitions[from], to)
}

// NextStatuses returns the statuses reachable from s.
func NextStatuses(s Status) []Status {
	return slices.Clone(transitions[s])
}

// RiskLevel grades the suspected fraud.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// Valid reports whether r is a known risk level.
func (r RiskLevel) Valid() bool {
	return r == RiskLow || r == RiskMedium || r == RiskHigh
}

func (r RiskLevel) rank() int {
	switch r {
	case RiskHigh:
		return 3
	case RiskMedium:
		return 2
	case RiskLow:
		return 1
	}
	return 0
}

// Origin records how a case was opened.
type Origin string

const (
	OriginManual          Origin = "MANUAL"
	OriginDuplicateDevice Origin = "DUPLICATE_DEVICE"
	OriginRiskSignal      Origin = "RISK_SIGNAL"
)

// HistoryType classifies a case history entry.
type HistoryType string

const (
	HistoryCreated             HistoryType = "CASE_CREATED"
	HistoryStatusChanged       HistoryType = "STATUS_CHANGED"
	HistoryAssigned            HistoryType = "ASSIGNED"
	HistoryUnassigned          HistoryType = "UNASSIGNED"
	HistoryAssignmentCorrected HistoryType = "ASSIGNMENT_CORRECTED"
	HistoryNoteAdded           HistoryType = "NOTE_ADDED"
	HistoryNoteUpdated         HistoryType = "NOTE_UPDATED"
	HistoryNoteDeleted         HistoryType = "NOTE_DELETED"
	HistoryClaimLinked         HistoryType = "CLAIM_LINKED"
	HistoryDeviceLinked        HistoryType = "DEVICE_LINKED"
	HistoryRiskUpdated         HistoryType = "RISK_UPDATED"
	HistoryClosed              HistoryType = "CASE_CLOSED"
	HistoryReopened            HistoryType = "CASE_REOPENED"
)

// HistoryEntry is one line of the case-scoped audit trail.
type HistoryEntry struct {
	Type    HistoryType `json:"type"`
	Summary string      `json:"summary"`
	Actor   string      `json:"actor"`
	At      time.Time   `json:"at"`
}

// Note is an investigator note.
type Note struct {
	ID        uuid.UUID  `json:"id"`
	Author    string     `json:"author"`
	Content   string     `json:"content"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// Closure is present exactly when the case is CLOSED. Outcome and
// Justification are empty when the case was closed by a bare status change.
type Closure struct {
	Outcome       string    `json:"outcome,omitempty"`
	Justification string    `json:"justification,omitempty"`
	ClosedBy      string    `json:"closed_by"`
	ClosedAt      time.Time `json:"closed_at"`
}

// Case is an investigation. Notes and History are newest first.
type Case struct {
	ID               string             `json:"id"`
	Status           Status             `json:"status"`
	RiskLevel        RiskLevel          `json:"risk_level"`
	EscalatedAt      *time.Time         `json:"escalated_at,omitempty"`
	AssignedTo       *string            `json:"assigned_to"`
	Origin           Origin             `json:"origin"`
	LinkedIdentities []string           `json:"linked_identities"`
	LinkedClaimIDs   []int64            `json:"linked_claim_ids"`
	Notes            []Note             `json:"notes"`
	Evidence         *evidence.Snapshot `json:"evidence,omitempty"`
	Closure          *Closure           `json:"closure,omitempty"`
	ClosedAt         *time.Time         `json:"closed_at,omitempty"`
	History          []HistoryEntry     `json:"history"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
	Version          int                `json:"version"`
}

func (c *Case) clone() *Case {
	out := *c
	out.EscalatedAt = clonePtr(c.EscalatedAt)
	out.AssignedTo = clonePtr(c.AssignedTo)
	out.ClosedAt = clonePtr(c.ClosedAt)
	out.Closure = clonePtr(c.Closure)
	out.LinkedIdentities = slices.Clone(c.LinkedIdentities)
	out.LinkedClaimIDs = slices.Clone(c.LinkedClaimIDs)
	out.History = slices.Clone(c.History)
	out.Evidence = c.Evidence.Clone()

	out.Notes = make([]Note, len(c.Notes))
	for i, n := range c.Notes {
		n.UpdatedAt = clonePtr(n.UpdatedAt)
		out.Notes[i] = n
	}
	return &out
}

func (c *Case) noteIndex(id uuid.UUID) int {
	return slices.IndexFunc(c.Notes, func(n Note) bool { return n.ID == id })
}

func (c *Case) primaryIdentity() string {
	if len(c.LinkedIdentities) == 0 {
		return ""
	}
	return c.LinkedIdentities[0]
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
