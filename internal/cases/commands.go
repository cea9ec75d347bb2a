package cases

import "github.com/JaimeStill/cct/internal/evidence"

// ExpectedVersion of zero skips the optimistic version check on any command.

// CreateCommand opens a case manually. Evidence, when given, is frozen.
type CreateCommand struct {
	Identity       string             `json:"identity"`
	RiskLevel      RiskLevel          `json:"risk_level,omitempty"`
	AssignedTo     *string            `json:"assigned_to,omitempty"`
	LinkedClaimIDs []int64            `json:"linked_claim_ids,omitempty"`
	Evidence       *evidence.Snapshot `json:"evidence,omitempty"`
	Origin         Origin             `json:"origin,omitempty"`
}

// OpenFromEvidenceCommand opens a case over a freshly captured snapshot.
type OpenFromEvidenceCommand struct {
	Identity   string  `json:"identity"`
	Origin     Origin  `json:"origin,omitempty"`
	AssignedTo *string `json:"assigned_to,omitempty"`
}

// StatusCommand changes the case status. Reason is required when leaving CLOSED.
type StatusCommand struct {
	Status          Status `json:"status"`
	Reason          string `json:"reason,omitempty"`
	ExpectedVersion int    `json:"expected_version,omitempty"`
}

// AssignCommand sets or, with a nil InvestigatorID, clears the assignee.
type AssignCommand struct {
	InvestigatorID  *string `json:"investigator_id"`
	ExpectedVersion int     `json:"expected_version,omitempty"`
}

// NoteCommand adds or edits a note.
type NoteCommand struct {
	Content         string `json:"content"`
	ExpectedVersion int    `json:"expected_version,omitempty"`
}

// RiskCommand changes the risk level.
type RiskCommand struct {
	Level           RiskLevel `json:"level"`
	Justification   string    `json:"justification"`
	ExpectedVersion int       `json:"expected_version,omitempty"`
}

// LinkClaimCommand associates a ledger claim with the case.
type LinkClaimCommand struct {
	ClaimID         int64 `json:"claim_id"`
	ExpectedVersion int   `json:"expected_version,omitempty"`
}

// LinkDeviceCommand associates a device identity with the case.
type LinkDeviceCommand struct {
	Identity        string `json:"identity"`
	ExpectedVersion int    `json:"expected_version,omitempty"`
}

// CloseCommand closes a case with an outcome and justification.
type CloseCommand struct {
	Outcome         string `json:"outcome"`
	Justification   string `json:"justification"`
	ExpectedVersion int    `json:"expected_version,omitempty"`
}

// ReopenCommand returns a closed case to IN_REVIEW.
type ReopenCommand struct {
	Reason          string `json:"reason"`
	ExpectedVersion int    `json:"expected_version,omitempty"`
}
