// Package export assembles read-only compliance bundles for a case or a
// slice of the audit log, optionally persisting them to blob storage.
package export

import (
	"encoding/csv"
	"io"
	"time"

	"github.com/JaimeStill/cct/internal/audit"
	"github.com/JaimeStill/cct/internal/cases"
	"github.com/JaimeStill/cct/internal/claims"
)

// CaseReport bundles a case with its linked claims and audit trail.
type CaseReport struct {
	GeneratedAt time.Time      `json:"generated_at"`
	GeneratedBy string         `json:"generated_by"`
	Case        *cases.Case    `json:"case"`
	Claims      []claims.Claim `json:"claims"`
	Trail       []audit.Entry  `json:"audit_trail"`
	Artifacts   []string       `json:"artifacts,omitempty"`
}

// AuditReport is a filtered extract of the audit log in chronological order.
type AuditReport struct {
	GeneratedAt time.Time     `json:"generated_at"`
	GeneratedBy string        `json:"generated_by"`
	Filters     audit.Filters `json:"filters"`
	Count       int           `json:"count"`
	Entries     []audit.Entry `json:"entries"`
	Artifacts   []string      `json:"artifacts,omitempty"`
}

var trailHeader = []string{"id", "timestamp_utc", "action", "outcome", "target", "actor", "actor_role", "context"}

// WriteTrailCSV writes entries as CSV with a header row.
func WriteTrailCSV(w io.Writer, entries []audit.Entry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(trailHeader); err != nil {
		return err
	}
	for _, e := range entries {
		row := []string{
			e.ID.String(),
			e.TimestampUTC.UTC().Format(time.RFC3339),
			string(e.Action),
			string(e.Outcome),
			e.Target,
			e.Actor,
			e.ActorRole,
			e.Context,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
