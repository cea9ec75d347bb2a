// Package evidence derives duplicate-device evidence snapshots from the
// claim ledger. Snapshots are recomputed on every call.
package evidence

import (
	"slices"
	"time"
)

// SourceDuplicateDetection marks snapshots produced by duplicate-device detection.
const SourceDuplicateDetection = "DUPLICATE_DEVICE_DETECTION"

const unknown = "Unknown"

// Claim is a claim as it appears in evidence.
type Claim struct {
	ID         string    `json:"id"`
	Insurer    string    `json:"insurer"`
	Outcome    string    `json:"outcome"`
	RecordedAt time.Time `json:"recorded_at"`
	IMEI       string    `json:"imei,omitempty"`
	Brand      string    `json:"brand,omitempty"`
	Model      string    `json:"model,omitempty"`
}

// Snapshot is a point-in-time aggregation of every claim against one device.
type Snapshot struct {
	Source       string   `json:"source"`
	Serial       string   `json:"serial"`
	IMEI         string   `json:"imei,omitempty"`
	Brand        string   `json:"brand,omitempty"`
	Model        string   `json:"model,omitempty"`
	ClaimCount   int      `json:"claim_count"`
	Insurers     []string `json:"insurers"`
	Outcomes     []string `json:"outcomes"`
	CrossInsurer bool     `json:"cross_insurer"`
	Claims       []Claim  `json:"claims"`
}

// Clone returns a deep copy of s. A nil snapshot clones to nil.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	out := *s
	out.Insurers = slices.Clone(s.Insurers)
	out.Outcomes = slices.Clone(s.Outcomes)
	out.Claims = slices.Clone(s.Claims)
	return &out
}

// Duplicate reports whether the snapshot shows more than one claim.
func (s *Snapshot) Duplicate() bool {
	return s != nil && s.ClaimCount > 1
}
