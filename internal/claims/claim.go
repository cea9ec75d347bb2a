// Package claims implements the append-only claim ledger shared by the
// legacy claim form and the claim-device intake.
package claims

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Source identifies which intake produced a claim.
type Source string

const (
	SourceLedger      Source = "LEDGER"
	SourceClaimDevice Source = "CLAIM_DEVICE"
)

// Outcome is the settlement state of a claim. The lowercase values belong to
// the ledger intake; the uppercase values to the claim-device intake.
type Outcome string

const (
	OutcomeApproved      Outcome = "approved"
	OutcomeRejected      Outcome = "rejected"
	OutcomePending       Outcome = "pending"
	OutcomePaidTotalLoss Outcome = "PAID_TOTAL_LOSS"
	OutcomePaidPartial   Outcome = "PAID_PARTIAL"
	OutcomeDeviceReject  Outcome = "REJECTED"
)

// Rejected reports whether o is a rejection in either vocabulary.
func (o Outcome) Rejected() bool {
	return o == OutcomeRejected || o == OutcomeDeviceReject
}

// DeviceOutcome reports whether o is valid for the claim-device intake.
func (o Outcome) DeviceOutcome() bool {
	switch o {
	case OutcomePaidTotalLoss, OutcomePaidPartial, OutcomeDeviceReject:
		return true
	}
	return false
}

// Insurers known to the claim-device intake.
const (
	InsurerAlpha = "Alpha Insurance"
	InsurerBeta  = "Beta Assurance"
	InsurerGamma = "Gamma Cover"
)

// Claim is an immutable ledger record.
type Claim struct {
	ID             int64           `json:"id"`
	Source         Source          `json:"source"`
	IMEI           string          `json:"imei,omitempty"`
	Serial         string          `json:"serial,omitempty"`
	Brand          string          `json:"brand,omitempty"`
	Model          string          `json:"model,omitempty"`
	Amount         decimal.Decimal `json:"amount"`
	Outcome        Outcome         `json:"outcome"`
	Insurer        string          `json:"insurer,omitempty"`
	ClaimReference string          `json:"claim_reference,omitempty"`
	DeviceID       string          `json:"device_id,omitempty"`
	DeviceCategory string          `json:"device_category,omitempty"`
	DeviceAge      string          `json:"device_age,omitempty"`
	LossType       string          `json:"loss_type,omitempty"`
	DateOfLoss     string          `json:"date_of_loss,omitempty"`
	RecordedAt     time.Time       `json:"recorded_at"`
}

// Identity returns the device identity of the claim: the IMEI when present,
// otherwise the serial.
func (c Claim) Identity() string {
	if c.IMEI != "" {
		return c.IMEI
	}
	return c.Serial
}

// MatchesIdentity reports whether id names this claim's device by IMEI or serial.
func (c Claim) MatchesIdentity(id string) bool {
	id = strings.TrimSpace(id)
	if id == "" {
		return false
	}
	return c.IMEI == id || c.Serial == id
}

func (c Claim) sharesDevice(o Claim) bool {
	if c.IMEI != "" && c.IMEI == o.IMEI {
		return true
	}
	return c.Serial != "" && c.Serial == o.Serial
}

// RecordCommand is the input of the ledger intake. The outcome is computed.
type RecordCommand struct {
	IMEI    string          `json:"imei"`
	Serial  string          `json:"serial"`
	Brand   string          `json:"brand"`
	Model   string          `json:"model"`
	Amount  decimal.Decimal `json:"amount"`
	Insurer string          `json:"insurer,omitempty"`
}

// DeviceClaimCommand is the input of the claim-device intake.
type DeviceClaimCommand struct {
	DeviceID       string          `json:"device_id"`
	Serial         string          `json:"serial"`
	IMEI           string          `json:"imei,omitempty"`
	Brand          string          `json:"brand,omitempty"`
	Model          string          `json:"model,omitempty"`
	DeviceCategory string          `json:"device_category,omitempty"`
	DeviceAge      string          `json:"device_age,omitempty"`
	Insurer        string          `json:"insurer"`
	ClaimReference string          `json:"claim_reference,omitempty"`
	LossType       string          `json:"loss_type"`
	DateOfLoss     string          `json:"date_of_loss"`
	Amount         decimal.Decimal `json:"amount"`
	Outcome        Outcome         `json:"outcome"`
}

// Stats summarizes the ledger for the dashboard.
type Stats struct {
	TotalClaims      int             `json:"total_claims"`
	DuplicateDevices int             `json:"duplicate_devices"`
	RejectedClaims   int             `json:"rejected_claims"`
	FraudPrevented   decimal.Decimal `json:"fraud_prevented"`
}
