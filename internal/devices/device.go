// Package devices implements the device registry: explicit registrations
// merged with claim-derived device rows.
package devices

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/JaimeStill/cct/internal/claims"
)

// Registration states of a device record.
const (
	StatusRegistered = "Registered"
	StatusExisting   = "Existing"
)

// Row states derived from claim counts.
const (
	RowClean     = "Clean"
	RowDuplicate = "Duplicate"
)

// Result states of Register and Intake.
const (
	ResultCreated  = "created"
	ResultExisting = "existing"
)

const unknownInsurer = "Unknown"

// Device is a registered or claim-known device.
type Device struct {
	ID           string    `json:"id"`
	Serial       string    `json:"serial"`
	IMEI         string    `json:"imei,omitempty"`
	Category     string    `json:"category,omitempty"`
	Brand        string    `json:"brand,omitempty"`
	Model        string    `json:"model,omitempty"`
	Age          string    `json:"age,omitempty"`
	Status       string    `json:"status"`
	RegisteredAt time.Time `json:"registered_at"`
}

// Row is the unified device view over claims and registrations.
type Row struct {
	Serial       string     `json:"serial"`
	IMEI         string     `json:"imei,omitempty"`
	Brand        string     `json:"brand,omitempty"`
	Model        string     `json:"model,omitempty"`
	Category     string     `json:"category,omitempty"`
	Age          string     `json:"age,omitempty"`
	ClaimCount   int        `json:"claim_count"`
	LastInsurer  string     `json:"last_insurer"`
	Status       string     `json:"status"`
	LastActivity *time.Time `json:"last_activity,omitempty"`
}

// Identity returns the device identity of the row: the IMEI when known,
// otherwise the serial.
func (r Row) Identity() string {
	if r.IMEI != "" {
		return r.IMEI
	}
	return r.Serial
}

// RegisterCommand registers a device by serial.
type RegisterCommand struct {
	Serial string `json:"serial"`
	Brand  string `json:"brand,omitempty"`
	Model  string `json:"model,omitempty"`
}

// RegisterResult reports whether Register created a device or found one.
type RegisterResult struct {
	Status string `json:"status"`
	Device Device `json:"device"`
}

// CreateCommand strictly creates a device record.
type CreateCommand struct {
	Serial   string `json:"serial"`
	IMEI     string `json:"imei,omitempty"`
	Category string `json:"category,omitempty"`
	Brand    string `json:"brand,omitempty"`
	Model    string `json:"model,omitempty"`
	Age      string `json:"age,omitempty"`
}

// IntakeCommand submits a claim against a device, creating the device when
// the serial is unknown.
type IntakeCommand struct {
	Serial         string          `json:"serial"`
	IMEI           string          `json:"imei,omitempty"`
	Category       string          `json:"category,omitempty"`
	Brand          string          `json:"brand,omitempty"`
	Model          string          `json:"model,omitempty"`
	Age            string          `json:"age,omitempty"`
	Insurer        string          `json:"insurer"`
	ClaimReference string          `json:"claim_reference,omitempty"`
	LossType       string          `json:"loss_type"`
	DateOfLoss     string          `json:"date_of_loss"`
	Amount         decimal.Decimal `json:"amount"`
	Outcome        claims.Outcome  `json:"outcome"`
}

// IntakeResult is the outcome of a claim-device intake.
type IntakeResult struct {
	Status string       `json:"status"`
	Device Device       `json:"device"`
	Claim  claims.Claim `json:"claim"`
}

func deviceID(serial string) string {
	return "device-" + serial
}
