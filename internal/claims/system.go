package claims

import (
	"context"

	"github.com/JaimeStill/cct/pkg/pagination"
)

// System defines the claim ledger. Only the ledger appends claims; every
// other component reads.
type System interface {
	Handler() *Handler

	// Record appends a ledger claim. A claim whose device already has a claim
	// is accepted and auto-rejected.
	Record(ctx context.Context, cmd RecordCommand) (*Claim, error)
	// RecordDeviceClaim appends a claim from the claim-device intake.
	RecordDeviceClaim(ctx context.Context, cmd DeviceClaimCommand) (*Claim, error)

	All() []Claim
	List(page pagination.PageRequest, filters Filters) *pagination.PageResult[Claim]
	Find(id int64) (*Claim, error)
	ByIdentity(identity string) []Claim
	GroupedByIdentity() map[string][]Claim
	ByIDs(ids []int64) []Claim
	Stats() Stats

	// Search resolves q to a device identity, matching IMEI before serial.
	Search(ctx context.Context, q string) (string, bool)
	// History returns ByIdentity and records the sensitive read.
	History(ctx context.Context, identity string) []Claim

	References() *References
}
